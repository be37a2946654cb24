package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const deviceColumns = "id, name, ip_address, type, location, status, last_checked, created_at, updated_at"

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with the devices
// schema already migrated.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new device built from validated fields.
func (r *SQLiteRepository) Create(ctx context.Context, fields *Fields) (*Device, error) {
	now := time.Now().UTC().Truncate(time.Second)
	d := &Device{
		ID:        uuid.NewString(),
		Name:      *fields.Name,
		IPAddress: *fields.IPAddress,
		Type:      *fields.Type,
		Location:  *fields.Location,
		Status:    *fields.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO devices (` + deviceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.Name,
		d.IPAddress,
		string(d.Type),
		d.Location,
		string(d.Status),
		nullableTime(d.LastChecked),
		d.CreatedAt.Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIP, d.IPAddress)
		}
		return nil, fmt.Errorf("inserting device: %w", err)
	}

	return d, nil
}

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`

	d, err := scanDevice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return d, nil
}

// GetByIP retrieves a device by its IPv4 address.
func (r *SQLiteRepository) GetByIP(ctx context.Context, ip string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE ip_address = ?`

	d, err := scanDevice(r.db.QueryRowContext(ctx, query, ip))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by ip: %w", err)
	}
	return d, nil
}

// List retrieves a page of devices matching the options.
func (r *SQLiteRepository) List(ctx context.Context, opts ListOptions) ([]Device, PageMeta, error) {
	opts = opts.normalized()
	where, args := buildListWhere(opts.Filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM devices" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, PageMeta{}, fmt.Errorf("counting devices: %w", err)
	}

	direction := "ASC"
	if opts.Sort.Desc {
		direction = "DESC"
	}
	query := fmt.Sprintf(
		"SELECT %s FROM devices%s ORDER BY %s %s, id ASC LIMIT ? OFFSET ?",
		deviceColumns, where, string(opts.Sort.Field), direction,
	)
	args = append(args, opts.PageSize, (opts.Page-1)*opts.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	devices := make([]Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, PageMeta{}, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, PageMeta{}, fmt.Errorf("iterating devices: %w", err)
	}

	return devices, pageMeta(total, opts), nil
}

// Update applies the non-nil fields to an existing device atomically.
// The whole operation runs in one transaction so the returned record is
// the post-update row, never a stale pre-image.
func (r *SQLiteRepository) Update(ctx context.Context, id string, fields *Fields) (*Device, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if fields == nil || fields.IsEmpty() {
		return nil, ErrNoUpdatableFields
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning update transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	set := make([]string, 0, 6)
	args := make([]any, 0, 7)
	appendSet := func(col string, val any) {
		set = append(set, col+" = ?")
		args = append(args, val)
	}
	if fields.Name != nil {
		appendSet("name", *fields.Name)
	}
	if fields.IPAddress != nil {
		appendSet("ip_address", *fields.IPAddress)
	}
	if fields.Type != nil {
		appendSet("type", string(*fields.Type))
	}
	if fields.Status != nil {
		appendSet("status", string(*fields.Status))
	}
	if fields.Location != nil {
		appendSet("location", *fields.Location)
	}
	appendSet("updated_at", time.Now().UTC().Truncate(time.Second).Format(time.RFC3339))
	args = append(args, id)

	query := "UPDATE devices SET " + strings.Join(set, ", ") + " WHERE id = ?"
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueConstraintError(err) && fields.IPAddress != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIP, *fields.IPAddress)
		}
		return nil, fmt.Errorf("updating device: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrDeviceNotFound
	}

	d, err := scanDevice(tx.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("reading updated device: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing update: %w", err)
	}
	return d, nil
}

// UpdateProbeResult records a reachability outcome for a device.
// Status and last_checked change together in a single statement.
func (r *SQLiteRepository) UpdateProbeResult(ctx context.Context, id string, status Status) (*Device, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
	query := `
		UPDATE devices
		SET status = ?, last_checked = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, string(status), now, now, id)
	if err != nil {
		return nil, fmt.Errorf("recording probe result: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrDeviceNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes a device by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := ValidateID(id); err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting device: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// buildListWhere composes the WHERE clause for List from the filter.
// Equality filters AND together; the free-text query forms an OR group
// over name, ip_address and location.
func buildListWhere(f ListFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Query != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Query)) + "%"
		clauses = append(clauses,
			`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(ip_address) LIKE ? ESCAPE '\' OR LOWER(location) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a row or rows result into a Device.
func scanDevice(scanner rowScanner) (*Device, error) {
	var d Device
	var deviceType, status string
	var lastChecked sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(
		&d.ID,
		&d.Name,
		&d.IPAddress,
		&deviceType,
		&d.Location,
		&status,
		&lastChecked,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Type = DeviceType(deviceType)
	d.Status = Status(status)

	if lastChecked.Valid {
		t, err := time.Parse(time.RFC3339, lastChecked.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_checked: %w", err)
		}
		d.LastChecked = &t
	}
	d.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	d.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &d, nil
}

// nullableTime returns a sql.NullString for optional time pointers (as RFC3339 strings).
func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
