package device

import "context"

// Repository defines the interface for device persistence operations.
// Two implementations exist: SQLiteRepository for durable storage and
// MemoryRepository as a process-local fallback. The abstraction also
// enables unit testing without database dependencies.
//
// Both implementations honour the same contract:
//   - handed-out devices are clones, never aliases of stored state
//   - ip_address is unique across the store
//   - list pagination clamps page/page_size identically
type Repository interface {
	// Create inserts a new device built from validated fields.
	// Assigns the ID and both timestamps (created_at == updated_at).
	// Returns ErrDuplicateIP if the ip_address is already registered.
	Create(ctx context.Context, fields *Fields) (*Device, error)

	// GetByID retrieves a device by its unique identifier.
	// Returns ErrInvalidDeviceID for malformed ids and ErrDeviceNotFound
	// when no device carries the id.
	GetByID(ctx context.Context, id string) (*Device, error)

	// GetByIP retrieves a device by its IPv4 address.
	// Returns ErrDeviceNotFound when no device holds the address.
	GetByIP(ctx context.Context, ip string) (*Device, error)

	// List retrieves a page of devices matching the options.
	// Filters compose with AND; the free-text query matches name,
	// ip_address or location case-insensitively.
	List(ctx context.Context, opts ListOptions) ([]Device, PageMeta, error)

	// Update applies the non-nil fields to an existing device atomically
	// and returns the post-update record. Refreshes updated_at.
	// Returns ErrInvalidDeviceID, ErrDeviceNotFound, ErrNoUpdatableFields
	// or ErrDuplicateIP (when an ip_address change collides).
	Update(ctx context.Context, id string, fields *Fields) (*Device, error)

	// UpdateProbeResult records a reachability outcome: status and
	// last_checked together, refreshing updated_at.
	// Returns ErrInvalidDeviceID or ErrDeviceNotFound.
	UpdateProbeResult(ctx context.Context, id string, status Status) (*Device, error)

	// Delete removes a device by ID. Reports whether a device was removed;
	// deleting an absent id is not an error.
	Delete(ctx context.Context, id string) (bool, error)
}

// List defaults and bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortField names a column devices may be ordered by.
type SortField string

// Sortable fields.
const (
	SortByName      SortField = "name"
	SortByIPAddress SortField = "ip_address"
	SortByType      SortField = "type"
	SortByStatus    SortField = "status"
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
)

var sortFields = map[SortField]struct{}{
	SortByName:      {},
	SortByIPAddress: {},
	SortByType:      {},
	SortByStatus:    {},
	SortByCreatedAt: {},
	SortByUpdatedAt: {},
}

// ValidSortField reports whether f names a sortable column.
func ValidSortField(f SortField) bool {
	_, ok := sortFields[f]
	return ok
}

// ListFilter narrows a device listing. Zero values mean "no constraint".
type ListFilter struct {
	Type   DeviceType
	Status Status

	// Query is a case-insensitive substring matched against name,
	// ip_address and location (any of the three matching selects the row).
	Query string
}

// Sort describes the ordering of a device listing.
type Sort struct {
	Field SortField
	Desc  bool
}

// ListOptions carries filtering, sorting and pagination for List.
type ListOptions struct {
	Filter   ListFilter
	Sort     Sort
	Page     int
	PageSize int
}

// normalized returns a copy with page/page_size clamped and the default
// sort applied. Both repository backends call this so their pagination
// semantics cannot drift apart.
func (o ListOptions) normalized() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	if !ValidSortField(o.Sort.Field) {
		o.Sort = Sort{Field: SortByCreatedAt, Desc: true}
	}
	return o
}

// PageMeta describes the position of a returned page within the full
// filtered result set.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// pageMeta derives PageMeta from a total row count and normalized options.
func pageMeta(total int, opts ListOptions) PageMeta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + opts.PageSize - 1) / opts.PageSize
	}
	return PageMeta{
		Total:      total,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
		TotalPages: totalPages,
		HasNext:    opts.Page < totalPages,
		HasPrev:    opts.Page > 1 && total > 0,
	}
}
