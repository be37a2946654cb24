package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the devices table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			ip_address TEXT NOT NULL,
			type TEXT NOT NULL,
			location TEXT NOT NULL,
			status TEXT NOT NULL,
			last_checked TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;
		CREATE UNIQUE INDEX idx_devices_ip_address ON devices(ip_address);
		CREATE INDEX idx_devices_type ON devices(type);
		CREATE INDEX idx_devices_status ON devices(status);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// forEachRepo runs a subtest against both repository backends so their
// behaviour cannot drift apart.
func forEachRepo(t *testing.T, fn func(t *testing.T, repo Repository)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		fn(t, NewSQLiteRepository(setupTestDB(t)))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryRepository())
	})
}

func strPtr(s string) *string          { return &s }
func typePtr(v DeviceType) *DeviceType { return &v }
func statusPtr(v Status) *Status       { return &v }

// testFields builds a complete validated field set.
func testFields(name, ip string) *Fields {
	return &Fields{
		Name:      strPtr(name),
		IPAddress: strPtr(ip),
		Type:      typePtr(TypeRouter),
		Status:    statusPtr(StatusUnknown),
		Location:  strPtr("rack1"),
	}
}

func mustCreate(t *testing.T, repo Repository, fields *Fields) *Device {
	t.Helper()
	d, err := repo.Create(context.Background(), fields)
	if err != nil {
		t.Fatalf("Create(%s) error = %v", *fields.IPAddress, err)
	}
	return d
}

func TestRepositoryCreate(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		d := mustCreate(t, repo, testFields("core-router", "192.168.1.1"))
		if d.ID == "" {
			t.Error("Create() did not assign an id")
		}
		if err := ValidateID(d.ID); err != nil {
			t.Errorf("assigned id %q is not well-formed: %v", d.ID, err)
		}
		if !d.CreatedAt.Equal(d.UpdatedAt) {
			t.Errorf("created_at %v != updated_at %v at creation", d.CreatedAt, d.UpdatedAt)
		}
		if d.LastChecked != nil {
			t.Errorf("last_checked = %v, want nil at creation", d.LastChecked)
		}

		got, err := repo.GetByID(ctx, d.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Name != "core-router" || got.IPAddress != "192.168.1.1" {
			t.Errorf("stored device = %+v", got)
		}
		if !got.CreatedAt.Equal(d.CreatedAt) {
			t.Errorf("round-tripped created_at = %v, want %v", got.CreatedAt, d.CreatedAt)
		}
	})
}

func TestRepositoryDuplicateIP(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		mustCreate(t, repo, testFields("first", "10.0.0.1"))

		_, err := repo.Create(ctx, testFields("second", "10.0.0.1"))
		if !errors.Is(err, ErrDuplicateIP) {
			t.Fatalf("Create() error = %v, want ErrDuplicateIP", err)
		}

		// The failed create must leave no trace.
		devices, meta, err := repo.List(ctx, ListOptions{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if meta.Total != 1 || len(devices) != 1 {
			t.Errorf("Total = %d, len = %d, want 1 device", meta.Total, len(devices))
		}
		if devices[0].Name != "first" {
			t.Errorf("surviving device = %q, want %q", devices[0].Name, "first")
		}
	})
}

func TestRepositoryGetByID(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		_, err := repo.GetByID(ctx, "not-a-valid-id")
		if !errors.Is(err, ErrInvalidDeviceID) {
			t.Errorf("malformed id error = %v, want ErrInvalidDeviceID", err)
		}

		_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		if !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("absent id error = %v, want ErrDeviceNotFound", err)
		}
	})
}

func TestRepositoryGetByIP(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		created := mustCreate(t, repo, testFields("core-router", "10.1.2.3"))

		got, err := repo.GetByIP(ctx, "10.1.2.3")
		if err != nil {
			t.Fatalf("GetByIP() error = %v", err)
		}
		if got.ID != created.ID {
			t.Errorf("GetByIP() id = %q, want %q", got.ID, created.ID)
		}

		_, err = repo.GetByIP(ctx, "10.9.9.9")
		if !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("absent ip error = %v, want ErrDeviceNotFound", err)
		}
	})
}

func TestRepositoryUpdate(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		d := mustCreate(t, repo, testFields("old-name", "172.16.0.1"))

		t.Run("applies partial fields", func(t *testing.T) {
			updated, err := repo.Update(ctx, d.ID, &Fields{
				Name:   strPtr("new-name"),
				Status: statusPtr(StatusOnline),
			})
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if updated.Name != "new-name" {
				t.Errorf("Name = %q, want %q", updated.Name, "new-name")
			}
			if updated.Status != StatusOnline {
				t.Errorf("Status = %q, want %q", updated.Status, StatusOnline)
			}
			if updated.IPAddress != "172.16.0.1" {
				t.Errorf("IPAddress = %q, untouched field changed", updated.IPAddress)
			}
			if !updated.CreatedAt.Equal(d.CreatedAt) {
				t.Errorf("created_at changed on update: %v -> %v", d.CreatedAt, updated.CreatedAt)
			}
			if updated.UpdatedAt.Before(d.UpdatedAt) {
				t.Errorf("updated_at went backwards: %v -> %v", d.UpdatedAt, updated.UpdatedAt)
			}
		})

		t.Run("rejects empty field set", func(t *testing.T) {
			_, err := repo.Update(ctx, d.ID, &Fields{})
			if !errors.Is(err, ErrNoUpdatableFields) {
				t.Errorf("Update() error = %v, want ErrNoUpdatableFields", err)
			}
		})

		t.Run("absent id", func(t *testing.T) {
			_, err := repo.Update(ctx, "00000000-0000-0000-0000-000000000000", &Fields{Name: strPtr("x")})
			if !errors.Is(err, ErrDeviceNotFound) {
				t.Errorf("Update() error = %v, want ErrDeviceNotFound", err)
			}
		})

		t.Run("malformed id", func(t *testing.T) {
			_, err := repo.Update(ctx, "bogus", &Fields{Name: strPtr("x")})
			if !errors.Is(err, ErrInvalidDeviceID) {
				t.Errorf("Update() error = %v, want ErrInvalidDeviceID", err)
			}
		})
	})
}

func TestRepositoryIPChange(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		a := mustCreate(t, repo, testFields("device-a", "10.0.0.1"))
		mustCreate(t, repo, testFields("device-b", "10.0.0.2"))

		// Moving A onto B's address must collide.
		_, err := repo.Update(ctx, a.ID, &Fields{IPAddress: strPtr("10.0.0.2")})
		if !errors.Is(err, ErrDuplicateIP) {
			t.Fatalf("Update() error = %v, want ErrDuplicateIP", err)
		}

		// A failed move must leave A on its original address.
		got, err := repo.GetByID(ctx, a.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.IPAddress != "10.0.0.1" {
			t.Fatalf("failed update changed ip to %q", got.IPAddress)
		}

		// Moving to a free address succeeds and releases the old one.
		if _, err := repo.Update(ctx, a.ID, &Fields{IPAddress: strPtr("10.0.0.3")}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if _, err := repo.Create(ctx, testFields("device-c", "10.0.0.1")); err != nil {
			t.Fatalf("Create() on released ip error = %v", err)
		}
	})
}

func TestRepositoryDelete(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		d := mustCreate(t, repo, testFields("doomed", "10.0.0.1"))

		deleted, err := repo.Delete(ctx, d.ID)
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if !deleted {
			t.Error("Delete() = false, want true")
		}

		// Deleting again is a no-op, not an error.
		deleted, err = repo.Delete(ctx, d.ID)
		if err != nil {
			t.Fatalf("second Delete() error = %v", err)
		}
		if deleted {
			t.Error("second Delete() = true, want false")
		}

		if _, err := repo.GetByID(ctx, d.ID); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("GetByID() after delete = %v, want ErrDeviceNotFound", err)
		}

		// The address is free for reuse.
		if _, err := repo.Create(ctx, testFields("replacement", "10.0.0.1")); err != nil {
			t.Errorf("Create() on released ip error = %v", err)
		}
	})
}

func TestRepositoryUpdateProbeResult(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		d := mustCreate(t, repo, testFields("probed", "10.0.0.1"))

		updated, err := repo.UpdateProbeResult(ctx, d.ID, StatusOffline)
		if err != nil {
			t.Fatalf("UpdateProbeResult() error = %v", err)
		}
		if updated.Status != StatusOffline {
			t.Errorf("Status = %q, want %q", updated.Status, StatusOffline)
		}
		if updated.LastChecked == nil {
			t.Fatal("LastChecked = nil, want probe timestamp")
		}
		if updated.LastChecked.Before(d.CreatedAt) {
			t.Errorf("LastChecked %v before creation %v", updated.LastChecked, d.CreatedAt)
		}

		_, err = repo.UpdateProbeResult(ctx, "00000000-0000-0000-0000-000000000000", StatusOnline)
		if !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("absent id error = %v, want ErrDeviceNotFound", err)
		}
	})
}

func TestRepositoryListPagination(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		for i := 0; i < 25; i++ {
			mustCreate(t, repo, testFields(
				fmt.Sprintf("device-%02d", i),
				fmt.Sprintf("10.0.0.%d", i+1),
			))
		}

		tests := []struct {
			name        string
			page        int
			pageSize    int
			wantLen     int
			wantPage    int
			wantSize    int
			wantHasNext bool
			wantHasPrev bool
		}{
			{"first page", 1, 10, 10, 1, 10, true, false},
			{"middle page", 2, 10, 10, 2, 10, true, true},
			{"short last page", 3, 10, 5, 3, 10, false, true},
			{"beyond last page", 4, 10, 0, 4, 10, false, true},
			{"page clamped to one", 0, 10, 10, 1, 10, true, false},
			{"page size clamped to max", 1, 1000, 25, 1, MaxPageSize, false, false},
			{"zero page size uses default", 1, 0, 20, 1, DefaultPageSize, true, false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				devices, meta, err := repo.List(ctx, ListOptions{Page: tt.page, PageSize: tt.pageSize})
				if err != nil {
					t.Fatalf("List() error = %v", err)
				}
				if len(devices) != tt.wantLen {
					t.Errorf("len = %d, want %d", len(devices), tt.wantLen)
				}
				if meta.Total != 25 {
					t.Errorf("Total = %d, want 25", meta.Total)
				}
				if meta.Page != tt.wantPage || meta.PageSize != tt.wantSize {
					t.Errorf("meta page/size = %d/%d, want %d/%d", meta.Page, meta.PageSize, tt.wantPage, tt.wantSize)
				}
				if meta.TotalPages != (25+meta.PageSize-1)/meta.PageSize {
					t.Errorf("TotalPages = %d", meta.TotalPages)
				}
				if meta.HasNext != tt.wantHasNext || meta.HasPrev != tt.wantHasPrev {
					t.Errorf("HasNext/HasPrev = %v/%v, want %v/%v",
						meta.HasNext, meta.HasPrev, tt.wantHasNext, tt.wantHasPrev)
				}
			})
		}

		t.Run("pages never overlap", func(t *testing.T) {
			seen := make(map[string]bool)
			for page := 1; page <= 3; page++ {
				devices, _, err := repo.List(ctx, ListOptions{Page: page, PageSize: 10})
				if err != nil {
					t.Fatalf("List(page=%d) error = %v", page, err)
				}
				for _, d := range devices {
					if seen[d.ID] {
						t.Errorf("device %s appeared on two pages", d.ID)
					}
					seen[d.ID] = true
				}
			}
			if len(seen) != 25 {
				t.Errorf("saw %d distinct devices across pages, want 25", len(seen))
			}
		})
	})
}

func TestRepositoryListFilters(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		seed := []struct {
			name, ip, location string
			typ                DeviceType
			status             Status
		}{
			{"edge-router", "10.0.0.1", "London DC", TypeRouter, StatusOnline},
			{"core-switch", "10.0.0.2", "rack7", TypeSwitch, StatusOffline},
			{"build-server", "192.168.7.3", "rack7", TypeServer, StatusOnline},
			{"spare-router", "10.0.0.4", "warehouse", TypeRouter, StatusUnknown},
		}
		for _, s := range seed {
			mustCreate(t, repo, &Fields{
				Name:      strPtr(s.name),
				IPAddress: strPtr(s.ip),
				Type:      typePtr(s.typ),
				Status:    statusPtr(s.status),
				Location:  strPtr(s.location),
			})
		}

		tests := []struct {
			name      string
			filter    ListFilter
			wantNames []string
		}{
			{"by type", ListFilter{Type: TypeRouter}, []string{"edge-router", "spare-router"}},
			{"by status", ListFilter{Status: StatusOnline}, []string{"build-server", "edge-router"}},
			{"type and status", ListFilter{Type: TypeRouter, Status: StatusOnline}, []string{"edge-router"}},
			{"query matches name", ListFilter{Query: "switch"}, []string{"core-switch"}},
			{"query matches ip", ListFilter{Query: "192.168"}, []string{"build-server"}},
			{"query matches location", ListFilter{Query: "warehouse"}, []string{"spare-router"}},
			{"query is case insensitive", ListFilter{Query: "LONDON"}, []string{"edge-router"}},
			{"query spans columns", ListFilter{Query: "rack7"}, []string{"build-server", "core-switch"}},
			{"query with equality filter", ListFilter{Query: "rack7", Status: StatusOnline}, []string{"build-server"}},
			{"no match", ListFilter{Query: "nonexistent"}, []string{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				devices, meta, err := repo.List(ctx, ListOptions{
					Filter: tt.filter,
					Sort:   Sort{Field: SortByName},
				})
				if err != nil {
					t.Fatalf("List() error = %v", err)
				}
				if meta.Total != len(tt.wantNames) {
					t.Errorf("Total = %d, want %d", meta.Total, len(tt.wantNames))
				}
				names := make([]string, 0, len(devices))
				for _, d := range devices {
					names = append(names, d.Name)
				}
				if len(names) != len(tt.wantNames) {
					t.Fatalf("names = %v, want %v", names, tt.wantNames)
				}
				for i := range names {
					if names[i] != tt.wantNames[i] {
						t.Fatalf("names = %v, want %v", names, tt.wantNames)
					}
				}
			})
		}
	})
}

func TestRepositoryListSort(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		for i, name := range []string{"bravo", "alpha", "charlie"} {
			mustCreate(t, repo, testFields(name, fmt.Sprintf("10.0.0.%d", i+1)))
		}

		devices, _, err := repo.List(ctx, ListOptions{Sort: Sort{Field: SortByName}})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		for i, want := range []string{"alpha", "bravo", "charlie"} {
			if devices[i].Name != want {
				t.Fatalf("ascending order = %v", deviceNames(devices))
			}
		}

		devices, _, err = repo.List(ctx, ListOptions{Sort: Sort{Field: SortByName, Desc: true}})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		for i, want := range []string{"charlie", "bravo", "alpha"} {
			if devices[i].Name != want {
				t.Fatalf("descending order = %v", deviceNames(devices))
			}
		}
	})
}

func deviceNames(devices []Device) []string {
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		names = append(names, d.Name)
	}
	return names
}

func TestRepositoryHandsOutClones(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		d := mustCreate(t, repo, testFields("original", "10.0.0.1"))
		d.Name = "mutated locally"

		got, err := repo.GetByID(ctx, d.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Name != "original" {
			t.Errorf("stored name = %q, caller mutation leaked into store", got.Name)
		}

		got.Name = "mutated again"
		again, err := repo.GetByID(ctx, d.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if again.Name != "original" {
			t.Errorf("stored name = %q, fetched copy aliases store", again.Name)
		}
	})
}
