// Package device provides the device registry core for netregistry.
//
// The registry is the catalogue of tracked network devices (routers,
// switches, servers), keyed by unique IPv4 address. It manages device
// lifecycle and provides query operations for the REST API.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────────────┐
//	│                          Device Registry                           │
//	│                                                                    │
//	│  ┌────────────────┐   ┌─────────────────────┐   ┌───────────────┐  │
//	│  │    Service     │   │     Repository      │   │  Validation   │  │
//	│  │ (service.go)   │──▶│  (repository.go)    │   │(validation.go)│  │
//	│  │                │   │                     │   │               │  │
//	│  │ • Orchestration│   │ • SQLiteRepository  │   │ • Field rules │  │
//	│  │ • Probe wiring │   │ • MemoryRepository  │   │ • IPv4 checks │  │
//	│  │ • Notifications│   │ • Pagination        │   │ • Enum sets   │  │
//	│  └────────────────┘   └─────────────────────┘   └───────────────┘  │
//	└────────────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Device: a tracked network device with identity, address and status
//   - Repository: the persistence contract both backends implement
//   - Service: validation + storage + probing orchestration
//   - ValidationError: per-field payload failures
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db)
//	svc := device.NewService(repo, prober, nil, nil)
//
//	dev, err := svc.Create(ctx, payload)
//	devices, meta, err := svc.List(ctx, device.ListOptions{PageSize: 20})
//	result, err := svc.Ping(ctx, dev.ID)
//
// # Thread Safety
//
// Both repository implementations are safe for concurrent use. The Service
// holds no state of its own beyond its collaborators.
package device
