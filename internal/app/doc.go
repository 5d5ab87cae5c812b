// Package app composes the marketplace application core into a running
// service.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Main application struct, wiring, and lifecycle
//	├── domain/             # Domain models (pure data structures)
//	│   ├── application/    # Structured marketplace application record
//	│   └── legacy/         # Pre-migration flat record
//	├── importer/           # Legacy → structured transformation (pure)
//	├── storage/            # Storage interfaces and implementations
//	│   ├── interfaces.go   # ApplicationStore, LegacyApplicationStore
//	│   ├── memory/         # In-memory implementation for testing
//	│   └── postgres/       # PostgreSQL implementation for production
//	├── services/
//	│   ├── applications/   # Lifecycle invariants, projection, registrar
//	│   └── migration/      # Paginated batch migration pipeline
//	├── httpapi/            # HTTP handlers over the service surface
//	├── system/             # Lifecycle manager for background services
//	└── metrics/            # Prometheus collectors
//
// Business rules live in services/; domain packages stay pure data; storage
// implementations persist records verbatim and never enforce invariants.
package app
