// Package app composes the storage adapters and domain services into a
// running application.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct and wiring
//	├── domain/             # Domain models (pure data structures)
//	│   ├── identity/       # User identity
//	│   └── preference/     # Dietary preference records
//	├── storage/            # Storage contracts and implementations
//	│   ├── interfaces.go   # CredentialStore / PreferenceStore + sentinel errors
//	│   ├── memory/         # In-memory fallback stores
//	│   └── supabase/       # Supabase-backed stores (GoTrue + PostgREST)
//	├── services/           # Business logic
//	│   ├── auth/           # Registration, login, current-user resolution
//	│   ├── preference/     # Preference CRUD across both backends
//	│   └── scan/           # Image scan and product analysis (mocked)
//	└── httpapi/            # HTTP boundary (gorilla/mux)
//
// Services talk to storage through the interfaces in storage/ and never to a
// backend directly. The remote Supabase stores answer first when configured;
// any unavailable answer degrades to the in-memory fallback so the API stays
// usable without a remote backend.
package app
