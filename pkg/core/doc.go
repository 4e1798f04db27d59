// Package core defines the shared language of the metabrowse system.
//
// This package contains:
//   - Object identity and kind types (ID, Kind, Object)
//   - The raw row holder filled from metadata queries (Record)
//   - Service interfaces (Source, ServerCapabilities, Progress)
//   - The error taxonomy for cache operations
//
// The Golden Rule: pkg/core imports ONLY the stdlib.
// All other packages depend on core, not the reverse.
package core
