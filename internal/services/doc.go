// Package services defines the shared error taxonomy used across the rename
// pipeline. Sentinel errors classify failures into run-fatal preconditions
// (validation, missing directory, permission) and recoverable per-entry
// conditions (conflicts, external service errors, timeouts).
package services
