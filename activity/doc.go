// Package activity holds the pure and persistence halves of the workspace
// activity log. Validate gatekeeps creation payloads, Formatter renders stored
// rows for display with deterministic fallbacks, and Repository is the
// Bun-backed append-only store used by the command and query layers.
package activity
