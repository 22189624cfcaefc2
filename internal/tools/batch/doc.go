// Package batch provides helpers for tools that act on several messages
// at once: parsing parameters that accept a single value or a list, and
// reporting per-item outcomes when some items fail.
package batch
