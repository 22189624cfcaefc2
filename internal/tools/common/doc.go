// Package common provides shared helpers for the MCP tool handlers:
// argument extraction and the instrumentation wrapper every tool is
// registered through.
package common
