// Package cmd implements the command-line interface for gmcli.
//
// This package provides the following commands:
//   - auth login|logout|status: Manage the Google authorization of a profile
//   - profile list|add: Manage profiles and their OAuth client credentials
//   - search, read: Find and print messages
//   - send, reply: Compose messages, optionally as drafts
//   - labels list|modify: Inspect labels and relabel messages
//   - attachments list|download: Inspect and save attachments
//   - serve: Start the MCP server to provide tools for AI assistants
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Global flags select the profile (--profile), logging (--log-level,
// --log-format) and JSON output (--json).
package cmd
