// Package instrumentation provides OpenTelemetry metrics and tracing for gmcli.
//
// Instrumentation is off by default for the CLI. Set INSTRUMENTATION_ENABLED=true
// to record:
//
//   - google_api_operations_total / google_api_operation_duration_seconds:
//     every Gmail and OAuth2 API call by service, operation and status
//   - oauth_auth_total: interactive logins by result
//   - oauth_token_refresh_total: token refreshes by result
//   - command_invocations_total / command_duration_seconds: CLI and MCP tool runs
//
// # Exporters
//
// METRICS_EXPORTER selects prometheus (default), otlp or stdout. A CLI process
// is too short-lived to be scraped, so with the prometheus exporter the
// collected metrics are written to METRICS_TEXTFILE on Shutdown in the
// node_exporter textfile format.
//
// TRACING_EXPORTER selects otlp, stdout or none (default).
package instrumentation
