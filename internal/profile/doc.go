// Package profile resolves the active gmcli profile and loads its OAuth
// application configuration.
//
// Profiles live in a single config.json under the config directory:
//
//	{
//	  "default": {"credentials": "/home/me/client_secret.json"},
//	  "work":    {"credentials": "/home/me/work_client.json"}
//	}
//
// Each profile also owns a token file next to config.json named
// "<profile>.token.json"; TokenPath returns it.
package profile
