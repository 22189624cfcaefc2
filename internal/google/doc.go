// Package google owns the OAuth2 lifecycle for one gmcli profile.
//
// A Manager drives the interactive authorization-code flow through a one-shot
// local callback listener, persists tokens through a TokenStore, refreshes an
// expired access token exactly once when an authenticated client is requested,
// and removes the token on logout.
//
// Tokens are stored as plain JSON at {configDir}/{profile}.token.json with the
// expiry expressed in milliseconds since the Unix epoch:
//
//	{
//	  "access_token": "ya29...",
//	  "refresh_token": "1//...",
//	  "scope": "https://www.googleapis.com/auth/gmail.send ...",
//	  "token_type": "Bearer",
//	  "expiry_date": 1760000000000
//	}
package google
