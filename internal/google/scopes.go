package google

import (
	gmail "google.golang.org/api/gmail/v1"
)

// GmailScopes are requested on login: send, read-only, labels and modify.
var GmailScopes = []string{
	gmail.GmailSendScope,
	gmail.GmailReadonlyScope,
	gmail.GmailLabelsScope,
	gmail.GmailModifyScope,
}
