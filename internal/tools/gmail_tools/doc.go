// Package gmail_tools exposes the Gmail client as MCP (Model Context
// Protocol) tools so AI agents can work with the authenticated mailbox.
//
// Read tools, always registered:
//   - gmail_auth_status: Report whether the active profile is authenticated
//   - gmail_search: Search messages with Gmail query syntax
//   - gmail_read: Read one or more messages including their bodies
//   - gmail_list_labels: List the mailbox labels
//   - gmail_list_attachments: List the attachments of a message
//   - gmail_get_attachment: Retrieve attachment content (base64 or text)
//
// Write tools, registered unless the server runs read-only:
//   - gmail_send: Send a message or save it as a draft
//   - gmail_reply: Reply within a thread, optionally quoting the original
//   - gmail_modify_labels: Add or remove labels on one or more messages
//   - gmail_download_attachments: Save attachments to a local directory
//
// All tools share the server's session, so the Gmail client and its label
// cache are created once per process.
//
// Example:
//
//	gmail_search(query: "from:alice is:unread", maxResults: 5)
//	gmail_reply(messageId: "18c2...", body: "Thanks!", quote: true, draft: true)
//	gmail_modify_labels(messageIds: ["a", "b"], add: "Work", remove: "INBOX")
package gmail_tools
