// Package gmail provides the Gmail operations of gmcli on top of the Gmail
// REST API.
//
// It covers:
//   - Message decoding (top-level headers, plain and HTML bodies)
//   - MIME composition with attachment size limits
//   - Sending, drafting and threaded replies with optional quoting
//   - Label resolution by name, including superstars
//   - Search, read and attachment download
//
// Every API call runs inside an instrumentation span and is counted in the
// google_api_operations_total metric.
//
// Example usage:
//
//	httpClient, err := manager.Client(ctx)
//	if err != nil {
//	    return err
//	}
//	client, err := gmail.NewClient(ctx, httpClient)
//	if err != nil {
//	    return err
//	}
//
//	res, err := client.ReplyToEmail(ctx, &gmail.ReplyRequest{
//	    MessageID: "18c2f0a1b2c3d4e5",
//	    Text:      "Thanks, received.",
//	    Quote:     true,
//	})
package gmail
