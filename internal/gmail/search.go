package gmail

import (
	"context"
	"fmt"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/gmcli/internal/instrumentation"
)

const (
	// DefaultSearchLimit is used when no limit is given.
	DefaultSearchLimit = 20

	maxListPageSize = 100
)

var summaryHeaders = []string{"From", "To", "Subject", "Date"}

// MessageSummary is one search hit.
type MessageSummary struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	From     string   `json:"from"`
	To       string   `json:"to,omitempty"`
	Subject  string   `json:"subject"`
	Date     string   `json:"date"`
	Snippet  string   `json:"snippet"`
	LabelIDs []string `json:"labelIds,omitempty"`
}

// Search lists up to limit messages matching a Gmail query and fetches
// their summary headers one message at a time.
func (c *Client) Search(ctx context.Context, query string, limit int64) ([]*MessageSummary, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var refs []*gmail.Message
	pageToken := ""
	for int64(len(refs)) < limit {
		pageSize := min(limit-int64(len(refs)), maxListPageSize)
		req := c.svc.Messages.List(userID).Q(query).MaxResults(pageSize)
		if pageToken != "" {
			req.PageToken(pageToken)
		}

		var res *gmail.ListMessagesResponse
		err := c.observe(ctx, instrumentation.OperationList, func(ctx context.Context) error {
			var err error
			res, err = req.Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search messages: %w", err)
		}
		refs = append(refs, res.Messages...)
		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}
	if int64(len(refs)) > limit {
		refs = refs[:limit]
	}

	summaries := make([]*MessageSummary, 0, len(refs))
	for _, ref := range refs {
		var msg *gmail.Message
		err := c.observe(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
			var err error
			msg, err = c.svc.Messages.Get(userID, ref.Id).
				Format("metadata").
				MetadataHeaders(summaryHeaders...).
				Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", ref.Id, err)
		}
		summaries = append(summaries, summarize(msg))
	}
	return summaries, nil
}

func summarize(msg *gmail.Message) *MessageSummary {
	return &MessageSummary{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		From:     HeaderValue(msg, "From"),
		To:       HeaderValue(msg, "To"),
		Subject:  HeaderValue(msg, "Subject"),
		Date:     HeaderValue(msg, "Date"),
		Snippet:  msg.Snippet,
		LabelIDs: msg.LabelIds,
	}
}

// MessageDetail is a fully decoded message.
type MessageDetail struct {
	ID          string            `json:"id"`
	ThreadID    string            `json:"threadId"`
	LabelIDs    []string          `json:"labelIds,omitempty"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	Cc          string            `json:"cc,omitempty"`
	Subject     string            `json:"subject"`
	Date        string            `json:"date"`
	MessageID   string            `json:"messageId,omitempty"`
	Text        string            `json:"text,omitempty"`
	HTML        string            `json:"html,omitempty"`
	Attachments []*AttachmentInfo `json:"attachments,omitempty"`
}

// ReadMessage fetches and decodes one message.
func (c *Client) ReadMessage(ctx context.Context, messageID string) (*MessageDetail, error) {
	msg, err := c.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	body, err := MessageBody(msg)
	if err != nil {
		return nil, err
	}
	return &MessageDetail{
		ID:          msg.Id,
		ThreadID:    msg.ThreadId,
		LabelIDs:    msg.LabelIds,
		From:        HeaderValue(msg, "From"),
		To:          HeaderValue(msg, "To"),
		Cc:          HeaderValue(msg, "Cc"),
		Subject:     HeaderValue(msg, "Subject"),
		Date:        HeaderValue(msg, "Date"),
		MessageID:   HeaderValue(msg, "Message-ID"),
		Text:        body.Text,
		HTML:        body.HTML,
		Attachments: attachmentsOf(msg),
	}, nil
}
