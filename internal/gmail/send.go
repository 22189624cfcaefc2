package gmail

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/gmcli/internal/logging"
)

// DraftURLPrefix opens a draft in the Gmail web UI when followed by the
// draft's message ID.
const DraftURLPrefix = "https://mail.google.com/mail/u/0/#drafts?compose="

// SendResult identifies a sent message or a created draft.
type SendResult struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	LabelIDs []string `json:"labelIds,omitempty"`
	DraftID  string   `json:"draftId,omitempty"`
	URL      string   `json:"url,omitempty"`
}

// SendEmail composes msg and either sends it or saves it as a draft. An
// empty From is filled with the mailbox address.
func (c *Client) SendEmail(ctx context.Context, msg *OutgoingMessage, draft bool) (*SendResult, error) {
	return c.deliver(ctx, msg, "", draft)
}

func (c *Client) deliver(ctx context.Context, msg *OutgoingMessage, threadID string, draft bool) (*SendResult, error) {
	if msg.Text == "" && msg.HTML == "" {
		return nil, fmt.Errorf("body is required")
	}
	if msg.From == "" {
		account, err := c.Account(ctx)
		if err != nil {
			return nil, err
		}
		msg.From = account
	}

	raw, err := BuildMimeMessage(msg)
	if err != nil {
		return nil, err
	}

	logger := logging.WithOperation(c.logger, "send")
	if draft {
		d, err := c.CreateDraft(ctx, raw, threadID)
		if err != nil {
			return nil, err
		}
		res := &SendResult{DraftID: d.Id}
		if d.Message != nil {
			res.ID = d.Message.Id
			res.ThreadID = d.Message.ThreadId
			res.LabelIDs = d.Message.LabelIds
			res.URL = DraftURLPrefix + d.Message.Id
		}
		logger.Info("draft created", logging.MessageID(res.ID), "draft_id", res.DraftID)
		return res, nil
	}

	sent, err := c.sendRaw(ctx, raw, threadID)
	if err != nil {
		return nil, err
	}
	logger.Info("message sent", logging.MessageID(sent.Id))
	return &SendResult{ID: sent.Id, ThreadID: sent.ThreadId, LabelIDs: sent.LabelIds}, nil
}

// ReplyRequest describes a reply to an existing message.
type ReplyRequest struct {
	MessageID   string
	Text        string
	HTML        string
	Cc          []string
	Bcc         []string
	Attachments []string

	// Quote appends the original bodies below the reply.
	Quote bool
	Draft bool
}

// ReplyToEmail replies to the sender of req.MessageID on the same thread,
// carrying In-Reply-To and References so clients thread the reply.
func (c *Client) ReplyToEmail(ctx context.Context, req *ReplyRequest) (*SendResult, error) {
	if req.MessageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}

	orig, err := c.GetMessage(ctx, req.MessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get original message: %w", err)
	}

	messageID, ok := Header(orig, "Message-ID")
	if !ok || messageID == "" {
		return nil, &MissingMessageIDError{MessageID: req.MessageID}
	}
	from := HeaderValue(orig, "From")

	msg := &OutgoingMessage{
		To:          []string{ReplyRecipient(from)},
		Cc:          req.Cc,
		Bcc:         req.Bcc,
		Subject:     ReplySubject(HeaderValue(orig, "Subject")),
		Text:        req.Text,
		HTML:        req.HTML,
		Attachments: req.Attachments,
		Headers: map[string]string{
			"In-Reply-To": messageID,
			"References":  ReplyReferences(HeaderValue(orig, "References"), messageID),
		},
	}

	if req.Quote {
		body, err := MessageBody(orig)
		if err != nil {
			return nil, err
		}
		if body.Text != "" {
			msg.Text = joinQuoted(msg.Text, QuoteText(body.Text, HeaderValue(orig, "Date"), from))
		}
		if body.HTML != "" {
			msg.HTML = QuoteHTML(msg.HTML, body.HTML)
		}
	}

	logging.WithOperation(c.logger, "reply").Debug("replying", logging.MessageID(req.MessageID), "thread_id", orig.ThreadId)
	return c.deliver(ctx, msg, orig.ThreadId, req.Draft)
}

// ReplySubject prefixes subject with "Re: " unless it already starts with "Re:".
func ReplySubject(subject string) string {
	if strings.HasPrefix(subject, "Re:") {
		return subject
	}
	return "Re: " + subject
}

// ReplyReferences appends messageID to an existing References chain.
func ReplyReferences(references, messageID string) string {
	if references == "" {
		return messageID
	}
	return references + " " + messageID
}

// ReplyRecipient extracts the address between '<' and '>' of a From header,
// or returns the header unchanged when it has no angle brackets.
func ReplyRecipient(from string) string {
	start := strings.Index(from, "<")
	if start < 0 {
		return from
	}
	end := strings.Index(from[start+1:], ">")
	if end < 0 {
		return from
	}
	return from[start+1 : start+1+end]
}

// QuoteText renders the attribution line followed by body with every line
// prefixed by "> ".
func QuoteText(body, date, from string) string {
	return fmt.Sprintf("On %s, %s wrote:\n%s", date, from, QuoteLines(body))
}

// QuoteLines prefixes every line of body with "> ".
func QuoteLines(body string) string {
	body = strings.TrimRight(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

// QuoteHTML appends the original HTML inside a blockquote after reply.
func QuoteHTML(reply, original string) string {
	return reply + `<br><blockquote style="margin:0 0 0 .8ex;border-left:1px solid #ccc;padding-left:1ex">` +
		original + "</blockquote>"
}

func joinQuoted(reply, quoted string) string {
	if reply == "" {
		return quoted
	}
	return reply + "\n\n" + quoted
}
