package gmail

import (
	"encoding/base64"
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

const (
	mimeTextPlain = "text/plain"
	mimeTextHTML  = "text/html"
)

// Header returns the value of the named top-level header, matched
// case-insensitively. Headers of nested parts are not searched.
func Header(msg *gmail.Message, name string) (string, bool) {
	if msg == nil || msg.Payload == nil {
		return "", false
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// HeaderValue is Header without the presence flag.
func HeaderValue(msg *gmail.Message, name string) string {
	v, _ := Header(msg, name)
	return v
}

// Body holds the decoded plain text and HTML bodies of a message.
type Body struct {
	Text string
	HTML string
}

// MessageBody walks the part tree depth-first, payload first, and decodes
// every text/plain and text/html part carrying inline data. When several
// parts share a type the last one visited wins.
func MessageBody(msg *gmail.Message) (Body, error) {
	var body Body
	if msg == nil {
		return body, nil
	}

	var walkErr error
	walkParts(msg.Payload, func(part *gmail.MessagePart) bool {
		if part.Body == nil || part.Body.Data == "" {
			return true
		}
		if part.MimeType != mimeTextPlain && part.MimeType != mimeTextHTML {
			return true
		}
		decoded, err := DecodeBodyData(part.Body.Data)
		if err != nil {
			walkErr = fmt.Errorf("failed to decode %s part %q: %w", part.MimeType, part.PartId, err)
			return false
		}
		if part.MimeType == mimeTextPlain {
			body.Text = decoded
		} else {
			body.HTML = decoded
		}
		return true
	})
	return body, walkErr
}

// DecodeBodyData decodes URL-safe base64 with or without padding.
func DecodeBodyData(data string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// walkParts visits root and its descendants in depth-first pre-order using
// an explicit stack. fn returning false stops the walk.
func walkParts(root *gmail.MessagePart, fn func(*gmail.MessagePart) bool) {
	if root == nil {
		return
	}
	stack := []*gmail.MessagePart{root}
	for len(stack) > 0 {
		part := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if part == nil {
			continue
		}
		if !fn(part) {
			return
		}
		for i := len(part.Parts) - 1; i >= 0; i-- {
			stack = append(stack, part.Parts[i])
		}
	}
}
