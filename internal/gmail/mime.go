package gmail

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"net/mail"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jhillyerd/enmime/v2"
)

// MaxMessageSize is the limit for a single attachment and for the sum of
// all attachments of one message (35 MiB).
const MaxMessageSize int64 = 35 * 1024 * 1024

// OutgoingMessage describes a message to compose. At least one of Text and
// HTML is expected; callers enforce that.
type OutgoingMessage struct {
	From        string
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Text        string
	HTML        string
	Attachments []string

	// Headers are extra headers such as In-Reply-To and References.
	Headers map[string]string
}

// CheckAttachments stats every attachment and enforces the per-file and
// total size limits. Body text is not counted.
func CheckAttachments(paths []string) (int64, error) {
	var total int64
	for _, path := range paths {
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return 0, &AttachmentNotFoundError{Path: path}
		}
		if err != nil {
			return 0, fmt.Errorf("failed to stat attachment %s: %w", path, err)
		}
		if info.IsDir() {
			return 0, &AttachmentNotFoundError{Path: path}
		}
		if info.Size() > MaxMessageSize {
			return 0, &AttachmentTooLargeError{Path: path, Size: info.Size(), Limit: MaxMessageSize}
		}
		total += info.Size()
	}
	if total > MaxMessageSize {
		return 0, &MessageTooLargeError{Size: total, Limit: MaxMessageSize}
	}
	return total, nil
}

// BuildMimeMessage composes msg into an RFC 822 message and returns it
// encoded as URL-safe base64 without padding, ready for the Gmail API.
func BuildMimeMessage(msg *OutgoingMessage) (string, error) {
	if _, err := CheckAttachments(msg.Attachments); err != nil {
		return "", err
	}
	if msg.From == "" {
		return "", fmt.Errorf("sender address is required")
	}
	if len(msg.To)+len(msg.Cc)+len(msg.Bcc) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}
	if msg.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}

	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return "", fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	to, err := parseAddresses(msg.To)
	if err != nil {
		return "", err
	}
	cc, err := parseAddresses(msg.Cc)
	if err != nil {
		return "", err
	}

	b := enmime.Builder().
		From(from.Name, from.Address).
		ToAddrs(to).
		CCAddrs(cc).
		Subject(msg.Subject).
		Date(time.Now())

	// The builder keeps BCC recipients out of the headers; the Gmail API
	// reads them from the Bcc header and strips it before delivery.
	if len(msg.Bcc) > 0 {
		bcc, err := parseAddresses(msg.Bcc)
		if err != nil {
			return "", err
		}
		values := make([]string, len(bcc))
		for i := range bcc {
			values[i] = bcc[i].String()
		}
		b = b.BCCAddrs(bcc).Header("Bcc", strings.Join(values, ", "))
	}

	if msg.Text != "" {
		b = b.Text([]byte(msg.Text))
	}
	if msg.HTML != "" {
		b = b.HTML([]byte(msg.HTML))
	}

	names := make([]string, 0, len(msg.Headers))
	for name := range msg.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b = b.Header(name, msg.Headers[name])
	}

	for _, path := range msg.Attachments {
		b = b.AddFileAttachment(path)
	}

	root, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build message: %w", err)
	}

	var buf bytes.Buffer
	if err := root.Encode(&buf); err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

func parseAddresses(list []string) ([]mail.Address, error) {
	addrs := make([]mail.Address, 0, len(list))
	for _, s := range list {
		a, err := mail.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", s, err)
		}
		addrs = append(addrs, *a)
	}
	return addrs, nil
}
