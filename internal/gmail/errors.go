package gmail

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// LabelNotFoundError reports a label name that matched no known label.
type LabelNotFoundError struct {
	Name  string
	Known []string
}

func (e *LabelNotFoundError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("label %q not found; the mailbox has no labels", e.Name)
	}
	return fmt.Sprintf("label %q not found; known labels: %s", e.Name, strings.Join(e.Known, ", "))
}

// AttachmentNotFoundError reports an attachment path that does not exist.
type AttachmentNotFoundError struct {
	Path string
}

func (e *AttachmentNotFoundError) Error() string {
	return fmt.Sprintf("attachment not found: %s", e.Path)
}

// AttachmentTooLargeError reports a single attachment above the size limit.
type AttachmentTooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *AttachmentTooLargeError) Error() string {
	return fmt.Sprintf("attachment %s is %s, above the %s limit",
		e.Path, humanize.IBytes(uint64(e.Size)), humanize.IBytes(uint64(e.Limit)))
}

// MessageTooLargeError reports attachments whose combined size is above the limit.
type MessageTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *MessageTooLargeError) Error() string {
	return fmt.Sprintf("attachments total %s, above the %s message limit",
		humanize.IBytes(uint64(e.Size)), humanize.IBytes(uint64(e.Limit)))
}

// MissingMessageIDError reports an original message without a Message-ID header,
// which makes a threaded reply impossible.
type MissingMessageIDError struct {
	MessageID string
}

func (e *MissingMessageIDError) Error() string {
	return fmt.Sprintf("message %s has no Message-ID header; cannot thread a reply", e.MessageID)
}
