package gmail

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/gmcli/internal/instrumentation"
	"github.com/teemow/gmcli/internal/logging"
)

// AttachmentInfo represents an attachment's metadata
type AttachmentInfo struct {
	MessageID    string `json:"messageId"`
	PartID       string `json:"partId"`
	AttachmentID string `json:"attachmentId"`
	Filename     string `json:"filename"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
}

// HumanSize formats Size for display.
func (a *AttachmentInfo) HumanSize() string {
	return humanize.IBytes(uint64(a.Size))
}

// ListAttachments returns the attachments of a message in part order.
func (c *Client) ListAttachments(ctx context.Context, messageID string) ([]*AttachmentInfo, error) {
	msg, err := c.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return attachmentsOf(msg), nil
}

func attachmentsOf(msg *gmail.Message) []*AttachmentInfo {
	var attachments []*AttachmentInfo
	walkParts(msg.Payload, func(part *gmail.MessagePart) bool {
		if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
			attachments = append(attachments, &AttachmentInfo{
				MessageID:    msg.Id,
				PartID:       part.PartId,
				AttachmentID: part.Body.AttachmentId,
				Filename:     part.Filename,
				MimeType:     part.MimeType,
				Size:         part.Body.Size,
			})
		}
		return true
	})
	return attachments
}

// GetAttachment retrieves and decodes the content of an attachment.
func (c *Client) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}
	if attachmentID == "" {
		return nil, fmt.Errorf("attachmentID is required")
	}

	var body *gmail.MessagePartBody
	err := c.observe(ctx, instrumentation.OperationAttachment, func(ctx context.Context) error {
		var err error
		body, err = c.svc.Messages.Attachments.Get(userID, messageID, attachmentID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment %s: %w", attachmentID, err)
	}

	data, err := DecodeBodyData(body.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attachment data: %w", err)
	}
	return []byte(data), nil
}

// DownloadAttachments writes the attachments of a message into dir, which is
// created when missing. A non-empty filter keeps only attachments whose file
// name or attachment ID it contains. It returns the written paths.
func (c *Client) DownloadAttachments(ctx context.Context, messageID, dir string, filter []string) ([]string, error) {
	attachments, err := c.ListAttachments(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	logger := logging.WithOperation(c.logger, "attachments.download")
	var written []string
	used := make(map[string]bool)
	for _, a := range attachments {
		if len(filter) > 0 && !slices.Contains(filter, a.Filename) && !slices.Contains(filter, a.AttachmentID) {
			continue
		}
		data, err := c.GetAttachment(ctx, messageID, a.AttachmentID)
		if err != nil {
			return written, err
		}
		sanitized := SanitizeFilename(a.Filename)
		name := uniqueFilename(sanitized, used)
		if name != sanitized {
			logger.Warn("duplicate attachment name, saving under a new name",
				logging.MessageID(messageID), "filename", a.Filename, "saved_as", name)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Debug("attachment saved", logging.MessageID(messageID), "path", path, "size", len(data))
		written = append(written, path)
	}
	return written, nil
}

// uniqueFilename returns name, or name with a -N suffix before the extension
// when an earlier attachment of the same download already took it.
func uniqueFilename(name string, used map[string]bool) string {
	candidate := name
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
	}
	used[candidate] = true
	return candidate
}

// SanitizeFilename sanitizes a filename to prevent path traversal attacks
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "..", "_")
	if filename == "" {
		return "attachment"
	}
	return filename
}
