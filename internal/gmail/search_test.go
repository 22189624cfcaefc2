package gmail

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func TestClient_Search(t *testing.T) {
	tests := []struct {
		name      string
		messages  int
		limit     int64
		wantCount int
		wantLists int
	}{
		{"fewer than limit", 3, 10, 3, 1},
		{"single page", 50, 20, 20, 1},
		{"paged", 250, 230, 230, 3},
		{"default limit", 30, 0, DefaultSearchLimit, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeGmail(t)
			for i := 0; i < tt.messages; i++ {
				f.addMessage(&gmail.Message{
					Id:       fmt.Sprintf("m%04d", i),
					ThreadId: fmt.Sprintf("t%04d", i),
					Snippet:  "snippet",
					LabelIds: []string{"INBOX"},
					Payload: &gmail.MessagePart{Headers: headers(
						"From", "alice@example.com",
						"Subject", fmt.Sprintf("Message %d", i),
						"Date", "Mon, 2 Jan 2006 15:04:05 -0700",
					)},
				})
			}
			c := f.client(t)

			got, err := c.Search(context.Background(), "in:inbox", tt.limit)
			require.NoError(t, err)
			require.Len(t, got, tt.wantCount)
			assert.Equal(t, tt.wantLists, f.listCalls)
			assert.Equal(t, tt.wantCount, f.getCalls)

			assert.Equal(t, "m0000", got[0].ID)
			assert.Equal(t, "t0000", got[0].ThreadID)
			assert.Equal(t, "Message 0", got[0].Subject)
			assert.Equal(t, "alice@example.com", got[0].From)
			assert.Equal(t, "snippet", got[0].Snippet)
		})
	}
}

func attachmentMessage() *gmail.Message {
	return &gmail.Message{
		Id:       "m1",
		ThreadId: "t1",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Headers:  headers("From", "alice@example.com", "To", "me@example.com", "Subject", "Files", "Message-ID", "<m1@x>"),
			Parts: []*gmail.MessagePart{
				textPart("text/plain", "see attached"),
				{
					PartId:   "1",
					MimeType: "application/pdf",
					Filename: "report.pdf",
					Body:     &gmail.MessagePartBody{AttachmentId: "att-1", Size: 2048},
				},
				{
					PartId:   "2",
					MimeType: "multipart/mixed",
					Parts: []*gmail.MessagePart{{
						PartId:   "2.0",
						MimeType: "image/png",
						Filename: "../../etc/logo.png",
						Body:     &gmail.MessagePartBody{AttachmentId: "att-2", Size: 4},
					}},
				},
			},
		},
	}
}

func TestClient_ReadMessage(t *testing.T) {
	f := newFakeGmail(t)
	f.addMessage(attachmentMessage())

	got, err := f.client(t).ReadMessage(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Files", got.Subject)
	assert.Equal(t, "<m1@x>", got.MessageID)
	assert.Equal(t, "see attached", got.Text)
	require.Len(t, got.Attachments, 2)
	assert.Equal(t, "report.pdf", got.Attachments[0].Filename)
	assert.Equal(t, "2.0 KiB", got.Attachments[0].HumanSize())
}

func TestClient_DownloadAttachments(t *testing.T) {
	f := newFakeGmail(t)
	f.addMessage(attachmentMessage())
	f.attachments["att-1"] = encodeData("%PDF-1.4")
	f.attachments["att-2"] = encodeData("\x89PNG")
	c := f.client(t)

	dir := filepath.Join(t.TempDir(), "out", "nested")
	paths, err := c.DownloadAttachments(context.Background(), "m1", dir, nil)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "report.pdf"), paths[0])
	assert.Equal(t, filepath.Join(dir, "____etc_logo.png"), paths[1])

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	paths, err = c.DownloadAttachments(context.Background(), "m1", t.TempDir(), []string{"att-2"})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	data, err = os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data))
}

func TestClient_DownloadAttachments_DuplicateNames(t *testing.T) {
	part := func(id, aid string) *gmail.MessagePart {
		return &gmail.MessagePart{
			PartId:   id,
			MimeType: "application/pdf",
			Filename: "report.pdf",
			Body:     &gmail.MessagePartBody{AttachmentId: aid, Size: 1},
		}
	}

	f := newFakeGmail(t)
	f.addMessage(&gmail.Message{
		Id:       "m2",
		ThreadId: "t2",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Headers:  headers("From", "alice@example.com", "Subject", "Versions"),
			Parts:    []*gmail.MessagePart{part("1", "att-a"), part("2", "att-b"), part("3", "att-c")},
		},
	})
	f.attachments["att-a"] = encodeData("first")
	f.attachments["att-b"] = encodeData("second")
	f.attachments["att-c"] = encodeData("third")

	dir := t.TempDir()
	paths, err := f.client(t).DownloadAttachments(context.Background(), "m2", dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "report.pdf"),
		filepath.Join(dir, "report-1.pdf"),
		filepath.Join(dir, "report-2.pdf"),
	}, paths)

	for i, want := range []string{"first", "second", "third"} {
		data, err := os.ReadFile(paths[i])
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
}

func TestUniqueFilename(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "notes", uniqueFilename("notes", used))
	assert.Equal(t, "notes-1", uniqueFilename("notes", used))
	assert.Equal(t, "a.tar.gz", uniqueFilename("a.tar.gz", used))
	assert.Equal(t, "a.tar-1.gz", uniqueFilename("a.tar.gz", used))
	assert.Equal(t, "notes-2", uniqueFilename("notes", used))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"normal filename", "document.pdf", "document.pdf"},
		{"filename with forward slash", "path/to/document.pdf", "path_to_document.pdf"},
		{"filename with backslash", "path\\to\\document.pdf", "path_to_document.pdf"},
		{"filename with parent directory", "../../../etc/passwd", "______etc_passwd"},
		{"filename with mixed separators", "../path\\to/document.pdf", "__path_to_document.pdf"},
		{"empty", "", "attachment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.filename); got != tt.want {
				t.Errorf("SanitizeFilename() = %v, want %v", got, tt.want)
			}
		})
	}
}
