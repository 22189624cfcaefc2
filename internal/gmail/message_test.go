package gmail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func TestHeader(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			Headers: headers("Subject", "Report", "Message-Id", "<abc@x>"),
			Parts: []*gmail.MessagePart{
				{Headers: headers("Content-Type", "text/plain", "X-Nested", "deep")},
			},
		},
	}

	tests := []struct {
		name   string
		header string
		want   string
		found  bool
	}{
		{"exact case", "Subject", "Report", true},
		{"lower case", "subject", "Report", true},
		{"different case", "Message-ID", "<abc@x>", true},
		{"nested headers are not searched", "X-Nested", "", false},
		{"absent", "References", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Header(msg, tt.header)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.found, found)
		})
	}

	_, found := Header(&gmail.Message{}, "Subject")
	assert.False(t, found)
}

func TestDecodeBodyData(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"padded", "aGk_Pz4-", "hi??>>"},
		{"unpadded", "aGVsbG8", "hello"},
		{"with padding chars", "aGVsbG8=", "hello"},
		{"utf-8", encodeData("Grüße"), "Grüße"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBodyData(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DecodeBodyData("not base64!")
	assert.Error(t, err)
}

func textPart(mimeType, body string) *gmail.MessagePart {
	return &gmail.MessagePart{MimeType: mimeType, Body: &gmail.MessagePartBody{Data: encodeData(body)}}
}

func TestMessageBody(t *testing.T) {
	tests := []struct {
		name     string
		payload  *gmail.MessagePart
		wantText string
		wantHTML string
	}{
		{
			name:     "single part payload",
			payload:  textPart("text/plain", "hello"),
			wantText: "hello",
		},
		{
			name: "alternative",
			payload: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					textPart("text/plain", "plain"),
					textPart("text/html", "<p>html</p>"),
				},
			},
			wantText: "plain",
			wantHTML: "<p>html</p>",
		},
		{
			// Last match wins, including across nesting levels. This is kept
			// as-is even where a client would prefer the first alternative.
			name: "two text/plain parts keep the last",
			payload: &gmail.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "multipart/alternative",
						Parts: []*gmail.MessagePart{
							textPart("text/plain", "first"),
							textPart("text/html", "<p>first</p>"),
						},
					},
					textPart("text/plain", "second"),
				},
			},
			wantText: "second",
			wantHTML: "<p>first</p>",
		},
		{
			name: "depth first order",
			payload: &gmail.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "multipart/alternative",
						Parts: []*gmail.MessagePart{
							{MimeType: "multipart/related", Parts: []*gmail.MessagePart{textPart("text/plain", "deepest")}},
						},
					},
					{MimeType: "multipart/alternative", Parts: []*gmail.MessagePart{textPart("text/plain", "later sibling")}},
				},
			},
			wantText: "later sibling",
		},
		{
			name: "attachments and empty parts are skipped",
			payload: &gmail.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					textPart("text/plain", "body"),
					{MimeType: "text/plain", Filename: "notes.txt", Body: &gmail.MessagePartBody{AttachmentId: "att-1"}},
					{MimeType: "text/html", Body: &gmail.MessagePartBody{}},
					textPart("text/csv", "a,b"),
				},
			},
			wantText: "body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := MessageBody(&gmail.Message{Payload: tt.payload})
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, body.Text)
			assert.Equal(t, tt.wantHTML, body.HTML)
		})
	}
}

func TestMessageBody_InvalidData(t *testing.T) {
	msg := &gmail.Message{Payload: &gmail.MessagePart{
		MimeType: "text/plain",
		PartId:   "0",
		Body:     &gmail.MessagePartBody{Data: "***"},
	}}
	_, err := MessageBody(msg)
	assert.Error(t, err)
}

func TestWalkParts_PreOrder(t *testing.T) {
	root := &gmail.MessagePart{
		PartId: "",
		Parts: []*gmail.MessagePart{
			{PartId: "0", Parts: []*gmail.MessagePart{{PartId: "0.0"}, {PartId: "0.1"}}},
			{PartId: "1"},
		},
	}

	var order []string
	walkParts(root, func(p *gmail.MessagePart) bool {
		order = append(order, p.PartId)
		return true
	})
	assert.Equal(t, []string{"", "0", "0.0", "0.1", "1"}, order)

	order = nil
	walkParts(root, func(p *gmail.MessagePart) bool {
		order = append(order, p.PartId)
		return p.PartId != "0.0"
	})
	assert.Equal(t, []string{"", "0", "0.0"}, order)
}

func TestWalkParts_DeepNesting(t *testing.T) {
	root := &gmail.MessagePart{MimeType: "multipart/mixed"}
	cur := root
	for i := 0; i < 10000; i++ {
		next := &gmail.MessagePart{MimeType: "multipart/mixed"}
		cur.Parts = []*gmail.MessagePart{next}
		cur = next
	}
	cur.MimeType = "text/plain"
	cur.Body = &gmail.MessagePartBody{Data: encodeData("bottom")}

	body, err := MessageBody(&gmail.Message{Payload: root})
	require.NoError(t, err)
	assert.Equal(t, "bottom", body.Text)
}
