package gmail

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sizedFile creates a sparse file of the given size.
func sizedFile(t *testing.T, dir, name string, size int64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return path
}

const mib = 1024 * 1024

func TestCheckAttachments(t *testing.T) {
	dir := t.TempDir()
	small := sizedFile(t, dir, "small.bin", 10*mib)
	medium := sizedFile(t, dir, "medium.bin", 20*mib)
	exact := sizedFile(t, dir, "exact.bin", MaxMessageSize)
	huge := sizedFile(t, dir, "huge.bin", MaxMessageSize+1)

	tests := []struct {
		name    string
		paths   []string
		check   func(t *testing.T, err error)
		wantSum int64
	}{
		{name: "none", paths: nil, wantSum: 0},
		{name: "under limit", paths: []string{small, medium}, wantSum: 30 * mib},
		{name: "exactly the limit", paths: []string{exact}, wantSum: MaxMessageSize},
		{
			name:  "missing file",
			paths: []string{small, filepath.Join(dir, "missing.pdf")},
			check: func(t *testing.T, err error) {
				var notFound *AttachmentNotFoundError
				require.ErrorAs(t, err, &notFound)
				assert.Equal(t, filepath.Join(dir, "missing.pdf"), notFound.Path)
			},
		},
		{
			name:  "directory",
			paths: []string{dir},
			check: func(t *testing.T, err error) {
				var notFound *AttachmentNotFoundError
				require.ErrorAs(t, err, &notFound)
			},
		},
		{
			name:  "single file too large",
			paths: []string{huge},
			check: func(t *testing.T, err error) {
				var tooLarge *AttachmentTooLargeError
				require.ErrorAs(t, err, &tooLarge)
				assert.Equal(t, huge, tooLarge.Path)
				assert.Contains(t, err.Error(), "35 MiB")
			},
		},
		{
			// The oversized file fails on its own before any summation.
			name:  "too large file listed after others",
			paths: []string{medium, medium, huge},
			check: func(t *testing.T, err error) {
				var tooLarge *AttachmentTooLargeError
				require.ErrorAs(t, err, &tooLarge)
			},
		},
		{
			name:  "total too large",
			paths: []string{small, medium, medium},
			check: func(t *testing.T, err error) {
				var tooLarge *MessageTooLargeError
				require.ErrorAs(t, err, &tooLarge)
				assert.Equal(t, int64(50*mib), tooLarge.Size)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := CheckAttachments(tt.paths)
			if tt.check != nil {
				require.Error(t, err)
				tt.check(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSum, sum)
		})
	}
}

func TestBuildMimeMessage_LimitErrors(t *testing.T) {
	dir := t.TempDir()
	a := sizedFile(t, dir, "a.bin", 20*mib)
	b := sizedFile(t, dir, "b.bin", 20*mib)

	_, err := BuildMimeMessage(&OutgoingMessage{
		From:        "me@example.com",
		To:          []string{"you@example.com"},
		Subject:     "big",
		Text:        "see attached",
		Attachments: []string{a, b},
	})
	var tooLarge *MessageTooLargeError
	assert.ErrorAs(t, err, &tooLarge)
}

func TestBuildMimeMessage_RoundTrip(t *testing.T) {
	env := decodeRaw(t, mustBuild(t, &OutgoingMessage{
		From:    "Me <me@example.com>",
		To:      []string{"Bob <bob@example.com>"},
		Subject: "Quarterly report ✓",
		Text:    "Numbers are in.",
	}))

	assert.Equal(t, "Quarterly report ✓", env.GetHeader("Subject"))
	to, err := env.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "bob@example.com", to[0].Address)
	assert.Equal(t, "Numbers are in.", strings.TrimRight(env.Text, "\r\n"))
	assert.Empty(t, env.HTML)
}

func TestBuildMimeMessage_Full(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(report, []byte("col1,col2"), 0600))

	env := decodeRaw(t, mustBuild(t, &OutgoingMessage{
		From:        "me@example.com",
		To:          []string{"bob@example.com", "carol@example.com"},
		Cc:          []string{"dave@example.com"},
		Bcc:         []string{"eve@example.com", "Frank <frank@example.com>"},
		Subject:     "Re: Report",
		Text:        "plain body",
		HTML:        "<p>html body</p>",
		Attachments: []string{report},
		Headers: map[string]string{
			"In-Reply-To": "<abc@x>",
			"References":  "<a@x> <abc@x>",
		},
	}))

	assert.Equal(t, "plain body", strings.TrimRight(env.Text, "\r\n"))
	assert.Contains(t, env.HTML, "<p>html body</p>")
	assert.Equal(t, "<abc@x>", env.GetHeader("In-Reply-To"))
	assert.Equal(t, "<a@x> <abc@x>", env.GetHeader("References"))

	to, err := env.AddressList("To")
	require.NoError(t, err)
	assert.Len(t, to, 2)
	cc, err := env.AddressList("Cc")
	require.NoError(t, err)
	require.Len(t, cc, 1)
	assert.Equal(t, "dave@example.com", cc[0].Address)
	bccLines := env.GetHeaderValues("Bcc")
	require.Len(t, bccLines, 1)
	bcc, err := env.AddressList("Bcc")
	require.NoError(t, err)
	require.Len(t, bcc, 2)
	assert.Equal(t, "eve@example.com", bcc[0].Address)
	assert.Equal(t, "frank@example.com", bcc[1].Address)

	require.Len(t, env.Attachments, 1)
	assert.Equal(t, "report.txt", env.Attachments[0].FileName)
	assert.Equal(t, "col1,col2", string(env.Attachments[0].Content))
}

func TestBuildMimeMessage_Validation(t *testing.T) {
	base := func() *OutgoingMessage {
		return &OutgoingMessage{From: "me@example.com", To: []string{"you@example.com"}, Subject: "s", Text: "t"}
	}

	tests := []struct {
		name   string
		mutate func(m *OutgoingMessage)
	}{
		{"no sender", func(m *OutgoingMessage) { m.From = "" }},
		{"no recipients", func(m *OutgoingMessage) { m.To = nil }},
		{"no subject", func(m *OutgoingMessage) { m.Subject = "" }},
		{"bad recipient", func(m *OutgoingMessage) { m.To = []string{"not an address"} }},
		{"bad sender", func(m *OutgoingMessage) { m.From = "@@" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := base()
			tt.mutate(msg)
			_, err := BuildMimeMessage(msg)
			assert.Error(t, err)
		})
	}

	raw := mustBuild(t, base())
	assert.NotContains(t, raw, "=")
	assert.NotContains(t, raw, "+")
	assert.NotContains(t, raw, "/")
}

func mustBuild(t *testing.T, msg *OutgoingMessage) string {
	t.Helper()
	raw, err := BuildMimeMessage(msg)
	require.NoError(t, err)
	return raw
}
