package gmail_tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	gmailclient "github.com/teemow/gmcli/internal/gmail"
	"github.com/teemow/gmcli/internal/google"
	"github.com/teemow/gmcli/internal/session"
)

// fakeGmail serves the parts of the Gmail and OAuth2 APIs the tools reach.
type fakeGmail struct {
	mu          sync.Mutex
	messages    map[string]*gmail.Message
	labels      []*gmail.Label
	attachments map[string]string
	sent        []*gmail.Message
	drafts      []*gmail.Draft
	modified    [][]string

	srv *httptest.Server
}

func newFakeGmail(t *testing.T) *fakeGmail {
	t.Helper()
	f := &fakeGmail{
		messages:    map[string]*gmail.Message{},
		attachments: map[string]string{},
		labels: []*gmail.Label{
			{Id: "INBOX", Name: "INBOX", Type: "system"},
			{Id: "Label_1", Name: "Work", Type: "user"},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/me/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &gmail.Profile{EmailAddress: "me@example.com"})
	})
	mux.HandleFunc("/oauth2/v2/tokeninfo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"scope": "https://www.googleapis.com/auth/gmail.send", "expires_in": 3600})
	})
	mux.HandleFunc("GET /gmail/v1/users/me/labels", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, &gmail.ListLabelsResponse{Labels: f.labels})
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		ids := make([]string, 0, len(f.messages))
		for id := range f.messages {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		size, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))
		if size > 0 && size < len(ids) {
			ids = ids[:size]
		}
		res := &gmail.ListMessagesResponse{}
		for _, id := range ids {
			res.Messages = append(res.Messages, &gmail.Message{Id: id, ThreadId: f.messages[id].ThreadId})
		}
		writeJSON(w, res)
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		msg, ok := f.messages[r.PathValue("id")]
		if !ok {
			writeError(w, http.StatusNotFound, "Requested entity was not found.")
			return
		}
		writeJSON(w, msg)
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}/attachments/{aid}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		data, ok := f.attachments[r.PathValue("aid")]
		if !ok {
			writeError(w, http.StatusNotFound, "attachment not found")
			return
		}
		writeJSON(w, &gmail.MessagePartBody{AttachmentId: r.PathValue("aid"), Data: data})
	})
	mux.HandleFunc("POST /gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		var msg gmail.Message
		_ = json.NewDecoder(r.Body).Decode(&msg)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.sent = append(f.sent, &msg)
		threadID := msg.ThreadId
		if threadID == "" {
			threadID = "thread-new"
		}
		writeJSON(w, &gmail.Message{Id: "sent-" + strconv.Itoa(len(f.sent)), ThreadId: threadID})
	})
	mux.HandleFunc("POST /gmail/v1/users/me/drafts", func(w http.ResponseWriter, r *http.Request) {
		var d gmail.Draft
		_ = json.NewDecoder(r.Body).Decode(&d)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.drafts = append(f.drafts, &d)
		writeJSON(w, &gmail.Draft{
			Id:      "r-" + strconv.Itoa(len(f.drafts)),
			Message: &gmail.Message{Id: "draft-msg", ThreadId: d.Message.ThreadId},
		})
	})
	mux.HandleFunc("POST /gmail/v1/users/me/messages/{id}/modify", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.modified = append(f.modified, []string{r.PathValue("id")})
		writeJSON(w, &gmail.Message{Id: r.PathValue("id")})
	})
	mux.HandleFunc("POST /gmail/v1/users/me/messages/batchModify", func(w http.ResponseWriter, r *http.Request) {
		var req gmail.BatchModifyMessagesRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.modified = append(f.modified, req.Ids)
		w.WriteHeader(http.StatusNoContent)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGmail) addMessage(msg *gmail.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[msg.Id] = msg
}

// newTestServer registers the tools against f. With authenticated unset the
// profile has no stored token.
func newTestServer(t *testing.T, f *fakeGmail, readOnly, authenticated bool) *mcpserver.MCPServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := google.NewTokenStore(filepath.Join(t.TempDir(), "default.token.json"))
	if authenticated {
		require.NoError(t, store.Save(&google.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			ExpiryDate:   time.Now().Add(time.Hour).UnixMilli(),
		}))
	}
	manager := google.NewManager("default", &oauth2.Config{ClientID: "id"}, store,
		google.WithLogger(logger),
		google.WithAPIOptions(option.WithEndpoint(f.srv.URL+"/")),
	)
	sess := session.New(manager,
		gmailclient.WithServiceOptions(option.WithEndpoint(f.srv.URL+"/")),
		gmailclient.WithLogger(logger),
	)

	s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterGmailTools(s, sess, logger, readOnly))
	return s
}

// callTool invokes a registered tool the way the MCP server would.
func callTool(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	tool, ok := s.ListTools()[name]
	require.True(t, ok, "tool %s not registered", name)

	result, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return tc.Text
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}

func encodeData(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func headers(kv ...string) []*gmail.MessagePartHeader {
	var hs []*gmail.MessagePartHeader
	for i := 0; i+1 < len(kv); i += 2 {
		hs = append(hs, &gmail.MessagePartHeader{Name: kv[i], Value: kv[i+1]})
	}
	return hs
}

// sampleMessage is a text message with one CSV attachment.
func sampleMessage(id string) *gmail.Message {
	return &gmail.Message{
		Id:       id,
		ThreadId: "thread-" + id,
		Snippet:  "hello there",
		LabelIds: []string{"INBOX"},
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Headers: headers(
				"From", "Alice <alice@example.com>",
				"To", "me@example.com",
				"Subject", "Report "+id,
				"Date", "Mon, 2 Jan 2006 15:04:05 -0700",
				"Message-ID", "<"+id+"@example.com>",
			),
			Parts: []*gmail.MessagePart{
				{PartId: "0", MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encodeData("hello there")}},
				{PartId: "1", MimeType: "text/csv", Filename: "report.csv", Body: &gmail.MessagePartBody{AttachmentId: "att-" + id, Size: 9}},
			},
		},
	}
}
