package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/jhillyerd/enmime/v2"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

type modifyCall struct {
	IDs    []string
	Add    []string
	Remove []string
	Batch  bool
}

// fakeGmail serves the subset of the Gmail REST API used by Client.
type fakeGmail struct {
	mu          sync.Mutex
	account     string
	messages    map[string]*gmail.Message
	labels      []*gmail.Label
	attachments map[string]string
	sent        []*gmail.Message
	drafts      []*gmail.Draft
	modifies    []modifyCall
	listCalls   int
	getCalls    int
	labelCalls  int

	srv *httptest.Server
}

func newFakeGmail(t *testing.T) *fakeGmail {
	t.Helper()
	f := &fakeGmail{
		account:     "me@example.com",
		messages:    map[string]*gmail.Message{},
		attachments: map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/me/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &gmail.Profile{EmailAddress: f.account})
	})
	mux.HandleFunc("GET /gmail/v1/users/me/labels", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.labelCalls++
		writeJSON(w, &gmail.ListLabelsResponse{Labels: f.labels})
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listCalls++

		ids := make([]string, 0, len(f.messages))
		for id := range f.messages {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		offset, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
		size, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))
		if size == 0 {
			size = 100
		}
		end := min(offset+size, len(ids))

		res := &gmail.ListMessagesResponse{}
		for _, id := range ids[offset:end] {
			res.Messages = append(res.Messages, &gmail.Message{Id: id, ThreadId: f.messages[id].ThreadId})
		}
		if end < len(ids) {
			res.NextPageToken = strconv.Itoa(end)
		}
		writeJSON(w, res)
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.getCalls++
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
		writeJSON(w, &gmail.MessagePartBody{AttachmentId: r.PathValue("aid"), Data: data, Size: int64(len(data))})
	})
	mux.HandleFunc("POST /gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		var msg gmail.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.sent = append(f.sent, &msg)
		threadID := msg.ThreadId
		if threadID == "" {
			threadID = "thread-new"
		}
		writeJSON(w, &gmail.Message{Id: "sent-" + strconv.Itoa(len(f.sent)), ThreadId: threadID, LabelIds: []string{"SENT"}})
	})
	mux.HandleFunc("POST /gmail/v1/users/me/drafts", func(w http.ResponseWriter, r *http.Request) {
		var d gmail.Draft
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.drafts = append(f.drafts, &d)
		threadID := d.Message.ThreadId
		if threadID == "" {
			threadID = "thread-draft"
		}
		writeJSON(w, &gmail.Draft{
			Id:      "r-" + strconv.Itoa(len(f.drafts)),
			Message: &gmail.Message{Id: "draft-msg-" + strconv.Itoa(len(f.drafts)), ThreadId: threadID, LabelIds: []string{"DRAFT"}},
		})
	})
	mux.HandleFunc("POST /gmail/v1/users/me/messages/{id}/modify", func(w http.ResponseWriter, r *http.Request) {
		var req gmail.ModifyMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.modifies = append(f.modifies, modifyCall{IDs: []string{r.PathValue("id")}, Add: req.AddLabelIds, Remove: req.RemoveLabelIds})
		writeJSON(w, &gmail.Message{Id: r.PathValue("id")})
	})
	mux.HandleFunc("POST /gmail/v1/users/me/messages/batchModify", func(w http.ResponseWriter, r *http.Request) {
		var req gmail.BatchModifyMessagesRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.modifies = append(f.modifies, modifyCall{IDs: req.Ids, Add: req.AddLabelIds, Remove: req.RemoveLabelIds, Batch: true})
		w.WriteHeader(http.StatusNoContent)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGmail) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), f.srv.Client(),
		WithServiceOptions(option.WithEndpoint(f.srv.URL+"/")),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	return c
}

func (f *fakeGmail) addMessage(msg *gmail.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[msg.Id] = msg
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

// encodeData encodes s the way the Gmail API transmits body data.
func encodeData(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

// decodeRaw parses a message produced by BuildMimeMessage.
func decodeRaw(t *testing.T, raw string) *enmime.Envelope {
	t.Helper()
	data, err := base64.RawURLEncoding.DecodeString(raw)
	require.NoError(t, err)
	env, err := enmime.ReadEnvelope(bytes.NewReader(data))
	require.NoError(t, err)
	return env
}

func headers(kv ...string) []*gmail.MessagePartHeader {
	var hs []*gmail.MessagePartHeader
	for i := 0; i+1 < len(kv); i += 2 {
		hs = append(hs, &gmail.MessagePartHeader{Name: kv[i], Value: kv[i+1]})
	}
	return hs
}
