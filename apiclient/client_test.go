package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	apierrors "langteacher/errors"
	"langteacher/types"

	"go.uber.org/zap"
)

// capturedRequest is what the fake backend saw for the last call.
type capturedRequest struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	Body        []byte
	Form        map[string][]string
	Files       map[string]capturedFile
}

type capturedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type recorder struct {
	mu   sync.Mutex
	last capturedRequest
	hits int
}

func (r *recorder) get() (capturedRequest, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.hits
}

// newTestClient starts a backend that records every request and answers with
// the given status and body.
func newTestClient(t *testing.T, status int, body string) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured := capturedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			RawQuery:    r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
		}
		if strings.HasPrefix(captured.ContentType, "multipart/form-data") {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			} else {
				captured.Form = r.MultipartForm.Value
				captured.Files = map[string]capturedFile{}
				for field, headers := range r.MultipartForm.File {
					f, err := headers[0].Open()
					if err != nil {
						t.Errorf("open form file: %v", err)
						continue
					}
					data, _ := io.ReadAll(f)
					f.Close()
					captured.Files[field] = capturedFile{
						Filename:    headers[0].Filename,
						ContentType: headers[0].Header.Get("Content-Type"),
						Data:        data,
					}
				}
			}
		} else {
			captured.Body, _ = io.ReadAll(r.Body)
		}

		rec.mu.Lock()
		rec.last = captured
		rec.hits++
		rec.mu.Unlock()

		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)

	logger, _ := zap.NewDevelopment()
	return NewWithHTTPClient(server.URL+"/", server.Client(), logger), rec
}

func decodeBody(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("request body is not JSON: %v (%s)", err, raw)
	}
	return m
}

func TestCreateChatOmitsUnsetAssociations(t *testing.T) {
	response := `{"id":"c1","category_id":null,"title":"My Trip","mode":"free_talk","created_at":"2024-05-01 10:00:00","updated_at":"2024-05-01 10:00:00"}`
	client, rec := newTestClient(t, http.StatusOK, response)

	chat, err := client.CreateChat(context.Background(), "My Trip", types.ModeFreeTalk, "", "")
	if err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	got, _ := rec.get()
	if got.Method != http.MethodPost || got.Path != "/api/chats" {
		t.Errorf("unexpected request %s %s", got.Method, got.Path)
	}
	if got.ContentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", got.ContentType)
	}
	body := decodeBody(t, got.Body)
	if _, ok := body["category_id"]; ok {
		t.Error("category_id should be omitted")
	}
	if _, ok := body["document_id"]; ok {
		t.Error("document_id should be omitted")
	}
	if body["title"] != "My Trip" || body["mode"] != "free_talk" {
		t.Errorf("unexpected body %v", body)
	}

	want := types.Chat{
		ID:        "c1",
		Title:     "My Trip",
		Mode:      types.ModeFreeTalk,
		CreatedAt: "2024-05-01 10:00:00",
		UpdatedAt: "2024-05-01 10:00:00",
	}
	if chat.CategoryID != nil {
		t.Errorf("expected nil category, got %v", *chat.CategoryID)
	}
	if *chat != want {
		t.Errorf("CreateChat() = %+v, want %+v", *chat, want)
	}
}

func TestCreateChatWithAssociations(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"id":"c2","category_id":"cat1","title":"Doc","mode":"document"}`)

	chat, err := client.CreateChat(context.Background(), "Doc", types.ModeDocument, "cat1", "doc9")
	if err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}
	got, _ := rec.get()
	body := decodeBody(t, got.Body)
	if body["category_id"] != "cat1" || body["document_id"] != "doc9" {
		t.Errorf("expected associations in body, got %v", body)
	}
	if chat.CategoryID == nil || *chat.CategoryID != "cat1" {
		t.Errorf("expected category cat1, got %v", chat.CategoryID)
	}
}

func TestGetChatsQueryString(t *testing.T) {
	tests := []struct {
		name       string
		mode       types.ChatMode
		categoryID string
		wantQuery  string
	}{
		{name: "no_filters", wantQuery: ""},
		{name: "mode_only", mode: types.ModeGrammar, wantQuery: "mode=grammar"},
		{name: "category_only", categoryID: "cat 1", wantQuery: "category_id=cat+1"},
		{name: "both", mode: types.ModeDocument, categoryID: "x", wantQuery: "category_id=x&mode=document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, rec := newTestClient(t, http.StatusOK, `[]`)
			chats, err := client.GetChats(context.Background(), tt.mode, tt.categoryID)
			if err != nil {
				t.Fatalf("GetChats failed: %v", err)
			}
			if chats == nil || len(chats) != 0 {
				t.Errorf("expected empty non-nil slice, got %#v", chats)
			}
			got, _ := rec.get()
			if got.RawQuery != tt.wantQuery {
				t.Errorf("query = %q, want %q", got.RawQuery, tt.wantQuery)
			}
			if got.Method != http.MethodGet || got.Path != "/api/chats" {
				t.Errorf("unexpected request %s %s", got.Method, got.Path)
			}
		})
	}
}

func TestGetCategoriesTypeFilter(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `[{"id":"1","name":"Travel","type":"topic","created_at":"t"}]`)

	cats, err := client.GetCategories(context.Background(), types.CategoryTopic)
	if err != nil {
		t.Fatalf("GetCategories failed: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "Travel" {
		t.Errorf("unexpected categories %+v", cats)
	}
	got, _ := rec.get()
	if got.RawQuery != "type=topic" {
		t.Errorf("query = %q, want type=topic", got.RawQuery)
	}
}

func TestErrorMessageNormalization(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		call   func(*Client) error
		want   string
	}{
		{
			name:   "detail_string",
			status: http.StatusNotFound,
			body:   `{"detail":"chat not found"}`,
			call:   func(c *Client) error { _, err := c.GetChat(context.Background(), "missing"); return err },
			want:   "chat not found",
		},
		{
			name:   "non_json_body",
			status: http.StatusInternalServerError,
			body:   `<html>Internal Server Error</html>`,
			call:   func(c *Client) error { _, err := c.GetChat(context.Background(), "c1"); return err },
			want:   "Unknown error",
		},
		{
			name:   "empty_body",
			status: http.StatusBadGateway,
			body:   ``,
			call:   func(c *Client) error { _, err := c.GetChat(context.Background(), "c1"); return err },
			want:   "Unknown error",
		},
		{
			name:   "json_without_detail",
			status: http.StatusInternalServerError,
			body:   `{"error":"boom"}`,
			call:   func(c *Client) error { _, err := c.GetChat(context.Background(), "c1"); return err },
			want:   "HTTP error 500",
		},
		{
			name:   "validation_array",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail":[{"loc":["body","mode"],"msg":"Input should be 'free_talk', 'grammar' or 'document'","type":"literal_error"}]}`,
			call: func(c *Client) error {
				_, err := c.CreateChat(context.Background(), "x", types.ModeGrammar, "", "")
				return err
			},
			want: "Input should be 'free_talk', 'grammar' or 'document'",
		},
		{
			name:   "transcribe_fallback",
			status: http.StatusInternalServerError,
			body:   `oops`,
			call: func(c *Client) error {
				_, err := c.TranscribeAudio(context.Background(), strings.NewReader("RIFF"), TranscribeOptions{})
				return err
			},
			want: "Transcription failed",
		},
		{
			name:   "transcribe_and_send_fallback",
			status: http.StatusInternalServerError,
			body:   `oops`,
			call: func(c *Client) error {
				_, err := c.TranscribeAndSend(context.Background(), strings.NewReader("RIFF"), "c1", true, TranscribeOptions{})
				return err
			},
			want: "Failed to process audio",
		},
		{
			name:   "upload_fallback",
			status: http.StatusInternalServerError,
			body:   `oops`,
			call: func(c *Client) error {
				_, err := c.UploadDocument(context.Background(), "notes.txt", strings.NewReader("hallo"))
				return err
			},
			want: "Upload failed",
		},
		{
			name:   "upload_detail",
			status: http.StatusBadRequest,
			body:   `{"detail":"Unsupported file type"}`,
			call: func(c *Client) error {
				_, err := c.UploadDocument(context.Background(), "notes.exe", strings.NewReader("MZ"))
				return err
			},
			want: "Unsupported file type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.status, tt.body)
			err := tt.call(client)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err.Error(), tt.want)
			}
			if apierrors.StatusCode(err) != tt.status {
				t.Errorf("status = %d, want %d", apierrors.StatusCode(err), tt.status)
			}
		})
	}
}

func TestGetChatNotFoundIsClassified(t *testing.T) {
	client, _ := newTestClient(t, http.StatusNotFound, `{"detail":"chat not found"}`)
	_, err := client.GetChat(context.Background(), "nope")
	if !apierrors.IsNotFound(err) {
		t.Errorf("expected not found classification, got %v", err)
	}
}

func TestJSONCallsSetContentType(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"status":"ok","config":{"provider":"openai","model":"gpt-4o","base_url":"","has_api_key":true}}`)

	resp, err := client.UpdateConfig(context.Background(), types.LLMConfig{
		Provider:  types.ProviderOpenAI,
		Model:     "gpt-4o",
		APIKey:    "sk-test",
		HasAPIKey: true,
	})
	if err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}
	if !resp.Config.HasAPIKey || resp.Config.APIKey != "" {
		t.Errorf("expected key presence flag without key, got %+v", resp.Config)
	}

	got, _ := rec.get()
	if got.ContentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", got.ContentType)
	}
	body := decodeBody(t, got.Body)
	if body["api_key"] != "sk-test" {
		t.Errorf("expected api_key in body, got %v", body)
	}
	if _, ok := body["has_api_key"]; ok {
		t.Error("has_api_key is read only and must not be sent")
	}
}

func TestMultipartCallsNeverSetJSONContentType(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"id":"d1","filename":"notes.txt","created_at":"t"}`)

	doc, err := client.UploadDocument(context.Background(), "/tmp/notes.txt", strings.NewReader("Guten Tag"))
	if err != nil {
		t.Fatalf("UploadDocument failed: %v", err)
	}
	if doc.ID != "d1" || doc.ExtractedWords != nil {
		t.Errorf("unexpected document %+v", doc)
	}

	got, _ := rec.get()
	if strings.Contains(got.ContentType, "json") {
		t.Fatalf("multipart call sent JSON content type %q", got.ContentType)
	}
	if !strings.HasPrefix(got.ContentType, "multipart/form-data; boundary=") {
		t.Errorf("unexpected content type %q", got.ContentType)
	}
	file, ok := got.Files["file"]
	if !ok {
		t.Fatalf("expected file part, got %v", got.Files)
	}
	if file.Filename != "notes.txt" || string(file.Data) != "Guten Tag" {
		t.Errorf("unexpected file part %+v", file)
	}
	if !strings.HasPrefix(file.ContentType, "text/plain") {
		t.Errorf("expected detected text/plain part, got %q", file.ContentType)
	}
}

func TestTranscribeAudioForm(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"text":"Ich bin müde","original_text":"Ich bin mude","language":"de","confidence":0.91,"was_corrected":true}`)

	correct := true
	result, err := client.TranscribeAudio(context.Background(), strings.NewReader("audio-bytes"), TranscribeOptions{Language: "de", Correct: &correct})
	if err != nil {
		t.Fatalf("TranscribeAudio failed: %v", err)
	}
	if result.Text != "Ich bin müde" || !result.WasCorrected || result.Confidence == nil || *result.Confidence != 0.91 {
		t.Errorf("unexpected transcription %+v", result)
	}

	got, _ := rec.get()
	if got.Path != "/api/audio/transcribe" {
		t.Errorf("unexpected path %s", got.Path)
	}
	audio := got.Files["audio"]
	if audio.Filename != "recording.webm" || string(audio.Data) != "audio-bytes" {
		t.Errorf("unexpected audio part %+v", audio)
	}
	if got.Form["language"][0] != "de" || got.Form["correct"][0] != "true" {
		t.Errorf("unexpected form values %v", got.Form)
	}
}

func TestTranscribeAndSendForm(t *testing.T) {
	body := `{"transcription":{"text":"Hallo","original_text":"Hallo","was_corrected":false},
	"chat_response":{"user_message":{"id":"m1","chat_id":"c1","role":"user","content":"Hallo"},
	"assistant_message":{"id":"m2","chat_id":"c1","role":"assistant","content":"Hallo!","grammar_detected":{"rule_name":"Dativ","explanation":"mit + Dativ"}}}}`
	client, rec := newTestClient(t, http.StatusOK, body)

	result, err := client.TranscribeAndSend(context.Background(), strings.NewReader("audio"), "c1", false, TranscribeOptions{})
	if err != nil {
		t.Fatalf("TranscribeAndSend failed: %v", err)
	}
	grammar := result.ChatResponse.AssistantMessage.GrammarDetected
	if grammar == nil || grammar.RuleName != "Dativ" {
		t.Errorf("expected grammar annotation, got %+v", result.ChatResponse.AssistantMessage)
	}
	if result.ChatResponse.AssistantMessage.Content != "Hallo!" {
		t.Errorf("unexpected assistant content %q", result.ChatResponse.AssistantMessage.Content)
	}

	got, _ := rec.get()
	if got.Form["chat_id"][0] != "c1" {
		t.Errorf("expected chat_id c1, got %v", got.Form["chat_id"])
	}
	if got.Form["detect_grammar"][0] != "false" {
		t.Errorf("expected detect_grammar false, got %v", got.Form["detect_grammar"])
	}
	if _, ok := got.Form["language"]; ok {
		t.Error("language should be omitted when empty")
	}
	if _, ok := got.Form["correct"]; ok {
		t.Error("correct should be omitted when unset")
	}
}

func TestSendMessageBody(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"user_message":{"id":"u"},"assistant_message":{"id":"a"}}`)

	resp, err := client.SendMessage(context.Background(), "c 1", "Wie geht's?", true)
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if resp.AssistantMessage.GrammarDetected != nil {
		t.Error("expected no grammar annotation")
	}

	got, _ := rec.get()
	if got.Path != "/api/chats/c 1/messages" {
		t.Errorf("unexpected path %q", got.Path)
	}
	body := decodeBody(t, got.Body)
	if body["chat_id"] != "c 1" || body["content"] != "Wie geht's?" || body["detect_grammar"] != true {
		t.Errorf("unexpected body %v", body)
	}
}

func TestCreateGrammarRuleUsesQueryOnly(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"rule_id":"r1","chat_id":"c9","category_id":"k1"}`)

	created, err := client.CreateGrammarRule(context.Background(), "Perfekt", "", "c1")
	if err != nil {
		t.Fatalf("CreateGrammarRule failed: %v", err)
	}
	if created.ChatID != "c9" || created.CategoryID != "k1" {
		t.Errorf("unexpected result %+v", created)
	}

	got, _ := rec.get()
	if got.Method != http.MethodPost {
		t.Errorf("expected POST, got %s", got.Method)
	}
	if got.RawQuery != "from_chat_id=c1&rule_name=Perfekt" {
		t.Errorf("unexpected query %q", got.RawQuery)
	}
	if len(got.Body) != 0 || got.ContentType != "" {
		t.Errorf("expected no body, got %q (%s)", got.Body, got.ContentType)
	}
}

func TestDeleteIgnoresStatusBody(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"status":"deleted"}`)

	calls := []struct {
		name string
		path string
		fn   func() error
	}{
		{"category", "/api/categories/k1", func() error { return client.DeleteCategory(context.Background(), "k1") }},
		{"chat", "/api/chats/c1", func() error { return client.DeleteChat(context.Background(), "c1") }},
		{"document", "/api/documents/d1", func() error { return client.DeleteDocument(context.Background(), "d1") }},
		{"grammar_rule", "/api/grammar-rules/r1", func() error { return client.DeleteGrammarRule(context.Background(), "r1") }},
	}
	for _, tt := range calls {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			got, _ := rec.get()
			if got.Method != http.MethodDelete || got.Path != tt.path {
				t.Errorf("unexpected request %s %s", got.Method, got.Path)
			}
		})
	}
}

func TestInvalidInputMakesNoRequest(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{}`)
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["get_chat"] = client.GetChat(ctx, " ")
	checks["delete_chat"] = client.DeleteChat(ctx, "")
	_, checks["create_chat_mode"] = client.CreateChat(ctx, "x", types.ChatMode("lecture"), "", "")
	_, checks["get_chats_mode"] = client.GetChats(ctx, types.ChatMode("lecture"), "")
	_, checks["create_category_type"] = client.CreateCategory(ctx, "x", types.CategoryType("misc"))
	_, checks["create_category_name"] = client.CreateCategory(ctx, "", types.CategoryTopic)
	_, checks["send_empty"] = client.SendMessage(ctx, "c1", "  ", true)
	_, checks["rule_name"] = client.CreateGrammarRule(ctx, "", "", "")
	_, checks["provider"] = client.UpdateConfig(ctx, types.LLMConfig{Provider: "mistral"})
	_, checks["audio_nil"] = client.TranscribeAudio(ctx, nil, TranscribeOptions{})
	_, checks["upload_name"] = client.UploadDocument(ctx, "...", strings.NewReader("x"))

	for name, err := range checks {
		if !apierrors.IsInvalidInput(err) {
			t.Errorf("%s: expected invalid input error, got %v", name, err)
		}
	}
	if _, hits := rec.get(); hits != 0 {
		t.Errorf("expected no requests, got %d", hits)
	}
}

func TestDecodeFailure(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `{"status":`)
	_, err := client.HealthCheck(context.Background())
	if !apierrors.IsDecode(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "invalid response: ") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewWithHTTPClient(url, nil, nil)
	_, err := client.HealthCheck(context.Background())
	if !apierrors.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "request failed: ") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestHealthAndInfo(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"status":"healthy","timestamp":"2024-05-01T10:00:00","version":"2.0.0","name":"Language Teacher API"}`)

	health, err := client.HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	if health.Status != "healthy" || health.Timestamp == "" {
		t.Errorf("unexpected health %+v", health)
	}
	got, _ := rec.get()
	if got.Path != "/health" {
		t.Errorf("unexpected path %s", got.Path)
	}

	info, err := client.ServiceInfo(context.Background())
	if err != nil {
		t.Fatalf("ServiceInfo failed: %v", err)
	}
	if info.Version != "2.0.0" {
		t.Errorf("unexpected info %+v", info)
	}
	if got, _ := rec.get(); got.Path != "/" {
		t.Errorf("unexpected path %s", got.Path)
	}
}

func TestSupplementalEndpoints(t *testing.T) {
	t.Run("audio formats", func(t *testing.T) {
		client, rec := newTestClient(t, http.StatusOK, `{"formats":[".wav",".webm"],"max_size_mb":25,"correction_enabled":true}`)
		formats, err := client.GetAudioFormats(context.Background())
		if err != nil {
			t.Fatalf("GetAudioFormats failed: %v", err)
		}
		if len(formats.Formats) != 2 || formats.MaxSizeMB != 25 || !formats.CorrectionEnabled {
			t.Errorf("unexpected formats %+v", formats)
		}
		if got, _ := rec.get(); got.Method != http.MethodGet || got.Path != "/api/audio/formats" || got.ContentType != "" {
			t.Errorf("unexpected request %+v", got)
		}
	})

	t.Run("whisper config", func(t *testing.T) {
		client, rec := newTestClient(t, http.StatusOK, `{"status":"ok","config":{"provider":"local","model":"small","language":"de","task":"transcribe"}}`)
		resp, err := client.UpdateWhisperConfig(context.Background(), types.WhisperConfig{Provider: "local", Model: "small", Language: "de"})
		if err != nil {
			t.Fatalf("UpdateWhisperConfig failed: %v", err)
		}
		if resp.Config.Task != "transcribe" {
			t.Errorf("unexpected config %+v", resp.Config)
		}
		got, _ := rec.get()
		if got.Method != http.MethodPost || got.Path != "/api/config/whisper" {
			t.Errorf("unexpected request %s %s", got.Method, got.Path)
		}
		if body := decodeBody(t, got.Body); body["model"] != "small" {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("delete grammar rule", func(t *testing.T) {
		client, rec := newTestClient(t, http.StatusOK, `{"status":"deleted"}`)
		if err := client.DeleteGrammarRule(context.Background(), "r/1"); err != nil {
			t.Fatalf("DeleteGrammarRule failed: %v", err)
		}
		if got, _ := rec.get(); got.Method != http.MethodDelete || got.Path != "/api/grammar-rules/r/1" {
			t.Errorf("unexpected request %s %s", got.Method, got.Path)
		}
	})
}
