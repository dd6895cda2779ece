package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCreateSession_OKAndMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session/create" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"session_id": "42", "status": "success"})
	}))
	defer srv.Close()
	c := NewClient(srv.URL)
	out, err := c.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if out.SessionID != "42" {
		t.Fatalf("session id: got %q", out.SessionID)
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer empty.Close()
	if _, err := NewClient(empty.URL).CreateSession(context.Background()); err == nil {
		t.Fatalf("expected error when session id missing")
	}
}

func TestCheckConsent_Decodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/consent/check/abc" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"can_proceed":true}`))
	}))
	defer srv.Close()
	out, err := NewClient(srv.URL).CheckConsent(context.Background(), "abc")
	if err != nil {
		t.Fatalf("check consent: %v", err)
	}
	if !out.CanProceed {
		t.Fatalf("expected can_proceed")
	}
}

func TestAcceptConsent_BackendErrorVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Database connection failed"}`))
	}))
	defer srv.Close()
	out, err := NewClient(srv.URL).AcceptConsent(context.Background(), "abc")
	if err != nil {
		t.Fatalf("expected decoded error body, got transport error: %v", err)
	}
	if out.Success {
		t.Fatalf("expected success=false")
	}
	if out.Error != "Database connection failed" {
		t.Fatalf("expected verbatim error, got %q", out.Error)
	}
}

func TestSubmitFeedback_SendsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("rating") != "4" || r.PostForm.Get("session_id") != "s1" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		_, _ = w.Write([]byte(`{"message":"Feedback submitted successfully!"}`))
	}))
	defer srv.Close()
	out, err := NewClient(srv.URL).SubmitFeedback(context.Background(), "s1", 4, "nice")
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if !strings.Contains(out.Message, "successfully") {
		t.Fatalf("unexpected message %q", out.Message)
	}
}

func TestStreamChat_ChunksInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("user_input") != "hi" || r.PostForm.Get("language") != "en-US" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		fl, ok := w.(http.Flusher)
		if !ok {
			t.Fatalf("flusher not supported")
		}
		for _, chunk := range []string{"Hel", "lo"} {
			_, _ = w.Write([]byte(chunk))
			fl.Flush()
			time.Sleep(5 * time.Millisecond)
		}
	}))
	defer srv.Close()

	stream, err := NewClient(srv.URL).StreamChat(context.Background(), "hi", "s1", "en-US")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer stream.Close()

	var got strings.Builder
	for {
		b, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		got.Write(b)
	}
	if got.String() != "Hello" {
		t.Fatalf("stream text: got %q want %q", got.String(), "Hello")
	}
}

func TestStreamChat_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"session expired"}`))
	}))
	defer srv.Close()
	if _, err := NewClient(srv.URL).StreamChat(context.Background(), "hi", "s1", "nl-NL"); err == nil {
		t.Fatalf("expected error for 403")
	}
}

func TestSpeechToSpeech_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("session_id") != "s1" || r.FormValue("language") != "nl-NL" {
			t.Errorf("unexpected fields: %v", r.MultipartForm.Value)
		}
		f, _, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			b, _ := io.ReadAll(f)
			if len(b) != 3 {
				t.Errorf("audio bytes: got %d", len(b))
			}
			f.Close()
		}
		_ = json.NewEncoder(w).Encode(STSResult{Status: "success", UserText: "hoi", BotText: "hallo", AudioBase64: "UklGRg=="})
	}))
	defer srv.Close()
	out, err := NewClient(srv.URL).SpeechToSpeech(context.Background(), []byte{1, 2, 3}, "s1", "nl-NL")
	if err != nil {
		t.Fatalf("sts: %v", err)
	}
	if out.UserText != "hoi" || out.BotText != "hallo" {
		t.Fatalf("unexpected result %+v", out)
	}
}

func TestTextToSpeech_ReturnsBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["language"] != "en-US" {
			t.Errorf("unexpected language %q", body["language"])
		}
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFFdata"))
	}))
	defer srv.Close()
	b, err := NewClient(srv.URL).TextToSpeech(context.Background(), "hello", "en-US")
	if err != nil {
		t.Fatalf("tts: %v", err)
	}
	if string(b) != "RIFFdata" {
		t.Fatalf("unexpected bytes %q", b)
	}
}

func TestDecodeJSON_BadBodyOn500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		_, _ = w.Write([]byte("oops"))
	}))
	defer srv.Close()
	if _, err := NewClient(srv.URL).History(context.Background(), "s1"); err == nil {
		t.Fatalf("expected error for non-json 500")
	}
}
