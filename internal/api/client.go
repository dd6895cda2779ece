package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the Bravur backend API.
type Client struct {
	HTTPClient *http.Client
	// StreamClient has no timeout; chat responses stay open while chunks arrive.
	StreamClient *http.Client
	BaseURL      string
}

// NewClient constructs a Client for the given base URL (e.g. http://host/api/v1).
func NewClient(baseURL string) *Client {
	return &Client{
		HTTPClient:   &http.Client{Timeout: 15 * time.Second},
		StreamClient: &http.Client{Timeout: 0},
		BaseURL:      strings.TrimRight(baseURL, "/"),
	}
}

// CreateSession asks the backend for a fresh session id.
func (c *Client) CreateSession(ctx context.Context) (SessionCreated, error) {
	var out SessionCreated
	err := c.postJSON(ctx, "/session/create", map[string]any{}, &out)
	if err != nil {
		return out, err
	}
	if out.SessionID == "" {
		return out, fmt.Errorf("api: session create returned no session id")
	}
	return out, nil
}

// CheckConsent fetches the consent status for a session.
func (c *Client) CheckConsent(ctx context.Context, sessionID string) (ConsentCheck, error) {
	var out ConsentCheck
	err := c.getJSON(ctx, "/consent/check/"+url.PathEscape(sessionID), &out)
	return out, err
}

// AcceptConsent records consent for the session.
func (c *Client) AcceptConsent(ctx context.Context, sessionID string) (ConsentUpdate, error) {
	var out ConsentUpdate
	err := c.postJSON(ctx, "/consent/accept", map[string]any{"session_id": sessionID}, &out)
	return out, err
}

// WithdrawConsent withdraws consent and deletes the session's server-side data.
func (c *Client) WithdrawConsent(ctx context.Context, sessionID string) (ConsentUpdate, error) {
	var out ConsentUpdate
	err := c.postJSON(ctx, "/consent/withdraw", map[string]any{"session_id": sessionID}, &out)
	return out, err
}

// ViewData fetches the full session snapshot (session, consent, messages, feedback).
func (c *Client) ViewData(ctx context.Context, sessionID string) (DataView, error) {
	var out DataView
	err := c.getJSON(ctx, "/consent/view/"+url.PathEscape(sessionID), &out)
	return out, err
}

// History fetches the stored transcript for a session.
func (c *Client) History(ctx context.Context, sessionID string) (HistoryResult, error) {
	var out HistoryResult
	err := c.getJSON(ctx, "/history?session_id="+url.QueryEscape(sessionID), &out)
	return out, err
}

// SubmitFeedback posts a rating and optional comment.
func (c *Client) SubmitFeedback(ctx context.Context, sessionID string, rating int, comment string) (FeedbackResult, error) {
	form := url.Values{}
	form.Set("session_id", sessionID)
	form.Set("rating", strconv.Itoa(rating))
	form.Set("comment", comment)
	var out FeedbackResult
	err := c.postForm(ctx, "/feedback", form, &out)
	return out, err
}

// NotifyLanguageChange tells the backend the widget switched locale.
func (c *Client) NotifyLanguageChange(ctx context.Context, sessionID, from, to string) (LanguageChangeResult, error) {
	form := url.Values{}
	form.Set("session_id", sessionID)
	form.Set("from_language", from)
	form.Set("to_language", to)
	var out LanguageChangeResult
	err := c.postForm(ctx, "/language_change", form, &out)
	return out, err
}

// TextToSpeech synthesizes text and returns the complete WAV container.
func (c *Client) TextToSpeech(ctx context.Context, text, language string) ([]byte, error) {
	body, _ := json.Marshal(map[string]string{"text": text, "language": language})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/tts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api: tts status=%d body=%s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

// SpeechToText asks the backend to recognize speech in the given language.
func (c *Client) SpeechToText(ctx context.Context, language string) (STTResult, error) {
	var out STTResult
	err := c.postJSON(ctx, "/stt", map[string]string{"language": language}, &out)
	return out, err
}

// SpeechToSpeech uploads a recorded WAV clip and returns the recognized text,
// the bot reply, and an inline base64 WAV with the synthesized answer.
func (c *Client) SpeechToSpeech(ctx context.Context, wavBytes []byte, sessionID, language string) (STSResult, error) {
	var out STSResult

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", "recording.wav")
	if err != nil {
		return out, err
	}
	if _, err := fw.Write(wavBytes); err != nil {
		return out, err
	}
	_ = mw.WriteField("session_id", sessionID)
	_ = mw.WriteField("language", language)
	if err := mw.Close(); err != nil {
		return out, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/sts", &buf)
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	return out, decodeJSON(resp, &out)
}

// postJSON sends a JSON body and decodes a JSON response into out.
func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	buf, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, out)
}

// postForm sends url-encoded form data and decodes a JSON response into out.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, out)
}

// decodeJSON decodes the body into out. Non-2xx responses with a JSON body
// still decode so backend-reported error fields reach the caller verbatim;
// anything else becomes a transport error.
func decodeJSON(resp *http.Response, out any) error {
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if jerr := json.Unmarshal(b, out); jerr != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("api: status=%d body=%s", resp.StatusCode, string(b))
		}
		return fmt.Errorf("api: decode response: %w", jerr)
	}
	return nil
}
