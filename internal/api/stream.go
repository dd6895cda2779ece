package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ChatStream is an open chat response delivering plain-text chunks in
// arrival order over a single connection.
type ChatStream struct {
	body io.ReadCloser
	buf  []byte
}

// Recv returns the next chunk of the reply, or io.EOF when the backend is
// done. Chunks arrive in order; an empty slice is never returned with a nil
// error.
func (s *ChatStream) Recv() ([]byte, error) {
	for {
		n, err := s.body.Read(s.buf)
		if n > 0 {
			out := make([]byte, n)
			copy(out, s.buf[:n])
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Close releases the underlying connection.
func (s *ChatStream) Close() error { return s.body.Close() }

// StreamChat sends the user's text and opens the chunked reply stream.
// The caller owns the returned stream and must Close it.
func (c *Client) StreamChat(ctx context.Context, userInput, sessionID, language string) (*ChatStream, error) {
	form := url.Values{}
	form.Set("user_input", userInput)
	form.Set("session_id", sessionID)
	form.Set("language", language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.StreamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: open chat stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("api: chat status=%d body=%s", resp.StatusCode, string(b))
	}
	return &ChatStream{body: resp.Body, buf: make([]byte, 4096)}, nil
}
