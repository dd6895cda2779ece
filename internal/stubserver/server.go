// Package stubserver is a self-contained stand-in for the Bravur backend.
// It implements every endpoint the widget calls with in-memory state, so the
// widget can be developed and demoed without the real service.
package stubserver

import (
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/api"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/wav"
)

type session struct {
	consented bool
	withdrawn bool
	created   time.Time
	messages  []api.HistoryMessage
	feedback  []api.FeedbackEntry
}

// Server holds the in-memory session store.
type Server struct {
	// ChunkDelay spaces out chat chunks so streaming is visible. Zero means
	// no artificial delay.
	ChunkDelay time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

// New returns an empty Server.
func New() *Server {
	return &Server{sessions: make(map[string]*session), ChunkDelay: 40 * time.Millisecond}
}

// Register mounts all routes under /api/v1.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	g := e.Group("/api/v1")
	g.POST("/session/create", s.createSession)
	g.GET("/consent/check/:session_id", s.checkConsent)
	g.POST("/consent/accept", s.acceptConsent)
	g.POST("/consent/withdraw", s.withdrawConsent)
	g.GET("/consent/view/:session_id", s.viewData)
	g.POST("/chat", s.chat)
	g.GET("/history", s.history)
	g.POST("/feedback", s.submitFeedback)
	g.POST("/language_change", s.languageChange)
	g.POST("/tts", s.tts)
	g.POST("/stt", s.stt)
	g.POST("/sts", s.sts)
}

func (s *Server) get(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *Server) createSession(c echo.Context) error {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &session{created: time.Now()}
	s.mu.Unlock()
	return c.JSON(http.StatusOK, api.SessionCreated{SessionID: id, Status: "success"})
}

func (s *Server) checkConsent(c echo.Context) error {
	sess := s.get(c.Param("session_id"))
	if sess == nil {
		return c.JSON(http.StatusNotFound, map[string]any{"can_proceed": false, "reason": "unknown session"})
	}
	s.mu.Lock()
	ok := sess.consented && !sess.withdrawn
	s.mu.Unlock()
	res := api.ConsentCheck{CanProceed: ok}
	if !ok {
		res.Reason = "consent required"
	}
	return c.JSON(http.StatusOK, res)
}

type consentBody struct {
	SessionID string `json:"session_id"`
}

func (s *Server) acceptConsent(c echo.Context) error {
	var body consentBody
	if err := c.Bind(&body); err != nil || body.SessionID == "" {
		return c.JSON(http.StatusBadRequest, api.ConsentUpdate{Error: "session_id is required"})
	}
	sess := s.get(body.SessionID)
	if sess == nil {
		return c.JSON(http.StatusNotFound, api.ConsentUpdate{Error: "Session not found"})
	}
	s.mu.Lock()
	sess.consented = true
	sess.withdrawn = false
	s.mu.Unlock()
	return c.JSON(http.StatusOK, api.ConsentUpdate{Success: true, Message: "Consent recorded"})
}

func (s *Server) withdrawConsent(c echo.Context) error {
	var body consentBody
	if err := c.Bind(&body); err != nil || body.SessionID == "" {
		return c.JSON(http.StatusBadRequest, api.ConsentUpdate{Error: "session_id is required"})
	}
	sess := s.get(body.SessionID)
	if sess == nil {
		return c.JSON(http.StatusNotFound, api.ConsentUpdate{Error: "Session not found"})
	}
	// Withdrawal deletes the stored conversation and feedback.
	s.mu.Lock()
	sess.consented = false
	sess.withdrawn = true
	sess.messages = nil
	sess.feedback = nil
	s.mu.Unlock()
	return c.JSON(http.StatusOK, api.ConsentUpdate{Success: true, Message: "Consent withdrawn, data deleted"})
}

func (s *Server) viewData(c echo.Context) error {
	id := c.Param("session_id")
	sess := s.get(id)
	if sess == nil {
		return c.JSON(http.StatusNotFound, api.DataView{Error: "Session not found"})
	}
	s.mu.Lock()
	view := api.DataView{
		Success: true,
		Session: id,
		Consent: api.ConsentRecord{
			HasConsent:  sess.consented,
			IsWithdrawn: sess.withdrawn,
			Timestamp:   sess.created.Format(time.RFC3339),
		},
		Messages: append([]api.HistoryMessage(nil), sess.messages...),
		Feedback: append([]api.FeedbackEntry(nil), sess.feedback...),
	}
	s.mu.Unlock()
	return c.JSON(http.StatusOK, view)
}

// requireConsent returns the session when it may use the chat, or writes the
// 403 and returns nil.
func (s *Server) requireConsent(c echo.Context, id string) *session {
	sess := s.get(id)
	allowed := false
	if sess != nil {
		s.mu.Lock()
		allowed = sess.consented && !sess.withdrawn
		s.mu.Unlock()
	}
	if !allowed {
		_ = c.JSON(http.StatusForbidden, map[string]string{"error": "Consent required before chatting"})
		return nil
	}
	return sess
}

func (s *Server) chat(c echo.Context) error {
	userInput := c.FormValue("user_input")
	sessionID := c.FormValue("session_id")
	language := c.FormValue("language")

	sess := s.requireConsent(c, sessionID)
	if sess == nil {
		return nil
	}
	if strings.TrimSpace(userInput) == "" {
		return c.String(http.StatusBadRequest, "user_input is required")
	}

	s.mu.Lock()
	sess.messages = append(sess.messages, api.HistoryMessage{
		Type: "user", Content: userInput, Timestamp: time.Now().Format(time.RFC3339),
	})
	s.mu.Unlock()

	reply := cannedReply(userInput, language)

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	resp.WriteHeader(http.StatusOK)

	for _, word := range strings.SplitAfter(reply, " ") {
		if _, err := io.WriteString(resp, word); err != nil {
			return nil
		}
		resp.Flush()
		if s.ChunkDelay > 0 {
			time.Sleep(s.ChunkDelay)
		}
	}

	s.mu.Lock()
	sess.messages = append(sess.messages, api.HistoryMessage{
		Type: "bot", Content: reply, Timestamp: time.Now().Format(time.RFC3339),
	})
	s.mu.Unlock()
	return nil
}

func cannedReply(userInput, language string) string {
	if strings.HasPrefix(language, "nl") {
		return fmt.Sprintf("Bedankt voor je vraag over %q. Dit is een testantwoord van de lokale stubserver.", userInput)
	}
	return fmt.Sprintf("Thanks for asking about %q. This is a canned reply from the local stub server.", userInput)
}

func (s *Server) history(c echo.Context) error {
	sess := s.get(c.QueryParam("session_id"))
	if sess == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
	}
	s.mu.Lock()
	out := api.HistoryResult{Messages: append([]api.HistoryMessage(nil), sess.messages...)}
	s.mu.Unlock()
	return c.JSON(http.StatusOK, out)
}

func (s *Server) submitFeedback(c echo.Context) error {
	sess := s.get(c.FormValue("session_id"))
	if sess == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
	}
	rating, err := strconv.Atoi(c.FormValue("rating"))
	if err != nil || rating < 1 || rating > 5 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "rating must be 1-5"})
	}
	s.mu.Lock()
	sess.feedback = append(sess.feedback, api.FeedbackEntry{
		Rating: rating, Comment: c.FormValue("comment"), Timestamp: time.Now().Format(time.RFC3339),
	})
	s.mu.Unlock()
	return c.JSON(http.StatusOK, api.FeedbackResult{Message: "Feedback submitted successfully!"})
}

func (s *Server) languageChange(c echo.Context) error {
	sess := s.get(c.FormValue("session_id"))
	if sess == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
	}
	from := c.FormValue("from_language")
	to := c.FormValue("to_language")
	msg := fmt.Sprintf("Language changed from %s to %s", from, to)
	s.mu.Lock()
	sess.messages = append(sess.messages, api.HistoryMessage{
		Type: "system", Content: msg, Timestamp: time.Now().Format(time.RFC3339),
	})
	s.mu.Unlock()
	return c.JSON(http.StatusOK, api.LanguageChangeResult{Status: "success", Message: msg})
}

type ttsBody struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (s *Server) tts(c echo.Context) error {
	var body ttsBody
	if err := c.Bind(&body); err != nil || body.Text == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "text is required"})
	}
	// Duration scales with text length so playback feels proportional.
	return c.Blob(http.StatusOK, "audio/wav", beep(len(body.Text)))
}

// beep synthesizes a 440 Hz tone, 50 ms per 10 characters, capped at 2 s.
func beep(chars int) []byte {
	const rate = 16000
	ms := 200 + chars*5
	if ms > 2000 {
		ms = 2000
	}
	n := rate * ms / 1000
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = 0.2 * float32(math.Sin(2*math.Pi*440*float64(i)/rate))
	}
	return wav.Encode(samples, rate)
}

type sttBody struct {
	Language string `json:"language"`
}

func (s *Server) stt(c echo.Context) error {
	var body sttBody
	_ = c.Bind(&body)
	text := "This is a simulated transcription."
	if strings.HasPrefix(body.Language, "nl") {
		text = "Dit is een gesimuleerde transcriptie."
	}
	return c.JSON(http.StatusOK, api.STTResult{Status: "success", Text: text})
}

func (s *Server) sts(c echo.Context) error {
	sessionID := c.FormValue("session_id")
	language := c.FormValue("language")
	sess := s.requireConsent(c, sessionID)
	if sess == nil {
		return nil
	}

	file, err := c.FormFile("audio")
	if err != nil {
		return c.JSON(http.StatusBadRequest, api.STSResult{Status: "error", Error: "audio file is required"})
	}
	f, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, api.STSResult{Status: "error", Error: "cannot read audio file"})
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return c.JSON(http.StatusBadRequest, api.STSResult{Status: "error", Error: "cannot read audio file"})
	}
	info, _, err := wav.Decode(raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, api.STSResult{Status: "error", Error: "audio must be a WAV clip"})
	}

	seconds := float64(info.DataLen/2) / float64(info.SampleRate)
	userText := fmt.Sprintf("Simulated transcription of a %.1f second clip.", seconds)
	botText := cannedReply(userText, language)

	s.mu.Lock()
	now := time.Now().Format(time.RFC3339)
	sess.messages = append(sess.messages,
		api.HistoryMessage{Type: "user", Content: userText, Timestamp: now},
		api.HistoryMessage{Type: "bot", Content: botText, Timestamp: now},
	)
	s.mu.Unlock()

	return c.JSON(http.StatusOK, api.STSResult{
		Status:      "success",
		UserText:    userText,
		BotText:     botText,
		AudioBase64: base64.StdEncoding.EncodeToString(beep(len(botText))),
		SessionID:   sessionID,
		Language:    language,
	})
}
