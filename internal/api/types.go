package api

// Response shapes for the Bravur backend. Every endpoint gets its own
// success/error type so callers branch on fields instead of probing
// loosely-typed maps.

// SessionCreated is returned by POST /session/create.
type SessionCreated struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// ConsentCheck is returned by GET /consent/check/{session_id}.
type ConsentCheck struct {
	CanProceed bool   `json:"can_proceed"`
	Reason     string `json:"reason,omitempty"`
}

// ConsentUpdate is returned by the consent accept and withdraw endpoints.
type ConsentUpdate struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ConsentRecord is the backend's stored consent state for a session.
type ConsentRecord struct {
	HasConsent  bool   `json:"has_consent"`
	IsWithdrawn bool   `json:"is_withdrawn"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// HistoryMessage is one transcript entry as stored server-side.
type HistoryMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// FeedbackEntry is one stored feedback submission.
type FeedbackEntry struct {
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// DataView is the full snapshot returned by GET /consent/view/{session_id}.
type DataView struct {
	Success  bool             `json:"success"`
	Session  string           `json:"session,omitempty"`
	Consent  ConsentRecord    `json:"consent"`
	Messages []HistoryMessage `json:"messages"`
	Feedback []FeedbackEntry  `json:"feedback"`
	Error    string           `json:"error,omitempty"`
}

// HistoryResult is returned by GET /history.
type HistoryResult struct {
	Messages []HistoryMessage `json:"messages"`
}

// FeedbackResult is returned by POST /feedback.
type FeedbackResult struct {
	Message string `json:"message"`
}

// STTResult is returned by POST /stt.
type STTResult struct {
	Status  string `json:"status"`
	Text    string `json:"text"`
	Message string `json:"message,omitempty"`
}

// STSResult is returned by POST /sts. AudioBase64 carries a complete WAV
// container so no second synthesis round trip is needed.
type STSResult struct {
	Status      string `json:"status"`
	UserText    string `json:"user_text"`
	BotText     string `json:"bot_text"`
	AudioBase64 string `json:"audio_base64"`
	SessionID   string `json:"session_id,omitempty"`
	Language    string `json:"language,omitempty"`
	Error       string `json:"error,omitempty"`
	Message     string `json:"message,omitempty"`
}

// LanguageChangeResult is returned by POST /language_change.
type LanguageChangeResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
