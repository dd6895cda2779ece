package tui

import (
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/consent"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/session"
)

// StartupDoneMsg reports the result of the initial session setup.
type StartupDoneMsg struct {
	Err error
}

// TranscriptMsg carries a newly appended transcript entry.
type TranscriptMsg struct {
	Message session.Message
}

// GateMsg carries a consent state transition.
type GateMsg struct {
	State consent.State
}

// FeedbackNoticeMsg carries the outcome of a feedback submission.
type FeedbackNoticeMsg struct {
	Text    string
	IsError bool
}

// ThinkingMsg shows the placeholder for an in-flight chat invocation.
type ThinkingMsg struct {
	ID string
}

// AnswerStartedMsg replaces the placeholder with a real reply bubble.
type AnswerStartedMsg struct {
	ID string
}

// AnswerChunkMsg appends streamed text to the live reply bubble.
type AnswerChunkMsg struct {
	ID    string
	Chunk string
}

// AnswerRemovedMsg discards a bubble that never received any text.
type AnswerRemovedMsg struct {
	ID string
}

// ElapsedMsg updates the elapsed-time indicator for an invocation.
type ElapsedMsg struct {
	ID      string
	Seconds float64
	Final   bool
}

// ElapsedClearedMsg hides the elapsed-time indicator.
type ElapsedClearedMsg struct {
	ID string
}

// FallbackMsg shows the single error bubble for a failed invocation.
type FallbackMsg struct {
	Text string
}

// RecordingToggledMsg reports a microphone start or stop.
type RecordingToggledMsg struct {
	Recording bool
	Err       error
}
