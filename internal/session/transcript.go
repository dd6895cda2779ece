package session

import (
	"sync"
	"time"
)

// MessageType discriminates transcript entries.
type MessageType string

const (
	UserMessage   MessageType = "user"
	BotMessage    MessageType = "bot"
	SystemMessage MessageType = "system"
)

// Message is one transcript entry. Entries are immutable once appended;
// insertion order is chronological order.
type Message struct {
	Type      MessageType
	Content   string
	Timestamp time.Time
}

// Transcript is the in-memory ordered message list for the page lifetime.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
	onAppend func(Message)
}

// NewTranscript creates an empty transcript. onAppend may be nil.
func NewTranscript(onAppend func(Message)) *Transcript {
	return &Transcript{onAppend: onAppend}
}

// Append adds a message and returns it.
func (t *Transcript) Append(typ MessageType, content string) Message {
	msg := Message{Type: typ, Content: content, Timestamp: time.Now()}
	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
	if t.onAppend != nil {
		t.onAppend(msg)
	}
	return msg
}

// Messages returns a copy of the entries in insertion order.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}
