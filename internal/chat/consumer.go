package chat

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FallbackMessage is the single user-visible bubble shown when the stream
// cannot be opened or dies. No retry is attempted.
const FallbackMessage = "Something went wrong. Try again!"

const (
	defaultTick   = 100 * time.Millisecond
	defaultFreeze = 2 * time.Second
)

// Stream delivers a chunked chat reply in arrival order.
type Stream interface {
	Recv() ([]byte, error) // io.EOF on completion
	Close() error
}

// Sender opens a chat stream for the given user text.
type Sender interface {
	StreamChat(ctx context.Context, userInput, sessionID, language string) (Stream, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, userInput, sessionID, language string) (Stream, error)

func (f SenderFunc) StreamChat(ctx context.Context, userInput, sessionID, language string) (Stream, error) {
	return f(ctx, userInput, sessionID, language)
}

// View receives incremental rendering updates. Implementations decide how to
// draw; the consumer only dictates ordering:
//
//	ShowThinking -> (ShowAnswer once, then AppendAnswer per chunk) ->
//	SetElapsed(final) or ClearElapsed/ShowFallback
type View interface {
	// ShowThinking displays the placeholder immediately after send.
	ShowThinking(id string)
	// ShowAnswer replaces the placeholder with the real bubble. Called once,
	// on the first non-empty chunk.
	ShowAnswer(id string)
	// AppendAnswer adds chunk text to the bubble.
	AppendAnswer(id, chunk string)
	// RemoveAnswer discards the thinking placeholder/bubble when the stream
	// completed without producing any text.
	RemoveAnswer(id string)
	// SetElapsed updates the elapsed-time indicator. final marks the frozen
	// completion value.
	SetElapsed(id string, seconds float64, final bool)
	// ClearElapsed hides the indicator.
	ClearElapsed(id string)
	// ShowFallback appends the single error bubble.
	ShowFallback(text string)
}

// Invocation is one send's isolated state: its own timer, buffer, and
// outcome. Concurrent invocations never share state.
type Invocation struct {
	ID    string
	start time.Time
	done  chan struct{}

	mu  sync.Mutex
	buf strings.Builder
	err error
}

// Done is closed when the invocation has fully settled.
func (inv *Invocation) Done() <-chan struct{} { return inv.done }

// Text returns the accumulated reply so far.
func (inv *Invocation) Text() string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.buf.String()
}

// Err reports the transport failure, if any.
func (inv *Invocation) Err() error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.err
}

// Consumer sends chat requests and renders the chunked replies.
type Consumer struct {
	sender Sender
	view   View

	// overridable in tests to keep them fast
	tick   time.Duration
	freeze time.Duration
}

// NewConsumer builds a Consumer over the given transport and view.
func NewConsumer(sender Sender, view View) *Consumer {
	return &Consumer{sender: sender, view: view, tick: defaultTick, freeze: defaultFreeze}
}

// Send issues the chat request and consumes the reply incrementally. It
// never fails synchronously; all outcomes surface through the View and the
// returned Invocation.
func (c *Consumer) Send(ctx context.Context, userText, sessionID, language string) *Invocation {
	inv := &Invocation{ID: uuid.NewString(), start: time.Now(), done: make(chan struct{})}
	go c.run(ctx, inv, userText, sessionID, language)
	return inv
}

func (c *Consumer) run(ctx context.Context, inv *Invocation, userText, sessionID, language string) {
	defer close(inv.done)

	c.view.ShowThinking(inv.ID)

	stopTick := make(chan struct{})
	var tickOnce sync.Once
	stopTimer := func() { tickOnce.Do(func() { close(stopTick) }) }
	defer stopTimer()

	go func() {
		ticker := time.NewTicker(c.tick)
		defer ticker.Stop()
		for {
			select {
			case <-stopTick:
				return
			case <-ticker.C:
				c.view.SetElapsed(inv.ID, time.Since(inv.start).Seconds(), false)
			}
		}
	}()

	stream, err := c.sender.StreamChat(ctx, userText, sessionID, language)
	if err != nil {
		log.Printf("chat: open stream failed: %v", err)
		c.fail(inv, stopTimer, err)
		return
	}
	defer stream.Close()

	first := true
	for {
		chunk, rerr := stream.Recv()
		if len(chunk) > 0 {
			text := string(chunk)
			if first {
				first = false
				c.view.ShowAnswer(inv.ID)
			}
			inv.mu.Lock()
			inv.buf.WriteString(text)
			inv.mu.Unlock()
			c.view.AppendAnswer(inv.ID, text)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			log.Printf("chat: stream read failed: %v", rerr)
			c.fail(inv, stopTimer, rerr)
			return
		}
	}

	stopTimer()
	final := time.Since(inv.start).Seconds()
	c.view.SetElapsed(inv.ID, final, true)
	time.AfterFunc(c.freeze, func() { c.view.ClearElapsed(inv.ID) })

	if inv.Text() == "" {
		c.view.RemoveAnswer(inv.ID)
	}
}

func (c *Consumer) fail(inv *Invocation, stopTimer func(), err error) {
	stopTimer()
	inv.mu.Lock()
	inv.err = err
	inv.mu.Unlock()
	c.view.ClearElapsed(inv.ID)
	c.view.ShowFallback(FallbackMessage)
}
