package capture

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/wav"
	"github.com/google/uuid"
)

const (
	// DefaultSampleRate is the preferred capture rate (mono).
	DefaultSampleRate = 16000
	// FrameSize is the fixed buffer size delivered by the audio pipeline.
	FrameSize = 4096
	// MinClipBytes is the smallest encoded clip worth sending anywhere.
	// Shorter captures are discarded locally.
	MinClipBytes = 2000
	// DefaultToggleTimeout bounds a toggle-to-listen recording.
	DefaultToggleTimeout = 5000 * time.Millisecond
)

// Mode selects how a recording starts and stops.
type Mode int

const (
	// ModeToggle starts on one click and stops on a second click or timeout.
	ModeToggle Mode = iota
	// ModePushToTalk records only while the control is held down.
	ModePushToTalk
)

func (m Mode) String() string {
	if m == ModePushToTalk {
		return "push-to-talk"
	}
	return "toggle"
}

// SessionState tracks one recording's lifecycle.
type SessionState int

const (
	Idle SessionState = iota
	Recording
	Stopped
)

var (
	// ErrAlreadyRecording means the single recording slot is taken.
	ErrAlreadyRecording = errors.New("capture: a recording is already active")
	// ErrNotRecording means the session was already stopped (e.g. by timeout).
	ErrNotRecording = errors.New("capture: session is not recording")
	// ErrTooShort means the encoded clip fell under MinClipBytes and was discarded.
	ErrTooShort = errors.New("capture: recording too short")
)

// MicSource acquires a microphone stream and delivers fixed-size float frames.
// Connect must be callable again after Close.
type MicSource interface {
	Connect() error
	Frames() <-chan []float32
	Close() error
}

// Clip is one finished, encoded recording.
type Clip struct {
	ID       string
	WAV      []byte
	Duration time.Duration
}

// Options tunes the engine. Zero values pick the defaults above.
type Options struct {
	SampleRate    int
	ToggleTimeout time.Duration
	MinClipBytes  int
	// OnAutoStop receives the clip (or ErrTooShort) when a toggle recording
	// hits its timeout or the source closes mid-recording.
	OnAutoStop func(Clip, error)
}

// Engine owns the single recording slot and the encode step.
type Engine struct {
	source MicSource
	opts   Options

	mu     sync.Mutex
	active *RecordingSession
}

// RecordingSession is one in-flight capture. At most one exists at a time.
type RecordingSession struct {
	ID   string
	Mode Mode

	mu       sync.Mutex
	state    SessionState
	buffers  [][]float32
	released bool
	done     chan struct{}
	timer    *time.Timer
}

// State returns the session's current lifecycle state.
func (s *RecordingSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NewEngine builds an Engine around the given microphone source.
func NewEngine(source MicSource, opts Options) *Engine {
	if opts.SampleRate == 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.ToggleTimeout == 0 {
		opts.ToggleTimeout = DefaultToggleTimeout
	}
	if opts.MinClipBytes == 0 {
		opts.MinClipBytes = MinClipBytes
	}
	return &Engine{source: source, opts: opts}
}

// Recording reports whether the single recording slot is taken.
func (e *Engine) Recording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active != nil
}

// Start acquires the microphone and begins capturing in the given mode.
func (e *Engine) Start(mode Mode) (*RecordingSession, error) {
	e.mu.Lock()
	if e.active != nil {
		e.mu.Unlock()
		return nil, ErrAlreadyRecording
	}
	if err := e.source.Connect(); err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("capture: acquire microphone: %w", err)
	}
	sess := &RecordingSession{
		ID:    uuid.NewString(),
		Mode:  mode,
		state: Recording,
		done:  make(chan struct{}),
	}
	e.active = sess
	e.mu.Unlock()

	log.Printf("capture: started %s recording %s", mode, sess.ID)

	go e.drain(sess)

	if mode == ModeToggle {
		sess.mu.Lock()
		sess.timer = time.AfterFunc(e.opts.ToggleTimeout, func() {
			clip, err := e.finish(sess)
			if errors.Is(err, ErrNotRecording) {
				return
			}
			log.Printf("capture: toggle timeout hit for %s", sess.ID)
			if e.opts.OnAutoStop != nil {
				e.opts.OnAutoStop(clip, err)
			}
		})
		sess.mu.Unlock()
	}
	return sess, nil
}

// drain appends frames in arrival order until the session stops or the
// source channel closes.
func (e *Engine) drain(sess *RecordingSession) {
	frames := e.source.Frames()
	for {
		select {
		case <-sess.done:
			return
		case frame, ok := <-frames:
			if !ok {
				// Source died mid-recording; finalize with what we have.
				clip, err := e.finish(sess)
				if !errors.Is(err, ErrNotRecording) && e.opts.OnAutoStop != nil {
					e.opts.OnAutoStop(clip, err)
				}
				return
			}
			sess.mu.Lock()
			if sess.state == Recording {
				sess.buffers = append(sess.buffers, frame)
			}
			sess.mu.Unlock()
		}
	}
}

// Stop ends the session and returns the encoded clip. The microphone is
// released no matter how the stop came about.
func (e *Engine) Stop(sess *RecordingSession) (Clip, error) {
	return e.finish(sess)
}

func (e *Engine) finish(sess *RecordingSession) (Clip, error) {
	sess.mu.Lock()
	if sess.state != Recording {
		sess.mu.Unlock()
		return Clip{}, ErrNotRecording
	}
	sess.state = Stopped
	if sess.timer != nil {
		sess.timer.Stop()
	}
	close(sess.done)
	buffers := sess.buffers
	released := sess.released
	sess.released = true
	sess.mu.Unlock()

	if !released {
		if err := e.source.Close(); err != nil {
			log.Printf("capture: source close: %v", err)
		}
	}

	e.mu.Lock()
	if e.active == sess {
		e.active = nil
	}
	e.mu.Unlock()

	var total int
	for _, b := range buffers {
		total += len(b)
	}
	samples := make([]float32, 0, total)
	for _, b := range buffers {
		samples = append(samples, b...)
	}

	encoded := wav.Encode(samples, e.opts.SampleRate)
	clip := Clip{
		ID:       sess.ID,
		WAV:      encoded,
		Duration: time.Duration(len(samples)) * time.Second / time.Duration(e.opts.SampleRate),
	}
	if len(encoded) < e.opts.MinClipBytes {
		log.Printf("capture: discarding clip %s (%d bytes < %d)", sess.ID, len(encoded), e.opts.MinClipBytes)
		return Clip{}, ErrTooShort
	}
	log.Printf("capture: finished %s (%d bytes, %s)", sess.ID, len(encoded), clip.Duration)
	return clip, nil
}

// Abort stops any active recording and drops the audio without encoding.
// Used when consent is withdrawn mid-recording.
func (e *Engine) Abort() {
	e.mu.Lock()
	sess := e.active
	e.mu.Unlock()
	if sess == nil {
		return
	}
	_, err := e.finish(sess)
	if err != nil && !errors.Is(err, ErrNotRecording) && !errors.Is(err, ErrTooShort) {
		log.Printf("capture: abort: %v", err)
	}
}
