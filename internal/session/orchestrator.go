package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/api"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/capture"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/chat"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/consent"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/locale"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/playback"
)

// MaxInputChars bounds a typed message, enforced locally before any call.
const MaxInputChars = 1000

// WelcomeMessage greets the user when the widget loads.
const WelcomeMessage = "Welcome to Bravur AI Chatbot! How can I help you today?"

const (
	tooLongNotice    = "Your message is too long. Please keep it under 1000 characters."
	busyNotice       = "Please wait for the current response to finish."
	recordingNotice  = "Please finish your voice recording first."
	tooShortNotice   = "Recording too short. Please try again."
	noVoiceNotice    = "Voice input is not available."
	micDeniedNotice  = "Microphone access failed. Please allow microphone access."
	speechFailNotice = "Speech processing failed. Please try again."
	ttsFailNotice    = "Audio playback failed. Please try again."
)

// Backend is the slice of the Bravur API the orchestrator calls directly.
// Consent and language notification go through their own components.
type Backend interface {
	CreateSession(ctx context.Context) (api.SessionCreated, error)
	History(ctx context.Context, sessionID string) (api.HistoryResult, error)
	SubmitFeedback(ctx context.Context, sessionID string, rating int, comment string) (api.FeedbackResult, error)
	TextToSpeech(ctx context.Context, text, language string) ([]byte, error)
	SpeechToSpeech(ctx context.Context, wavBytes []byte, sessionID, language string) (api.STSResult, error)
}

// Deps wires the orchestrator's collaborators.
type Deps struct {
	Backend    Backend
	Consent    consent.Backend
	Locale     locale.Notifier
	ChatSender chat.Sender
	ChatView   chat.View
	Mic        capture.MicSource // nil disables voice capture
	Device     playback.Device   // nil disables playback
	// ToggleTimeout bounds a toggle-to-listen recording; zero uses the
	// capture default of 5000 ms.
	ToggleTimeout time.Duration
	SessionID     string // resume an existing session when set
	Language      locale.Language
}

// Callbacks push state to the rendering layer. All may be nil.
type Callbacks struct {
	OnMessage func(Message)
	OnGate    func(consent.State)
	// OnRecording fires on every capture start and stop, including
	// auto-stops the user never triggered.
	OnRecording func(active bool)
	OnFeedback  func(text string, isError bool)
}

// Orchestrator composes the gate, capture, playback, locale, and streaming
// pieces and routes every user action through the consent check.
type Orchestrator struct {
	backend    Backend
	gate       *consent.Gate
	pref       *locale.Preference
	consumer   *chat.Consumer
	engine     *capture.Engine
	player     *playback.Controller
	transcript *Transcript
	feedback   feedbackForm
	cb         Callbacks

	mu        sync.Mutex
	sessionID string
	sending   bool
	recording *capture.RecordingSession
}

// New assembles an Orchestrator from its dependencies.
func New(deps Deps, cb Callbacks) *Orchestrator {
	o := &Orchestrator{
		backend:   deps.Backend,
		cb:        cb,
		sessionID: deps.SessionID,
	}
	o.transcript = NewTranscript(func(m Message) {
		if cb.OnMessage != nil {
			cb.OnMessage(m)
		}
	})
	o.gate = consent.NewGate(deps.Consent, o.gateChanged, o.systemMessage)
	o.pref = locale.New(deps.Language, deps.Locale, o.systemMessage)
	o.consumer = chat.NewConsumer(deps.ChatSender, deps.ChatView)
	if deps.Device != nil {
		o.player = playback.NewController(deps.Device)
	}
	if deps.Mic != nil {
		o.engine = capture.NewEngine(deps.Mic, capture.Options{
			ToggleTimeout: deps.ToggleTimeout,
			OnAutoStop:    o.autoStopped,
		})
	}
	return o
}

// Gate exposes the consent gate (read-only use).
func (o *Orchestrator) Gate() *consent.Gate { return o.gate }

// Transcript exposes the message list.
func (o *Orchestrator) Transcript() *Transcript { return o.transcript }

// Language returns the active locale.
func (o *Orchestrator) Language() locale.Language { return o.pref.Active() }

// SessionID returns the backend session id, or "" before Startup.
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// Startup creates (or resumes) the session, runs the consent check, seeds
// the transcript from server history, and greets the user.
func (o *Orchestrator) Startup(ctx context.Context) error {
	o.mu.Lock()
	sid := o.sessionID
	o.mu.Unlock()

	if consent.IsPlaceholderSession(sid) {
		created, err := o.backend.CreateSession(ctx)
		if err != nil {
			return fmt.Errorf("session: create: %w", err)
		}
		sid = created.SessionID
		o.mu.Lock()
		o.sessionID = sid
		o.mu.Unlock()
		log.Printf("session: created %s", sid)
	}

	state := o.gate.Check(ctx, sid)
	if state == consent.Granted {
		o.seedHistory(ctx, sid)
	}
	o.transcript.Append(BotMessage, WelcomeMessage)
	return nil
}

func (o *Orchestrator) seedHistory(ctx context.Context, sid string) {
	hist, err := o.backend.History(ctx, sid)
	if err != nil {
		log.Printf("session: history fetch failed: %v", err)
		return
	}
	for _, m := range hist.Messages {
		typ := MessageType(m.Type)
		switch typ {
		case UserMessage, BotMessage, SystemMessage:
		default:
			typ = SystemMessage
		}
		o.transcript.Append(typ, m.Content)
	}
}

func (o *Orchestrator) systemMessage(text string) {
	o.transcript.Append(SystemMessage, text)
}

func (o *Orchestrator) notifyRecording(active bool) {
	if o.cb.OnRecording != nil {
		o.cb.OnRecording(active)
	}
}

func (o *Orchestrator) feedbackNotice(text string, isErr bool) {
	if o.cb.OnFeedback != nil {
		o.cb.OnFeedback(text, isErr)
	}
}

// gateChanged reacts to consent transitions: on withdrawal any in-flight
// recording or playback stops before the surface dims.
func (o *Orchestrator) gateChanged(s consent.State) {
	if s == consent.Withdrawn {
		if o.engine != nil {
			o.engine.Abort()
		}
		if o.player != nil {
			o.player.Stop()
		}
		o.mu.Lock()
		had := o.recording != nil
		o.recording = nil
		o.mu.Unlock()
		if had {
			o.notifyRecording(false)
		}
	}
	if o.cb.OnGate != nil {
		o.cb.OnGate(s)
	}
}

// AcceptConsent records consent for this session.
func (o *Orchestrator) AcceptConsent(ctx context.Context) error {
	err := o.gate.Accept(ctx, o.SessionID())
	if err == nil && o.gate.CanProceed() {
		o.seedHistory(ctx, o.SessionID())
	}
	return err
}

// WithdrawConsent revokes consent and locks the widget again.
func (o *Orchestrator) WithdrawConsent(ctx context.Context) error {
	return o.gate.Withdraw(ctx, o.SessionID())
}

// SendTyped routes a typed message into the streaming consumer. It is a
// no-op while the gate is not Granted and validates locally before any
// network call.
func (o *Orchestrator) SendTyped(ctx context.Context, text string) {
	if !o.gate.CanProceed() {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if utf8.RuneCountInString(text) > MaxInputChars {
		o.systemMessage(tooLongNotice)
		return
	}

	o.mu.Lock()
	if o.sending {
		o.mu.Unlock()
		o.systemMessage(busyNotice)
		return
	}
	if o.recording != nil {
		o.mu.Unlock()
		o.systemMessage(recordingNotice)
		return
	}
	o.sending = true
	sid := o.sessionID
	o.mu.Unlock()

	o.transcript.Append(UserMessage, text)
	inv := o.consumer.Send(ctx, text, sid, string(o.pref.Active()))
	go func() {
		<-inv.Done()
		if inv.Err() == nil {
			if reply := strings.TrimSpace(inv.Text()); reply != "" {
				o.transcript.Append(BotMessage, reply)
			}
		}
		o.mu.Lock()
		o.sending = false
		o.mu.Unlock()
	}()
}

// Sending reports whether a chat stream is in flight.
func (o *Orchestrator) Sending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sending
}

// Recording reports whether a capture session is active.
func (o *Orchestrator) Recording() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.recording != nil
}

// StartRecording begins a voice capture in the given mode. Any active
// playback is stopped first; the recording slot is exclusive.
func (o *Orchestrator) StartRecording(ctx context.Context, mode capture.Mode) error {
	if !o.gate.CanProceed() {
		return nil
	}
	if o.engine == nil {
		o.systemMessage(noVoiceNotice)
		return nil
	}
	o.mu.Lock()
	if o.sending {
		o.mu.Unlock()
		o.systemMessage(busyNotice)
		return nil
	}
	o.mu.Unlock()

	if o.player != nil {
		o.player.Stop()
	}

	sess, err := o.engine.Start(mode)
	if err != nil {
		if errors.Is(err, capture.ErrAlreadyRecording) {
			return err
		}
		log.Printf("session: start recording: %v", err)
		o.systemMessage(micDeniedNotice)
		return err
	}
	o.mu.Lock()
	o.recording = sess
	o.mu.Unlock()
	o.notifyRecording(true)
	return nil
}

// StopRecording ends the active capture and routes the clip to the
// speech-to-speech flow. Too-short clips are discarded locally.
func (o *Orchestrator) StopRecording(ctx context.Context) {
	o.mu.Lock()
	sess := o.recording
	o.recording = nil
	o.mu.Unlock()
	if sess == nil || o.engine == nil {
		return
	}
	o.notifyRecording(false)
	clip, err := o.engine.Stop(sess)
	o.clipFinished(ctx, clip, err)
}

// autoStopped handles toggle-timeout and source-closed finalization.
func (o *Orchestrator) autoStopped(clip capture.Clip, err error) {
	o.mu.Lock()
	had := o.recording != nil
	o.recording = nil
	o.mu.Unlock()
	if had {
		o.notifyRecording(false)
	}
	o.clipFinished(context.Background(), clip, err)
}

func (o *Orchestrator) clipFinished(ctx context.Context, clip capture.Clip, err error) {
	if err != nil {
		if errors.Is(err, capture.ErrTooShort) {
			o.systemMessage(tooShortNotice)
		} else if !errors.Is(err, capture.ErrNotRecording) {
			log.Printf("session: stop recording: %v", err)
			o.systemMessage(micDeniedNotice)
		}
		return
	}

	res, err := o.backend.SpeechToSpeech(ctx, clip.WAV, o.SessionID(), string(o.pref.Active()))
	if err != nil {
		log.Printf("session: sts failed: %v", err)
		o.systemMessage(speechFailNotice)
		return
	}
	if res.Status != "success" {
		msg := res.Message
		if msg == "" {
			msg = res.Error
		}
		if msg == "" {
			msg = speechFailNotice
		}
		o.systemMessage(msg)
		return
	}

	if res.UserText != "" {
		o.transcript.Append(UserMessage, res.UserText)
	}
	if res.BotText != "" {
		o.transcript.Append(BotMessage, res.BotText)
	}
	if res.AudioBase64 != "" && o.player != nil {
		audio, decErr := base64.StdEncoding.DecodeString(res.AudioBase64)
		if decErr != nil {
			log.Printf("session: bad sts audio payload: %v", decErr)
			return
		}
		if playErr := o.player.Play(audio); playErr != nil {
			log.Printf("session: sts playback: %v", playErr)
		}
	}
}

// Speak synthesizes the given bot message text in the current locale and
// plays it exclusively.
func (o *Orchestrator) Speak(ctx context.Context, text string) {
	if !o.gate.CanProceed() || o.player == nil {
		return
	}
	if o.Recording() {
		return
	}
	audio, err := o.backend.TextToSpeech(ctx, text, string(o.pref.Active()))
	if err != nil {
		log.Printf("session: tts failed: %v", err)
		o.systemMessage(ttsFailNotice)
		return
	}
	if err := o.player.Play(audio); err != nil {
		log.Printf("session: playback failed: %v", err)
		o.systemMessage(ttsFailNotice)
	}
}

// SetLanguage switches the active locale; toggling to the current value is
// a no-op.
func (o *Orchestrator) SetLanguage(ctx context.Context, lang locale.Language) {
	o.pref.Set(ctx, o.SessionID(), lang)
}

// ToggleLanguage flips between the two locales.
func (o *Orchestrator) ToggleLanguage(ctx context.Context) locale.Language {
	return o.pref.Toggle(ctx, o.SessionID())
}

// SubmitFeedback validates locally (rating 1..5, one submission per cycle)
// and only then posts to the backend. It is a no-op while the gate is not
// Granted.
func (o *Orchestrator) SubmitFeedback(ctx context.Context, rating int, comment string) {
	if !o.gate.CanProceed() {
		return
	}
	if notice := validateRating(rating); notice != "" {
		o.feedbackNotice(notice, true)
		return
	}
	if notice := o.feedback.tryBegin(); notice != "" {
		o.feedbackNotice(notice, true)
		return
	}
	res, err := o.backend.SubmitFeedback(ctx, o.SessionID(), rating, comment)
	if err != nil {
		log.Printf("session: feedback failed: %v", err)
		o.feedbackNotice(feedbackFailedLocal, true)
		return
	}
	o.feedback.commit()
	o.feedbackNotice(res.Message, false)
}

// EnableFeedbackEdit re-opens the feedback form for an update.
func (o *Orchestrator) EnableFeedbackEdit() {
	o.feedback.enableEdit()
	o.feedbackNotice(editEnabledNotice, false)
}

// ViewData fetches the full server-side snapshot for this session.
func (o *Orchestrator) ViewData(ctx context.Context) (api.DataView, error) {
	return o.gate.View(ctx, o.SessionID())
}
