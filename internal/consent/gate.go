package consent

import (
	"context"
	"log"
	"sync"

	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/api"
)

// State is the gate's position in its lifecycle.
type State int

const (
	Unknown State = iota
	Checking
	Granted
	Denied
	Withdrawn
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	case Withdrawn:
		return "withdrawn"
	default:
		return "unknown"
	}
}

// Backend is the consent slice of the Bravur API.
type Backend interface {
	CheckConsent(ctx context.Context, sessionID string) (api.ConsentCheck, error)
	AcceptConsent(ctx context.Context, sessionID string) (api.ConsentUpdate, error)
	WithdrawConsent(ctx context.Context, sessionID string) (api.ConsentUpdate, error)
	ViewData(ctx context.Context, sessionID string) (api.DataView, error)
}

// placeholderSessionIDs are well-known non-values the host page may hand us.
// Checking with one of these is skipped entirely; the gate stays Unknown.
var placeholderSessionIDs = map[string]bool{
	"":                       true,
	"null":                   true,
	"undefined":              true,
	"None":                   true,
	"No session created yet": true,
}

// IsPlaceholderSession reports whether sid is a non-value rather than a real id.
func IsPlaceholderSession(sid string) bool { return placeholderSessionIDs[sid] }

// Gate tracks whether the session may use the chat. All chat and voice entry
// points must consult CanProceed before doing anything.
type Gate struct {
	backend  Backend
	onChange func(State)
	onSystem func(text string)

	mu     sync.Mutex
	state  State
	record api.ConsentRecord
}

// NewGate constructs a Gate in the Unknown state. onChange and onSystem may
// be nil.
func NewGate(backend Backend, onChange func(State), onSystem func(string)) *Gate {
	return &Gate{backend: backend, onChange: onChange, onSystem: onSystem}
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Record returns the cached read-only consent snapshot.
func (g *Gate) Record() api.ConsentRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.record
}

// CanProceed reports whether chat and voice features are unlocked.
func (g *Gate) CanProceed() bool { return g.State() == Granted }

func (g *Gate) transition(to State) {
	g.mu.Lock()
	changed := g.state != to
	g.state = to
	g.mu.Unlock()
	if changed && g.onChange != nil {
		g.onChange(to)
	}
}

func (g *Gate) system(text string) {
	if g.onSystem != nil && text != "" {
		g.onSystem(text)
	}
}

// Check refreshes the gate from the backend. A placeholder session id skips
// the call and leaves the gate Unknown; this is not an error.
func (g *Gate) Check(ctx context.Context, sessionID string) State {
	if IsPlaceholderSession(sessionID) {
		log.Printf("consent: no session id, skipping check")
		return g.State()
	}
	g.transition(Checking)
	res, err := g.backend.CheckConsent(ctx, sessionID)
	if err != nil {
		log.Printf("consent: check failed: %v", err)
		g.transition(Denied)
		return Denied
	}
	if res.CanProceed {
		g.mu.Lock()
		g.record = api.ConsentRecord{HasConsent: true}
		g.mu.Unlock()
		g.transition(Granted)
		return Granted
	}
	g.mu.Lock()
	g.record = api.ConsentRecord{}
	g.mu.Unlock()
	g.transition(Denied)
	return Denied
}

// Accept records consent. On success the gate unlocks and a system message
// announces the change; on failure the backend-supplied error is shown
// verbatim when present.
func (g *Gate) Accept(ctx context.Context, sessionID string) error {
	if IsPlaceholderSession(sessionID) {
		g.system("No session ID available. Please refresh the page.")
		return nil
	}
	res, err := g.backend.AcceptConsent(ctx, sessionID)
	if err != nil {
		log.Printf("consent: accept failed: %v", err)
		g.system("Error accepting consent. Please try again.")
		return err
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "Failed to accept consent"
		}
		g.system(msg)
		return nil
	}
	g.mu.Lock()
	g.record = api.ConsentRecord{HasConsent: true}
	g.mu.Unlock()
	g.transition(Granted)
	g.system("Consent accepted! You can now use the chatbot.")
	return nil
}

// Withdraw revokes consent. On success the gate locks again and the widget
// must stop any in-flight recording or playback (handled by the orchestrator
// through onChange).
func (g *Gate) Withdraw(ctx context.Context, sessionID string) error {
	if IsPlaceholderSession(sessionID) {
		return nil
	}
	res, err := g.backend.WithdrawConsent(ctx, sessionID)
	if err != nil {
		log.Printf("consent: withdraw failed: %v", err)
		g.system("Error withdrawing consent. Please try again.")
		return err
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "Failed to withdraw consent"
		}
		g.system(msg)
		return nil
	}
	g.mu.Lock()
	g.record = api.ConsentRecord{IsWithdrawn: true}
	g.mu.Unlock()
	g.transition(Withdrawn)
	g.system("Consent withdrawn and data deleted.")
	return nil
}

// View fetches the full data snapshot for the session and refreshes the
// cached consent record.
func (g *Gate) View(ctx context.Context, sessionID string) (api.DataView, error) {
	view, err := g.backend.ViewData(ctx, sessionID)
	if err != nil {
		return view, err
	}
	g.mu.Lock()
	g.record = view.Consent
	g.mu.Unlock()
	return view, nil
}
