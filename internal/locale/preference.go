package locale

import (
	"context"
	"log"
	"sync"
)

// Language is one of the two widget locales.
type Language string

const (
	Dutch   Language = "nl-NL"
	English Language = "en-US"
)

// Valid reports whether l is a supported locale.
func (l Language) Valid() bool { return l == Dutch || l == English }

// Notifier reports a locale transition to the backend. The returned string
// is an informational message suitable for the transcript.
type Notifier interface {
	NotifyLanguageChange(ctx context.Context, sessionID, from, to string) (string, error)
}

// Preference holds the active widget locale. Toggling to the already-active
// value is a no-op; a genuine change applies immediately and notifies the
// backend asynchronously without blocking the caller.
type Preference struct {
	notifier Notifier
	onSystem func(text string)

	mu     sync.Mutex
	active Language
}

// New creates a Preference starting at initial. onSystem may be nil.
func New(initial Language, notifier Notifier, onSystem func(string)) *Preference {
	if !initial.Valid() {
		initial = Dutch
	}
	return &Preference{active: initial, notifier: notifier, onSystem: onSystem}
}

// Active returns the current locale.
func (p *Preference) Active() Language {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Toggle flips between the two locales and returns the new active value.
func (p *Preference) Toggle(ctx context.Context, sessionID string) Language {
	next := English
	if p.Active() == English {
		next = Dutch
	}
	p.Set(ctx, sessionID, next)
	return next
}

// Set switches the active locale. The UI change is immediate; the backend
// notification runs in the background and only feeds a system message.
func (p *Preference) Set(ctx context.Context, sessionID string, lang Language) {
	if !lang.Valid() {
		log.Printf("locale: ignoring unsupported language %q", lang)
		return
	}
	p.mu.Lock()
	if p.active == lang {
		p.mu.Unlock()
		return
	}
	from := p.active
	p.active = lang
	p.mu.Unlock()

	if p.notifier == nil {
		return
	}
	go func() {
		msg, err := p.notifier.NotifyLanguageChange(ctx, sessionID, string(from), string(lang))
		if err != nil {
			log.Printf("locale: change notice failed: %v", err)
			return
		}
		if p.onSystem != nil && msg != "" {
			p.onSystem(msg)
		}
	}()
}
