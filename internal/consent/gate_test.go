package consent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/api"
)

type fakeBackend struct {
	checks    int32
	check     api.ConsentCheck
	checkErr  error
	accept    api.ConsentUpdate
	acceptErr error
	withdraw  api.ConsentUpdate
	view      api.DataView
}

func (f *fakeBackend) CheckConsent(ctx context.Context, sid string) (api.ConsentCheck, error) {
	atomic.AddInt32(&f.checks, 1)
	return f.check, f.checkErr
}
func (f *fakeBackend) AcceptConsent(ctx context.Context, sid string) (api.ConsentUpdate, error) {
	return f.accept, f.acceptErr
}
func (f *fakeBackend) WithdrawConsent(ctx context.Context, sid string) (api.ConsentUpdate, error) {
	return f.withdraw, nil
}
func (f *fakeBackend) ViewData(ctx context.Context, sid string) (api.DataView, error) {
	return f.view, nil
}

func TestCheck_PlaceholderSessionSkipsCall(t *testing.T) {
	fb := &fakeBackend{}
	g := NewGate(fb, nil, nil)
	for _, sid := range []string{"", "null", "undefined", "None", "No session created yet"} {
		if got := g.Check(context.Background(), sid); got != Unknown {
			t.Fatalf("sid=%q: expected Unknown, got %v", sid, got)
		}
	}
	if atomic.LoadInt32(&fb.checks) != 0 {
		t.Fatalf("expected no backend calls for placeholder ids")
	}
}

func TestCheck_GrantedAndDenied(t *testing.T) {
	fb := &fakeBackend{check: api.ConsentCheck{CanProceed: true}}
	var last State
	g := NewGate(fb, func(s State) { last = s }, nil)
	if got := g.Check(context.Background(), "s1"); got != Granted {
		t.Fatalf("expected Granted, got %v", got)
	}
	if last != Granted {
		t.Fatalf("onChange saw %v", last)
	}
	if !g.CanProceed() {
		t.Fatalf("expected CanProceed")
	}

	fb2 := &fakeBackend{check: api.ConsentCheck{CanProceed: false, Reason: "Consent not yet given"}}
	g2 := NewGate(fb2, nil, nil)
	if got := g2.Check(context.Background(), "s1"); got != Denied {
		t.Fatalf("expected Denied, got %v", got)
	}
}

func TestCheck_TransportErrorDenies(t *testing.T) {
	fb := &fakeBackend{checkErr: errors.New("boom")}
	g := NewGate(fb, nil, nil)
	if got := g.Check(context.Background(), "s1"); got != Denied {
		t.Fatalf("expected Denied on transport error, got %v", got)
	}
}

func TestAccept_UnlocksAndAnnounces(t *testing.T) {
	fb := &fakeBackend{accept: api.ConsentUpdate{Success: true}}
	var msgs []string
	g := NewGate(fb, nil, func(s string) { msgs = append(msgs, s) })
	if err := g.Accept(context.Background(), "s1"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if g.State() != Granted {
		t.Fatalf("expected Granted, got %v", g.State())
	}
	if len(msgs) != 1 || msgs[0] != "Consent accepted! You can now use the chatbot." {
		t.Fatalf("unexpected messages %v", msgs)
	}
}

func TestAccept_BackendErrorShownVerbatim(t *testing.T) {
	fb := &fakeBackend{accept: api.ConsentUpdate{Success: false, Error: "No session ID provided"}}
	var msgs []string
	g := NewGate(fb, nil, func(s string) { msgs = append(msgs, s) })
	if err := g.Accept(context.Background(), "s1"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if g.State() != Unknown {
		t.Fatalf("state must not change on failure, got %v", g.State())
	}
	if len(msgs) != 1 || msgs[0] != "No session ID provided" {
		t.Fatalf("expected verbatim backend error, got %v", msgs)
	}
}

func TestWithdraw_LocksGateAgain(t *testing.T) {
	fb := &fakeBackend{
		check:    api.ConsentCheck{CanProceed: true},
		withdraw: api.ConsentUpdate{Success: true},
		accept:   api.ConsentUpdate{Success: true},
	}
	var states []State
	g := NewGate(fb, func(s State) { states = append(states, s) }, nil)
	g.Check(context.Background(), "s1")
	if err := g.Withdraw(context.Background(), "s1"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if g.State() != Withdrawn || g.CanProceed() {
		t.Fatalf("expected Withdrawn, got %v", g.State())
	}
	if !g.Record().IsWithdrawn {
		t.Fatalf("cached record not updated")
	}
	// Re-enterable: accept flips back to Granted.
	if err := g.Accept(context.Background(), "s1"); err != nil {
		t.Fatalf("re-accept: %v", err)
	}
	if g.State() != Granted {
		t.Fatalf("expected Granted after re-accept, got %v", g.State())
	}
}

func TestView_RefreshesCachedRecord(t *testing.T) {
	fb := &fakeBackend{view: api.DataView{Success: true, Consent: api.ConsentRecord{HasConsent: true}}}
	g := NewGate(fb, nil, nil)
	view, err := g.View(context.Background(), "s1")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !view.Success || !g.Record().HasConsent {
		t.Fatalf("snapshot not cached: %+v", g.Record())
	}
}
