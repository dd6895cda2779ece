package tui

import "sync"

// ProgramView adapts the streaming consumer's rendering calls into bubbletea
// messages. The orchestrator runs on background goroutines, so every update
// travels through Send; messages posted before Attach are queued.
type ProgramView struct {
	mu      sync.Mutex
	send    func(msg any)
	pending []any
}

// NewProgramView returns an unattached view. Attach must be called before
// the program starts processing messages.
func NewProgramView() *ProgramView {
	return &ProgramView{}
}

// Attach wires the view to the running program's Send function and flushes
// anything queued.
func (v *ProgramView) Attach(send func(msg any)) {
	v.mu.Lock()
	v.send = send
	queued := v.pending
	v.pending = nil
	v.mu.Unlock()
	for _, msg := range queued {
		send(msg)
	}
}

// Post delivers an arbitrary message, queueing it while unattached. The
// orchestrator callbacks use it alongside the rendering calls below.
func (v *ProgramView) Post(msg any) { v.post(msg) }

func (v *ProgramView) post(msg any) {
	v.mu.Lock()
	send := v.send
	if send == nil {
		v.pending = append(v.pending, msg)
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()
	send(msg)
}

func (v *ProgramView) ShowThinking(id string) { v.post(ThinkingMsg{ID: id}) }

func (v *ProgramView) ShowAnswer(id string) { v.post(AnswerStartedMsg{ID: id}) }

func (v *ProgramView) AppendAnswer(id, chunk string) {
	v.post(AnswerChunkMsg{ID: id, Chunk: chunk})
}

func (v *ProgramView) RemoveAnswer(id string) { v.post(AnswerRemovedMsg{ID: id}) }

func (v *ProgramView) SetElapsed(id string, seconds float64, final bool) {
	v.post(ElapsedMsg{ID: id, Seconds: seconds, Final: final})
}

func (v *ProgramView) ClearElapsed(id string) { v.post(ElapsedClearedMsg{ID: id}) }

func (v *ProgramView) ShowFallback(text string) { v.post(FallbackMsg{Text: text}) }
