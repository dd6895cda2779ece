package playback

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
)

// ExecDevice plays clips through an external command (aplay, afplay, paplay).
// Each clip is written to a temp file and handed to the player as its single
// argument.
type ExecDevice struct {
	Command string
}

// NewExecDevice wraps the given player command.
func NewExecDevice(command string) *ExecDevice {
	return &ExecDevice{Command: command}
}

// Open writes the clip to a temp file and returns a handle around it.
func (d *ExecDevice) Open(wavBytes []byte) (Handle, error) {
	if d.Command == "" {
		return nil, fmt.Errorf("playback: no player command configured")
	}
	f, err := os.CreateTemp("", "clip-*.wav")
	if err != nil {
		return nil, fmt.Errorf("playback: temp file: %w", err)
	}
	if _, err := f.Write(wavBytes); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("playback: write clip: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("playback: close clip: %w", err)
	}
	return &execHandle{command: d.Command, path: f.Name()}, nil
}

type execHandle struct {
	command string
	path    string

	mu  sync.Mutex
	cmd *exec.Cmd
}

func (h *execHandle) Play(onDone func()) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	cmd := exec.Command(h.command, h.path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("playback: start %s: %w", h.command, err)
	}
	h.cmd = cmd
	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		finished := h.cmd == cmd
		if finished {
			h.cmd = nil
		}
		h.mu.Unlock()
		if err != nil && finished {
			log.Printf("playback: player exited: %v", err)
		}
		if finished && onDone != nil {
			onDone()
		}
	}()
	return nil
}

func (h *execHandle) Pause() {
	h.mu.Lock()
	cmd := h.cmd
	h.cmd = nil
	h.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// Rewind is a no-op: the player process always starts from the beginning and
// a paused handle is never resumed by the controller.
func (h *execHandle) Rewind() {}

func (h *execHandle) Release() {
	h.Pause()
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		log.Printf("playback: remove clip file: %v", err)
	}
}
