package playback

import (
	"fmt"
	"log"
	"sync"
)

// Handle is a transient platform resource backing one loaded clip.
type Handle interface {
	// Play begins playback and arranges for onDone to run on natural completion.
	Play(onDone func()) error
	// Pause halts playback immediately.
	Pause()
	// Rewind seeks back to position zero.
	Rewind()
	// Release frees the resource. The Controller guarantees it is called
	// exactly once per handle.
	Release()
}

// Device opens clips into playable handles (e.g. an audio element factory).
type Device interface {
	Open(wavBytes []byte) (Handle, error)
}

// Controller enforces that at most one synthesized-speech clip plays at a
// time. Starting a new clip pauses and rewinds the current one; the old
// handle is released once the new clip finishes or is itself superseded.
type Controller struct {
	device Device

	mu         sync.Mutex
	current    *slot
	superseded *slot
}

type slot struct {
	h       Handle
	release sync.Once
}

func (s *slot) free() {
	s.release.Do(s.h.Release)
}

// NewController wraps the given device.
func NewController(device Device) *Controller {
	return &Controller{device: device}
}

// Playing reports whether a clip is currently in the playing slot.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Play loads the WAV bytes and starts exclusive playback.
func (c *Controller) Play(wavBytes []byte) error {
	c.mu.Lock()
	if c.current != nil {
		c.current.h.Pause()
		c.current.h.Rewind()
		if c.superseded != nil {
			c.superseded.free()
		}
		c.superseded = c.current
		c.current = nil
	}
	c.mu.Unlock()

	h, err := c.device.Open(wavBytes)
	if err != nil {
		return fmt.Errorf("playback: open clip: %w", err)
	}
	s := &slot{h: h}

	c.mu.Lock()
	c.current = s
	c.mu.Unlock()

	if err := h.Play(func() { c.finished(s) }); err != nil {
		c.mu.Lock()
		if c.current == s {
			c.current = nil
		}
		c.mu.Unlock()
		s.free()
		return fmt.Errorf("playback: start clip: %w", err)
	}
	return nil
}

// finished runs when a clip completes naturally: its handle is freed, and so
// is any handle it had superseded.
func (c *Controller) finished(s *slot) {
	c.mu.Lock()
	if c.current == s {
		c.current = nil
	}
	sup := c.superseded
	c.superseded = nil
	c.mu.Unlock()

	s.free()
	if sup != nil {
		sup.free()
	}
}

// Stop halts and frees everything. Used when consent is withdrawn or a
// recording needs the audio path to itself.
func (c *Controller) Stop() {
	c.mu.Lock()
	cur := c.current
	sup := c.superseded
	c.current = nil
	c.superseded = nil
	c.mu.Unlock()

	if cur != nil {
		cur.h.Pause()
		cur.h.Rewind()
		cur.free()
	}
	if sup != nil {
		sup.free()
	}
	if cur != nil || sup != nil {
		log.Println("playback: stopped")
	}
}
