package capture

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSMicSource reads raw microphone audio from a websocket feed. The capture
// helper on the other end sends one binary message per platform buffer:
// FrameSize 32-bit float little-endian samples.
type WSMicSource struct {
	url string

	mu        sync.Mutex
	conn      *websocket.Conn
	frames    chan []float32
	connected bool
}

// NewWSMicSource creates a source for the given ws:// or wss:// URL.
func NewWSMicSource(url string) *WSMicSource {
	return &WSMicSource{url: url}
}

// Connect dials the audio feed and starts the reader.
func (s *WSMicSource) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("wsmic: already connected")
	}
	if s.url == "" {
		return fmt.Errorf("wsmic: source URL is empty")
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	log.Printf("wsmic: connecting to %s", s.url)
	conn, resp, err := dialer.Dial(s.url, nil)
	if err != nil {
		if resp != nil {
			log.Printf("wsmic: connection failed with status: %d", resp.StatusCode)
		}
		return fmt.Errorf("wsmic: failed to connect: %w", err)
	}

	s.conn = conn
	s.frames = make(chan []float32, 64)
	s.connected = true

	go s.readLoop(conn, s.frames)
	return nil
}

// Frames returns the channel of sample buffers for the current connection.
func (s *WSMicSource) Frames() <-chan []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Close releases the microphone feed. Safe to call more than once.
func (s *WSMicSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	s.connected = false
	return s.conn.Close()
}

func (s *WSMicSource) readLoop(conn *websocket.Conn, frames chan []float32) {
	defer close(frames)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			open := s.connected && s.conn == conn
			s.mu.Unlock()
			if open {
				log.Printf("wsmic: read error: %v", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		frame, err := decodeFloat32LE(data)
		if err != nil {
			log.Printf("wsmic: dropping malformed frame: %v", err)
			continue
		}
		select {
		case frames <- frame:
		default:
			log.Println("wsmic: frame buffer full, dropping packet")
		}
	}
}

// decodeFloat32LE converts little-endian IEEE 754 bytes to samples.
func decodeFloat32LE(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("payload length %d not a multiple of 4", len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out, nil
}
