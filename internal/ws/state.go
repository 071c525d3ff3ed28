// Package ws mirrors strip output to websocket clients and serves the
// health endpoint. It observes the pipeline; it never feeds back into it.
package ws

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/example/ambilight-rgbw/internal/display"
	"github.com/example/ambilight-rgbw/internal/frame"
	"github.com/example/ambilight-rgbw/internal/layout"
	"github.com/example/ambilight-rgbw/internal/led"
	"github.com/example/ambilight-rgbw/internal/protocol"
)

type State struct {
	mu      sync.RWMutex
	strip   layout.Strip
	driver  string
	ctrl    *display.Controller
	dec     *protocol.Decoder
	start   time.Time
	frameID uint64
	clients map[*websocket.Conn]bool

	throttle time.Duration
	lastEmit time.Time
}

func NewState(strip layout.Strip, driver string, ctrl *display.Controller, dec *protocol.Decoder) *State {
	return &State{
		strip:    strip,
		driver:   driver,
		ctrl:     ctrl,
		dec:      dec,
		start:    time.Now(),
		clients:  map[*websocket.Conn]bool{},
		throttle: 50 * time.Millisecond, // ~20 FPS to clients
	}
}

// Mirror wraps a strip driver so every push is also broadcast to clients.
func (s *State) Mirror(d led.Driver) led.Driver {
	return &mirror{state: s, next: d}
}

type mirror struct {
	state *State
	next  led.Driver
}

func (m *mirror) Write(colors []frame.Color, brightness uint8) error {
	err := m.next.Write(colors, brightness)
	m.state.publish(colors, brightness)
	return err
}

func (m *mirror) Close() error {
	return m.next.Close()
}

func (s *State) publish(colors []frame.Color, brightness uint8) {
	s.mu.Lock()
	s.frameID++
	id := s.frameID
	now := time.Now()
	if len(s.clients) == 0 || s.lastEmit.Add(s.throttle).After(now) {
		s.mu.Unlock()
		return
	}
	s.lastEmit = now

	rgbw := make([]byte, len(colors)*4)
	for i, c := range colors {
		rgbw[i*4+0] = c.R
		rgbw[i*4+1] = c.G
		rgbw[i*4+2] = c.B
		rgbw[i*4+3] = c.W
	}
	type wsFrame struct {
		T          int64  `json:"t"`
		FrameID    uint64 `json:"frame_id"`
		Brightness uint8  `json:"brightness"`
		RGBW       string `json:"rgbw"`
	}
	b, _ := json.Marshal(wsFrame{
		T:          now.UnixNano(),
		FrameID:    id,
		Brightness: brightness,
		RGBW:       base64.StdEncoding.EncodeToString(rgbw),
	})
	for c := range s.clients {
		c.SetWriteDeadline(now.Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
	s.mu.Unlock()
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	s.sendTopology(conn)

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.start).Seconds(),
		"count":    s.strip.Count(),
		"driver":   s.driver,
	}
	s.mu.RUnlock()
	resp["state"] = string(s.ctrl.State())
	resp["brightness"] = s.ctrl.Brightness()
	resp["decoder"] = s.dec.Stats()
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) sendTopology(conn *websocket.Conn) {
	s.mu.RLock()
	top := map[string]any{
		"left":   s.strip.Left,
		"top":    s.strip.Top,
		"right":  s.strip.Right,
		"count":  s.strip.Count(),
		"driver": s.driver,
	}
	s.mu.RUnlock()
	b, _ := json.Marshal(top)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}
