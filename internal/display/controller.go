// Package display owns the strip buffer lifecycle: rendering accepted frames
// and escalating through the idle fallback policy when the host goes quiet.
package display

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/example/ambilight-rgbw/internal/frame"
	"github.com/example/ambilight-rgbw/internal/led"
)

// State enumerates controller states.
type State string

const (
	// Active: fresh frame data is on the strip.
	Active State = "active"
	// Ambient: no data for IdleTimeout; a warm fallback color is shown.
	Ambient State = "ambient"
	// Fading: no data for OffTimeout; brightness steps down to zero.
	Fading State = "fading"
	// Off: brightness hit zero. Nothing is pushed until data returns.
	Off State = "off"
)

const (
	MaxBrightness uint8 = 255

	DefaultIdleTimeout = 5 * time.Second
	DefaultOffTimeout  = 10 * time.Minute
	DefaultFadeStep    = 50 * time.Millisecond
)

// DefaultAmbient is the warm idle color (SaddleBrown), routed through white
// extraction like any received pixel.
var DefaultAmbient = frame.FromRGB(0x8B, 0x45, 0x13)

// Config carries the timeout policy. Zero fields take the defaults above.
type Config struct {
	IdleTimeout time.Duration
	OffTimeout  time.Duration
	FadeStep    time.Duration
	Ambient     frame.Color
	Now         func() time.Time
}

// Controller decides what the strip driver shows. It is driven from a single
// task: FrameAccepted when the decoder completes a frame, Tick on every idle
// poll. The mutex only guards the state/brightness snapshot read by the
// diagnostics endpoints.
type Controller struct {
	drv led.Driver
	buf *frame.Buffer

	idleTimeout time.Duration
	offTimeout  time.Duration
	fadeStep    time.Duration
	ambient     frame.Color
	now         func() time.Time

	lastFrame time.Time
	nextFade  time.Time

	mu         sync.RWMutex
	state      State
	brightness uint8
}

func NewController(drv led.Driver, buf *frame.Buffer, cfg Config) *Controller {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.OffTimeout <= 0 {
		cfg.OffTimeout = DefaultOffTimeout
	}
	if cfg.FadeStep <= 0 {
		cfg.FadeStep = DefaultFadeStep
	}
	if cfg.Ambient == (frame.Color{}) {
		cfg.Ambient = DefaultAmbient
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Controller{
		drv:         drv,
		buf:         buf,
		idleTimeout: cfg.IdleTimeout,
		offTimeout:  cfg.OffTimeout,
		fadeStep:    cfg.FadeStep,
		ambient:     cfg.Ambient,
		now:         cfg.Now,
		lastFrame:   cfg.Now(),
		state:       Active,
		brightness:  MaxBrightness,
	}
}

// SetDriver replaces the output sink. Used at composition time to interpose
// the diagnostics mirror; must be called before the first push.
func (c *Controller) SetDriver(d led.Driver) {
	c.drv = d
}

// FrameAccepted renders the buffer the decoder just filled. Any prior idle
// escalation (including an in-progress fade) is cancelled.
func (c *Controller) FrameAccepted() {
	c.setState(Active)
	c.setBrightness(MaxBrightness)
	c.lastFrame = c.now()
	c.nextFade = time.Time{}
	c.push()
}

// Tick evaluates the idle policy once. It is called on every poll with no
// byte available, so time-based transitions happen even while the decoder is
// starved of input.
func (c *Controller) Tick() {
	now := c.now()
	elapsed := now.Sub(c.lastFrame)

	switch {
	case elapsed > c.offTimeout:
		if c.Brightness() == 0 {
			c.setState(Off)
			return
		}
		// One step per fadeStep of wall time; sleeping here would stall
		// the byte poll.
		if !c.nextFade.IsZero() && now.Before(c.nextFade) {
			return
		}
		c.setState(Fading)
		c.setBrightness(c.Brightness() - 1)
		c.nextFade = now.Add(c.fadeStep)
		c.push()

	case elapsed > c.idleTimeout:
		c.setState(Ambient)
		c.buf.Fill(c.ambient)
		c.push()
	}
}

// Blank clears the strip, used at startup and on shutdown.
func (c *Controller) Blank() {
	c.buf.Clear()
	c.push()
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Brightness returns the current global brightness.
func (c *Controller) Brightness() uint8 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.brightness
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	if prev != s {
		log.Debug().Str("from", string(prev)).Str("to", string(s)).Msg("display state")
	}
}

func (c *Controller) setBrightness(b uint8) {
	c.mu.Lock()
	c.brightness = b
	c.mu.Unlock()
}

// push sends buffer and brightness to the driver as one frame. Both are
// final before the driver sees either.
func (c *Controller) push() {
	if err := c.drv.Write(c.buf.Colors(), c.Brightness()); err != nil {
		log.Warn().Err(err).Msg("strip write failed")
	}
}
