// Package effects owns the animated page background: exactly one effect per
// controller, torn down before its replacement is created, with a static
// gradient when the renderer cannot run.
package effects

import (
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/swelljoe/skywatch/internal/condition"
)

// ErrUnsupported is returned by renderers that cannot draw effects
var ErrUnsupported = errors.New("effects: rendering not supported")

// Effect is a live background animation.
type Effect interface {
	Destroy() error
}

// Resizable effects follow viewport changes
type Resizable interface {
	Effect
	Resize() error
}

// Pausable effects can be suspended while the page is hidden
type Pausable interface {
	Effect
	Pause() error
	Play() error
}

// Renderer constructs effects
type Renderer interface {
	Create(spec Spec) (Effect, error)
}

// Layer is the background surface behind the page.
type Layer interface {
	// Paint fills the layer with a CSS background; "" clears it.
	Paint(background string)
	SetOpacity(v float64)
}

// State describes the active effect
type State struct {
	Category condition.Category `json:"category"`
	IsDay    bool               `json:"is_day"`
	Fallback bool               `json:"fallback"`
}

// FlickerConfig controls the thunderstorm lightning flicker
type FlickerConfig struct {
	Interval    time.Duration
	Probability float64
	Rand        func() float64
}

// DefaultFlicker strikes with 30% probability every 500ms.
var DefaultFlicker = FlickerConfig{Interval: 500 * time.Millisecond, Probability: 0.3}

// Controller holds the single active effect.
type Controller struct {
	mu       sync.Mutex
	renderer Renderer
	layer    Layer
	flicker  FlickerConfig

	current Effect
	state   State
	hidden  bool
	stop    chan struct{}
}

// NewController returns a controller in the uninitialized state.
func NewController(r Renderer, layer Layer, fc FlickerConfig) *Controller {
	if fc.Interval <= 0 {
		fc.Interval = DefaultFlicker.Interval
	}
	if fc.Rand == nil {
		fc.Rand = rand.Float64
	}
	return &Controller{renderer: r, layer: layer, flicker: fc}
}

// Apply replaces the active effect with the one for cat and isDay.
func (c *Controller) Apply(cat condition.Category, isDay bool) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardown()

	spec := SpecFor(cat, isDay)
	eff, err := c.create(spec)
	if err != nil {
		log.Printf("effects: %s effect unavailable, using gradient: %v", spec.Category, err)
		g := &Gradient{Stops: spec.Fallback, layer: c.layer}
		g.paint()
		c.current = g
		c.state = State{Category: spec.Category, IsDay: isDay, Fallback: true}
		return c.state
	}

	c.current = eff
	c.state = State{Category: spec.Category, IsDay: isDay}

	if spec.Category == condition.Thunderstorm && c.layer != nil {
		c.stop = make(chan struct{})
		go c.runFlicker(eff, c.stop)
	}
	if c.hidden {
		pause(eff)
	}
	return c.state
}

func (c *Controller) create(spec Spec) (eff Effect, err error) {
	if c.renderer == nil {
		return nil, ErrUnsupported
	}
	defer func() {
		if r := recover(); r != nil {
			eff, err = nil, errors.New("effects: renderer panicked")
			log.Printf("effects: renderer panic: %v", r)
		}
	}()
	eff, err = c.renderer.Create(spec)
	if err == nil && eff == nil {
		err = ErrUnsupported
	}
	return eff, err
}

// teardown destroys the current effect. Callers hold c.mu.
func (c *Controller) teardown() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	if c.current == nil {
		return
	}
	if err := c.current.Destroy(); err != nil {
		log.Printf("effects: destroy %s: %v", c.state.Category, err)
	}
	c.current = nil
	c.state = State{}
}

// Destroy tears down the active effect and returns to the uninitialized state.
func (c *Controller) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardown()
}

// Active reports the current effect, if any.
func (c *Controller) Active() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.current != nil
}

// SetHidden pauses the effect while the page is hidden and resumes it when visible.
func (c *Controller) SetHidden(hidden bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hidden = hidden
	if c.current == nil {
		return
	}
	if hidden {
		pause(c.current)
	} else {
		play(c.current)
	}
}

// Resize forwards a viewport change to the effect when it supports it.
func (c *Controller) Resize() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.current.(Resizable); ok {
		if err := r.Resize(); err != nil {
			log.Printf("effects: resize: %v", err)
		}
	}
}

func (c *Controller) isCurrent(eff Effect) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current == eff
}

func pause(eff Effect) {
	if p, ok := eff.(Pausable); ok {
		if err := p.Pause(); err != nil {
			log.Printf("effects: pause: %v", err)
		}
	}
}

func play(eff Effect) {
	if p, ok := eff.(Pausable); ok {
		if err := p.Play(); err != nil {
			log.Printf("effects: play: %v", err)
		}
	}
}

// Gradient is the static fallback background. It has no optional capabilities.
type Gradient struct {
	Stops [3]string
	layer Layer
}

// CSS returns the gradient as a CSS background value
func (g *Gradient) CSS() string {
	return GradientCSS(g.Stops)
}

func (g *Gradient) paint() {
	if g.layer != nil {
		g.layer.Paint(g.CSS())
	}
}

func (g *Gradient) Destroy() error {
	if g.layer != nil {
		g.layer.Paint("")
	}
	return nil
}
