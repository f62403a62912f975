package effects

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
)

// Message is a command for the browser-side renderer
type Message struct {
	Type    string   `json:"type"`
	ID      uint64   `json:"id,omitempty"`
	Effect  *Spec    `json:"effect,omitempty"`
	CSS     *string  `json:"css,omitempty"`
	Value   *float64 `json:"value,omitempty"`
	Loading *bool    `json:"loading,omitempty"`
}

// Message types sent to the browser.
const (
	MsgEffect   = "effect"
	MsgDestroy  = "destroy"
	MsgPause    = "pause"
	MsgPlay     = "play"
	MsgResize   = "resize"
	MsgGradient = "gradient"
	MsgOpacity  = "opacity"
	MsgLoading  = "loading"
)

// Sink delivers messages to a connected page
type Sink interface {
	Send(msg Message) error
}

// Remote renders effects in the browser by sending commands through a Sink.
// Creation fails with ErrUnsupported when the sink is not connected or the
// page reported that WebGL is unavailable.
type Remote struct {
	sink Sink

	mu      sync.Mutex
	noWebGL bool
	nextID  uint64
}

func NewRemote(sink Sink) *Remote {
	return &Remote{sink: sink}
}

// SetWebGL records whether the page can run shader effects and reports
// whether that changed.
func (r *Remote) SetWebGL(ok bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := r.noWebGL == ok
	r.noWebGL = !ok
	return changed
}

func (r *Remote) Create(spec Spec) (Effect, error) {
	r.mu.Lock()
	if r.noWebGL {
		r.mu.Unlock()
		return nil, ErrUnsupported
	}
	r.nextID++
	id := r.nextID
	r.mu.Unlock()

	if r.sink == nil {
		return nil, ErrUnsupported
	}
	if err := r.sink.Send(Message{Type: MsgEffect, ID: id, Effect: &spec}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return &remoteEffect{id: id, sink: r.sink}, nil
}

// remoteEffect supports every optional capability.
type remoteEffect struct {
	id   uint64
	sink Sink
}

func (e *remoteEffect) send(kind string) error {
	return e.sink.Send(Message{Type: kind, ID: e.id})
}

// Destroy is a no-op once the page is gone; its effect went with it.
func (e *remoteEffect) Destroy() error {
	if err := e.send(MsgDestroy); err != nil && !errors.Is(err, ErrNotConnected) {
		return err
	}
	return nil
}

func (e *remoteEffect) Resize() error { return e.send(MsgResize) }
func (e *remoteEffect) Pause() error  { return e.send(MsgPause) }
func (e *remoteEffect) Play() error   { return e.send(MsgPlay) }

// Canvas is the page background layer. It remembers its state so a freshly
// rendered page can start from it, and mirrors changes to the sink when one
// is connected.
type Canvas struct {
	sink Sink

	mu         sync.Mutex
	background string
	opacity    float64
}

func NewCanvas(sink Sink) *Canvas {
	return &Canvas{sink: sink, opacity: 1}
}

func (c *Canvas) Paint(background string) {
	c.mu.Lock()
	c.background = background
	c.mu.Unlock()

	c.forward(Message{Type: MsgGradient, CSS: &background})
}

func (c *Canvas) SetOpacity(v float64) {
	c.mu.Lock()
	c.opacity = v
	c.mu.Unlock()

	c.forward(Message{Type: MsgOpacity, Value: &v})
}

func (c *Canvas) forward(msg Message) {
	if c.sink == nil {
		return
	}
	// A page that is not connected picks the state up on its next render.
	if err := c.sink.Send(msg); err != nil && !errors.Is(err, ErrNotConnected) {
		log.Printf("effects: canvas update dropped: %v", err)
	}
}

// Background returns the painted CSS background, "" when none.
func (c *Canvas) Background() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.background
}

func (c *Canvas) Opacity() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opacity
}

// Style returns the inline CSS for the layer element. A painted gradient
// fills the viewport behind the content.
func (c *Canvas) Style() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.background == "" {
		return ""
	}
	parts := []string{
		"background: " + c.background,
		"position: fixed",
		"top: 0",
		"left: 0",
		"width: 100%",
		"height: 100%",
		"z-index: 0",
	}
	if c.opacity != 1 {
		parts = append(parts, fmt.Sprintf("opacity: %g", c.opacity))
	}
	return strings.Join(parts, "; ")
}

// ErrNotConnected is returned by sinks with no page attached
var ErrNotConnected = errors.New("effects: page not connected")
