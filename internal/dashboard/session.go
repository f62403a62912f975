// Package dashboard ties a visitor's page to the refresh pipeline: one
// session per visitor holding the current snapshot, its rendered display and
// the effect controller driving the page background.
package dashboard

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/swelljoe/skywatch/internal/effects"
	"github.com/swelljoe/skywatch/internal/view"
	"github.com/swelljoe/skywatch/internal/weather"
)

// Conn is the write side of a page's effect socket.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Session is one visitor's dashboard state.
type Session struct {
	ID string

	mu       sync.Mutex
	display  *view.Display
	snapshot *weather.Snapshot
	loading  bool
	lastSeen time.Time

	// wmu serialises socket writes. It is never held while calling into
	// the effect controller.
	wmu  sync.Mutex
	conn Conn

	Remote  *effects.Remote
	Canvas  *effects.Canvas
	Effects *effects.Controller
}

func newSession(id string, fc effects.FlickerConfig) *Session {
	s := &Session{ID: id, lastSeen: time.Now()}
	s.Remote = effects.NewRemote(s)
	s.Canvas = effects.NewCanvas(s)
	s.Effects = effects.NewController(s.Remote, s.Canvas, fc)
	return s
}

// Send writes a message to the attached page.
func (s *Session) Send(msg effects.Message) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if s.conn == nil {
		return effects.ErrNotConnected
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write %s: %w", msg.Type, err)
	}
	return nil
}

// SetLoading records the loading flag and mirrors it to the page.
func (s *Session) SetLoading(on bool) {
	s.mu.Lock()
	s.loading = on
	s.mu.Unlock()

	if err := s.Send(effects.Message{Type: effects.MsgLoading, Loading: &on}); err != nil && !errors.Is(err, effects.ErrNotConnected) {
		log.Printf("dashboard: session %s: loading update dropped: %v", s.ID, err)
	}
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Display returns the last rendered display, or an empty one before the
// first refresh. Callers must not modify it.
func (s *Session) Display() *view.Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.display == nil {
		return view.NewDisplay()
	}
	return s.display
}

// Snapshot returns the current snapshot, nil before the first success.
func (s *Session) Snapshot() *weather.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *Session) store(snap *weather.Snapshot, d *view.Display) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	s.display = d
}

// showMessage keeps the previous display and replaces the primary field.
// The snapshot is left untouched.
func (s *Session) showMessage(msg, notice string) *view.Display {
	s.mu.Lock()
	defer s.mu.Unlock()

	var d *view.Display
	if s.display != nil {
		d = s.display.Clone()
	} else {
		d = view.NewDisplay()
		d.Hide(view.Hourly)
		d.Hide(view.Alerts)
	}
	d.SetText(view.CityName, msg)
	d.Notice = notice
	s.display = d
	return d
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Attach connects a page socket, replacing any previous one, and replays the
// active effect so the page starts in sync.
func (s *Session) Attach(conn Conn) {
	s.wmu.Lock()
	old := s.conn
	s.conn = conn
	s.wmu.Unlock()

	if old != nil && old != conn {
		old.Close()
	}
	s.replay()
}

// Detach disconnects conn if it is still the attached socket. The active
// effect falls back to its gradient so the next page render shows it.
func (s *Session) Detach(conn Conn) {
	s.wmu.Lock()
	if s.conn != conn {
		s.wmu.Unlock()
		return
	}
	s.conn = nil
	s.wmu.Unlock()

	s.replay()
}

// Connected reports whether a page socket is attached.
func (s *Session) Connected() bool {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn != nil
}

// SetWebGL records the page's shader support and rebuilds the active effect
// when it changes.
func (s *Session) SetWebGL(ok bool) {
	if s.Remote.SetWebGL(ok) {
		s.replay()
	}
}

func (s *Session) replay() {
	if state, ok := s.Effects.Active(); ok {
		s.Effects.Apply(state.Category, state.IsDay)
	}
}

// close tears the session down for good.
func (s *Session) close() {
	s.wmu.Lock()
	conn := s.conn
	s.conn = nil
	s.wmu.Unlock()

	if conn != nil {
		conn.Close()
	}
	s.Effects.Destroy()
}
