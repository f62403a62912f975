package view

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/swelljoe/skywatch/internal/weather"
)

// MalformedDataError reports a snapshot section the renderer could not use.
type MalformedDataError struct {
	Section string
	Missing string
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("malformed %s data: missing %s", e.Section, e.Missing)
}

// Stage renders one section of a snapshot into the display.
type Stage struct {
	Name   string
	Render func(d *Display, s *weather.Snapshot) error
}

// Hook runs after every stage of a full update.
type Hook struct {
	Name string
	Run  func(ctx context.Context, s *weather.Snapshot) error
}

// Pipeline renders snapshots. Stages are independent: one failing section
// leaves its siblings intact.
type Pipeline struct {
	Stages []Stage
}

// NewPipeline returns the dashboard stages in page order. now is used for
// relative timestamps; nil means time.Now.
func NewPipeline(now func() time.Time) *Pipeline {
	if now == nil {
		now = time.Now
	}
	return &Pipeline{Stages: []Stage{
		{Name: "location", Render: renderLocation},
		{Name: "current", Render: func(d *Display, s *weather.Snapshot) error { return renderCurrent(d, s, now()) }},
		{Name: "air-quality", Render: renderAirQuality},
		{Name: "forecast", Render: renderForecast},
		{Name: "hourly", Render: renderHourly},
		{Name: "astronomy", Render: renderAstronomy},
		{Name: "alerts", Render: renderAlerts},
	}}
}

// Full reports whether a snapshot carries both location and current
// conditions. Only full updates trigger post-render hooks.
func Full(s *weather.Snapshot) bool {
	return s != nil && s.Location != nil && s.Current != nil
}

// Run renders every stage into a fresh display and then, for a full update,
// runs hooks in order. Stage and hook failures are logged.
func (p *Pipeline) Run(ctx context.Context, s *weather.Snapshot, hooks ...Hook) *Display {
	d := NewDisplay()
	if s == nil {
		s = &weather.Snapshot{}
	}

	for _, st := range p.Stages {
		if err := runStage(st, d, s); err != nil {
			log.Printf("view: stage %s: %v", st.Name, err)
		}
	}

	if !Full(s) {
		return d
	}
	for _, h := range hooks {
		if err := runHook(ctx, h, s); err != nil {
			log.Printf("view: hook %s: %v", h.Name, err)
		}
	}
	return d
}

func runStage(st Stage, d *Display, s *weather.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return st.Render(d, s)
}

func runHook(ctx context.Context, h Hook, s *weather.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Run(ctx, s)
}
