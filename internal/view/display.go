package view

import (
	"html/template"
	"sort"
)

// Region names a display target on the page. The value is the element id.
type Region string

const (
	CityName   Region = "city-name"
	RegionName Region = "region"
	Country    Region = "country"
	Coords     Region = "coordinates"
	Timezone   Region = "tz-id"
	LocalTime  Region = "local-time"

	Temperature   Region = "temperature"
	FeelsLike     Region = "feels-like"
	ConditionText Region = "condition-text"
	ConditionIcon Region = "condition-icon"
	Humidity      Region = "humidity"
	Wind          Region = "wind"
	Pressure      Region = "pressure"
	Visibility    Region = "visibility"
	UVIndex       Region = "uv-index"
	LastUpdated   Region = "last-updated"

	AirPM25 Region = "aqi-pm2-5"
	AirPM10 Region = "aqi-pm10"
	AirCO   Region = "aqi-co"
	AirNO2  Region = "aqi-no2"
	AirO3   Region = "aqi-o3"
	AirSO2  Region = "aqi-so2"
	AirEPA  Region = "aqi-epa"

	TodayHigh Region = "today-high"
	TodayLow  Region = "today-low"
	Forecast  Region = "forecast"
	Hourly    Region = "hourly"

	Sunrise          Region = "sunrise"
	Sunset           Region = "sunset"
	Moonrise         Region = "moonrise"
	Moonset          Region = "moonset"
	MoonPhase        Region = "moon-phase"
	MoonIllumination Region = "moon-illumination"

	Alerts Region = "alerts"
)

// Display is the rendered state of every region for one snapshot.
// The zero value is not usable; call NewDisplay.
type Display struct {
	text   map[Region]string
	markup map[Region]template.HTML
	images map[Region]string
	hidden map[Region]bool

	// Notice is an alert-style message shown above the dashboard.
	Notice string
}

func NewDisplay() *Display {
	return &Display{
		text:   make(map[Region]string),
		markup: make(map[Region]template.HTML),
		images: make(map[Region]string),
		hidden: make(map[Region]bool),
	}
}

func (d *Display) SetText(r Region, s string)          { d.text[r] = s }
func (d *Display) SetMarkup(r Region, h template.HTML) { d.markup[r] = h }
func (d *Display) SetImage(r Region, src string)       { d.images[r] = src }
func (d *Display) Hide(r Region)                       { d.hidden[r] = true }
func (d *Display) Show(r Region)                       { delete(d.hidden, r) }
func (d *Display) Text(r Region) string                { return d.text[r] }
func (d *Display) Markup(r Region) template.HTML       { return d.markup[r] }
func (d *Display) Image(r Region) string               { return d.images[r] }
func (d *Display) Hidden(r Region) bool                { return d.hidden[r] }

func (d *Display) HasText(r Region) bool {
	_, ok := d.text[r]
	return ok
}

// Rendered lists the regions that received content, sorted.
func (d *Display) Rendered() []Region {
	seen := make(map[Region]bool)
	for r := range d.text {
		seen[r] = true
	}
	for r := range d.markup {
		seen[r] = true
	}
	for r := range d.images {
		seen[r] = true
	}
	out := make([]Region, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy.
func (d *Display) Clone() *Display {
	c := NewDisplay()
	for k, v := range d.text {
		c.text[k] = v
	}
	for k, v := range d.markup {
		c.markup[k] = v
	}
	for k, v := range d.images {
		c.images[k] = v
	}
	for k, v := range d.hidden {
		c.hidden[k] = v
	}
	c.Notice = d.Notice
	return c
}
