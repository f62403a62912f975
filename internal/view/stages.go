package view

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/swelljoe/skywatch/internal/weather"
)

const hourlyWindow = 12

func renderLocation(d *Display, s *weather.Snapshot) error {
	loc := s.Location
	if loc == nil {
		return &MalformedDataError{Section: "location", Missing: "location"}
	}
	d.SetText(CityName, textOrPlaceholder(loc.Name))
	d.SetText(RegionName, textOrPlaceholder(loc.Region))
	d.SetText(Country, textOrPlaceholder(loc.Country))
	d.SetText(Coords, fmt.Sprintf("%.2f, %.2f", loc.Lat, loc.Lon))
	d.SetText(Timezone, textOrPlaceholder(loc.TzID))
	d.SetText(LocalTime, textOrPlaceholder(loc.Localtime))
	return nil
}

func renderCurrent(d *Display, s *weather.Snapshot, now time.Time) error {
	cur := s.Current
	if cur == nil {
		return &MalformedDataError{Section: "current", Missing: "current"}
	}
	d.SetText(Temperature, FormatTemperature(cur.TempC))
	d.SetText(FeelsLike, FormatTemperature(cur.FeelsLikeC))
	d.SetText(Humidity, formatPercent(cur.Humidity))
	d.SetText(Wind, formatWind(cur.WindKph, cur.WindDir))
	d.SetText(Pressure, formatWithUnit(cur.PressureMb, " mb"))
	d.SetText(Visibility, formatWithUnit(cur.VisKm, " km"))
	d.SetText(UVIndex, formatUV(cur.UV))

	if cur.LastUpdatedEpoch > 0 {
		d.SetText(LastUpdated, "Updated "+humanize.RelTime(time.Unix(cur.LastUpdatedEpoch, 0), now, "ago", "from now"))
	} else {
		d.SetText(LastUpdated, Placeholder)
	}

	if cur.Condition == nil {
		d.SetText(ConditionText, Placeholder)
		return &MalformedDataError{Section: "current", Missing: "condition"}
	}
	d.SetText(ConditionText, textOrPlaceholder(cur.Condition.Text))
	d.SetImage(ConditionIcon, NormalizeIconURL(cur.Condition.Icon))
	return nil
}

func renderAirQuality(d *Display, s *weather.Snapshot) error {
	if s.Current == nil || s.Current.AirQuality == nil {
		for _, r := range []Region{AirPM25, AirPM10, AirCO, AirNO2, AirO3, AirSO2, AirEPA} {
			d.SetText(r, Placeholder)
		}
		return &MalformedDataError{Section: "air quality", Missing: "air_quality"}
	}
	aq := s.Current.AirQuality
	d.SetText(AirPM25, FormatConcentration(aq.PM25))
	d.SetText(AirPM10, FormatConcentration(aq.PM10))
	d.SetText(AirCO, FormatConcentration(aq.CO))
	d.SetText(AirNO2, FormatConcentration(aq.NO2))
	d.SetText(AirO3, FormatConcentration(aq.O3))
	d.SetText(AirSO2, FormatConcentration(aq.SO2))
	d.SetText(AirEPA, formatEPA(aq.USEPAIndex))
	return nil
}

type dayCard struct {
	Label     string
	Icon      string
	Condition string
	High      string
	Low       string
	Rain      string
}

var forecastTmpl = template.Must(template.New("forecast").Parse(
	`{{range .}}<div class="forecast-day">` +
		`<div class="forecast-date">{{.Label}}</div>` +
		`{{if .Icon}}<img src="{{.Icon}}" alt="{{.Condition}}">{{end}}` +
		`<div class="forecast-condition">{{.Condition}}</div>` +
		`<div class="forecast-temps"><span class="high">{{.High}}</span> / <span class="low">{{.Low}}</span></div>` +
		`<div class="forecast-rain">Rain: {{.Rain}}</div>` +
		`</div>{{end}}`))

func renderForecast(d *Display, s *weather.Snapshot) error {
	if s.Forecast == nil || len(s.Forecast.ForecastDay) == 0 {
		d.SetText(TodayHigh, Placeholder)
		d.SetText(TodayLow, Placeholder)
		return &MalformedDataError{Section: "forecast", Missing: "forecastday"}
	}

	cards := make([]dayCard, 0, len(s.Forecast.ForecastDay))
	for i, fd := range s.Forecast.ForecastDay {
		card := dayCard{Label: dayLabel(fd.Date, i), Condition: Placeholder, High: Placeholder, Low: Placeholder, Rain: Placeholder}
		if fd.Day != nil {
			card.High = FormatTemperature(fd.Day.MaxTempC)
			card.Low = FormatTemperature(fd.Day.MinTempC)
			card.Rain = formatChance(fd.Day.DailyChanceOfRain)
			if fd.Day.Condition != nil {
				card.Condition = textOrPlaceholder(fd.Day.Condition.Text)
				card.Icon = NormalizeIconURL(fd.Day.Condition.Icon)
			}
		}
		cards = append(cards, card)
	}

	today := s.Forecast.ForecastDay[0].Day
	if today != nil {
		d.SetText(TodayHigh, FormatTemperature(today.MaxTempC))
		d.SetText(TodayLow, FormatTemperature(today.MinTempC))
	} else {
		d.SetText(TodayHigh, Placeholder)
		d.SetText(TodayLow, Placeholder)
	}

	html, err := execute(forecastTmpl, cards)
	if err != nil {
		return err
	}
	d.SetMarkup(Forecast, html)
	return nil
}

func dayLabel(date string, i int) string {
	if i == 0 {
		return "Today"
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return textOrPlaceholder(date)
	}
	return t.Format("Mon Jan 2")
}

type hourCell struct {
	Time      string
	Icon      string
	Condition string
	Temp      string
	Rain      string
}

var hourlyTmpl = template.Must(template.New("hourly").Parse(
	`{{range .}}<div class="hour">` +
		`<div class="hour-time">{{.Time}}</div>` +
		`{{if .Icon}}<img src="{{.Icon}}" alt="{{.Condition}}">{{end}}` +
		`<div class="hour-temp">{{.Temp}}</div>` +
		`<div class="hour-rain">{{.Rain}}</div>` +
		`</div>{{end}}`))

// renderHourly shows up to twelve hours starting at the location's current hour.
func renderHourly(d *Display, s *weather.Snapshot) error {
	if s.Forecast == nil || len(s.Forecast.ForecastDay) == 0 {
		return &MalformedDataError{Section: "hourly", Missing: "forecastday"}
	}

	var now int64
	if s.Location != nil {
		now = s.Location.LocaltimeEpoch
	}

	cells := make([]hourCell, 0, hourlyWindow)
	for _, fd := range s.Forecast.ForecastDay {
		for _, h := range fd.Hour {
			if h.TimeEpoch+3600 <= now || len(cells) == hourlyWindow {
				continue
			}
			cell := hourCell{Time: hourLabel(h.Time), Temp: FormatTemperature(h.TempC), Rain: formatChance(h.ChanceOfRain), Condition: Placeholder}
			if h.Condition != nil {
				cell.Condition = textOrPlaceholder(h.Condition.Text)
				cell.Icon = NormalizeIconURL(h.Condition.Icon)
			}
			cells = append(cells, cell)
		}
	}
	if len(cells) == 0 {
		d.Hide(Hourly)
		return nil
	}

	html, err := execute(hourlyTmpl, cells)
	if err != nil {
		return err
	}
	d.Show(Hourly)
	d.SetMarkup(Hourly, html)
	return nil
}

// hourLabel turns "2025-10-16 10:00" into "10:00".
func hourLabel(ts string) string {
	t, err := time.Parse("2006-01-02 15:04", ts)
	if err != nil {
		return textOrPlaceholder(ts)
	}
	return t.Format("15:04")
}

func renderAstronomy(d *Display, s *weather.Snapshot) error {
	if s.Forecast == nil || len(s.Forecast.ForecastDay) == 0 || s.Forecast.ForecastDay[0].Astro == nil {
		for _, r := range []Region{Sunrise, Sunset, Moonrise, Moonset, MoonPhase, MoonIllumination} {
			d.SetText(r, Placeholder)
		}
		return &MalformedDataError{Section: "astronomy", Missing: "astro"}
	}
	a := s.Forecast.ForecastDay[0].Astro
	d.SetText(Sunrise, textOrPlaceholder(a.Sunrise))
	d.SetText(Sunset, textOrPlaceholder(a.Sunset))
	d.SetText(Moonrise, textOrPlaceholder(a.Moonrise))
	d.SetText(Moonset, textOrPlaceholder(a.Moonset))
	d.SetText(MoonPhase, textOrPlaceholder(a.MoonPhase))
	if a.MoonIllumination != nil {
		d.SetText(MoonIllumination, strconv.Itoa(*a.MoonIllumination)+"%")
	} else {
		d.SetText(MoonIllumination, Placeholder)
	}
	return nil
}

var alertsTmpl = template.Must(template.New("alerts").Parse(
	`{{range .}}<div class="alert-item">` +
		`<h3>{{.Event}}</h3>` +
		`{{if .Headline}}<p class="alert-headline">{{.Headline}}</p>{{end}}` +
		`<p class="alert-meta">Severity: {{.Severity}} | Urgency: {{.Urgency}}</p>` +
		`{{if .Areas}}<p class="alert-areas">Areas: {{.Areas}}</p>{{end}}` +
		`<p class="alert-window">{{.Effective}} to {{.Expires}}</p>` +
		`{{if .Desc}}<p class="alert-desc">{{.Desc}}</p>{{end}}` +
		`{{if .Instruction}}<p class="alert-instruction">{{.Instruction}}</p>{{end}}` +
		`</div>{{end}}`))

// renderAlerts hides the region when there is nothing to show. Absent alerts
// are normal and not reported as malformed.
func renderAlerts(d *Display, s *weather.Snapshot) error {
	if s.Alerts == nil || len(s.Alerts.Alert) == 0 {
		d.Hide(Alerts)
		return nil
	}
	html, err := execute(alertsTmpl, s.Alerts.Alert)
	if err != nil {
		return err
	}
	d.Show(Alerts)
	d.SetMarkup(Alerts, html)
	return nil
}

func execute(t *template.Template, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing %s template: %w", t.Name(), err)
	}
	return template.HTML(buf.String()), nil
}
