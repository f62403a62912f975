package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Placeholder is rendered for any missing value
const Placeholder = "--"

// FormatTemperature rounds half away from zero: 23.6 -> "24°C", -0.4 -> "0°C".
func FormatTemperature(c *float64) string {
	if c == nil || math.IsNaN(*c) {
		return Placeholder
	}
	return fmt.Sprintf("%d°C", roundInt(*c))
}

// FormatConcentration renders a pollutant concentration with one decimal.
func FormatConcentration(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func formatWithUnit(v *float64, unit string) string {
	if v == nil || math.IsNaN(*v) {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + unit
}

func formatPercent(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf("%d%%", roundInt(*v))
}

func formatChance(v *int) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf("%d%%", *v)
}

func formatWind(kph *float64, dir string) string {
	if kph == nil {
		return Placeholder
	}
	s := strconv.FormatFloat(*kph, 'f', -1, 64) + " km/h"
	if dir != "" {
		s += " " + dir
	}
	return s
}

func textOrPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

// NormalizeIconURL gives protocol-relative URLs ("//cdn...") an https scheme.
func NormalizeIconURL(src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}

// uvLabel follows the WHO UV index bands.
func uvLabel(uv float64) string {
	switch {
	case uv < 3:
		return "Low"
	case uv < 6:
		return "Moderate"
	case uv < 8:
		return "High"
	case uv < 11:
		return "Very High"
	default:
		return "Extreme"
	}
}

func formatUV(uv *float64) string {
	if uv == nil {
		return Placeholder
	}
	return fmt.Sprintf("%s (%s)", strconv.FormatFloat(*uv, 'f', -1, 64), uvLabel(*uv))
}

var epaLabels = map[int]string{
	1: "Good",
	2: "Moderate",
	3: "Unhealthy for Sensitive Groups",
	4: "Unhealthy",
	5: "Very Unhealthy",
	6: "Hazardous",
}

func formatEPA(idx *int) string {
	if idx == nil {
		return Placeholder
	}
	if label, ok := epaLabels[*idx]; ok {
		return fmt.Sprintf("%d (%s)", *idx, label)
	}
	return strconv.Itoa(*idx)
}
