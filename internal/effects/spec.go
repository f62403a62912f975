package effects

import (
	"fmt"

	"github.com/swelljoe/skywatch/internal/condition"
)

// Spec describes a background effect for the browser-side shader library.
// Kind names the library constructor; Options are passed to it verbatim.
type Spec struct {
	Kind     string             `json:"kind"`
	Category condition.Category `json:"category"`
	IsDay    bool               `json:"is_day"`
	Options  map[string]any     `json:"options"`
	// Fallback holds the three gradient stops painted when the effect cannot run.
	Fallback [3]string `json:"fallback"`
}

func baseOptions() map[string]any {
	return map[string]any{
		"mouseControls": false,
		"touchControls": false,
		"gyroControls":  false,
		"minHeight":     200.0,
		"minWidth":      200.0,
		"scale":         1.0,
		"scaleMobile":   1.0,
	}
}

func withOptions(extra map[string]any) map[string]any {
	opts := baseOptions()
	for k, v := range extra {
		opts[k] = v
	}
	return opts
}

// SpecFor returns the effect for a category. Only clear and clouds change with
// the time of day.
func SpecFor(cat condition.Category, isDay bool) Spec {
	spec := Spec{Category: cat, IsDay: isDay}

	switch cat {
	case condition.Clouds:
		bg, fg, stop := 0x444444, 0x666666, "#444444"
		if isDay {
			bg, fg, stop = 0x999999, 0xcccccc, "#999999"
		}
		spec.Kind = "CLOUDS"
		spec.Options = withOptions(map[string]any{
			"speed":           2.5,
			"zoom":            1.0,
			"backgroundColor": bg,
			"color":           fg,
		})
		spec.Fallback = [3]string{stop, "#888888", "#aaaaaa"}

	case condition.Rain:
		spec.Kind = "LINES"
		spec.Options = withOptions(map[string]any{
			"color":           0x4a90e2,
			"backgroundColor": 0x3b4c6b,
			"lineWidth":       0.5,
			"distance":        20.0,
			"maxDistance":     30.0,
			"speed":           3.5,
		})
		spec.Fallback = [3]string{"#3b4c6b", "#4a90e2", "#5a7fa6"}

	case condition.Snow:
		spec.Kind = "BIRDS"
		spec.Options = withOptions(map[string]any{
			"quantity":        3.0,
			"speedcurve":      0.35,
			"color":           0xffffff,
			"backgroundColor": 0x8fa3d2,
			"separation":      80.0,
			"alignment":       20.0,
			"cohesion":        100.0,
		})
		spec.Fallback = [3]string{"#8fa3d2", "#b4c7e7", "#d4deef"}

	case condition.Thunderstorm:
		spec.Kind = "NET"
		spec.Options = withOptions(map[string]any{
			"color":           0xf4a460,
			"backgroundColor": 0x2c3e50,
			"points":          6.0,
			"maxDistance":     20.0,
			"spacing":         20.0,
			"speed":           5.0,
		})
		spec.Fallback = [3]string{"#2c3e50", "#8b4513", "#f4a460"}

	case condition.Mist:
		spec.Kind = "FOG"
		spec.Options = withOptions(map[string]any{
			"highlightColor": 0xe8d5b7,
			"midtoneColor":   0xb0a080,
			"lowlightColor":  0x807060,
			"baseColor":      0xfaf8f3,
			"speed":          3.0,
			"zoom":           1.0,
		})
		spec.Fallback = [3]string{"#faf8f3", "#d4ccc0", "#b0a080"}

	default:
		spec.Category = condition.Clear
		spec.Kind = "WAVES"
		spec.Fallback = [3]string{"#1a1a2e", "#0f3460", "#16213e"}
		color := 0x1a1a2e
		if isDay {
			spec.Fallback = [3]string{"#667eea", "#764ba2", "#ffd700"}
			color = 0x667eea
		}
		spec.Options = withOptions(map[string]any{
			"color":      color,
			"waveHeight": 20.0,
			"waveSpeed":  0.5,
			"zoom":       1.0,
		})
	}

	return spec
}

// GradientCSS renders three stops as the fallback background.
func GradientCSS(stops [3]string) string {
	return fmt.Sprintf("linear-gradient(135deg, %s 0%%, %s 50%%, %s 100%%)", stops[0], stops[1], stops[2])
}
