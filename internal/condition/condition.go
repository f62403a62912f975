// Package condition buckets free-text weather descriptions into the fixed set
// of categories used to pick a background effect.
package condition

import "strings"

// Category is a weather bucket
type Category string

const (
	Clear        Category = "clear"
	Clouds       Category = "clouds"
	Rain         Category = "rain"
	Snow         Category = "snow"
	Mist         Category = "mist"
	Thunderstorm Category = "thunderstorm"
)

// Categories lists every category in classification order, with Clear last.
var Categories = []Category{Thunderstorm, Rain, Snow, Mist, Clouds, Clear}

// Order matters: the first group with a matching keyword wins, so
// "thundershowers" is a thunderstorm and not rain.
var keywordGroups = []struct {
	category Category
	keywords []string
}{
	{Thunderstorm, []string{"thunder", "lightning"}},
	{Rain, []string{"rain", "drizzle", "shower"}},
	{Snow, []string{"snow", "sleet", "blizzard"}},
	{Mist, []string{"mist", "fog", "haze"}},
	{Clouds, []string{"cloud", "overcast"}},
}

// Classify maps condition text such as "Patchy light rain with thunder" to a Category.
func Classify(text string) Category {
	lower := strings.ToLower(text)
	for _, group := range keywordGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.category
			}
		}
	}
	return Clear
}
