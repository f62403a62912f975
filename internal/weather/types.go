package weather

// Snapshot is the parsed forecast.json response for one refresh.
// Sub-trees are pointers so a missing section can be told apart from a zero one.
type Snapshot struct {
	Location *Location `json:"location"`
	Current  *Current  `json:"current"`
	Forecast *Forecast `json:"forecast"`
	Alerts   *Alerts   `json:"alerts"`
}

type Location struct {
	Name           string  `json:"name"`
	Region         string  `json:"region"`
	Country        string  `json:"country"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	TzID           string  `json:"tz_id"`
	LocaltimeEpoch int64   `json:"localtime_epoch"`
	Localtime      string  `json:"localtime"`
}

type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

type Current struct {
	LastUpdatedEpoch int64       `json:"last_updated_epoch"`
	LastUpdated      string      `json:"last_updated"`
	TempC            *float64    `json:"temp_c"`
	FeelsLikeC       *float64    `json:"feelslike_c"`
	IsDay            int         `json:"is_day"`
	Condition        *Condition  `json:"condition"`
	WindKph          *float64    `json:"wind_kph"`
	WindDir          string      `json:"wind_dir"`
	PressureMb       *float64    `json:"pressure_mb"`
	Humidity         *float64    `json:"humidity"`
	Cloud            *float64    `json:"cloud"`
	VisKm            *float64    `json:"vis_km"`
	UV               *float64    `json:"uv"`
	AirQuality       *AirQuality `json:"air_quality"`
}

// Daytime reports whether the upstream flagged the observation as daytime.
func (c *Current) Daytime() bool {
	return c.IsDay == 1
}

type AirQuality struct {
	CO           *float64 `json:"co"`
	NO2          *float64 `json:"no2"`
	O3           *float64 `json:"o3"`
	SO2          *float64 `json:"so2"`
	PM25         *float64 `json:"pm2_5"`
	PM10         *float64 `json:"pm10"`
	USEPAIndex   *int     `json:"us-epa-index"`
	GBDefraIndex *int     `json:"gb-defra-index"`
}

type Forecast struct {
	ForecastDay []ForecastDay `json:"forecastday"`
}

type ForecastDay struct {
	Date      string `json:"date"`
	DateEpoch int64  `json:"date_epoch"`
	Day       *Day   `json:"day"`
	Astro     *Astro `json:"astro"`
	Hour      []Hour `json:"hour"`
}

type Day struct {
	MaxTempC          *float64   `json:"maxtemp_c"`
	MinTempC          *float64   `json:"mintemp_c"`
	AvgTempC          *float64   `json:"avgtemp_c"`
	MaxWindKph        *float64   `json:"maxwind_kph"`
	TotalPrecipMm     *float64   `json:"totalprecip_mm"`
	AvgHumidity       *float64   `json:"avghumidity"`
	DailyChanceOfRain *int       `json:"daily_chance_of_rain"`
	DailyChanceOfSnow *int       `json:"daily_chance_of_snow"`
	Condition         *Condition `json:"condition"`
	UV                *float64   `json:"uv"`
}

type Astro struct {
	Sunrise          string `json:"sunrise"`
	Sunset           string `json:"sunset"`
	Moonrise         string `json:"moonrise"`
	Moonset          string `json:"moonset"`
	MoonPhase        string `json:"moon_phase"`
	MoonIllumination *int   `json:"moon_illumination"`
}

type Hour struct {
	TimeEpoch    int64      `json:"time_epoch"`
	Time         string     `json:"time"`
	TempC        *float64   `json:"temp_c"`
	IsDay        int        `json:"is_day"`
	Condition    *Condition `json:"condition"`
	ChanceOfRain *int       `json:"chance_of_rain"`
}

type Alerts struct {
	Alert []Alert `json:"alert"`
}

type Alert struct {
	Headline    string `json:"headline"`
	Event       string `json:"event"`
	Severity    string `json:"severity"`
	Urgency     string `json:"urgency"`
	Areas       string `json:"areas"`
	Effective   string `json:"effective"`
	Expires     string `json:"expires"`
	Desc        string `json:"desc"`
	Instruction string `json:"instruction"`
}
