package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/swelljoe/skywatch/internal/dashboard"
	"github.com/swelljoe/skywatch/internal/location"
	"github.com/swelljoe/skywatch/internal/view"
	"github.com/swelljoe/skywatch/internal/weather"
)

const visitorCookie = "skywatch_visitor"

// Database defines the interface for database operations needed by handlers
type Database interface {
	Ping() error
}

// Options configures Handlers
type Options struct {
	TemplatesDir string
	// IPLookupURL enables IP geolocation on page load when set.
	IPLookupURL string
}

// Handlers holds dependencies for HTTP handlers
type Handlers struct {
	db          Database
	svc         *dashboard.Service
	templates   *template.Template
	ipLookupURL string
}

// New creates a new Handlers instance. database may be nil.
func New(database Database, svc *dashboard.Service, opts Options) *Handlers {
	dir := opts.TemplatesDir
	if dir == "" {
		dir = "templates"
	}
	tmpl, err := template.ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		log.Printf("Warning: Failed to parse templates: %v", err)
		tmpl = template.Must(template.New("fallback").Parse(fallbackTemplates))
	}

	return &Handlers{
		db:          database,
		svc:         svc,
		templates:   tmpl,
		ipLookupURL: opts.IPLookupURL,
	}
}

// pageData is what the page and fragment templates render
type pageData struct {
	Display    *view.Display
	Background template.CSS
	Loading    bool
	Query      string
}

func newPageData(sess *dashboard.Session, d *view.Display, query string) pageData {
	return pageData{
		Display: d,
		// Built from fixed palettes, never from request input.
		Background: template.CSS(sess.Canvas.Style()),
		Loading:    sess.Loading(),
		Query:      query,
	}
}

// visitor returns the visitor id, issuing a cookie on first visit.
func visitor(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitorCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// HandleIndex renders the dashboard for the visitor's resolved location
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	id := visitor(w, r)
	sess := h.svc.Sessions.Get(id)
	geo := location.Live(location.Position{}, h.ipLookupURL, r.RemoteAddr)
	d, err := h.svc.Locate(r.Context(), sess, geo)
	if err != nil {
		log.Printf("Index refresh failed: %v", err)
	}

	h.render(w, http.StatusOK, "index.html", newPageData(sess, d, h.svc.LastCity(r.Context(), id)))
}

// HandleWeather refreshes for a searched city and returns the weather fragment
func (h *Handlers) HandleWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	sess := h.svc.Sessions.Get(visitor(w, r))

	d, err := h.svc.Search(r.Context(), sess, q)
	h.render(w, statusFor(err), "weather_fragment", newPageData(sess, d, q))
}

// HandleLocate refreshes for the position the browser reported
func (h *Handlers) HandleLocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sess := h.svc.Sessions.Get(visitor(w, r))
	pos := location.PositionFromForm(r.PostForm.Get("lat"), r.PostForm.Get("lon"), r.PostForm.Get("denied"))
	geo := location.Live(pos, h.ipLookupURL, r.RemoteAddr)

	d, err := h.svc.Locate(r.Context(), sess, geo)
	h.render(w, statusFor(err), "weather_fragment", newPageData(sess, d, ""))
}

func statusFor(err error) int {
	var fe *weather.FetchError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, dashboard.ErrEmptySearch):
		return http.StatusBadRequest
	case errors.As(err, &fe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) render(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error executing template %s: %v", name, err)
	}
}

// HandleHealth handles health check endpoint
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ok"
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			status = "degraded"
		}
	} else {
		status = "no_database"
	}

	resp := map[string]any{
		"status":   status,
		"sessions": h.svc.Sessions.Len(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Response write error: %v", err)
	}
}

// fallbackTemplates keep the service usable when the templates directory is missing.
const fallbackTemplates = `{{define "index.html"}}<!DOCTYPE html>
<html>
<head>
	<title>SkyWatch</title>
</head>
<body>
	<div id="vanta-bg"{{if .Background}} style="{{.Background}}"{{end}}></div>
	<h1>SkyWatch</h1>
	<p>Weather dashboard - templates not loaded</p>
	<div id="weather">{{template "weather_fragment" .}}</div>
</body>
</html>{{end}}
{{define "weather_fragment"}}{{with .Display}}{{if .Notice}}<div class="notice" role="alert">{{.Notice}}</div>{{end}}
<h2 id="city-name">{{.Text "city-name"}}</h2>
<p><span id="temperature">{{.Text "temperature"}}</span> <span id="condition-text">{{.Text "condition-text"}}</span></p>{{end}}{{end}}`
