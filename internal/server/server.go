// Package server wires the annotation services, REST API, Datastar editor
// and static pages into one http.Handler.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/zerolog/log"

	"github.com/joeblew999/plat-annotate/internal/annotation"
	"github.com/joeblew999/plat-annotate/internal/api"
	"github.com/joeblew999/plat-annotate/internal/api/editor"
	"github.com/joeblew999/plat-annotate/internal/geocode"
	"github.com/joeblew999/plat-annotate/internal/humastar"
)

// Config holds the server configuration.
type Config struct {
	Host       string
	Port       string
	WebDir     string // Path to web/ directory for static files and templates
	GeocodeURL string // Nominatim-compatible search endpoint
}

// Server is the annotation HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	services *api.Services
	renderer *humastar.Renderer
}

// New creates a new annotation server.
func New(cfg Config) *Server {
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("plat-annotate API", "0.1.0")
	humaConfig.Info.Description = "Map annotation service: draw points, lines and polygons on an interactive map and manage the resulting features."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, humastar.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	// Shared in-memory state: one drawing surface, store, session and
	// selection for the whole page session.
	mirror := annotation.NewLayerMirror()
	bus := annotation.NewEventBus()
	store := annotation.NewFeatureStore(mirror, bus)
	services := &api.Services{
		Store:     store,
		Session:   annotation.NewDrawingSession(store, mirror, bus),
		Selection: annotation.NewSelection(store, bus),
		Surface:   mirror,
		Geocoder:  geocode.New(cfg.GeocodeURL),
		Bus:       bus,
	}

	var renderer *humastar.Renderer
	if cfg.WebDir != "" {
		fragmentsDir := filepath.Join(cfg.WebDir, "templates", "fragments")
		if r, err := humastar.NewRenderer(fragmentsDir); err == nil {
			renderer = r
			log.Info().Str("dir", fragmentsDir).Msg("Loaded fragment templates")
		} else {
			log.Warn().Err(err).Str("dir", fragmentsDir).Msg("Fragment templates unavailable, editor UI disabled")
		}
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		services: services,
		renderer: renderer,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI spec.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

func (s *Server) routes() {
	// REST API routes (OpenAPI-documented JSON endpoints)
	h := api.NewAPIHandler(s.services)
	h.RegisterHealth(s.humaAPI)
	h.RegisterFeatures(s.humaAPI)
	h.RegisterSession(s.humaAPI)
	h.RegisterSelection(s.humaAPI)
	h.RegisterGeocode(s.humaAPI)
	endpoint := s.config.GeocodeURL
	if endpoint == "" {
		endpoint = geocode.DefaultEndpoint
	}
	api.NewInfoHandler(endpoint).RegisterRoutes(s.humaAPI)

	// Editor SSE routes using Huma + Datastar SDK
	if s.renderer != nil {
		featureHandler := editor.NewFeatureHandler(s.services.Store, s.services.Selection, s.renderer)
		featureHandler.RegisterRoutes(s.humaAPI)

		sessionHandler := editor.NewSessionHandler(s.services.Session, s.services.Store, s.services.Selection, featureHandler)
		sessionHandler.RegisterRoutes(s.humaAPI)

		eventHandler := editor.NewEventHandler(s.services.Bus, s.services.Store, featureHandler)
		eventHandler.RegisterRoutes(s.humaAPI)

		searchHandler := editor.NewSearchHandler(s.services.Geocoder, s.services.Surface, s.renderer)
		searchHandler.RegisterRoutes(s.humaAPI)
	}

	// Hypermedia links, once every route exists.
	humastar.AutoLinks(s.humaAPI)

	// GeoJSON export of the live feature collection, for the map source
	// and for copy-paste into other tools.
	s.mux.HandleFunc("/api/v1/features.geojson", s.handleGeoJSON)

	// Static files and pages
	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	s.mux.HandleFunc("/annotator", s.handleAnnotator)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/geo+json")
	if err := json.NewEncoder(w).Encode(s.services.Store.Collection()); err != nil {
		log.Error().Err(err).Msg("GeoJSON encoding failed")
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	for _, link := range humastar.RootLinks() {
		w.Header().Add("Link", link)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-annotate",
		"status":  "running",
	})
}

func (s *Server) handleAnnotator(w http.ResponseWriter, r *http.Request) {
	templatePath := filepath.Join(s.config.WebDir, "templates", "annotator.html")
	http.ServeFile(w, r, templatePath)
}
