package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/DoyleJ11/yahtzee-backend/internal/archive"
	"github.com/DoyleJ11/yahtzee-backend/internal/hub"
	"github.com/DoyleJ11/yahtzee-backend/internal/ws"
)

type Deps struct {
	Hub     *hub.Hub
	Results ResultLister
	Logger  *zap.Logger
	WS      ws.Options
	// AllowedOrigins feeds the CORS policy. Defaults to any origin.
	AllowedOrigins []string
}

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Results == nil {
		d.Results = archive.Nop{}
	}
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = []string{"*"}
	}
	if d.WS.Logger == nil {
		d.WS.Logger = d.Logger
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Websocket handshakes are checked against WS.OriginPatterns instead.
	r.Get("/ws", ws.Handler(d.Hub, d.WS))

	r.Get("/healthz", Healthz)
	r.Get("/games/{code}", GetGame(d.Hub))
	r.Get("/stats", Stats(d.Hub))
	r.Get("/results", Results(d.Results))
	return r
}
