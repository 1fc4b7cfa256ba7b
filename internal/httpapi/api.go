package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"filogate.org/internal/auth"
	"filogate.org/internal/obs"
)

// ReadyProbe reports dependency readiness, typically a DB ping.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options carries the HTTP layer's wiring knobs.
type Options struct {
	ReadyProbe ReadyProbe
	Version    string
	// APIKeys maps service names to shared keys for machine callers.
	APIKeys        map[string]string
	MaxBodyBytes   int64
	RateLimitRPS   float64
	RateLimitBurst int
}

// API is the HTTP layer over the auth service.
type API struct {
	mux      *http.ServeMux
	svc      *auth.Service
	validate *validator.Validate

	readyProbe ReadyProbe
	version    string
	apiKeys    map[string]string

	maxBodyBytes   int64
	rateLimitRPS   float64
	rateLimitBurst int
}

func New(svc *auth.Service, opts Options) *API {
	a := &API{
		mux:            http.NewServeMux(),
		svc:            svc,
		validate:       validator.New(),
		readyProbe:     opts.ReadyProbe,
		version:        opts.Version,
		apiKeys:        opts.APIKeys,
		maxBodyBytes:   opts.MaxBodyBytes,
		rateLimitRPS:   opts.RateLimitRPS,
		rateLimitBurst: opts.RateLimitBurst,
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = 1 << 20
	}
	if a.rateLimitRPS <= 0 {
		a.rateLimitRPS = 50
	}
	if a.rateLimitBurst <= 0 {
		a.rateLimitBurst = 100
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// session lifecycle
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/me", a.handleMe)

	// permission administration
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)
	a.mux.HandleFunc("/v1/access-rights/", a.handleAccessRightResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found")
	})

	return a
}

// Handler composes the middleware chain around the mux. Order matters:
// metrics wrap everything, authentication runs last so rejected
// requests still get logged and counted.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = RateLimit(h, a.rateLimitBurst, a.rateLimitRPS)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = Logging(h)
	h = RequestID(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "filogate-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "filogate-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
