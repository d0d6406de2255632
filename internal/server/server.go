// package server contains middleware & handlers for the playlist relay API
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plzip/internal/services"
	"github.com/desertthunder/plzip/internal/shared"
	"github.com/desertthunder/plzip/internal/tasks"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, panic recovery, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the relay service.
// Implementations handle specific endpoints (search, download, health).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// NewHTTPServer creates an [http.Server] for addr with header and idle timeouts.
//
// Write timeout is left unset because archives are streamed for as long as the backend takes to build them.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// Options configures [New].
type Options struct {
	Validator      *tasks.LinkValidator
	Search         services.SearchGateway
	Download       services.DownloadGateway
	Messages       shared.Messages
	Logger         *log.Logger
	Version        string
	AllowedOrigins []string
	RateLimit      float64
	Burst          int
}

// New assembles the relay API: request ids, logging, panic recovery, CORS and rate limiting
// in front of the search, download and health routes.
func New(opts Options) *BasicRouter {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	r := NewBasicRouter()
	r.Use(
		RequestID(),
		Logger(logger),
		Recover(logger, opts.Messages),
		CORS(opts.AllowedOrigins),
	)
	r.Handler(NewHealthHandler(opts.Version))

	r.Use(RateLimit(opts.RateLimit, opts.Burst, opts.Messages))
	NewRelayHandler(opts.Validator, opts.Search, opts.Download, opts.Messages, logger).Register(r)
	return r
}
