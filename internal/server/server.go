package server

import (
	"context"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jpalmerr/cadenceboard/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "CadenceBoard"

	// defaultFreshThreshold is the data age below which a snapshot is fresh.
	defaultFreshThreshold = 10 * time.Second

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Config holds the server settings that are not collaborators.
type Config struct {
	// Port is the TCP port to listen on. 0 lets the OS pick one.
	Port int

	// Title replaces {{.Title}} in the dashboard page.
	Title string

	// Assets holds assets/index.html and the static files. May be nil.
	Assets fs.FS

	// LogFile is served by /api/log. Empty disables the log view.
	LogFile string

	// FreshThreshold decides is_fresh in /api/data. Defaults to 10s.
	FreshThreshold time.Duration

	// Pulse counts one wheel rotation. When nil, /api/pulse answers 404.
	Pulse func()
}

// Server handles HTTP requests for the ride dashboard and its JSON API.
//
// Routes:
//   - GET /: the embedded dashboard page
//   - GET /static/...: dashboard script and stylesheet
//   - GET /api/data: latest snapshot plus data_age and is_fresh
//   - POST /api/reset: asks the calculator to start a new session
//   - GET /api/status: online/slow/offline classification of the data
//   - GET /api/log: tail of the server log file
//   - POST /api/pulse: counts one wheel rotation
//   - GET /api/sse: Server-Sent Events stream of saved snapshots
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	resetFlag  *store.ResetFlag
	cfg        Config
	httpServer *http.Server
	router     *mux.Router
	logger     *slog.Logger
	now        func() time.Time
}

// NewServer creates a new HTTP [Server] serving snapshots from st and
// writing reset requests to flag.
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, flag *store.ResetFlag, cfg Config, logger *slog.Logger) *Server {
	if cfg.FreshThreshold <= 0 {
		cfg.FreshThreshold = defaultFreshThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:     st,
		resetFlag: flag,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
	s.router = s.routes()
	return s
}

// Handler returns the server's router, for mounting under another server
// or in tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware, s.logMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/data", s.handleData).Methods(http.MethodGet)
	api.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/log", s.handleLog).Methods(http.MethodGet)
	api.HandleFunc("/pulse", s.handlePulse).Methods(http.MethodPost)
	api.HandleFunc("/sse", s.handleSSE).Methods(http.MethodGet)

	r.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	if s.cfg.Assets != nil {
		if static, err := fs.Sub(s.cfg.Assets, "assets"); err == nil {
			r.PathPrefix("/static/").Handler(
				http.StripPrefix("/static/", http.FileServer(http.FS(static))),
			).Methods(http.MethodGet)
		}
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Page not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.cfg.Port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE streams end on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	s.logger.Info("web server started",
		"addr", ln.Addr().String(),
		"data_file_exists", s.store.Exists(),
	)

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// recoverMiddleware turns handler panics into a JSON 500 and logs them with
// a correlation id.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("handler panic recovered",
					"correlation_id", uuid.New().String(),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// read index.html from embedded assets
	content, err := fs.ReadFile(s.cfg.Assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.cfg.Title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}
