// Package api provides the morfem REST API server: parsing, label
// encoding/decoding, scoring, and dataset management over HTTP, with
// ingest progress streamed over WebSocket.
package api

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/glagol-nlp/morfem/internal/logging"
	"github.com/glagol-nlp/morfem/internal/store"
)

// Config holds the API server settings.
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Version        string
	DriverType     string
	IngestWorkers  int
	MaxLineBytes   int
}

// Server is the morfem HTTP API.
type Server struct {
	cfg     Config
	store   *store.Store
	hub     *Hub
	jobs    *JobStore
	started time.Time
}

// NewServer wires a server around an optional dataset store. With a
// nil store the dataset and job endpoints respond 503 while the pure
// computation endpoints stay available.
func NewServer(cfg Config, st *store.Store) *Server {
	return &Server{
		cfg:     cfg,
		store:   st,
		hub:     NewHub(),
		jobs:    NewJobStore(),
		started: time.Now(),
	}
}

// Handler builds the full middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/version", s.handleVersion)
	mux.HandleFunc("/parse", s.handleParse)
	mux.HandleFunc("/encode", s.handleEncode)
	mux.HandleFunc("/decode", s.handleDecode)
	mux.HandleFunc("/score", s.handleScore)
	mux.HandleFunc("/datasets", s.handleDatasets)
	mux.HandleFunc("/datasets/", s.handleDatasetByID)
	mux.HandleFunc("/jobs", s.handleJobs)
	mux.HandleFunc("/jobs/", s.handleJobByID)
	mux.HandleFunc("/ws", s.handleWebSocket)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	return requestLogging(c.Handler(mux))
}

// Start runs the hub and serves HTTP until the listener fails.
func (s *Server) Start() error {
	go s.hub.Run()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	logging.ServerStartup("rest_api", "http", s.cfg.Port,
		"host", s.cfg.Host,
		"sqlite_driver", s.cfg.DriverType,
		"websocket_protocol", "ws")

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	return srv.ListenAndServe()
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// requestLogging tags every request with an ID and logs method, path,
// status, and duration on completion.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithRequestID(r.Context(), uuid.NewString())
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(ctx))

		logging.HTTPRequestContext(ctx, r.Method, r.URL.Path, r.RemoteAddr,
			rec.status, time.Since(start))
	})
}
