package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"github.com/ritzau/coupling-analyzer/pkg/analysis"
	"github.com/ritzau/coupling-analyzer/pkg/graph"
	"github.com/ritzau/coupling-analyzer/pkg/lens"
	"github.com/ritzau/coupling-analyzer/pkg/logging"
	"github.com/ritzau/coupling-analyzer/pkg/pubsub"
)

//go:embed static/*
var staticFiles embed.FS

// AnalysisData is the overview returned by /api/analysis
type AnalysisData struct {
	Status      pubsub.AnalysisStatus `json:"status"`
	Ready       bool                  `json:"ready"`
	RunID       string                `json:"runId,omitempty"`
	Reason      string                `json:"reason,omitempty"`
	Project     string                `json:"project,omitempty"`
	Types       int                   `json:"types"`
	Methods     int                   `json:"methods"`
	Invocations int                   `json:"invocations"`
	Dropped     int                   `json:"dropped"`
	DurationMs  int64                 `json:"durationMs"`
	Written     []string              `json:"written"`
}

// CouplingData is a labelled square table. Rows[i][j] belongs to
// Labels[i] and Labels[j].
type CouplingData struct {
	Labels []string `json:"labels"`
	Rows   [][]int  `json:"rows"`
}

// CouplingView adds the strongest pairs to the symmetric table
type CouplingView struct {
	CouplingData
	Pairs []PairData `json:"pairs"`
}

// PairData is the coupling between two types
type PairData struct {
	A        string `json:"a"`
	B        string `json:"b"`
	Strength int    `json:"strength"`
	Forward  int    `json:"forward"`  // Calls from A to B
	Backward int    `json:"backward"` // Calls from B to A
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	publisher *pubsub.SSEPublisher

	mu     sync.RWMutex
	status pubsub.AnalysisStatus
	result *analysis.Result
}

// NewServer creates a new web server
func NewServer() *Server {
	// Status subscribers catch up on the current run, coupling on the last table
	ssePublisher := pubsub.NewSSEPublisher(pubsub.Topics())

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
		status:    pubsub.AnalysisStatus{State: "initializing", Message: "Waiting for analysis"},
	}
	s.setupRoutes()
	return s
}

// PublishStatus records and publishes an analysis status event
func (s *Server) PublishStatus(status pubsub.AnalysisStatus) error {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	return s.publisher.Publish(pubsub.TopicAnalysisStatus, status.RunID, status.State, status)
}

// SetResult stores the latest completed analysis and announces it
func (s *Server) SetResult(result *analysis.Result) {
	s.mu.Lock()
	s.result = result
	s.mu.Unlock()

	data := pubsub.CouplingData{
		RunID:    result.RunID,
		Types:    len(result.Table.Labels()),
		Pairs:    len(result.Table.Pairs()),
		Nodes:    len(result.Document.Nodes),
		Links:    len(result.Document.Links),
		Complete: true,
	}
	if err := s.publisher.Publish(pubsub.TopicCoupling, result.RunID, "ready", data); err != nil {
		logging.Warn("could not publish coupling event", "error", err)
	}
}

func (s *Server) current() (pubsub.AnalysisStatus, *analysis.Result) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.result
}

// Handler returns the HTTP handler with request logging
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

// Close ends all live subscriptions
func (s *Server) Close() error {
	return s.publisher.Close()
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoint
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	// API routes - more specific routes must come first
	s.router.HandleFunc("/api/analysis", s.handleAnalysis).Methods("GET")
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/graph/focus", s.handleGraphFocus).Methods("GET")
	s.router.HandleFunc("/api/coupling/raw", s.handleCouplingRaw).Methods("GET")
	s.router.HandleFunc("/api/coupling/{a}/{b}", s.handlePair).Methods("GET")
	s.router.HandleFunc("/api/coupling", s.handleCoupling).Methods("GET")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("could not encode response", "error", err)
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if !s.publisher.Has(topic) {
		http.Error(w, fmt.Sprintf("unknown topic %q", topic), http.StatusNotFound)
		return
	}

	// Create subscription
	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()
	logging.Debug("SSE client connected", "topic", topic, "subscribers", s.publisher.Subscribers(topic))

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*") // CORS support

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	// Stream events until the client leaves or the publisher closes
	for {
		select {
		case <-r.Context().Done():
			logging.Debug("SSE client left", "topic", topic)
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.Debug("SSE client gone", "topic", topic, "error", err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	status, result := s.current()

	data := AnalysisData{Status: status, Written: []string{}}
	if result != nil {
		data.Ready = true
		data.RunID = result.RunID
		data.Reason = result.Reason
		data.Project = result.Project.Name
		data.Types = len(result.Project.Types)
		data.Methods = len(result.Project.Methods())
		data.Invocations = result.Project.InvocationCount()
		data.Dropped = result.Matrix.Dropped()
		data.DurationMs = result.Duration.Milliseconds()
		if result.Written != nil {
			data.Written = result.Written
		}
	}

	writeJSON(w, data)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	_, result := s.current()

	if result == nil {
		writeJSON(w, graph.Document{Nodes: []graph.NodeRecord{}, Links: []graph.LinkRecord{}})
		return
	}
	writeJSON(w, result.Document)
}

// handleGraphFocus serves the neighbourhood of ?select= types or packages,
// up to ?depth= hops (default 1, -1 for all)
func (s *Server) handleGraphFocus(w http.ResponseWriter, r *http.Request) {
	_, result := s.current()
	if result == nil {
		http.Error(w, "Analysis not available", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()
	depth := 1
	if v := query.Get("depth"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid depth %q", v), http.StatusBadRequest)
			return
		}
		depth = d
	}

	view, err := lens.Focus(result.Graph, query["select"], depth)
	if errors.Is(err, lens.ErrNoSelection) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, view)
}

func (s *Server) handleCoupling(w http.ResponseWriter, r *http.Request) {
	_, result := s.current()

	view := CouplingView{
		CouplingData: CouplingData{Labels: []string{}, Rows: [][]int{}},
		Pairs:        []PairData{},
	}
	if result != nil {
		view.Labels = result.Table.Labels()
		view.Rows = result.Table.Rows()
		for _, p := range result.Table.Pairs() {
			view.Pairs = append(view.Pairs, pairData(result, p.A, p.B))
		}
	}

	writeJSON(w, view)
}

func (s *Server) handleCouplingRaw(w http.ResponseWriter, r *http.Request) {
	_, result := s.current()

	data := CouplingData{Labels: []string{}, Rows: [][]int{}}
	if result != nil {
		data.Labels = result.Matrix.Labels()
		for _, row := range data.Labels {
			counts := make([]int, len(data.Labels))
			for j, col := range data.Labels {
				counts[j] = result.Matrix.Count(row, col)
			}
			data.Rows = append(data.Rows, counts)
		}
	}

	writeJSON(w, data)
}

func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	_, result := s.current()
	if result == nil {
		http.Error(w, "Analysis not available", http.StatusServiceUnavailable)
		return
	}

	vars := mux.Vars(r)
	a, b := vars["a"], vars["b"]
	for _, label := range []string{a, b} {
		if !result.Matrix.Has(label) {
			http.Error(w, fmt.Sprintf("unknown type %q", label), http.StatusNotFound)
			return
		}
	}

	writeJSON(w, pairData(result, a, b))
}

func pairData(result *analysis.Result, a, b string) PairData {
	return PairData{
		A:        a,
		B:        b,
		Strength: result.Table.Coupling(a, b),
		Forward:  result.Matrix.Count(a, b),
		Backward: result.Matrix.Count(b, a),
	}
}

// Start starts the web server on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("Starting web server", "url", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, s.Handler())
}
