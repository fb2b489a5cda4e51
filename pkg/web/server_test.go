package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ritzau/coupling-analyzer/pkg/analysis"
	"github.com/ritzau/coupling-analyzer/pkg/config"
	"github.com/ritzau/coupling-analyzer/pkg/graph"
	"github.com/ritzau/coupling-analyzer/pkg/lens"
	"github.com/ritzau/coupling-analyzer/pkg/model"
	"github.com/ritzau/coupling-analyzer/pkg/pubsub"
)

type staticSource struct {
	project *model.Project
}

func (s staticSource) Name() string { return "Static" }

func (s staticSource) Load(ctx context.Context, cfg *config.Config) (*model.Project, error) {
	return s.project, nil
}

func call(receiver string) *model.Invocation {
	return &model.Invocation{Receiver: model.Receiver{Type: &model.TypeRef{QualifiedName: receiver}}}
}

func analyzedServer(t *testing.T) *Server {
	t.Helper()
	project := &model.Project{
		Name: "shop",
		Types: []*model.Type{
			{QualifiedName: "shop.Order", Methods: []*model.Method{
				{Name: "place", DeclaringType: "shop.Order", Invocations: []*model.Invocation{call("shop.Cart"), call("shop.Cart")}},
			}},
			{QualifiedName: "shop.Cart", Methods: []*model.Method{
				{Name: "add", DeclaringType: "shop.Cart", Invocations: []*model.Invocation{call("shop.Order")}},
			}},
		},
	}

	s := NewServer()
	t.Cleanup(func() { s.Close() })

	runner := analysis.NewAnalysisRunner(staticSource{project}, &config.Config{}, s)
	if _, err := runner.Run(context.Background(), "test"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return s
}

func get(t *testing.T, s *Server, path string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if v != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
			t.Fatalf("GET %s: invalid JSON: %v", path, err)
		}
	}
	return rec
}

func TestAnalysisEndpoint(t *testing.T) {
	s := analyzedServer(t)

	var data AnalysisData
	rec := get(t, s, "/api/analysis", &data)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected request id header")
	}

	if !data.Ready || data.Project != "shop" || data.Types != 2 || data.Invocations != 3 {
		t.Errorf("Unexpected analysis data %+v", data)
	}
	if data.Status.State != analysis.StateReady {
		t.Errorf("Expected ready state, got %q", data.Status.State)
	}
}

func TestEndpointsBeforeAnalysis(t *testing.T) {
	s := NewServer()
	defer s.Close()

	var data AnalysisData
	get(t, s, "/api/analysis", &data)
	if data.Ready || data.Status.State != "initializing" {
		t.Errorf("Unexpected analysis data %+v", data)
	}

	var doc graph.Document
	get(t, s, "/api/graph", &doc)
	if doc.Nodes == nil || len(doc.Nodes) != 0 {
		t.Errorf("Expected empty node list, got %+v", doc)
	}

	if rec := get(t, s, "/api/coupling/a/b", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 for pair before analysis, got %d", rec.Code)
	}
}

func TestGraphEndpoint(t *testing.T) {
	s := analyzedServer(t)

	var doc graph.Document
	get(t, s, "/api/graph", &doc)

	if len(doc.Nodes) != 2 || len(doc.Links) != 2 {
		t.Fatalf("Expected 2 nodes and 2 links, got %+v", doc)
	}
	// Cart is invoked twice by Order
	if doc.Links[0].Source != 0 || doc.Links[0].Target != 1 || doc.Links[0].Strength != graph.Weight(2) {
		t.Errorf("Unexpected first link %+v", doc.Links[0])
	}
}

func TestGraphFocusEndpoint(t *testing.T) {
	s := analyzedServer(t)

	var view lens.View
	rec := get(t, s, "/api/graph/focus?select=shop.Cart&depth=0", &view)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if len(view.Nodes) != 1 || view.Nodes[0].Name != "shop.Cart" || len(view.Links) != 0 {
		t.Errorf("Unexpected focus view %+v", view)
	}

	if rec := get(t, s, "/api/graph/focus?select=other", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for empty selection, got %d", rec.Code)
	}
	if rec := get(t, s, "/api/graph/focus?select=shop&depth=x", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad depth, got %d", rec.Code)
	}
}

func TestCouplingEndpoints(t *testing.T) {
	s := analyzedServer(t)

	var view CouplingView
	get(t, s, "/api/coupling", &view)
	if len(view.Labels) != 2 || view.Rows[0][1] != 3 || view.Rows[1][0] != 3 {
		t.Errorf("Unexpected coupling view %+v", view)
	}
	if len(view.Pairs) != 1 || view.Pairs[0].Strength != 3 {
		t.Errorf("Unexpected pairs %+v", view.Pairs)
	}

	var raw CouplingData
	get(t, s, "/api/coupling/raw", &raw)
	if raw.Rows[0][1] != 2 || raw.Rows[1][0] != 1 {
		t.Errorf("Unexpected raw counts %+v", raw)
	}

	var pair PairData
	rec := get(t, s, "/api/coupling/shop.Cart/shop.Order", &pair)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if pair.Strength != 3 || pair.Forward != 1 || pair.Backward != 2 {
		t.Errorf("Unexpected pair %+v", pair)
	}

	if rec := get(t, s, "/api/coupling/shop.Cart/shop.Missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown type, got %d", rec.Code)
	}
}

func TestStaticIndex(t *testing.T) {
	s := NewServer()
	defer s.Close()

	rec := get(t, s, "/", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Class coupling") {
		t.Errorf("Expected index page, got %d", rec.Code)
	}
}

func TestSubscribeUnknownTopic(t *testing.T) {
	s := NewServer()
	defer s.Close()

	if rec := get(t, s, "/api/subscribe/workspace", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestSubscribeReplaysStatus(t *testing.T) {
	s := NewServer()
	defer s.Close()

	for _, status := range []pubsub.AnalysisStatus{
		{RunID: "run-1", State: "ready", Message: "Analysis complete"},
		{RunID: "run-2", State: "loading", Message: "Loading model...", Step: 1, Total: 4},
	} {
		if err := s.PublishStatus(status); err != nil {
			t.Fatal(err)
		}
	}

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/subscribe/analysis_status", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected event stream, got %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var event pubsub.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			t.Fatalf("invalid event: %v", err)
		}
		if event.Topic != pubsub.TopicAnalysisStatus || event.RunID != "run-2" || event.Type != "loading" {
			t.Errorf("Unexpected event %+v", event)
		}
		return
	}
	t.Fatalf("no event received: %v", scanner.Err())
}
