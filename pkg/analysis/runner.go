package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ritzau/coupling-analyzer/pkg/analysis/api"
	"github.com/ritzau/coupling-analyzer/pkg/callgraph"
	"github.com/ritzau/coupling-analyzer/pkg/config"
	"github.com/ritzau/coupling-analyzer/pkg/coupling"
	"github.com/ritzau/coupling-analyzer/pkg/graph"
	"github.com/ritzau/coupling-analyzer/pkg/logging"
	"github.com/ritzau/coupling-analyzer/pkg/model"
	"github.com/ritzau/coupling-analyzer/pkg/output"
	"github.com/ritzau/coupling-analyzer/pkg/pubsub"
	"github.com/ritzau/coupling-analyzer/pkg/report"
	"github.com/ritzau/coupling-analyzer/pkg/resolve"
)

// Analysis phases, in order
const (
	StateLoading   = "loading"
	StateCallGraph = "call_graph"
	StateCoupling  = "coupling"
	StateWriting   = "writing"
	StateReady     = "ready"
	StateError     = "error"

	totalSteps = 4
)

// Result holds everything produced by one analysis run
type Result struct {
	RunID    string
	Reason   string
	Project  *model.Project
	Graph    *graph.Graph
	Document graph.Document
	Matrix   *coupling.Matrix
	Table    *coupling.Table
	Written  []string
	Duration time.Duration
}

// Summary returns the console summary of the run
func (r *Result) Summary() output.Summary {
	s := output.Summary{
		Project:     r.Project.Name,
		Types:       len(r.Project.Types),
		Methods:     len(r.Project.Methods()),
		Invocations: r.Project.InvocationCount(),
		Nodes:       len(r.Document.Nodes),
		Links:       len(r.Document.Links),
		Pairs:       r.Table.Pairs(),
		Dropped:     r.Matrix.Dropped(),
		Written:     r.Written,
	}
	for _, n := range r.Document.Nodes {
		if n.Own {
			s.OwnNodes++
		}
	}
	return s
}

// Sink receives progress and results, e.g. the web server
type Sink interface {
	PublishStatus(status pubsub.AnalysisStatus) error
	SetResult(result *Result)
}

type discardSink struct{}

func (discardSink) PublishStatus(pubsub.AnalysisStatus) error { return nil }
func (discardSink) SetResult(*Result)                         {}

// AnalysisRunner orchestrates the analysis process
type AnalysisRunner struct {
	source api.Source
	cfg    *config.Config
	chain  resolve.Chain
	sink   Sink
	mu     sync.Mutex // Prevent concurrent analysis runs
}

// NewAnalysisRunner creates a new analysis runner. A nil sink discards progress.
func NewAnalysisRunner(source api.Source, cfg *config.Config, sink Sink) *AnalysisRunner {
	if sink == nil {
		sink = discardSink{}
	}
	return &AnalysisRunner{
		source: source,
		cfg:    cfg,
		chain:  resolve.DefaultChain(),
		sink:   sink,
	}
}

// Run loads the model, builds the class call graph and the coupling table,
// writes the configured artifacts and hands the result to the sink.
func (ar *AnalysisRunner) Run(ctx context.Context, reason string) (*Result, error) {
	// Lock to prevent concurrent analysis
	ar.mu.Lock()
	defer ar.mu.Unlock()

	start := time.Now()
	result := &Result{RunID: uuid.New().String(), Reason: reason}
	logger := logging.New("analysis").With("run", result.RunID)
	logger.Info("Starting analysis", "reason", reason, "source", ar.source.Name())

	status := func(state, message string, step int) {
		if err := ar.sink.PublishStatus(pubsub.AnalysisStatus{
			RunID:   result.RunID,
			State:   state,
			Message: message,
			Step:    step,
			Total:   totalSteps,
		}); err != nil {
			logger.Warn("Could not publish status", "state", state, "error", err)
		}
	}
	fail := func(step int, err error) (*Result, error) {
		logger.Error("Analysis failed", "step", step, "error", err)
		status(StateError, err.Error(), step)
		return nil, err
	}

	policy, err := ar.cfg.Policy()
	if err != nil {
		return fail(0, err)
	}

	// Phase 1: model
	status(StateLoading, "Loading model...", 1)
	project, err := ar.source.Load(ctx, ar.cfg)
	if err != nil {
		return fail(1, fmt.Errorf("loading model from %s: %w", ar.source.Name(), err))
	}
	result.Project = project
	methods := project.Methods()

	// Phase 2: class call graph
	status(StateCallGraph, "Building class call graph...", 2)
	if err := ctx.Err(); err != nil {
		return fail(2, err)
	}
	g, err := callgraph.ClassGraph(methods, ar.chain)
	if err != nil {
		return fail(2, err)
	}
	result.Graph = g
	result.Document = graph.NewDocument(g)
	logger.Info("Call graph built", "nodes", g.Len(), "links", g.EdgeCount())

	// Phase 3: coupling
	status(StateCoupling, "Computing class coupling...", 3)
	if err := ctx.Err(); err != nil {
		return fail(3, err)
	}
	matrix, err := coupling.Build(project.Types, methods, ar.chain, policy)
	if err != nil {
		return fail(3, err)
	}
	result.Matrix = matrix
	result.Table = matrix.Finalize()
	if n := matrix.Dropped(); n > 0 {
		logger.Info("Calls outside the analyzed types not counted", "count", n)
	}

	// Phase 4: artifacts
	status(StateWriting, "Writing results...", 4)
	if path := ar.cfg.GraphOutput; path != "" {
		if err := report.WriteGraph(path, result.Document); err != nil {
			return fail(4, err)
		}
		result.Written = append(result.Written, path)
	}
	if path := ar.cfg.Output; path != "" {
		err := report.WriteMarkdown(path, report.Report{
			Project:   project.Name,
			GraphFile: ar.cfg.GraphOutput,
			Matrix:    matrix,
			Table:     result.Table,
			TopPairs:  ar.cfg.Top,
		})
		if err != nil {
			return fail(4, err)
		}
		result.Written = append(result.Written, path)
	}

	result.Duration = time.Since(start)
	ar.sink.SetResult(result)
	status(StateReady, "Analysis complete", totalSteps)

	logger.Info("Analysis complete",
		"types", len(project.Types),
		"pairs", len(result.Table.Pairs()),
		"durationMs", result.Duration.Milliseconds())
	return result, nil
}
