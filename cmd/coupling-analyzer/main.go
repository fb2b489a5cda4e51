package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/coupling-analyzer/pkg/analysis"
	"github.com/ritzau/coupling-analyzer/pkg/config"
	"github.com/ritzau/coupling-analyzer/pkg/logging"
	"github.com/ritzau/coupling-analyzer/pkg/output"
	"github.com/ritzau/coupling-analyzer/pkg/source"
	"github.com/ritzau/coupling-analyzer/pkg/watcher"
	"github.com/ritzau/coupling-analyzer/pkg/web"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("coupling-analyzer", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: coupling-analyzer [flags] <model.json|model.yaml>\n\nFlags:\n")
		flags.PrintDefaults()
	}
	flags.StringP("output", "o", "results.md", "Markdown report path (empty to skip)")
	flags.String("graph-output", "class-call-output.json", "Class call graph JSON path (empty to skip)")
	flags.String("out-of-set", "drop", "Calls to types outside the model: drop, grow or reject")
	flags.Int("top", 10, "Strongest couplings listed in the report and summary (0 for all)")
	flags.BoolP("debug", "d", false, "Log every method and invocation")
	flags.Bool("web", false, "Serve the results over HTTP")
	flags.Int("port", 8080, "Port for web server (only used with --web)")
	flags.Bool("watch", false, "Re-run the analysis when the model file changes")
	flags.Bool("open", false, "Open the browser (only used with --web)")
	flags.CountP("verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	flags.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	flags.String("log-format", "compact", "Log format: compact or json")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	if flags.NArg() > 0 {
		cfg.Source = flags.Arg(0)
	}
	if cfg.Source == "" {
		flags.Usage()
		return fmt.Errorf("no model file given")
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		return err
	}
	if cfg.Debug && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	if err := logging.Configure(os.Stderr, level, cfg.LogFormat); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := source.NewFileSource(cfg.Source)

	if !cfg.WebMode && !cfg.Watch {
		result, err := analysis.NewAnalysisRunner(src, cfg, nil).Run(ctx, "initial analysis")
		if err != nil {
			return err
		}
		output.PrintSummary(os.Stdout, result.Summary(), cfg.Top)
		return nil
	}

	var sink analysis.Sink
	if cfg.WebMode {
		server := web.NewServer()
		defer server.Close()
		sink = server

		url := fmt.Sprintf("http://localhost:%d", cfg.Port)
		go func() {
			if err := server.Start(cfg.Port); err != nil {
				logging.Error("web server stopped", "error", err)
				stop()
			}
		}()

		if cfg.OpenBrowser {
			// Wait a moment for server to start
			time.Sleep(500 * time.Millisecond)
			openBrowser(url)
		}
	}

	runner := analysis.NewAnalysisRunner(src, cfg, sink)
	result, err := runner.Run(ctx, "initial analysis")
	if err != nil {
		// Keep serving and watching, the model may be fixed
		logging.Error("initial analysis failed", "error", err)
	} else {
		output.PrintSummary(os.Stdout, result.Summary(), cfg.Top)
	}

	if cfg.Watch {
		if err := watch(ctx, runner, cfg.Source, cfg.Top); err != nil {
			return err
		}
	}

	<-ctx.Done()
	logging.Info("shutting down")
	return nil
}

// watch re-runs the analysis in the background whenever the model changes
func watch(ctx context.Context, runner *analysis.AnalysisRunner, path string, top int) error {
	fw, err := watcher.NewFileWatcher(path)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), 500*time.Millisecond, 5*time.Second)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			change := watcher.AnalyzeChanges(event)
			if !change.NeedRerun {
				logging.Warn("model file changed, keeping last results", "reason", change.Reason, "paths", change.ChangedFiles)
				continue
			}

			result, err := runner.Run(ctx, change.Reason)
			if err != nil {
				logging.Error("analysis failed", "error", err)
				continue
			}
			output.PrintSummary(os.Stdout, result.Summary(), top)
		}
	}()
	return nil
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser on platform", "os", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
