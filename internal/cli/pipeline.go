package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/restforge/spec2client/internal/reconcile"
	"github.com/restforge/spec2client/internal/sink"
	"github.com/restforge/spec2client/internal/spec"
)

// setupLogging routes pipeline diagnostics to stderr, at debug level
// when verbose is set.
func setupLogging(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// pipelineInputs names the front half of a run: loading, normalizing,
// and reconciling a descriptor directory.
type pipelineInputs struct {
	Dir        string
	CommonName string
	Strict     bool
}

// loadEndpoints runs the descriptor directory through the load,
// normalize, and reconcile stages. Broken documents are reported and
// skipped; strict mode fails the run after the full report instead.
// Reconciliation errors stay fatal because they make code generation
// ambiguous.
func loadEndpoints(ctx context.Context, logger *slog.Logger, in pipelineInputs) ([]reconcile.ReconciledEndpoint, error) {
	var opts []spec.Option
	if in.CommonName != "" {
		opts = append(opts, spec.WithCommonName(in.CommonName))
	}
	corpus, err := spec.LoadDir(ctx, in.Dir, opts...)
	if err != nil {
		var le *spec.LoadError
		if errors.As(err, &le) {
			return nil, newUsageError(fmt.Sprintf("load descriptors: %v", le))
		}
		return nil, err
	}

	skipped := 0
	for _, doc := range corpus.Failed() {
		skipped++
		logger.Warn("skipping descriptor", "path", doc.Path, "error", doc.Err)
	}

	fragments, err := spec.BuildFragmentTable(corpus.Common)
	if err != nil {
		skipped++
		logger.Warn("skipping shared fragments", "error", err)
		fragments = make(spec.FragmentTable)
	}

	var rs []reconcile.ReconciledEndpoint
	for _, doc := range corpus.Documents {
		if doc.Err != nil {
			continue
		}
		ep, err := spec.Normalize(doc.Name, doc.Raw, fragments)
		if err != nil {
			skipped++
			logger.Warn("skipping endpoint", "path", doc.Path, "error", err)
			continue
		}
		logger.Debug("normalized endpoint", "endpoint", ep.Name, "variants", len(ep.Variants))
		re, err := reconcile.Reconcile(*ep)
		if err != nil {
			return nil, err
		}
		rs = append(rs, re)
	}

	if skipped > 0 {
		logger.Warn("descriptors skipped", "count", skipped, "kept", len(rs))
		if in.Strict {
			return nil, fmt.Errorf("strict: %d descriptor(s) skipped", skipped)
		}
	}
	if len(rs) == 0 {
		return nil, newUsageError(fmt.Sprintf("no usable endpoint descriptors in %s", in.Dir))
	}
	return rs, nil
}

func printPlan(outDir string, planned []sink.PlannedFile) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, len(planned))
	for _, p := range planned {
		fmt.Fprintf(os.Stdout, "- %s\n", p.Path)
	}
}

// wrapOutputError adds guidance for filesystem failures.
func wrapOutputError(err error, outDir string) error {
	var we *sink.WriteError
	if errors.As(err, &we) && we.Code == sink.TargetUnwritable {
		return newUsageError(fmt.Sprintf("output error for %s: %v\nHint: choose a different --out or check directory permissions.", outDir, we))
	}
	return err
}
