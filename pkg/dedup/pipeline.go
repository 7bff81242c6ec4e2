package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/adlens/pkg/alg/lsh"
	"github.com/Sumatoshi-tech/adlens/pkg/dataset"
	"github.com/Sumatoshi-tech/adlens/pkg/observability"
)

const tracerName = "adlens/dedup"

// Stage names used for spans and the stage duration histogram.
const (
	StageOrder   = "order"
	StageIndex   = "index"
	StageConfirm = "confirm"
	StageResolve = "resolve"
)

// Result describes one dedup run. Similarities and Dropped refer to row IDs
// of the input dataset.
type Result struct {
	RunID        string       `json:"run_id"                 yaml:"run_id"`
	Method       Method       `json:"method"                 yaml:"method"`
	Documents    int          `json:"documents"              yaml:"documents"`
	Ordering     []string     `json:"ordering,omitempty"     yaml:"ordering,omitempty"`
	Candidates   int          `json:"candidates"             yaml:"candidates"`
	Similarities []Similarity `json:"similarities,omitempty" yaml:"similarities,omitempty"`
	Confirmed    int          `json:"confirmed"              yaml:"confirmed"`
	Dropped      []int        `json:"dropped"                yaml:"dropped"`
	Kept         []int        `json:"kept"                   yaml:"kept"`
}

// Pipeline runs dedup over datasets with one fixed set of options.
type Pipeline struct {
	opts Options

	// Logger receives progress records. Nil discards them.
	Logger *slog.Logger

	// Tracer creates run and stage spans. When nil, falls back to
	// otel.Tracer("adlens/dedup").
	Tracer trace.Tracer

	// Metrics receives run counters and stage durations. May be nil.
	Metrics *observability.PipelineMetrics
}

// NewPipeline validates opts and returns a pipeline for them.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.TextColumn == "" {
		opts.TextColumn = DefaultTextColumn
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Pipeline{opts: opts}, nil
}

// Options returns the pipeline options.
func (p *Pipeline) Options() Options {
	return p.opts
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}

	return observability.DiscardLogger()
}

func (p *Pipeline) tracer() trace.Tracer {
	if p.Tracer != nil {
		return p.Tracer
	}

	return otel.Tracer(tracerName)
}

// Run detects duplicates in ds without modifying it. Apply the result with
// ds.Remove(result.Dropped).
func (p *Pipeline) Run(ctx context.Context, ds *dataset.Dataset) (*Result, error) {
	runID := uuid.NewString()
	ctx = observability.ContextWithRunID(ctx, runID)

	ctx, span := p.tracer().Start(ctx, "adlens.dedup.run",
		trace.WithAttributes(
			attribute.String("dedup.method", string(p.opts.Method)),
			attribute.Int("dedup.documents", ds.Len()),
		))
	defer span.End()

	started := time.Now()

	res, err := p.run(ctx, ds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	res.RunID = runID
	res.Kept = keptIDs(ds, res.Dropped)

	span.SetAttributes(
		attribute.Int("dedup.candidates", res.Candidates),
		attribute.Int("dedup.dropped", len(res.Dropped)),
	)

	p.Metrics.RecordRun(ctx, observability.RunStats{
		Method:     string(res.Method),
		Documents:  res.Documents,
		Candidates: res.Candidates,
		Confirmed:  res.Confirmed,
		Dropped:    len(res.Dropped),
	})

	p.logger().InfoContext(ctx, "dedup finished",
		"method", res.Method,
		"documents", res.Documents,
		"candidates", res.Candidates,
		"dropped", len(res.Dropped),
		"elapsed", time.Since(started))

	return res, nil
}

// Dedup runs the pipeline and removes the dropped rows from ds in one batch.
func (p *Pipeline) Dedup(ctx context.Context, ds *dataset.Dataset) (*Result, error) {
	res, err := p.Run(ctx, ds)
	if err != nil {
		return nil, err
	}

	ds.Remove(res.Dropped)

	return res, nil
}

func (p *Pipeline) run(ctx context.Context, ds *dataset.Dataset) (*Result, error) {
	switch p.opts.Method {
	case MethodLSH:
		return p.runLSH(ctx, ds)
	case MethodPrefix:
		return p.runPrefix(ds)
	case MethodLatLon:
		return p.runLatLon(ds)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, p.opts.Method)
	}
}

func (p *Pipeline) runLSH(ctx context.Context, ds *dataset.Dataset) (*Result, error) {
	texts, err := textColumn(ds, p.opts.TextColumn)
	if err != nil {
		return nil, err
	}

	hasher, err := p.opts.NewHasher()
	if err != nil {
		return nil, err
	}

	var (
		order    []int
		ordering []string
	)

	p.observe(ctx, StageOrder, func() {
		order, ordering = ds.ChronologicalOrder(DateKeyGroups...)
	})

	p.logOrdering(ctx, ordering)

	sorted := make([]string, len(order))
	for i, pos := range order {
		sorted[i] = texts[pos]
	}

	var pairs []lsh.Pair

	err = p.stage(ctx, StageIndex, func() error {
		var candErr error

		pairs, candErr = Candidates(sorted, hasher, p.opts.Bands)

		return candErr
	})
	if err != nil {
		return nil, err
	}

	var sims []Similarity

	err = p.stage(ctx, StageConfirm, func() error {
		var confirmErr error

		sims, confirmErr = Confirm(sorted, pairs, hasher)

		return confirmErr
	})
	if err != nil {
		return nil, err
	}

	var dropPositions []int

	p.observe(ctx, StageResolve, func() {
		dropPositions = Resolve(sims, p.opts.Threshold)
	})

	ids := ds.IDs()
	idAt := func(sortedPos int) int { return ids[order[sortedPos]] }

	confirmed := 0

	for i := range sims {
		if sims[i].Jaccard >= p.opts.Threshold {
			confirmed++
		}

		sims[i].A, sims[i].B = idAt(sims[i].A), idAt(sims[i].B)
	}

	dropped := make([]int, len(dropPositions))
	for i, pos := range dropPositions {
		dropped[i] = idAt(pos)
	}

	return &Result{
		Method:       MethodLSH,
		Documents:    ds.Len(),
		Ordering:     ordering,
		Candidates:   len(pairs),
		Similarities: sims,
		Confirmed:    confirmed,
		Dropped:      dropped,
	}, nil
}

// stage runs fn inside a child span and records its duration.
func (p *Pipeline) stage(ctx context.Context, name string, fn func() error) error {
	ctx, span := p.tracer().Start(ctx, "adlens.dedup."+name, trace.WithAttributes(attribute.String("stage", name)))
	defer span.End()

	started := time.Now()
	err := fn()

	p.Metrics.ObserveStage(ctx, name, time.Since(started))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}

func (p *Pipeline) observe(ctx context.Context, name string, fn func()) {
	_ = p.stage(ctx, name, func() error {
		fn()

		return nil
	})
}

func (p *Pipeline) logOrdering(ctx context.Context, ordering []string) {
	switch {
	case ordering == nil:
		p.logger().InfoContext(ctx, "insufficient date information, dropping by index")
	case len(ordering) < len(DateKeyGroups[0]):
		p.logger().InfoContext(ctx, "insufficient date information, dropping by month/day")
	default:
		p.logger().DebugContext(ctx, "ordering by scrape date", "keys", strings.Join(ordering, ","))
	}
}

func textColumn(ds *dataset.Dataset, name string) ([]string, error) {
	texts, err := ds.Column(name)
	if errors.Is(err, dataset.ErrUnknownColumn) {
		return nil, fmt.Errorf("%w: text column %q", ErrMissingColumns, name)
	}

	if err != nil {
		return nil, err
	}

	return texts, nil
}

func keptIDs(ds *dataset.Dataset, dropped []int) []int {
	drop := make(map[int]struct{}, len(dropped))
	for _, id := range dropped {
		drop[id] = struct{}{}
	}

	kept := make([]int, 0, ds.Len()-len(drop))

	for _, id := range ds.IDs() {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}

	return kept
}
