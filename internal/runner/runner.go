// Package runner executes the model comparison: it generates one dataset,
// loads it into each modeling strategy in turn, runs the same query battery
// against each, and renders a timing report. A failing model is reported and
// skipped; the remaining models still run.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/upcschool/mongolab/internal/generator"
	"github.com/upcschool/mongolab/internal/models"
	"github.com/upcschool/mongolab/pkg/config"
	apperrors "github.com/upcschool/mongolab/pkg/errors"
	"github.com/upcschool/mongolab/pkg/logger"
	"github.com/upcschool/mongolab/pkg/metrics"
	"github.com/upcschool/mongolab/pkg/timing"
	"github.com/upcschool/mongolab/pkg/tracing"
)

// Battery constants, matching the classic lab exercise: rejuvenate everyone
// born before 1988 and make every company name end in "Company".
const (
	bornBeforeCutoff = "1988-01-01"
	updatedAge       = 30
	companySuffix    = "Company"
)

// ModelResult collects everything one model produced during a run.
type ModelResult struct {
	Model    string
	Load     models.LoadStats
	LoadTime time.Duration
	// Persons is the model's own person count after loading.
	Persons int64
	// AgeUpdate and Rename hold the first repeat's update statistics;
	// later repeats are no-ops by construction.
	AgeUpdate models.UpdateStats
	Rename    models.UpdateStats
	Recorder  *timing.Recorder
	// Err is the error that aborted this model's battery, nil when the
	// model completed every operation.
	Err error
}

// Completed reports whether the model ran the full battery.
func (r ModelResult) Completed() bool { return r.Err == nil }

// Runner drives the comparison across a set of models.
type Runner struct {
	cfg     *config.Config
	models  []models.Model
	metrics *metrics.Metrics
	out     io.Writer
	logger  *slog.Logger
}

// New creates a Runner. The metrics collectors may be nil when the metrics
// server is disabled; out receives sample output and the final report.
func New(cfg *config.Config, mods []models.Model, m *metrics.Metrics, out io.Writer) *Runner {
	return &Runner{
		cfg:     cfg,
		models:  mods,
		metrics: m,
		out:     out,
		logger:  logger.WithComponent("runner"),
	}
}

// Run generates the dataset and takes every model through the battery. It
// returns one result per model, in model order.
func (r *Runner) Run(ctx context.Context) []ModelResult {
	log := logger.FromContext(ctx).With("component", "runner")

	genStart := time.Now()
	ds := generator.Generate(generator.Config{
		Count: r.cfg.Lab.DocCount,
		Seed:  r.cfg.Lab.Seed,
	})
	genTime := time.Since(genStart)
	log.Info("dataset generated",
		"companies", len(ds.Companies),
		"persons", len(ds.Persons),
		"elapsed", genTime,
	)
	if r.metrics != nil {
		r.metrics.DatasetCompanies.Set(float64(len(ds.Companies)))
		r.metrics.DatasetPersons.Set(float64(len(ds.Persons)))
	}

	results := make([]ModelResult, 0, len(r.models))
	for _, m := range r.models {
		if err := ctx.Err(); err != nil {
			results = append(results, ModelResult{Model: m.Name(), Err: err})
			continue
		}
		res := r.runModel(ctx, m, ds)
		if res.Err != nil {
			log.Error("model run failed", "model", m.Name(), "error", res.Err)
		} else {
			log.Info("model run complete", "model", m.Name(), "load_time", res.LoadTime)
		}
		results = append(results, res)
	}

	r.report(ds, genTime, results)
	return results
}

// runModel resets and loads one model, then runs the query battery repeat
// times. The first error aborts the battery for this model only.
func (r *Runner) runModel(ctx context.Context, m models.Model, ds *generator.Dataset) ModelResult {
	res := ModelResult{Model: m.Name(), Recorder: timing.NewRecorder()}
	log := r.logger.With("model", m.Name())

	traceID := logger.RunID(ctx)
	if traceID == "" {
		traceID = uuid.New().String()
	}
	ctx, span := tracing.StartSpan(ctx, m.Name(), traceID)
	defer func() {
		span.End()
		span.Log()
	}()

	if err := m.Reset(ctx); err != nil {
		res.Err = err
		return res
	}

	_, loadSpan := tracing.StartChildSpan(ctx, models.OpLoad)
	loadStart := time.Now()
	stats, err := m.Load(ctx, ds)
	res.LoadTime = time.Since(loadStart)
	loadSpan.End()
	res.Load = stats
	loadSpan.SetAttr("companies", stats.Companies)
	loadSpan.SetAttr("persons", stats.Persons)
	if err != nil {
		res.Err = err
		r.countError(m.Name(), models.OpLoad, err)
		return res
	}
	res.Recorder.Record(models.OpLoad, res.LoadTime)
	if r.metrics != nil {
		r.metrics.LoadDuration.WithLabelValues(m.Name()).Observe(res.LoadTime.Seconds())
		r.metrics.DocumentsInsertedTotal.WithLabelValues(m.Name(), "companies").Add(float64(stats.Companies))
		r.metrics.DocumentsInsertedTotal.WithLabelValues(m.Name(), "persons").Add(float64(stats.Persons))
	}

	// The rename changes the lookup target from the second repeat on.
	target := ""
	if len(ds.Companies) > 0 {
		target = ds.Companies[0].Name
	}

	for i := 0; i < r.cfg.Lab.Repeat; i++ {
		if err := r.runBattery(ctx, m, &res, target, i == 0); err != nil {
			res.Err = err
			return res
		}
		if !strings.Contains(strings.ToLower(target), strings.ToLower(companySuffix)) {
			target += " " + companySuffix
		}
	}

	expected := int64(len(ds.Persons))
	if res.Load.PreExisting == 0 && res.Persons != expected {
		log.Warn("person count does not match dataset",
			"counted", res.Persons, "expected", expected)
	}
	return res
}

// runBattery executes the query battery once. Sample output is printed only
// on the first repeat, and only when verbose is on.
func (r *Runner) runBattery(ctx context.Context, m models.Model, res *ModelResult, target string, first bool) error {
	name := m.Name()
	rec := res.Recorder

	var count int64
	if err := r.timeOp(ctx, name, models.OpCount, rec, func() (err error) {
		count, err = m.CountPersons(ctx)
		return err
	}); err != nil {
		return err
	}
	res.Persons = count

	var directory []models.DirectoryEntry
	if err := r.timeOp(ctx, name, models.OpDirectory, rec, func() (err error) {
		directory, err = m.Directory(ctx)
		return err
	}); err != nil {
		return err
	}
	if first && r.cfg.Lab.Verbose {
		r.printEntries(name, models.OpDirectory, directory)
	}

	var headcounts []models.Headcount
	if err := r.timeOp(ctx, name, models.OpHeadcounts, rec, func() (err error) {
		headcounts, err = m.Headcounts(ctx)
		return err
	}); err != nil {
		return err
	}
	if first && r.cfg.Lab.Verbose {
		r.printHeadcounts(name, headcounts)
	}

	var found []models.DirectoryEntry
	if err := r.timeOp(ctx, name, models.OpFindByCompany, rec, func() (err error) {
		found, err = m.FindByCompany(ctx, target)
		return err
	}); err != nil {
		return err
	}
	if first && r.cfg.Lab.Verbose {
		fmt.Fprintf(r.out, "[%s] %s %q: %d employees\n", name, models.OpFindByCompany, target, len(found))
	}

	var ages models.UpdateStats
	if err := r.timeOp(ctx, name, models.OpUpdateAges, rec, func() (err error) {
		ages, err = m.UpdateAges(ctx, bornBeforeCutoff, updatedAge)
		return err
	}); err != nil {
		return err
	}
	if first {
		res.AgeUpdate = ages
	}
	r.countUpdated(name, models.OpUpdateAges, ages)

	var rename models.UpdateStats
	if err := r.timeOp(ctx, name, models.OpAppendSuffix, rec, func() (err error) {
		rename, err = m.AppendCompanySuffix(ctx, companySuffix)
		return err
	}); err != nil {
		return err
	}
	if first {
		res.Rename = rename
	}
	r.countUpdated(name, models.OpAppendSuffix, rename)

	return nil
}

// timeOp records the operation latency and, on failure, the error metric.
// Each call becomes a child span under the model's run span.
func (r *Runner) timeOp(ctx context.Context, model, op string, rec *timing.Recorder, fn func() error) error {
	_, span := tracing.StartChildSpan(ctx, op)
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	span.End()
	rec.Record(op, elapsed)
	if r.metrics != nil {
		r.metrics.QueryDuration.WithLabelValues(model, op).Observe(elapsed.Seconds())
	}
	if err != nil {
		span.SetAttr("error", err.Error())
		r.countError(model, op, err)
	}
	return err
}

func (r *Runner) countError(model, op string, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.OperationErrorsTotal.WithLabelValues(model, op, apperrors.Class(err)).Inc()
}

func (r *Runner) countUpdated(model, op string, stats models.UpdateStats) {
	if r.metrics == nil {
		return
	}
	r.metrics.DocumentsUpdatedTotal.WithLabelValues(model, op, "matched").Add(float64(stats.Matched))
	r.metrics.DocumentsUpdatedTotal.WithLabelValues(model, op, "modified").Add(float64(stats.Modified))
}

func (r *Runner) printEntries(model, op string, entries []models.DirectoryEntry) {
	limit := r.cfg.Lab.Sample
	if limit > len(entries) {
		limit = len(entries)
	}
	fmt.Fprintf(r.out, "[%s] %s: %d rows\n", model, op, len(entries))
	for _, e := range entries[:limit] {
		fmt.Fprintf(r.out, "  %s %s  (%s)\n", e.FirstName, e.LastName, e.Company)
	}
}

func (r *Runner) printHeadcounts(model string, counts []models.Headcount) {
	limit := r.cfg.Lab.Sample
	if limit > len(counts) {
		limit = len(counts)
	}
	fmt.Fprintf(r.out, "[%s] %s: %d companies\n", model, models.OpHeadcounts, len(counts))
	for _, h := range counts[:limit] {
		fmt.Fprintf(r.out, "  %s: %d\n", h.Company, h.Employees)
	}
}
