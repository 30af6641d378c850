// Package menu implements the interactive console for the modeling lab.
//
// The menu drives one model at a time: load a fresh dataset, run the query
// battery step by step, or inspect a single company. Option 4 hands off to
// the runner for the full three-model comparison.
package menu

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/upcschool/mongolab/internal/generator"
	"github.com/upcschool/mongolab/internal/models"
	"github.com/upcschool/mongolab/internal/runner"
	"github.com/upcschool/mongolab/pkg/config"
	apperrors "github.com/upcschool/mongolab/pkg/errors"
	"github.com/upcschool/mongolab/pkg/metrics"
)

const dateLayout = "2006-01-02"

// Defaults offered when the user presses enter at a prompt.
const (
	defaultBornBefore = "1988-01-01"
	defaultNewAge     = 30
	defaultSuffix     = "Company"
)

// Menu reads choices from in and writes prompts and results to out. It owns
// no connections; the models passed to New carry their own client.
type Menu struct {
	cfg     *config.Config
	models  []models.Model
	metrics *metrics.Metrics
	in      *bufio.Scanner
	out     io.Writer
	logger  *slog.Logger
}

// New builds a menu over the given models. The slice order defines the
// numbering of the model options. metrics may be nil.
func New(cfg *config.Config, mods []models.Model, m *metrics.Metrics, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		cfg:     cfg,
		models:  mods,
		metrics: m,
		in:      bufio.NewScanner(in),
		out:     out,
		logger:  slog.Default().With("component", "menu"),
	}
}

// Run loops on the top-level menu until the user exits, input ends, or the
// context is cancelled. A closed stdin is a normal exit, not an error.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.printTop()
		choice, ok := m.readLine()
		if !ok {
			return nil
		}
		switch choice {
		case "0":
			return nil
		case "4":
			m.fullComparison(ctx)
		default:
			idx, err := strconv.Atoi(choice)
			if err != nil || idx < 1 || idx > len(m.models) {
				fmt.Fprintf(m.out, "unknown option %q\n\n", choice)
				continue
			}
			if err := m.modelMenu(ctx, m.models[idx-1]); err != nil {
				return err
			}
		}
	}
}

func (m *Menu) printTop() {
	fmt.Fprintln(m.out, "=== MongoDB Modeling Lab ===")
	for i, mod := range m.models {
		fmt.Fprintf(m.out, "%d. Work with %s\n", i+1, mod.Name())
	}
	fmt.Fprintln(m.out, "4. Run full comparison")
	fmt.Fprintln(m.out, "0. Exit")
	fmt.Fprint(m.out, "> ")
}

// modelMenu loops on the per-model submenu. It returns a non-nil error only
// on context cancellation; operation failures are printed and the menu
// continues.
func (m *Menu) modelMenu(ctx context.Context, mod models.Model) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(m.out, "\n--- %s ---\n", mod.Name())
		fmt.Fprintln(m.out, "1. Load data")
		fmt.Fprintln(m.out, "2. Person directory")
		fmt.Fprintln(m.out, "3. Company headcounts")
		fmt.Fprintln(m.out, "4. Update ages")
		fmt.Fprintln(m.out, "5. Rename companies")
		fmt.Fprintln(m.out, "6. Find persons by company")
		fmt.Fprintln(m.out, "7. Count persons")
		fmt.Fprintln(m.out, "8. Reset collections")
		fmt.Fprintln(m.out, "0. Back")
		fmt.Fprint(m.out, "> ")
		choice, ok := m.readLine()
		if !ok {
			return nil
		}
		var err error
		switch choice {
		case "0":
			fmt.Fprintln(m.out)
			return nil
		case "1":
			err = m.doLoad(ctx, mod)
		case "2":
			err = m.doDirectory(ctx, mod)
		case "3":
			err = m.doHeadcounts(ctx, mod)
		case "4":
			err = m.doUpdateAges(ctx, mod)
		case "5":
			err = m.doRename(ctx, mod)
		case "6":
			err = m.doFind(ctx, mod)
		case "7":
			err = m.doCount(ctx, mod)
		case "8":
			err = m.doReset(ctx, mod)
		default:
			fmt.Fprintf(m.out, "unknown option %q\n", choice)
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(m.out, "error: %v\n", err)
		}
	}
}

// doLoad drops the model's collections and loads a freshly generated
// dataset into them.
func (m *Menu) doLoad(ctx context.Context, mod models.Model) error {
	count, err := m.promptInt("Documents to generate", m.cfg.Lab.DocCount)
	if err != nil {
		return err
	}
	ds := generator.Generate(generator.Config{Count: count, Seed: m.cfg.Lab.Seed})
	m.logger.Info("dataset generated",
		"model", mod.Name(),
		"companies", len(ds.Companies),
		"persons", len(ds.Persons))
	if err := mod.Reset(ctx); err != nil {
		return err
	}
	start := time.Now()
	stats, err := mod.Load(ctx, ds)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "loaded %s companies and %s persons in %d batches (%v)\n",
		humanize.Comma(int64(stats.Companies)),
		humanize.Comma(int64(stats.Persons)),
		stats.Batches,
		time.Since(start).Round(time.Millisecond))
	return nil
}

// doDirectory lists every person with their company, printing a sample and
// the elapsed time.
func (m *Menu) doDirectory(ctx context.Context, mod models.Model) error {
	start := time.Now()
	entries, err := mod.Directory(ctx)
	if err != nil {
		return err
	}
	m.printTiming(models.OpDirectory, time.Since(start))
	m.printEntries(entries)
	return nil
}

func (m *Menu) doHeadcounts(ctx context.Context, mod models.Model) error {
	start := time.Now()
	counts, err := mod.Headcounts(ctx)
	if err != nil {
		return err
	}
	m.printTiming(models.OpHeadcounts, time.Since(start))
	m.printHeadcounts(counts)
	return nil
}

// doUpdateAges prompts for the birth-date cutoff and the age to set, then
// runs the update.
func (m *Menu) doUpdateAges(ctx context.Context, mod models.Model) error {
	bornBefore, err := m.promptDate("Set age for persons born before", defaultBornBefore)
	if err != nil {
		return err
	}
	newAge, err := m.promptInt("New age", defaultNewAge)
	if err != nil {
		return err
	}
	start := time.Now()
	ages, err := mod.UpdateAges(ctx, bornBefore, newAge)
	if err != nil {
		return err
	}
	m.printTiming(models.OpUpdateAges, time.Since(start))
	fmt.Fprintf(m.out, "ages: matched %d, modified %d\n", ages.Matched, ages.Modified)
	return nil
}

// doRename prompts for the suffix to append to every company name.
func (m *Menu) doRename(ctx context.Context, mod models.Model) error {
	suffix, err := m.promptString("Company name suffix", defaultSuffix)
	if err != nil {
		return err
	}
	start := time.Now()
	renames, err := mod.AppendCompanySuffix(ctx, suffix)
	if err != nil {
		return err
	}
	m.printTiming(models.OpAppendSuffix, time.Since(start))
	fmt.Fprintf(m.out, "renames: matched %d, modified %d\n", renames.Matched, renames.Modified)
	return nil
}

func (m *Menu) doFind(ctx context.Context, mod models.Model) error {
	name, err := m.promptString("Company name", "")
	if err != nil {
		return err
	}
	start := time.Now()
	entries, err := mod.FindByCompany(ctx, name)
	if err != nil {
		return err
	}
	m.printTiming(models.OpFindByCompany, time.Since(start))
	if len(entries) == 0 {
		fmt.Fprintf(m.out, "no persons found for %q\n", name)
		return nil
	}
	m.printEntries(entries)
	return nil
}

func (m *Menu) doCount(ctx context.Context, mod models.Model) error {
	start := time.Now()
	n, err := mod.CountPersons(ctx)
	if err != nil {
		return err
	}
	m.printTiming(models.OpCount, time.Since(start))
	fmt.Fprintf(m.out, "%s persons\n", humanize.Comma(n))
	return nil
}

func (m *Menu) doReset(ctx context.Context, mod models.Model) error {
	if err := mod.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "collections reset: %s\n", strings.Join(mod.Collections(), ", "))
	return nil
}

// fullComparison runs the three-model battery through the runner. Failures
// are already part of the runner's report, so nothing extra is printed here.
func (m *Menu) fullComparison(ctx context.Context) {
	fmt.Fprintln(m.out)
	r := runner.New(m.cfg, m.models, m.metrics, m.out)
	r.Run(ctx)
	fmt.Fprintln(m.out)
}

// ---- Printing ----

func (m *Menu) printTiming(op string, d time.Duration) {
	fmt.Fprintf(m.out, "--- %s: %v ---\n", op, d.Round(time.Microsecond))
}

func (m *Menu) printEntries(entries []models.DirectoryEntry) {
	limit := m.sampleLimit(len(entries))
	for _, e := range entries[:limit] {
		fmt.Fprintf(m.out, "  %s %s (%s)\n", e.FirstName, e.LastName, e.Company)
	}
	if rest := len(entries) - limit; rest > 0 {
		fmt.Fprintf(m.out, "  ... and %s more\n", humanize.Comma(int64(rest)))
	}
}

func (m *Menu) printHeadcounts(counts []models.Headcount) {
	limit := m.sampleLimit(len(counts))
	for _, c := range counts[:limit] {
		fmt.Fprintf(m.out, "  %s: %d employees\n", c.Company, c.Employees)
	}
	if rest := len(counts) - limit; rest > 0 {
		fmt.Fprintf(m.out, "  ... and %s more\n", humanize.Comma(int64(rest)))
	}
}

func (m *Menu) sampleLimit(n int) int {
	if m.cfg.Lab.Sample > 0 && n > m.cfg.Lab.Sample {
		return m.cfg.Lab.Sample
	}
	return n
}

// ---- Input ----

// readLine returns the next trimmed input line. ok is false once input is
// exhausted.
func (m *Menu) readLine() (line string, ok bool) {
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

// promptString asks for a free-form value. An empty line selects the
// default; when no default exists the prompt repeats.
func (m *Menu) promptString(label, def string) (string, error) {
	for {
		if def != "" {
			fmt.Fprintf(m.out, "%s [%s]: ", label, def)
		} else {
			fmt.Fprintf(m.out, "%s: ", label)
		}
		line, ok := m.readLine()
		if !ok {
			return "", apperrors.New(apperrors.ErrInvalidInput, "menu", "prompt", "input closed")
		}
		if line == "" {
			if def != "" {
				return def, nil
			}
			continue
		}
		return line, nil
	}
}

// promptInt asks for a positive integer, re-prompting on bad input.
func (m *Menu) promptInt(label string, def int) (int, error) {
	for {
		fmt.Fprintf(m.out, "%s [%d]: ", label, def)
		line, ok := m.readLine()
		if !ok {
			return 0, apperrors.New(apperrors.ErrInvalidInput, "menu", "prompt", "input closed")
		}
		if line == "" {
			return def, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 0 {
			fmt.Fprintf(m.out, "not a valid count: %q\n", line)
			continue
		}
		return n, nil
	}
}

// promptDate asks for a YYYY-MM-DD date, re-prompting until the input
// parses.
func (m *Menu) promptDate(label, def string) (string, error) {
	for {
		value, err := m.promptString(label, def)
		if err != nil {
			return "", err
		}
		if _, err := time.Parse(dateLayout, value); err != nil {
			fmt.Fprintf(m.out, "not a valid date (want YYYY-MM-DD): %q\n", value)
			continue
		}
		return value, nil
	}
}
