package menu

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/upcschool/mongolab/internal/generator"
	"github.com/upcschool/mongolab/internal/models"
	"github.com/upcschool/mongolab/pkg/config"
)

// scriptModel is an in-memory Model that records the arguments it receives,
// so tests can assert that prompted values reach the operations.
type scriptModel struct {
	name       string
	failOn     string
	loadedDocs int
	bornBefore string
	newAge     int
	suffix     string
	findName   string
}

var errScript = errors.New("script failure")

func (s *scriptModel) err(op string) error {
	if s.failOn == op {
		return errScript
	}
	return nil
}

func (s *scriptModel) Name() string          { return s.name }
func (s *scriptModel) Collections() []string { return []string{s.name + "_persons"} }

func (s *scriptModel) Reset(ctx context.Context) error { return s.err("reset") }

func (s *scriptModel) Load(ctx context.Context, ds *generator.Dataset) (models.LoadStats, error) {
	s.loadedDocs = len(ds.Companies) + len(ds.Persons)
	return models.LoadStats{
		Companies: len(ds.Companies),
		Persons:   len(ds.Persons),
		Batches:   1,
	}, s.err(models.OpLoad)
}

func (s *scriptModel) Directory(ctx context.Context) ([]models.DirectoryEntry, error) {
	return []models.DirectoryEntry{
		{FirstName: "Alice", LastName: "Smith", Company: "Acme Group"},
		{FirstName: "Bob", LastName: "Jones", Company: "Acme Group"},
	}, s.err(models.OpDirectory)
}

func (s *scriptModel) FindByCompany(ctx context.Context, company string) ([]models.DirectoryEntry, error) {
	s.findName = company
	if company != "Acme Group" {
		return nil, s.err(models.OpFindByCompany)
	}
	return []models.DirectoryEntry{
		{FirstName: "Alice", LastName: "Smith", Company: company},
	}, s.err(models.OpFindByCompany)
}

func (s *scriptModel) Headcounts(ctx context.Context) ([]models.Headcount, error) {
	return []models.Headcount{{Company: "Acme Group", Employees: 2}}, s.err(models.OpHeadcounts)
}

func (s *scriptModel) UpdateAges(ctx context.Context, bornBefore string, age int) (models.UpdateStats, error) {
	s.bornBefore = bornBefore
	s.newAge = age
	return models.UpdateStats{Matched: 1, Modified: 1}, s.err(models.OpUpdateAges)
}

func (s *scriptModel) AppendCompanySuffix(ctx context.Context, suffix string) (models.UpdateStats, error) {
	s.suffix = suffix
	return models.UpdateStats{Matched: 1, Modified: 1}, s.err(models.OpAppendSuffix)
}

func (s *scriptModel) CountPersons(ctx context.Context) (int64, error) {
	return 2, s.err(models.OpCount)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Lab.DocCount = 60
	cfg.Lab.BatchSize = 100
	cfg.Lab.Sample = 5
	cfg.Lab.Repeat = 1
	cfg.Lab.Seed = 1
	return cfg
}

// run feeds the scripted input through a menu over the given models and
// returns the captured output.
func run(t *testing.T, input string, mods ...models.Model) string {
	t.Helper()
	var out bytes.Buffer
	m := New(testConfig(), mods, nil, strings.NewReader(input), &out)
	if err := m.Run(t.Context()); err != nil {
		t.Fatalf("running menu: %v", err)
	}
	return out.String()
}

// TestRunExit verifies that option 0 leaves the menu cleanly.
func TestRunExit(t *testing.T) {
	out := run(t, "0\n", &scriptModel{name: "model1"})
	if !strings.Contains(out, "=== MongoDB Modeling Lab ===") {
		t.Errorf("expected menu header, got:\n%s", out)
	}
	if !strings.Contains(out, "1. Work with model1") {
		t.Errorf("expected model option, got:\n%s", out)
	}
}

// TestRunEndOfInput verifies that exhausted input is a normal exit.
func TestRunEndOfInput(t *testing.T) {
	out := run(t, "", &scriptModel{name: "model1"})
	if !strings.Contains(out, "0. Exit") {
		t.Errorf("expected menu to print before exiting, got:\n%s", out)
	}
}

// TestRunUnknownOption verifies that an unrecognized choice re-prompts
// instead of exiting.
func TestRunUnknownOption(t *testing.T) {
	out := run(t, "7\n0\n", &scriptModel{name: "model1"})
	if !strings.Contains(out, `unknown option "7"`) {
		t.Errorf("expected unknown option message, got:\n%s", out)
	}
}

// TestCountPersons walks into the model submenu, counts, and backs out.
func TestCountPersons(t *testing.T) {
	out := run(t, "1\n7\n0\n0\n", &scriptModel{name: "model1"})
	if !strings.Contains(out, "--- count:") {
		t.Errorf("expected count timing line, got:\n%s", out)
	}
	if !strings.Contains(out, "2 persons") {
		t.Errorf("expected person count, got:\n%s", out)
	}
}

// TestLoadPromptsDocCount verifies that the load option prompts for a count
// and generates that many documents.
func TestLoadPromptsDocCount(t *testing.T) {
	mod := &scriptModel{name: "model1"}
	out := run(t, "1\n1\n120\n0\n0\n", mod)
	if mod.loadedDocs != 120 {
		t.Errorf("expected 120 generated documents, got %d", mod.loadedDocs)
	}
	if !strings.Contains(out, "loaded 1 companies and 119 persons") {
		t.Errorf("expected load summary, got:\n%s", out)
	}
}

// TestLoadDefaultDocCount verifies that an empty line at the count prompt
// falls back to the configured document count.
func TestLoadDefaultDocCount(t *testing.T) {
	mod := &scriptModel{name: "model1"}
	run(t, "1\n1\n\n0\n0\n", mod)
	if mod.loadedDocs != 60 {
		t.Errorf("expected configured 60 documents, got %d", mod.loadedDocs)
	}
}

// TestLoadRejectsBadCount verifies that garbage at the count prompt
// re-prompts instead of failing.
func TestLoadRejectsBadCount(t *testing.T) {
	mod := &scriptModel{name: "model1"}
	out := run(t, "1\n1\nabc\n50\n0\n0\n", mod)
	if !strings.Contains(out, `not a valid count: "abc"`) {
		t.Errorf("expected rejection message, got:\n%s", out)
	}
	if mod.loadedDocs != 50 {
		t.Errorf("expected 50 documents after re-prompt, got %d", mod.loadedDocs)
	}
}

// TestDirectoryAndHeadcounts runs the two read queries back to back and
// checks their timing lines and samples.
func TestDirectoryAndHeadcounts(t *testing.T) {
	out := run(t, "1\n2\n3\n0\n0\n", &scriptModel{name: "model1"})
	for _, want := range []string{"--- directory:", "Bob Jones (Acme Group)", "--- headcounts:", "Acme Group: 2 employees"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
}

// TestUpdateAgesUsesDefaults verifies that empty lines at the update prompts
// select the documented defaults.
func TestUpdateAgesUsesDefaults(t *testing.T) {
	mod := &scriptModel{name: "model1"}
	out := run(t, "1\n4\n\n\n0\n0\n", mod)
	if mod.bornBefore != "1988-01-01" {
		t.Errorf("expected default cutoff, got %q", mod.bornBefore)
	}
	if mod.newAge != 30 {
		t.Errorf("expected default age 30, got %d", mod.newAge)
	}
	if !strings.Contains(out, "ages: matched 1, modified 1") {
		t.Errorf("expected update summary, got:\n%s", out)
	}
}

// TestUpdateAgesRejectsBadDate verifies that a malformed cutoff re-prompts.
func TestUpdateAgesRejectsBadDate(t *testing.T) {
	mod := &scriptModel{name: "model1"}
	out := run(t, "1\n4\nnot-a-date\n1990-06-15\n\n0\n0\n", mod)
	if !strings.Contains(out, "not a valid date") {
		t.Errorf("expected date rejection, got:\n%s", out)
	}
	if mod.bornBefore != "1990-06-15" {
		t.Errorf("expected re-prompted cutoff, got %q", mod.bornBefore)
	}
}

// TestRenameUsesDefault verifies the suffix prompt default and summary line.
func TestRenameUsesDefault(t *testing.T) {
	mod := &scriptModel{name: "model1"}
	out := run(t, "1\n5\n\n0\n0\n", mod)
	if mod.suffix != "Company" {
		t.Errorf("expected default suffix, got %q", mod.suffix)
	}
	if !strings.Contains(out, "renames: matched 1, modified 1") {
		t.Errorf("expected rename summary, got:\n%s", out)
	}
}

// TestFindByCompany verifies the lookup prompt and both result shapes.
func TestFindByCompany(t *testing.T) {
	mod := &scriptModel{name: "model1"}
	out := run(t, "1\n6\nAcme Group\n6\nNo Such Co\n0\n0\n", mod)
	if !strings.Contains(out, "Alice Smith (Acme Group)") {
		t.Errorf("expected directory entry, got:\n%s", out)
	}
	if !strings.Contains(out, `no persons found for "No Such Co"`) {
		t.Errorf("expected empty-result message, got:\n%s", out)
	}
}

// TestOperationFailureKeepsMenuAlive verifies that a failing operation is
// reported and the submenu continues.
func TestOperationFailureKeepsMenuAlive(t *testing.T) {
	mod := &scriptModel{name: "model1", failOn: models.OpCount}
	out := run(t, "1\n7\n0\n0\n", mod)
	if !strings.Contains(out, "error: script failure") {
		t.Errorf("expected printed error, got:\n%s", out)
	}
	if !strings.Contains(out, "0. Back") {
		t.Errorf("expected submenu to continue, got:\n%s", out)
	}
}

// TestReset verifies the reset option names the dropped collections.
func TestReset(t *testing.T) {
	out := run(t, "1\n8\n0\n0\n", &scriptModel{name: "model1"})
	if !strings.Contains(out, "collections reset: model1_persons") {
		t.Errorf("expected reset confirmation, got:\n%s", out)
	}
}

// TestFullComparison verifies that option 4 hands off to the runner and its
// report appears in the output.
func TestFullComparison(t *testing.T) {
	out := run(t, "4\n0\n",
		&scriptModel{name: "model1"},
		&scriptModel{name: "model2"},
		&scriptModel{name: "model3"})
	if !strings.Contains(out, "=== Dataset ===") {
		t.Errorf("expected runner report, got:\n%s", out)
	}
	if !strings.Contains(out, "Completed 3/3 models") {
		t.Errorf("expected completion line, got:\n%s", out)
	}
}

// TestRunCancelledContext verifies that cancellation stops the loop with the
// context error.
func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	m := New(testConfig(), []models.Model{&scriptModel{name: "model1"}}, nil, strings.NewReader("1\n"), &out)
	if err := m.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
