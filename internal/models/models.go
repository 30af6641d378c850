// Package models defines the contract shared by the three document-modeling
// strategies. Each strategy stores the same generated population in a
// different shape and answers the same queries, so runs can be compared
// side by side.
package models

import (
	"context"

	"github.com/upcschool/mongolab/internal/generator"
	apperrors "github.com/upcschool/mongolab/pkg/errors"
	labmongo "github.com/upcschool/mongolab/pkg/mongo"
)

// Operation names shared by error reporting, timing, and metrics labels.
const (
	OpLoad          = "load"
	OpCount         = "count"
	OpDirectory     = "directory"
	OpFindByCompany = "find_by_company"
	OpHeadcounts    = "headcounts"
	OpUpdateAges    = "update_ages"
	OpAppendSuffix  = "append_suffix"
)

// Model is one document-modeling strategy. Implementations own their
// collections and translate each operation into the query shape natural to
// their schema.
type Model interface {
	// Name is the short identifier used in logs, metrics, and the report.
	Name() string

	// Collections lists the MongoDB collections the model owns.
	Collections() []string

	// Reset drops the model's collections so a load starts from empty.
	Reset(ctx context.Context) error

	// Load inserts the dataset in batches. It does not reset first; loading
	// over existing documents is reported through LoadStats.PreExisting.
	Load(ctx context.Context, ds *generator.Dataset) (LoadStats, error)

	// Directory returns every person's full name with their company name.
	Directory(ctx context.Context) ([]DirectoryEntry, error)

	// FindByCompany returns the directory entries for one company. An
	// unknown company yields an empty slice, not an error.
	FindByCompany(ctx context.Context, company string) ([]DirectoryEntry, error)

	// Headcounts returns the number of employees per company, ordered by
	// company name. Whether zero-employee companies appear depends on the
	// schema: strategies without company documents cannot report them.
	Headcounts(ctx context.Context) ([]Headcount, error)

	// UpdateAges sets the age of every person born strictly before the
	// given ISO date (lexicographic comparison on "YYYY-MM-DD" strings).
	UpdateAges(ctx context.Context, bornBefore string, age int) (UpdateStats, error)

	// AppendCompanySuffix appends " "+suffix to every company name that
	// does not already contain the suffix, matched case-insensitively.
	AppendCompanySuffix(ctx context.Context, suffix string) (UpdateStats, error)

	// CountPersons returns how many persons the model currently stores,
	// regardless of where the schema keeps them.
	CountPersons(ctx context.Context) (int64, error)
}

// Wrap classifies cause and wraps it with the model and operation that
// failed. Unreachable-server errors override the given sentinel with
// ErrConnection so the runner can tell an outage from a bad query.
func Wrap(cause error, model, op string, sentinel error) error {
	if labmongo.IsUnavailable(cause) {
		sentinel = apperrors.ErrConnection
	}
	return apperrors.Newf(sentinel, model, op, "%v", cause)
}
