// Package model3 implements the company-embedded strategy: one collection of
// companies, each holding its employees as an embedded array. Company-centric
// reads are cheap; person-level updates go through array filters.
package model3

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/upcschool/mongolab/internal/generator"
	"github.com/upcschool/mongolab/internal/models"
	apperrors "github.com/upcschool/mongolab/pkg/errors"
	"github.com/upcschool/mongolab/pkg/logger"
	labmongo "github.com/upcschool/mongolab/pkg/mongo"
)

const collCompanies = "m3_companies"

// personDoc is an embedded employee; it has no _id because persons only
// exist inside their company document.
type personDoc struct {
	Age          int    `bson:"age"`
	CompanyEmail string `bson:"companyEmail"`
	DateOfBirth  string `bson:"dateOfBirth"`
	FirstName    string `bson:"firstName"`
	LastName     string `bson:"lastName"`
	Sex          string `bson:"sex"`
}

type companyDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Domain    string             `bson:"domain"`
	Email     string             `bson:"email"`
	Name      string             `bson:"name"`
	URL       string             `bson:"url"`
	VATNumber string             `bson:"vatNumber"`
	Persons   []personDoc        `bson:"persons"`
}

// Model is the company-embedded single-collection strategy.
type Model struct {
	client    *labmongo.Client
	batchSize int
	logger    *slog.Logger
}

var _ models.Model = (*Model)(nil)

func New(client *labmongo.Client, batchSize int) *Model {
	return &Model{
		client:    client,
		batchSize: batchSize,
		logger:    logger.WithComponent("model3"),
	}
}

func (m *Model) Name() string { return "model3" }

func (m *Model) Collections() []string {
	return []string{collCompanies}
}

func (m *Model) Reset(ctx context.Context) error {
	if err := m.client.DropCollections(ctx, collCompanies); err != nil {
		return models.Wrap(err, m.Name(), "reset", apperrors.ErrInternal)
	}
	m.logger.Debug("collections reset", "collections", m.Collections())
	return nil
}

// Load groups persons under their company and inserts one document per
// company. The persons field is always an array, even when empty, so $size
// works on companies without employees.
func (m *Model) Load(ctx context.Context, ds *generator.Dataset) (models.LoadStats, error) {
	stats := models.LoadStats{}

	pre, err := m.client.Collection(collCompanies).CountDocuments(ctx, bson.D{})
	if err != nil {
		return stats, models.Wrap(err, m.Name(), models.OpLoad, apperrors.ErrLoad)
	}
	stats.PreExisting = pre
	if pre > 0 {
		m.logger.Warn("collections not empty before load", "existing_docs", pre)
	}

	buckets := make([][]personDoc, len(ds.Companies))
	for i := range buckets {
		buckets[i] = []personDoc{}
	}
	for _, p := range ds.Persons {
		buckets[p.Company] = append(buckets[p.Company], personDoc{
			Age:          p.Age,
			CompanyEmail: p.Email,
			DateOfBirth:  p.DateOfBirth,
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			Sex:          p.Sex,
		})
	}

	companies := m.client.Collection(collCompanies)
	for start := 0; start < len(ds.Companies); start += m.batchSize {
		end := start + m.batchSize
		if end > len(ds.Companies) {
			end = len(ds.Companies)
		}
		docs := make([]interface{}, 0, end-start)
		for i, c := range ds.Companies[start:end] {
			docs = append(docs, companyDoc{
				Domain:    c.Domain,
				Email:     c.Email,
				Name:      c.Name,
				URL:       c.URL,
				VATNumber: c.VATNumber,
				Persons:   buckets[start+i],
			})
			stats.Persons += len(buckets[start+i])
		}
		if _, err := companies.InsertMany(ctx, docs); err != nil {
			return stats, models.Wrap(err, m.Name(), models.OpLoad, apperrors.ErrLoad)
		}
		stats.Companies += len(docs)
		stats.Batches++
		m.logger.Debug("batch inserted", "collection", collCompanies, "batch", stats.Batches, "docs", len(docs))
	}

	m.logger.Info("load complete",
		"companies", stats.Companies, "persons", stats.Persons, "batches", stats.Batches)
	return stats, nil
}

// Directory unwinds the embedded arrays into one row per person.
func (m *Model) Directory(ctx context.Context) ([]models.DirectoryEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$persons"}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "firstName", Value: "$persons.firstName"},
			{Key: "lastName", Value: "$persons.lastName"},
			{Key: "company", Value: "$name"},
		}}},
	}

	cur, err := m.client.Collection(collCompanies).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpDirectory, apperrors.ErrQuery)
	}
	var out []models.DirectoryEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpDirectory, apperrors.ErrQuery)
	}
	return out, nil
}

// FindByCompany matches one company document and unwinds its employees.
func (m *Model) FindByCompany(ctx context.Context, company string) ([]models.DirectoryEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "name", Value: company}}}},
		{{Key: "$unwind", Value: "$persons"}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "firstName", Value: "$persons.firstName"},
			{Key: "lastName", Value: "$persons.lastName"},
			{Key: "company", Value: "$name"},
		}}},
	}

	cur, err := m.client.Collection(collCompanies).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpFindByCompany, apperrors.ErrQuery)
	}
	var out []models.DirectoryEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpFindByCompany, apperrors.ErrQuery)
	}
	return out, nil
}

// Headcounts projects the embedded array size per company; no join or group
// is needed, and empty companies report zero.
func (m *Model) Headcounts(ctx context.Context) ([]models.Headcount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "company", Value: "$name"},
			{Key: "employees", Value: bson.D{{Key: "$size", Value: "$persons"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "company", Value: 1}}}},
	}

	cur, err := m.client.Collection(collCompanies).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpHeadcounts, apperrors.ErrQuery)
	}
	var out []models.Headcount
	if err := cur.All(ctx, &out); err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpHeadcounts, apperrors.ErrQuery)
	}
	return out, nil
}

// UpdateAges touches embedded persons through an array filter. Matched counts
// company documents, so every company matches even when none of its
// employees qualify; Modified counts companies where at least one did.
func (m *Model) UpdateAges(ctx context.Context, bornBefore string, age int) (models.UpdateStats, error) {
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.D{{Key: "elem.dateOfBirth", Value: bson.D{{Key: "$lt", Value: bornBefore}}}},
		},
	})
	res, err := m.client.Collection(collCompanies).UpdateMany(ctx,
		bson.D{},
		bson.D{{Key: "$set", Value: bson.D{{Key: "persons.$[elem].age", Value: age}}}},
		opts,
	)
	if err != nil {
		return models.UpdateStats{}, models.Wrap(err, m.Name(), models.OpUpdateAges, apperrors.ErrUpdate)
	}
	return models.UpdateStats{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (m *Model) AppendCompanySuffix(ctx context.Context, suffix string) (models.UpdateStats, error) {
	res, err := m.client.Collection(collCompanies).UpdateMany(ctx,
		models.MissingSuffixFilter("name", suffix),
		models.AppendSuffixUpdate("name", suffix),
	)
	if err != nil {
		return models.UpdateStats{}, models.Wrap(err, m.Name(), models.OpAppendSuffix, apperrors.ErrUpdate)
	}
	return models.UpdateStats{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// CountPersons sums the embedded array sizes server-side.
func (m *Model) CountPersons(ctx context.Context) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "persons", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$size", Value: "$persons"}}}}},
		}}},
	}

	cur, err := m.client.Collection(collCompanies).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, models.Wrap(err, m.Name(), models.OpCount, apperrors.ErrQuery)
	}
	var totals []struct {
		Persons int64 `bson:"persons"`
	}
	if err := cur.All(ctx, &totals); err != nil {
		return 0, models.Wrap(err, m.Name(), models.OpCount, apperrors.ErrQuery)
	}
	if len(totals) == 0 {
		return 0, nil
	}
	return totals[0].Persons, nil
}
