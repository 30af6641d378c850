// Package model2 implements the person-embedded strategy: a single
// collection of persons, each carrying a full copy of its company. Reads
// that start from a person need no join; anything company-centric has to
// group over the embedded copies.
package model2

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

const collPersons = "m2_persons"

// companyDoc is the embedded copy; it has no _id of its own because the
// company only exists inside person documents.
type companyDoc struct {
	Domain    string `bson:"domain"`
	Email     string `bson:"email"`
	Name      string `bson:"name"`
	URL       string `bson:"url"`
	VATNumber string `bson:"vatNumber"`
}

type personDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Age          int                `bson:"age"`
	CompanyEmail string             `bson:"companyEmail"`
	DateOfBirth  string             `bson:"dateOfBirth"`
	FirstName    string             `bson:"firstName"`
	LastName     string             `bson:"lastName"`
	Sex          string             `bson:"sex"`
	Company      companyDoc         `bson:"company"`
}

// Model is the person-embedded single-collection strategy.
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
		logger:    logger.WithComponent("model2"),
	}
}

func (m *Model) Name() string { return "model2" }

func (m *Model) Collections() []string {
	return []string{collPersons}
}

func (m *Model) Reset(ctx context.Context) error {
	if err := m.client.DropCollections(ctx, collPersons); err != nil {
		return models.Wrap(err, m.Name(), "reset", apperrors.ErrInternal)
	}
	m.logger.Debug("collections reset", "collections", m.Collections())
	return nil
}

// Load inserts one document per person, each embedding its company. Company
// documents are never stored on their own, so a company without employees
// leaves no trace in this model.
func (m *Model) Load(ctx context.Context, ds *generator.Dataset) (models.LoadStats, error) {
	stats := models.LoadStats{}

	pre, err := m.client.Collection(collPersons).CountDocuments(ctx, bson.D{})
	if err != nil {
		return stats, models.Wrap(err, m.Name(), models.OpLoad, apperrors.ErrLoad)
	}
	stats.PreExisting = pre
	if pre > 0 {
		m.logger.Warn("collections not empty before load", "existing_docs", pre)
	}

	persons := m.client.Collection(collPersons)
	for start := 0; start < len(ds.Persons); start += m.batchSize {
		end := start + m.batchSize
		if end > len(ds.Persons) {
			end = len(ds.Persons)
		}
		docs := make([]interface{}, 0, end-start)
		for _, p := range ds.Persons[start:end] {
			c := ds.Companies[p.Company]
			docs = append(docs, personDoc{
				Age:          p.Age,
				CompanyEmail: p.Email,
				DateOfBirth:  p.DateOfBirth,
				FirstName:    p.FirstName,
				LastName:     p.LastName,
				Sex:          p.Sex,
				Company: companyDoc{
					Domain:    c.Domain,
					Email:     c.Email,
					Name:      c.Name,
					URL:       c.URL,
					VATNumber: c.VATNumber,
				},
			})
		}
		if _, err := persons.InsertMany(ctx, docs); err != nil {
			return stats, models.Wrap(err, m.Name(), models.OpLoad, apperrors.ErrLoad)
		}
		stats.Persons += len(docs)
		stats.Batches++
		m.logger.Debug("batch inserted",
			"collection", collPersons, "batch", stats.Batches, "docs", len(docs))
	}

	m.logger.Info("load complete", "persons", stats.Persons, "batches", stats.Batches)
	return stats, nil
}

// Directory is a plain find with a projection; the company name is already
// inside each person document.
func (m *Model) Directory(ctx context.Context) ([]models.DirectoryEntry, error) {
	opts := options.Find().SetProjection(bson.D{
		{Key: "_id", Value: 0},
		{Key: "firstName", Value: 1},
		{Key: "lastName", Value: 1},
		{Key: "company.name", Value: 1},
	})
	cur, err := m.client.Collection(collPersons).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpDirectory, apperrors.ErrQuery)
	}
	var rows []directoryRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpDirectory, apperrors.ErrQuery)
	}
	return flatten(rows), nil
}

func (m *Model) FindByCompany(ctx context.Context, company string) ([]models.DirectoryEntry, error) {
	opts := options.Find().SetProjection(bson.D{
		{Key: "_id", Value: 0},
		{Key: "firstName", Value: 1},
		{Key: "lastName", Value: 1},
		{Key: "company.name", Value: 1},
	})
	cur, err := m.client.Collection(collPersons).
		Find(ctx, bson.D{{Key: "company.name", Value: company}}, opts)
	if err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpFindByCompany, apperrors.ErrQuery)
	}
	var rows []directoryRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpFindByCompany, apperrors.ErrQuery)
	}
	return flatten(rows), nil
}

// Headcounts groups persons by their embedded company name. Companies with
// no employees cannot appear: the schema has no standalone company documents.
func (m *Model) Headcounts(ctx context.Context) ([]models.Headcount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$company.name"},
			{Key: "employees", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "company", Value: "$_id"},
			{Key: "employees", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "company", Value: 1}}}},
	}

	cur, err := m.client.Collection(collPersons).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpHeadcounts, apperrors.ErrQuery)
	}
	var out []models.Headcount
	if err := cur.All(ctx, &out); err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpHeadcounts, apperrors.ErrQuery)
	}
	return out, nil
}

func (m *Model) UpdateAges(ctx context.Context, bornBefore string, age int) (models.UpdateStats, error) {
	res, err := m.client.Collection(collPersons).UpdateMany(ctx,
		bson.D{{Key: "dateOfBirth", Value: bson.D{{Key: "$lt", Value: bornBefore}}}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "age", Value: age}}}},
	)
	if err != nil {
		return models.UpdateStats{}, models.Wrap(err, m.Name(), models.OpUpdateAges, apperrors.ErrUpdate)
	}
	return models.UpdateStats{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// AppendCompanySuffix rewrites the embedded copy in every matching person
// document. Matched counts persons, not companies: the same company is
// renamed once per employee.
func (m *Model) AppendCompanySuffix(ctx context.Context, suffix string) (models.UpdateStats, error) {
	res, err := m.client.Collection(collPersons).UpdateMany(ctx,
		models.MissingSuffixFilter("company.name", suffix),
		models.AppendSuffixUpdate("company.name", suffix),
	)
	if err != nil {
		return models.UpdateStats{}, models.Wrap(err, m.Name(), models.OpAppendSuffix, apperrors.ErrUpdate)
	}
	return models.UpdateStats{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (m *Model) CountPersons(ctx context.Context) (int64, error) {
	n, err := m.client.Collection(collPersons).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, models.Wrap(err, m.Name(), models.OpCount, apperrors.ErrQuery)
	}
	return n, nil
}

// directoryRow matches the nested projection shape before flattening.
type directoryRow struct {
	FirstName string `bson:"firstName"`
	LastName  string `bson:"lastName"`
	Company   struct {
		Name string `bson:"name"`
	} `bson:"company"`
}

func flatten(rows []directoryRow) []models.DirectoryEntry {
	out := make([]models.DirectoryEntry, len(rows))
	for i, r := range rows {
		out[i] = models.DirectoryEntry{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Company:   r.Company.Name,
		}
	}
	return out
}
