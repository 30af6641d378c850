// Package model1 implements the normalized strategy: persons and companies
// live in separate collections, and each person references its company by
// ObjectID. Joins happen at query time with $lookup.
package model1

import (
	"context"
	"errors"
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

const (
	collCompanies = "m1_companies"
	collPersons   = "m1_persons"
)

type companyDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Domain    string             `bson:"domain"`
	Email     string             `bson:"email"`
	Name      string             `bson:"name"`
	URL       string             `bson:"url"`
	VATNumber string             `bson:"vatNumber"`
}

type personDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Age          int                `bson:"age"`
	CompanyEmail string             `bson:"companyEmail"`
	DateOfBirth  string             `bson:"dateOfBirth"`
	FirstName    string             `bson:"firstName"`
	LastName     string             `bson:"lastName"`
	Sex          string             `bson:"sex"`
	CompanyRel   primitive.ObjectID `bson:"company-rel"`
}

// Model is the normalized two-collection strategy.
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
		logger:    logger.WithComponent("model1"),
	}
}

func (m *Model) Name() string { return "model1" }

func (m *Model) Collections() []string {
	return []string{collCompanies, collPersons}
}

// Reset drops and recreates both collections.
func (m *Model) Reset(ctx context.Context) error {
	if err := m.client.DropCollections(ctx, collCompanies, collPersons); err != nil {
		return models.Wrap(err, m.Name(), "reset", apperrors.ErrInternal)
	}
	for _, name := range m.Collections() {
		if err := m.client.CreateCollection(ctx, name); err != nil {
			return models.Wrap(err, m.Name(), "reset", apperrors.ErrInternal)
		}
	}
	m.logger.Debug("collections reset", "collections", m.Collections())
	return nil
}

// Load inserts companies first, then persons referencing the inserted
// company ids. Batches are ordered inserts, so inserted ids line up with the
// dataset's company order.
func (m *Model) Load(ctx context.Context, ds *generator.Dataset) (models.LoadStats, error) {
	stats := models.LoadStats{}

	pre, err := m.preExisting(ctx)
	if err != nil {
		return stats, models.Wrap(err, m.Name(), models.OpLoad, apperrors.ErrLoad)
	}
	stats.PreExisting = pre
	if pre > 0 {
		m.logger.Warn("collections not empty before load", "existing_docs", pre)
	}

	ids := make([]primitive.ObjectID, 0, len(ds.Companies))
	companies := m.client.Collection(collCompanies)
	for start := 0; start < len(ds.Companies); start += m.batchSize {
		end := start + m.batchSize
		if end > len(ds.Companies) {
			end = len(ds.Companies)
		}
		docs := make([]interface{}, 0, end-start)
		for _, c := range ds.Companies[start:end] {
			docs = append(docs, companyDoc{
				Domain:    c.Domain,
				Email:     c.Email,
				Name:      c.Name,
				URL:       c.URL,
				VATNumber: c.VATNumber,
			})
		}
		res, err := companies.InsertMany(ctx, docs)
		if err != nil {
			return stats, models.Wrap(err, m.Name(), models.OpLoad, apperrors.ErrLoad)
		}
		for _, id := range res.InsertedIDs {
			oid, ok := id.(primitive.ObjectID)
			if !ok {
				return stats, apperrors.Newf(apperrors.ErrInternal, m.Name(), models.OpLoad,
					"unexpected inserted id type %T", id)
			}
			ids = append(ids, oid)
		}
		stats.Companies += len(docs)
		stats.Batches++
		m.logger.Debug("batch inserted",
			"collection", collCompanies, "batch", stats.Batches, "docs", len(docs))
	}

	persons := m.client.Collection(collPersons)
	for start := 0; start < len(ds.Persons); start += m.batchSize {
		end := start + m.batchSize
		if end > len(ds.Persons) {
			end = len(ds.Persons)
		}
		docs := make([]interface{}, 0, end-start)
		for _, p := range ds.Persons[start:end] {
			docs = append(docs, personDoc{
				Age:          p.Age,
				CompanyEmail: p.Email,
				DateOfBirth:  p.DateOfBirth,
				FirstName:    p.FirstName,
				LastName:     p.LastName,
				Sex:          p.Sex,
				CompanyRel:   ids[p.Company],
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

	m.logger.Info("load complete",
		"companies", stats.Companies, "persons", stats.Persons, "batches", stats.Batches)
	return stats, nil
}

// Directory joins persons to companies with $lookup and flattens the result.
func (m *Model) Directory(ctx context.Context) ([]models.DirectoryEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collCompanies},
			{Key: "localField", Value: "company-rel"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "company"},
		}}},
		{{Key: "$unwind", Value: "$company"}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "firstName", Value: 1},
			{Key: "lastName", Value: 1},
			{Key: "company", Value: "$company.name"},
		}}},
	}

	cur, err := m.client.Collection(collPersons).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpDirectory, apperrors.ErrQuery)
	}
	var out []models.DirectoryEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpDirectory, apperrors.ErrQuery)
	}
	return out, nil
}

// FindByCompany resolves the company id by name, then fetches its employees.
func (m *Model) FindByCompany(ctx context.Context, company string) ([]models.DirectoryEntry, error) {
	var c companyDoc
	err := m.client.Collection(collCompanies).
		FindOne(ctx, bson.D{{Key: "name", Value: company}}).
		Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []models.DirectoryEntry{}, nil
	}
	if err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpFindByCompany, apperrors.ErrQuery)
	}

	opts := options.Find().SetProjection(bson.D{
		{Key: "_id", Value: 0},
		{Key: "firstName", Value: 1},
		{Key: "lastName", Value: 1},
	})
	cur, err := m.client.Collection(collPersons).
		Find(ctx, bson.D{{Key: "company-rel", Value: c.ID}}, opts)
	if err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpFindByCompany, apperrors.ErrQuery)
	}
	var out []models.DirectoryEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, models.Wrap(err, m.Name(), models.OpFindByCompany, apperrors.ErrQuery)
	}
	for i := range out {
		out[i].Company = c.Name
	}
	return out, nil
}

// Headcounts reverses the join: companies look up their persons and project
// the array size, so companies without employees still report zero.
func (m *Model) Headcounts(ctx context.Context) ([]models.Headcount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collPersons},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "company-rel"},
			{Key: "as", Value: "employees"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "company", Value: "$name"},
			{Key: "employees", Value: bson.D{{Key: "$size", Value: "$employees"}}},
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

// UpdateAges sets age on every person born before the cutoff. Dates are
// "YYYY-MM-DD" strings, so $lt compares them lexicographically.
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

// AppendCompanySuffix renames companies whose name does not already contain
// the suffix.
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

func (m *Model) CountPersons(ctx context.Context) (int64, error) {
	n, err := m.client.Collection(collPersons).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, models.Wrap(err, m.Name(), models.OpCount, apperrors.ErrQuery)
	}
	return n, nil
}

func (m *Model) preExisting(ctx context.Context) (int64, error) {
	var total int64
	for _, name := range m.Collections() {
		n, err := m.client.Collection(name).CountDocuments(ctx, bson.D{})
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
