// Package modeltest provides shared helpers for exercising Model
// implementations against a real MongoDB instance. Tests that use it skip
// when no server is reachable, so the suite stays runnable offline.
package modeltest

import (
	"context"
	"os"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/upcschool/mongolab/internal/generator"
	"github.com/upcschool/mongolab/internal/models"
	"github.com/upcschool/mongolab/pkg/config"
	labmongo "github.com/upcschool/mongolab/pkg/mongo"
)

// Config returns the connection settings for the test database, overridable
// through TEST_MONGO_* environment variables. The database defaults to
// mongolab_test so test loads never touch lab data.
func Config() config.MongoConfig {
	return config.MongoConfig{
		Host:           envOrDefault("TEST_MONGO_HOST", "localhost"),
		Port:           envOrDefaultInt("TEST_MONGO_PORT", 27017),
		Database:       envOrDefault("TEST_MONGO_DB", "mongolab_test"),
		ConnectTimeout: 2 * time.Second,
	}
}

// Client connects to the test MongoDB and skips the test when the server is
// unavailable. The connection is closed on cleanup.
func Client(t *testing.T) *labmongo.Client {
	t.Helper()

	client, err := labmongo.New(context.Background(), Config())
	if err != nil {
		t.Skipf("skipping integration test: mongodb unavailable: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		client.Close(context.Background())
		t.Skipf("skipping integration test: mongodb unavailable: %v", err)
	}

	t.Cleanup(func() {
		client.Close(context.Background())
	})
	return client
}

// Dataset returns a small fixed population: three companies, of which the
// third has no employees. Persons reference companies by index.
func Dataset() *generator.Dataset {
	return &generator.Dataset{
		Companies: []generator.Company{
			{
				Name:      "Acme Group",
				Domain:    "acme-group.com",
				Email:     "info@acme-group.com",
				URL:       "https://www.acme-group.com",
				VATNumber: "IT00000000001",
			},
			{
				Name:      "Globex LLC",
				Domain:    "globex-llc.com",
				Email:     "info@globex-llc.com",
				URL:       "https://www.globex-llc.com",
				VATNumber: "IT00000000002",
			},
			{
				Name:      "Initech Ltd",
				Domain:    "initech-ltd.com",
				Email:     "info@initech-ltd.com",
				URL:       "https://www.initech-ltd.com",
				VATNumber: "IT00000000003",
			},
		},
		Persons: []generator.Person{
			{FirstName: "Alice", LastName: "Smith", Sex: "F", DateOfBirth: "1980-03-15", Age: 45, Email: "alice.smith@acme-group.com", Company: 0},
			{FirstName: "Bob", LastName: "Jones", Sex: "M", DateOfBirth: "1995-07-01", Age: 30, Email: "bob.jones@acme-group.com", Company: 0},
			{FirstName: "Carol", LastName: "Lee", Sex: "F", DateOfBirth: "1986-12-31", Age: 39, Email: "carol.lee@acme-group.com", Company: 0},
			{FirstName: "Dave", LastName: "Kim", Sex: "M", DateOfBirth: "1990-01-01", Age: 35, Email: "dave.kim@globex-llc.com", Company: 1},
			{FirstName: "Eve", LastName: "Brown", Sex: "F", DateOfBirth: "1975-06-10", Age: 50, Email: "eve.brown@globex-llc.com", Company: 1},
		},
	}
}

// BornBeforeCutoff matches Alice, Carol, and Eve from Dataset but not Bob or
// Dave.
const BornBeforeCutoff = "1988-01-01"

// SortEntries orders directory entries by last name then first name, so
// tests can compare results regardless of server return order.
func SortEntries(entries []models.DirectoryEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LastName != entries[j].LastName {
			return entries[i].LastName < entries[j].LastName
		}
		return entries[i].FirstName < entries[j].FirstName
	})
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
