// Package generator produces the synthetic dataset shared by all three
// document models: a pool of companies and a larger pool of persons assigned
// to them round-robin. Generation is pure; persistence belongs to the models.
package generator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const (
	// personsPerCompany sets the company count to total/500, matching the
	// dataset shape the queries are calibrated for.
	personsPerCompany = 500

	minAge = 25
	maxAge = 75

	SexMale   = "M"
	SexFemale = "F"
)

// Config controls dataset generation.
type Config struct {
	// Count is the total number of documents, companies plus persons.
	Count int
	// Seed makes output deterministic; 0 seeds from the clock.
	Seed int64
}

// Company is a generated company prior to any model-specific shaping.
type Company struct {
	Name      string
	Domain    string
	Email     string
	URL       string
	VATNumber string
}

// Person is a generated person. Company is the index into the dataset's
// company slice; each model resolves it to a reference or an embedded
// document as its schema requires.
type Person struct {
	FirstName   string
	LastName    string
	Sex         string
	DateOfBirth string
	Age         int
	Email       string
	Company     int
}

// Dataset is one generated population, shared across model loads so every
// model stores identical data.
type Dataset struct {
	Companies []Company
	Persons   []Person
}

// Counts splits a total document count into companies and persons. Any
// positive total yields at least one company so person assignment always has
// a target.
func Counts(total int) (companies, persons int) {
	if total <= 0 {
		return 0, 0
	}
	companies = total / personsPerCompany
	if companies == 0 {
		companies = 1
	}
	return companies, total - companies
}

// Generate builds a dataset of cfg.Count documents. Company names are unique
// within a dataset so name-keyed aggregations count each company exactly once.
func Generate(cfg Config) *Dataset {
	nCompanies, nPersons := Counts(cfg.Count)
	if nCompanies == 0 {
		return &Dataset{}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	f := newFaker()
	year := time.Now().Year()

	companies := make([]Company, 0, nCompanies)
	seen := make(map[string]struct{}, nCompanies)
	for i := 0; i < nCompanies; i++ {
		name := f.companyName(rng)
		for attempt := 0; attempt < 5; attempt++ {
			if _, dup := seen[name]; !dup {
				break
			}
			name = f.companyName(rng)
		}
		if _, dup := seen[name]; dup {
			// Generated names never contain digits, so a numbered
			// variant cannot collide.
			name = fmt.Sprintf("%s %d", name, i)
		}
		seen[name] = struct{}{}

		domain := domainFor(name)
		companies = append(companies, Company{
			Name:      name,
			Domain:    domain,
			Email:     "info@" + domain,
			URL:       "https://www." + domain,
			VATNumber: fmt.Sprintf("IT%011d", rng.Int63n(100000000000)),
		})
	}

	persons := make([]Person, 0, nPersons)
	for i := 0; i < nPersons; i++ {
		sex := SexMale
		if rng.Intn(2) == 0 {
			sex = SexFemale
		}
		first := f.firstName(rng, sex)
		last := f.lastName(rng)
		age := randInt(rng, minAge, maxAge)
		dob := fmt.Sprintf("%04d-%02d-%02d", year-age, randInt(rng, 1, 12), randInt(rng, 1, 28))

		c := i % nCompanies
		persons = append(persons, Person{
			FirstName:   first,
			LastName:    last,
			Sex:         sex,
			DateOfBirth: dob,
			Age:         age,
			Email:       fmt.Sprintf("%s.%s@%s", strings.ToLower(first), strings.ToLower(last), companies[c].Domain),
			Company:     c,
		})
	}

	return &Dataset{Companies: companies, Persons: persons}
}
