package generator

import (
	"math/rand"
	"strings"
)

// faker produces random names in the style of the usual fake-data libraries.
// Methods take the rng explicitly so a seeded run is fully deterministic.
type faker struct {
	maleFirst   []string
	femaleFirst []string
	last        []string
	suffixes    []string
}

func newFaker() faker {
	return faker{
		maleFirst:   maleFirstNames,
		femaleFirst: femaleFirstNames,
		last:        lastNames,
		suffixes:    companySuffixes,
	}
}

func (f faker) firstName(rng *rand.Rand, sex string) string {
	if sex == SexFemale {
		return pick(rng, f.femaleFirst)
	}
	return pick(rng, f.maleFirst)
}

func (f faker) lastName(rng *rand.Rand) string {
	return pick(rng, f.last)
}

// companyName builds a name in one of three shapes: "Last Suffix",
// "Last-Last", or "Last, Last and Last".
func (f faker) companyName(rng *rand.Rand) string {
	switch rng.Intn(3) {
	case 0:
		return pick(rng, f.last) + " " + pick(rng, f.suffixes)
	case 1:
		return pick(rng, f.last) + "-" + pick(rng, f.last)
	default:
		return pick(rng, f.last) + ", " + pick(rng, f.last) + " and " + pick(rng, f.last)
	}
}

// domainFor derives a stable domain from a company name, e.g.
// "Smith, Jones and Lee" becomes "smith-jones-and-lee.com".
func domainFor(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-") + ".com"
}

func pick(rng *rand.Rand, list []string) string {
	return list[rng.Intn(len(list))]
}

func randInt(rng *rand.Rand, minInclusive, maxInclusive int) int {
	return rng.Intn(maxInclusive-minInclusive+1) + minInclusive
}
