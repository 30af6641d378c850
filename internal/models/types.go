package models

// DirectoryEntry is one row of the person directory: who they are and where
// they work. All strategies produce this flat shape regardless of how the
// company is stored.
type DirectoryEntry struct {
	FirstName string `bson:"firstName"`
	LastName  string `bson:"lastName"`
	Company   string `bson:"company"`
}

// Headcount is the employee count for one company.
type Headcount struct {
	Company   string `bson:"company"`
	Employees int64  `bson:"employees"`
}

// LoadStats summarizes one load phase.
type LoadStats struct {
	// Companies and Persons are the counts inserted by this load.
	Companies int
	Persons   int
	// Batches is the number of bulk inserts issued.
	Batches int
	// PreExisting is how many documents were already present across the
	// model's collections before this load. Non-zero means the collections
	// were not reset and the stored data is now a mix.
	PreExisting int64
}

// UpdateStats reports what a bulk update touched. The unit depends on the
// strategy: matched documents are persons for person-rooted schemas and
// companies for company-rooted ones.
type UpdateStats struct {
	Matched  int64
	Modified int64
}
