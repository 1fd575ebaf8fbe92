package models

import "time"

// NaturalKey names the non-surrogate field set used to detect duplicate listings
type NaturalKey string

const (
	KeyRefNo         NaturalKey = "ref_no"
	KeyTitleLocation NaturalKey = "title_location"
)

// Valid reports whether k is a supported natural key
func (k NaturalKey) Valid() bool {
	return k == KeyRefNo || k == KeyTitleLocation
}

// DuplicateGroupResult is the outcome of cleaning one natural-key group
type DuplicateGroupResult struct {
	Key     string  `json:"key"`
	Members int     `json:"members"`
	KeptID  int64   `json:"kept_id,omitempty"`
	Removed []int64 `json:"removed,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// CleanupStats summarizes a duplicate cleanup pass
type CleanupStats struct {
	Key               NaturalKey             `json:"key"`
	GroupsScanned     int                    `json:"groups_scanned"`
	DuplicatesFound   int                    `json:"duplicates_found"`
	DuplicatesRemoved int                    `json:"duplicates_removed"`
	Errors            int                    `json:"errors"`
	Groups            []DuplicateGroupResult `json:"groups"`
}

// DuplicateMatch is one kind of match found by the pre-insertion check
type DuplicateMatch struct {
	Type       NaturalKey `json:"type"`
	Count      int        `json:"count"`
	Properties []Property `json:"properties"`
}

// DuplicateCheck is the result of checking a candidate listing before insertion
type DuplicateCheck struct {
	HasDuplicates bool             `json:"has_duplicates"`
	Matches       []DuplicateMatch `json:"matches"`
}

// Total returns the number of matching rows across all match groups
func (c DuplicateCheck) Total() int {
	total := 0
	for _, m := range c.Matches {
		total += m.Count
	}
	return total
}

// SyncFailure identifies a record the sync routine could not persist
type SyncFailure struct {
	RefNo string `json:"ref_no"`
	Title string `json:"title"`
	Error string `json:"error"`
}

// SyncStats summarizes a dataset sync run
type SyncStats struct {
	Total      int           `json:"total"`
	Synced     int           `json:"synced"`
	Inserted   int           `json:"inserted"`
	Updated    int           `json:"updated"`
	Errors     int           `json:"errors"`
	Failures   []SyncFailure `json:"failures,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// TranslationProgress reports how far a slug translation pass got
type TranslationProgress struct {
	Languages   []string `json:"languages"`
	Processed   int      `json:"processed"`
	Translated  int      `json:"translated"`
	Failed      int      `json:"failed"`
	Remaining   int64    `json:"remaining"`
	NextAfterID int64    `json:"next_after_id"`
	Batches     int      `json:"batches"`
	Done        bool     `json:"done"`
	Continued   bool     `json:"continued"`
}

// TranslationJob is a queued request to keep translating slugs in the background
type TranslationJob struct {
	BatchSize        int
	Languages        []string
	ForceRetranslate bool
	AfterID          int64
}

// GeocodeStats summarizes a placeholder coordinate repair pass
type GeocodeStats struct {
	Candidates int `json:"candidates"`
	Updated    int `json:"updated"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}
