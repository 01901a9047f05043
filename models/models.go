// Package models defines the canonical records produced by a monitoring run.
package models

import "time"

// Status labels a listing as belonging to a known competitor or not.
type Status string

const (
	StatusCompetitor Status = "Competitor"
	StatusOther      Status = "Other"
)

// Listing is one paid or organic SERP entry in canonical form. Optional
// provider fields resolve to the empty string, never to an absence marker.
type Listing struct {
	Position    int    `json:"position"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Status      Status `json:"status"`
}

// RelatedSearch is one suggested query returned alongside SERP results,
// paired with the keyword that produced it.
type RelatedSearch struct {
	Seed  string `json:"seed"`
	Query string `json:"query"`
}

// KeywordOutcome records what happened for a single keyword. Err is nil when
// the keyword was processed end to end, even if it produced no rows.
type KeywordOutcome struct {
	Keyword     string
	ListingRows int
	RelatedRows int
	Err         error
}

// RunResult holds the overall result of one pipeline run.
type RunResult struct {
	StartTime      time.Time
	EndTime        time.Time
	Date           string // UTC calendar date stamped on every row of the run
	Outcomes       []KeywordOutcome
	FailedKeywords []string
	ErrorsByType   map[string]int
	ListingRows    int
	RelatedRows    int
	DedupeHits     int
}
