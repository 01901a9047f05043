package serp

import (
	"strings"

	"serpwatch/models"
)

// CompetitorSet holds lower-cased competitor identifiers used for containment
// checks against listing links. Order is irrelevant and duplicates are
// harmless.
type CompetitorSet []string

// NewCompetitorSet trims, lower-cases, and drops empty identifiers.
func NewCompetitorSet(names []string) CompetitorSet {
	set := make(CompetitorSet, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		set = append(set, name)
	}
	return set
}

// Classify labels a link as Competitor when any competitor identifier is a
// substring of the lower-cased link. An empty link is always Other. This is a
// substring heuristic, not a registrable-domain match; a competitor token
// appearing inside an unrelated path is a known false-positive source.
func Classify(link string, competitors CompetitorSet) models.Status {
	if link == "" {
		return models.StatusOther
	}
	linkLower := strings.ToLower(link)
	for _, competitor := range competitors {
		if strings.Contains(linkLower, competitor) {
			return models.StatusCompetitor
		}
	}
	return models.StatusOther
}
