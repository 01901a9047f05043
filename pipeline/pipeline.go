// Package pipeline drives one monitoring run: fetch, normalize, classify,
// and append, one keyword at a time.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"serpwatch/models"
	"serpwatch/serp"
	"serpwatch/serper"
	"serpwatch/sheets"
)

// ListingsHeader is the column layout of the listings table.
var ListingsHeader = []string{"Date", "Keyword", "Position", "Status", "Title", "Description", "Link"}

// RelatedHeader returns the related-searches column layout for a shape. The
// ads integration records the suggestion alone; the organic one pairs it with
// the seed keyword.
func RelatedHeader(shape serp.Shape) []string {
	if shape == serp.ShapeOrganic {
		return []string{"SeedKeyword", "RelatedKeyword", "Date"}
	}
	return []string{"Keyword", "Date"}
}

// Fetcher fetches one raw provider response per keyword.
type Fetcher interface {
	Fetch(ctx context.Context, keyword string) (map[string]any, error)
}

// Options configures a Pipeline.
type Options struct {
	Fetcher     Fetcher
	Shape       serp.Shape
	Listings    *sheets.TableWriter
	Related     *sheets.TableWriter
	Competitors []string

	// RequestInterval paces provider calls; zero disables pacing.
	RequestInterval time.Duration
	// DedupeMaxSize bounds the related-search dedupe cache; zero disables
	// deduplication.
	DedupeMaxSize int

	Metrics *Metrics
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Pipeline runs keywords sequentially through fetch → normalize → classify →
// write. A keyword failure is logged and skipped; the run always attempts
// every keyword.
type Pipeline struct {
	fetcher     Fetcher
	shape       serp.Shape
	listings    *sheets.TableWriter
	related     *sheets.TableWriter
	competitors serp.CompetitorSet
	limiter     *rate.Limiter
	seen        *lru.Cache[string, struct{}]
	dedupeHits  int
	metrics     *Metrics
	now         func() time.Time
}

// New builds a pipeline from options.
func New(opts Options) (*Pipeline, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("pipeline: fetcher is required")
	}
	if opts.Listings == nil || opts.Related == nil {
		return nil, fmt.Errorf("pipeline: both table writers are required")
	}

	p := &Pipeline{
		fetcher:     opts.Fetcher,
		shape:       opts.Shape,
		listings:    opts.Listings,
		related:     opts.Related,
		competitors: serp.NewCompetitorSet(opts.Competitors),
		metrics:     opts.Metrics,
		now:         opts.Now,
	}
	if p.now == nil {
		p.now = time.Now
	}
	if opts.RequestInterval > 0 {
		p.limiter = rate.NewLimiter(rate.Every(opts.RequestInterval), 1)
	}
	if opts.DedupeMaxSize > 0 {
		seen, err := lru.New[string, struct{}](opts.DedupeMaxSize)
		if err != nil {
			return nil, fmt.Errorf("pipeline: dedupe cache: %w", err)
		}
		p.seen = seen
	}
	return p, nil
}

// Run processes every keyword in order and returns the run summary. The run
// date is computed once and stamped on every row; per-keyword failures are
// collected, never propagated.
func (p *Pipeline) Run(ctx context.Context, keywords []string) *models.RunResult {
	start := p.now()
	p.dedupeHits = 0
	result := &models.RunResult{
		StartTime:    start,
		Date:         start.UTC().Format(time.DateOnly),
		ErrorsByType: make(map[string]int),
	}

	for _, keyword := range keywords {
		outcome := p.processKeyword(ctx, keyword, result.Date)
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.Err != nil {
			label := serper.ErrorTypeLabel(outcome.Err)
			result.FailedKeywords = append(result.FailedKeywords, keyword)
			result.ErrorsByType[label]++
			p.metrics.IncKeyword("failed")
			p.metrics.IncError(label)
			slog.Error("keyword failed",
				slog.String("keyword", keyword),
				slog.String("error_type", label),
				slog.Any("error", outcome.Err),
			)
			continue
		}

		result.ListingRows += outcome.ListingRows
		result.RelatedRows += outcome.RelatedRows
		p.metrics.IncKeyword("ok")
	}

	result.EndTime = p.now()
	result.DedupeHits = p.dedupeHits
	return result
}

func (p *Pipeline) processKeyword(ctx context.Context, keyword, date string) models.KeywordOutcome {
	outcome := models.KeywordOutcome{Keyword: keyword}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			outcome.Err = fmt.Errorf("rate limiter: %w", err)
			return outcome
		}
	}

	fetchStart := time.Now()
	raw, err := p.fetcher.Fetch(ctx, keyword)
	p.metrics.ObserveFetch(time.Since(fetchStart))
	if err != nil {
		outcome.Err = err
		return outcome
	}

	listings, related := serp.Normalize(raw, p.shape)
	for i := range listings {
		listings[i].Status = serp.Classify(listings[i].Link, p.competitors)
	}
	for i := range related {
		related[i].Seed = keyword
	}

	if len(listings) > 0 {
		rows := listingRows(date, keyword, listings)
		if err := p.writeRows(ctx, p.listings, ListingsHeader, rows); err != nil {
			outcome.Err = err
			return outcome
		}
		outcome.ListingRows = len(rows)
		p.metrics.AddRows(p.listings.Name(), len(rows))
	} else {
		slog.Info("no listings in response", slog.String("keyword", keyword))
	}

	related = p.dedupe(related)
	if len(related) > 0 {
		rows := p.relatedRows(date, related)
		if err := p.writeRows(ctx, p.related, RelatedHeader(p.shape), rows); err != nil {
			outcome.Err = err
			return outcome
		}
		outcome.RelatedRows = len(rows)
		p.metrics.AddRows(p.related.Name(), len(rows))
	} else {
		slog.Info("no related searches in response", slog.String("keyword", keyword))
	}

	return outcome
}

func (p *Pipeline) writeRows(ctx context.Context, writer *sheets.TableWriter, header []string, rows [][]string) error {
	if err := writer.EnsureHeader(ctx, header); err != nil {
		return err
	}
	return writer.AppendRows(ctx, rows)
}

// dedupe drops related searches already appended earlier in this run. The
// cache is bounded, so a very long keyword list may re-admit old entries;
// duplicate rows are harmless in an append-only table.
func (p *Pipeline) dedupe(related []models.RelatedSearch) []models.RelatedSearch {
	if p.seen == nil {
		return related
	}
	kept := related[:0]
	for _, r := range related {
		if _, ok := p.seen.Get(r.Query); ok {
			p.dedupeHits++
			p.metrics.IncDedupeHit()
			continue
		}
		p.seen.Add(r.Query, struct{}{})
		kept = append(kept, r)
	}
	return kept
}

func listingRows(date, keyword string, listings []models.Listing) [][]string {
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, []string{
			date,
			keyword,
			strconv.Itoa(l.Position),
			string(l.Status),
			l.Title,
			l.Description,
			l.Link,
		})
	}
	return rows
}

func (p *Pipeline) relatedRows(date string, related []models.RelatedSearch) [][]string {
	rows := make([][]string, 0, len(related))
	for _, r := range related {
		if p.shape == serp.ShapeOrganic {
			rows = append(rows, []string{r.Seed, r.Query, date})
			continue
		}
		rows = append(rows, []string{r.Query, date})
	}
	return rows
}
