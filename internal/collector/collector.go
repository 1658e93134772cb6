package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/rank-harvester/internal/domain"
	"github.com/samvad-hq/rank-harvester/internal/limiter"
	"github.com/samvad-hq/rank-harvester/internal/logger"
	"github.com/samvad-hq/rank-harvester/internal/metrics"
	"github.com/samvad-hq/rank-harvester/internal/storage"
	"github.com/samvad-hq/rank-harvester/pkg/publishers"
)

// Options wires the collaborators of a Collector. Fetcher, Limiter and Writer
// are required; the rest are optional.
type Options struct {
	Fetcher     Fetcher
	Limiter     *limiter.Limiter
	Writer      SnapshotWriter
	Categories  []string
	Collections []string
	Recorder    OutcomeRecorder
	Publisher   EventPublisher
	Metrics     *metrics.Metrics
	Log         logger.Logger
}

// Collector fans every (category, collection) pair of every country out
// through one shared limiter and writes one snapshot per country.
type Collector struct {
	fetcher     Fetcher
	limiter     *limiter.Limiter
	writer      SnapshotWriter
	categories  []string
	collections []string
	recorder    OutcomeRecorder
	publisher   EventPublisher
	metrics     *metrics.Metrics
	log         logger.Logger
	now         func() time.Time
}

// CountryReport summarizes one country of a run.
type CountryReport struct {
	Country    string `json:"country"`
	Path       string `json:"path,omitempty"`
	Categories int    `json:"categories"`
	Lists      int    `json:"lists"`
	Failed     int    `json:"failed"`
	Empty      int    `json:"empty"`
}

// Report summarizes a run.
type Report struct {
	Date      string          `json:"date"`
	Countries []CountryReport `json:"countries"`
	Lists     int             `json:"lists"`
	Failed    int             `json:"failed"`
}

// New validates opts and builds a Collector.
func New(opts Options) (*Collector, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("collector requires a fetcher")
	}
	if opts.Limiter == nil {
		return nil, errors.New("collector requires a limiter")
	}
	if opts.Writer == nil {
		return nil, errors.New("collector requires a snapshot writer")
	}
	if len(opts.Categories) == 0 || len(opts.Collections) == 0 {
		return nil, errors.New("collector requires categories and collections")
	}
	return &Collector{
		fetcher:     opts.Fetcher,
		limiter:     opts.Limiter,
		writer:      opts.Writer,
		categories:  append([]string(nil), opts.Categories...),
		collections: append([]string(nil), opts.Collections...),
		recorder:    opts.Recorder,
		publisher:   opts.Publisher,
		metrics:     opts.Metrics,
		log:         logger.Ensure(opts.Log),
		now:         time.Now,
	}, nil
}

// Collect fetches every ranking of country and returns the snapshot in
// canonical key order.
func (c *Collector) Collect(ctx context.Context, country string) *domain.Snapshot {
	snap, _ := c.collect(ctx, domain.FormatDate(c.now().UTC()), country)
	return snap
}

// Run collects every country concurrently and writes one artifact per
// country into the folder for date. A failed write does not stop the other
// countries; all write failures are returned together once every country is
// done.
func (c *Collector) Run(ctx context.Context, date time.Time, countries []string) (Report, error) {
	day := domain.FormatDate(date)
	report := Report{Date: day}
	if len(countries) == 0 {
		return report, fmt.Errorf("no countries configured for collection")
	}
	if err := c.writer.Prepare(date); err != nil {
		return report, fmt.Errorf("prepare snapshot folder %s: %w", day, err)
	}

	reports := make([]CountryReport, len(countries))
	errs := make([]error, len(countries))

	var wg sync.WaitGroup
	for i, country := range countries {
		wg.Add(1)
		go func(i int, country string) {
			defer wg.Done()
			reports[i], errs[i] = c.runCountry(ctx, date, country)
		}(i, country)
	}
	wg.Wait()

	for _, r := range reports {
		report.Lists += r.Lists
		report.Failed += r.Failed
	}
	report.Countries = reports
	return report, errors.Join(errs...)
}

func (c *Collector) runCountry(ctx context.Context, date time.Time, country string) (CountryReport, error) {
	day := domain.FormatDate(date)
	snap, rep := c.collect(ctx, day, country)

	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("country %s: collection interrupted: %w", country, err)
	}

	path, err := c.writer.Write(date, country, snap)
	if err != nil {
		c.metrics.SnapshotWriteFailed()
		c.log.ErrorObj("snapshot write failed", "snapshot_error", map[string]any{
			"country": country,
			"date":    day,
			"error":   err.Error(),
		})
		return rep, fmt.Errorf("country %s: write snapshot: %w", country, err)
	}
	rep.Path = path
	c.metrics.SnapshotWritten()

	c.log.InfoObj("country snapshot written", "country_result", rep)
	c.publish(ctx, publishers.NewSnapshotEvent(day, strings.ToLower(country), path, rep.Categories, rep.Lists))
	return rep, nil
}

// collect submits every pair for country through the limiter, waits for all
// of them and folds the outcomes in the order they completed.
func (c *Collector) collect(ctx context.Context, day, country string) (*domain.Snapshot, CountryReport) {
	pairs := len(c.categories) * len(c.collections)
	results := make(chan Outcome, pairs)

	var wg sync.WaitGroup
	for _, category := range c.categories {
		for _, collection := range c.collections {
			t := domain.Triple{Country: country, Category: category, Collection: collection}
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- c.fetchOne(ctx, t)
			}()
		}
	}
	wg.Wait()
	close(results)

	rep := CountryReport{Country: country}
	agg := NewAggregator()
	for o := range results {
		switch {
		case !o.OK():
			rep.Failed++
		case len(o.IDs) == 0:
			rep.Empty++
		}
		c.observe(day, o)
		agg.Add(o)
	}

	snap := agg.Canonical(c.categories, c.collections)
	rep.Categories = snap.Len()
	rep.Lists = agg.Lists()
	return snap, rep
}

func (c *Collector) fetchOne(ctx context.Context, t domain.Triple) Outcome {
	out, err := limiter.Submit(ctx, c.limiter, func(ctx context.Context) (Outcome, error) {
		return c.fetcher.Fetch(ctx, t), nil
	})
	if err != nil {
		return Outcome{Triple: t, IDs: domain.Ranking{}, Err: fmt.Errorf("waiting for fetch slot: %w", err)}
	}
	return out
}

func (c *Collector) observe(day string, o Outcome) {
	status := storage.StatusOK
	switch {
	case !o.OK():
		status = storage.StatusFailed
	case len(o.IDs) == 0:
		status = storage.StatusEmpty
	}
	c.metrics.ObserveFetch(status, o.Duration)

	if c.recorder == nil {
		return
	}
	rec := storage.OutcomeRecord{
		Date:       day,
		Country:    o.Triple.Country,
		Category:   o.Triple.Category,
		Collection: o.Triple.Collection,
		Status:     status,
		Count:      len(o.IDs),
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	if err := c.recorder.RecordOutcome(rec); err != nil {
		c.log.WarnObj("outcome record failed", "storage_error", map[string]any{
			"key":   o.Triple.Key(),
			"error": err.Error(),
		})
	}
}

func (c *Collector) publish(ctx context.Context, evt publishers.Event) {
	if c.publisher == nil {
		return
	}
	if _, err := c.publisher.Publish(ctx, evt); err != nil {
		c.log.WarnObj("snapshot event publish failed", "publish_error", map[string]any{
			"kind":    evt.Kind,
			"country": evt.Country,
			"error":   err.Error(),
		})
	}
}
