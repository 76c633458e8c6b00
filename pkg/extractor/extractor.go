// Package extractor fetches plant telemetry from the LNMH API under a
// bounded-attempt, bounded-parallelism policy.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/httpclient"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ErrNoRecordsExtracted is returned when the attempt cap is exhausted with
// zero rows collected. A single bad id never aborts the run; only a fully
// empty batch does.
var ErrNoRecordsExtracted = errors.New("no valid plant data retrieved")

const (
	// DefaultWorkers is the default fetch worker pool size
	DefaultWorkers = 8
)

// Config bounds an extraction run.
type Config struct {
	BaseURL     string
	StartID     int
	TargetCount int
	MaxAttempts int
	Workers     int
}

// Extractor fetches plant readings in parallel and flattens them.
type Extractor struct {
	client *httpclient.Client
	logger ectologger.Logger
	cfg    Config
}

// New creates a new extractor
func New(cfg Config, client *httpclient.Client, logger ectologger.Logger) *Extractor {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Extractor{
		client: client,
		logger: logger,
		cfg:    cfg,
	}
}

type fetchResult struct {
	record *models.RawRecord
}

// Extract scans plant ids sequentially from StartID, fetching each over a
// bounded worker pool. Network failures and explicit API error bodies skip
// the id; there are no retries. Scheduling stops once TargetCount rows are
// collected or MaxAttempts ids have been tried; in-flight fetches past the
// target are allowed to finish and are discarded. Completion order is not
// guaranteed, so the collected order reflects fetch completion, not id order.
func (e *Extractor) Extract(ctx context.Context) ([]models.RawRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "extractor.Extract")
	defer span.End()

	if e.cfg.TargetCount <= 0 || e.cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("target count and max attempts must be positive (got %d, %d)", e.cfg.TargetCount, e.cfg.MaxAttempts)
	}

	workers := e.cfg.Workers
	if workers > e.cfg.MaxAttempts {
		workers = e.cfg.MaxAttempts
	}

	e.logger.WithContext(ctx).Infof("Extracting up to %d plants from %s (max %d attempts, %d workers)",
		e.cfg.TargetCount, e.cfg.BaseURL, e.cfg.MaxAttempts, workers)

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ids := make(chan int)
	results := make(chan fetchResult, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go e.worker(workerCtx, ctx, &wg, ids, results)
	}

	// Schedule ids until the cap is hit or the collector cancels.
	go func() {
		defer close(ids)
		for i := 0; i < e.cfg.MaxAttempts; i++ {
			select {
			case <-workerCtx.Done():
				return
			case ids <- e.cfg.StartID + i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	rows := make([]models.RawRecord, 0, e.cfg.TargetCount)
	for res := range results {
		if res.record != nil {
			rows = append(rows, *res.record)
		}
		if len(rows) >= e.cfg.TargetCount {
			// Stop scheduling. In-flight fetches finish on the parent
			// context; their results drain into the buffered channel
			// or are dropped when the pool context unblocks the send.
			cancel()
			break
		}
	}

	if len(rows) == 0 {
		return nil, ErrNoRecordsExtracted
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{"rows": len(rows)}).Infof("Extracted %d plant records", len(rows))
	return rows, nil
}

// worker drains ids until the pool context is canceled. Fetches run on the
// parent context so that a fetch already in flight when the target is hit
// completes naturally; only its result is discarded.
func (e *Extractor) worker(poolCtx, fetchCtx context.Context, wg *sync.WaitGroup, ids <-chan int, results chan<- fetchResult) {
	defer wg.Done()

	for id := range ids {
		select {
		case <-poolCtx.Done():
			return
		default:
		}

		record := e.fetchOne(fetchCtx, id)

		select {
		case results <- fetchResult{record: record}:
		case <-poolCtx.Done():
			return
		}
	}
}

// fetchOne performs a single bounded-timeout GET and classifies the result.
// Every failure mode is a skip (nil), recovered locally and never surfaced.
func (e *Extractor) fetchOne(ctx context.Context, id int) *models.RawRecord {
	log := e.logger.WithContext(ctx).WithFields(map[string]any{"plant_id": id})

	url := fmt.Sprintf("%s%d", e.cfg.BaseURL, id)
	resp, err := e.client.Get(ctx, url)
	if err != nil {
		metrics.PlantsFetched.WithLabelValues("fetch_skipped").Inc()
		log.WithError(err).Debug("Skipping plant: request failed")
		return nil
	}
	metrics.FetchDuration.Observe(resp.Duration.Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.PlantsFetched.WithLabelValues("fetch_skipped").Inc()
		log.WithFields(map[string]any{"status_code": resp.StatusCode}).Debug("Skipping plant: non-200 response")
		return nil
	}

	var reading models.PlantReading
	if err := json.Unmarshal(resp.Body, &reading); err != nil {
		metrics.PlantsFetched.WithLabelValues("fetch_skipped").Inc()
		log.WithError(err).Debug("Skipping plant: malformed payload")
		return nil
	}

	if reading.Error != nil {
		metrics.PlantsFetched.WithLabelValues("not_found").Inc()
		log.WithFields(map[string]any{"error": *reading.Error}).Debug("Skipping plant: API reported no such plant")
		return nil
	}

	metrics.PlantsFetched.WithLabelValues("ok").Inc()
	record := Flatten(&reading, id)
	return &record
}
