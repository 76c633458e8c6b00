// Package pipeline orchestrates one end-to-end batch: extract readings from
// the plant API, normalize them, load the store, and archive the day's
// summary.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/internal/loader"
	"github.com/Ramsey-B/fern/pkg/archive"
	"github.com/Ramsey-B/fern/pkg/extractor"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/transformer"
)

const (
	// runLockKey serializes batch runs across replicas
	runLockKey = "pipeline:run"

	// DefaultRunLockTTL bounds how long a crashed run can block the next one
	DefaultRunLockTTL = 15 * time.Minute
)

// ErrRunInProgress is returned when another replica holds the run lock.
var ErrRunInProgress = errors.New("another pipeline run is in progress")

// Config holds pipeline orchestration settings.
type Config struct {
	// LoadPolicy selects how the loader reconciles rows against the store
	LoadPolicy loader.Policy

	// ArtifactsDir, when set, receives CSV dumps of the batch for offline
	// inspection
	ArtifactsDir string

	// Archive enables the summary upload stage
	Archive bool

	// RunLockTTL bounds the run lock lifetime
	RunLockTTL time.Duration
}

// Runner wires the pipeline stages together.
type Runner struct {
	extractor   *extractor.Extractor
	transformer *transformer.Transformer
	loader      *loader.Loader
	store       *archive.Store
	locker      *redis.Locker
	config      Config
	logger      ectologger.Logger
}

// NewRunner creates a pipeline runner. store may be nil when archiving is
// disabled; locker may be nil when run exclusivity is handled externally.
func NewRunner(
	ext *extractor.Extractor,
	tr *transformer.Transformer,
	ld *loader.Loader,
	store *archive.Store,
	locker *redis.Locker,
	config Config,
	logger ectologger.Logger,
) *Runner {
	if config.LoadPolicy == "" {
		config.LoadPolicy = loader.PolicyAppendIfAbsent
	}
	if config.RunLockTTL <= 0 {
		config.RunLockTTL = DefaultRunLockTTL
	}

	return &Runner{
		extractor:   ext,
		transformer: tr,
		loader:      ld,
		store:       store,
		locker:      locker,
		config:      config,
		logger:      logger,
	}
}

// Run executes one batch. The run lock guarantees at most one concurrent
// batch per lock key; a held lock fails fast with ErrRunInProgress.
func (r *Runner) Run(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "Pipeline.Run")
	defer span.End()

	runID := uuid.New().String()
	log := r.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID})
	start := time.Now()

	if r.locker != nil {
		lock, err := r.locker.Acquire(ctx, runLockKey, r.config.RunLockTTL)
		if err != nil {
			if errors.Is(err, redis.ErrLockNotAcquired) {
				metrics.PipelineRunsTotal.WithLabelValues("skipped").Inc()
				return ErrRunInProgress
			}
			metrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
			return err
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				log.WithError(err).Warn("Failed to release run lock")
			}
		}()
	}

	log.Info("Pipeline run started")

	if err := r.runStages(ctx, log); err != nil {
		if errors.Is(err, extractor.ErrNoRecordsExtracted) {
			metrics.PipelineRunsTotal.WithLabelValues("no_records").Inc()
		} else {
			metrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
		}
		log.WithError(err).Error("Pipeline run failed")
		return err
	}

	metrics.PipelineRunsTotal.WithLabelValues("success").Inc()
	log.Infof("Pipeline run completed in %s", time.Since(start))
	return nil
}

func (r *Runner) runStages(ctx context.Context, log ectologger.Logger) error {
	raw, err := r.extractor.Extract(ctx)
	if err != nil {
		return err
	}
	log.Infof("Extracted %d records", len(raw))

	tables, err := r.transformer.Transform(raw)
	if err != nil {
		return err
	}
	log.Infof("Transformed into %d plants, %d recordings", len(tables.Plants), len(tables.Recordings))

	if r.config.ArtifactsDir != "" {
		if err := archive.WriteArtifacts(r.config.ArtifactsDir, raw, tables); err != nil {
			log.WithError(err).Warn("Failed to write batch artifacts")
		}
	}

	if err := r.loader.Load(ctx, tables, r.config.LoadPolicy); err != nil {
		return err
	}

	if r.config.Archive && r.store != nil {
		summary := transformer.Summarize(tables)
		body, err := archive.SummaryCSV(summary)
		if err != nil {
			return err
		}
		if err := r.store.Upload(ctx, archive.ObjectKey(summary), body, "text/csv"); err != nil {
			return err
		}
		log.Infof("Archived summary for %d plants", len(summary))
	}

	return nil
}
