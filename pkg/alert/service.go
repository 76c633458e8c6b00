// Package alert polls recent recordings and publishes threshold breaches to
// the alert topic. Delivery to recipients is owned by downstream consumers.
package alert

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/recording"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var (
	// ErrServiceStopped is returned when the service is stopped
	ErrServiceStopped = errors.New("alert service stopped")

	// ErrServiceAlreadyRunning is returned when trying to start a running service
	ErrServiceAlreadyRunning = errors.New("alert service already running")
)

const (
	// DefaultPollInterval is the default interval between alert scans
	DefaultPollInterval = time.Minute

	// DefaultLockTTL is the default TTL for the scan lock
	DefaultLockTTL = 2 * time.Minute

	// lockKey serializes scans across replicas
	lockKey = "alert:scan"
)

// Emergency types attached to published events.
const (
	EmergencyTemperatureLow  = "temperature_low"
	EmergencyTemperatureHigh = "temperature_high"
	EmergencyMoistureLow     = "soil_moisture_low"
	EmergencyMoistureHigh    = "soil_moisture_high"
)

// Thresholds bounds a healthy reading. A recording outside any bound raises
// one event per breached bound.
type Thresholds struct {
	TemperatureMin  float64 `env:"ALERT_TEMPERATURE_MIN" env-default:"9"`
	TemperatureMax  float64 `env:"ALERT_TEMPERATURE_MAX" env-default:"30"`
	SoilMoistureMin float64 `env:"ALERT_SOIL_MOISTURE_MIN" env-default:"20"`
	SoilMoistureMax float64 `env:"ALERT_SOIL_MOISTURE_MAX" env-default:"100"`
}

// Config holds configuration for the alert service
type Config struct {
	// PollInterval is how often to scan for breaches
	PollInterval time.Duration

	// Lookback is how far back each scan reads recordings
	Lookback time.Duration

	// LockTTL is how long the scan lock is held
	LockTTL time.Duration

	Thresholds Thresholds
}

// DefaultConfig returns the default alert service configuration
func DefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollInterval,
		Lookback:     DefaultPollInterval,
		LockTTL:      DefaultLockTTL,
		Thresholds: Thresholds{
			TemperatureMin:  9,
			TemperatureMax:  30,
			SoilMoistureMin: 20,
			SoilMoistureMax: 100,
		},
	}
}

// Service scans persisted recordings and publishes breach events
type Service struct {
	repo     recording.RecordingRepository
	producer *kafka.Producer
	locker   *redis.Locker
	config   Config
	logger   ectologger.Logger

	stopCh   chan struct{}
	stoppedC chan struct{}
	running  bool
	mu       sync.RWMutex
}

// NewService creates a new alert service
func NewService(
	repo recording.RecordingRepository,
	producer *kafka.Producer,
	locker *redis.Locker,
	config Config,
	logger ectologger.Logger,
) *Service {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.Lookback <= 0 {
		config.Lookback = config.PollInterval
	}
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultLockTTL
	}

	return &Service{
		repo:     repo,
		producer: producer,
		locker:   locker,
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
		stoppedC: make(chan struct{}),
	}
}

// Start starts the scan loop
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrServiceAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	s.logger.WithContext(ctx).Infof("Starting alert service: poll_interval=%s lookback=%s",
		s.config.PollInterval, s.config.Lookback)

	go s.pollLoop(ctx)
	return nil
}

// Stop stops the service gracefully
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)

	select {
	case <-s.stoppedC:
		s.logger.WithContext(ctx).Info("Alert service stopped gracefully")
	case <-ctx.Done():
		s.logger.WithContext(ctx).Warn("Alert service shutdown timed out")
		return ctx.Err()
	}
	return nil
}

// IsRunning returns whether the service is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Service) pollLoop(ctx context.Context) {
	defer close(s.stoppedC)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.runScan(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runScan(ctx)
		}
	}
}

// runScan runs a single scan cycle. The scan lock keeps replicas from
// double-publishing; a held lock means another replica is scanning and this
// cycle is skipped.
func (s *Service) runScan(ctx context.Context) {
	ctx, span := tracing.StartSpan(ctx, "AlertService.runScan")
	defer span.End()

	lock, err := s.locker.Acquire(ctx, lockKey, s.config.LockTTL)
	if err != nil {
		if errors.Is(err, redis.ErrLockNotAcquired) {
			s.logger.WithContext(ctx).Debug("Scan lock held elsewhere, skipping cycle")
			return
		}
		s.logger.WithContext(ctx).WithError(err).Error("Failed to acquire scan lock")
		return
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to release scan lock")
		}
	}()

	since := time.Now().Add(-s.config.Lookback)
	details, err := s.repo.GetDetailsSince(ctx, since)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to read recent recordings")
		return
	}

	var published int
	for _, detail := range details {
		for _, evt := range Evaluate(detail, s.config.Thresholds) {
			if err := s.producer.PublishAlert(ctx, evt); err != nil {
				s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"plant_id":       evt.PlantID,
					"emergency_type": evt.EmergencyType,
				}).Error("Failed to publish alert")
				continue
			}
			metrics.AlertsPublished.WithLabelValues(evt.EmergencyType).Inc()
			published++
		}
	}

	if published > 0 {
		s.logger.WithContext(ctx).Infof("Published %d alerts from %d recordings", published, len(details))
	}
}

// Evaluate returns one event per threshold the recording breaches. Nil
// readings never breach.
func Evaluate(detail models.RecordingDetail, bounds Thresholds) []*kafka.AlertEvent {
	var events []*kafka.AlertEvent

	if detail.Temperature != nil {
		if *detail.Temperature < bounds.TemperatureMin {
			events = append(events, newEvent(detail, EmergencyTemperatureLow, *detail.Temperature))
		}
		if *detail.Temperature > bounds.TemperatureMax {
			events = append(events, newEvent(detail, EmergencyTemperatureHigh, *detail.Temperature))
		}
	}

	if detail.SoilMoisture != nil {
		if *detail.SoilMoisture < bounds.SoilMoistureMin {
			events = append(events, newEvent(detail, EmergencyMoistureLow, *detail.SoilMoisture))
		}
		if *detail.SoilMoisture > bounds.SoilMoistureMax {
			events = append(events, newEvent(detail, EmergencyMoistureHigh, *detail.SoilMoisture))
		}
	}

	return events
}

func newEvent(detail models.RecordingDetail, emergencyType string, reading float64) *kafka.AlertEvent {
	evt := &kafka.AlertEvent{
		PlantID:       detail.PlantID,
		EmergencyType: emergencyType,
		Reading:       reading,
		Timestamp:     time.Now().UTC(),
	}
	if detail.PlantName != nil {
		evt.PlantName = *detail.PlantName
	}
	if detail.BotanistName != nil {
		evt.BotanistName = *detail.BotanistName
	}
	if detail.BotanistEmail != nil {
		evt.BotanistEmail = *detail.BotanistEmail
	}
	if detail.BotanistPhone != nil {
		evt.BotanistPhone = *detail.BotanistPhone
	}
	if detail.RecordingTaken != nil {
		evt.RecordedAt = *detail.RecordingTaken
	}
	return evt
}
