package recording

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// RecordingRepository defines read operations over persisted recordings.
type RecordingRepository interface {
	GetDetailsSince(ctx context.Context, since time.Time) ([]models.RecordingDetail, error)
	GetTablesSince(ctx context.Context, since time.Time) (*models.NormalizedTables, error)
}

// Repository implements RecordingRepository
type Repository struct {
	db     database.DB
	schema string
	logger ectologger.Logger
}

// NewRepository creates a new recording repository. schema may be empty for
// the connection default.
func NewRepository(db database.DB, schema string, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		schema: schema,
		logger: logger,
	}
}

// GetDetailsSince returns recordings taken at or after since, each joined to
// its plant and botanist. Rows without a botanist are kept with nil botanist
// fields.
func (r *Repository) GetDetailsSince(ctx context.Context, since time.Time) ([]models.RecordingDetail, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordingRepository.GetDetailsSince")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"r.id",
		"r.plant_id",
		"p.name AS plant_name",
		"r.temperature",
		"r.soil_moisture",
		"r.recording_taken",
		"r.last_watered",
		"b.botanist_name",
		"b.email AS botanist_email",
		"b.phone",
	)
	sb.From(r.qualified("recording") + " r")
	sb.JoinWithOption(sqlbuilder.InnerJoin, r.qualified("plant")+" p", "p.plant_id = r.plant_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, r.qualified("botanist")+" b", "b.botanist_id = r.botanist_id")
	sb.Where(sb.GreaterEqualThan("r.recording_taken", since))
	sb.OrderBy("r.recording_taken").Asc()

	query, args := sb.Build()

	var details []models.RecordingDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get recording details")
		return nil, fmt.Errorf("failed to get recording details: %w", err)
	}

	return details, nil
}

// GetTablesSince reads the dimension tables in full plus the recordings taken
// at or after since. The result carries the store's identity ids, so it can
// be summarized the same way freshly transformed tables are.
func (r *Repository) GetTablesSince(ctx context.Context, since time.Time) (*models.NormalizedTables, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordingRepository.GetTablesSince")
	defer span.End()

	tables := &models.NormalizedTables{}

	if err := r.selectAll(ctx, &tables.Countries, "country", "country_id", "name"); err != nil {
		return nil, err
	}
	if err := r.selectAll(ctx, &tables.Cities, "city", "city_id", "name"); err != nil {
		return nil, err
	}
	if err := r.selectAll(ctx, &tables.Botanists, "botanist", "botanist_id", "botanist_name AS name", "email", "phone AS phone_number"); err != nil {
		return nil, err
	}
	if err := r.selectAll(ctx, &tables.Plants, "plant", "plant_id", "name", "scientific_name", "latitude", "longitude", "country_id", "city_id"); err != nil {
		return nil, err
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id AS recording_id", "plant_id", "botanist_id", "temperature", "last_watered", "soil_moisture", "recording_taken")
	sb.From(r.qualified("recording"))
	sb.Where(sb.GreaterEqualThan("recording_taken", since))
	sb.OrderBy("id").Asc()

	query, args := sb.Build()
	if err := r.db.SelectContext(ctx, &tables.Recordings, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get recordings")
		return nil, fmt.Errorf("failed to get recordings: %w", err)
	}

	return tables, nil
}

func (r *Repository) selectAll(ctx context.Context, dest any, table string, cols ...string) error {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(cols...)
	sb.From(r.qualified(table))

	query, args := sb.Build()
	if err := r.db.SelectContext(ctx, dest, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"table": table}).Error("Failed to read table")
		return fmt.Errorf("failed to read table %q: %w", table, err)
	}
	return nil
}

func (r *Repository) qualified(name string) string {
	if r.schema == "" {
		return name
	}
	return r.schema + "." + name
}
