// Package transformer normalizes raw plant records into dimension and fact
// tables and aggregates the per-plant summary. It is single-threaded and
// fully deterministic for a given input ordering.
package transformer

import (
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalize"
	"github.com/Ramsey-B/fern/pkg/tables"
)

// Transformer builds the normalized tables from a batch of raw records.
type Transformer struct {
	logger ectologger.Logger
}

// New creates a new transformer
func New(logger ectologger.Logger) *Transformer {
	return &Transformer{logger: logger}
}

// cleanRecord is a RawRecord after the cleaning pass: strings trimmed,
// numerics and timestamps parsed with nil substituted on failure.
type cleanRecord struct {
	PlantID        int
	Name           *string
	ScientificName *string
	Temperature    *float64
	SoilMoisture   *float64
	LastWatered    *time.Time
	RecordingTaken *time.Time
	Latitude       *float64
	Longitude      *float64
	OriginCity     *string
	OriginCountry  *string
	BotanistName   *string
	BotanistEmail  *string
	BotanistPhone  *string
}

func clean(r models.RawRecord) cleanRecord {
	return cleanRecord{
		PlantID:        r.PlantID,
		Name:           normalize.Trim(r.Name),
		ScientificName: normalize.Trim(r.ScientificName),
		Temperature:    normalize.Float(r.Temperature),
		SoilMoisture:   normalize.Float(r.SoilMoisture),
		LastWatered:    normalize.Time(r.LastWatered),
		RecordingTaken: normalize.Time(r.RecordingTaken),
		Latitude:       normalize.Float(r.Latitude),
		Longitude:      normalize.Float(r.Longitude),
		OriginCity:     normalize.Trim(r.OriginCity),
		OriginCountry:  normalize.Trim(r.OriginCountry),
		BotanistName:   normalize.Trim(r.BotanistName),
		BotanistEmail:  normalize.Trim(r.BotanistEmail),
		BotanistPhone:  normalize.Trim(r.BotanistPhone),
	}
}

// Transform cleans the batch, deduplicates the dimension tables with
// surrogate ids assigned in first-appearance order, resolves foreign keys by
// exact match (unmatched keys become nil, rows are never dropped), and emits
// one Recording per raw record with sequential recording ids.
func (t *Transformer) Transform(rows []models.RawRecord) (*models.NormalizedTables, error) {
	cleaned := make([]cleanRecord, len(rows))
	for i, row := range rows {
		cleaned[i] = clean(row)
	}

	countries := countryTable(cleaned)
	cities := cityTable(cleaned)
	botanists := botanistTable(cleaned)

	countryIDs := tables.IndexByKey(countries,
		func(c models.Country) (string, bool) { return c.Name, true },
		func(c models.Country) int { return c.CountryID })
	cityIDs := tables.IndexByKey(cities,
		func(c models.City) (string, bool) { return c.Name, true },
		func(c models.City) int { return c.CityID })
	botanistIDs := tables.IndexByKey(botanists,
		func(b models.BotanistRow) (string, bool) { return b.Email, true },
		func(b models.BotanistRow) int { return b.BotanistID })

	out := &models.NormalizedTables{
		Countries:  countries,
		Cities:     cities,
		Botanists:  botanists,
		Plants:     plantTable(cleaned, countryIDs, cityIDs),
		Recordings: recordingTable(cleaned, botanistIDs),
	}

	t.logger.WithFields(map[string]any{
		"countries":  len(out.Countries),
		"cities":     len(out.Cities),
		"botanists":  len(out.Botanists),
		"plants":     len(out.Plants),
		"recordings": len(out.Recordings),
	}).Info("Transformed raw records into normalized tables")

	return out, nil
}

func countryTable(rows []cleanRecord) []models.Country {
	distinct := tables.DistinctByKey(rows, func(r cleanRecord) (string, bool) {
		if r.OriginCountry == nil {
			return "", false
		}
		return *r.OriginCountry, true
	})

	out := make([]models.Country, len(distinct))
	for i, r := range distinct {
		out[i] = models.Country{CountryID: i + 1, Name: *r.OriginCountry}
	}
	return out
}

func cityTable(rows []cleanRecord) []models.City {
	distinct := tables.DistinctByKey(rows, func(r cleanRecord) (string, bool) {
		if r.OriginCity == nil {
			return "", false
		}
		return *r.OriginCity, true
	})

	out := make([]models.City, len(distinct))
	for i, r := range distinct {
		out[i] = models.City{CityID: i + 1, Name: *r.OriginCity}
	}
	return out
}

// botanistTable deduplicates by email with first-occurrence-wins semantics:
// a later record with the same email is dropped even when its name or phone
// differ. Phones are stored normalized only.
func botanistTable(rows []cleanRecord) []models.BotanistRow {
	distinct := tables.DistinctByKey(rows, func(r cleanRecord) (string, bool) {
		if r.BotanistEmail == nil {
			return "", false
		}
		return *r.BotanistEmail, true
	})

	out := make([]models.BotanistRow, len(distinct))
	for i, r := range distinct {
		out[i] = models.BotanistRow{
			BotanistID: i + 1,
			Name:       r.BotanistName,
			Email:      *r.BotanistEmail,
			Phone:      normalize.Phone(r.BotanistPhone),
		}
	}
	return out
}

// plantTable emits one row per distinct plant id; the first-seen record wins
// when an id repeats with conflicting fields.
func plantTable(rows []cleanRecord, countryIDs, cityIDs map[string]int) []models.Plant {
	distinct := tables.DistinctByKey(rows, func(r cleanRecord) (int, bool) {
		return r.PlantID, true
	})

	out := make([]models.Plant, len(distinct))
	for i, r := range distinct {
		out[i] = models.Plant{
			PlantID:        r.PlantID,
			Name:           r.Name,
			ScientificName: r.ScientificName,
			Latitude:       r.Latitude,
			Longitude:      r.Longitude,
			CountryID:      lookup(countryIDs, r.OriginCountry),
			CityID:         lookup(cityIDs, r.OriginCity),
		}
	}
	return out
}

func recordingTable(rows []cleanRecord, botanistIDs map[string]int) []models.Recording {
	out := make([]models.Recording, len(rows))
	for i, r := range rows {
		out[i] = models.Recording{
			RecordingID:    i + 1,
			PlantID:        r.PlantID,
			BotanistID:     lookup(botanistIDs, r.BotanistEmail),
			Temperature:    r.Temperature,
			LastWatered:    r.LastWatered,
			SoilMoisture:   r.SoilMoisture,
			RecordingTaken: r.RecordingTaken,
		}
	}
	return out
}

// lookup resolves a foreign key by exact match; a missing or unmatched key
// is nil, never an error.
func lookup(index map[string]int, key *string) *int {
	if key == nil {
		return nil
	}
	id, ok := index[*key]
	if !ok {
		return nil
	}
	return &id
}
