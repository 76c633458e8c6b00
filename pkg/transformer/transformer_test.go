package transformer

import (
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func strPtr(s string) *string { return &s }

func rawRecord(plantID int, country, city, email string) models.RawRecord {
	return models.RawRecord{
		PlantID:       plantID,
		OriginCountry: strPtr(country),
		OriginCity:    strPtr(city),
		BotanistEmail: strPtr(email),
	}
}

func TestTransform(t *testing.T) {
	tr := New(noopLogger())

	t.Run("should assign dimension ids in first-appearance order", func(t *testing.T) {
		rows := []models.RawRecord{
			rawRecord(1, "Brazil", "Rio", "ana@lnmh.org"),
			rawRecord(2, "Japan", "Osaka", "ken@lnmh.org"),
			rawRecord(3, "Brazil", "Manaus", "ana@lnmh.org"),
		}

		got, err := tr.Transform(rows)
		require.NoError(t, err)

		require.Len(t, got.Countries, 2)
		assert.Equal(t, models.Country{CountryID: 1, Name: "Brazil"}, got.Countries[0])
		assert.Equal(t, models.Country{CountryID: 2, Name: "Japan"}, got.Countries[1])

		require.Len(t, got.Cities, 3)
		assert.Equal(t, "Rio", got.Cities[0].Name)
		assert.Equal(t, 3, got.Cities[2].CityID)

		require.Len(t, got.Botanists, 2)
		assert.Equal(t, 1, got.Botanists[0].BotanistID)
		assert.Equal(t, "ana@lnmh.org", got.Botanists[0].Email)
	})

	t.Run("should keep the first occurrence when a botanist email repeats with different fields", func(t *testing.T) {
		first := rawRecord(1, "Brazil", "Rio", "ana@lnmh.org")
		first.BotanistName = strPtr("Ana Silva")
		second := rawRecord(2, "Brazil", "Rio", "ana@lnmh.org")
		second.BotanistName = strPtr("A. Silva")

		got, err := tr.Transform([]models.RawRecord{first, second})
		require.NoError(t, err)

		require.Len(t, got.Botanists, 1)
		require.NotNil(t, got.Botanists[0].Name)
		assert.Equal(t, "Ana Silva", *got.Botanists[0].Name)
	})

	t.Run("should store normalized phone numbers only", func(t *testing.T) {
		row := rawRecord(1, "Brazil", "Rio", "ana@lnmh.org")
		row.BotanistPhone = strPtr("001-481-273-3691x127")

		got, err := tr.Transform([]models.RawRecord{row})
		require.NoError(t, err)

		require.Len(t, got.Botanists, 1)
		require.NotNil(t, got.Botanists[0].Phone)
		assert.Equal(t, "0014812733691x127", *got.Botanists[0].Phone)
	})

	t.Run("should emit one plant per distinct plant id with first row winning", func(t *testing.T) {
		first := rawRecord(7, "Brazil", "Rio", "ana@lnmh.org")
		first.Name = strPtr("Orchid")
		second := rawRecord(7, "Brazil", "Rio", "ana@lnmh.org")
		second.Name = strPtr("Not An Orchid")

		got, err := tr.Transform([]models.RawRecord{first, second})
		require.NoError(t, err)

		require.Len(t, got.Plants, 1)
		require.NotNil(t, got.Plants[0].Name)
		assert.Equal(t, "Orchid", *got.Plants[0].Name)
		// both raw rows still produce recordings
		require.Len(t, got.Recordings, 2)
	})

	t.Run("should resolve foreign keys by exact match and nil otherwise", func(t *testing.T) {
		matched := rawRecord(1, "Brazil", "Rio", "ana@lnmh.org")
		unmatched := models.RawRecord{PlantID: 2}

		got, err := tr.Transform([]models.RawRecord{matched, unmatched})
		require.NoError(t, err)

		require.Len(t, got.Plants, 2)
		require.NotNil(t, got.Plants[0].CountryID)
		assert.Equal(t, 1, *got.Plants[0].CountryID)
		assert.Nil(t, got.Plants[1].CountryID)
		assert.Nil(t, got.Plants[1].CityID)

		require.Len(t, got.Recordings, 2)
		require.NotNil(t, got.Recordings[0].BotanistID)
		assert.Nil(t, got.Recordings[1].BotanistID)
	})

	t.Run("should assign sequential recording ids in input order", func(t *testing.T) {
		rows := []models.RawRecord{
			rawRecord(5, "Brazil", "Rio", "ana@lnmh.org"),
			rawRecord(6, "Japan", "Osaka", "ken@lnmh.org"),
			rawRecord(5, "Brazil", "Rio", "ana@lnmh.org"),
		}

		got, err := tr.Transform(rows)
		require.NoError(t, err)

		require.Len(t, got.Recordings, 3)
		for i, rec := range got.Recordings {
			assert.Equal(t, i+1, rec.RecordingID)
		}
		assert.Equal(t, 5, got.Recordings[0].PlantID)
		assert.Equal(t, 6, got.Recordings[1].PlantID)
	})

	t.Run("should clean fields before dedup so padded names collapse", func(t *testing.T) {
		rows := []models.RawRecord{
			rawRecord(1, "Brazil", "Rio", "ana@lnmh.org"),
			rawRecord(2, "  Brazil  ", "Rio", "ana@lnmh.org"),
		}

		got, err := tr.Transform(rows)
		require.NoError(t, err)

		assert.Len(t, got.Countries, 1)
	})

	t.Run("should substitute nil for unparseable numerics and timestamps", func(t *testing.T) {
		row := rawRecord(1, "Brazil", "Rio", "ana@lnmh.org")
		row.Temperature = strPtr("warm-ish")
		row.SoilMoisture = strPtr("31.931")
		row.LastWatered = strPtr("not a timestamp")

		got, err := tr.Transform([]models.RawRecord{row})
		require.NoError(t, err)

		require.Len(t, got.Recordings, 1)
		rec := got.Recordings[0]
		assert.Nil(t, rec.Temperature)
		require.NotNil(t, rec.SoilMoisture)
		assert.Equal(t, 31.931, *rec.SoilMoisture)
		assert.Nil(t, rec.LastWatered)
	})

	t.Run("should handle an empty batch", func(t *testing.T) {
		got, err := tr.Transform(nil)
		require.NoError(t, err)
		assert.Empty(t, got.Countries)
		assert.Empty(t, got.Recordings)
	})
}
