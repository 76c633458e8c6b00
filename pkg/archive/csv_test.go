package archive

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestSummaryCSV(t *testing.T) {
	t.Run("should render a header and one line per row", func(t *testing.T) {
		watered := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
		date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

		rows := []models.SummaryRow{{
			PlantID:        4,
			PlantName:      strPtr("Orchid"),
			Country:        strPtr("Brazil"),
			AvgTemperature: floatPtr(15.5),
			LastWatered:    &watered,
			Date:           &date,
		}}

		body, err := SummaryCSV(rows)
		require.NoError(t, err)

		records, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)

		header := records[0]
		assert.Equal(t, "plant_id", header[0])
		assert.Equal(t, "date", header[len(header)-1])

		line := records[1]
		assert.Equal(t, "4", line[0])
		assert.Equal(t, "Orchid", line[1])
		assert.Equal(t, "Brazil", line[3])
		assert.Equal(t, "15.5", line[11])
		assert.Equal(t, "2024-01-15T08:00:00Z", line[13])
		assert.Equal(t, "2024-01-15", line[14])
	})

	t.Run("should write empty cells for missing values", func(t *testing.T) {
		body, err := SummaryCSV([]models.SummaryRow{{PlantID: 1}})
		require.NoError(t, err)

		records, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)

		line := records[1]
		assert.Equal(t, "1", line[0])
		for _, cell := range line[1:] {
			assert.Empty(t, cell)
		}
	})

	t.Run("should emit only the header for an empty batch", func(t *testing.T) {
		body, err := SummaryCSV(nil)
		require.NoError(t, err)

		records, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})
}

func TestObjectKey(t *testing.T) {
	t.Run("should name the object after the earliest summary date", func(t *testing.T) {
		later := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
		earlier := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)

		key := ObjectKey([]models.SummaryRow{
			{PlantID: 1, Date: &later},
			{PlantID: 2, Date: &earlier},
		})

		assert.Equal(t, "2024-01-14-summary.csv", key)
	})

	t.Run("should fall back to today when no row has a date", func(t *testing.T) {
		key := ObjectKey([]models.SummaryRow{{PlantID: 1}})
		assert.Equal(t, time.Now().UTC().Format("2006-01-02")+"-summary.csv", key)
	})
}
