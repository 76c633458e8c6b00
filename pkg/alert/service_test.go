package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func bounds() Thresholds {
	return Thresholds{
		TemperatureMin:  9,
		TemperatureMax:  30,
		SoilMoistureMin: 20,
		SoilMoistureMax: 100,
	}
}

func TestEvaluate(t *testing.T) {
	t.Run("should return nothing for an in-range recording", func(t *testing.T) {
		detail := models.RecordingDetail{
			PlantID:      1,
			Temperature:  floatPtr(20),
			SoilMoisture: floatPtr(50),
		}

		assert.Empty(t, Evaluate(detail, bounds()))
	})

	t.Run("should flag low temperature", func(t *testing.T) {
		detail := models.RecordingDetail{
			PlantID:     4,
			PlantName:   strPtr("Orchid"),
			Temperature: floatPtr(3.5),
		}

		events := Evaluate(detail, bounds())
		require.Len(t, events, 1)
		assert.Equal(t, EmergencyTemperatureLow, events[0].EmergencyType)
		assert.Equal(t, 3.5, events[0].Reading)
		assert.Equal(t, "Orchid", events[0].PlantName)
	})

	t.Run("should flag high soil moisture", func(t *testing.T) {
		detail := models.RecordingDetail{PlantID: 4, SoilMoisture: floatPtr(120)}

		events := Evaluate(detail, bounds())
		require.Len(t, events, 1)
		assert.Equal(t, EmergencyMoistureHigh, events[0].EmergencyType)
	})

	t.Run("should raise one event per breached bound", func(t *testing.T) {
		detail := models.RecordingDetail{
			PlantID:      4,
			Temperature:  floatPtr(45),
			SoilMoisture: floatPtr(5),
		}

		events := Evaluate(detail, bounds())
		require.Len(t, events, 2)
		assert.Equal(t, EmergencyTemperatureHigh, events[0].EmergencyType)
		assert.Equal(t, EmergencyMoistureLow, events[1].EmergencyType)
	})

	t.Run("should never breach on nil readings", func(t *testing.T) {
		assert.Empty(t, Evaluate(models.RecordingDetail{PlantID: 1}, bounds()))
	})

	t.Run("should carry the botanist contact fields into the event", func(t *testing.T) {
		taken := time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC)
		detail := models.RecordingDetail{
			PlantID:        4,
			Temperature:    floatPtr(2),
			BotanistName:   strPtr("Ana"),
			BotanistEmail:  strPtr("ana@lnmh.org"),
			BotanistPhone:  strPtr("7612337244"),
			RecordingTaken: &taken,
		}

		events := Evaluate(detail, bounds())
		require.Len(t, events, 1)
		assert.Equal(t, "Ana", events[0].BotanistName)
		assert.Equal(t, "ana@lnmh.org", events[0].BotanistEmail)
		assert.Equal(t, "7612337244", events[0].BotanistPhone)
		assert.Equal(t, taken, events[0].RecordedAt)
	})
}
