package extractor

import (
	"strconv"
	"strings"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Flatten promotes the nested origin_location and botanist objects to flat
// fields and collapses scientific_name to a single string. Missing keys map
// to nil, never to an error. fallbackID is used when the payload carries no
// plant_id of its own.
func Flatten(reading *models.PlantReading, fallbackID int) models.RawRecord {
	record := models.RawRecord{
		PlantID:        fallbackID,
		Name:           reading.Name,
		ScientificName: scientificName(reading.ScientificName),
		Temperature:    scalarString(reading.Temperature),
		SoilMoisture:   scalarString(reading.SoilMoisture),
		LastWatered:    reading.LastWatered,
		RecordingTaken: reading.RecordingTaken,
	}
	if reading.PlantID != nil {
		record.PlantID = *reading.PlantID
	}

	if origin := reading.OriginLocation; origin != nil {
		record.Latitude = scalarString(origin.Latitude)
		record.Longitude = scalarString(origin.Longitude)
		record.OriginCity = origin.City
		record.OriginCountry = origin.Country
	}

	if botanist := reading.Botanist; botanist != nil {
		record.BotanistName = scalarString(botanist.Name)
		record.BotanistEmail = scalarString(botanist.Email)
		record.BotanistPhone = stringOnly(botanist.Phone)
	}

	return record
}

// scientificName joins a list with ", ", passes a scalar through, and maps
// absence to nil.
func scientificName(v any) *string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return &val
	case []any:
		parts := ectolinq.Map(val, func(item any) string {
			s := scalarString(item)
			if s == nil {
				return ""
			}
			return *s
		})
		joined := strings.Join(parts, ", ")
		return &joined
	default:
		return scalarString(v)
	}
}

// stringOnly keeps a loosely typed value only when it is already text.
// A numeric or boolean phone is no phone at all.
func stringOnly(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

// scalarString renders a loosely typed JSON scalar back to its text form so
// the transformer's cleaning pass owns all coercion.
func scalarString(v any) *string {
	var s string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s = val
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(val)
	default:
		return nil
	}
	return &s
}
