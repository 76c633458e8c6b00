package models

import "time"

// Country is a dimension row, deduplicated by exact name.
type Country struct {
	CountryID int    `json:"country_id" db:"country_id"`
	Name      string `json:"name" db:"name"`
}

// City is a dimension row, deduplicated by exact name.
type City struct {
	CityID int    `json:"city_id" db:"city_id"`
	Name   string `json:"name" db:"name"`
}

// BotanistRow is a dimension row, deduplicated by email (first occurrence
// wins). Phone holds the normalized phone number, never the raw value.
type BotanistRow struct {
	BotanistID int     `json:"botanist_id" db:"botanist_id"`
	Name       *string `json:"name" db:"name"`
	Email      string  `json:"email" db:"email"`
	Phone      *string `json:"phone_number" db:"phone_number"`
}

// Plant is the entity table: one row per distinct plant_id in the batch.
// Foreign keys are resolved by dimension lookup and nil when unmatched.
type Plant struct {
	PlantID        int      `json:"plant_id" db:"plant_id"`
	Name           *string  `json:"name" db:"name"`
	ScientificName *string  `json:"scientific_name" db:"scientific_name"`
	Latitude       *float64 `json:"latitude" db:"latitude"`
	Longitude      *float64 `json:"longitude" db:"longitude"`
	CountryID      *int     `json:"country_id" db:"country_id"`
	CityID         *int     `json:"city_id" db:"city_id"`
}

// Recording is the fact table: one row per RawRecord. RecordingID is a
// sequential surrogate assigned at emission time; the store replaces it with
// its own identity value on load.
type Recording struct {
	RecordingID    int        `json:"recording_id" db:"recording_id"`
	PlantID        int        `json:"plant_id" db:"plant_id"`
	BotanistID     *int       `json:"botanist_id" db:"botanist_id"`
	Temperature    *float64   `json:"temperature" db:"temperature"`
	LastWatered    *time.Time `json:"last_watered" db:"last_watered"`
	SoilMoisture   *float64   `json:"soil_moisture" db:"soil_moisture"`
	RecordingTaken *time.Time `json:"recording_taken" db:"recording_taken"`
}

// NormalizedTables is the full transformer output consumed by the loader.
type NormalizedTables struct {
	Countries  []Country
	Cities     []City
	Botanists  []BotanistRow
	Plants     []Plant
	Recordings []Recording
}

// SummaryRow is one plant's aggregate over the current batch of recordings.
type SummaryRow struct {
	PlantID         int        `json:"plant_id"`
	PlantName       *string    `json:"plant_name"`
	ScientificName  *string    `json:"scientific_name"`
	Country         *string    `json:"country"`
	City            *string    `json:"city"`
	Latitude        *float64   `json:"latitude"`
	Longitude       *float64   `json:"longitude"`
	BotanistID      *int       `json:"botanist_id"`
	BotanistName    *string    `json:"botanist_name"`
	BotanistEmail   *string    `json:"botanist_email"`
	BotanistPhone   *string    `json:"botanist_phone"`
	AvgTemperature  *float64   `json:"avg_temperature"`
	AvgSoilMoisture *float64   `json:"avg_soil_moisture"`
	LastWatered     *time.Time `json:"last_watered"`
	Date            *time.Time `json:"date"`
}

// RecordingDetail is a recording joined to its plant and botanist, as read
// back from the store by the alert service.
type RecordingDetail struct {
	RecordingID    int        `json:"recording_id" db:"id"`
	PlantID        int        `json:"plant_id" db:"plant_id"`
	PlantName      *string    `json:"plant_name" db:"plant_name"`
	Temperature    *float64   `json:"temperature" db:"temperature"`
	SoilMoisture   *float64   `json:"soil_moisture" db:"soil_moisture"`
	RecordingTaken *time.Time `json:"recording_taken" db:"recording_taken"`
	LastWatered    *time.Time `json:"last_watered" db:"last_watered"`
	BotanistName   *string    `json:"botanist_name" db:"botanist_name"`
	BotanistEmail  *string    `json:"botanist_email" db:"botanist_email"`
	BotanistPhone  *string    `json:"botanist_phone" db:"phone"`
}
