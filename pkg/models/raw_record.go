package models

// RawRecord is one successfully fetched plant reading, flattened from the API
// payload. It is produced by the extractor and never mutated afterwards;
// everything downstream operates on this type, never on the raw JSON map.
//
// Values are kept as the strings the API sent them as (numbers are formatted
// back to text) so the transformer's cleaning pass owns all type coercion,
// exactly like the raw extraction artifact. Nil means the field was absent;
// absence is data here, not an error.
type RawRecord struct {
	PlantID        int     `json:"plant_id" db:"plant_id"`
	Name           *string `json:"name" db:"name"`
	ScientificName *string `json:"scientific_name" db:"scientific_name"`
	Temperature    *string `json:"temperature" db:"temperature"`
	SoilMoisture   *string `json:"soil_moisture" db:"soil_moisture"`
	LastWatered    *string `json:"last_watered" db:"last_watered"`
	RecordingTaken *string `json:"recording_taken" db:"recording_taken"`
	Latitude       *string `json:"latitude" db:"latitude"`
	Longitude      *string `json:"longitude" db:"longitude"`
	OriginCity     *string `json:"origin_city" db:"origin_city"`
	OriginCountry  *string `json:"origin_country" db:"origin_country"`
	BotanistName   *string `json:"botanist_name" db:"botanist_name"`
	BotanistEmail  *string `json:"botanist_email" db:"botanist_email"`
	BotanistPhone  *string `json:"botanist_phone" db:"botanist_phone"`
}

// PlantReading is the wire shape of a single plant from the LNMH API.
// Every field is optional; an Error value signals "no such plant".
// scientific_name and the numeric readings are loosely typed upstream
// (string, number or list), so they stay `any` until flattening.
type PlantReading struct {
	PlantID        *int            `json:"plant_id"`
	Name           *string         `json:"name"`
	ScientificName any             `json:"scientific_name"`
	Temperature    any             `json:"temperature"`
	SoilMoisture   any             `json:"soil_moisture"`
	LastWatered    *string         `json:"last_watered"`
	RecordingTaken *string         `json:"recording_taken"`
	OriginLocation *OriginLocation `json:"origin_location"`
	Botanist       *Botanist       `json:"botanist"`
	Error          *string         `json:"error"`
}

// OriginLocation is the nested origin_location object on the API payload.
type OriginLocation struct {
	Latitude  any     `json:"latitude"`
	Longitude any     `json:"longitude"`
	City      *string `json:"city"`
	Country   *string `json:"country"`
}

// Botanist is the nested botanist object on the API payload. The contact
// fields are loosely typed upstream too, so they stay `any` until flattening;
// a non-string value loses the field, never the record.
type Botanist struct {
	Name  any `json:"name"`
	Email any `json:"email"`
	Phone any `json:"phone"`
}
