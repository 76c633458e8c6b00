package loader

import "github.com/Ramsey-B/fern/pkg/models"

// tableData is one normalized table staged for writing: store table name,
// store column names (remaps from the normalized schema already applied),
// row values aligned with cols, and the incoming primary-key values used by
// the append-if-absent filter. An empty pk marks a table whose key is
// store-assigned; it is always appended in full.
type tableData struct {
	name string
	pk   string
	cols []string
	rows [][]any
	keys []int
}

// stage lays the normalized tables out in store schema order (dimensions
// before the tables that reference them) and applies the static column
// remaps: botanist name -> botanist_name, phone_number -> phone, and the
// recording surrogate id is dropped in favor of the store's identity column.
func stage(t *models.NormalizedTables) []tableData {
	country := tableData{
		name: "country",
		pk:   "country_id",
		cols: []string{"country_id", "name"},
	}
	for _, row := range t.Countries {
		country.rows = append(country.rows, []any{row.CountryID, row.Name})
		country.keys = append(country.keys, row.CountryID)
	}

	city := tableData{
		name: "city",
		pk:   "city_id",
		cols: []string{"city_id", "name"},
	}
	for _, row := range t.Cities {
		city.rows = append(city.rows, []any{row.CityID, row.Name})
		city.keys = append(city.keys, row.CityID)
	}

	botanist := tableData{
		name: "botanist",
		pk:   "botanist_id",
		cols: []string{"botanist_id", "botanist_name", "email", "phone"},
	}
	for _, row := range t.Botanists {
		botanist.rows = append(botanist.rows, []any{row.BotanistID, row.Name, row.Email, row.Phone})
		botanist.keys = append(botanist.keys, row.BotanistID)
	}

	plant := tableData{
		name: "plant",
		pk:   "plant_id",
		cols: []string{"plant_id", "name", "scientific_name", "latitude", "longitude", "country_id", "city_id"},
	}
	for _, row := range t.Plants {
		plant.rows = append(plant.rows, []any{row.PlantID, row.Name, row.ScientificName, row.Latitude, row.Longitude, row.CountryID, row.CityID})
		plant.keys = append(plant.keys, row.PlantID)
	}

	recording := tableData{
		name: "recording",
		cols: []string{"plant_id", "botanist_id", "temperature", "last_watered", "soil_moisture", "recording_taken"},
	}
	for _, row := range t.Recordings {
		recording.rows = append(recording.rows, []any{row.PlantID, row.BotanistID, row.Temperature, row.LastWatered, row.SoilMoisture, row.RecordingTaken})
	}

	return []tableData{country, city, botanist, plant, recording}
}

// filterAbsent returns the rows whose key is not in existing, preserving
// order, along with the number of rows skipped.
func filterAbsent(t tableData, existing map[int]struct{}) ([][]any, int) {
	kept := make([][]any, 0, len(t.rows))
	for i, row := range t.rows {
		if _, ok := existing[t.keys[i]]; ok {
			continue
		}
		kept = append(kept, row)
	}
	return kept, len(t.rows) - len(kept)
}
