package transformer

import (
	"time"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tables"
)

// Summarize aggregates the batch's recordings into one row per plant:
// arithmetic means over non-nil readings, the latest watering instant and
// the earliest recording day. It aggregates whatever batch it is given; any
// time-window shaping is the caller's responsibility.
func Summarize(t *models.NormalizedTables) []models.SummaryRow {
	plants := tables.IndexByKey(t.Plants,
		func(p models.Plant) (int, bool) { return p.PlantID, true },
		func(p models.Plant) models.Plant { return p })
	countries := tables.IndexByKey(t.Countries,
		func(c models.Country) (int, bool) { return c.CountryID, true },
		func(c models.Country) string { return c.Name })
	cities := tables.IndexByKey(t.Cities,
		func(c models.City) (int, bool) { return c.CityID, true },
		func(c models.City) string { return c.Name })
	botanists := tables.IndexByKey(t.Botanists,
		func(b models.BotanistRow) (int, bool) { return b.BotanistID, true },
		func(b models.BotanistRow) models.BotanistRow { return b })

	groups := tables.GroupByKey(t.Recordings, func(r models.Recording) int { return r.PlantID })

	out := make([]models.SummaryRow, 0, len(groups))
	for _, group := range groups {
		row := models.SummaryRow{
			PlantID: group.Key,
			AvgTemperature: tables.Mean(ectolinq.Map(group.Rows,
				func(r models.Recording) *float64 { return r.Temperature })),
			AvgSoilMoisture: tables.Mean(ectolinq.Map(group.Rows,
				func(r models.Recording) *float64 { return r.SoilMoisture })),
			LastWatered: tables.MaxTime(ectolinq.Map(group.Rows,
				func(r models.Recording) *time.Time { return r.LastWatered })),
			Date: tables.MinDate(ectolinq.Map(group.Rows,
				func(r models.Recording) *time.Time { return r.RecordingTaken })),
		}

		if plant, ok := plants[group.Key]; ok {
			row.PlantName = plant.Name
			row.ScientificName = plant.ScientificName
			row.Latitude = plant.Latitude
			row.Longitude = plant.Longitude
			if plant.CountryID != nil {
				if name, ok := countries[*plant.CountryID]; ok {
					row.Country = &name
				}
			}
			if plant.CityID != nil {
				if name, ok := cities[*plant.CityID]; ok {
					row.City = &name
				}
			}
		}

		if id := group.Rows[0].BotanistID; id != nil {
			row.BotanistID = id
			if botanist, ok := botanists[*id]; ok {
				row.BotanistName = botanist.Name
				email := botanist.Email
				row.BotanistEmail = &email
				row.BotanistPhone = botanist.Phone
			}
		}

		out = append(out, row)
	}
	return out
}
