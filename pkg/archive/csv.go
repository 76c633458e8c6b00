package archive

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

var summaryHeader = []string{
	"plant_id",
	"plant_name",
	"scientific_name",
	"country",
	"city",
	"latitude",
	"longitude",
	"botanist_id",
	"botanist_name",
	"botanist_email",
	"botanist_phone",
	"avg_temperature",
	"avg_soil_moisture",
	"last_watered",
	"date",
}

// SummaryCSV renders summary rows as a CSV document with a header row.
// Missing values are written as empty cells.
func SummaryCSV(rows []models.SummaryRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(summaryHeader); err != nil {
		return nil, fmt.Errorf("failed to write summary header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.PlantID),
			strCell(row.PlantName),
			strCell(row.ScientificName),
			strCell(row.Country),
			strCell(row.City),
			floatCell(row.Latitude),
			floatCell(row.Longitude),
			intCell(row.BotanistID),
			strCell(row.BotanistName),
			strCell(row.BotanistEmail),
			strCell(row.BotanistPhone),
			floatCell(row.AvgTemperature),
			floatCell(row.AvgSoilMoisture),
			timeCell(row.LastWatered),
			dateCell(row.Date),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush summary csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ObjectKey names the archive object after the earliest summary date,
// "<YYYY-MM-DD>-summary.csv". When no row carries a date the current UTC day
// is used.
func ObjectKey(rows []models.SummaryRow) string {
	var min *time.Time
	for _, row := range rows {
		if row.Date == nil {
			continue
		}
		if min == nil || row.Date.Before(*min) {
			min = row.Date
		}
	}
	if min == nil {
		now := time.Now().UTC()
		min = &now
	}
	return min.Format("2006-01-02") + "-summary.csv"
}

// WriteArtifacts dumps the extracted batch and its normalized tables as CSV
// files under dir, for offline inspection. The directory is created if
// missing.
func WriteArtifacts(dir string, raw []models.RawRecord, t *models.NormalizedTables) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifacts dir: %w", err)
	}

	files := map[string]func(*csv.Writer) error{
		"raw.csv":       func(w *csv.Writer) error { return writeRaw(w, raw) },
		"country.csv":   func(w *csv.Writer) error { return writeCountries(w, t.Countries) },
		"city.csv":      func(w *csv.Writer) error { return writeCities(w, t.Cities) },
		"botanist.csv":  func(w *csv.Writer) error { return writeBotanists(w, t.Botanists) },
		"plant.csv":     func(w *csv.Writer) error { return writePlants(w, t.Plants) },
		"recording.csv": func(w *csv.Writer) error { return writeRecordings(w, t.Recordings) },
	}

	for name, write := range files {
		if err := writeFile(filepath.Join(dir, name), write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}

func writeRaw(w *csv.Writer, rows []models.RawRecord) error {
	if err := w.Write([]string{
		"plant_id", "name", "scientific_name", "temperature", "soil_moisture",
		"last_watered", "recording_taken", "latitude", "longitude",
		"origin_city", "origin_country", "botanist_name", "botanist_email", "botanist_phone",
	}); err != nil {
		return err
	}
	for _, r := range rows {
		err := w.Write([]string{
			strconv.Itoa(r.PlantID),
			strCell(r.Name), strCell(r.ScientificName), strCell(r.Temperature), strCell(r.SoilMoisture),
			strCell(r.LastWatered), strCell(r.RecordingTaken), strCell(r.Latitude), strCell(r.Longitude),
			strCell(r.OriginCity), strCell(r.OriginCountry), strCell(r.BotanistName), strCell(r.BotanistEmail), strCell(r.BotanistPhone),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeCountries(w *csv.Writer, rows []models.Country) error {
	if err := w.Write([]string{"country_id", "name"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{strconv.Itoa(r.CountryID), r.Name}); err != nil {
			return err
		}
	}
	return nil
}

func writeCities(w *csv.Writer, rows []models.City) error {
	if err := w.Write([]string{"city_id", "name"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{strconv.Itoa(r.CityID), r.Name}); err != nil {
			return err
		}
	}
	return nil
}

func writeBotanists(w *csv.Writer, rows []models.BotanistRow) error {
	if err := w.Write([]string{"botanist_id", "name", "email", "phone_number"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{strconv.Itoa(r.BotanistID), strCell(r.Name), r.Email, strCell(r.Phone)}); err != nil {
			return err
		}
	}
	return nil
}

func writePlants(w *csv.Writer, rows []models.Plant) error {
	if err := w.Write([]string{"plant_id", "name", "scientific_name", "latitude", "longitude", "country_id", "city_id"}); err != nil {
		return err
	}
	for _, r := range rows {
		err := w.Write([]string{
			strconv.Itoa(r.PlantID), strCell(r.Name), strCell(r.ScientificName),
			floatCell(r.Latitude), floatCell(r.Longitude), intCell(r.CountryID), intCell(r.CityID),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeRecordings(w *csv.Writer, rows []models.Recording) error {
	if err := w.Write([]string{"recording_id", "plant_id", "botanist_id", "temperature", "last_watered", "soil_moisture", "recording_taken"}); err != nil {
		return err
	}
	for _, r := range rows {
		err := w.Write([]string{
			strconv.Itoa(r.RecordingID), strconv.Itoa(r.PlantID), intCell(r.BotanistID),
			floatCell(r.Temperature), timeCell(r.LastWatered), floatCell(r.SoilMoisture), timeCell(r.RecordingTaken),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func strCell(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func timeCell(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func dateCell(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format("2006-01-02")
}
