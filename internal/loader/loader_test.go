package loader

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type execCall struct {
	query string
	args  []any
}

// fakeTx records every statement the loader issues and fails any statement
// containing failOn. existing maps a table name to the primary keys its
// key-select reports.
type fakeTx struct {
	existing  map[string][]int
	failOn    string
	commitErr error

	selects    []string
	execs      []execCall
	committed  bool
	rolledBack bool
	closed     bool
}

func (f *fakeTx) IsOpen() bool { return !f.closed }

func (f *fakeTx) SelectContext(_ context.Context, dest any, query string, _ ...any) error {
	f.selects = append(f.selects, query)
	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return errors.New("select failed")
	}
	keys, ok := dest.(*[]int)
	if !ok {
		return errors.New("unexpected select destination")
	}
	for table, pks := range f.existing {
		if strings.Contains(query, "FROM "+table) {
			*keys = append(*keys, pks...)
		}
	}
	return nil
}

func (f *fakeTx) GetContext(context.Context, any, string, ...any) error {
	return errors.New("unexpected GetContext")
}

func (f *fakeTx) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.execs = append(f.execs, execCall{query: query, args: args})
	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return nil, errors.New("exec failed")
	}
	return driver.RowsAffected(int64(len(args))), nil
}

func (f *fakeTx) Commit(context.Context) error {
	if f.closed {
		return nil
	}
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = true
	f.closed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if f.closed {
		return nil
	}
	f.rolledBack = true
	f.closed = true
	return nil
}

func newTestLoader(tx *fakeTx) *Loader {
	l := New(nil, "", noopLogger())
	l.begin = func(context.Context) (database.Tx, error) { return tx, nil }
	return l
}

func sampleTables() *models.NormalizedTables {
	return &models.NormalizedTables{
		Countries: []models.Country{{CountryID: 1, Name: "Brazil"}, {CountryID: 2, Name: "Japan"}},
		Plants:    []models.Plant{{PlantID: 4, Name: strPtr("Fern")}},
		Recordings: []models.Recording{
			{RecordingID: 1, PlantID: 4},
			{RecordingID: 2, PlantID: 4},
		},
	}
}

func inserts(calls []execCall, table string) []execCall {
	var out []execCall
	for _, c := range calls {
		if strings.Contains(c.query, "INSERT INTO "+table) {
			out = append(out, c)
		}
	}
	return out
}

func TestLoad(t *testing.T) {
	t.Run("should insert only absent rows and commit once", func(t *testing.T) {
		tx := &fakeTx{existing: map[string][]int{"country": {1}}}
		l := newTestLoader(tx)

		err := l.Load(context.Background(), sampleTables(), PolicyAppendIfAbsent)
		require.NoError(t, err)
		assert.True(t, tx.committed)
		assert.False(t, tx.rolledBack)

		country := inserts(tx.execs, "country")
		require.Len(t, country, 1)
		assert.Len(t, country[0].args, 2, "only the absent country row should be inserted")

		plant := inserts(tx.execs, "plant")
		require.Len(t, plant, 1)
		assert.Len(t, plant[0].args, 7)
	})

	t.Run("should skip empty tables entirely", func(t *testing.T) {
		tx := &fakeTx{}
		l := newTestLoader(tx)

		err := l.Load(context.Background(), sampleTables(), PolicyAppendIfAbsent)
		require.NoError(t, err)

		for _, q := range tx.selects {
			assert.NotContains(t, q, "city")
			assert.NotContains(t, q, "botanist")
		}
		assert.Empty(t, inserts(tx.execs, "city"))
		assert.Empty(t, inserts(tx.execs, "botanist"))
	})

	t.Run("should append recordings in full without the surrogate id", func(t *testing.T) {
		tx := &fakeTx{existing: map[string][]int{"country": {1, 2}, "plant": {4}}}
		l := newTestLoader(tx)

		err := l.Load(context.Background(), sampleTables(), PolicyAppendIfAbsent)
		require.NoError(t, err)

		for _, q := range tx.selects {
			assert.NotContains(t, q, "recording", "a store-assigned key needs no existence check")
		}

		recording := inserts(tx.execs, "recording")
		require.Len(t, recording, 1)
		assert.Contains(t, recording[0].query, "(plant_id, botanist_id, temperature, last_watered, soil_moisture, recording_taken)")
		assert.Len(t, recording[0].args, 12, "both recordings should be appended on replay")
	})

	t.Run("should insert nothing on a full replay", func(t *testing.T) {
		tx := &fakeTx{existing: map[string][]int{"country": {1, 2}, "plant": {4}}}
		l := newTestLoader(tx)

		tables := sampleTables()
		tables.Recordings = nil

		err := l.Load(context.Background(), tables, PolicyAppendIfAbsent)
		require.NoError(t, err)
		assert.Empty(t, tx.execs)
		assert.True(t, tx.committed)
	})

	t.Run("should roll back and name the table when a write fails", func(t *testing.T) {
		tx := &fakeTx{failOn: "INSERT INTO plant"}
		l := newTestLoader(tx)

		err := l.Load(context.Background(), sampleTables(), PolicyAppendIfAbsent)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `failed to load table "plant"`)
		assert.False(t, tx.committed)
		assert.True(t, tx.rolledBack)
		assert.Empty(t, inserts(tx.execs, "recording"), "no table after the failure should be written")
	})

	t.Run("should roll back when the key read fails", func(t *testing.T) {
		tx := &fakeTx{failOn: "FROM country"}
		l := newTestLoader(tx)

		err := l.Load(context.Background(), sampleTables(), PolicyAppendIfAbsent)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `failed to load table "country"`)
		assert.Contains(t, err.Error(), "failed to read existing keys")
		assert.True(t, tx.rolledBack)
		assert.Empty(t, tx.execs)
	})

	t.Run("should update matched rows under the upsert policy", func(t *testing.T) {
		tx := &fakeTx{}
		l := newTestLoader(tx)

		err := l.Load(context.Background(), sampleTables(), PolicyUpsert)
		require.NoError(t, err)
		assert.Empty(t, tx.selects, "upsert needs no existence check")
		assert.True(t, tx.committed)

		country := inserts(tx.execs, "country")
		require.Len(t, country, 1)
		assert.Contains(t, country[0].query, "ON CONFLICT (country_id) DO UPDATE SET name = EXCLUDED.name")
		assert.Len(t, country[0].args, 4, "every incoming country row should be staged")

		recording := inserts(tx.execs, "recording")
		require.Len(t, recording, 1)
		assert.NotContains(t, recording[0].query, "ON CONFLICT")
	})

	t.Run("should reject an unknown policy before opening a transaction", func(t *testing.T) {
		l := newTestLoader(&fakeTx{})
		began := false
		l.begin = func(context.Context) (database.Tx, error) {
			began = true
			return nil, errors.New("unreachable")
		}

		err := l.Load(context.Background(), sampleTables(), Policy("merge"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown load policy")
		assert.False(t, began)
	})

	t.Run("should roll back when the commit fails", func(t *testing.T) {
		tx := &fakeTx{commitErr: errors.New("commit refused")}
		l := newTestLoader(tx)

		err := l.Load(context.Background(), sampleTables(), PolicyAppendIfAbsent)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "commit refused")
		assert.False(t, tx.committed)
		assert.True(t, tx.rolledBack)
	})
}
