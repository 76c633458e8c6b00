package tables

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Key  string
	Val  int
	Keep bool
}

func TestDistinctByKey(t *testing.T) {
	t.Run("should keep the first row per key in input order", func(t *testing.T) {
		rows := []row{
			{Key: "b", Val: 1, Keep: true},
			{Key: "a", Val: 2, Keep: true},
			{Key: "b", Val: 3, Keep: true},
			{Key: "c", Val: 4, Keep: true},
			{Key: "a", Val: 5, Keep: true},
		}

		got := DistinctByKey(rows, func(r row) (string, bool) { return r.Key, r.Keep })

		require.Len(t, got, 3)
		assert.Equal(t, []row{rows[0], rows[1], rows[3]}, got)
	})

	t.Run("should drop rows with no key", func(t *testing.T) {
		rows := []row{
			{Key: "a", Keep: false},
			{Key: "b", Keep: true},
		}

		got := DistinctByKey(rows, func(r row) (string, bool) { return r.Key, r.Keep })

		require.Len(t, got, 1)
		assert.Equal(t, "b", got[0].Key)
	})

	t.Run("should return empty for empty input", func(t *testing.T) {
		got := DistinctByKey(nil, func(r row) (string, bool) { return r.Key, true })
		assert.Empty(t, got)
	})
}

func TestIndexByKey(t *testing.T) {
	t.Run("should map each key to its first value", func(t *testing.T) {
		rows := []row{
			{Key: "a", Val: 1, Keep: true},
			{Key: "a", Val: 2, Keep: true},
			{Key: "b", Val: 3, Keep: true},
		}

		got := IndexByKey(rows,
			func(r row) (string, bool) { return r.Key, r.Keep },
			func(r row) int { return r.Val })

		assert.Equal(t, map[string]int{"a": 1, "b": 3}, got)
	})

	t.Run("should skip rows with no key", func(t *testing.T) {
		rows := []row{{Key: "a", Val: 1, Keep: false}}

		got := IndexByKey(rows,
			func(r row) (string, bool) { return r.Key, r.Keep },
			func(r row) int { return r.Val })

		assert.Empty(t, got)
	})
}

func TestGroupByKey(t *testing.T) {
	t.Run("should preserve first-appearance order of keys", func(t *testing.T) {
		rows := []row{
			{Key: "b", Val: 1},
			{Key: "a", Val: 2},
			{Key: "b", Val: 3},
		}

		got := GroupByKey(rows, func(r row) string { return r.Key })

		require.Len(t, got, 2)
		assert.Equal(t, "b", got[0].Key)
		assert.Equal(t, []row{rows[0], rows[2]}, got[0].Rows)
		assert.Equal(t, "a", got[1].Key)
		assert.Equal(t, []row{rows[1]}, got[1].Rows)
	})
}

func floatPtr(f float64) *float64 { return &f }

func TestMean(t *testing.T) {
	t.Run("should exclude nil values from the mean", func(t *testing.T) {
		got := Mean([]*float64{floatPtr(10), nil, floatPtr(20)})
		require.NotNil(t, got)
		assert.Equal(t, 15.0, *got)
	})

	t.Run("should return nil when all values are nil", func(t *testing.T) {
		assert.Nil(t, Mean([]*float64{nil, nil}))
		assert.Nil(t, Mean(nil))
	})
}

func timePtr(v time.Time) *time.Time { return &v }

func TestMaxTime(t *testing.T) {
	t.Run("should return the latest non-nil instant", func(t *testing.T) {
		early := time.Date(2024, 1, 14, 9, 0, 0, 0, time.UTC)
		late := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

		got := MaxTime([]*time.Time{timePtr(early), nil, timePtr(late)})
		require.NotNil(t, got)
		assert.Equal(t, late, *got)
	})

	t.Run("should return nil for all-nil input", func(t *testing.T) {
		assert.Nil(t, MaxTime([]*time.Time{nil}))
	})
}

func TestMinDate(t *testing.T) {
	t.Run("should truncate to the earliest UTC day", func(t *testing.T) {
		a := time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)
		b := time.Date(2024, 1, 14, 1, 15, 0, 0, time.UTC)

		got := MinDate([]*time.Time{timePtr(a), timePtr(b)})
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), *got)
	})

	t.Run("should return nil when no instants are present", func(t *testing.T) {
		assert.Nil(t, MinDate([]*time.Time{nil, nil}))
	})
}
