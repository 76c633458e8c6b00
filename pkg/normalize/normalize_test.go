package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestTrim(t *testing.T) {
	t.Run("should return nil for nil input", func(t *testing.T) {
		assert.Nil(t, Trim(nil))
	})

	t.Run("should return nil for whitespace-only input", func(t *testing.T) {
		assert.Nil(t, Trim(strPtr("   ")))
		assert.Nil(t, Trim(strPtr("")))
	})

	t.Run("should trim surrounding whitespace", func(t *testing.T) {
		got := Trim(strPtr("  venus flytrap  "))
		require.NotNil(t, got)
		assert.Equal(t, "venus flytrap", *got)
	})
}

func TestFloat(t *testing.T) {
	t.Run("should parse a numeric string", func(t *testing.T) {
		got := Float(strPtr("13.5"))
		require.NotNil(t, got)
		assert.Equal(t, 13.5, *got)
	})

	t.Run("should parse a padded numeric string", func(t *testing.T) {
		got := Float(strPtr(" -41.25 "))
		require.NotNil(t, got)
		assert.Equal(t, -41.25, *got)
	})

	t.Run("should return nil for garbage", func(t *testing.T) {
		assert.Nil(t, Float(strPtr("not a number")))
	})

	t.Run("should return nil for nil or empty input", func(t *testing.T) {
		assert.Nil(t, Float(nil))
		assert.Nil(t, Float(strPtr("")))
	})
}

func TestTime(t *testing.T) {
	t.Run("should parse RFC1123", func(t *testing.T) {
		got := Time(strPtr("Mon, 15 Jan 2024 13:54:32 GMT"))
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2024, 1, 15, 13, 54, 32, 0, time.UTC), *got)
	})

	t.Run("should parse a bare datetime", func(t *testing.T) {
		got := Time(strPtr("2024-01-15 13:54:32"))
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2024, 1, 15, 13, 54, 32, 0, time.UTC), *got)
	})

	t.Run("should parse RFC3339 and convert to UTC", func(t *testing.T) {
		got := Time(strPtr("2024-01-15T14:54:32+01:00"))
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2024, 1, 15, 13, 54, 32, 0, time.UTC), *got)
	})

	t.Run("should return nil for an unparseable value", func(t *testing.T) {
		assert.Nil(t, Time(strPtr("yesterday-ish")))
		assert.Nil(t, Time(nil))
	})
}

func TestPhone(t *testing.T) {
	t.Run("should return nil for nil input", func(t *testing.T) {
		assert.Nil(t, Phone(nil))
	})

	t.Run("should strip punctuation from a plain number", func(t *testing.T) {
		got := Phone(strPtr("(761) 233-7244"))
		require.NotNil(t, got)
		assert.Equal(t, "7612337244", *got)
	})

	t.Run("should keep an extension marked with x", func(t *testing.T) {
		got := Phone(strPtr("001-481-273-3691x127"))
		require.NotNil(t, got)
		assert.Equal(t, "0014812733691x127", *got)
	})

	t.Run("should rewrite ext to x", func(t *testing.T) {
		got := Phone(strPtr("9766312845 ext. 402"))
		require.NotNil(t, got)
		assert.Equal(t, "9766312845x402", *got)
	})

	t.Run("should drop a trailing x with no digits", func(t *testing.T) {
		got := Phone(strPtr("5550199x"))
		require.NotNil(t, got)
		assert.Equal(t, "5550199", *got)
	})

	t.Run("should return the stripped string when no leading digit run", func(t *testing.T) {
		got := Phone(strPtr("call me"))
		require.NotNil(t, got)
		assert.Equal(t, "", *got)

		got = Phone(strPtr("x123"))
		require.NotNil(t, got)
		assert.Equal(t, "x123", *got)
	})

	t.Run("should require at least three leading digits", func(t *testing.T) {
		got := Phone(strPtr("12-x9"))
		require.NotNil(t, got)
		assert.Equal(t, "12x9", *got)
	})

	t.Run("should be idempotent", func(t *testing.T) {
		inputs := []string{
			"(761) 233-7244",
			"001-481-273-3691x127",
			"9766312845 ext. 402",
			"call me",
			"12-x9",
			"+44 20 7946 0958",
		}
		for _, in := range inputs {
			once := Phone(strPtr(in))
			require.NotNil(t, once)
			twice := Phone(once)
			require.NotNil(t, twice)
			assert.Equal(t, *once, *twice, "input %q", in)
		}
	})
}
