package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"racecal.simsportsarena.com/internal/models"
)

func TestParseDate(t *testing.T) {
	d, err := models.ParseDate("2026-02-09")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.February, d.Month())
	assert.Equal(t, 9, d.Day())
	assert.Equal(t, time.Monday, d.Weekday())

	_, err = models.ParseDate("02/09/2026")
	assert.Error(t, err)
}

func TestDateArithmetic(t *testing.T) {
	d := models.NewDate(2026, time.February, 27)

	assert.Equal(t, "2026-03-01", d.AddDays(2).String())
	assert.Equal(t, 2, d.AddDays(2).DaysSince(d))
	assert.Equal(t, -2, d.DaysSince(d.AddDays(2)))

	// leap day
	assert.Equal(t, "2024-02-29", models.NewDate(2024, time.February, 28).AddDays(1).String())
}

func TestDateOrdering(t *testing.T) {
	a := models.NewDate(2026, time.January, 31)
	b := models.NewDate(2026, time.February, 1)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Equal(b))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 0, a.Compare(a))
}

func TestDateJSONRoundTrip(t *testing.T) {
	type payload struct {
		Day models.Date `json:"day"`
	}

	data, err := json.Marshal(payload{Day: models.NewDate(2026, time.February, 9)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2026-02-09"}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2026-02-09"}`), &decoded))
	assert.True(t, decoded.Day.Equal(models.NewDate(2026, time.February, 9)))

	assert.Error(t, json.Unmarshal([]byte(`{"day":"soon"}`), &decoded))
}
