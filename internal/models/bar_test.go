package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBar() Bar {
	return Bar{
		Code:   "TXF",
		TS:     time.Date(2026, time.January, 27, 9, 0, 0, 0, time.UTC),
		Open:   decimal.NewFromInt(23000),
		High:   decimal.NewFromInt(23010),
		Low:    decimal.NewFromInt(22990),
		Close:  decimal.NewFromInt(23005),
		Volume: 120,
	}
}

func TestBarValidate(t *testing.T) {
	t.Run("valid bar", func(t *testing.T) {
		b := validBar()
		assert.NoError(t, b.Validate())
	})

	t.Run("flat bar is valid", func(t *testing.T) {
		b := validBar()
		p := decimal.NewFromInt(23000)
		b.Open, b.High, b.Low, b.Close = p, p, p, p
		b.Volume = 0
		assert.NoError(t, b.Validate())
	})

	t.Run("zero timestamp", func(t *testing.T) {
		b := validBar()
		b.TS = time.Time{}
		assert.Error(t, b.Validate())
	})

	t.Run("high below low", func(t *testing.T) {
		b := validBar()
		b.High = decimal.NewFromInt(22980)
		err := b.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "high")
	})

	t.Run("open above high", func(t *testing.T) {
		b := validBar()
		b.Open = decimal.NewFromInt(23020)
		assert.Error(t, b.Validate())
	})

	t.Run("close below low", func(t *testing.T) {
		b := validBar()
		b.Close = decimal.NewFromInt(22980)
		assert.Error(t, b.Validate())
	})

	t.Run("negative volume", func(t *testing.T) {
		b := validBar()
		b.Volume = -1
		assert.Error(t, b.Validate())
	})
}

func TestParseSession(t *testing.T) {
	for _, s := range []string{"day", "night", "full"} {
		got, err := ParseSession(s)
		require.NoError(t, err)
		assert.Equal(t, Session(s), got)
	}

	_, err := ParseSession("afternoon")
	assert.Error(t, err)

	assert.True(t, SessionDay.IncludesDay())
	assert.False(t, SessionDay.IncludesNight())
	assert.False(t, SessionNight.IncludesDay())
	assert.True(t, SessionNight.IncludesNight())
	assert.True(t, SessionFull.IncludesDay())
	assert.True(t, SessionFull.IncludesNight())
}

func TestParsePeriod(t *testing.T) {
	cases := map[string]int{"1m": 1, "5m": 5, "15m": 15, "30m": 30, "60m": 60}
	for s, minutes := range cases {
		got, err := ParsePeriod(s)
		require.NoError(t, err)
		assert.Equal(t, minutes, got.Minutes())
		assert.True(t, got.IsIntraday())
	}

	daily, err := ParsePeriod("1d")
	require.NoError(t, err)
	assert.False(t, daily.IsIntraday())
	assert.Zero(t, daily.Minutes())

	_, err = ParsePeriod("2h")
	assert.Error(t, err)
}
