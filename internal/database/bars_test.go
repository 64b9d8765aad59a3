package database

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockcity/txf-bar-service/internal/models"
)

func testBar(ts time.Time, volume int64) *models.Bar {
	return &models.Bar{
		Code:   "TXF",
		TS:     ts,
		Open:   decimal.NewFromFloat(23000.0),
		High:   decimal.NewFromFloat(23012.5),
		Low:    decimal.NewFromFloat(22995.0),
		Close:  decimal.NewFromFloat(23008.0),
		Volume: volume,
	}
}

func TestBarOperations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := SetupTestDB(t)
	defer tdb.Cleanup(t)
	ctx := context.Background()

	base := time.Date(2026, time.January, 20, 9, 0, 0, 0, time.UTC)

	t.Run("CreateBar assigns an id", func(t *testing.T) {
		tdb.TruncateAll(t)

		b := testBar(base, 100)
		require.NoError(t, tdb.CreateBar(ctx, b))
		assert.NotZero(t, b.ID)
	})

	t.Run("CreateBar upserts on code and ts", func(t *testing.T) {
		tdb.TruncateAll(t)

		first := testBar(base, 100)
		require.NoError(t, tdb.CreateBar(ctx, first))

		second := testBar(base, 250)
		second.Close = decimal.NewFromFloat(23011.0)
		require.NoError(t, tdb.CreateBar(ctx, second))
		assert.Equal(t, first.ID, second.ID)

		got, err := tdb.GetLatestBar(ctx, "TXF")
		require.NoError(t, err)
		assert.Equal(t, int64(250), got.Volume)
		assert.True(t, got.Close.Equal(decimal.NewFromFloat(23011.0)))
	})

	t.Run("CreateBarsBatch stores all bars", func(t *testing.T) {
		tdb.TruncateAll(t)

		bars := make([]*models.Bar, 0, 10)
		for i := 0; i < 10; i++ {
			bars = append(bars, testBar(base.Add(time.Duration(i)*time.Minute), int64(i+1)))
		}
		require.NoError(t, tdb.CreateBarsBatch(ctx, bars))

		got, err := tdb.GetBarsRange(ctx, "TXF", base, base.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, got, 10)
	})

	t.Run("GetBarsRange is half-open and ordered", func(t *testing.T) {
		tdb.TruncateAll(t)

		for i := 0; i < 5; i++ {
			require.NoError(t, tdb.CreateBar(ctx, testBar(base.Add(time.Duration(i)*time.Minute), 1)))
		}

		got, err := tdb.GetBarsRange(ctx, "TXF", base.Add(time.Minute), base.Add(3*time.Minute))
		require.NoError(t, err)
		require.Len(t, got, 2, "end bound is exclusive")
		assert.True(t, got[0].TS.Before(got[1].TS))

		// decimals survive the round trip exactly
		assert.True(t, got[0].High.Equal(decimal.NewFromFloat(23012.5)))
	})

	t.Run("GetBarsRange filters by code", func(t *testing.T) {
		tdb.TruncateAll(t)

		require.NoError(t, tdb.CreateBar(ctx, testBar(base, 1)))
		other := testBar(base, 2)
		other.Code = "MXF"
		require.NoError(t, tdb.CreateBar(ctx, other))

		got, err := tdb.GetBarsRange(ctx, "TXF", base, base.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "TXF", got[0].Code)
	})

	t.Run("BarExists", func(t *testing.T) {
		tdb.TruncateAll(t)

		require.NoError(t, tdb.CreateBar(ctx, testBar(base, 1)))

		exists, err := tdb.BarExists(ctx, "TXF", base)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = tdb.BarExists(ctx, "TXF", base.Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("GetLatestBar with no data errors", func(t *testing.T) {
		tdb.TruncateAll(t)

		_, err := tdb.GetLatestBar(ctx, "TXF")
		assert.Error(t, err)
	})

	t.Run("DeleteBarsOlderThan", func(t *testing.T) {
		tdb.TruncateAll(t)

		for i := 0; i < 5; i++ {
			require.NoError(t, tdb.CreateBar(ctx, testBar(base.Add(time.Duration(i)*time.Minute), 1)))
		}

		deleted, err := tdb.DeleteBarsOlderThan(ctx, base.Add(3*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(3), deleted)

		got, err := tdb.GetBarsRange(ctx, "TXF", base, base.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}
