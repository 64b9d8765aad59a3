package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockcity/txf-bar-service/internal/models"
)

func TestContractOperations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := SetupTestDB(t)
	defer tdb.Cleanup(t)

	t.Run("CreateContract and GetContract", func(t *testing.T) {
		tdb.TruncateAll(t)

		c := &models.Contract{Code: "TXF", Name: "TAIEX Futures", Enabled: true}
		require.NoError(t, tdb.CreateContract(c))
		assert.False(t, c.AddedAt.IsZero())

		got, err := tdb.GetContract("TXF")
		require.NoError(t, err)
		assert.Equal(t, "TXF", got.Code)
		assert.Equal(t, "TAIEX Futures", got.Name)
		assert.True(t, got.Enabled)
	})

	t.Run("CreateContract upserts", func(t *testing.T) {
		tdb.TruncateAll(t)

		require.NoError(t, tdb.CreateContract(&models.Contract{Code: "TXF", Name: "old", Enabled: true}))
		require.NoError(t, tdb.CreateContract(&models.Contract{Code: "TXF", Name: "TAIEX Futures", Enabled: false}))

		got, err := tdb.GetContract("TXF")
		require.NoError(t, err)
		assert.Equal(t, "TAIEX Futures", got.Name)
		assert.False(t, got.Enabled)
	})

	t.Run("GetContract not found", func(t *testing.T) {
		tdb.TruncateAll(t)

		_, err := tdb.GetContract("ZZZ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("GetAllContracts ordered by code", func(t *testing.T) {
		tdb.TruncateAll(t)

		require.NoError(t, tdb.CreateContract(&models.Contract{Code: "TXF", Enabled: true}))
		require.NoError(t, tdb.CreateContract(&models.Contract{Code: "MXF", Enabled: true}))

		got, err := tdb.GetAllContracts()
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "MXF", got[0].Code)
		assert.Equal(t, "TXF", got[1].Code)
	})

	t.Run("GetEnabledContracts filters", func(t *testing.T) {
		tdb.TruncateAll(t)

		require.NoError(t, tdb.CreateContract(&models.Contract{Code: "TXF", Enabled: true}))
		require.NoError(t, tdb.CreateContract(&models.Contract{Code: "MXF", Enabled: false}))

		got, err := tdb.GetEnabledContracts()
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "TXF", got[0].Code)
	})

	t.Run("DeleteContract", func(t *testing.T) {
		tdb.TruncateAll(t)

		require.NoError(t, tdb.CreateContract(&models.Contract{Code: "TXF", Enabled: true}))
		require.NoError(t, tdb.DeleteContract("TXF"))

		_, err := tdb.GetContract("TXF")
		assert.Error(t, err)

		err = tdb.DeleteContract("TXF")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}
