package sizing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeToQty(t *testing.T) {
	qty, err := SizeToQty(1000, 300, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 3.333, qty)

	qty, err = SizeToQty(1000, 100, 3, 0.001)
	require.NoError(t, err)
	assert.Equal(t, 9.97, qty)

	for _, price := range []float64{0, -1, math.NaN()} {
		_, err := SizeToQty(1000, price, 3, 0)
		require.ErrorIs(t, err, ErrInvalidPrice)
	}
}

func TestRiskToQty(t *testing.T) {
	// 1% of 10000 over a 10 point stop is 10 units, 1000 worth at 100
	qty, err := RiskToQty(10000, 1, 100, 90, 8, 0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, qty)

	// short side uses the same distance
	qty, err = RiskToQty(10000, 1, 100, 110, 8, 0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, qty)

	// capped at the capital
	qty, err = RiskToQty(1000, 5, 100, 99, 8, 0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, qty)

	qty, err = RiskToQty(10000, 1, 100, 90, 2, 0.001)
	require.NoError(t, err)
	assert.Equal(t, 9.97, qty)

	_, err = RiskToQty(10000, 0, 100, 90, 8, 0)
	require.ErrorIs(t, err, ErrInvalidRisk)

	_, err = RiskToQty(10000, 1, 100, 100, 8, 0)
	require.ErrorIs(t, err, ErrInvalidRisk)

	_, err = RiskToQty(10000, 1, 0, 90, 8, 0)
	require.ErrorIs(t, err, ErrInvalidPrice)
}
