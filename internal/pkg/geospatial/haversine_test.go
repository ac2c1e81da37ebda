package geospatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridematch/internal/core/domain"
)

var (
	abando  = domain.GeoPoint{Lat: 43.2614, Lon: -2.9275}
	moyua   = domain.GeoPoint{Lat: 43.2627, Lon: -2.9356}
	sarriko = domain.GeoPoint{Lat: 43.2697, Lon: -2.9522}
)

func TestHaversine_OneDegreeOfLatitude(t *testing.T) {
	// 6371 km * pi / 180
	assert.InDelta(t, 111194.93, Haversine(0, 0, 1, 0), 0.01)
}

func TestDistance_SamePointIsZero(t *testing.T) {
	for _, p := range []domain.GeoPoint{abando, moyua, {Lat: -33.86, Lon: 151.21}, {}} {
		assert.Equal(t, 0.0, Distance(p, p))
	}
}

func TestDistance_Symmetric(t *testing.T) {
	assert.InDelta(t, Distance(abando, sarriko), Distance(sarriko, abando), 1e-9)
	assert.InDelta(t, Distance(moyua, abando), Distance(abando, moyua), 1e-9)
}

func TestDistance_CityScale(t *testing.T) {
	// Abando to Moyua is a short walk across the Ensanche.
	d := Distance(abando, moyua)
	assert.Greater(t, d, 600.0)
	assert.Less(t, d, 700.0)
}

func TestBoundsAround_ContainsCenter(t *testing.T) {
	b := BoundsAround(abando, 500)
	assert.True(t, b.Contains(abando))
	assert.False(t, b.Contains(sarriko))
	assert.InDelta(t, 500/111320.0, abando.Lat-b.MinLat, 1e-12)
	require.Less(t, b.MinLon, abando.Lon)
	assert.Greater(t, b.MaxLon-b.MinLon, b.MaxLat-b.MinLat, "longitude span widens away from the equator")
}

func TestToRad(t *testing.T) {
	assert.InDelta(t, math.Pi, toRad(180), 1e-15)
}
