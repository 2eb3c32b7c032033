package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity"
)

type stubApproach struct {
	id  int32
	has bool
	obs entity.Observation
}

func (a *stubApproach) ID() int32 {
	return a.id
}

func (a *stubApproach) HasData() bool {
	return a.has
}

func (a *stubApproach) Observation() entity.Observation {
	return a.obs
}

func (a *stubApproach) SetObservation(obs entity.Observation) {
	a.obs = obs
	a.has = true
}

func TestEtaSourceWeighting(t *testing.T) {
	s := &etaSource{hTime: 9, decay: 0.6}

	// vehicle at the stop line: eta 0, weight 1
	a := &stubApproach{id: 1, has: true, obs: entity.Observation{
		Queue: 2,
		Vehicles: []entity.VehicleObservation{
			{Distance: 0, Speed: 5},
		},
	}}
	load, ok := s.sample([]entity.IApproach{a})
	assert.True(t, ok)
	assert.InDelta(t, 3.0, load, 1e-9)

	// eta exactly hTime: weight 1/(1+1) = 0.5, still counted
	a.obs = entity.Observation{Vehicles: []entity.VehicleObservation{
		{Distance: 45, Speed: 5},
	}}
	load, ok = s.sample([]entity.IApproach{a})
	assert.True(t, ok)
	assert.InDelta(t, 0.5, load, 1e-9)

	// beyond the horizon: dropped
	a.obs = entity.Observation{Vehicles: []entity.VehicleObservation{
		{Distance: 46, Speed: 5},
	}}
	load, ok = s.sample([]entity.IApproach{a})
	assert.True(t, ok)
	assert.Equal(t, 0.0, load)
}

func TestEtaSourceUnpredictableVehiclesExcluded(t *testing.T) {
	s := &etaSource{hTime: 9, decay: 0.6}

	a := &stubApproach{id: 1, has: true, obs: entity.Observation{
		Queue: 1,
		Vehicles: []entity.VehicleObservation{
			{Distance: math.NaN(), Speed: 5},
			{Distance: 10, Speed: math.NaN()},
			{Distance: -3, Speed: 5},
			// stopped vehicle far away: eta via the speed floor is way
			// beyond the horizon, so it only counts through the queue
			{Distance: 50, Speed: 0},
		},
	}}
	load, ok := s.sample([]entity.IApproach{a})
	assert.True(t, ok)
	assert.Equal(t, 1.0, load)
}

func TestEtaSourceNoData(t *testing.T) {
	s := &etaSource{hTime: 9, decay: 0.6}

	_, ok := s.sample([]entity.IApproach{&stubApproach{id: 1}})
	assert.False(t, ok)
	_, ok = s.sample(nil)
	assert.False(t, ok)
}

func TestQueueSourceAveraging(t *testing.T) {
	s := &queueSource{}

	a1 := &stubApproach{id: 1, has: true, obs: entity.Observation{Queue: 4}}
	a2 := &stubApproach{id: 2, has: true, obs: entity.Observation{Queue: 2}}
	a3 := &stubApproach{id: 3} // no data, excluded from the average
	load, ok := s.sample([]entity.IApproach{a1, a2, a3})
	assert.True(t, ok)
	assert.Equal(t, 3.0, load)

	_, ok = s.sample([]entity.IApproach{a3})
	assert.False(t, ok)
}

func TestTrendSource(t *testing.T) {
	s := newTrendSource(4)
	a := &stubApproach{id: 1}

	// until the window fills the trend is unavailable
	for _, q := range []int{1, 1, 3} {
		a.SetObservation(entity.Observation{Queue: q})
		_, ok := s.sample([]entity.IApproach{a})
		assert.False(t, ok)
	}

	// window [1 1 3 3]: second half mean 3, first half mean 1
	a.SetObservation(entity.Observation{Queue: 3})
	load, ok := s.sample([]entity.IApproach{a})
	assert.True(t, ok)
	assert.InDelta(t, 2.0, load, 1e-9)

	// missing data does not enter the window
	a.has = false
	_, ok = s.sample([]entity.IApproach{a})
	assert.False(t, ok)

	// window [1 3 3 1]: queues falling back, trend goes to zero
	a.SetObservation(entity.Observation{Queue: 1})
	load, ok = s.sample([]entity.IApproach{a})
	assert.True(t, ok)
	assert.InDelta(t, 0.0, load, 1e-9)
}
