package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/clock"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/input"
)

func newTestClock() *clock.Clock {
	return clock.New(config.ControlStep{Start: 0, Total: 100, Interval: 1})
}

func testPhases() []*input.Phase {
	return []*input.Phase{
		{ID: 0, BaseGreen: 20, ApproachIDs: []int32{1}},
		{ID: 1, BaseGreen: 15, ApproachIDs: []int32{2}},
	}
}

func TestCooperativeUpstreamAggregation(t *testing.T) {
	clk := newTestClock()
	cfg := config.Default().Signal
	board := NewBoard()
	a := &stubApproach{id: 1, has: true, obs: entity.Observation{Queue: 4}}
	c := NewCooperative(clk, 1, cfg, testPhases(),
		map[int32][]entity.IApproach{0: {a}, 1: {&stubApproach{id: 2}}},
		[]int32{2, 3}, board)

	// upstream neighbors each reporting load 10
	board.Publish(2, 10, 0)
	board.Publish(3, 10, 0)
	board.Prepare()

	// combined = 4 + 0.11 * 10 = 5.1, above the high cutoff 5
	c.Update(1)
	c.Prepare()
	assert.InDelta(t, 5.1, c.CombinedLoad(), 1e-9)
	assert.Equal(t, StateAdjusting, c.State())
	assert.Equal(t, 23.0, c.ActiveDuration())
	assert.Equal(t, 4.0, c.PublishedLoad())
}

func TestCooperativeNoUpstreamReports(t *testing.T) {
	clk := newTestClock()
	cfg := config.Default().Signal
	board := NewBoard()
	a := &stubApproach{id: 1, has: true, obs: entity.Observation{Queue: 4}}
	c := NewCooperative(clk, 1, cfg, testPhases(),
		map[int32][]entity.IApproach{0: {a}},
		[]int32{2, 3}, board)

	// nothing on the board yet: combined falls back to the local load
	c.Update(1)
	c.Prepare()
	assert.InDelta(t, 4.0, c.CombinedLoad(), 1e-9)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 20.0, c.ActiveDuration())
}

func TestControllerSensorGapReusesLoad(t *testing.T) {
	clk := newTestClock()
	cfg := config.Default().Signal
	board := NewBoard()
	a := &stubApproach{id: 1, has: true, obs: entity.Observation{Queue: 4}}
	c := NewCooperative(clk, 1, cfg, testPhases(),
		map[int32][]entity.IApproach{0: {a}}, nil, board)

	c.Update(1)
	c.Prepare()
	assert.False(t, c.StaleSample())
	assert.Equal(t, 4.0, c.PublishedLoad())

	// sensor dropout: last load is reused, flagged and counted
	a.has = false
	clk.Step()
	c.Update(1)
	c.Prepare()
	assert.True(t, c.StaleSample())
	assert.Equal(t, 4.0, c.PublishedLoad())
	assert.Equal(t, int32(1), c.Diagnostics().SensorGaps)

	// the reused value is still published for downstream readers
	board.Prepare()
	r, ok := board.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 4.0, r.Load)
}

func TestControllerSwitchPhase(t *testing.T) {
	clk := newTestClock()
	cfg := config.Default().Signal
	a := &stubApproach{id: 1, has: true, obs: entity.Observation{Queue: 9}}
	c := NewCooperative(clk, 1, cfg, testPhases(),
		map[int32][]entity.IApproach{0: {a}}, nil, nil)

	// drive phase 0 above base so the memory is visible
	c.Update(1)
	assert.NotZero(t, c.phases[0].trailing)
	d0, err := c.Duration(0)
	assert.Nil(t, err)
	assert.Equal(t, 23.0, d0)

	assert.Nil(t, c.SwitchPhase(1))
	c.Prepare()
	assert.Equal(t, int32(1), c.ActivePhase())
	assert.Equal(t, 15.0, c.ActiveDuration())

	// switching back clears the load memory but keeps the duration
	assert.Nil(t, c.SwitchPhase(0))
	c.Prepare()
	assert.Equal(t, 0.0, c.phases[0].trailing)
	assert.Equal(t, 23.0, c.ActiveDuration())

	assert.ErrorIs(t, c.SwitchPhase(99), ErrUnknownPhase)
	_, err = c.Duration(99)
	assert.ErrorIs(t, err, ErrUnknownPhase)
}

func TestControllerSetOkStopsAdjustment(t *testing.T) {
	clk := newTestClock()
	cfg := config.Default().Signal
	a := &stubApproach{id: 1, has: true, obs: entity.Observation{Queue: 9}}
	c := NewCooperative(clk, 1, cfg, testPhases(),
		map[int32][]entity.IApproach{0: {a}}, nil, nil)

	c.SetOk(false)
	c.Prepare()
	assert.False(t, c.Ok())
	c.Update(1)
	d, err := c.Duration(0)
	assert.Nil(t, err)
	assert.Equal(t, 20.0, d)
}

func TestThresholdController(t *testing.T) {
	clk := newTestClock()
	cfg := config.Default().Signal
	// avg queue 9 above QueueUpper 8: extend by QueueInc 5
	a := &stubApproach{id: 1, has: true, obs: entity.Observation{Queue: 9}}
	c := NewThreshold(clk, 1, cfg, testPhases(),
		map[int32][]entity.IApproach{0: {a}})

	c.Update(1)
	c.Prepare()
	assert.Equal(t, StateAdjusting, c.State())
	assert.Equal(t, 25.0, c.ActiveDuration())
}

func TestEngineDerivation(t *testing.T) {
	cfg := config.Default().Signal

	th := thresholdEngine(cfg)
	assert.Equal(t, 0.0, th.AlphaUpstream)
	assert.Equal(t, cfg.QueueUpper, th.HighCutoff)
	assert.Equal(t, cfg.QueueLower, th.LowCutoff)
	assert.Equal(t, cfg.QueueInc, th.Inc)
	assert.Equal(t, cfg.QueueDec, th.Dec)

	tr := trendEngine(cfg)
	assert.Equal(t, 0.0, tr.AlphaUpstream)
	assert.Equal(t, cfg.TrendUp, tr.HighCutoff)
	assert.Equal(t, cfg.TrendDown, tr.LowCutoff)
	assert.Equal(t, 1.0, tr.RelaxRate)
}

func TestControllerBaseGreenClampedAtInit(t *testing.T) {
	clk := newTestClock()
	cfg := config.Default().Signal
	phases := []*input.Phase{
		{ID: 0, BaseGreen: 100, ApproachIDs: []int32{1}},
		{ID: 1, BaseGreen: 3, ApproachIDs: []int32{2}},
	}
	c := NewCooperative(clk, 1, cfg, phases, nil, nil, nil)

	d, err := c.Duration(0)
	assert.Nil(t, err)
	assert.Equal(t, cfg.MaxGreen, d)
	d, err = c.Duration(1)
	assert.Nil(t, err)
	assert.Equal(t, cfg.MinGreen, d)
}
