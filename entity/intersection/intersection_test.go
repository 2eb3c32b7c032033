package intersection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/clock"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity/approach"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity/intersection/signal"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/input"
)

type stubContext struct {
	clk   *clock.Clock
	am    entity.IApproachManager
	im    entity.IIntersectionManager
	board entity.ILoadBoard
	rc    *config.RuntimeConfig
}

func (ctx *stubContext) Clock() *clock.Clock { return ctx.clk }

func (ctx *stubContext) ApproachManager() entity.IApproachManager { return ctx.am }

func (ctx *stubContext) IntersectionManager() entity.IIntersectionManager { return ctx.im }

func (ctx *stubContext) Board() entity.ILoadBoard { return ctx.board }

func (ctx *stubContext) RuntimeConfig() *config.RuntimeConfig { return ctx.rc }

func newStubContext(c config.Config) (*stubContext, *Manager) {
	ctx := &stubContext{
		clk:   clock.New(c.Control.Step),
		am:    approach.NewManager(),
		board: signal.NewBoard(),
		rc:    config.NewRuntimeConfig(c),
	}
	m := NewManager(ctx)
	ctx.im = m
	return ctx, m
}

func testNetwork() *input.Network {
	return &input.Network{
		Intersections: []*input.Intersection{
			{
				ID: 1,
				Phases: []*input.Phase{
					{ID: 0, BaseGreen: 10, ApproachIDs: []int32{11}},
					{ID: 1, BaseGreen: 10, ApproachIDs: []int32{12}},
				},
			},
		},
		Approaches: []*input.Approach{
			{ID: 11, ArrivalRate: 0.1, ServiceRate: 0.5, DetectRange: 150, MaxSpeed: 14},
			{ID: 12, ArrivalRate: 0.1, ServiceRate: 0.5, DetectRange: 150, MaxSpeed: 14},
		},
	}
}

// step runs one full simulation step in the task loop order
func step(ctx *stubContext, m *Manager) {
	ctx.board.Prepare()
	ctx.am.Prepare()
	m.Prepare()
	m.Update(ctx.clk.DT)
	ctx.clk.Step()
}

func TestIntersectionPhaseRotation(t *testing.T) {
	c := config.Default()
	ctx, m := newStubContext(c)
	net := testNetwork()
	ctx.am.Init(net.Approaches)
	m.Init(net.Intersections, ctx.am, ctx.board)

	i := m.Get(1)
	assert.Equal(t, int32(1), i.ID())
	assert.Equal(t, int32(0), i.ActivePhase())
	assert.Equal(t, 10.0, i.PhaseRemaining())

	// mid-band observations keep the duration at base
	for s := 0; s < 10; s++ {
		ctx.am.Get(11).SetObservation(entity.Observation{Queue: 3})
		ctx.am.Get(12).SetObservation(entity.Observation{Queue: 3})
		step(ctx, m)
	}
	m.Prepare()
	assert.Equal(t, int32(1), i.ActivePhase())
	assert.Equal(t, 10.0, i.PhaseRemaining())
	assert.Equal(t, 10.0, i.GreenDuration())

	// a second rotation wraps back to the first phase
	for s := 0; s < 10; s++ {
		ctx.am.Get(11).SetObservation(entity.Observation{Queue: 3})
		ctx.am.Get(12).SetObservation(entity.Observation{Queue: 3})
		step(ctx, m)
	}
	m.Prepare()
	assert.Equal(t, int32(0), i.ActivePhase())
}

func TestIntersectionHighLoadExtendsGreen(t *testing.T) {
	c := config.Default()
	ctx, m := newStubContext(c)
	net := testNetwork()
	ctx.am.Init(net.Approaches)
	m.Init(net.Intersections, ctx.am, ctx.board)

	i := m.Get(1)
	for s := 0; s < 6; s++ {
		ctx.am.Get(11).SetObservation(entity.Observation{Queue: 9})
		step(ctx, m)
	}
	m.Prepare()
	assert.Greater(t, i.GreenDuration(), 10.0)
	assert.LessOrEqual(t, i.GreenDuration(), c.Signal.MaxGreen)
	assert.Equal(t, 9.0, i.PublishedLoad())
}

func TestManagerLookup(t *testing.T) {
	c := config.Default()
	ctx, m := newStubContext(c)
	net := testNetwork()
	ctx.am.Init(net.Approaches)
	m.Init(net.Intersections, ctx.am, ctx.board)

	assert.Len(t, m.All(), 1)
	i, err := m.GetOrError(1)
	assert.Nil(t, err)
	assert.Equal(t, int32(1), i.ID())
	_, err = m.GetOrError(99)
	assert.NotNil(t, err)
}
