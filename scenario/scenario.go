package scenario

import (
	"math"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/input"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/randengine"
)

// log 合成需求模块的日志记录器
var log = logrus.WithField("module", "scenario")

// approachState 单条进口道的需求状态
type approachState struct {
	data    *input.Approach
	ap      entity.IApproach
	owner   entity.IIntersection // 所属路口
	phaseID int32                // 放行该进口道的相位ID
	queue   float64              // 当前排队车辆数（连续值，观测时取整）
	engine  *randengine.Engine
}

// Generator 合成需求生成器
// 功能：在没有外部仿真运行时接入时，为各进口道生成排队与车辆观测
// 说明：每条进口道一个独立随机引擎，同一种子下输出完全可复现
type Generator struct {
	ctx entity.ITaskContext

	states []*approachState
}

// New 创建合成需求生成器
// 功能：解析进口道到所属路口与相位的映射，为每条进口道建立需求状态
// 参数：ctx-任务上下文，n-路网输入数据
// 返回：初始化完成的生成器实例
func New(ctx entity.ITaskContext, n *input.Network) *Generator {
	type ownerKey struct {
		intersection int32
		phase        int32
	}
	owners := make(map[int32]ownerKey)
	for _, i := range n.Intersections {
		for _, p := range i.Phases {
			for _, id := range p.ApproachIDs {
				owners[id] = ownerKey{intersection: i.ID, phase: p.ID}
			}
		}
	}

	seed := ctx.RuntimeConfig().C.Seed
	g := &Generator{ctx: ctx, states: make([]*approachState, 0, len(n.Approaches))}
	for _, a := range n.Approaches {
		o, ok := owners[a.ID]
		if !ok {
			log.Warnf("approach %d is not served by any phase, skipped", a.ID)
			continue
		}
		g.states = append(g.states, &approachState{
			data:    a,
			ap:      ctx.ApproachManager().Get(a.ID),
			owner:   ctx.IntersectionManager().Get(o.intersection),
			phaseID: o.phase,
			engine:  randengine.New(seed + uint64(a.ID)),
		})
	}
	return g
}

// Step 生成一步观测
// 功能：推进各进口道的排队状态并写入观测buffer
// 算法说明：
// 1. 按到达率掷伯努利决定是否有新车加入排队
// 2. 所属相位处于放行状态时按放行率消减排队
// 3. 按缺失概率决定本步是否丢弃观测，不写入即传感器缺失
// 4. 按自由流车头时距的期望采样检测范围内行进车辆的距离与速度
func (g *Generator) Step() {
	dt := g.ctx.Clock().DT
	for _, s := range g.states {
		// 到达
		if s.engine.PTrue(lo.Clamp(s.data.ArrivalRate*dt, 0, 1)) {
			s.queue++
		}
		// 放行
		if s.owner.ActivePhase() == s.phaseID {
			s.queue = math.Max(s.queue-s.data.ServiceRate*dt, 0)
		}
		// 传感器缺失
		if s.engine.PTrue(s.data.DropoutP) {
			continue
		}
		// 检测范围内的行进车辆
		expected := .0
		if s.data.MaxSpeed > 0 {
			expected = s.data.ArrivalRate * s.data.DetectRange / s.data.MaxSpeed
		}
		count := int(expected)
		if s.engine.PTrue(expected - float64(count)) {
			count++
		}
		vehicles := make([]entity.VehicleObservation, 0, count)
		for range count {
			vehicles = append(vehicles, entity.VehicleObservation{
				Distance: s.engine.Uniform(0, s.data.DetectRange),
				Speed:    s.engine.Uniform(0.3*s.data.MaxSpeed, s.data.MaxSpeed),
			})
		}
		s.ap.SetObservation(entity.Observation{Queue: int(s.queue), Vehicles: vehicles})
	}
}
