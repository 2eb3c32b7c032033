package intersection

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity/intersection/signal"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/input"
)

// xsecRuntime 路口运行时数据结构
type xsecRuntime struct {
	phaseIndex int     // 相位序列中的当前下标
	remaining  float64 // 当前相位剩余时间（秒）
}

// Intersection 路口实体
// 功能：持有相位序列与信控控制器，驱动相位轮转
// 说明：相位按配置顺序轮转，每个相位的放行时长由控制器给出；
// 控制器视角下相位切换是外部事件
type Intersection struct {
	ctx entity.ITaskContext

	id         int32
	phases     []*input.Phase
	upstream   []int32
	signal     ISignal
	approaches map[int32][]entity.IApproach // 相位ID->该相位放行的进口道

	runtime  xsecRuntime
	snapshot xsecRuntime
}

// newIntersection 创建并初始化一个新的Intersection实例
// 功能：根据输入数据创建路口对象，解析进口道映射并按模式构造信控控制器
// 参数：ctx-任务上下文，base-路口输入数据，approachManager-进口道管理器，board-负载广播板
// 返回：初始化完成的Intersection实例
func newIntersection(
	ctx entity.ITaskContext,
	base *input.Intersection,
	approachManager entity.IApproachManager,
	board entity.ILoadBoard,
) *Intersection {
	i := &Intersection{
		ctx:        ctx,
		id:         base.ID,
		phases:     base.Phases,
		upstream:   base.Upstream,
		approaches: make(map[int32][]entity.IApproach),
	}
	for _, p := range base.Phases {
		i.approaches[p.ID] = lo.Map(p.ApproachIDs, func(id int32, _ int) entity.IApproach {
			return approachManager.Get(id)
		})
	}

	// 信控初始化逻辑
	cfg := ctx.RuntimeConfig().S
	switch ctx.RuntimeConfig().C.Mode {
	case config.ModeThreshold:
		i.signal = signal.NewThreshold(ctx.Clock(), i.id, cfg, base.Phases, i.approaches)
	case config.ModeTrend:
		i.signal = signal.NewTrend(ctx.Clock(), i.id, cfg, base.Phases, i.approaches)
	default:
		i.signal = signal.NewCooperative(ctx.Clock(), i.id, cfg, base.Phases, i.approaches, base.Upstream, board)
	}

	i.runtime.remaining = i.mustDuration(base.Phases[0].ID)
	i.snapshot = i.runtime
	return i
}

// mustDuration 获取指定相位的目标时长，相位不存在则panic
func (i *Intersection) mustDuration(phaseID int32) float64 {
	d, err := i.signal.Duration(phaseID)
	if err != nil {
		log.Panicf("intersection %d: %v", i.id, err)
	}
	return d
}

// prepare 准备阶段，处理信控的准备工作
// 功能：执行信控的准备工作，把路口运行时数据写入snapshot
func (i *Intersection) prepare() {
	i.signal.Prepare()
	i.snapshot = i.runtime
}

// update 更新阶段，执行路口的模拟逻辑
// 功能：先执行信控决策，再推进相位轮转
// 参数：dt-时间步长
// 说明：剩余时间用完后切换到序列中的下一个相位，
// 切换时通知控制器并取该相位当前的目标时长作为放行时长
func (i *Intersection) update(dt float64) {
	i.signal.Update(dt)

	i.runtime.remaining -= dt
	if i.runtime.remaining <= 0 {
		i.runtime.phaseIndex = (i.runtime.phaseIndex + 1) % len(i.phases)
		next := i.phases[i.runtime.phaseIndex]
		if err := i.signal.SwitchPhase(next.ID); err != nil {
			log.Panicf("intersection %d: %v", i.id, err)
		}
		i.runtime.remaining += i.mustDuration(next.ID)
	}
}

// ID 获取路口的唯一标识符
// 返回：路口的ID，如果路口为nil则返回-1
func (i *Intersection) ID() int32 {
	if i == nil {
		return -1
	}
	return i.id
}

// ActivePhase 获取当前激活相位ID
func (i *Intersection) ActivePhase() int32 {
	return i.phases[i.snapshot.phaseIndex].ID
}

// PhaseRemaining 获取当前相位剩余时间
func (i *Intersection) PhaseRemaining() float64 {
	return i.snapshot.remaining
}

// GreenDuration 获取当前相位的目标绿灯时长
// 功能：返回向执行器输出的绿灯时长
func (i *Intersection) GreenDuration() float64 {
	return i.signal.ActiveDuration()
}

// PublishedLoad 获取对外发布的本地负载
func (i *Intersection) PublishedLoad() float64 {
	return i.signal.PublishedLoad()
}

// Signal 获取信控读取接口
func (i *Intersection) Signal() ISignalGetter {
	return i.signal
}

// SetSignalOk 设置信控开关状态
// 参数：ok-true表示正常调节，false表示停止调节
func (i *Intersection) SetSignalOk(ok bool) {
	i.signal.SetOk(ok)
}
