package signal

import (
	"errors"
	"fmt"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/clock"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/input"
)

var (
	ErrUnknownPhase = errors.New("unknown phase id")
)

// ctlRuntime 控制器运行时数据结构
type ctlRuntime struct {
	activePhase    int32   // 当前激活相位ID
	activeDuration float64 // 当前激活相位的目标绿灯时长
	localLoad      float64 // 最近一次本地负载，传感器缺失时沿用
	combined       float64 // 最近一次综合负载
	state          State   // 最近一次策略评估结果
	staleSample    bool    // 本步本地负载是否为沿用值
}

// Controller 绿灯时长控制器
// 功能：每步为当前激活相位估计本地负载、融合上游负载并调节目标绿灯时长
// 说明：负载估计、上游聚合与调节策略共用同一引擎，
// threshold/trend只是负载源与阈值参数不同的配置；
// 相位的激活与切换由外部驱动，控制器只调节时长
type Controller struct {
	clk *clock.Clock

	id         int32
	cfg        config.Signal
	pol        policy
	source     loadSource
	board      entity.ILoadBoard // 上游负载广播板，无上游合作的模式为nil
	upstream   []int32           // 上游路口ID
	approaches map[int32][]entity.IApproach // 相位ID->该相位放行的进口道
	phases     map[int32]*phaseState

	diag     Diagnostics
	runtime  ctlRuntime
	snapshot ctlRuntime
	ok       bool
	okBuffer bool
}

// NewCooperative 创建软合作控制器
// 功能：ETA加权本地负载加上游负载的加权均值，上游影响权重刻意很小，
// 本地信号始终占主导（软合作，无中心协调）
// 参数：clk-仿真时钟，id-路口ID，cfg-信控参数，phases-相位配置，
// approaches-相位到进口道映射，upstream-上游路口ID，board-负载广播板
// 返回：初始化完成的控制器实例
func NewCooperative(
	clk *clock.Clock,
	id int32,
	cfg config.Signal,
	phases []*input.Phase,
	approaches map[int32][]entity.IApproach,
	upstream []int32,
	board entity.ILoadBoard,
) *Controller {
	return newController(
		clk, id, cfg,
		&etaSource{hTime: cfg.HTime, decay: cfg.EtaDecay},
		phases, approaches, lo.Uniq(upstream), board,
	)
}

// NewThreshold 创建排队阈值控制器
// 功能：负载为激活相位各进口道的平均排队长度，没有上游项
func NewThreshold(
	clk *clock.Clock,
	id int32,
	cfg config.Signal,
	phases []*input.Phase,
	approaches map[int32][]entity.IApproach,
) *Controller {
	return newController(clk, id, thresholdEngine(cfg), &queueSource{}, phases, approaches, nil, nil)
}

// NewTrend 创建排队趋势控制器
// 功能：负载为滑动窗口内平均排队长度的趋势，没有上游项
func NewTrend(
	clk *clock.Clock,
	id int32,
	cfg config.Signal,
	phases []*input.Phase,
	approaches map[int32][]entity.IApproach,
) *Controller {
	return newController(clk, id, trendEngine(cfg), newTrendSource(cfg.TrendWindow), phases, approaches, nil, nil)
}

// thresholdEngine 把通用参数换算为threshold模式的引擎参数
// 阈值与步长换成排队空间的取值，上游影响权重置零
func thresholdEngine(s config.Signal) config.Signal {
	s.AlphaUpstream = 0
	s.HighCutoff = s.QueueUpper
	s.LowCutoff = s.QueueLower
	s.Inc = s.QueueInc
	s.Dec = s.QueueDec
	return s
}

// trendEngine 把通用参数换算为trend模式的引擎参数
// 阈值换成趋势空间的取值，回归速度固定为每次1秒
func trendEngine(s config.Signal) config.Signal {
	s.AlphaUpstream = 0
	s.HighCutoff = s.TrendUp
	s.LowCutoff = s.TrendDown
	s.Inc = s.QueueInc
	s.Dec = s.QueueDec
	s.RelaxRate = 1
	return s
}

func newController(
	clk *clock.Clock,
	id int32,
	cfg config.Signal,
	source loadSource,
	phases []*input.Phase,
	approaches map[int32][]entity.IApproach,
	upstream []int32,
	board entity.ILoadBoard,
) *Controller {
	c := &Controller{
		clk:        clk,
		id:         id,
		cfg:        cfg,
		pol:        policy{cfg: cfg},
		source:     source,
		board:      board,
		upstream:   upstream,
		approaches: approaches,
		phases:     make(map[int32]*phaseState),
		ok:         true,
		okBuffer:   true,
	}
	for _, p := range phases {
		c.phases[p.ID] = &phaseState{
			base:       p.BaseGreen,
			current:    lo.Clamp(p.BaseGreen, cfg.MinGreen, cfg.MaxGreen),
			lastUpdate: -mathutil.INF,
		}
	}
	if len(phases) > 0 {
		c.runtime.activePhase = phases[0].ID
		c.runtime.activeDuration = c.phases[phases[0].ID].current
	}
	c.snapshot = c.runtime
	return c
}

// Prepare 准备阶段，处理控制器的准备工作
// 功能：更新开关状态，把运行时数据写入snapshot供外部读取
func (c *Controller) Prepare() {
	c.ok = c.okBuffer
	c.snapshot = c.runtime
}

// Update 更新阶段，执行一步控制决策
// 参数：dt-时间步长
// 算法说明：
// 1. 负载估计：采样激活相位进口道的负载；传感器缺失时沿用上一步的值
//    并标记为沿用（降级继续，不中断）
// 2. 发布：把本地负载（含沿用值）发布到广播板供下游路口下一步读取
// 3. 上游聚合：combined = local + alpha × mean(未过期上游负载)，
//    没有可用上游报告时combined = local
// 4. 调节：按滞回与频率限制调节激活相位的目标时长
func (c *Controller) Update(dt float64) {
	if !c.ok {
		return
	}
	now := c.clk.T
	ps, ok := c.phases[c.runtime.activePhase]
	if !ok {
		return
	}

	// 本地负载
	local, has := c.source.sample(c.approaches[c.runtime.activePhase])
	if has {
		c.runtime.staleSample = false
		c.runtime.localLoad = local
	} else {
		c.runtime.staleSample = true
		c.diag.SensorGaps++
		log.Debugf("signal %d phase %d: no sensor data, reusing load %f",
			c.id, c.runtime.activePhase, c.runtime.localLoad)
	}

	// 发布本地负载
	if c.board != nil {
		c.board.Publish(c.id, c.runtime.localLoad, now)
	}

	// 上游聚合
	combined := c.runtime.localLoad
	if c.board != nil && c.cfg.AlphaUpstream > 0 && len(c.upstream) > 0 {
		loads, stale := c.board.Fresh(c.upstream, now, c.cfg.UpdatePeriod)
		c.diag.StaleReports += int32(stale)
		if len(loads) > 0 {
			combined += c.cfg.AlphaUpstream * lo.Sum(loads) / float64(len(loads))
		}
	}
	c.runtime.combined = combined

	// 调节
	state, boundHit := c.pol.apply(ps, combined, now)
	if boundHit {
		c.diag.BoundHits++
		log.Debugf("signal %d phase %d: duration clamped into [%f, %f]",
			c.id, c.runtime.activePhase, c.cfg.MinGreen, c.cfg.MaxGreen)
	}
	c.runtime.state = state
	c.runtime.activeDuration = ps.current
}

// SwitchPhase 外部相位切换通知
// 功能：把指定相位设为激活相位
// 参数：phaseID-新激活的相位ID
// 返回：相位不存在时返回错误
// 说明：切换清除新激活相位的负载记忆，但保留其当前时长
func (c *Controller) SwitchPhase(phaseID int32) error {
	ps, ok := c.phases[phaseID]
	if !ok {
		return fmt.Errorf("signal %d: %w: %d", c.id, ErrUnknownPhase, phaseID)
	}
	if phaseID == c.runtime.activePhase {
		return nil
	}
	ps.trailing = 0
	c.runtime.activePhase = phaseID
	c.runtime.activeDuration = ps.current
	return nil
}

// Duration 获取指定相位的当前目标绿灯时长
// 参数：phaseID-相位ID
// 返回：目标时长（秒），相位不存在时返回错误
func (c *Controller) Duration(phaseID int32) (float64, error) {
	ps, ok := c.phases[phaseID]
	if !ok {
		return 0, fmt.Errorf("signal %d: %w: %d", c.id, ErrUnknownPhase, phaseID)
	}
	return ps.current, nil
}

// ActivePhase 获取当前激活相位ID
func (c *Controller) ActivePhase() int32 {
	return c.snapshot.activePhase
}

// ActiveDuration 获取当前激活相位的目标绿灯时长
func (c *Controller) ActiveDuration() float64 {
	return c.snapshot.activeDuration
}

// PublishedLoad 获取对外发布的本地负载
func (c *Controller) PublishedLoad() float64 {
	return c.snapshot.localLoad
}

// CombinedLoad 获取最近一次的综合负载
func (c *Controller) CombinedLoad() float64 {
	return c.snapshot.combined
}

// StaleSample 本步本地负载是否为传感器缺失时的沿用值
func (c *Controller) StaleSample() bool {
	return c.snapshot.staleSample
}

// State 获取最近一次策略评估的状态机状态
func (c *Controller) State() State {
	return c.snapshot.state
}

// Diagnostics 获取诊断计数
func (c *Controller) Diagnostics() Diagnostics {
	return c.diag
}

// SetOk 设置控制器开关状态
// 参数：ok-true表示正常调节，false表示停止调节（时长保持不变）
func (c *Controller) SetOk(ok bool) {
	c.okBuffer = ok
}

// Ok 获取控制器开关状态
func (c *Controller) Ok() bool {
	return c.ok
}
