package signal

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/config"
)

// State 调节策略状态机的状态
type State int32

const (
	StateIdle        State = iota // 空闲，本步评估了负载但没有改变时长
	StateRateLimited              // 距上次调节不足最小间隔，本步不评估
	StateAdjusting                // 本步应用了非零调节量（含向基准回归）
)

// String 获取状态的字符串表示
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRateLimited:
		return "RATE_LIMITED"
	case StateAdjusting:
		return "ADJUSTING"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// phaseState 单个相位的持久化控制状态
type phaseState struct {
	base       float64 // 基准绿灯时长（不可变配置）
	current    float64 // 当前目标绿灯时长，调节后始终在[MinGreen, MaxGreen]内
	lastUpdate float64 // 上次应用非零调节的时刻，初始为负无穷
	trailing   float64 // 最近一次评估的综合负载，相位切换时清零
}

// Diagnostics 信控诊断计数
// 说明：所有可恢复异常只计数、不上抛，控制器每步都输出合法时长
type Diagnostics struct {
	SensorGaps   int32 // 传感器缺失的步数（沿用上一步负载）
	StaleReports int32 // 被剔除的过期上游报告数
	BoundHits    int32 // 调节结果触达绿灯时长边界的次数
}

// policy 绿灯时长调节策略
// 功能：按综合负载与滞回区间决定时长调节量，并限制调节频率
type policy struct {
	cfg config.Signal
}

// apply 评估并应用一次调节
// 参数：ps-相位状态，combined-综合负载，now-当前仿真时刻
// 返回：状态机状态与是否触达时长边界
// 算法说明：
// 1. 距上次调节不足UpdatePeriod时不评估（RATE_LIMITED），间隔恰好达到即恢复
// 2. 负载严格高于HighCutoff：延长Inc；严格低于LowCutoff：缩短Dec
// 3. 恰好等于阈值或位于两阈值之间（不敏感区间）：向基准时长回归，
//    每次至多RelaxRate，不会越过基准
// 4. 调节结果收缩到[MinGreen, MaxGreen]，触界只计入诊断，不视为错误
// 5. 时长实际变化才刷新lastUpdate，处于基准平衡点的零调节不重置计时
func (p *policy) apply(ps *phaseState, combined, now float64) (State, bool) {
	if now-ps.lastUpdate < p.cfg.UpdatePeriod {
		return StateRateLimited, false
	}
	next := ps.current
	switch {
	case combined > p.cfg.HighCutoff:
		next = ps.current + p.cfg.Inc
	case combined < p.cfg.LowCutoff:
		next = ps.current - p.cfg.Dec
	case ps.current > ps.base:
		next = math.Max(ps.current-p.cfg.RelaxRate, ps.base)
	case ps.current < ps.base:
		next = math.Min(ps.current+p.cfg.RelaxRate, ps.base)
	}
	clamped := lo.Clamp(next, p.cfg.MinGreen, p.cfg.MaxGreen)
	boundHit := clamped != next
	state := StateIdle
	if clamped != ps.current {
		ps.current = clamped
		ps.lastUpdate = now
		state = StateAdjusting
	}
	ps.trailing = combined
	return state, boundHit
}
