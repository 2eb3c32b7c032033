package intersection

import (
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity/intersection/signal"
)

// 依赖倒置，表达intersection对信控实现的接口需求

// 给外部读者提供的信控读取接口
type ISignalGetter interface {
	ActivePhase() int32                      // 当前激活相位ID
	ActiveDuration() float64                 // 当前激活相位的目标绿灯时长
	Duration(phaseID int32) (float64, error) // 指定相位的目标绿灯时长
	PublishedLoad() float64                  // 对外发布的本地负载
	CombinedLoad() float64                   // 最近一次综合负载
	State() signal.State                     // 最近一次策略评估状态
	Diagnostics() signal.Diagnostics         // 诊断计数
	Ok() bool                                // 当前信控开关情况
}

// 信控接口
type ISignal interface {
	ISignalGetter
	Prepare()          // 准备阶段，把运行时数据写入snapshot
	Update(dt float64) // 更新阶段，执行一步控制决策

	SwitchPhase(phaseID int32) error // 外部相位切换通知
	SetOk(ok bool)                   // 设置信控开关情况（true正常调节|false停止调节）
}
