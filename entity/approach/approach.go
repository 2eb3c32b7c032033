package approach

import (
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/input"
)

// Approach 进口道实体
// 功能：表示路口的一条进口道，承载每步的传感器观测数据
// 说明：外部运行时（或合成需求生成器）每步写入观测buffer，
// Prepare时翻转为快照供信控读取；未写入的步视为传感器缺失
type Approach struct {
	id int32

	buffer   *entity.Observation // 观测写入buffer，nil表示本步无传感器数据
	snapshot entity.Observation  // 当前步观测快照
	hasData  bool                // 当前步是否有传感器数据
}

// newApproach 创建并初始化一个新的Approach实例
// 参数：base-进口道输入数据
// 返回：初始化完成的Approach实例
func newApproach(base *input.Approach) *Approach {
	return &Approach{id: base.ID}
}

// prepare 准备阶段
// 功能：把观测buffer翻转为快照并清空buffer
// 说明：buffer为空时只清除hasData标记，快照保持上一步的值，
// 缺失数据的降级处理由信控侧完成
func (a *Approach) prepare() {
	if a.buffer == nil {
		a.hasData = false
		return
	}
	a.snapshot = *a.buffer
	a.buffer = nil
	a.hasData = true
}

// ID 获取进口道ID
func (a *Approach) ID() int32 {
	return a.id
}

// HasData 当前步是否有传感器数据
func (a *Approach) HasData() bool {
	return a.hasData
}

// Observation 获取当前步观测快照
func (a *Approach) Observation() entity.Observation {
	return a.snapshot
}

// SetObservation 写入下一步观测数据
// 功能：把观测写入buffer，下一次Prepare时生效
// 参数：obs-观测数据
func (a *Approach) SetObservation(obs entity.Observation) {
	a.buffer = &obs
}
