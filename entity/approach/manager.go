package approach

import (
	"fmt"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/input"
)

// Approach管理器
type Manager struct {
	data       map[int32]*Approach
	approaches []*Approach
}

// NewManager 创建Approach管理器实例
// 返回：新创建的Approach管理器实例
func NewManager() *Manager {
	return &Manager{
		data:       make(map[int32]*Approach),
		approaches: make([]*Approach, 0),
	}
}

// Init 初始化所有Approach
// 功能：根据输入数据初始化所有进口道对象
// 参数：data-进口道输入数据列表
func (m *Manager) Init(data []*input.Approach) {
	m.approaches = parallel.GoMap(data, func(base *input.Approach) *Approach {
		return newApproach(base)
	})
	m.data = lo.SliceToMap(m.approaches, func(a *Approach) (int32, *Approach) {
		return a.id, a
	})
}

// Get 根据ID获取Approach实例
// 功能：通过进口道ID查找对应的对象，如果不存在则panic
// 参数：id-进口道的唯一标识符
// 返回：对应的Approach实例
func (m *Manager) Get(id int32) entity.IApproach {
	if a, ok := m.data[id]; !ok {
		log.Panicf("no id %d in approach data", id)
		return nil
	} else {
		return a
	}
}

// GetOrError 根据ID获取Approach实例（带错误处理）
// 参数：id-进口道的唯一标识符
// 返回：Approach实例和错误信息，如果不存在则返回nil和错误
func (m *Manager) GetOrError(id int32) (entity.IApproach, error) {
	if a, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in approach data", id)
	} else {
		return a, nil
	}
}

// Prepare 准备阶段，处理所有Approach的准备工作
// 功能：把所有进口道的观测buffer翻转为快照
func (m *Manager) Prepare() {
	parallel.GoFor(m.approaches, func(a *Approach) { a.prepare() })
}
