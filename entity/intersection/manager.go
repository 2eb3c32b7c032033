package intersection

import (
	"fmt"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/input"
)

// Intersection管理器
type Manager struct {
	ctx entity.ITaskContext

	data          map[int32]*Intersection
	intersections []*Intersection
}

// NewManager 创建Intersection管理器实例
// 参数：ctx-任务上下文
// 返回：新创建的Intersection管理器实例
func NewManager(ctx entity.ITaskContext) *Manager {
	return &Manager{
		ctx:           ctx,
		data:          make(map[int32]*Intersection),
		intersections: make([]*Intersection, 0),
	}
}

// Init 初始化所有Intersection及其信控
// 功能：根据输入数据初始化所有路口对象，建立进口道映射关系
// 参数：data-路口输入数据列表，approachManager-进口道管理器，board-负载广播板
// 说明：使用并行处理提高初始化效率
func (m *Manager) Init(data []*input.Intersection, approachManager entity.IApproachManager, board entity.ILoadBoard) {
	m.intersections = parallel.GoMap(data, func(base *input.Intersection) *Intersection {
		return newIntersection(m.ctx, base, approachManager, board)
	})
	m.data = lo.SliceToMap(m.intersections, func(i *Intersection) (int32, *Intersection) {
		return i.id, i
	})
}

// Get 根据ID获取Intersection实例
// 功能：通过路口ID查找对应的对象，如果不存在则panic
// 参数：id-路口的唯一标识符
// 返回：对应的Intersection实例
func (m *Manager) Get(id int32) entity.IIntersection {
	if i, ok := m.data[id]; !ok {
		log.Panicf("no id %d in intersection data", id)
		return nil
	} else {
		return i
	}
}

// GetOrError 根据ID获取Intersection实例（带错误处理）
// 参数：id-路口的唯一标识符
// 返回：Intersection实例和错误信息，如果不存在则返回nil和错误
func (m *Manager) GetOrError(id int32) (entity.IIntersection, error) {
	if i, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in intersection data", id)
	} else {
		return i, nil
	}
}

// All 获取所有Intersection实例
// 返回：按初始化顺序排列的路口列表
func (m *Manager) All() []entity.IIntersection {
	return lo.Map(m.intersections, func(i *Intersection, _ int) entity.IIntersection {
		return i
	})
}

// Prepare 准备阶段，处理所有Intersection的准备工作
// 功能：对所有路口执行准备阶段，处理信控的准备工作
// 说明：使用并行处理提高性能
func (m *Manager) Prepare() {
	parallel.GoFor(m.intersections, func(i *Intersection) { i.prepare() })
}

// Update 更新阶段，执行所有Intersection的模拟逻辑
// 功能：对所有路口执行更新阶段，执行信控决策与相位轮转
// 参数：dt-时间步长
// 说明：使用并行处理提高性能；路口之间只通过负载广播板交互，
// 广播板的发布缓冲到下一步才可见，并行更新不会读到同步内的写入
func (m *Manager) Update(dt float64) {
	parallel.GoFor(m.intersections, func(i *Intersection) { i.update(dt) })
}
