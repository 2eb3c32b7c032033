package entity

import (
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/input"
)

// Manager依赖倒置

// entity/approach/manager.go的依赖倒置
type IApproachManager interface {
	Init(data []*input.Approach) // 初始化

	// 输入Approach ID，查找Approach，如果不存在则panic
	Get(id int32) IApproach
	// 输入Approach ID，查找Approach，如果不存在则返回error
	GetOrError(id int32) (IApproach, error)

	Prepare() // 准备阶段
}

// entity/intersection/manager.go的依赖倒置
type IIntersectionManager interface {
	Init(data []*input.Intersection, approachManager IApproachManager, board ILoadBoard) // 初始化

	// 输入Intersection ID，查找Intersection，如果不存在则panic
	Get(id int32) IIntersection
	// 输入Intersection ID，查找Intersection，如果不存在则返回error
	GetOrError(id int32) (IIntersection, error)
	// 获取所有Intersection
	All() []IIntersection

	Prepare()          // 准备阶段
	Update(dt float64) // 更新阶段
}
