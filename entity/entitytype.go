package entity

// VehicleObservation 进口道上单辆行进车辆的观测数据
type VehicleObservation struct {
	Distance float64 // 距停止线距离（米）
	Speed    float64 // 当前速度（米/秒）
}

// Observation 进口道单步观测快照
// 说明：队列与行进车辆分开统计，行进车辆仅包含检测范围内的
type Observation struct {
	Queue    int                  // 排队（停驶/慢行）车辆数
	Vehicles []VehicleObservation // 检测范围内的行进车辆
}

// entity/approach/approach.go的依赖倒置
type IApproach interface {
	ID() int32 // 获取进口道ID

	HasData() bool            // 当前步是否有传感器数据
	Observation() Observation // 获取当前步观测快照

	// 写入下一步观测数据，Prepare时生效；某一步未写入视为传感器缺失
	SetObservation(obs Observation)
}

// entity/intersection/intersection.go的依赖倒置
type IIntersection interface {
	ID() int32 // 获取路口ID

	ActivePhase() int32      // 当前激活相位ID
	PhaseRemaining() float64 // 当前相位剩余时间（秒）
	GreenDuration() float64  // 当前相位的目标绿灯时长（秒），即对执行器的输出
	PublishedLoad() float64  // 对外发布的本地负载
}

// 上游负载广播板的依赖倒置
// 每个路口只发布自己的负载，读取的是邻居上一步发布值的快照而非活动引用，
// 负载传播固定存在一步延迟
type ILoadBoard interface {
	// 发布指定路口的本地负载与发布时刻，下一次Prepare后对读者可见
	Publish(id int32, load float64, t float64)
	// 读取指定路口集合中未过期的负载值
	// 过期判定：now-发布时刻 > maxAge；返回未过期负载列表与过期报告数
	Fresh(ids []int32, now float64, maxAge float64) ([]float64, int)

	Prepare() // 准备阶段，把缓冲的发布值翻转为可见值
}
