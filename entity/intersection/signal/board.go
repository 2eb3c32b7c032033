package signal

import (
	"sync"

	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity"
)

// Report 单个路口发布的负载报告
type Report struct {
	Load float64 // 本地负载
	T    float64 // 发布时刻（仿真秒）
}

// Board 上游负载广播板
// 功能：路口间软合作的唯一信息通道，按路口ID保存最近一次发布的负载
// 说明：Publish写入buffer，Prepare翻转后才对读者可见，
// 负载传播因此固定滞后一步；读者拿到的是值快照，不持有发布方的活动引用
type Board struct {
	mtx     sync.Mutex       // buffer互斥锁，Update阶段各路口并行发布
	buffer  map[int32]Report // 本步发布的报告
	reports map[int32]Report // 对读者可见的报告
}

// NewBoard 创建上游负载广播板
func NewBoard() *Board {
	return &Board{
		buffer:  make(map[int32]Report),
		reports: make(map[int32]Report),
	}
}

// Publish 发布指定路口的本地负载
// 参数：id-路口ID，load-本地负载，t-发布时刻
// 说明：同一步内重复发布以最后一次为准（last-write-wins）
func (b *Board) Publish(id int32, load float64, t float64) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.buffer[id] = Report{Load: load, T: t}
}

// Prepare 准备阶段，把buffer中的报告并入可见报告集
func (b *Board) Prepare() {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	for id, r := range b.buffer {
		b.reports[id] = r
	}
	clear(b.buffer)
}

// Fresh 读取指定路口集合中未过期的负载值
// 参数：ids-上游路口ID列表，now-当前仿真时刻，maxAge-报告最大年龄
// 返回：未过期负载值列表与被剔除的过期报告数
// 说明：过期报告按零影响处理，直接从集合中剔除而不是计为零负载；
// 从未发布过的路口不计入过期数
func (b *Board) Fresh(ids []int32, now float64, maxAge float64) ([]float64, int) {
	loads := make([]float64, 0, len(ids))
	stale := 0
	for _, id := range ids {
		r, ok := b.reports[id]
		if !ok {
			continue
		}
		if now-r.T > maxAge {
			stale++
			continue
		}
		loads = append(loads, r.Load)
	}
	return loads, stale
}

// Get 读取指定路口最近一次可见的报告
// 返回：报告与是否存在
func (b *Board) Get(id int32) (Report, bool) {
	r, ok := b.reports[id]
	return r, ok
}
