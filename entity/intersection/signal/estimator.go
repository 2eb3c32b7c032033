package signal

import (
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/container"
)

// 速度下限（米/秒），计算ETA时避免除零
// 停驶车辆按该速度估算的ETA会远超时间窗而被剔除，它们已计入排队数
const minEtaSpeed = 0.1

// loadSource 负载信号源
// 把激活相位各进口道的观测转换为一个标量负载；
// 给定相同观测输出相同结果，没有隐藏随机性
type loadSource interface {
	// 采样负载，ok为false表示本步没有可用的传感器数据
	sample(approaches []entity.IApproach) (load float64, ok bool)
}

// etaSource ETA加权负载源
// 功能：负载=排队数+时间窗内行进车辆的ETA权重和，越早到达的车辆权重越大
type etaSource struct {
	hTime float64 // 合作时间窗（秒）
	decay float64 // 权重衰减指数
}

// sample 采样ETA加权负载
// 算法说明：
// 1. 逐进口道累加排队车辆数
// 2. 对每辆行进车辆估计ETA，ETA不超过时间窗的按权重计入
// 3. 到达时间不可预测的车辆直接剔除，不按零权重计入，
//    避免传感器空洞被当成低负载
func (s *etaSource) sample(approaches []entity.IApproach) (float64, bool) {
	load := .0
	has := false
	for _, a := range approaches {
		if !a.HasData() {
			continue
		}
		has = true
		obs := a.Observation()
		load += float64(obs.Queue)
		for _, v := range obs.Vehicles {
			eta, ok := arrivalTime(v)
			if !ok || eta > s.hTime {
				continue
			}
			load += etaWeight(eta, s.hTime, s.decay)
		}
	}
	return load, has
}

// arrivalTime 估计车辆到达停止线的时间
// 距离或速度缺失（NaN或负距离）时视为不可预测
func arrivalTime(v entity.VehicleObservation) (float64, bool) {
	if math.IsNaN(v.Distance) || math.IsNaN(v.Speed) || v.Distance < 0 {
		return 0, false
	}
	return v.Distance / math.Max(v.Speed, minEtaSpeed), true
}

// etaWeight 按ETA计算车辆权重
// weight = 1 / (1 + (eta/hTime)^decay)
func etaWeight(eta, hTime, decay float64) float64 {
	x := math.Max(eta/math.Max(hTime, minEtaSpeed), 0)
	return 1 / (1 + math.Pow(x, decay))
}

// queueSource 平均排队长度负载源（threshold模式）
type queueSource struct{}

func (s *queueSource) sample(approaches []entity.IApproach) (float64, bool) {
	sum := .0
	count := 0
	for _, a := range approaches {
		if !a.HasData() {
			continue
		}
		sum += float64(a.Observation().Queue)
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// trendSource 排队趋势负载源（trend模式）
// 功能：维护平均排队长度的滑动窗口，负载为后半窗均值与前半窗均值之差，
// 正值表示排队在增长
type trendSource struct {
	queues queueSource
	window *container.Window[float64]
}

func newTrendSource(windowSize int) *trendSource {
	return &trendSource{window: container.NewWindow[float64](windowSize)}
}

// sample 采样排队趋势
// 窗口未满前趋势不可用，按无可用数据处理
func (s *trendSource) sample(approaches []entity.IApproach) (float64, bool) {
	avg, ok := s.queues.sample(approaches)
	if !ok {
		return 0, false
	}
	s.window.Push(avg)
	if !s.window.Full() {
		return 0, false
	}
	values := s.window.Values()
	half := len(values) / 2
	first := lo.Sum(values[:half]) / float64(half)
	second := lo.Sum(values[half:]) / float64(len(values)-half)
	return second - first, true
}
