package config

import "fmt"

// 信控算法模式
const (
	ModeCooperative = "cooperative" // ETA加权负载+上游软合作
	ModeThreshold   = "threshold"   // 仅按排队长度阈值
	ModeTrend       = "trend"       // 按排队长度趋势
)

// Default 返回带默认值的配置
// 功能：给出所有数值参数的默认取值，YAML反序列化在其上覆盖
// 返回：带默认值的配置对象
// 说明：先Default再UnmarshalStrict，未出现在配置文件中的项保持默认值
func Default() Config {
	return Config{
		Control: Control{
			Step: ControlStep{Start: 0, Total: 3600, Interval: 1},
			Mode: ModeCooperative,
			Seed: 43,
		},
		Signal: Signal{
			MinGreen:      8,
			MaxGreen:      60,
			HTime:         9,
			EtaDecay:      0.6,
			AlphaUpstream: 0.11,
			Inc:           3,
			Dec:           1,
			RelaxRate:     2,
			LowCutoff:     1,
			HighCutoff:    5,
			UpdatePeriod:  2,
			QueueUpper:    8,
			QueueLower:    2,
			QueueInc:      5,
			QueueDec:      4,
			TrendWindow:   10,
			TrendUp:       0.5,
			TrendDown:     -0.5,
		},
	}
}

// Validate 校验配置的合法性
// 功能：检查时间步长、阈值顺序、绿灯时长边界等约束
// 返回：第一个被违反的约束，全部满足则返回nil
func (c Config) Validate() error {
	if c.Control.Step.Interval <= 0 {
		return fmt.Errorf("control.step.interval must be positive, got %v", c.Control.Step.Interval)
	}
	switch c.Control.Mode {
	case ModeCooperative, ModeThreshold, ModeTrend:
	default:
		return fmt.Errorf("control.mode must be one of %v, got %q",
			[]string{ModeCooperative, ModeThreshold, ModeTrend}, c.Control.Mode)
	}
	s := c.Signal
	if s.MinGreen <= 0 || s.MaxGreen < s.MinGreen {
		return fmt.Errorf("signal green bounds [%v, %v] are invalid", s.MinGreen, s.MaxGreen)
	}
	if s.LowCutoff > s.HighCutoff {
		return fmt.Errorf("signal.low_load_cutoff %v exceeds signal.high_load_cutoff %v", s.LowCutoff, s.HighCutoff)
	}
	if s.HTime <= 0 {
		return fmt.Errorf("signal.h_time must be positive, got %v", s.HTime)
	}
	if s.UpdatePeriod < 0 {
		return fmt.Errorf("signal.update_period must be non-negative, got %v", s.UpdatePeriod)
	}
	if s.Inc < 0 || s.Dec < 0 || s.RelaxRate < 0 {
		return fmt.Errorf("signal step sizes must be non-negative")
	}
	if s.TrendWindow < 2 {
		return fmt.Errorf("signal.trend_window must be at least 2, got %d", s.TrendWindow)
	}
	return nil
}

// RuntimeConfig 运行时配置
// 功能：存储仿真运行时的配置信息
// 说明：将YAML配置转换为运行时可用的配置对象
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
	S   Signal  // 信控调节参数
}

// NewRuntimeConfig 根据配置初始化全局变量
// 功能：创建运行时配置对象
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	rc.All = config
	rc.C = config.Control
	rc.S = config.Signal

	return rc
}
