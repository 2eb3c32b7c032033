package config

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 功能：定义数据输入路径的配置结构，支持多种数据源
// 说明：支持MongoDB数据库和文件系统两种数据源
type InputPath struct {
	DB   string `yaml:"db"`             // 数据库名
	Col  string `yaml:"col"`            // 集合名
	File string `yaml:"file,omitempty"` // 文件路径（优先级高于MongoDB）
}

// GetDb 获取数据库名
// 功能：返回配置的数据库名称
// 返回：数据库名称字符串
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
// 功能：返回配置的集合名称
// 返回：集合名称字符串
func (p InputPath) GetColl() string {
	return p.Col
}

// Input 指定模拟器所有输入数据的配置项
// 功能：定义路网与需求输入数据的配置
type Input struct {
	URI     string    `yaml:"uri"`     // MongoDB连接字符串
	Network InputPath `yaml:"network"` // 路网（路口、相位、进口道、上游拓扑）
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
// 功能：定义仿真时间控制参数
// 说明：控制仿真的时间范围、步长和精度
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔
}

// Control 模拟器控制配置
// 功能：定义仿真系统的核心控制参数
type Control struct {
	Step ControlStep `yaml:"step"`
	Mode string      `yaml:"mode,omitempty"` // 信控算法（可选项：cooperative threshold trend）
	Seed uint64      `yaml:"seed,omitempty"` // 合成需求的随机种子
}

// Signal 信控调节参数
// 功能：定义绿灯时长调节引擎的全部数值参数
// 说明：构造控制器时以值传递，运行期间不可变，没有进程级可变状态
type Signal struct {
	MinGreen float64 `yaml:"min_green"` // 绿灯时长下限（秒）
	MaxGreen float64 `yaml:"max_green"` // 绿灯时长上限（秒）

	HTime    float64 `yaml:"h_time"`    // ETA合作时间窗（秒）
	EtaDecay float64 `yaml:"eta_decay"` // ETA权重衰减指数 weight = 1/(1+(eta/h_time)^eta_decay)

	AlphaUpstream float64 `yaml:"alpha_upstream"` // 上游负载影响权重

	Inc          float64 `yaml:"inc"`              // 高负载时的绿灯延长步长（秒）
	Dec          float64 `yaml:"dec"`              // 低负载时的绿灯缩短步长（秒）
	RelaxRate    float64 `yaml:"relax_rate"`       // 中负载区间向基准时长回归的速度（秒/次）
	LowCutoff    float64 `yaml:"low_load_cutoff"`  // 低负载阈值
	HighCutoff   float64 `yaml:"high_load_cutoff"` // 高负载阈值
	UpdatePeriod float64 `yaml:"update_period"`    // 两次调节之间的最小间隔（秒）

	// threshold模式（仅按排队长度）的专用参数
	QueueUpper float64 `yaml:"queue_upper"` // 排队上阈值
	QueueLower float64 `yaml:"queue_lower"` // 排队下阈值
	QueueInc   float64 `yaml:"queue_inc"`   // threshold模式延长步长（秒）
	QueueDec   float64 `yaml:"queue_dec"`   // threshold模式缩短步长（秒）

	// trend模式（按排队趋势）的专用参数
	TrendWindow int     `yaml:"trend_window"` // 趋势计算的滑动窗口长度（步）
	TrendUp     float64 `yaml:"trend_up"`     // 趋势上阈值
	TrendDown   float64 `yaml:"trend_down"`   // 趋势下阈值
}

// Config YAML配置文件的根结构
// 功能：定义整个仿真系统的配置结构
// 说明：包含输入、控制、信控参数等所有配置项
type Config struct {
	Input   Input   `yaml:"input"`   // 输入
	Control Control `yaml:"control"` // 模拟过程控制
	Signal  Signal  `yaml:"signal"`  // 信控调节参数
}
