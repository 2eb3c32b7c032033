package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/clock"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity/approach"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity/intersection"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/entity/intersection/signal"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/scenario"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/input"
)

// log 任务模块的日志记录器
var log = logrus.WithField("module", "task")

// 进度日志的输出间隔（步）与最多列出的路口数
const (
	progressInterval = 300
	progressMaxShown = 6
)

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态，替代原来的全局变量
// 说明：管理仿真系统的所有组件，包括时钟、管理器、负载广播板、需求生成器
type Context struct {
	// 任务名
	job string

	// 时钟
	clock *clock.Clock

	// Approach管理器
	approachManager entity.IApproachManager
	// Intersection管理器
	intersectionManager entity.IIntersectionManager
	// 上游负载广播板
	board entity.ILoadBoard
	// 合成需求生成器
	generator *scenario.Generator

	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig
}

// NewContext 创建新的仿真任务上下文
// 功能：初始化仿真系统的所有组件和配置
// 参数：job-任务名称，c-配置对象
// 返回：初始化完成的Context实例
// 算法说明：
// 1. 创建时钟与运行时配置
// 2. 加载路网输入数据
// 3. 创建负载广播板与各管理器（进口道、路口）
// 4. 创建合成需求生成器
func NewContext(job string, c config.Config) *Context {
	t := &Context{
		job:           job,
		runtimeConfig: config.NewRuntimeConfig(c),
	}
	t.clock = clock.New(c.Control.Step)

	network := input.Init(c)

	t.board = signal.NewBoard()
	approachManager := approach.NewManager()
	approachManager.Init(network.Approaches)
	t.approachManager = approachManager
	intersectionManager := intersection.NewManager(t)
	intersectionManager.Init(network.Intersections, approachManager, t.board)
	t.intersectionManager = intersectionManager

	t.generator = scenario.New(t, network)
	return t
}

// Clock 获取仿真时钟
func (t *Context) Clock() *clock.Clock {
	return t.clock
}

// ApproachManager 获取Approach管理器
func (t *Context) ApproachManager() entity.IApproachManager {
	return t.approachManager
}

// IntersectionManager 获取Intersection管理器
func (t *Context) IntersectionManager() entity.IIntersectionManager {
	return t.intersectionManager
}

// Board 获取上游负载广播板
func (t *Context) Board() entity.ILoadBoard {
	return t.board
}

// RuntimeConfig 获取运行时配置
func (t *Context) RuntimeConfig() *config.RuntimeConfig {
	return t.runtimeConfig
}

// Run 仿真主循环
// 功能：按步推进仿真直到时钟走完模拟区间
// 算法说明：
// 1. 需求生成：把本步观测写入各进口道buffer
// 2. 准备阶段：广播板翻转上一步发布的负载，各实体翻转buffer为snapshot
// 3. 更新阶段：各路口执行信控决策与相位轮转
// 4. 时钟前进，周期性输出各路口的当前目标时长
// 说明：一步之内全部同步完成，没有跨步并发
func (t *Context) Run() {
	log.Infof("task %s: run steps [%d, %d), dt=%.2fs, mode=%s",
		t.job, t.clock.START_STEP, t.clock.END_STEP, t.clock.DT, t.runtimeConfig.C.Mode)
	start := time.Now()
	for !t.clock.Done() {
		t.generator.Step()

		t.board.Prepare()
		t.approachManager.Prepare()
		t.intersectionManager.Prepare()

		t.intersectionManager.Update(t.clock.DT)

		t.clock.Step()
		if t.clock.InternalStep%progressInterval == 0 {
			t.logProgress()
		}
	}
	log.Infof("task %s: finished %d steps in %v",
		t.job, t.clock.END_STEP-t.clock.START_STEP, time.Since(start))
}

// logProgress 输出进度日志
// 功能：列出前若干路口的激活相位与目标绿灯时长
func (t *Context) logProgress() {
	all := t.intersectionManager.All()
	if len(all) > progressMaxShown {
		all = all[:progressMaxShown]
	}
	targets := lo.Map(all, func(i entity.IIntersection, _ int) string {
		return fmt.Sprintf("%d:P%d->%.0fs", i.ID(), i.ActivePhase(), i.GreenDuration())
	})
	log.Infof("t=%s targets: %s", t.clock, strings.Join(targets, ", "))
}
