package entity

import (
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/clock"
	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/config"
)

type ITaskContext interface {
	Clock() *clock.Clock
	ApproachManager() IApproachManager
	IntersectionManager() IIntersectionManager
	Board() ILoadBoard
	RuntimeConfig() *config.RuntimeConfig
}
