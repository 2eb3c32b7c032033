package input

import (
	"context"
	"fmt"
	"os"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v2"

	"github.com/tsinghua-fib-lab/coopsignal-sim-oss/utils/config"
)

var log = logrus.WithField("module", "input")

// Phase 相位输入数据
// 功能：描述一个绿灯相位及其服务的进口道
type Phase struct {
	ID          int32   `yaml:"id" bson:"id"`
	BaseGreen   float64 `yaml:"base_green" bson:"base_green"` // 基准绿灯时长（秒）
	ApproachIDs []int32 `yaml:"approaches" bson:"approaches"` // 该相位放行的进口道ID
}

// Approach 进口道输入数据
// 功能：描述一条进口道及驱动它的合成需求参数
type Approach struct {
	ID          int32   `yaml:"id" bson:"id"`
	ArrivalRate float64 `yaml:"arrival_rate" bson:"arrival_rate"`           // 每秒车辆到达率
	ServiceRate float64 `yaml:"service_rate" bson:"service_rate"`           // 绿灯时每秒放行车辆数
	DetectRange float64 `yaml:"detect_range" bson:"detect_range"`           // 检测器覆盖范围（米）
	MaxSpeed    float64 `yaml:"max_speed" bson:"max_speed"`                 // 自由流速度（米/秒）
	DropoutP    float64 `yaml:"dropout_p,omitempty" bson:"dropout_p,omitempty"` // 单步传感器缺失概率
}

// Intersection 路口输入数据
// 功能：描述一个路口的相位序列与上游拓扑
type Intersection struct {
	ID       int32    `yaml:"id" bson:"id"`
	Phases   []*Phase `yaml:"phases" bson:"phases"`
	Upstream []int32  `yaml:"upstream,omitempty" bson:"upstream,omitempty"` // 上游路口ID
}

// Network 路网输入数据
// 功能：存储仿真所需的全部输入数据
// 说明：支持从YAML文件或MongoDB加载
type Network struct {
	Intersections []*Intersection `yaml:"intersections" bson:"intersections"`
	Approaches    []*Approach     `yaml:"approaches" bson:"approaches"`
}

// Init 下载数据
// 功能：根据配置加载路网输入数据
// 参数：c-配置对象
// 返回：加载并校验完成的路网数据指针
// 算法说明：
// 1. 文件加载：如果指定了文件路径则从YAML文件加载
// 2. 数据库加载：否则从MongoDB指定集合加载单个路网文档
// 3. 数据校验：检查ID唯一性与引用完整性
// 说明：任何一步失败都直接panic，输入不完整无法开始仿真
func Init(c config.Config) *Network {
	path := c.Input.Network
	var n Network
	if path.File != "" {
		b, err := os.ReadFile(path.File)
		if err != nil {
			log.Panicf("failed to read network file: %v", err)
		}
		if err := yaml.UnmarshalStrict(b, &n); err != nil {
			log.Panicf("failed to parse network file %s: %v", path.File, err)
		}
	} else if c.Input.URI != "" {
		client := mongoutil.NewClient(c.Input.URI)
		defer client.Disconnect(context.Background())
		res := client.Database(path.GetDb()).Collection(path.GetColl()).FindOne(context.Background(), bson.D{})
		if err := res.Decode(&n); err != nil {
			log.Panicf("failed to load network from %s.%s: %v", path.GetDb(), path.GetColl(), err)
		}
	} else {
		log.Panic("input.network.file or input.uri must be specified")
	}
	if err := n.Validate(); err != nil {
		log.Panicf("bad network input: %v", err)
	}
	log.Infof("network loaded: %d intersections, %d approaches", len(n.Intersections), len(n.Approaches))
	return &n
}

// Validate 校验路网数据
// 功能：检查ID唯一性、相位非空与引用完整性
// 返回：第一个被违反的约束，全部满足则返回nil
func (n *Network) Validate() error {
	approaches := lo.SliceToMap(n.Approaches, func(a *Approach) (int32, *Approach) {
		return a.ID, a
	})
	if len(approaches) != len(n.Approaches) {
		return fmt.Errorf("duplicated approach ids")
	}
	intersections := lo.SliceToMap(n.Intersections, func(i *Intersection) (int32, *Intersection) {
		return i.ID, i
	})
	if len(intersections) != len(n.Intersections) {
		return fmt.Errorf("duplicated intersection ids")
	}
	for _, i := range n.Intersections {
		if len(i.Phases) == 0 {
			return fmt.Errorf("intersection %d has no phase", i.ID)
		}
		phaseIDs := make(map[int32]struct{})
		for _, p := range i.Phases {
			if _, ok := phaseIDs[p.ID]; ok {
				return fmt.Errorf("intersection %d: duplicated phase id %d", i.ID, p.ID)
			}
			phaseIDs[p.ID] = struct{}{}
			if p.BaseGreen <= 0 {
				return fmt.Errorf("intersection %d phase %d: base_green must be positive, got %v", i.ID, p.ID, p.BaseGreen)
			}
			if _, failed := Find(approaches, p.ApproachIDs); len(failed) > 0 {
				return fmt.Errorf("intersection %d phase %d: unknown approach ids %v", i.ID, p.ID, failed)
			}
		}
		if _, failed := Find(intersections, i.Upstream); len(failed) > 0 {
			return fmt.Errorf("intersection %d: unknown upstream ids %v", i.ID, failed)
		}
	}
	for _, a := range n.Approaches {
		if a.DetectRange < 0 || a.ArrivalRate < 0 || a.ServiceRate < 0 {
			return fmt.Errorf("approach %d: demand parameters must be non-negative", a.ID)
		}
		if a.DropoutP < 0 || a.DropoutP > 1 {
			return fmt.Errorf("approach %d: dropout_p must be in [0, 1], got %v", a.ID, a.DropoutP)
		}
	}
	return nil
}
