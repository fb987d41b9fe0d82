// Package metrics collects and persists planning-run measurements for
// offline comparison against the isochrone baseline.
package metrics

import (
	"sync/atomic"
	"time"
)

// StepMetric measures one replanning step.
type StepMetric struct {
	Step       int
	Scenarios  int // scenarios that contributed to aggregation
	Dropped    int // scenarios excluded by domain errors
	Iterations int // search iterations summed over all trees
	Heading    float64
	Duration   time.Duration
	TreeReused bool
}

// VoyageMetric measures a whole receding-horizon run.
type VoyageMetric struct {
	Session        string
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	Steps          int
	SimulatedHours float64
	Distance       float64
	ReachedGoal    bool
}

type Collector interface {
	StartStep()
	AddIterations(n int)
	SetTreeReused(value bool)
	CompleteStep(step, scenarios, dropped int, heading float64) StepMetric
}

type collector struct {
	startTime  time.Time
	iterations atomic.Int64
	treeReused atomic.Bool
}

func NewCollector() Collector {
	return &collector{}
}

func (c *collector) StartStep() {
	c.startTime = time.Now()
	c.iterations.Store(0)
	c.treeReused.Store(false)
}

func (c *collector) AddIterations(n int) {
	c.iterations.Add(int64(n))
}

func (c *collector) SetTreeReused(value bool) {
	c.treeReused.Store(value)
}

func (c *collector) CompleteStep(step, scenarios, dropped int, heading float64) StepMetric {
	return StepMetric{
		Step:       step,
		Scenarios:  scenarios,
		Dropped:    dropped,
		Iterations: int(c.iterations.Load()),
		Heading:    heading,
		Duration:   time.Since(c.startTime),
		TreeReused: c.treeReused.Load(),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (d *dummyCollector) StartStep()            {}
func (d *dummyCollector) AddIterations(n int)   {}
func (d *dummyCollector) SetTreeReused(v bool)  {}
func (d *dummyCollector) CompleteStep(step, scenarios, dropped int, heading float64) StepMetric {
	return StepMetric{}
}
