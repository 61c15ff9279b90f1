package metrics

import (
	"sync/atomic"
	"tictactoe/game"
	"time"
)

type MoveMetric struct {
	Step     int
	Player   string
	Move     int
	Duration time.Duration
}

type GameMetric struct {
	StartingPlayer string
	Status         string
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalMoves     int
}

// RunMetric aggregates every game reported to a collector.
type RunMetric struct {
	Workers    int
	Duration   time.Duration
	Games      int
	WinsX      int
	WinsO      int
	Draws      int
	TotalMoves int
}

// AvgMoves is zero when no game was played.
func (m RunMetric) AvgMoves() float64 {
	if m.Games == 0 {
		return 0
	}
	return float64(m.TotalMoves) / float64(m.Games)
}

type Collector interface {
	Start(workers int)
	AddGame(status game.Status, moves int)
	Complete() RunMetric
}

type collector struct {
	workers    int
	startTime  time.Time
	games      atomic.Int64
	winsX      atomic.Int64
	winsO      atomic.Int64
	draws      atomic.Int64
	totalMoves atomic.Int64
}

func NewCollector() Collector {
	return &collector{startTime: time.Now()}
}

func (m *collector) Start(workers int) {
	m.startTime = time.Now()
	m.workers = workers
}

func (m *collector) AddGame(status game.Status, moves int) {
	switch status {
	case game.WinX:
		m.winsX.Add(1)
	case game.WinO:
		m.winsO.Add(1)
	case game.Draw:
		m.draws.Add(1)
	default:
		return // Unfinished games are not counted
	}
	m.totalMoves.Add(int64(moves))
	m.games.Add(1)
}

func (m *collector) Complete() RunMetric {
	return RunMetric{
		Workers:    m.workers,
		Duration:   time.Since(m.startTime),
		Games:      int(m.games.Load()),
		WinsX:      int(m.winsX.Load()),
		WinsO:      int(m.winsO.Load()),
		Draws:      int(m.draws.Load()),
		TotalMoves: int(m.totalMoves.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(workers int)                     {}
func (m *dummyCollector) AddGame(status game.Status, moves int) {}
func (m *dummyCollector) Complete() RunMetric                   { return RunMetric{} }
