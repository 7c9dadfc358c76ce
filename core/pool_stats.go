package core

import (
	"encoding/json"
	"fmt"

	"github.com/searchktools/wire-server/core/pools"
)

// Stats is a snapshot of the engine's connection and buffer usage.
type Stats struct {
	ActiveConnections int64                  `json:"active_connections"`
	Routes            int                    `json:"routes"`
	Middlewares       int                    `json:"middlewares"`
	Buffers           pools.BytePoolStats    `json:"buffers"`
	Workers           *pools.WorkerPoolStats `json:"workers,omitempty"`
}

// Stats returns a snapshot of engine counters. Workers is set only when the
// scheduler is a worker pool.
func (e *Engine) Stats() Stats {
	stats := Stats{
		ActiveConnections: e.active.Load(),
		Routes:            e.router.Len(),
		Middlewares:       e.pipeline.Len(),
		Buffers:           e.buffers.Stats(),
	}
	if wp, ok := e.scheduler.(*pools.WorkerPool); ok {
		ws := wp.Stats()
		stats.Workers = &ws
	}
	return stats
}

// StatsJSON returns Stats encoded as JSON.
func (e *Engine) StatsJSON() ([]byte, error) {
	return json.Marshal(e.Stats())
}

// StatsText returns Stats as human-readable text.
func (e *Engine) StatsText() string {
	s := e.Stats()
	text := fmt.Sprintf(`Engine Statistics
=================

Connections:  %d active
Routes:       %d
Middlewares:  %d

Read Buffers:
  Gets:     %d
  Puts:     %d
  Oversize: %d
`,
		s.ActiveConnections, s.Routes, s.Middlewares,
		s.Buffers.Gets, s.Buffers.Puts, s.Buffers.Misses,
	)
	if s.Workers != nil {
		text += fmt.Sprintf(`
Workers (%d):
  Submitted: %d
  Completed: %d
  Inline:    %d
  Steals:    %d
`, s.Workers.NumWorkers, s.Workers.Submitted, s.Workers.Completed, s.Workers.Inline, s.Workers.Steals)
	}
	return text
}
