// Package engine implements the memory lifecycle: the write pipeline, the
// recall fan-out, and the decay/consolidation loop. It depends only on the
// store contract and the LLM synthesizer; transports (CLI, HTTP, MCP) call
// the exported operations and relay the returned strings.
package engine

import (
	"log"
	"sync"

	"github.com/thierrypdamiba/claude-memory-kit/internal/llm"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
)

// Engine owns the memory pipelines for all tenants.
type Engine struct {
	store  store.Store
	synth  llm.Synthesizer // nil when no synthesis provider is configured
	logger *log.Logger

	// Similarity thresholds, hand-tuned. Exposed as fields so callers
	// can override them without recompiling.
	ContradictionThreshold float64
	CorrectionThreshold    float64
}

// New creates an engine. synth may be nil; every operation that needs it
// degrades to a "no API key" message or skips its synthesis phase.
func New(st store.Store, synth llm.Synthesizer, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		store:                  st,
		synth:                  synth,
		logger:                 logger,
		ContradictionThreshold: 0.85,
		CorrectionThreshold:    0.5,
	}
}

// attempt runs a best-effort pipeline step: a failure is logged and
// swallowed. Steps that must not fail silently do not go through here.
func (e *Engine) attempt(step string, fn func() error) {
	if err := fn(); err != nil {
		e.logger.Printf("%s failed: %v", step, err)
	}
}

// Counters tracks save activity to drive auto-reflect and checkpoint
// nudges. It is owned by the session layer and passed into dispatch, not
// global state.
type Counters struct {
	ReflectEvery    int
	CheckpointEvery int

	mu              sync.Mutex
	sinceReflect    int
	sinceCheckpoint int
}

// NewCounters returns counters with the default intervals.
func NewCounters() *Counters {
	return &Counters{ReflectEvery: 25, CheckpointEvery: 8}
}

// RecordSave notes one completed save and reports whether an auto-reflect
// or a checkpoint nudge is due. Each trigger resets its own counter.
func (c *Counters) RecordSave() (reflectDue, checkpointDue bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinceReflect++
	c.sinceCheckpoint++
	if c.ReflectEvery > 0 && c.sinceReflect >= c.ReflectEvery {
		reflectDue = true
		c.sinceReflect = 0
	}
	if c.CheckpointEvery > 0 && c.sinceCheckpoint >= c.CheckpointEvery {
		checkpointDue = true
		c.sinceCheckpoint = 0
	}
	return reflectDue, checkpointDue
}
