package lflist

import (
	"math/bits"
	"runtime"
	"sync/atomic"

	"github.com/valyala/fastrand"
)

type metricShard struct {
	insertCASSuccesses atomic.Int64
	insertCASRetries   atomic.Int64
	deleteCASSuccesses atomic.Int64
	deleteCASRetries   atomic.Int64
	unlinks            atomic.Int64
	hintFallbacks      atomic.Int64
	contention         atomic.Int64
	// Pad to cache line size to prevent false sharing.
	_ [8]byte
}

// Metrics counts CAS outcomes. One Metrics may be shared by many lists.
type Metrics struct {
	shards []metricShard
	mask   uint32
}

// Stats is a point-in-time sum of a Metrics.
type Stats struct {
	InsertCASSuccesses int64
	InsertCASRetries   int64
	DeleteCASSuccesses int64
	DeleteCASRetries   int64
	Unlinks            int64
	HintFallbacks      int64
	Contention         int64
}

// NewMetrics returns counters sharded by GOMAXPROCS.
func NewMetrics() *Metrics {
	shardCount := nextPowerOfTwo(max(runtime.GOMAXPROCS(0), 1))
	return &Metrics{
		shards: make([]metricShard, shardCount),
		mask:   uint32(shardCount - 1),
	}
}

func nextPowerOfTwo(v int) int {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(v-1))
}

func (m *Metrics) shard() *metricShard {
	if len(m.shards) == 1 {
		return &m.shards[0]
	}
	return &m.shards[fastrand.Uint32()&m.mask]
}

func (m *Metrics) incInsertCASSuccess() { m.shard().insertCASSuccesses.Add(1) }
func (m *Metrics) incInsertCASRetry()   { m.shard().insertCASRetries.Add(1) }
func (m *Metrics) incDeleteCASSuccess() { m.shard().deleteCASSuccesses.Add(1) }
func (m *Metrics) incDeleteCASRetry()   { m.shard().deleteCASRetries.Add(1) }
func (m *Metrics) incUnlink()           { m.shard().unlinks.Add(1) }
func (m *Metrics) incHintFallback()     { m.shard().hintFallbacks.Add(1) }
func (m *Metrics) incContention()       { m.shard().contention.Add(1) }

// Snapshot sums all shards.
func (m *Metrics) Snapshot() Stats {
	var s Stats
	for i := range m.shards {
		sh := &m.shards[i]
		s.InsertCASSuccesses += sh.insertCASSuccesses.Load()
		s.InsertCASRetries += sh.insertCASRetries.Load()
		s.DeleteCASSuccesses += sh.deleteCASSuccesses.Load()
		s.DeleteCASRetries += sh.deleteCASRetries.Load()
		s.Unlinks += sh.unlinks.Load()
		s.HintFallbacks += sh.hintFallbacks.Load()
		s.Contention += sh.contention.Load()
	}
	return s
}
