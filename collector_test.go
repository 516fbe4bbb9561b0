package skiplist

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorExportsSizes(t *testing.T) {
	sl := newWithHeights(t, 2, 1, 2)
	mustInsert(t, sl, 1, 10)
	mustInsert(t, sl, 2, 20)

	c := NewCollector(sl, "lfskip")

	expected := `
# HELP lfskip_len Live keys on level 0.
# TYPE lfskip_len gauge
lfskip_len 2
# HELP lfskip_level_len Live keys per level.
# TYPE lfskip_level_len gauge
lfskip_level_len{level="0"} 2
lfskip_level_len{level="1"} 1
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"lfskip_len", "lfskip_level_len"))
}

func TestCollectorExportsCounters(t *testing.T) {
	sl := newWithHeights(t, 2, 1, 2)
	mustInsert(t, sl, 1, 10)
	mustInsert(t, sl, 2, 20)
	deleted, err := sl.Delete(1)
	require.NoError(t, err)
	require.True(t, deleted)

	c := NewCollector(sl, "lfskip")

	expected := `
# HELP lfskip_insert_cas_successes_total Successful link CAS operations.
# TYPE lfskip_insert_cas_successes_total counter
lfskip_insert_cas_successes_total 3
# HELP lfskip_delete_cas_successes_total Successful logical deletions.
# TYPE lfskip_delete_cas_successes_total counter
lfskip_delete_cas_successes_total 1
# HELP lfskip_contention_total Operations that exhausted their retry budget.
# TYPE lfskip_contention_total counter
lfskip_contention_total 0
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"lfskip_insert_cas_successes_total",
		"lfskip_delete_cas_successes_total",
		"lfskip_contention_total"))
}

func TestCollectorRegisters(t *testing.T) {
	sl := New(WithMaxLevel(3))
	c := NewCollector(sl, "lfskip")

	// The len gauge, one level_len series per level, seven counters.
	assert.Equal(t, 1+3+7, testutil.CollectAndCount(c))

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 1+3+7, n)

	assert.Error(t, reg.Register(NewCollector(sl, "lfskip")))
}
