package skiplist

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/metailurini/lfskiplist/lflist"
)

type counterDesc struct {
	desc  *prometheus.Desc
	value func(lflist.Stats) int64
}

// Collector exports a SkipList's size and CAS counters to Prometheus.
type Collector struct {
	sl           *SkipList
	lenDesc      *prometheus.Desc
	levelLenDesc *prometheus.Desc
	counters     []counterDesc
}

// NewCollector returns a collector for sl whose metric names start with
// namespace.
func NewCollector(sl *SkipList, namespace string) *Collector {
	counter := func(name, help string, value func(lflist.Stats) int64) counterDesc {
		return counterDesc{
			desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil),
			value: value,
		}
	}
	return &Collector{
		sl: sl,
		lenDesc: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "len"),
			"Live keys on level 0.", nil, nil),
		levelLenDesc: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "level_len"),
			"Live keys per level.", []string{"level"}, nil),
		counters: []counterDesc{
			counter("insert_cas_successes_total", "Successful link CAS operations.",
				func(s lflist.Stats) int64 { return s.InsertCASSuccesses }),
			counter("insert_cas_retries_total", "Failed link CAS operations.",
				func(s lflist.Stats) int64 { return s.InsertCASRetries }),
			counter("delete_cas_successes_total", "Successful logical deletions.",
				func(s lflist.Stats) int64 { return s.DeleteCASSuccesses }),
			counter("delete_cas_retries_total", "Failed or skipped mark CAS operations.",
				func(s lflist.Stats) int64 { return s.DeleteCASRetries }),
			counter("unlinks_total", "CAS operations that physically unlinked deleted nodes.",
				func(s lflist.Stats) int64 { return s.Unlinks }),
			counter("hint_fallbacks_total", "Searches that restarted from a level head.",
				func(s lflist.Stats) int64 { return s.HintFallbacks }),
			counter("contention_total", "Operations that exhausted their retry budget.",
				func(s lflist.Stats) int64 { return s.Contention }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.lenDesc
	ch <- c.levelLenDesc
	for _, cd := range c.counters {
		ch <- cd.desc
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.lenDesc, prometheus.GaugeValue, float64(c.sl.Len()))
	for i := range c.sl.levels {
		ch <- prometheus.MustNewConstMetric(c.levelLenDesc, prometheus.GaugeValue,
			float64(c.sl.LevelLen(i)), strconv.Itoa(i))
	}
	stats := c.sl.Stats()
	for _, cd := range c.counters {
		ch <- prometheus.MustNewConstMetric(cd.desc, prometheus.CounterValue, float64(cd.value(stats)))
	}
}
