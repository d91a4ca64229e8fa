package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "franky_cache_hits_total",
		Help: "Local mirror reads that found a row.",
	}, []string{"table"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "franky_cache_misses_total",
		Help: "Local mirror reads that found no row.",
	}, []string{"table"})

	txnRollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "franky_txn_rollbacks_total",
		Help: "Transactions discarded before commit.",
	})
)

func recordHit(t Table)  { cacheHits.WithLabelValues(string(t)).Inc() }
func recordMiss(t Table) { cacheMisses.WithLabelValues(string(t)).Inc() }
func recordRollback()    { txnRollbacks.Inc() }
