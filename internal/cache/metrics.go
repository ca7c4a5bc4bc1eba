package cache

import "github.com/prometheus/client_golang/prometheus"

var CacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "task_cache_lookups_total",
		Help: "Task list cache lookups by result",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(CacheLookups)
}
