package ws

import "github.com/prometheus/client_golang/prometheus"

var Subscribers = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "task_event_subscribers",
	Help: "Connected task event subscribers",
})

func init() {
	prometheus.MustRegister(Subscribers)
}
