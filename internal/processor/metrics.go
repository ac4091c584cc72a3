package processor

import (
	"github.com/horockey/go-toolbox/prometheus_helpers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	handleTimeHist *prometheus.HistogramVec
	errsCnt        *prometheus.CounterVec
}

func newMetrics() *metrics {
	const ss = "processor"
	return &metrics{
		handleTimeHist: prometheus.NewHistogramVec(*prometheus_helpers.NewHistOpts(
			"handle_time_hist",
			prometheus_helpers.HistOptsWithSubsystem(ss),
			prometheus_helpers.HistOptsWithHelp("Handle time distribution"),
		), []string{"op"}),
		errsCnt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "errs_cnt",
			Subsystem: ss,
			Help:      "Count of failed operations by error kind",
		}, []string{"op", "kind"}),
	}
}

func (m *metrics) list() []prometheus.Collector {
	return []prometheus.Collector{m.handleTimeHist, m.errsCnt}
}
