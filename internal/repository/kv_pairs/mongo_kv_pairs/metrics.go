package mongo_kv_pairs

import (
	"errors"
	"time"

	"github.com/horockey/go-toolbox/prometheus_helpers"
	"github.com/horockey/kvstore/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	handleTimeHist    prometheus.Histogram
	requestsCnt       prometheus.Counter
	successProcessCnt prometheus.Counter
	errProcessCnt     prometheus.Counter
	keyMissesCnt      prometheus.Counter
}

func newMetrics() *metrics {
	const ss = "mongo_kv_pairs"
	return &metrics{
		handleTimeHist: prometheus.NewHistogram(*prometheus_helpers.NewHistOpts(
			"handle_time_hist",
			prometheus_helpers.HistOptsWithSubsystem(ss),
			prometheus_helpers.HistOptsWithHelp("Handle time distribution"),
		)),
		requestsCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "requests_cnt",
			Subsystem: ss,
			Help:      "Count of incoming requests",
		}),
		successProcessCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "success_responses_cnt",
			Subsystem: ss,
			Help:      "Count of successfully finished processes",
		}),
		errProcessCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "err_processes_cnt",
			Subsystem: ss,
			Help:      "Count of processes finished with non-nil error",
		}),
		keyMissesCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "key_misses_cnt",
			Subsystem: ss,
			Help:      "Count of requests to keys not exsisting in repo",
		}),
	}
}

func (m *metrics) observe(ts time.Time, err error) {
	m.requestsCnt.Inc()
	m.handleTimeHist.Observe(float64(time.Since(ts)))

	switch {
	case err == nil:
		m.successProcessCnt.Inc()
	case errors.As(err, new(model.KeyNotFoundError)):
		m.keyMissesCnt.Inc()
		fallthrough
	default:
		m.errProcessCnt.Inc()
	}
}

func (m *metrics) list() []prometheus.Collector {
	return []prometheus.Collector{
		m.handleTimeHist,
		m.requestsCnt,
		m.successProcessCnt,
		m.errProcessCnt,
		m.keyMissesCnt,
	}
}
