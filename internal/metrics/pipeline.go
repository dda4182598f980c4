package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "生成流程各阶段耗时（秒）。",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage", "result"},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "generations_total",
			Help:      "CV 生成总数。",
		},
		[]string{"result"},
	)

	generationsInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "generations_in_progress",
			Help:      "当前正在生成的 CV 数量。",
		},
	)

	forwardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forward",
			Name:      "uploads_total",
			Help:      "转发到云存储的次数。",
		},
		[]string{"backend", "result"},
	)

	loginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "访问密钥提交次数。",
		},
		[]string{"result"},
	)
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStage 记录一个流程阶段的耗时。
func ObserveStage(stage string, start time.Time, err error) {
	stageDuration.WithLabelValues(stage, result(err)).Observe(time.Since(start).Seconds())
}

// TrackGeneration 标记一次生成开始，返回的函数在结束时调用。
func TrackGeneration() func(err error) {
	generationsInProgress.Inc()
	return func(err error) {
		generationsInProgress.Dec()
		generationsTotal.WithLabelValues(result(err)).Inc()
	}
}

// ObserveForward 记录一次转发结果。
func ObserveForward(backend string, err error) {
	forwardsTotal.WithLabelValues(backend, result(err)).Inc()
}

// ObserveLogin 记录访问密钥校验结果，outcome 取 ok/invalid/empty/config_error。
func ObserveLogin(outcome string) {
	loginAttemptsTotal.WithLabelValues(outcome).Inc()
}
