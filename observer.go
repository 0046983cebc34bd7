package resapp

import (
	"errors"
	"reflect"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Phase identifies which lifecycle hook ran.
type Phase string

const (
	PhasePostConstruct Phase = "post_construct"
	PhasePreDestroy    Phase = "pre_destroy"
)

// HookObserver is notified after every lifecycle hook with its duration and
// result.
type HookObserver func(phase Phase, t reflect.Type, duration time.Duration, err error)

// NewPrometheusObserver registers hook metrics with reg and returns an observer
// that records them. Registering twice with the same registry reuses the
// existing collectors.
func NewPrometheusObserver(reg prometheus.Registerer) (HookObserver, error) {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "resapp",
		Name:      "hook_duration_seconds",
		Help:      "Duration of resource lifecycle hooks.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"phase"})

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resapp",
		Name:      "hook_failures_total",
		Help:      "Number of resource lifecycle hooks that returned an error or panicked.",
	}, []string{"phase"})

	if err := reg.Register(duration); err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}
		duration = existing
	}

	if err := reg.Register(failures); err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		failures = existing
	}

	return func(phase Phase, _ reflect.Type, d time.Duration, err error) {
		duration.WithLabelValues(string(phase)).Observe(d.Seconds())
		if err != nil {
			failures.WithLabelValues(string(phase)).Inc()
		}
	}, nil
}
