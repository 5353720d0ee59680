// Package metrics exposes Prometheus instrumentation for the comfort noise
// decoder. Callers check IsMetricsEnabled before recording; the collectors
// exist only after Init.
package metrics

import (
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cng"

var (
	enabled atomic.Bool

	// FramesSynthesized counts frames produced by all decoders.
	FramesSynthesized prometheus.Counter
	// SIDPayloadsApplied counts non-empty SID payloads that updated a target.
	SIDPayloadsApplied prometheus.Counter
	// PayloadBytesConsumed counts SID payload bytes consumed.
	PayloadBytesConsumed prometheus.Counter
	// DecoderFlushes counts Flush calls.
	DecoderFlushes prometheus.Counter
	// ActiveDecoders tracks decoders created and not yet closed.
	ActiveDecoders prometheus.Gauge
	// DecoderErrors counts failed decoder operations by reason.
	DecoderErrors *prometheus.CounterVec
)

// Init creates the collectors, registers them with reg and enables
// recording. Passing nil uses prometheus.DefaultRegisterer.
func Init(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	frames := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_synthesized_total",
		Help:      "Number of comfort noise frames synthesized",
	})
	sid := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sid_payloads_applied_total",
		Help:      "Number of SID payloads that updated the noise target",
	})
	payloadBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payload_bytes_consumed_total",
		Help:      "Number of SID payload bytes consumed",
	})
	flushes := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decoder_flushes_total",
		Help:      "Number of decoder flushes",
	})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_decoders",
		Help:      "Number of open comfort noise decoders",
	})
	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decoder_errors_total",
		Help:      "Number of decoder errors by reason",
	}, []string{"reason"})

	collectors := []prometheus.Collector{frames, sid, payloadBytes, flushes, active, errs}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			for _, registered := range collectors[:i] {
				reg.Unregister(registered)
			}
			return fmt.Errorf("failed to register cng metrics: %w", err)
		}
	}

	FramesSynthesized = frames
	SIDPayloadsApplied = sid
	PayloadBytesConsumed = payloadBytes
	DecoderFlushes = flushes
	ActiveDecoders = active
	DecoderErrors = errs
	enabled.Store(true)
	return nil
}

// Disable stops recording. Registered collectors keep their values.
func Disable() {
	enabled.Store(false)
}

// IsMetricsEnabled reports whether Init has enabled recording.
func IsMetricsEnabled() bool {
	return enabled.Load()
}

// RecordFrame records one synthesized frame and the payload bytes it consumed.
func RecordFrame(payloadBytes int) {
	FramesSynthesized.Inc()
	if payloadBytes > 0 {
		SIDPayloadsApplied.Inc()
		PayloadBytesConsumed.Add(float64(payloadBytes))
	}
}

// RecordFlush records a decoder flush.
func RecordFlush() {
	DecoderFlushes.Inc()
}

// DecoderOpened increments the active decoder gauge and returns it. The
// caller decrements the returned gauge when the decoder closes, so a later
// Init cannot unbalance it.
func DecoderOpened() prometheus.Gauge {
	gauge := ActiveDecoders
	gauge.Inc()
	return gauge
}

// RecordDecoderError records a failed decoder operation.
func RecordDecoderError(reason string) {
	DecoderErrors.WithLabelValues(reason).Inc()
}
