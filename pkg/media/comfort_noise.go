package media

// =============================================================================
// Comfort Noise decoder: RFC 3389 SID payloads to 16-bit PCM
//
// A SID payload carries a noise level (byte 0, -dBov) and up to `order`
// quantised reflection coefficients. Between payloads the decoder keeps
// producing noise from the last target and glides its smoothed model toward
// each new one.
// =============================================================================

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"comfort-noise/pkg/metrics"
)

const (
	// cngEnergyScale ties the internal energy scale to the variance of the
	// 16-bit excitation.
	cngEnergyScale = 1081109975

	// cngReflSmoothing is the weight kept from the previous reflection
	// coefficients; energy is averaged with equal weights.
	cngReflSmoothing = 0.6
)

// Frame describes one synthesized output frame.
type Frame struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// ComfortNoiseDecoder synthesizes background noise from SID payloads. A
// decoder holds the state of a single stream and is not safe for concurrent
// use; independent streams use independent decoders.
type ComfortNoiseDecoder struct {
	order      int
	frameSize  int
	sampleRate int
	channels   int

	reflCoef       []float32
	targetReflCoef []float32
	lpcCoef        []float32
	lpcScratch     []float32

	energy       int
	targetEnergy int
	initialized  bool

	// filterOut holds order samples of filter memory followed by the
	// current frame.
	filterOut  []float32
	excitation []float32

	rng    RandomSource
	closed bool

	streamID string
	logger   *logrus.Entry

	// activeGauge is the gauge incremented at creation, nil when metrics
	// were disabled at that time.
	activeGauge prometheus.Gauge
}

// NewComfortNoiseDecoder allocates a decoder for one stream. A nil logger
// falls back to the logrus standard logger.
func NewComfortNoiseDecoder(cfg CNGConfig, logger *logrus.Logger) (*ComfortNoiseDecoder, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	streamID := uuid.NewString()
	d := &ComfortNoiseDecoder{
		order:      cfg.Order,
		frameSize:  cfg.FrameSize,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		streamID:   streamID,
		logger:     logger.WithField("stream_id", streamID),
	}

	if err := d.allocate(); err != nil {
		d.release()
		d.logger.WithError(err).WithFields(logrus.Fields{
			"order":      cfg.Order,
			"frame_size": cfg.FrameSize,
		}).Error("Failed to allocate comfort noise decoder")
		if metrics.IsMetricsEnabled() {
			metrics.RecordDecoderError("allocation")
		}
		return nil, err
	}

	d.rng = cfg.Random
	if d.rng == nil {
		d.rng = NewLaggedFibonacci(cfg.Seed)
	}

	if metrics.IsMetricsEnabled() {
		d.activeGauge = metrics.DecoderOpened()
	}
	d.logger.WithFields(logrus.Fields{
		"order":       d.order,
		"frame_size":  d.frameSize,
		"sample_rate": d.sampleRate,
	}).Debug("Comfort noise decoder created")
	return d, nil
}

func (d *ComfortNoiseDecoder) allocate() error {
	if d.order > maxLPCOrder {
		return fmt.Errorf("%w: order %d exceeds %d", ErrAllocationFailed, d.order, maxLPCOrder)
	}
	if d.frameSize > maxFrameSize {
		return fmt.Errorf("%w: frame size %d exceeds %d", ErrAllocationFailed, d.frameSize, maxFrameSize)
	}
	d.reflCoef = make([]float32, d.order)
	d.targetReflCoef = make([]float32, d.order)
	d.lpcCoef = make([]float32, d.order)
	d.lpcScratch = make([]float32, d.order)
	d.filterOut = make([]float32, d.order+d.frameSize)
	d.excitation = make([]float32, d.frameSize)
	return nil
}

func (d *ComfortNoiseDecoder) release() {
	d.reflCoef = nil
	d.targetReflCoef = nil
	d.lpcCoef = nil
	d.lpcScratch = nil
	d.filterOut = nil
	d.excitation = nil
}

// Close releases the decoder buffers. Further decode calls fail with
// ErrDecoderClosed; closing twice is a no-op.
func (d *ComfortNoiseDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.release()
	d.rng = nil
	d.closed = true
	if d.activeGauge != nil {
		d.activeGauge.Dec()
		d.activeGauge = nil
	}
	d.logger.Debug("Comfort noise decoder closed")
	return nil
}

// Flush drops the smoothing continuity so the next frame snaps to the current
// target. The filter memory is kept to avoid a click at the boundary.
func (d *ComfortNoiseDecoder) Flush() {
	d.initialized = false
	if metrics.IsMetricsEnabled() {
		metrics.RecordFlush()
	}
	d.logger.Debug("Comfort noise decoder flushed")
}

// DecodeFrame consumes an optional SID payload and writes one frame of
// FrameSize samples into pcm. It returns the frame and the number of payload
// bytes consumed, which is always len(payload).
func (d *ComfortNoiseDecoder) DecodeFrame(payload []byte, pcm []int16) (Frame, int, error) {
	if d.closed {
		return Frame{}, 0, ErrDecoderClosed
	}
	if len(pcm) < d.frameSize {
		if metrics.IsMetricsEnabled() {
			metrics.RecordDecoderError("buffer_too_small")
		}
		return Frame{}, 0, fmt.Errorf("%w: need %d samples, got %d", ErrBufferTooSmall, d.frameSize, len(pcm))
	}

	if len(payload) > 0 {
		d.applySID(payload)
	}
	d.smooth()

	reflectionToLPC(d.lpcCoef, d.lpcScratch, d.reflCoef)
	d.generateExcitation()
	lpSynthesisFilter(d.filterOut, d.lpcCoef, d.excitation)

	out := pcm[:d.frameSize]
	floatToPCM16(out, d.filterOut[d.order:])
	copy(d.filterOut[:d.order], d.filterOut[d.frameSize:])

	if metrics.IsMetricsEnabled() {
		metrics.RecordFrame(len(payload))
	}
	return Frame{Samples: out, SampleRate: d.sampleRate, Channels: d.channels}, len(payload), nil
}

// Decode is the allocating form of DecodeFrame; it returns the frame as
// 16-bit little-endian PCM.
func (d *ComfortNoiseDecoder) Decode(payload []byte) ([]byte, error) {
	pcm := make([]int16, d.frameSize)
	frame, _, err := d.DecodeFrame(payload, pcm)
	if err != nil {
		return nil, err
	}
	return pcm16ToBytes(frame.Samples), nil
}

// applySID replaces the noise target with the one described by a non-empty
// SID payload. Coefficients the payload does not carry are zero; bytes past
// order+1 are ignored.
func (d *ComfortNoiseDecoder) applySID(payload []byte) {
	dbov := -int(payload[0])
	d.targetEnergy = int(cngEnergyScale * math.Pow(10, float64(dbov)/10.0) * 0.75)

	clear(d.targetReflCoef)
	n := min(len(payload)-1, d.order)
	for i := 0; i < n; i++ {
		d.targetReflCoef[i] = float32(float64(int(payload[1+i])-127) / 128.0)
	}

	if d.logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		d.logger.WithFields(logrus.Fields{
			"noise_level_dbov": dbov,
			"target_energy":    d.targetEnergy,
			"coefficients":     n,
		}).Debug("Applied SID payload")
	}
}

// smooth moves the current model toward the target, or snaps to it on the
// first frame after creation or Flush.
func (d *ComfortNoiseDecoder) smooth() {
	if !d.initialized {
		d.energy = d.targetEnergy
		copy(d.reflCoef, d.targetReflCoef)
		d.initialized = true
		return
	}
	d.energy = d.energy/2 + d.targetEnergy/2
	for i := range d.reflCoef {
		prev := float64(cngReflSmoothing * float64(d.reflCoef[i]))
		next := float64((1 - cngReflSmoothing) * float64(d.targetReflCoef[i]))
		d.reflCoef[i] = float32(prev + next)
	}
}

// generateExcitation fills the excitation buffer with white noise scaled to
// the smoothed energy, compensating for the gain of the synthesis filter.
func (d *ComfortNoiseDecoder) generateExcitation() {
	e := predictionGain(d.reflCoef)
	scaling := float32(math.Sqrt(float64(e * float32(d.energy) / cngEnergyScale)))
	for i := range d.excitation {
		r := int32(d.rng.Next()&0xffff) - 0x8000
		d.excitation[i] = scaling * float32(r)
	}
}

// StreamID returns the identifier attached to this decoder's log entries.
func (d *ComfortNoiseDecoder) StreamID() string { return d.streamID }

// Order returns the LPC model order.
func (d *ComfortNoiseDecoder) Order() int { return d.order }

// FrameSize returns the number of samples per output frame.
func (d *ComfortNoiseDecoder) FrameSize() int { return d.frameSize }

// SampleRate returns the output sample rate in Hz.
func (d *ComfortNoiseDecoder) SampleRate() int { return d.sampleRate }

// Channels returns the output channel count.
func (d *ComfortNoiseDecoder) Channels() int { return d.channels }

// Energy returns the smoothed noise energy.
func (d *ComfortNoiseDecoder) Energy() int { return d.energy }

// TargetEnergy returns the energy of the last SID payload.
func (d *ComfortNoiseDecoder) TargetEnergy() int { return d.targetEnergy }

// ReflectionCoefficients returns a copy of the smoothed reflection coefficients.
func (d *ComfortNoiseDecoder) ReflectionCoefficients() []float32 {
	return append([]float32(nil), d.reflCoef...)
}

// TargetReflectionCoefficients returns a copy of the last received target.
func (d *ComfortNoiseDecoder) TargetReflectionCoefficients() []float32 {
	return append([]float32(nil), d.targetReflCoef...)
}
