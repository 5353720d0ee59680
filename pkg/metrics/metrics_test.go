package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingDisabledByDefault(t *testing.T) {
	Disable()
	assert.False(t, IsMetricsEnabled())
}

func TestInitAndRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Init(reg))
	t.Cleanup(Disable)
	assert.True(t, IsMetricsEnabled())

	RecordFrame(13)
	RecordFrame(0)
	RecordFrame(1)
	RecordFlush()
	DecoderOpened()
	DecoderOpened().Dec()
	RecordDecoderError("buffer_too_small")

	assert.Equal(t, float64(3), testutil.ToFloat64(FramesSynthesized))
	assert.Equal(t, float64(2), testutil.ToFloat64(SIDPayloadsApplied))
	assert.Equal(t, float64(14), testutil.ToFloat64(PayloadBytesConsumed))
	assert.Equal(t, float64(1), testutil.ToFloat64(DecoderFlushes))
	assert.Equal(t, float64(1), testutil.ToFloat64(ActiveDecoders))
	assert.Equal(t, float64(1), testutil.ToFloat64(DecoderErrors.WithLabelValues("buffer_too_small")))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestInitDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Init(reg))
	t.Cleanup(Disable)

	err := Init(reg)
	assert.Error(t, err)
}

func TestInitPartialFailureUnregisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	conflict := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "decoder_flushes_total",
		Help:      "Conflicting collector",
	})
	require.NoError(t, reg.Register(conflict))
	Disable()

	err := Init(reg)
	require.Error(t, err)
	assert.False(t, IsMetricsEnabled())

	// Only the conflicting collector is left behind.
	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.True(t, reg.Unregister(conflict))
	require.NoError(t, Init(reg))
	t.Cleanup(Disable)

	count, err = testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestDecoderOpenedGaugeSurvivesReinit(t *testing.T) {
	require.NoError(t, Init(prometheus.NewRegistry()))
	t.Cleanup(Disable)
	first := ActiveDecoders
	gauge := DecoderOpened()

	require.NoError(t, Init(prometheus.NewRegistry()))
	gauge.Dec()

	assert.Equal(t, float64(0), testutil.ToFloat64(first))
	assert.Equal(t, float64(0), testutil.ToFloat64(ActiveDecoders))
}

func TestDisableKeepsValues(t *testing.T) {
	require.NoError(t, Init(prometheus.NewRegistry()))
	RecordFrame(2)
	Disable()

	assert.False(t, IsMetricsEnabled())
	assert.Equal(t, float64(1), testutil.ToFloat64(FramesSynthesized))
}
