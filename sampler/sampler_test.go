package sampler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/loom/trace"
)

// randomTraceIDs returns a reproducible set of trace ids.
func randomTraceIDs(n int) []trace.TraceID {
	rng := rand.New(rand.NewSource(42))
	out := make([]trace.TraceID, n)
	for i := range out {
		_, _ = rng.Read(out[i][:])
	}
	return out
}

func TestProbabilityDeterministic(t *testing.T) {
	s, err := Probability(0.5)
	require.NoError(t, err)

	// A second sampler with the same rate, standing in for another
	// process evaluating the same trace ids.
	other, err := Probability(0.5)
	require.NoError(t, err)

	for _, id := range randomTraceIDs(200) {
		params := trace.SamplingParameters{TraceID: id}
		first := s.ShouldSample(params).Sampled
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, s.ShouldSample(params).Sampled, "decision changed across evaluations for %s", id)
		}
		assert.Equal(t, first, other.ShouldSample(params).Sampled, "decision differs across samplers for %s", id)
	}
}

func TestProbabilityBounds(t *testing.T) {
	always, err := Probability(1)
	require.NoError(t, err)
	never, err := Probability(0)
	require.NoError(t, err)

	for _, id := range randomTraceIDs(50) {
		params := trace.SamplingParameters{TraceID: id}
		assert.True(t, always.ShouldSample(params).Sampled)
		assert.False(t, never.ShouldSample(params).Sampled)
	}
}

func TestProbabilityInvalidRate(t *testing.T) {
	for _, rate := range []float64{-0.1, 1.1, 2} {
		_, err := Probability(rate)
		assert.Error(t, err, "rate %v accepted", rate)
	}
}

func TestAlwaysOnOff(t *testing.T) {
	params := trace.SamplingParameters{TraceID: trace.TraceID{0x01}}

	on := AlwaysOn().ShouldSample(params)
	assert.True(t, on.Sampled)
	assert.Equal(t, "always_on", on.Reason)

	off := AlwaysOff().ShouldSample(params)
	assert.False(t, off.Sampled)
	assert.Equal(t, "always_off", off.Reason)
}

func TestRateLimitingBoundsAdmissions(t *testing.T) {
	s, err := RateLimiting(5)
	require.NoError(t, err)

	admitted := 0
	for i := 0; i < 100; i++ {
		if s.ShouldSample(trace.SamplingParameters{}).Sampled {
			admitted++
		}
	}
	// The burst allows one second's budget up front; a tight loop cannot
	// earn meaningfully more.
	assert.LessOrEqual(t, admitted, 6)
	assert.GreaterOrEqual(t, admitted, 1)
}

func TestRateLimitingInvalid(t *testing.T) {
	_, err := RateLimiting(0)
	assert.Error(t, err)
	_, err = RateLimiting(-3)
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
		desc    string
	}{
		{name: "default", cfg: Config{}, desc: "AlwaysOn"},
		{name: "always_on", cfg: Config{Strategy: StrategyAlwaysOn}, desc: "AlwaysOn"},
		{name: "always_off", cfg: Config{Strategy: StrategyAlwaysOff}, desc: "AlwaysOff"},
		{name: "probability", cfg: Config{Strategy: StrategyProbability, Rate: 0.25}, desc: "Probability(0.25)"},
		{name: "rate_limiting", cfg: Config{Strategy: StrategyRateLimiting, TracesPerSecond: 10}, desc: "RateLimiting(10/s)"},
		{name: "bad strategy", cfg: Config{Strategy: "coin_flip"}, wantErr: true},
		{name: "bad rate", cfg: Config{Strategy: StrategyProbability, Rate: 7}, wantErr: true},
		{name: "bad limit", cfg: Config{Strategy: StrategyRateLimiting}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := FromConfig(tc.cfg)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.desc, s.Description())
		})
	}
}
