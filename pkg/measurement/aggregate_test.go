package measurement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpn-speedtest/pkg/models"
)

func TestAggregateMean(t *testing.T) {
	prober := &scriptedProber{outcomes: []*models.Measurement{
		ok(100, 50, 10),
		ok(90, 40, 20),
		ok(110, 55, 15),
	}}
	agg := NewAggregator(prober, quietLogger())

	got, err := agg.Aggregate(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, models.Measurement{DownloadMbps: 100, UploadMbps: 48, PingMs: 15}, got)
	assert.Equal(t, 3, prober.calls)
}

func TestAggregateTolerance(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []*models.Measurement
		wantErr  bool
		want     models.Measurement
	}{
		{
			name:     "Single sample succeeds",
			outcomes: []*models.Measurement{ok(10, 5, 3)},
			want:     models.Measurement{DownloadMbps: 10, UploadMbps: 5, PingMs: 3},
		},
		{
			name:     "Single sample fails",
			outcomes: []*models.Measurement{nil},
			wantErr:  true,
		},
		{
			name:     "One of three is the boundary",
			outcomes: []*models.Measurement{nil, ok(80, 20, 30), nil},
			want:     models.Measurement{DownloadMbps: 80, UploadMbps: 20, PingMs: 30},
		},
		{
			name:     "Zero of three fails",
			outcomes: []*models.Measurement{nil, nil, nil},
			wantErr:  true,
		},
		{
			name:     "Three of five uses only successes",
			outcomes: []*models.Measurement{ok(100, 10, 10), nil, ok(200, 20, 20), nil, ok(300, 30, 30)},
			want:     models.Measurement{DownloadMbps: 200, UploadMbps: 20, PingMs: 20},
		},
		{
			name:     "Two of five fails",
			outcomes: []*models.Measurement{ok(100, 10, 10), nil, nil, nil, ok(300, 30, 30)},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := &scriptedProber{outcomes: tt.outcomes}
			agg := NewAggregator(prober, quietLogger())

			got, err := agg.Aggregate(context.Background(), len(tt.outcomes))
			assert.Equal(t, len(tt.outcomes), prober.calls, "every attempt is made even after failures")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInsufficientSamples)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Every failure pattern for small sample counts: success iff ok >= max(1, n-2).
func TestAggregateSucceedsIffSufficient(t *testing.T) {
	for n := 1; n <= 6; n++ {
		for mask := 0; mask < 1<<n; mask++ {
			outcomes := make([]*models.Measurement, n)
			successes := 0
			for i := 0; i < n; i++ {
				if mask&(1<<i) != 0 {
					outcomes[i] = ok(float64(10*(i+1)), 1, 1)
					successes++
				}
			}

			agg := NewAggregator(&scriptedProber{outcomes: outcomes}, quietLogger())
			_, err := agg.Aggregate(context.Background(), n)

			want := successes >= max(1, n-2)
			assert.Equal(t, want, err == nil, "n=%d successes=%d", n, successes)
			assert.Equal(t, want, Sufficient(successes, n), "n=%d successes=%d", n, successes)
		}
	}
}

func TestAggregateNoSamplesRequested(t *testing.T) {
	prober := &scriptedProber{}
	_, err := NewAggregator(prober, quietLogger()).Aggregate(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInsufficientSamples)
	assert.Equal(t, 0, prober.calls)
}

func TestAggregateOnDrop(t *testing.T) {
	var dropped []error
	agg := NewAggregator(&scriptedProber{outcomes: []*models.Measurement{nil, ok(1, 1, 1), nil}}, quietLogger())
	agg.OnDrop = func(err error) { dropped = append(dropped, err) }

	_, err := agg.Aggregate(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []error{errProbe, errProbe}, dropped)
}

func TestAggregateStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prober := &scriptedProber{outcomes: []*models.Measurement{ok(1, 1, 1)}}
	_, err := NewAggregator(prober, quietLogger()).Aggregate(ctx, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, prober.calls)
}

func TestMean(t *testing.T) {
	tests := []struct {
		name    string
		samples []models.Measurement
		want    models.Measurement
	}{
		{name: "Empty", samples: nil, want: models.Measurement{}},
		{
			name:    "Half rounds away from zero",
			samples: []models.Measurement{{DownloadMbps: 1, UploadMbps: 2, PingMs: 3}, {DownloadMbps: 2, UploadMbps: 3, PingMs: 4}},
			want:    models.Measurement{DownloadMbps: 2, UploadMbps: 3, PingMs: 4},
		},
		{
			name:    "Fractions round to nearest",
			samples: []models.Measurement{{DownloadMbps: 93.41, UploadMbps: 12.2, PingMs: 8.7}},
			want:    models.Measurement{DownloadMbps: 93, UploadMbps: 12, PingMs: 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mean(tt.samples))
		})
	}
}
