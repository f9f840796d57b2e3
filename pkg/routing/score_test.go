package routing

import (
	"math"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCompositeScore(t *testing.T) {
	tests := []struct {
		name      string
		candidate *Candidate
		want      float64
	}{
		{
			name:      "all fields missing uses neutral defaults",
			candidate: &Candidate{Name: "bare"},
			// uptime 70 -> 0.28, latency 500 -> 0.15, trust 0.5 -> 0.15
			want: 0.58,
		},
		{
			name: "perfect service",
			candidate: &Candidate{
				UptimePct:    fptr(100),
				AvgLatencyMS: fptr(0),
				TrustScore:   fptr(100),
			},
			want: 1.0,
		},
		{
			name: "latency at or above 1000ms contributes zero",
			candidate: &Candidate{
				UptimePct:    fptr(100),
				AvgLatencyMS: fptr(5000),
				TrustScore:   fptr(100),
			},
			want: 0.7,
		},
		{
			name: "reputation score takes precedence over trust score",
			candidate: &Candidate{
				UptimePct:       fptr(100),
				AvgLatencyMS:    fptr(0),
				TrustScore:      fptr(0),
				ReputationScore: fptr(100),
			},
			want: 1.0,
		},
		{
			name: "mid-range values",
			candidate: &Candidate{
				UptimePct:    fptr(90),
				AvgLatencyMS: fptr(200),
				TrustScore:   fptr(50),
			},
			// 0.9*0.4 + 0.8*0.3 + 0.5*0.3 = 0.75
			want: 0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompositeScore(tt.candidate)
			if !almostEqual(got, tt.want) {
				t.Errorf("CompositeScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompositeScoreMonotonicInUptime(t *testing.T) {
	low := &Candidate{UptimePct: fptr(50), AvgLatencyMS: fptr(100), TrustScore: fptr(50)}
	high := &Candidate{UptimePct: fptr(99), AvgLatencyMS: fptr(100), TrustScore: fptr(50)}
	if CompositeScore(low) >= CompositeScore(high) {
		t.Errorf("higher uptime should score higher: %v vs %v",
			CompositeScore(low), CompositeScore(high))
	}
}

func TestIsHealthy(t *testing.T) {
	tests := []struct {
		name      string
		candidate *Candidate
		minUptime float64
		want      bool
	}{
		{
			name:      "unhealthy status always fails",
			candidate: &Candidate{HealthStatus: HealthStatusUnhealthy, UptimePct: fptr(99.9)},
			minUptime: MinHealthyUptime,
			want:      false,
		},
		{
			name:      "missing uptime passes",
			candidate: &Candidate{HealthStatus: HealthStatusUnverified},
			minUptime: MinHealthyUptime,
			want:      true,
		},
		{
			name:      "uptime at threshold passes",
			candidate: &Candidate{UptimePct: fptr(80)},
			minUptime: MinHealthyUptime,
			want:      true,
		},
		{
			name:      "uptime below threshold fails",
			candidate: &Candidate{UptimePct: fptr(79.9)},
			minUptime: MinHealthyUptime,
			want:      false,
		},
		{
			name:      "custom threshold replaces the default",
			candidate: &Candidate{UptimePct: fptr(85)},
			minUptime: 95,
			want:      false,
		},
		{
			name:      "healthy status does not bypass the uptime check",
			candidate: &Candidate{HealthStatus: HealthStatusHealthy, UptimePct: fptr(10)},
			minUptime: MinHealthyUptime,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHealthy(tt.candidate, tt.minUptime); got != tt.want {
				t.Errorf("IsHealthy() = %v, want %v", got, tt.want)
			}
		})
	}
}
