package health

import (
	"context"
	"testing"
	"time"
)

func fixed(name string, st Status) Checker {
	return CheckerFunc{ID: name, Fn: func(ctx context.Context) CheckResult {
		return CheckResult{Status: st, Message: "fixed"}
	}}
}

func TestAggregator_Overall(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []Status
		want      Status
		wantReady bool
	}{
		{"无检查器", nil, StatusHealthy, true},
		{"全部健康", []Status{StatusHealthy, StatusHealthy}, StatusHealthy, true},
		{"审计降级", []Status{StatusHealthy, StatusDegraded}, StatusDegraded, true},
		{"板全部离线", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			for i, st := range tt.statuses {
				agg.AddChecker(fixed(string(rune('a'+i)), st))
			}
			if got := agg.OverallStatus(context.Background()); got != tt.want {
				t.Errorf("OverallStatus = %v, want %v", got, tt.want)
			}
			if got := agg.Ready(context.Background()); got != tt.wantReady {
				t.Errorf("Ready = %v, want %v", got, tt.wantReady)
			}
		})
	}
}

func TestAggregator_CheckAllKeyedByName(t *testing.T) {
	agg := NewAggregator(fixed("boards", StatusHealthy), fixed("redis", StatusDegraded))
	agg.AddChecker(fixed("database", StatusHealthy))

	results := agg.CheckAll(context.Background())
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results["redis"].Status != StatusDegraded {
		t.Errorf("redis: got %v", results["redis"].Status)
	}

	report := agg.Report(context.Background())
	if report.Status != StatusDegraded || len(report.Checks) != 3 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestAggregator_SlowCheckerTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	slow := CheckerFunc{ID: "bus", Fn: func(ctx context.Context) CheckResult {
		<-release
		return CheckResult{Status: StatusHealthy}
	}}

	agg := NewAggregator(slow, fixed("boards", StatusHealthy))
	agg.SetTimeout(20 * time.Millisecond)

	start := time.Now()
	results := agg.CheckAll(context.Background())
	if time.Since(start) > time.Second {
		t.Fatalf("CheckAll blocked on slow checker")
	}
	if results["bus"].Status != StatusUnhealthy || results["bus"].Message != "check timed out" {
		t.Errorf("unexpected slow result: %+v", results["bus"])
	}
	if results["boards"].Status != StatusHealthy {
		t.Errorf("boards: got %v", results["boards"].Status)
	}
}

func TestAggregator_Alive(t *testing.T) {
	if !NewAggregator().Alive() {
		t.Error("Alive should always be true")
	}
}
