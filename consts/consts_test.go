package consts

import (
	"sync"
	"testing"
	"time"
)

func TestProjectInfo(t *testing.T) {
	if ServiceName != "insightflow" {
		t.Errorf("ServiceName = %q, want %q", ServiceName, "insightflow")
	}
	if ProjectName != "InsightFlow" {
		t.Errorf("ProjectName = %q, want %q", ProjectName, "InsightFlow")
	}
}

func TestFooterLine(t *testing.T) {
	want := "Generated by InsightFlow - Competitive Intelligence Platform"
	if got := FooterLine(); got != want {
		t.Errorf("FooterLine() = %q, want %q", got, want)
	}
}

func TestStartedAtAndUptime(t *testing.T) {
	startedAt = time.Time{}
	startedOnce = sync.Once{}

	if GetUptime() != 0 {
		t.Error("GetUptime() should be 0 before SetStartedAt")
	}

	start := time.Now().Add(-time.Minute)
	SetStartedAt(start)
	SetStartedAt(time.Now())

	if !GetStartedAt().Equal(start) {
		t.Errorf("GetStartedAt() = %v, want %v", GetStartedAt(), start)
	}
	if GetUptime() < time.Minute {
		t.Errorf("GetUptime() = %v, want >= 1m", GetUptime())
	}
}
