package history

import (
	"testing"
	"time"
)

// Config Tests

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HotCapacity != 500 {
		t.Errorf("hot capacity = %d, want 500", cfg.HotCapacity)
	}
	if cfg.MaxDepth != 10000 {
		t.Errorf("max depth = %d, want 10000", cfg.MaxDepth)
	}
	if cfg.GroupTimeout != 500*time.Millisecond {
		t.Errorf("group timeout = %v, want 500ms", cfg.GroupTimeout)
	}
	if !cfg.Policy.MergeInsertRuns {
		t.Error("default policy should merge insert runs")
	}
}

func TestConfigNormalized(t *testing.T) {
	tests := []struct {
		name            string
		in              Config
		wantHotCapacity int
		wantMaxDepth    int
		wantTimeout     time.Duration
	}{
		{
			name:            "zero values get defaults",
			in:              Config{},
			wantHotCapacity: DefaultHotCapacity,
			wantMaxDepth:    DefaultMaxDepth,
			wantTimeout:     0,
		},
		{
			name:            "negative timeout gets default",
			in:              Config{HotCapacity: 10, MaxDepth: 100, GroupTimeout: -time.Second},
			wantHotCapacity: 10,
			wantMaxDepth:    100,
			wantTimeout:     DefaultGroupTimeout,
		},
		{
			name:            "max depth raised to hot capacity",
			in:              Config{HotCapacity: 50, MaxDepth: 10, GroupTimeout: time.Second},
			wantHotCapacity: 50,
			wantMaxDepth:    50,
			wantTimeout:     time.Second,
		},
		{
			name:            "valid passes through",
			in:              Config{HotCapacity: 2, MaxDepth: 3, GroupTimeout: time.Minute},
			wantHotCapacity: 2,
			wantMaxDepth:    3,
			wantTimeout:     time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.normalized()
			if got.HotCapacity != tt.wantHotCapacity {
				t.Errorf("hot capacity = %d, want %d", got.HotCapacity, tt.wantHotCapacity)
			}
			if got.MaxDepth != tt.wantMaxDepth {
				t.Errorf("max depth = %d, want %d", got.MaxDepth, tt.wantMaxDepth)
			}
			if got.GroupTimeout != tt.wantTimeout {
				t.Errorf("group timeout = %v, want %v", got.GroupTimeout, tt.wantTimeout)
			}
		})
	}
}
