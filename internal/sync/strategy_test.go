package sync

import "testing"

func TestStrategyIsValid(t *testing.T) {
	tests := []struct {
		strategy Strategy
		want     bool
	}{
		{StrategyLocalWins, true},
		{StrategyRemoteWins, true},
		{StrategyNewestWins, true},
		{StrategyManual, true},
		{Strategy(""), false},
		{Strategy("bogus"), false},
		{Strategy("LOCAL_WINS"), false},
	}
	for _, tt := range tests {
		if got := tt.strategy.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.strategy, got, tt.want)
		}
	}
}

func TestAllStrategies(t *testing.T) {
	all := AllStrategies()
	if len(all) != 4 {
		t.Fatalf("AllStrategies() = %d entries, want 4", len(all))
	}
	for _, s := range all {
		if !s.IsValid() {
			t.Errorf("%q should be valid", s)
		}
		if s.Description() == "Unknown strategy" {
			t.Errorf("%q has no description", s)
		}
	}
}

func TestDefaultStrategy(t *testing.T) {
	if DefaultStrategy != StrategyManual {
		t.Errorf("DefaultStrategy = %q, want %q", DefaultStrategy, StrategyManual)
	}
	if !DefaultStrategy.IsValid() {
		t.Error("DefaultStrategy should be valid")
	}
}

func TestStrategyDescriptionUnknown(t *testing.T) {
	if got := Strategy("bogus").Description(); got != "Unknown strategy" {
		t.Errorf("Description() = %q, want %q", got, "Unknown strategy")
	}
}

func TestScopeIsValid(t *testing.T) {
	tests := []struct {
		scope Scope
		want  bool
	}{
		{ScopeLinked, true},
		{ScopeAllChildren, true},
		{ScopeExplicit, true},
		{Scope(""), false},
		{Scope("everything"), false},
	}
	for _, tt := range tests {
		if got := tt.scope.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.scope, got, tt.want)
		}
	}
}
