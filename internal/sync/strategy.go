package sync

// Strategy selects how diverged documents are handled during a pull.
type Strategy string

const (
	// StrategyLocalWins keeps local files untouched; remote changes are
	// skipped.
	StrategyLocalWins Strategy = "local_wins"

	// StrategyRemoteWins always takes the remote version.
	StrategyRemoteWins Strategy = "remote_wins"

	// StrategyNewestWins takes whichever side changed most recently.
	StrategyNewestWins Strategy = "newest_wins"

	// StrategyManual reports diverged documents for review instead of
	// deciding.
	StrategyManual Strategy = "manual"
)

// DefaultStrategy is used when no strategy is configured.
const DefaultStrategy = StrategyManual

// IsValid reports whether the strategy is a known value.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyLocalWins, StrategyRemoteWins, StrategyNewestWins, StrategyManual:
		return true
	}
	return false
}

// AllStrategies returns all valid strategies.
func AllStrategies() []Strategy {
	return []Strategy{
		StrategyLocalWins,
		StrategyRemoteWins,
		StrategyNewestWins,
		StrategyManual,
	}
}

// String returns the strategy name.
func (s Strategy) String() string {
	return string(s)
}

// Description returns a human-readable description of the strategy.
func (s Strategy) Description() string {
	switch s {
	case StrategyLocalWins:
		return "Keep local files; skip all remote changes"
	case StrategyRemoteWins:
		return "Take the remote version of every page"
	case StrategyNewestWins:
		return "Take whichever side changed most recently"
	case StrategyManual:
		return "Report conflicts for review without changing files"
	default:
		return "Unknown strategy"
	}
}
