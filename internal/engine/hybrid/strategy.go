// internal/engine/hybrid/strategy.go
package hybrid

// Strategy is the fetch path chosen for a page.
type Strategy int

const (
	// StrategyStatic keeps the plain HTTP response.
	StrategyStatic Strategy = iota

	// StrategyDynamic re-fetches the page in the browser.
	StrategyDynamic
)

func (s Strategy) String() string {
	switch s {
	case StrategyStatic:
		return "Static"
	case StrategyDynamic:
		return "Dynamic"
	default:
		return "Unknown"
	}
}

// minContentText is the body text length below which a scripted page is
// treated as an empty shell.
const minContentText = 200

// DetermineStrategy picks the fetch path from static page signals.
func DetermineStrategy(s PageSignals) Strategy {
	if s.ScriptCount == 0 {
		return StrategyStatic
	}
	if s.Framework != "Unknown" {
		return StrategyDynamic
	}
	if s.HasHeading && s.HasDetails {
		return StrategyStatic
	}
	if s.TextLength < minContentText {
		return StrategyDynamic
	}
	return StrategyStatic
}
