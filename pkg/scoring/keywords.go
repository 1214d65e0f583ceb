package scoring

import (
	"strings"

	"github.com/elonfeng/commutescore/pkg/provider"
)

// Maneuver keywords are matched case-sensitively against the raw instruction
// text, HTML markup included.
var (
	TurnKeywords    = []string{"Turn", "Exit", "Merge"}
	TerrainKeywords = []string{"hill", "climb", "elevation"}
)

// CountSteps returns how many steps mention at least one keyword.
func CountSteps(steps []provider.RouteStep, keywords []string) int {
	n := 0
	for _, step := range steps {
		if containsAny(step.Instruction, keywords) {
			n++
		}
	}
	return n
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
