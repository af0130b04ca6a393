package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/verte-zerg/stopit/internal/model"
)

// FormatBlockFeedback renders the between-block feedback text. The
// countdown line is omitted when secondsLeft is negative.
func FormatBlockFeedback(sum model.BlockSummary, secondsLeft int) string {
	var b strings.Builder
	b.WriteString("NO-SIGNAL TRIALS:\n")
	if math.IsNaN(sum.MeanRTMs) {
		b.WriteString("Average response time = n/a\n")
	} else {
		fmt.Fprintf(&b, "Average response time = %.0f milliseconds\n", sum.MeanRTMs)
	}
	fmt.Fprintf(&b, "Proportion correct = %.3f (should be close to 1)\n", sum.PropCorrect)
	fmt.Fprintf(&b, "Proportion incorrect = %.3f\n", sum.PropIncorrect)
	fmt.Fprintf(&b, "Proportion missed = %.3f\n\n", sum.PropMissed)
	b.WriteString("STOP-SIGNAL TRIALS:\n")
	fmt.Fprintf(&b, "Proportion correct = %.3f (should be close to 0.5)\n", sum.PropSignalCorrect)
	if secondsLeft >= 0 {
		fmt.Fprintf(&b, "\n\nSeconds left to wait: %d\n", secondsLeft)
	}
	return b.String()
}
