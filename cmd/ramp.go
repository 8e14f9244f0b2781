package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tanema/gween/ease"

	"github.com/sandbox-radar/radar-sim/sim/interp"
)

var (
	// CLI flags for the ramp preview
	rampStart   float64 // Constant value the buffer starts at
	rampTarget  float64 // Value the ramp ends on
	rampLen     int     // Buffer length
	rampSamples int     // Samples over which to ramp
	rampEase    string  // Easing curve name
)

// rampCmd previews an audio gain ramp on a constant buffer
var rampCmd = &cobra.Command{
	Use:   "ramp",
	Short: "Print a gain ramp applied to a constant buffer",
	Run: func(cmd *cobra.Command, args []string) {
		easing, err := interp.Easing(rampEase)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if rampLen < 0 {
			logrus.Fatalf("--len must be non-negative, got %d", rampLen)
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatRamp(renderRamp(float32(rampStart), float32(rampTarget), rampLen, rampSamples, easing)))
	},
}

func renderRamp(start, target float32, n, samples int, easing ease.TweenFunc) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = start
	}
	interp.ApplyRampWith(buf, target, samples, easing)
	return buf
}

func formatRamp(buf []float32) string {
	parts := make([]string, len(buf))
	for i, v := range buf {
		parts[i] = fmt.Sprintf("%.4g", v)
	}
	return strings.Join(parts, " ")
}

func init() {
	rampCmd.Flags().Float64Var(&rampStart, "start", 10, "Constant value the buffer starts at")
	rampCmd.Flags().Float64Var(&rampTarget, "target", 20, "Value the ramp ends on")
	rampCmd.Flags().IntVar(&rampLen, "len", 4, "Buffer length")
	rampCmd.Flags().IntVar(&rampSamples, "samples", 4, "Samples over which to ramp")
	rampCmd.Flags().StringVar(&rampEase, "ease", "linear", "Easing curve ("+strings.Join(interp.EasingNames(), ", ")+")")
}
