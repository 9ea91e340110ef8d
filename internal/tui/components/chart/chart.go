// Package chart draws the completion-rate sparkline shared by the CLI and
// the TUI.
package chart

import (
	"fmt"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
)

var (
	sparkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Sparkline renders rates in [0, 1], oldest first, as percentages.
func Sparkline(rates []float64, width, height int) string {
	if len(rates) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", width, "no data"))
	}
	spark := sparkline.New(width, height)
	for _, r := range rates {
		spark.Push(r * 100)
	}
	spark.Draw()
	return sparkStyle.Render(spark.View())
}
