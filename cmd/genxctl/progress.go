package main

import (
	"fmt"
	"strings"

	"github.com/abhay-kr-0705/GEN-X/internal/batchupload"
)

func renderBar(p batchupload.Progress, width int) string {
	if width < 1 {
		width = 1
	}
	filled := 0
	if p.Total > 0 {
		filled = p.Completed * width / p.Total
	}
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
	return fmt.Sprintf("[%s] %d/%d files (batch %d/%d)", bar, p.Completed, p.Total, p.CurrentBatch, p.TotalBatches)
}
