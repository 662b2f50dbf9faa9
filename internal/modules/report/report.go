package report

import (
	"fmt"
	"io"

	"framegrab/internal/models"

	"github.com/fatih/color"
)

var (
	heading = color.New(color.Bold)
	good    = color.New(color.FgHiGreen)
	bad     = color.New(color.FgHiRed, color.Bold)
)

// Print writes the end of run summary to w.
func Print(w io.Writer, s models.Summary) {
	fmt.Fprintln(w)
	heading.Fprintln(w, "=== Summary ===")
	fmt.Fprintf(w, "Total videos:           %d\n", s.Total)
	good.Fprintf(w, "Successfully processed: %d\n", s.Succeeded)
	if s.Failed > 0 {
		bad.Fprintf(w, "Failed:                 %d\n", s.Failed)
	} else {
		fmt.Fprintf(w, "Failed:                 %d\n", s.Failed)
	}
	fmt.Fprintf(w, "Output directory:       %s\n", s.OutputDir)
}
