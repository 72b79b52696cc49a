package common

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"text/tabwriter"
	"time"

	tm "github.com/buger/goterm"

	"seqpipe/pkg/parallel"
)

const (
	progressBarWidth       = 20
	progressBarChar        = "■"
	progressBarPlaceholder = "·"
)

// PrintProgress prints one line in the given writer for each completed unit
// of a parallel run, with a bar reflecting overall completion.
func PrintProgress(w io.Writer, completed, total int, unit parallel.UnitResult) {
	icon := tm.Color("✔", tm.GREEN)
	if !unit.Result.Success {
		icon = tm.Color("✖", tm.RED)
	}
	fmt.Fprintf(w, "%s %s %d/%d  %s %s (%s)\n",
		progressBar(completed, total), icon, completed, total,
		shortRef(unit.InputRef), resultNote(unit), duration(unit.Duration))
}

// PrintSummary prints the final report of a parallel run in the given writer.
func PrintSummary(w io.Writer, summary parallel.Summary) {
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "Total:\t%d\n", summary.Total)
	fmt.Fprintf(tw, "Succeeded:\t%d\n", summary.Succeeded)
	fmt.Fprintf(tw, "Failed:\t%d\n", summary.Failed)
	fmt.Fprintf(tw, "Success rate:\t%0.1f%%\n", summary.SuccessRate())
	fmt.Fprintf(tw, "Duration:\t%s\n", duration(summary.CompletedAt.Sub(summary.StartedAt)))
	tw.Flush()

	if summary.Failed == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, tm.Color("Failures:", tm.RED))
	tw.Init(w, 0, 0, 2, ' ', 0)
	for _, unit := range summary.Results {
		if unit.Result.Success {
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\n", unit.InputRef, resultNote(unit))
	}
	tw.Flush()
}

func resultNote(unit parallel.UnitResult) string {
	if unit.Result.Success {
		if len(unit.Result.JobsRun) == 0 {
			return "no jobs run"
		}
		return fmt.Sprintf("%d job(s)", len(unit.Result.JobsRun))
	}
	if unit.Result.Err == nil {
		return "failed"
	}
	return unit.Result.Err.Error()
}

func shortRef(ref string) string {
	base := filepath.Base(ref)
	if base == "." || base == string(filepath.Separator) {
		return ref
	}
	return base
}

func progressBar(current, total int) string {
	value := progressBarWidth
	if total > 0 {
		value = (current * progressBarWidth) / total
	}
	buf := bytes.NewBuffer(make([]byte, 0, progressBarWidth))
	for i := 0; i < progressBarWidth; i++ {
		if i < value {
			fmt.Fprint(buf, progressBarChar)
		} else {
			fmt.Fprint(buf, progressBarPlaceholder)
		}
	}
	return buf.String()
}

func duration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d.Seconds() <= 60.0 {
		return fmt.Sprintf("%0.1fs", d.Seconds())
	} else if d.Minutes() <= 60.0 {
		m := int64(d.Minutes())
		s := math.Mod(d.Seconds(), 60)
		return fmt.Sprintf("%0.dm %0.0fs", m, s)
	} else {
		h := int64(d.Hours())
		m := int64(math.Mod(d.Minutes(), 60))
		s := math.Mod(d.Seconds(), 60)
		return fmt.Sprintf("%0.dh %0.dm %0.0fs", h, m, s)
	}
}
