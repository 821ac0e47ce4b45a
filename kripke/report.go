package kripke

import (
	"fmt"
	"strings"
)

// GeneratePathTable generates a markdown table of covered paths
func GeneratePathTable(paths []PathStat) string {
	var sb strings.Builder
	sb.WriteString("| # | Path | Length | Completions |\n")
	sb.WriteString("|---|------|--------|-------------|\n")

	for i, st := range paths {
		sb.WriteString(fmt.Sprintf("| %d | %s | %d | %d |\n",
			i+1, st.Path.String(), len(st.Path), st.Count))
	}

	return sb.String()
}

// GenerateWalkSummary generates a markdown table summarizing a walk and the
// path metric's counters.
func GenerateWalkSummary(res WalkResult, totals PathTotals) string {
	var sb strings.Builder
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")

	rows := []struct {
		name  string
		value string
	}{
		{"run", res.RunID},
		{"steps", fmt.Sprint(res.Steps)},
		{"restarts", fmt.Sprint(res.Restarts)},
		{"coverage", fmt.Sprintf("%.0f", res.Coverage)},
		{"paths started", fmt.Sprint(totals.Started)},
		{"paths completed", fmt.Sprint(totals.Completed)},
		{"paths dropped", fmt.Sprint(totals.Dropped)},
		{"duration", res.Duration.String()},
	}
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", r.name, r.value))
	}

	return sb.String()
}
