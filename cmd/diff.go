package cmd

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/zedseven/vanilla/internal/charm/styles"
)

// diffContext is the number of unchanged lines shown around each change.
const diffContext = 3

type diffLine struct {
	Op   diffmatchpatch.Operation
	Text string
}

// lineDiff compares two documents line by line, ignoring line ending style.
func lineDiff(before, after []byte) []diffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(normalizeNewlines(before), normalizeNewlines(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []diffLine
	for _, d := range diffs {
		for _, text := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out = append(out, diffLine{Op: d.Type, Text: text})
		}
	}
	return out
}

func normalizeNewlines(b []byte) string {
	return strings.ReplaceAll(string(b), "\r\n", "\n")
}

// renderDiff formats lines as a unified-style listing, collapsing long runs of
// unchanged lines. It returns "" when nothing changed.
func renderDiff(lines []diffLine) string {
	changed := make([]bool, len(lines))
	anyChange := false
	for i, line := range lines {
		if line.Op != diffmatchpatch.DiffEqual {
			changed[i] = true
			anyChange = true
		}
	}
	if !anyChange {
		return ""
	}

	near := func(i int) bool {
		for j := max(0, i-diffContext); j <= min(len(lines)-1, i+diffContext); j++ {
			if changed[j] {
				return true
			}
		}
		return false
	}

	var sb strings.Builder
	skipping := false
	for i, line := range lines {
		if !near(i) {
			if !skipping {
				sb.WriteString(styles.Dimmed.Render("  ...") + "\n")
				skipping = true
			}
			continue
		}
		skipping = false

		switch line.Op {
		case diffmatchpatch.DiffInsert:
			sb.WriteString(styles.Added.Render("+ " + line.Text))
		case diffmatchpatch.DiffDelete:
			sb.WriteString(styles.Removed.Render("- " + line.Text))
		default:
			sb.WriteString(styles.Dimmed.Render("  " + line.Text))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
