package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/zulandar/signalbox/internal/models"
	"golang.org/x/term"
)

// ANSI colours used for terminal output.
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiBlue   = "\033[34m"
	ansiPurple = "\033[35m"
)

// colorEnabled reports whether w is a terminal that should get colour.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// painter wraps text in ANSI codes when enabled.
type painter bool

func (p painter) paint(code, s string) string {
	if !p {
		return s
	}
	return code + s + ansiReset
}

func authorColor(a models.Author) string {
	switch a {
	case models.AuthorController:
		return ansiGreen
	case models.AuthorAI:
		return ansiPurple
	default:
		return ansiBlue
	}
}

// printEntries writes audit entries one per line, newest first as given.
func printEntries(w io.Writer, entries []models.AuditLogEntry) {
	p := painter(colorEnabled(w))
	for _, e := range entries {
		ts := time.UnixMilli(e.Timestamp).Format("2006-01-02 15:04:05")
		author := p.paint(authorColor(e.Author), "["+string(e.Author)+"]")
		fmt.Fprintf(w, "%s  %s %s\n", ts, author, e.Message)
	}
}

// printAnalysis writes the strategies of a scenario analysis.
func printAnalysis(w io.Writer, scenario string, a models.ScenarioAnalysis) {
	p := painter(colorEnabled(w))
	fmt.Fprintf(w, "%s\n\n", p.paint(ansiBold, "Scenario: "+scenario))
	for i, s := range a.Strategies {
		fmt.Fprintf(w, "%d. %s\n", i+1, p.paint(ansiBold, s.Title))
		fmt.Fprintf(w, "   %s\n", wrap(s.Description, 76, "   "))
		for _, pro := range s.Pros {
			fmt.Fprintf(w, "   %s %s\n", p.paint(ansiGreen, "+"), pro)
		}
		for _, con := range s.Cons {
			fmt.Fprintf(w, "   %s %s\n", p.paint(ansiRed, "-"), con)
		}
		fmt.Fprintln(w)
	}
}

// wrap breaks s into lines of at most width runes, prefixing continuation
// lines with indent.
func wrap(s string, width int, indent string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	line := 0
	for i, w := range words {
		if i > 0 {
			if line+1+len(w) > width {
				b.WriteString("\n" + indent)
				line = 0
			} else {
				b.WriteByte(' ')
				line++
			}
		}
		b.WriteString(w)
		line += len(w)
	}
	return b.String()
}
