package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestLayoutClampsAndSizesContent(t *testing.T) {
	l := NewLayout(5, 1)
	if l.Width != minWidth || l.Height != minHeight {
		t.Errorf("clamped = %dx%d", l.Width, l.Height)
	}

	l = NewLayout(80, 24)
	if l.ContentHeight() != 22 || l.ContentWidth() != 80 {
		t.Errorf("content = %dx%d, want 80x22", l.ContentWidth(), l.ContentHeight())
	}
}

func TestFrameKeepsStatusBarOnLastRow(t *testing.T) {
	l := NewLayout(40, 8)
	out := l.Frame(
		l.Header("Console", "● open", "3"),
		strings.Repeat("row\n", 20),
		l.StatusBar("q quit", false),
	)

	lines := strings.Split(out, "\n")
	if len(lines) != 8 {
		t.Fatalf("frame has %d rows, want 8", len(lines))
	}
	if !strings.Contains(lines[len(lines)-1], "q quit") {
		t.Errorf("last row = %q", lines[len(lines)-1])
	}
	if w := lipgloss.Width(lines[0]); w != 40 {
		t.Errorf("header width = %d, want 40", w)
	}
	if !strings.Contains(lines[0], "Console") || !strings.Contains(lines[0], "● open 3") {
		t.Errorf("header = %q", lines[0])
	}
}
