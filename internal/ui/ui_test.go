package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestShouldUseColor_Env(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("CLICOLOR_FORCE", "1")
	if ShouldUseColor() {
		t.Error("NO_COLOR should win")
	}

	t.Setenv("NO_COLOR", "")
	if !ShouldUseColor() {
		t.Error("CLICOLOR_FORCE should enable colour")
	}
}

func TestRender_PlainProfile(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	if got := RenderPass("ok"); got != "ok" {
		t.Errorf("RenderPass() = %q", got)
	}
	if got := RenderTags([]string{"Intel", "Golf"}); got != "Intel, Golf" {
		t.Errorf("RenderTags() = %q", got)
	}
	if got := RenderTags(nil); got != "(untagged)" {
		t.Errorf("RenderTags(nil) = %q", got)
	}
}

func TestTable(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	out := Table([]string{"NAME", "TAGS"}, [][]string{
		{"Jane Smith Intel", "Intel, Software Engineering"},
		{"Bob", ""},
	})
	for _, want := range []string{"NAME", "TAGS", "Jane Smith Intel", "Intel, Software Engineering", "Bob"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "NAME") > strings.Index(out, "Jane") {
		t.Error("header should come first")
	}
}
