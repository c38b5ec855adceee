package head

import (
	"strings"
	"testing"
)

func TestBuilder(t *testing.T) {
	b := New("Adept")
	b.SetTitle("Sign in")
	b.Meta("robots", "noindex")
	b.Meta("robots", "index") // ignored
	b.Link("icon", "/favicon.ico")

	out := string(b.HTML())
	if !strings.Contains(out, "<title>Sign in · Adept</title>") {
		t.Errorf("title missing: %s", out)
	}
	if strings.Count(out, `name="robots"`) != 1 || !strings.Contains(out, `content="noindex"`) {
		t.Errorf("meta not deduplicated: %s", out)
	}
	if !strings.Contains(out, `<link rel="icon" href="/favicon.ico">`) {
		t.Errorf("link missing: %s", out)
	}
}

func TestBuilderEscapes(t *testing.T) {
	b := New("")
	b.SetTitle(`<script>`)
	b.Meta("description", `"quoted"`)
	out := string(b.HTML())
	if strings.Contains(out, "<script>") || strings.Contains(out, `""quoted""`) {
		t.Errorf("unescaped output: %s", out)
	}
	if b.Title() != "<script>" {
		t.Errorf("Title without site = %q", b.Title())
	}
}
