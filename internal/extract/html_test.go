package extract

import (
	"strings"
	"testing"
)

func TestParseContent_Text(t *testing.T) {
	src := `<html>
	<head>
		<title>Night Sky</title>
		<script>var tracking = true;</script>
		<style>.x { color: red }</style>
	</head>
	<body>
		<nav>Home | Mods | About</nav>
		<h1>Night Sky</h1>
		<p>Adds  realistic   stars to the night.</p>
		<p>Requires the base game only.</p>
		<footer>Copyright</footer>
	</body>
	</html>`

	content, err := ParseContent(src, "https://example.com/mods/night-sky")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if !strings.Contains(content.Text, "Adds realistic stars to the night.") {
		t.Errorf("paragraph text missing or not collapsed: %q", content.Text)
	}
	if !strings.Contains(content.Text, "Night Sky") {
		t.Errorf("heading missing: %q", content.Text)
	}
	for _, noise := range []string{"tracking", "color: red", "Home | Mods", "Copyright"} {
		if strings.Contains(content.Text, noise) {
			t.Errorf("skipped element leaked into text: %q", noise)
		}
	}

	// Block elements produce line breaks
	if !strings.Contains(content.Text, "\n") {
		t.Error("block structure lost")
	}
}

func TestParseContent_Images(t *testing.T) {
	src := `<html>
	<head>
		<meta property="og:image" content="https://cdn.example.com/hero.png">
	</head>
	<body>
		<img src="/shots/one.png">
		<img src="/shots/one.png">
		<img src="data:image/png;base64,AAAA">
		<img src="https://cdn.example.com/two.jpg">
	</body>
	</html>`

	content, err := ParseContent(src, "https://example.com/mods/night-sky")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	want := []string{
		"https://cdn.example.com/hero.png",
		"https://example.com/shots/one.png",
		"https://cdn.example.com/two.jpg",
	}
	if len(content.Images) != len(want) {
		t.Fatalf("images = %v, want %v", content.Images, want)
	}
	for i := range want {
		if content.Images[i] != want[i] {
			t.Errorf("image %d = %q, want %q", i, content.Images[i], want[i])
		}
	}
}

func TestParseContent_EmptyDocument(t *testing.T) {
	content, err := ParseContent("<html><body><script>x()</script></body></html>", "https://example.com")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if content.Text != "" {
		t.Errorf("expected empty text, got %q", content.Text)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	in := "  one   two  \n\n\n three\n   \n four  "
	want := "one two\nthree\nfour"
	if got := collapseWhitespace(in); got != want {
		t.Errorf("collapseWhitespace = %q, want %q", got, want)
	}
}
