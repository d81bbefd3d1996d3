package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"modtriage/internal/model"
)

// skipTags are elements whose subtrees carry no mod description content.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"noscript": true,
	"iframe":   true,
}

// ParseContent turns an HTML document into plain text plus ordered image
// references. Image URLs are resolved against the page URL; og:image meta
// tags come first, then document order.
func ParseContent(htmlSource, pageURL string) (*model.ExtractedContent, error) {
	doc, err := html.Parse(strings.NewReader(htmlSource))
	if err != nil {
		return nil, err
	}

	base, _ := url.Parse(pageURL)

	var sb strings.Builder
	var ogImages, images []string
	seen := make(map[string]bool)

	addImage := func(list *[]string, ref string) {
		ref = strings.TrimSpace(ref)
		if ref == "" || strings.HasPrefix(ref, "data:") {
			return
		}
		if base != nil {
			if resolved, err := url.Parse(ref); err == nil {
				ref = base.ResolveReference(resolved).String()
			}
		}
		if !seen[ref] {
			seen[ref] = true
			*list = append(*list, ref)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipTags[n.Data] {
				return
			}
			switch n.Data {
			case "img":
				addImage(&images, attr(n, "src"))
			case "meta":
				if prop := attr(n, "property"); prop == "og:image" || prop == "og:image:url" {
					addImage(&ogImages, attr(n, "content"))
				}
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteByte(' ')
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "br", "tr":
				sb.WriteByte('\n')
			}
		}
	}
	walk(doc)

	text := collapseWhitespace(sb.String())

	return &model.ExtractedContent{
		Text:   text,
		Images: append(ogImages, images...),
	}, nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// collapseWhitespace squeezes runs of spaces while keeping line breaks, so
// the block structure of the page survives for the prompt.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
