package htmlutil

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Tags whose entire subtree is dropped from stored content
var blockedTags = map[string]bool{
	"script": true,
	"style":  true,
	"iframe": true,
	"object": true,
	"embed":  true,
	"form":   true,
	"meta":   true,
	"base":   true,
	"link":   true,
}

// Sanitize cleans untrusted HTML before it is stored as page or assignment
// content. Script-bearing elements are removed entirely, event handler
// attributes are stripped, and javascript: URLs are dropped. The result is
// re-rendered markup, so malformed input also comes out normalized.
func Sanitize(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", nil
	}

	body := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}

	nodes, err := html.ParseFragment(strings.NewReader(input), body)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, n := range nodes {
		if n.Type == html.ElementNode && blockedTags[n.Data] {
			continue
		}
		clean(n)
		if err := html.Render(&sb, n); err != nil {
			return "", err
		}
	}

	return sb.String(), nil
}

// clean scrubs a node's attributes and removes blocked children in place
func clean(n *html.Node) {
	if n.Type == html.ElementNode {
		attrs := n.Attr[:0]
		for _, attr := range n.Attr {
			if strings.HasPrefix(strings.ToLower(attr.Key), "on") {
				continue
			}
			if (attr.Key == "href" || attr.Key == "src" || attr.Key == "action") && unsafeURL(attr.Val) {
				continue
			}
			attrs = append(attrs, attr)
		}
		n.Attr = attrs
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && blockedTags[c.Data] {
			n.RemoveChild(c)
		} else {
			clean(c)
		}
		c = next
	}
}

// unsafeURL reports whether a URL value smuggles executable content
func unsafeURL(val string) bool {
	cleaned := make([]rune, 0, len(val))
	for _, r := range strings.ToLower(val) {
		if r > ' ' {
			cleaned = append(cleaned, r)
		}
	}
	v := string(cleaned)
	return strings.HasPrefix(v, "javascript:") ||
		strings.HasPrefix(v, "vbscript:") ||
		strings.HasPrefix(v, "data:text/html")
}
