// Package extract classifies crawled pages and pulls question/answer pairs
// out of support-article HTML.
//
// Classification is structural: article pages are recognised by URL shape,
// not content. Extraction reads the document title as the question and the
// text of a designated content container as the answer.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultArticlePattern matches the article-id path shape used by common
// helpdesk platforms (e.g. /support/solutions/articles/48001123456-title).
const DefaultArticlePattern = `/solutions/articles/\d+`

// DefaultContainerID is the element id holding the article body.
const DefaultContainerID = "article-body"

// Article is one question/answer pair extracted from a single page.
// Both fields must be non-empty for the article to be retained upstream.
type Article struct {
	Question string
	Answer   string
}

// Classifier decides whether a URL points at an article page.
type Classifier struct {
	pattern *regexp.Regexp
}

// NewClassifier compiles the article URL pattern. An empty pattern uses
// DefaultArticlePattern.
func NewClassifier(pattern string) (*Classifier, error) {
	if pattern == "" {
		pattern = DefaultArticlePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("extract: compile article pattern %q: %w", pattern, err)
	}
	return &Classifier{pattern: re}, nil
}

// IsArticle reports whether the URL has the article path shape.
func (c *Classifier) IsArticle(url string) bool {
	return c.pattern.MatchString(url)
}

// Extractor pulls title/body pairs out of article HTML.
type Extractor struct {
	containerID string
}

// NewExtractor creates an Extractor reading the body from the element with
// the given id. Empty id uses DefaultContainerID.
func NewExtractor(containerID string) *Extractor {
	if containerID == "" {
		containerID = DefaultContainerID
	}
	return &Extractor{containerID: containerID}
}

// Extract parses the page and returns its article, or nil when the page has
// no usable title or body. Parse failures on truncated markup are tolerated:
// the HTML parser always produces a tree.
func (e *Extractor) Extract(rawHTML string) *Article {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	question := findTitle(doc)
	answer := e.findBody(doc)
	if question == "" || answer == "" {
		return nil
	}
	return &Article{Question: question, Answer: answer}
}

// findTitle returns the trimmed <title> text.
func findTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			if n.FirstChild != nil {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

// findBody locates the content container and joins its text blocks with
// newlines, in document order.
func (e *Extractor) findBody(doc *html.Node) string {
	container := findByID(doc, e.containerID)
	if container == nil {
		return ""
	}

	var blocks []string
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		text := collectText(c)
		if text != "" {
			blocks = append(blocks, text)
		}
	}
	return strings.Join(blocks, "\n")
}

// findByID returns the first element with the given id attribute.
func findByID(doc *html.Node, id string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			for _, attr := range n.Attr {
				if attr.Key == "id" && attr.Val == id {
					found = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

// collectText extracts visible text from a node subtree with block-level
// whitespace collapsed to single spaces. Script, style and noscript content
// is skipped.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// Links returns all hyperlink targets found in the page, in document order.
// Targets are returned as written; the caller resolves them against the
// page URL.
func Links(rawHTML string) []string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	var hrefs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			for _, attr := range n.Attr {
				if attr.Key == "href" && attr.Val != "" {
					hrefs = append(hrefs, attr.Val)
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return hrefs
}
