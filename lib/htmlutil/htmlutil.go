package htmlutil

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("wikibot.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, buffer)
	}
}

var innerSpaces = regexp.MustCompile(`[ \t]+`)
var blankLines = regexp.MustCompile(`\n\s*\n+`)

func removeNonPrintable(s string) string {
	var sb strings.Builder
	for _, c := range s {
		if c == '\n' || unicode.IsPrint(c) {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// CleanText drops non printable characters, collapses runs of spaces and
// keeps at most one blank line between paragraphs.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = innerSpaces.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Anchor is a link to another wiki page found in rendered html.
type Anchor struct {
	Name  string
	Title string
	Href  string
}

// WikiLinks collects the internal page links of a rendered page. Red links
// (pages that do not exist yet) and links to other sites are skipped.
func WikiLinks(ctx context.Context, sel *goquery.Selection) []Anchor {
	_, span := tracer.Start(ctx, "WikiLinks")
	defer span.End()

	anchors := []Anchor{}
	sel.Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || a.HasClass("new") || a.HasClass("external") {
			return
		}
		link, err := url.Parse(href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
			return
		}
		if link.Host != "" || !strings.HasPrefix(link.Path, "/wiki/") {
			return
		}

		title, _ := a.Attr("title")
		if title == "" {
			title = strings.ReplaceAll(strings.TrimPrefix(link.Path, "/wiki/"), "_", " ")
		}
		name := CleanText(GetText(a.Nodes[0]))

		anchors = append(anchors, Anchor{
			Name:  name,
			Title: title,
			Href:  link.String(),
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("title", title),
			attribute.String("url", link.String()),
		))
	})

	return anchors
}
