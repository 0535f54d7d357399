package tabular

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ReadHTMLTable extracts the first <table> in the document as a row
// grid, one row per <tr>, one cell per <td> or <th>. Some upstream
// publishers export their matrices as HTML pages rather than CSV; the
// result feeds DetectLayout exactly like CSV rows do.
func ReadHTMLTable(r io.Reader) ([][]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	table := findElement(doc, "table")
	if table == nil {
		return nil, fmt.Errorf("no <table> element found")
	}

	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				collectCells(c, &row)
			}
			rows = append(rows, row)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows, nil
}

func collectCells(n *html.Node, row *[]string) {
	if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
		*row = append(*row, textContent(n))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectCells(c, row)
	}
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
