// Package importer reads Netscape bookmark files as exported by browsers.
package importer

import (
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/nikbrunner/spotlight/internal/model"
)

// Options configures parsing.
type Options struct {
	// ToolbarID, when set, is used as the parent of everything inside the
	// folder marked PERSONAL_TOOLBAR_FOLDER; the folder itself is dropped.
	ToolbarID string
}

// ParseHTMLBookmarks parses Netscape bookmark HTML into flat nodes with
// fresh IDs. Parents always precede their children. Top-level nodes have a
// nil ParentID.
func ParseHTMLBookmarks(r io.Reader, opts Options) ([]model.BookmarkNode, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var nodes []model.BookmarkNode

	// Track current folder stack for hierarchy
	var folderStack []*string // nil = root
	var pending *string       // folder waiting to be pushed on the next DL
	var pendingSet bool

	parent := func() *string {
		if len(folderStack) == 0 {
			return nil
		}
		return folderStack[len(folderStack)-1]
	}

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				name := getTextContent(n)
				if name == "" {
					return
				}
				if opts.ToolbarID != "" && strings.EqualFold(getAttr(n, "personal_toolbar_folder"), "true") {
					id := opts.ToolbarID
					pending, pendingSet = &id, true
					return
				}

				folder := model.NewBookmark(model.NewBookmarkParams{
					Title:    name,
					ParentID: parent(),
				})
				folder.CreatedAt = addDate(n, folder.CreatedAt)
				nodes = append(nodes, folder)

				id := folder.ID
				pending, pendingSet = &id, true
				return // Don't recurse into H3

			case "a":
				href := strings.TrimSpace(getAttr(n, "href"))
				if href == "" {
					return
				}
				title := getTextContent(n)
				if title == "" {
					title = href
				}

				bookmark := model.NewBookmark(model.NewBookmarkParams{
					Title:    title,
					URL:      href,
					ParentID: parent(),
				})
				bookmark.CreatedAt = addDate(n, bookmark.CreatedAt)
				nodes = append(nodes, bookmark)
				return

			case "dl":
				pushed := false
				if pendingSet {
					folderStack = append(folderStack, pending)
					pending, pendingSet = nil, false
					pushed = true
				}

				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}

				if pushed {
					folderStack = folderStack[:len(folderStack)-1]
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	return nodes, nil
}

// addDate returns the node's ADD_DATE (unix seconds), or fallback.
func addDate(n *html.Node, fallback time.Time) time.Time {
	if v := getAttr(n, "add_date"); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil && ts > 0 {
			return time.Unix(ts, 0)
		}
	}
	return fallback
}

func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
	}
	return ""
}
