// Package exporter writes the profile bookmark tree as a Netscape bookmark
// file.
package exporter

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/storage"
)

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/bookmarks-export-YYYY-MM-DD.html
func DefaultExportPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("bookmarks-export-%s.html", time.Now().Format("2006-01-02"))
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML renders a bookmark forest as returned by
// storage.Profile.BookmarkTree. The bookmarks bar becomes the toolbar
// folder; the contents of Other Bookmarks are written at the top level.
func ExportHTML(roots []model.BookmarkNode) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>Bookmarks</TITLE>\n")
	b.WriteString("<H1>Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")

	for _, root := range roots {
		switch root.ID {
		case storage.BookmarksBarID:
			writeFolder(&b, root, 1, ` PERSONAL_TOOLBAR_FOLDER="true"`)
		case storage.OtherBookmarksID:
			writeItems(&b, root.Children, 1)
		default:
			writeItems(&b, []model.BookmarkNode{root}, 1)
		}
	}

	b.WriteString("</DL><p>\n")
	return b.String()
}

func writeItems(b *strings.Builder, nodes []model.BookmarkNode, indent int) {
	prefix := strings.Repeat("    ", indent)

	for _, n := range nodes {
		if n.IsFolder() {
			writeFolder(b, n, indent, "")
			continue
		}
		fmt.Fprintf(b,
			"%s<DT><A HREF=\"%s\" ADD_DATE=\"%d\">%s</A>\n",
			prefix,
			html.EscapeString(n.URL),
			n.CreatedAt.Unix(),
			html.EscapeString(n.Title),
		)
	}
}

func writeFolder(b *strings.Builder, folder model.BookmarkNode, indent int, attrs string) {
	prefix := strings.Repeat("    ", indent)

	fmt.Fprintf(b, "%s<DT><H3 ADD_DATE=\"%d\"%s>%s</H3>\n",
		prefix, folder.CreatedAt.Unix(), attrs, html.EscapeString(folder.Title))
	fmt.Fprintf(b, "%s<DL><p>\n", prefix)
	writeItems(b, folder.Children, indent+1)
	fmt.Fprintf(b, "%s</DL><p>\n", prefix)
}
