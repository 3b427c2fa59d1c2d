package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/spotlight/internal/culler"
	"github.com/nikbrunner/spotlight/internal/exporter"
	"github.com/nikbrunner/spotlight/internal/importer"
	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/storage"
	"github.com/nikbrunner/spotlight/internal/urlnorm"
)

var (
	bookmarkFolder  string
	checkRemove     bool
	checkExclude    []string
	checkConcurrent int
)

var bookmarksCmd = &cobra.Command{
	Use:     "bookmarks",
	Aliases: []string{"bm"},
	Short:   "Import, export and add bookmarks",
	GroupID: groupData,
}

var bookmarksImportCmd = &cobra.Command{
	Use:   "import <file.html>",
	Short: "Import bookmarks from a browser's HTML export",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var bookmarksExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export bookmarks to HTML (default ~/Downloads/bookmarks-export-DATE.html)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var bookmarksAddCmd = &cobra.Command{
	Use:   "add <title> <url>",
	Short: "Add a bookmark",
	Args:  cobra.ExactArgs(2),
	RunE:  runAddBookmark,
}

var bookmarksCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Find bookmarks whose pages are gone",
	Long: `Request every bookmarked URL and list those answering 404 or 410.

Examples:
  spotlight bookmarks check                        # report only
  spotlight bookmarks check --exclude github.com   # 404 there means private
  spotlight bookmarks check --remove               # delete dead bookmarks`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	bookmarksCheckCmd.Flags().BoolVar(&checkRemove, "remove", false, "remove dead bookmarks")
	bookmarksCheckCmd.Flags().StringSliceVar(&checkExclude, "exclude", nil, "domains where 404 means private, not dead")
	bookmarksCheckCmd.Flags().IntVarP(&checkConcurrent, "concurrency", "c", culler.DefaultConcurrency, "parallel requests")
	bookmarksAddCmd.Flags().StringVarP(&bookmarkFolder, "folder", "f", "", "folder id or title (default Other Bookmarks)")

	bookmarksCmd.AddCommand(bookmarksImportCmd)
	bookmarksCmd.AddCommand(bookmarksExportCmd)
	bookmarksCmd.AddCommand(bookmarksAddCmd)
	bookmarksCmd.AddCommand(bookmarksCheckCmd)

	rootCmd.AddCommand(bookmarksCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	nodes, err := importer.ParseHTMLBookmarks(file, importer.Options{ToolbarID: storage.BookmarksBarID})
	if err != nil {
		return fmt.Errorf("parse HTML: %w", err)
	}

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	a.spaces.BeginImport()
	added, skipped, err := a.profile.ImportBookmarks(ctx, nodes)
	if endErr := a.spaces.EndImport(ctx); endErr != nil {
		a.logger.Warn("invalidate collections after import", "error", endErr)
	}
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	folders := 0
	for _, n := range nodes {
		if n.IsFolder() {
			folders++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d bookmarks, %d folders", added, folders)
	if skipped > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (%d duplicates skipped)", skipped)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	var outputPath string
	if len(args) > 0 {
		outputPath = args[0]
	} else {
		var err error
		outputPath, err = exporter.DefaultExportPath()
		if err != nil {
			return fmt.Errorf("get default export path: %w", err)
		}
	}

	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	tree, err := a.profile.BookmarkTree(cmd.Context())
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, []byte(exporter.ExportHTML(tree)), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	bookmarks, folders := 0, 0
	for _, root := range tree {
		root.Walk(func(n model.BookmarkNode) bool {
			if n.IsFolder() {
				folders++
			} else {
				bookmarks++
			}
			return true
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d bookmarks, %d folders to %s\n", bookmarks, folders, outputPath)
	return nil
}

func runAddBookmark(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	parentID := storage.OtherBookmarksID
	if bookmarkFolder != "" {
		parentID, err = resolveFolder(cmd, a.profile, bookmarkFolder)
		if err != nil {
			return err
		}
	}

	node := model.NewBookmark(model.NewBookmarkParams{
		Title:    args[0],
		URL:      urlnorm.EnsureScheme(args[1]),
		ParentID: &parentID,
	})
	if err := a.profile.AddBookmark(ctx, node); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", node.URL)
	return nil
}

// resolveFolder accepts a folder id or an exact folder title.
func resolveFolder(cmd *cobra.Command, profile *storage.Profile, folder string) (string, error) {
	ctx := cmd.Context()
	node, err := profile.BookmarkSubtree(ctx, folder)
	if err == nil {
		if !node.IsFolder() {
			return "", fmt.Errorf("%s is not a folder", folder)
		}
		return node.ID, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}

	folders, err := profile.FindBookmarkFolders(ctx, folder)
	if err != nil {
		return "", err
	}
	if len(folders) == 0 {
		return "", fmt.Errorf("folder %q: %w", folder, storage.ErrNotFound)
	}
	return folders[0].ID, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	bookmarks, err := a.profile.SearchBookmarks(ctx, "")
	if err != nil {
		return err
	}
	if len(bookmarks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No bookmarks.")
		return nil
	}

	errOut := cmd.ErrOrStderr()
	progress := isTerminal(errOut)
	results := culler.Check(ctx, bookmarks, culler.Options{
		Concurrency:    checkConcurrent,
		ExcludeDomains: checkExclude,
		OnProgress: func(completed, total int) {
			if progress {
				fmt.Fprintf(errOut, "\rChecked %d/%d", completed, total)
			}
		},
	})
	if progress {
		fmt.Fprintln(errOut)
	}

	out := cmd.OutOrStdout()
	dead, unreachable := 0, 0
	for _, r := range results {
		switch r.Status {
		case culler.Dead:
			dead++
			fmt.Fprintf(out, "dead         %d  %s  %s\n", r.StatusCode, r.Bookmark.Title, r.Bookmark.URL)
			if checkRemove {
				if err := a.profile.RemoveBookmark(ctx, r.Bookmark.ID); err != nil {
					return fmt.Errorf("remove %s: %w", r.Bookmark.URL, err)
				}
			}
		case culler.Unreachable:
			unreachable++
			fmt.Fprintf(out, "unreachable  %s  %s  (%s)\n", r.Bookmark.Title, r.Bookmark.URL, r.Error)
		}
	}

	verb := "found"
	if checkRemove {
		verb = "removed"
	}
	fmt.Fprintf(out, "Checked %d bookmarks: %d dead %s, %d unreachable\n", len(results), dead, verb, unreachable)
	return nil
}
