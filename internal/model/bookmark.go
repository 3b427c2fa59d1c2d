package model

import "time"

// BookmarkNode is a node of the browser bookmark tree.
// Folders have an empty URL and may have Children.
type BookmarkNode struct {
	ID        string         `json:"id"`
	ParentID  *string        `json:"parentId"` // nil = root level
	Title     string         `json:"title"`
	URL       string         `json:"url,omitempty"`
	Position  int            `json:"position"`
	CreatedAt time.Time      `json:"createdAt"`
	Children  []BookmarkNode `json:"children,omitempty"`
}

// NewBookmarkParams holds parameters for creating a new bookmark or folder.
type NewBookmarkParams struct {
	Title    string
	URL      string
	ParentID *string
}

// NewBookmark creates a BookmarkNode with generated UUID and timestamp.
// Leave URL empty to create a folder.
func NewBookmark(params NewBookmarkParams) BookmarkNode {
	return BookmarkNode{
		ID:        GenerateUUID(),
		ParentID:  params.ParentID,
		Title:     params.Title,
		URL:       params.URL,
		CreatedAt: time.Now(),
	}
}

// IsFolder reports whether the node is a folder.
func (n BookmarkNode) IsFolder() bool {
	return n.URL == ""
}

// Walk calls fn for n and every descendant, depth first.
// Returning false from fn skips the node's children.
func (n BookmarkNode) Walk(fn func(BookmarkNode) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the first node (n included) with the given ID.
func (n *BookmarkNode) Find(id string) *BookmarkNode {
	if n.ID == id {
		return n
	}
	for i := range n.Children {
		if found := n.Children[i].Find(id); found != nil {
			return found
		}
	}
	return nil
}

// BuildTree assembles flat nodes into a forest using ParentID.
// Nodes whose parent is missing become roots. Children keep input order.
func BuildTree(nodes []BookmarkNode) []BookmarkNode {
	children := make(map[string][]int)
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}

	var roots []int
	for i, n := range nodes {
		if n.ParentID == nil || !ids[*n.ParentID] {
			roots = append(roots, i)
			continue
		}
		children[*n.ParentID] = append(children[*n.ParentID], i)
	}

	var build func(i int, depth int) BookmarkNode
	build = func(i int, depth int) BookmarkNode {
		n := nodes[i]
		n.Children = nil
		// guards against parent cycles in corrupt input
		if depth > len(nodes) {
			return n
		}
		for _, c := range children[n.ID] {
			n.Children = append(n.Children, build(c, depth+1))
		}
		return n
	}

	forest := make([]BookmarkNode, 0, len(roots))
	for _, r := range roots {
		forest = append(forest, build(r, 0))
	}
	return forest
}
