package matrix

import "github.com/jbonatakis/reqmatrix/internal/location"

// Expansion tracks which tree nodes are expanded. Nodes start collapsed,
// except the synthetic root which starts expanded.
type Expansion struct {
	expanded map[string]bool
}

func NewExpansion() *Expansion {
	return &Expansion{expanded: map[string]bool{}}
}

func (e *Expansion) IsExpanded(id string) bool {
	if e == nil || e.expanded == nil {
		return id == location.RootID
	}
	expanded, ok := e.expanded[id]
	if !ok {
		return id == location.RootID
	}
	return expanded
}

func (e *Expansion) Toggle(id string) {
	e.Set(id, !e.IsExpanded(id))
}

func (e *Expansion) Set(id string, expanded bool) {
	if e.expanded == nil {
		e.expanded = map[string]bool{}
	}
	e.expanded[id] = expanded
}

// ExpandAll expands every node of h that has children.
func (e *Expansion) ExpandAll(h *location.Hierarchy) {
	for parentID := range h.Children {
		e.Set(parentID, true)
	}
}

// CollapseAll collapses everything below the root.
func (e *Expansion) CollapseAll() {
	e.expanded = map[string]bool{}
}

// ExpandLevel expands every node above the given level, so nodes down to
// that level become visible.
func (e *Expansion) ExpandLevel(h *location.Hierarchy, level int) {
	for parentID := range h.Children {
		if h.Depth[parentID] < level {
			e.Set(parentID, true)
		}
	}
}

// Row is one visible entry of the flattened tree.
type Row struct {
	Node     *location.Node
	Expanded bool
}

func (r Row) ID() string        { return r.Node.ID }
func (r Row) Level() int        { return r.Node.Level }
func (r Row) HasChildren() bool { return r.Node.HasChildren() }

// Flatten walks the tree depth-first and returns the visible rows in order: a
// node's children are emitted only when the node itself is expanded.
func Flatten(roots []*location.Node, e *Expansion) []Row {
	rows := make([]Row, 0)
	visited := map[string]bool{}
	for _, root := range roots {
		rows = appendVisible(rows, root, e, visited)
	}
	return rows
}

func appendVisible(rows []Row, n *location.Node, e *Expansion, visited map[string]bool) []Row {
	if n == nil || visited[n.ID] {
		return rows
	}
	visited[n.ID] = true
	expanded := e.IsExpanded(n.ID)
	rows = append(rows, Row{Node: n, Expanded: expanded})
	if !expanded {
		return rows
	}
	for _, child := range n.Children {
		rows = appendVisible(rows, child, e, visited)
	}
	return rows
}
