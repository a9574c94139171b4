package location

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Hierarchy is a location forest rooted under the synthetic ALL node, plus
// the lookup indices propagation needs. A built Hierarchy is never mutated.
type Hierarchy struct {
	Root *Node
	// Parent maps every location id to its parent id; top-level ids map to RootID.
	Parent map[string]string
	// Children maps a parent id (including RootID) to its ordered child ids.
	Children map[string][]string
	// Depth maps every id to its level; RootID is 0.
	Depth map[string]int
	// Skipped counts null, id-less, reserved-id and duplicate records.
	Skipped int
	// Err is a human readable message set when any record failed processing.
	Err string
	// Failures holds the per-record processing errors behind Err.
	Failures []error

	nodes map[string]*Node
}

// Namer derives a display name for a location record.
type Namer func(Location) (string, error)

type BuildOptions struct {
	Namer Namer
}

// Build derives the hierarchy from a flat location list using DisplayName.
func Build(records []*Location) *Hierarchy {
	return BuildWith(records, BuildOptions{})
}

// BuildWith derives the hierarchy from a flat location list. Records that are
// nil, lack an id, reuse the reserved root id or repeat an earlier id are
// skipped. A record whose processing fails (namer error or panic) is dropped
// and Err is set; the rest of the hierarchy is still built. Parent references
// that do not resolve, or that would close a cycle, attach the node under the
// root. Top-level locations are ordered by case-insensitive name; deeper
// levels keep source order.
func BuildWith(records []*Location, opts BuildOptions) *Hierarchy {
	namer := opts.Namer
	if namer == nil {
		namer = DisplayName
	}

	h := &Hierarchy{
		Parent:   map[string]string{},
		Children: map[string][]string{},
		Depth:    map[string]int{RootID: LevelAll},
		nodes:    map[string]*Node{},
	}
	root := &Node{ID: RootID, Name: RootName, Level: LevelAll}
	h.Root = root
	h.nodes[RootID] = root

	order := make([]string, 0, len(records))
	declared := map[string]string{}
	for _, rec := range records {
		if rec == nil {
			h.Skipped++
			continue
		}
		id := strings.TrimSpace(rec.ID)
		if id == "" || id == RootID {
			h.Skipped++
			continue
		}
		if _, ok := h.nodes[id]; ok {
			h.Skipped++
			continue
		}
		node, err := indexRecord(*rec, id, namer)
		if err != nil {
			h.Failures = append(h.Failures, err)
			continue
		}
		h.nodes[id] = node
		declared[id] = parentOf(*rec)
		order = append(order, id)
	}
	if len(h.Failures) > 0 {
		h.Err = ErrProcessLocationsMessage
	}

	for _, id := range order {
		parentID := declared[id]
		if parentID == "" || parentID == id || parentID == RootID {
			parentID = RootID
		} else if _, ok := h.nodes[parentID]; !ok {
			parentID = RootID
		}
		h.Parent[id] = parentID
	}
	breakCycles(order, h.Parent)

	for _, id := range order {
		parentID := h.Parent[id]
		h.Children[parentID] = append(h.Children[parentID], id)
	}
	sortTopLevel(h.Children[RootID], h.nodes)

	link(h, root, LevelAll)
	return h
}

func indexRecord(rec Location, id string, namer Namer) (node *Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			node = nil
			err = fmt.Errorf("location %q: %v", id, r)
		}
	}()
	name, err := namer(rec)
	if err != nil {
		return nil, fmt.Errorf("location %q: %w", id, err)
	}
	return &Node{ID: id, Name: name}, nil
}

// breakCycles re-parents under the root the first node of every parent cycle
// encountered in source order.
func breakCycles(order []string, parent map[string]string) {
	for _, id := range order {
		seen := map[string]bool{id: true}
		cur := parent[id]
		for cur != RootID {
			if cur == id {
				parent[id] = RootID
				break
			}
			if seen[cur] {
				break
			}
			seen[cur] = true
			cur = parent[cur]
		}
	}
}

func sortTopLevel(ids []string, nodes map[string]*Node) {
	fold := cases.Fold()
	keys := make(map[string]string, len(ids))
	for _, id := range ids {
		keys[id] = fold.String(nodes[id].Name)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := keys[ids[i]], keys[ids[j]]
		if a != b {
			return a < b
		}
		return ids[i] < ids[j]
	})
}

func link(h *Hierarchy, node *Node, level int) {
	node.Level = level
	h.Depth[node.ID] = level
	childIDs := h.Children[node.ID]
	if len(childIDs) == 0 {
		return
	}
	node.Children = make([]*Node, 0, len(childIDs))
	for _, childID := range childIDs {
		child := h.nodes[childID]
		child.ParentID = node.ID
		node.Children = append(node.Children, child)
		link(h, child, level+1)
	}
}

// Roots returns the single-element slice holding the synthetic root.
func (h *Hierarchy) Roots() []*Node {
	return []*Node{h.Root}
}

func (h *Hierarchy) Node(id string) (*Node, bool) {
	n, ok := h.nodes[id]
	return n, ok
}

func (h *Hierarchy) Contains(id string) bool {
	_, ok := h.nodes[id]
	return ok
}

// Len is the number of real locations, excluding the root.
func (h *Hierarchy) Len() int {
	return len(h.nodes) - 1
}

// TopLevel returns the ordered ids of the root's children.
func (h *Hierarchy) TopLevel() []string {
	return h.Children[RootID]
}

// Descendants returns every id below id in depth-first pre-order.
func (h *Hierarchy) Descendants(id string) []string {
	var out []string
	var walk func(string)
	walk = func(cur string) {
		for _, childID := range h.Children[cur] {
			out = append(out, childID)
			walk(childID)
		}
	}
	walk(id)
	return out
}

// Ancestors returns the ids above id, nearest first, ending with RootID.
func (h *Hierarchy) Ancestors(id string) []string {
	var out []string
	cur, ok := h.Parent[id]
	for ok {
		out = append(out, cur)
		if cur == RootID {
			break
		}
		cur, ok = h.Parent[cur]
	}
	return out
}

// IDs returns every location id in depth-first pre-order, root first.
func (h *Hierarchy) IDs() []string {
	return append([]string{RootID}, h.Descendants(RootID)...)
}
