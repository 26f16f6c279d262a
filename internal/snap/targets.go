package snap

// Tree is the hierarchy view GetSnapTargets needs.
type Tree interface {
	// ParentOf returns the id of the parent container, or false for
	// top-level nodes.
	ParentOf(id string) (string, bool)
	ChildrenOf(id string) []string
	RootChildren() []string
}

// GetSnapTargets returns the parents and siblings of every selected node,
// deduplicated and in discovery order, never including the selection.
func GetSnapTargets(selection []string, tree Tree) []string {
	selected := make(map[string]bool, len(selection))
	for _, id := range selection {
		selected[id] = true
	}

	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if selected[id] || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	for _, id := range selection {
		parent, ok := tree.ParentOf(id)
		var siblings []string
		if ok {
			add(parent)
			siblings = tree.ChildrenOf(parent)
		} else {
			siblings = tree.RootChildren()
		}
		for _, s := range siblings {
			add(s)
		}
	}
	return out
}
