package document

import (
	"fmt"
	"maps"
	"slices"

	"github.com/driftboard/canvas/backend-go/internal/typeid"
)

// ExtractSubtree packs ids and all of their descendants. Ids nested inside
// another requested id are carried by their ancestor and do not become
// top-level entries. The packed top-level nodes have no parent.
func (d *Document) ExtractSubtree(ids ...string) (*PackedScene, error) {
	p := &PackedScene{Nodes: map[string]*Node{}, Scene: PackedRefs{ChildrenRefs: []string{}}}
	for _, id := range ids {
		if !d.Has(id) {
			return nil, fmt.Errorf("%s: %w", id, ErrNodeNotFound)
		}
	}
	for _, id := range ids {
		if _, packed := p.Nodes[id]; packed || slices.ContainsFunc(ids, func(a string) bool { return d.IsDescendant(id, a) }) {
			continue
		}
		for _, x := range d.Subtree(id) {
			c, err := cloneNode(d.Nodes[x])
			if err != nil {
				return nil, err
			}
			p.Nodes[x] = c
		}
		p.Nodes[id].Parent = nil
		p.Scene.ChildrenRefs = append(p.Scene.ChildrenRefs, id)
	}
	return p, nil
}

// Validate checks that p is self-contained. Every reference must resolve
// inside p and every node must be referenced once, pass its type checks and
// be reachable from the top-level refs.
func (p *PackedScene) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil", ErrPackedSceneNotValid)
	}
	seen := make(map[string]bool, len(p.Nodes))
	ref := func(id string) error {
		if _, ok := p.Nodes[id]; !ok {
			return fmt.Errorf("%w: %s: %w", ErrPackedSceneNotValid, id, ErrDanglingReference)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s: %w", ErrPackedSceneNotValid, id, ErrMultipleParents)
		}
		seen[id] = true
		return nil
	}
	for _, id := range p.Scene.ChildrenRefs {
		if err := ref(id); err != nil {
			return err
		}
	}
	for _, id := range slices.Sorted(maps.Keys(p.Nodes)) {
		n := p.Nodes[id]
		if n.ID != id {
			return fmt.Errorf("%w: node keyed %s has id %s", ErrPackedSceneNotValid, id, n.ID)
		}
		if err := n.check(); err != nil {
			return fmt.Errorf("%w: %w", ErrPackedSceneNotValid, err)
		}
		for _, c := range n.Children {
			if err := ref(c); err != nil {
				return err
			}
		}
	}
	if len(seen) != len(p.Nodes) {
		return fmt.Errorf("%w: %d unreferenced nodes", ErrPackedSceneNotValid, len(p.Nodes)-len(seen))
	}

	// Every node is referenced exactly once, but a detached loop of groups
	// still hangs off nothing. Only nodes reached from the top level count.
	reached := make(map[string]bool, len(p.Nodes))
	stack := slices.Clone(p.Scene.ChildrenRefs)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[id] {
			continue
		}
		reached[id] = true
		stack = append(stack, p.Nodes[id].Children...)
	}
	if len(reached) != len(p.Nodes) {
		return fmt.Errorf("%w: %d of %d nodes unreachable from the top level: %w",
			ErrPackedSceneNotValid, len(p.Nodes)-len(reached), len(p.Nodes), ErrCycle)
	}
	return nil
}

// WithFreshIDs returns a copy of p with every node given a new id, for
// pasting or duplicating next to the original.
func (p *PackedScene) WithFreshIDs() (*PackedScene, error) {
	rename := make(map[string]string, len(p.Nodes))
	for id := range p.Nodes {
		rename[id] = typeid.NewNodeID()
	}
	remap := func(ids []string) []string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = rename[id]
		}
		return out
	}

	out := &PackedScene{
		Nodes: make(map[string]*Node, len(p.Nodes)),
		Scene: PackedRefs{ChildrenRefs: remap(p.Scene.ChildrenRefs)},
	}
	for id, n := range p.Nodes {
		c, err := cloneNode(n)
		if err != nil {
			return nil, err
		}
		c.ID = rename[id]
		c.Children = remap(n.Children)
		if n.Parent != nil {
			if np, ok := rename[*n.Parent]; ok {
				c.Parent = &np
			}
		}
		out.Nodes[c.ID] = c
	}
	return out, nil
}
