package grouping

import "github.com/sawpanic/setuplab/internal/domain/setup"

// Node is one group in the tree. It carries data only.
type Node struct {
	Label       Label         `json:"label"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Setups      []setup.Setup `json:"setups"`
	Children    []*Node       `json:"children"`
}

func newNode(l Label, members []setup.Setup) *Node {
	d := MustLookup(l)
	if members == nil {
		members = []setup.Setup{}
	}
	return &Node{
		Label:       l,
		Name:        d.Name,
		Description: d.Description,
		Setups:      members,
		Children:    []*Node{},
	}
}

// BuildHierarchy arranges a flat mapping under the Buy Stop and Buy Limit roots.
// Both roots and their General children always exist. Any other label is
// attached to its static parent when it is non-empty and the parent is in the
// tree; otherwise it is left out of the tree.
func BuildHierarchy(groups Assignment) []*Node {
	buyStop := newNode(LabelBuyStop, groups.Get(LabelBuyStop))
	buyLimit := newNode(LabelBuyLimit, groups.Get(LabelBuyLimit))
	buyStop.Children = append(buyStop.Children, newNode(LabelGeneralBuyStop, groups.Get(LabelBuyStop)))
	buyLimit.Children = append(buyLimit.Children, newNode(LabelGeneralBuyLimit, groups.Get(LabelBuyLimit)))

	nodes := map[Label]*Node{
		LabelBuyStop:  buyStop,
		LabelBuyLimit: buyLimit,
	}

	var pending []Label
	for _, l := range groups.Labels() {
		if _, isRoot := nodes[l]; isRoot {
			continue
		}
		if _, ok := ParentOf(l); !ok {
			continue
		}
		nodes[l] = newNode(l, groups.Get(l))
		pending = append(pending, l)
	}

	// Nodes exist before linking so a child never depends on its parent
	// appearing earlier in the mapping.
	for _, l := range pending {
		parent, _ := ParentOf(l)
		if p, ok := nodes[parent]; ok {
			p.Children = append(p.Children, nodes[l])
		}
	}

	return []*Node{buyStop, buyLimit}
}

// Walk visits the node and its descendants depth first
func (n *Node) Walk(fn func(node *Node, depth int)) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Find returns the first node with the label in the subtree
func (n *Node) Find(l Label) *Node {
	var found *Node
	n.Walk(func(node *Node, _ int) {
		if found == nil && node.Label == l {
			found = node
		}
	})
	return found
}

// FindInForest searches every root
func FindInForest(roots []*Node, l Label) *Node {
	for _, r := range roots {
		if n := r.Find(l); n != nil {
			return n
		}
	}
	return nil
}
