package render

import "fmt"

// Node is a decoded UI component: a JSON object with at least a string
// "type". Child components, when present, live under "children".
type Node map[string]any

// Type returns the component type.
func (n Node) Type() string {
	t, _ := n["type"].(string)
	return t
}

// Children returns the child components that are themselves objects.
func (n Node) Children() []Node {
	raw, _ := n["children"].([]any)
	out := make([]Node, 0, len(raw))
	for _, child := range raw {
		if m, ok := child.(map[string]any); ok {
			out = append(out, Node(m))
		}
	}
	return out
}

// Count returns the number of components in the tree rooted at n.
func (n Node) Count() int {
	total := 1
	for _, child := range n.Children() {
		total += child.Count()
	}
	return total
}

// Summary describes the root of the tree in one line.
func (n Node) Summary() string {
	return fmt.Sprintf("%s with %d children", n.Type(), len(n.Children()))
}
