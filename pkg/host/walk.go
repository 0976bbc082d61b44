package host

// WalkFunc is called for every visited node. Returning false skips the
// node's children.
type WalkFunc func(n Node) bool

// Walk visits n and its descendants depth-first, parents before children.
func Walk(n Node, fn WalkFunc) {
	if !fn(n) {
		return
	}
	c, ok := n.(Container)
	if !ok {
		return
	}
	for _, child := range c.Children() {
		Walk(child, fn)
	}
}

// Descendants returns every descendant of n (excluding n) in traversal order.
func Descendants(n Node) []Node {
	var out []Node
	Walk(n, func(x Node) bool {
		if x != n {
			out = append(out, x)
		}
		return true
	})
	return out
}
