// Package xmltree turns raw FatturaPA XML into a generic tree in which
// every element is addressable by tag name and yields an ordered
// sequence of children, the same shape array-preserving XML parsers
// produce. The extractor works only against this shape.
package xmltree

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/go-faster/errors"
)

// Node is one element of the parsed tree: a scalar leaf, a nested
// mapping, or both (text plus children).
type Node struct {
	tags     []string
	children map[string][]*Node
	text     string
}

// All returns the ordered sequence of children with the given tag. The
// sequence may be empty, and a nil receiver is tolerated.
func (n *Node) All(tag string) []*Node {
	if n == nil {
		return nil
	}
	return n.children[tag]
}

// First descends through the given path, taking the first child at
// every step. Any missing intermediate short-circuits to nil instead
// of failing, so callers can probe deep optional paths in one call.
func (n *Node) First(path ...string) *Node {
	cur := n
	for _, tag := range path {
		if cur == nil {
			return nil
		}
		seq := cur.children[tag]
		if len(seq) == 0 {
			return nil
		}
		cur = seq[0]
	}
	return cur
}

// FirstOf returns the first child under any of the alternate tags, in
// the order given. Used for namespace-prefixed tag variants.
func (n *Node) FirstOf(tags ...string) *Node {
	for _, tag := range tags {
		if child := n.First(tag); child != nil {
			return child
		}
	}
	return nil
}

// Text resolves the node to a scalar with the safe-extract rule: a nil
// node or one with no usable text yields the supplied default.
func (n *Node) Text(def string) string {
	if n == nil {
		return def
	}
	if n.text == "" {
		return def
	}
	return n.text
}

// FindRoot returns the first top-level child whose tag contains the
// marker substring, or nil. Tags are scanned in document order.
func (n *Node) FindRoot(marker string) *Node {
	if n == nil {
		return nil
	}
	for _, tag := range n.tags {
		if strings.Contains(tag, marker) {
			return n.children[tag][0]
		}
	}
	return nil
}

// Parse sanitizes raw XML bytes and folds them into a tree. The
// returned node is a synthetic document node whose single child is the
// document root, keyed by its full (possibly prefixed) tag.
func Parse(raw []byte) (*Node, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(Sanitize(raw)); err != nil {
		return nil, errors.Wrap(err, "parse XML")
	}

	root := doc.Root()
	if root == nil {
		return nil, errors.New("document has no root element")
	}

	top := newNode()
	top.add(fullTag(root), fold(root))
	return top, nil
}

func newNode() *Node {
	return &Node{children: make(map[string][]*Node)}
}

func (n *Node) add(tag string, child *Node) {
	if _, seen := n.children[tag]; !seen {
		n.tags = append(n.tags, tag)
	}
	n.children[tag] = append(n.children[tag], child)
}

func fold(el *etree.Element) *Node {
	n := newNode()
	n.text = normalizeSpace(el.Text())
	for _, child := range el.ChildElements() {
		n.add(fullTag(child), fold(child))
	}
	return n
}

func fullTag(el *etree.Element) string {
	if el.Space != "" {
		return el.Space + ":" + el.Tag
	}
	return el.Tag
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
