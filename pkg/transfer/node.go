// Package transfer converts store subtrees to and from the self-contained
// transfer document.
//
// A document is a tree of Nodes. Directories carry Children; leaves carry
// Content, which is the UTF-8 text for notes and a base64 data URL for every
// other leaf type. Exporting the root produces a synthesized node with the
// root sentinel ID; importing such a node places its children directly under
// the destination. Import always mints fresh IDs.
package transfer

import (
	"errors"

	"github.com/aretw0/nook/pkg/core"
)

// ErrMalformedNode is returned by Import for a node whose fields contradict
// its type.
var ErrMalformedNode = errors.New("malformed transfer node")

// Node is one element of a transfer document.
type Node struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Icon        string         `json:"icon" yaml:"icon"`
	Type        core.EntryType `json:"type" yaml:"type"`
	Modified    int64          `json:"modified" yaml:"modified"` // Unix milliseconds
	Description string         `json:"description" yaml:"description"`
	Content     *string        `json:"content,omitempty" yaml:"content,omitempty"`
	Children    []Node         `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsRoot reports whether n is the synthesized root node, whose ID is the
// root sentinel or empty.
func (n Node) IsRoot() bool {
	return core.IsRoot(n.ID)
}

// Count returns the number of nodes in the tree rooted at n, n included.
func (n Node) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

func nodeFromEntry(e core.Entry) Node {
	return Node{
		ID:          e.ID,
		Name:        e.Name,
		Icon:        e.Icon,
		Type:        e.Type,
		Modified:    e.Modified.UnixMilli(),
		Description: e.Description,
	}
}

func (n Node) spec() core.EntrySpec {
	return core.EntrySpec{
		Name:        n.Name,
		Icon:        n.Icon,
		Type:        n.Type,
		Description: n.Description,
	}
}
