// Package backend talks to a configuration backend through its key/value
// contract: single-key put and get, plus a recursive fetch that returns
// the sub-tree under a prefix.
package backend

import (
	"context"
	"fmt"
	"strings"
)

// Backend is the contract every configuration server endpoint offers.
// A missing key on GetString is reported through the bool, not an error;
// errors mean the operation itself failed.
type Backend interface {
	PutString(ctx context.Context, key, value string) error
	GetString(ctx context.Context, key string) (string, bool, error)
	GetRecursive(ctx context.Context, prefix string) (*Node, error)
	Close() error
}

// Node is one element of the tree returned by a recursive fetch. A
// directory node carries children in Nodes; a leaf carries a Value.
type Node struct {
	Name  string  `json:"name,omitempty"`
	Dir   bool    `json:"dir,omitempty"`
	Value string  `json:"value,omitempty"`
	Nodes []*Node `json:"nodes,omitempty"`
}

// Flatten maps every leaf under n to its value, keyed by the '/'-joined
// path relative to n (always starting with '/').
func (n *Node) Flatten() map[string]string {
	out := make(map[string]string)
	flattenInto(out, "", n)

	return out
}

func flattenInto(out map[string]string, prefix string, node *Node) {
	for _, child := range node.Nodes {
		path := prefix + "/" + child.Name
		if child.Dir {
			flattenInto(out, path, child)
		} else {
			out[path] = child.Value
		}
	}
}

// RemoteArgs fetches the whole tree of be and flattens it into option
// name to value pairs, with the leading slash stripped from each name.
// It powers the --args-uri option. An empty tree is an error: an
// arguments URI that resolves to nothing is a misconfiguration.
func RemoteArgs(ctx context.Context, be Backend) (map[string]string, error) {
	root, err := be.GetRecursive(ctx, "/")
	if err != nil {
		return nil, fmt.Errorf("fetch arguments tree: %w", err)
	}

	flat := root.Flatten()
	if len(flat) == 0 {
		return nil, fmt.Errorf("arguments URI contained no arguments")
	}

	args := make(map[string]string, len(flat))
	for path, value := range flat {
		args[strings.TrimPrefix(path, "/")] = value
	}

	return args, nil
}
