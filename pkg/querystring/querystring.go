// Package querystring decodes bracket-notation query strings
// (filter[title][like]=%go%, select[]=id, or[0][published]=true) into an
// ordered tree. Key order is kept as it appears in the raw query.
package querystring

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies what a Node holds
type Kind int

const (
	KindString Kind = iota
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// MaxDepth bounds the bracket nesting of a single key
const MaxDepth = 12

// Node is one value of the decoded tree
type Node struct {
	Kind     Kind
	Value    string
	Items    []*Node
	keys     []string
	children map[string]*Node
}

// NewObject returns an empty object node
func NewObject() *Node {
	return &Node{Kind: KindObject, children: make(map[string]*Node)}
}

// String returns a leaf node
func String(value string) *Node {
	return &Node{Kind: KindString, Value: value}
}

// Keys returns object keys in insertion order
func (n *Node) Keys() []string {
	if n == nil || n.Kind != KindObject {
		return nil
	}
	return n.keys
}

// Get returns the child stored under key
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != KindObject {
		return nil, false
	}
	child, ok := n.children[key]
	return child, ok
}

// Set stores child under key, keeping the original position when key exists
func (n *Node) Set(key string, child *Node) {
	if _, ok := n.children[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.children[key] = child
}

// Len returns the number of keys or items
func (n *Node) Len() int {
	switch n.Kind {
	case KindObject:
		return len(n.keys)
	case KindList:
		return len(n.Items)
	default:
		return 1
	}
}

// Elements returns the node as a sequence. Lists are returned as is; objects
// qualify only when every key is a non-negative integer (or[0]=...&or[1]=...),
// and are ordered by that index.
func (n *Node) Elements() ([]*Node, bool) {
	switch n.Kind {
	case KindList:
		return n.Items, true
	case KindObject:
		type indexed struct {
			idx  int
			node *Node
		}
		out := make([]indexed, 0, len(n.keys))
		for _, k := range n.keys {
			idx, err := strconv.Atoi(k)
			if err != nil || idx < 0 {
				return nil, false
			}
			out = append(out, indexed{idx, n.children[k]})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].idx < out[j].idx })
		nodes := make([]*Node, len(out))
		for i, e := range out {
			nodes[i] = e.node
		}
		return nodes, true
	default:
		return nil, false
	}
}

// Strings flattens a leaf or a sequence of leaves into string values
func (n *Node) Strings() ([]string, bool) {
	if n.Kind == KindString {
		return []string{n.Value}, true
	}
	elems, ok := n.Elements()
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		if e.Kind != KindString {
			return nil, false
		}
		out = append(out, e.Value)
	}
	return out, true
}

// Interface converts the tree into plain maps, slices and strings for echoing
// a request back in an error response
func (n *Node) Interface() any {
	switch n.Kind {
	case KindString:
		return n.Value
	case KindList:
		out := make([]any, len(n.Items))
		for i, item := range n.Items {
			out[i] = item.Interface()
		}
		return out
	default:
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = n.children[k].Interface()
		}
		return out
	}
}

// Parse decodes a raw query string into an object tree.
// Repeated plain keys become lists.
func Parse(raw string) (*Node, error) {
	root := NewObject()
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("querystring: decode key %q: %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("querystring: decode value of %q: %w", key, err)
		}
		path, err := splitKey(key)
		if err != nil {
			return nil, err
		}
		if err := root.insert(path, value, key); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// splitKey turns "filter[title][like]" into [filter title like]; "select[]"
// yields an empty trailing segment meaning append.
func splitKey(key string) ([]string, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		if strings.IndexByte(key, ']') >= 0 {
			return nil, fmt.Errorf("querystring: unbalanced brackets in %q", key)
		}
		return []string{key}, nil
	}
	if open == 0 {
		return nil, fmt.Errorf("querystring: key %q has no name", key)
	}

	path := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return nil, fmt.Errorf("querystring: unexpected %q in %q", rest, key)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, fmt.Errorf("querystring: unbalanced brackets in %q", key)
		}
		seg := rest[1:end]
		if strings.ContainsAny(seg, "[") {
			return nil, fmt.Errorf("querystring: unbalanced brackets in %q", key)
		}
		path = append(path, seg)
		rest = rest[end+1:]
	}
	if len(path) > MaxDepth {
		return nil, fmt.Errorf("querystring: key %q nests deeper than %d levels", key, MaxDepth)
	}
	return path, nil
}

func (n *Node) insert(path []string, value, key string) error {
	seg := path[0]

	if n.Kind == KindList {
		if seg != "" || len(path) > 1 {
			return fmt.Errorf("querystring: %q mixes list and object notation", key)
		}
		n.Items = append(n.Items, String(value))
		return nil
	}

	if seg == "" {
		return fmt.Errorf("querystring: %q appends to an object", key)
	}

	child, exists := n.children[seg]
	if len(path) == 1 {
		if !exists {
			n.Set(seg, String(value))
			return nil
		}
		switch child.Kind {
		case KindString:
			n.children[seg] = &Node{Kind: KindList, Items: []*Node{child, String(value)}}
		case KindList:
			child.Items = append(child.Items, String(value))
		default:
			return fmt.Errorf("querystring: %q assigns a value to an object", key)
		}
		return nil
	}

	next := path[1]
	switch {
	case !exists:
		if next == "" {
			child = &Node{Kind: KindList}
		} else {
			child = NewObject()
		}
		n.Set(seg, child)
	case child.Kind == KindString:
		return fmt.Errorf("querystring: %q nests under a plain value", key)
	case child.Kind == KindList && next != "":
		return fmt.Errorf("querystring: %q mixes list and object notation", key)
	case child.Kind == KindObject && next == "":
		return fmt.Errorf("querystring: %q appends to an object", key)
	}
	return child.insert(path[1:], value, key)
}
