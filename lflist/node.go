package lflist

import "github.com/metailurini/lfskiplist/markref"

type role int8

const (
	roleKey role = iota
	roleHead
	roleTail
)

// Node is one key of a List. Only next changes after the node is linked.
type Node struct {
	key   int64
	value int64
	// next is marked once the node is logically deleted.
	next markref.Atomic[Node]
	down *Node
	role role
}

func newNode(key, value int64, down *Node) *Node {
	return &Node{key: key, value: value, down: down}
}

func newSentinels() (*Node, *Node) {
	tail := &Node{role: roleTail}
	head := &Node{role: roleHead}
	head.next.Store(markref.New(tail))
	return head, tail
}

// Key returns the node's key. It is meaningless for sentinels.
func (n *Node) Key() int64 { return n.key }

// Value returns the node's value. It is meaningless for sentinels.
func (n *Node) Value() int64 { return n.value }

// Down returns the copy of this key one level below, if the node was
// inserted with one.
func (n *Node) Down() *Node { return n.down }

// IsHead reports whether n is a list's head sentinel.
func (n *Node) IsHead() bool { return n.role == roleHead }

// IsTail reports whether n is a list's tail sentinel.
func (n *Node) IsTail() bool { return n.role == roleTail }

// Deleted reports whether n has been logically deleted.
func (n *Node) Deleted() bool {
	return markref.IsMarked(n.next.Load())
}

// before reports whether n sorts strictly before key.
func (n *Node) before(key int64) bool {
	switch n.role {
	case roleHead:
		return true
	case roleTail:
		return false
	}
	return n.key < key
}

// holds reports whether n is a key node carrying key.
func (n *Node) holds(key int64) bool {
	return n.role == roleKey && n.key == key
}
