package engine

import (
	"container/heap"
	"sort"

	"github.com/fricosched/frico/internal/model"
)

// nodeOrder is a min-heap of nodes keyed on (LoadFraction, ID) ascending,
// the corrected ordering key spec.md calls for in place of the original
// implementation's accidental id-primary comparison. It supports O(log N)
// reinsertion after a node's residual capacity changes (Fix) and an O(N log
// N) snapshot in ascending order for the full scans every Solve tier needs.
type nodeOrder struct {
	items []*model.Node
	index map[string]int // node name -> position in items
}

func newNodeOrder(nodes []*model.Node) *nodeOrder {
	o := &nodeOrder{
		items: append([]*model.Node(nil), nodes...),
		index: make(map[string]int, len(nodes)),
	}
	for i, n := range o.items {
		o.index[n.Name] = i
	}
	heap.Init(o)
	return o
}

func (o *nodeOrder) Len() int { return len(o.items) }

func (o *nodeOrder) Less(i, j int) bool {
	a, b := o.items[i], o.items[j]
	la, lb := a.LoadFraction(), b.LoadFraction()
	if la != lb {
		return la < lb
	}
	return a.ID < b.ID
}

func (o *nodeOrder) Swap(i, j int) {
	o.items[i], o.items[j] = o.items[j], o.items[i]
	o.index[o.items[i].Name] = i
	o.index[o.items[j].Name] = j
}

func (o *nodeOrder) Push(x any) {
	n := x.(*model.Node)
	o.index[n.Name] = len(o.items)
	o.items = append(o.items, n)
}

func (o *nodeOrder) Pop() any {
	old := o.items
	n := old[len(old)-1]
	o.items = old[:len(old)-1]
	delete(o.index, n.Name)
	return n
}

// fix restores heap order after the node with the given name changed its
// residual capacity. O(log N).
func (o *nodeOrder) fix(name string) {
	if i, ok := o.index[name]; ok {
		heap.Fix(o, i)
	}
}

// byName returns the node with the given name, if present.
func (o *nodeOrder) byName(name string) (*model.Node, bool) {
	i, ok := o.index[name]
	if !ok {
		return nil, false
	}
	return o.items[i], true
}

// ascending returns every node, least loaded first, tie-broken by ID. It is
// a snapshot: later mutation of the order does not affect the returned
// slice, and mutating the order while iterating the slice is safe.
func (o *nodeOrder) ascending() []*model.Node {
	out := append([]*model.Node(nil), o.items...)
	sort.Slice(out, func(i, j int) bool {
		li, lj := out[i].LoadFraction(), out[j].LoadFraction()
		if li != lj {
			return li < lj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// all returns every node in no particular order.
func (o *nodeOrder) all() []*model.Node {
	return append([]*model.Node(nil), o.items...)
}
