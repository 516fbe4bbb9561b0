package skiplist

import "github.com/metailurini/lfskiplist/lflist"

// Only scratch buffers are pooled. Nodes are never recycled: a reused node
// could satisfy a stale CAS and corrupt a level.

func (sl *SkipList) acquirePath() *[]*lflist.Node {
	p := sl.paths.Get().(*[]*lflist.Node)
	if len(*p) < len(sl.levels) {
		*p = make([]*lflist.Node, len(sl.levels))
	}
	return p
}

func (sl *SkipList) releasePath(p *[]*lflist.Node) {
	clear(*p)
	sl.paths.Put(p)
}
