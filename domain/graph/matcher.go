package graph

import "sort"

// Contains reports whether pattern occurs in host as an exact subgraph:
// an injective mapping of pattern nodes to host nodes that preserves node
// labels and maps every pattern edge onto a host edge of the same kind and
// direction. Read-only on both graphs; safe for concurrent use.
func Contains(pattern, host *Program) bool {
	if pattern == nil || host == nil {
		return false
	}
	if pattern.Len() == 0 || pattern.Len() > host.Len() {
		return false
	}

	m := matcher{pattern: pattern, host: host}
	return m.match()
}

type matcher struct {
	pattern *Program
	host    *Program
}

func (m matcher) match() bool {
	order := m.searchOrder()
	assignment := make(map[NodeID]NodeID, len(order))
	used := make(map[NodeID]struct{}, len(order))
	return m.extend(order, 0, assignment, used)
}

// searchOrder visits pattern nodes so that each node after the first is
// adjacent to an already-placed node, keeping the candidate set small.
// Among eligible nodes the most constrained (highest degree) goes first.
func (m matcher) searchOrder() []NodeID {
	ids := m.pattern.NodeIDs()
	if len(ids) == 0 {
		return nil
	}

	degree := func(id NodeID) int {
		return len(m.pattern.out[id]) + len(m.pattern.in[id])
	}
	sort.Slice(ids, func(i, j int) bool {
		di, dj := degree(ids[i]), degree(ids[j])
		if di != dj {
			return di > dj
		}
		return ids[i] < ids[j]
	})

	placed := map[NodeID]struct{}{ids[0]: {}}
	order := []NodeID{ids[0]}
	for len(order) < len(ids) {
		picked := false
		for _, id := range ids {
			if _, ok := placed[id]; ok {
				continue
			}
			if m.touchesPlaced(id, placed) {
				placed[id] = struct{}{}
				order = append(order, id)
				picked = true
				break
			}
		}
		if !picked {
			// Disconnected pattern: start a new component.
			for _, id := range ids {
				if _, ok := placed[id]; !ok {
					placed[id] = struct{}{}
					order = append(order, id)
					break
				}
			}
		}
	}
	return order
}

func (m matcher) touchesPlaced(id NodeID, placed map[NodeID]struct{}) bool {
	for _, adj := range m.pattern.Neighborhood(id) {
		if _, ok := placed[adj]; ok {
			return true
		}
	}
	return false
}

func (m matcher) extend(order []NodeID, depth int, assignment map[NodeID]NodeID, used map[NodeID]struct{}) bool {
	if depth == len(order) {
		return true
	}

	pid := order[depth]
	pnode, _ := m.pattern.Node(pid)

	for _, hid := range m.candidates(pid, pnode, assignment) {
		if _, taken := used[hid]; taken {
			continue
		}
		if !m.consistent(pid, hid, assignment) {
			continue
		}
		assignment[pid] = hid
		used[hid] = struct{}{}
		if m.extend(order, depth+1, assignment, used) {
			return true
		}
		delete(assignment, pid)
		delete(used, hid)
	}
	return false
}

// candidates narrows host nodes for pid: when a neighbor of pid is already
// assigned, only host nodes adjacent to its image qualify; otherwise every
// label-compatible host node does.
func (m matcher) candidates(pid NodeID, pnode Node, assignment map[NodeID]NodeID) []NodeID {
	for _, e := range m.pattern.out[pid] {
		if himg, ok := assignment[e.To()]; ok {
			return m.filterLabel(m.host.Predecessors(himg), pnode)
		}
	}
	for _, e := range m.pattern.in[pid] {
		if himg, ok := assignment[e.From()]; ok {
			return m.filterLabel(m.host.Successors(himg), pnode)
		}
	}

	var ids []NodeID
	for _, hn := range m.host.Nodes() {
		if hn.label() == pnode.label() {
			ids = append(ids, hn.ID())
		}
	}
	return ids
}

func (m matcher) filterLabel(ids []NodeID, pnode Node) []NodeID {
	var out []NodeID
	for _, id := range ids {
		hn, _ := m.host.Node(id)
		if hn.label() == pnode.label() {
			out = append(out, id)
		}
	}
	return out
}

// consistent verifies every pattern edge between pid and an assigned node
// has a same-kind host edge between their images.
func (m matcher) consistent(pid, hid NodeID, assignment map[NodeID]NodeID) bool {
	for _, e := range m.pattern.out[pid] {
		himg, ok := assignment[e.To()]
		if !ok {
			continue
		}
		if !m.hostHasEdge(hid, himg, e.Kind()) {
			return false
		}
	}
	for _, e := range m.pattern.in[pid] {
		himg, ok := assignment[e.From()]
		if !ok {
			continue
		}
		if !m.hostHasEdge(himg, hid, e.Kind()) {
			return false
		}
	}
	return true
}

func (m matcher) hostHasEdge(from, to NodeID, kind EdgeKind) bool {
	for _, e := range m.host.out[from] {
		if e.To() == to && e.Kind() == kind {
			return true
		}
	}
	return false
}
