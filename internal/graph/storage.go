// Package graph implements the in-memory property-graph storage
// engine: named graphs of nodes and directed edges with adjacency
// indexes, BFS/DFS traversal, and the TRAVERSE/MATCH/SHORTEST_PATH/
// CONNECTED query dialect (query.go).
package graph

import (
	"sort"
	"sync"

	"github.com/kadedb/kadedb"
)

// NodeID and EdgeID are opaque 64-bit identifiers chosen by callers,
// matching the source engine's int64 id space.
type NodeID = int64
type EdgeID = int64

// Node is a labeled, property-bearing vertex.
type Node struct {
	ID         NodeID
	Labels     []string
	Properties *kadedb.Document
}

// Clone returns a deep, independent copy of n.
func (n Node) Clone() Node {
	return Node{ID: n.ID, Labels: append([]string{}, n.Labels...), Properties: n.Properties.Clone()}
}

// Edge is a labeled, typed, property-bearing directed edge.
type Edge struct {
	ID         EdgeID
	From       NodeID
	To         NodeID
	Type       string
	Labels     []string
	Properties *kadedb.Document
}

// Clone returns a deep, independent copy of e.
func (e Edge) Clone() Edge {
	return Edge{
		ID: e.ID, From: e.From, To: e.To, Type: e.Type,
		Labels: append([]string{}, e.Labels...), Properties: e.Properties.Clone(),
	}
}

type graphData struct {
	nodes  map[NodeID]Node
	edges  map[EdgeID]Edge
	outAdj map[NodeID][]EdgeID
	inAdj  map[NodeID][]EdgeID
}

func newGraphData() *graphData {
	return &graphData{
		nodes:  make(map[NodeID]Node),
		edges:  make(map[EdgeID]Edge),
		outAdj: make(map[NodeID][]EdgeID),
		inAdj:  make(map[NodeID][]EdgeID),
	}
}

// Storage is the in-memory property-graph storage engine.
type Storage struct {
	mu     sync.Mutex
	graphs map[string]*graphData
}

// NewStorage returns an empty Storage.
func NewStorage() *Storage {
	return &Storage{graphs: make(map[string]*graphData)}
}

// CreateGraph registers a new, empty graph under name.
func (s *Storage) CreateGraph(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.graphs[name]; exists {
		return kadedb.NewEngineError(kadedb.AlreadyExists, "graph %q already exists", name).
			WithEntity(kadedb.EntityRef{Store: "graph", Name: name}).WithOperation("createGraph")
	}
	s.graphs[name] = newGraphData()
	return nil
}

// DropGraph removes a graph and all of its nodes/edges.
func (s *Storage) DropGraph(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graphs[name]; !ok {
		return graphNotFound(name, "dropGraph")
	}
	delete(s.graphs, name)
	return nil
}

// ListGraphs returns graph names in sorted order.
func (s *Storage) ListGraphs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.graphs))
	for name := range s.graphs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *Storage) graph(name string) (*graphData, error) {
	g, ok := s.graphs[name]
	if !ok {
		return nil, graphNotFound(name, "")
	}
	return g, nil
}

// GetNode returns a deep copy of the node with the given id.
func (s *Storage) GetNode(graph string, id NodeID) (Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.graph(graph)
	if err != nil {
		return Node{}, err
	}
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, nodeNotFound(graph, id, "getNode")
	}
	return n.Clone(), nil
}

// PutNode inserts or replaces a node.
func (s *Storage) PutNode(graph string, n Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.graph(graph)
	if err != nil {
		return err
	}
	g.nodes[n.ID] = n.Clone()
	return nil
}

// EraseNode removes a node and every edge touching it.
func (s *Storage) EraseNode(graph string, id NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.graph(graph)
	if err != nil {
		return err
	}
	if _, ok := g.nodes[id]; !ok {
		return nodeNotFound(graph, id, "eraseNode")
	}
	for _, eid := range append([]EdgeID{}, g.outAdj[id]...) {
		s.eraseEdgeLocked(g, eid)
	}
	for _, eid := range append([]EdgeID{}, g.inAdj[id]...) {
		s.eraseEdgeLocked(g, eid)
	}
	delete(g.nodes, id)
	delete(g.outAdj, id)
	delete(g.inAdj, id)
	return nil
}

// GetEdge returns a deep copy of the edge with the given id.
func (s *Storage) GetEdge(graph string, id EdgeID) (Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.graph(graph)
	if err != nil {
		return Edge{}, err
	}
	e, ok := g.edges[id]
	if !ok {
		return Edge{}, edgeNotFound(graph, id, "getEdge")
	}
	return e.Clone(), nil
}

// PutEdge inserts or replaces an edge, updating adjacency indexes.
// Both endpoints must already exist as nodes.
func (s *Storage) PutEdge(graph string, e Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.graph(graph)
	if err != nil {
		return err
	}
	if _, ok := g.nodes[e.From]; !ok {
		return nodeNotFound(graph, e.From, "putEdge")
	}
	if _, ok := g.nodes[e.To]; !ok {
		return nodeNotFound(graph, e.To, "putEdge")
	}
	if old, exists := g.edges[e.ID]; exists {
		s.removeFromAdj(g, old)
	}
	g.edges[e.ID] = e.Clone()
	g.outAdj[e.From] = append(g.outAdj[e.From], e.ID)
	g.inAdj[e.To] = append(g.inAdj[e.To], e.ID)
	return nil
}

// EraseEdge removes an edge and its adjacency entries.
func (s *Storage) EraseEdge(graph string, id EdgeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.graph(graph)
	if err != nil {
		return err
	}
	if _, ok := g.edges[id]; !ok {
		return edgeNotFound(graph, id, "eraseEdge")
	}
	s.eraseEdgeLocked(g, id)
	return nil
}

func (s *Storage) eraseEdgeLocked(g *graphData, id EdgeID) {
	e, ok := g.edges[id]
	if !ok {
		return
	}
	s.removeFromAdj(g, e)
	delete(g.edges, id)
}

func (s *Storage) removeFromAdj(g *graphData, e Edge) {
	g.outAdj[e.From] = removeID(g.outAdj[e.From], e.ID)
	g.inAdj[e.To] = removeID(g.inAdj[e.To], e.ID)
}

func removeID(ids []EdgeID, target EdgeID) []EdgeID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// EdgeIDsOut returns the ids of edges leaving id.
func (s *Storage) EdgeIDsOut(graph string, id NodeID) ([]EdgeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.graph(graph)
	if err != nil {
		return nil, err
	}
	return append([]EdgeID{}, g.outAdj[id]...), nil
}

// EdgeIDsIn returns the ids of edges entering id.
func (s *Storage) EdgeIDsIn(graph string, id NodeID) ([]EdgeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.graph(graph)
	if err != nil {
		return nil, err
	}
	return append([]EdgeID{}, g.inAdj[id]...), nil
}

// NeighborsOut returns the node ids reachable via one outgoing edge.
func (s *Storage) NeighborsOut(graph string, id NodeID) ([]NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.graph(graph)
	if err != nil {
		return nil, err
	}
	out := make([]NodeID, 0, len(g.outAdj[id]))
	for _, eid := range g.outAdj[id] {
		out = append(out, g.edges[eid].To)
	}
	return out, nil
}

// NeighborsIn returns the node ids that reach id via one incoming edge.
func (s *Storage) NeighborsIn(graph string, id NodeID) ([]NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.graph(graph)
	if err != nil {
		return nil, err
	}
	out := make([]NodeID, 0, len(g.inAdj[id]))
	for _, eid := range g.inAdj[id] {
		out = append(out, g.edges[eid].From)
	}
	return out, nil
}

// BFS returns node ids reachable from start via outgoing edges in
// breadth-first order (start included), stopping once limit nodes
// have been collected (0 means unlimited).
func (s *Storage) BFS(graph string, start NodeID, limit int) ([]NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.graph(graph)
	if err != nil {
		return nil, err
	}
	var order []NodeID
	seen := map[NodeID]bool{start: true}
	queue := []NodeID{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		if limit > 0 && len(order) >= limit {
			break
		}
		for _, eid := range g.outAdj[cur] {
			nxt := g.edges[eid].To
			if !seen[nxt] {
				seen[nxt] = true
				queue = append(queue, nxt)
			}
		}
	}
	return order, nil
}

// DFS returns node ids reachable from start via outgoing edges in
// depth-first order (start included), stopping once limit nodes have
// been collected (0 means unlimited).
func (s *Storage) DFS(graph string, start NodeID, limit int) ([]NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.graph(graph)
	if err != nil {
		return nil, err
	}
	var order []NodeID
	seen := map[NodeID]bool{}
	var visit func(NodeID)
	visit = func(n NodeID) {
		if seen[n] || (limit > 0 && len(order) >= limit) {
			return
		}
		seen[n] = true
		order = append(order, n)
		for _, eid := range g.outAdj[n] {
			if limit > 0 && len(order) >= limit {
				return
			}
			visit(g.edges[eid].To)
		}
	}
	visit(start)
	return order, nil
}

func graphNotFound(name, op string) error {
	return kadedb.NewEngineError(kadedb.NotFound, "graph %q does not exist", name).
		WithEntity(kadedb.EntityRef{Store: "graph", Name: name}).WithOperation(op)
}

func nodeNotFound(graph string, id NodeID, op string) error {
	return kadedb.NewEngineError(kadedb.NotFound, "node %d not found", id).
		WithEntity(kadedb.EntityRef{Store: "graph", Name: graph}).WithOperation(op)
}

func edgeNotFound(graph string, id EdgeID, op string) error {
	return kadedb.NewEngineError(kadedb.NotFound, "edge %d not found", id).
		WithEntity(kadedb.EntityRef{Store: "graph", Name: graph}).WithOperation(op)
}
