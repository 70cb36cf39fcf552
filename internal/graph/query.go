package graph

import (
	"strconv"
	"strings"

	"github.com/kadedb/kadedb"
)

// ExecuteQuery runs one line of the graph query dialect: TRAVERSE,
// MATCH, SHORTEST_PATH, or CONNECTED, each operating on a single named
// graph. Tokenization is plain whitespace splitting, matching the
// dialect's deliberately small grammar.
func (s *Storage) ExecuteQuery(query string) (*kadedb.ResultSet, error) {
	toks := strings.Fields(query)
	if len(toks) == 0 {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "empty graph query")
	}
	switch strings.ToUpper(toks[0]) {
	case "TRAVERSE":
		return s.execTraverse(toks)
	case "MATCH":
		return s.execMatch(toks)
	case "SHORTEST_PATH":
		return s.execShortestPath(toks)
	case "CONNECTED":
		return s.execConnected(toks)
	default:
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown graph query verb: %s", toks[0])
	}
}

func ieq(a, b string) bool { return strings.EqualFold(a, b) }

func parseNodeID(s string) (NodeID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, kadedb.NewEngineError(kadedb.InvalidArgument, "invalid integer: %s", s)
	}
	return v, nil
}

func resultNodeList(nodes []NodeID) *kadedb.ResultSet {
	rs := kadedb.NewResultSet([]string{"node_id"}, []kadedb.ColumnType{kadedb.ColInteger})
	for _, n := range nodes {
		rs.AddRow(kadedb.NewInteger(n))
	}
	return rs
}

func resultPath(path []NodeID) *kadedb.ResultSet {
	rs := kadedb.NewResultSet([]string{"step", "node_id"}, []kadedb.ColumnType{kadedb.ColInteger, kadedb.ColInteger})
	for i, n := range path {
		rs.AddRow(kadedb.NewInteger(int64(i)), kadedb.NewInteger(n))
	}
	return rs
}

func resultBool(v bool) *kadedb.ResultSet {
	rs := kadedb.NewResultSet([]string{"value"}, []kadedb.ColumnType{kadedb.ColBoolean})
	rs.AddRow(kadedb.NewBoolean(v))
	return rs
}

// shortestPathUnweighted runs an unweighted BFS from start to goal and
// reconstructs the path via a parent map, returning an empty path when
// goal is unreachable.
func (s *Storage) shortestPathUnweighted(graph string, start, goal NodeID) ([]NodeID, error) {
	if start == goal {
		return []NodeID{start}, nil
	}
	queue := []NodeID{start}
	seen := map[NodeID]bool{start: true}
	parent := map[NodeID]NodeID{}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		neighbors, err := s.NeighborsOut(graph, cur)
		if err != nil {
			return nil, err
		}
		for _, nxt := range neighbors {
			if seen[nxt] {
				continue
			}
			seen[nxt] = true
			parent[nxt] = cur
			if nxt == goal {
				path := []NodeID{}
				x := goal
				for {
					path = append(path, x)
					p, ok := parent[x]
					if !ok {
						break
					}
					x = p
					if x == start {
						path = append(path, x)
						break
					}
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, nil
			}
			queue = append(queue, nxt)
		}
	}
	return []NodeID{}, nil
}

func (s *Storage) execTraverse(toks []string) (*kadedb.ResultSet, error) {
	if len(toks) < 5 {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument,
			"TRAVERSE syntax: TRAVERSE <graph> FROM <start> (BFS|DFS) [LIMIT <n>]")
	}
	graph := toks[1]
	if !ieq(toks[2], "FROM") {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "expected FROM")
	}
	start, err := parseNodeID(toks[3])
	if err != nil {
		return nil, err
	}
	mode := toks[4]
	limit := 0
	if len(toks) >= 7 && ieq(toks[5], "LIMIT") {
		n, err := parseNodeID(toks[6])
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "LIMIT must be >= 0")
		}
		limit = int(n)
	}
	switch {
	case ieq(mode, "BFS"):
		nodes, err := s.BFS(graph, start, limit)
		if err != nil {
			return nil, err
		}
		return resultNodeList(nodes), nil
	case ieq(mode, "DFS"):
		nodes, err := s.DFS(graph, start, limit)
		if err != nil {
			return nil, err
		}
		return resultNodeList(nodes), nil
	default:
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "expected BFS or DFS")
	}
}

func (s *Storage) execConnected(toks []string) (*kadedb.ResultSet, error) {
	if len(toks) < 6 {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument,
			"CONNECTED syntax: CONNECTED <graph> FROM <a> TO <b>")
	}
	graph := toks[1]
	if !ieq(toks[2], "FROM") {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "expected FROM")
	}
	a, err := parseNodeID(toks[3])
	if err != nil {
		return nil, err
	}
	if !ieq(toks[4], "TO") {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "expected TO")
	}
	b, err := parseNodeID(toks[5])
	if err != nil {
		return nil, err
	}
	path, err := s.shortestPathUnweighted(graph, a, b)
	if err != nil {
		return nil, err
	}
	return resultBool(len(path) > 0), nil
}

func (s *Storage) execShortestPath(toks []string) (*kadedb.ResultSet, error) {
	if len(toks) < 6 {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument,
			"SHORTEST_PATH syntax: SHORTEST_PATH <graph> FROM <a> TO <b>")
	}
	graph := toks[1]
	if !ieq(toks[2], "FROM") {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "expected FROM")
	}
	a, err := parseNodeID(toks[3])
	if err != nil {
		return nil, err
	}
	if !ieq(toks[4], "TO") {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "expected TO")
	}
	b, err := parseNodeID(toks[5])
	if err != nil {
		return nil, err
	}
	path, err := s.shortestPathUnweighted(graph, a, b)
	if err != nil {
		return nil, err
	}
	return resultPath(path), nil
}

// execMatch implements the dialect's single supported pattern:
//
//	MATCH <graph> (a)-[:TYPE]->(b) WHERE a = <id> RETURN b
//
// returning the ids of every b reachable from <id> via an outgoing
// edge, optionally narrowed to edges of the given TYPE.
func (s *Storage) execMatch(toks []string) (*kadedb.ResultSet, error) {
	if len(toks) < 8 {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument,
			"MATCH syntax: MATCH <graph> (a)-[:TYPE]->(b) WHERE a = <id> RETURN b")
	}
	graph := toks[1]
	pattern := toks[2]

	whereIdx := -1
	for i, t := range toks {
		if ieq(t, "WHERE") {
			whereIdx = i
			break
		}
	}
	if whereIdx <= 0 || whereIdx+4 >= len(toks) {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "invalid WHERE clause")
	}
	if !ieq(toks[whereIdx+1], "a") {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "expected 'a' in WHERE")
	}
	if toks[whereIdx+2] != "=" {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "expected '=' in WHERE")
	}
	start, err := parseNodeID(toks[whereIdx+3])
	if err != nil {
		return nil, err
	}

	retIdx := whereIdx + 4
	if retIdx+1 >= len(toks) || !ieq(toks[retIdx], "RETURN") {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "expected RETURN")
	}
	if !ieq(toks[retIdx+1], "b") {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "only RETURN b is supported")
	}

	relType := ""
	if pos := strings.Index(pattern, "[:"); pos != -1 {
		if end := strings.Index(pattern[pos:], "]"); end != -1 {
			relType = pattern[pos+2 : pos+end]
		}
	}

	eids, err := s.EdgeIDsOut(graph, start)
	if err != nil {
		return nil, err
	}
	var out []NodeID
	for _, eid := range eids {
		e, err := s.GetEdge(graph, eid)
		if err != nil {
			return nil, err
		}
		if relType != "" && !ieq(e.Type, relType) {
			continue
		}
		out = append(out, e.To)
	}
	return resultNodeList(out), nil
}
