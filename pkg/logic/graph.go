package logic

import (
	"sort"

	"github.com/aretw0/formwork/pkg/domain"
)

// Edge is a dependency from a trigger question to the question its rule targets.
type Edge struct {
	From string
	To   string
	Rule domain.ConditionalRule
}

// Graph is the conditional dependency graph of a question list.
type Graph struct {
	// Nodes holds question ids in declaration order.
	Nodes []string
	Edges []Edge

	index    map[string]int
	adjacent map[string][]string
	indegree map[string]int
}

// BuildGraph builds the dependency graph. Rules naming unknown triggers are not edges.
func BuildGraph(questions []domain.Question) *Graph {
	g := &Graph{
		index:    make(map[string]int, len(questions)),
		adjacent: make(map[string][]string, len(questions)),
		indegree: make(map[string]int, len(questions)),
	}
	for i, q := range questions {
		g.Nodes = append(g.Nodes, q.ID)
		g.index[q.ID] = i
		g.indegree[q.ID] = 0
	}
	for _, q := range questions {
		for _, r := range q.ConditionalLogic {
			if _, ok := g.index[r.QuestionID]; !ok {
				continue
			}
			g.Edges = append(g.Edges, Edge{From: r.QuestionID, To: q.ID, Rule: r})
			g.adjacent[r.QuestionID] = append(g.adjacent[r.QuestionID], q.ID)
			g.indegree[q.ID]++
		}
	}
	return g
}

// Order returns the question ids in topological order using Kahn's algorithm.
// Ties are broken by declaration order. If the graph has a cycle, the error is a
// *domain.CyclicDependencyError naming the questions on cycles.
func (g *Graph) Order() ([]string, error) {
	indegree := make(map[string]int, len(g.indegree))
	for id, d := range g.indegree {
		indegree[id] = d
	}

	ready := &idQueue{index: g.index}
	for _, id := range g.Nodes {
		if indegree[id] == 0 {
			ready.push(id)
		}
	}

	order := make([]string, 0, len(g.Nodes))
	for ready.Len() > 0 {
		id := ready.pop()
		order = append(order, id)
		for _, next := range g.adjacent[id] {
			indegree[next]--
			if indegree[next] == 0 {
				ready.push(next)
			}
		}
	}

	if len(order) == len(g.Nodes) {
		return order, nil
	}

	var remaining []string
	for _, id := range g.Nodes {
		if indegree[id] > 0 {
			remaining = append(remaining, id)
		}
	}
	return nil, &domain.CyclicDependencyError{QuestionIDs: g.cycleMembers(remaining)}
}

// cycleMembers narrows the Kahn remainder (cycles plus everything downstream of them)
// to the questions that sit on a cycle, using Tarjan's strongly connected components.
func (g *Graph) cycleMembers(remaining []string) []string {
	inRemainder := make(map[string]bool, len(remaining))
	for _, id := range remaining {
		inRemainder[id] = true
	}

	var (
		counter int
		stack   []string
		onStack = map[string]bool{}
		index   = map[string]int{}
		low     = map[string]int{}
		members []string
	)

	var visit func(id string)
	visit = func(id string) {
		index[id] = counter
		low[id] = counter
		counter++
		stack = append(stack, id)
		onStack[id] = true

		selfLoop := false
		for _, next := range g.adjacent[id] {
			if !inRemainder[next] {
				continue
			}
			if next == id {
				selfLoop = true
			}
			if _, seen := index[next]; !seen {
				visit(next)
				low[id] = min(low[id], low[next])
			} else if onStack[next] {
				low[id] = min(low[id], index[next])
			}
		}

		if low[id] != index[id] {
			return
		}
		var component []string
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			component = append(component, top)
			if top == id {
				break
			}
		}
		if len(component) > 1 || selfLoop {
			members = append(members, component...)
		}
	}

	for _, id := range remaining {
		if _, seen := index[id]; !seen {
			visit(id)
		}
	}
	sort.Strings(members)
	return members
}

// idQueue pops the ready question declared first.
type idQueue struct {
	ids   []string
	index map[string]int
}

func (q *idQueue) Len() int { return len(q.ids) }

func (q *idQueue) push(id string) {
	pos := sort.Search(len(q.ids), func(i int) bool {
		return q.index[q.ids[i]] > q.index[id]
	})
	q.ids = append(q.ids, "")
	copy(q.ids[pos+1:], q.ids[pos:])
	q.ids[pos] = id
}

func (q *idQueue) pop() string {
	id := q.ids[0]
	q.ids = q.ids[1:]
	return id
}

// CheckAcyclic returns a *domain.CyclicDependencyError if the rules form a cycle.
func CheckAcyclic(questions []domain.Question) error {
	_, err := BuildGraph(questions).Order()
	return err
}

// CheckReferences returns a *domain.DanglingReferenceError for the first rule whose
// trigger is not a question of the list.
func CheckReferences(questions []domain.Question) error {
	ids := make(map[string]bool, len(questions))
	for _, q := range questions {
		ids[q.ID] = true
	}
	for _, q := range questions {
		for _, r := range q.ConditionalLogic {
			if !ids[r.QuestionID] {
				return &domain.DanglingReferenceError{QuestionID: q.ID, TriggerID: r.QuestionID}
			}
		}
	}
	return nil
}
