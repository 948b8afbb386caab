package managers

import "github.com/bawdo/pgquery/nodes"

// JoinContext is returned by SelectManager.Join and its variants. On sets
// the join condition; a join left without one renders ON TRUE.
type JoinContext struct {
	manager *SelectManager
	index   int
}

// Source returns the source position of the joined table, for building
// column references with nodes.Col.
func (jc *JoinContext) Source() int {
	return jc.manager.query.Joins[jc.index].Source
}

// On sets the join condition and returns the SelectManager for
// continued method chaining.
func (jc *JoinContext) On(condition nodes.Expr) *SelectManager {
	jc.manager.query.Joins[jc.index].On = condition
	return jc.manager
}
