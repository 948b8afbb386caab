package nodes

// Combinable provides logical chaining methods to types that embed it.
// The self field must be set to the embedding node.
type Combinable struct {
	self Expr
}

// And combines self with other using AND.
func (c Combinable) And(other Expr) *CallNode { return And(c.self, other) }

// Or combines self with other using OR.
func (c Combinable) Or(other Expr) *CallNode { return Or(c.self, other) }

// Not negates self.
func (c Combinable) Not() *NotNode { return Not(c.self) }
