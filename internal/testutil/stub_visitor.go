package testutil

import (
	"github.com/bawdo/pgquery/nodes"
	"github.com/bawdo/pgquery/sqlbuf"
)

// StubVisitor implements nodes.Visitor by writing a short marker per node.
// It lets tests check dispatch and tree shape without a dialect.
type StubVisitor struct{}

var _ nodes.Visitor = StubVisitor{}

func (sv StubVisitor) VisitLiteral(n *nodes.LiteralNode, b *sqlbuf.Buffer) error {
	b.WriteString("lit")
	return nil
}

func (sv StubVisitor) VisitParam(n *nodes.ParamNode, b *sqlbuf.Buffer) error {
	b.WriteParam(n.Index)
	return nil
}

func (sv StubVisitor) VisitColumn(n *nodes.ColumnNode, b *sqlbuf.Buffer) error {
	if n.All {
		b.WriteString("all")
		return nil
	}
	b.WriteString("col:" + n.Field)
	return nil
}

func (sv StubVisitor) VisitCall(n *nodes.CallNode, b *sqlbuf.Buffer) error {
	b.WriteString(n.Name + "(")
	for i, a := range n.Args {
		if i > 0 {
			b.WriteString(",")
		}
		if err := a.Accept(sv, b); err != nil {
			return err
		}
	}
	b.WriteString(")")
	return nil
}

func (sv StubVisitor) VisitIn(n *nodes.InNode, b *sqlbuf.Buffer) error {
	b.WriteString("in")
	return nil
}

func (sv StubVisitor) VisitList(n *nodes.ListNode, b *sqlbuf.Buffer) error {
	b.WriteString("list")
	return nil
}

func (sv StubVisitor) VisitIsNil(n *nodes.IsNilNode, b *sqlbuf.Buffer) error {
	b.WriteString("is_nil")
	return nil
}

func (sv StubVisitor) VisitNot(n *nodes.NotNode, b *sqlbuf.Buffer) error {
	b.WriteString("not")
	return nil
}

func (sv StubVisitor) VisitFragment(n *nodes.FragmentNode, b *sqlbuf.Buffer) error {
	b.WriteString("fragment")
	return nil
}

func (sv StubVisitor) VisitTagged(n *nodes.TaggedNode, b *sqlbuf.Buffer) error {
	b.WriteString("tagged:" + n.Type.String())
	return nil
}

func (sv StubVisitor) VisitSubquery(n *nodes.SubqueryNode, b *sqlbuf.Buffer) error {
	b.WriteString("subquery")
	return nil
}

func (sv StubVisitor) VisitInterval(n *nodes.IntervalNode, b *sqlbuf.Buffer) error {
	b.WriteString("interval:" + n.Unit)
	return nil
}

func (sv StubVisitor) VisitDatetimeAdd(n *nodes.DatetimeAddNode, b *sqlbuf.Buffer) error {
	b.WriteString("datetime_add")
	return nil
}

func (sv StubVisitor) VisitDateAdd(n *nodes.DateAddNode, b *sqlbuf.Buffer) error {
	b.WriteString("date_add")
	return nil
}

func (sv StubVisitor) VisitTuple(n *nodes.TupleNode, b *sqlbuf.Buffer) error {
	b.WriteString("tuple")
	return nil
}

func (sv StubVisitor) VisitFilter(n *nodes.FilterNode, b *sqlbuf.Buffer) error {
	b.WriteString("filter")
	return nil
}

func (sv StubVisitor) VisitOver(n *nodes.OverNode, b *sqlbuf.Buffer) error {
	b.WriteString("over")
	return nil
}
