package nodes

import "github.com/bawdo/pgquery/sqlbuf"

// Interval units accepted by the interval nodes.
const (
	Year        = "year"
	Month       = "month"
	Week        = "week"
	Day         = "day"
	Hour        = "hour"
	Minute      = "minute"
	Second      = "second"
	Millisecond = "millisecond"
	Microsecond = "microsecond"
)

var intervalUnits = map[string]bool{
	Year: true, Month: true, Week: true, Day: true, Hour: true,
	Minute: true, Second: true, Millisecond: true, Microsecond: true,
}

// ValidIntervalUnit reports whether unit may appear in an interval literal.
func ValidIntervalUnit(unit string) bool { return intervalUnits[unit] }

// IntervalNode is Count units. An integer or float literal count renders as
// an interval literal; any other count is multiplied by a one-unit interval.
type IntervalNode struct {
	Count Expr
	Unit  string
}

func (n *IntervalNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitInterval(n, b) }

// Interval creates count units, e.g. Interval(3, Day).
func Interval(count any, unit string) *IntervalNode {
	return &IntervalNode{Count: Literal(count), Unit: unit}
}

// DatetimeAddNode adds an interval to a timestamp.
type DatetimeAddNode struct {
	Predications
	Datetime Expr
	Interval *IntervalNode
}

func (n *DatetimeAddNode) Accept(v Visitor, b *sqlbuf.Buffer) error {
	return v.VisitDatetimeAdd(n, b)
}

// DatetimeAdd creates datetime + count units.
func DatetimeAdd(datetime, count any, unit string) *DatetimeAddNode {
	n := &DatetimeAddNode{Datetime: Literal(datetime), Interval: Interval(count, unit)}
	n.Predications.self = n
	return n
}

// DateAddNode adds an interval to a date, yielding a date.
type DateAddNode struct {
	Predications
	Date     Expr
	Interval *IntervalNode
}

func (n *DateAddNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitDateAdd(n, b) }

// DateAdd creates date + count units.
func DateAdd(date, count any, unit string) *DateAddNode {
	n := &DateAddNode{Date: Literal(date), Interval: Interval(count, unit)}
	n.Predications.self = n
	return n
}
