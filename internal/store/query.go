package store

// Query selects, orders and limits records. The zero Query lists everything.
type Query struct {
	Where   Condition
	OrderBy []Order
	Limit   int
}

// Order sorts by one field.
type Order struct {
	Field string
	Desc  bool
}

// Asc and Desc build Order values.
func Asc(field string) Order  { return Order{Field: field} }
func Desc(field string) Order { return Order{Field: field, Desc: true} }

// Condition is a predicate over a record. Build them with Eq, In, Or and And.
type Condition interface {
	fields() []string
}

type eqCond struct {
	field string
	value any
}

type inCond struct {
	field  string
	values []any
}

type orCond struct{ conds []Condition }

type andCond struct{ conds []Condition }

// Eq matches records whose field equals value. A nil value matches NULL.
func Eq(field string, value any) Condition { return eqCond{field: field, value: value} }

// In matches records whose field is one of values. An empty set matches nothing.
func In[T any](field string, values []T) Condition {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return inCond{field: field, values: vs}
}

// Or matches when any of conds matches.
func Or(conds ...Condition) Condition { return orCond{conds: conds} }

// And matches when all of conds match.
func And(conds ...Condition) Condition { return andCond{conds: conds} }

func (c eqCond) fields() []string  { return []string{c.field} }
func (c inCond) fields() []string  { return []string{c.field} }
func (c orCond) fields() []string  { return collectFields(c.conds) }
func (c andCond) fields() []string { return collectFields(c.conds) }

func collectFields(conds []Condition) []string {
	var out []string
	for _, c := range conds {
		if c != nil {
			out = append(out, c.fields()...)
		}
	}
	return out
}

func (q Query) validate() error {
	if q.Where != nil {
		for _, f := range q.Where.fields() {
			if err := checkField(f); err != nil {
				return err
			}
		}
	}
	for _, o := range q.OrderBy {
		if err := checkField(o.Field); err != nil {
			return err
		}
	}
	return nil
}
