package sql

// Walk traverses the tree depth-first, pre-order, calling fn for every
// non-nil node. If fn returns false, the node's children are skipped.
// Leaf nodes short-circuit without reflection on their (absent) children.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) || e.Leaf() {
		return
	}
	for _, c := range children(e) {
		Walk(c, fn)
	}
}

// Rewrite returns a structurally-rewritten copy of the tree with fn applied
// to every node bottom-up. The input tree is never mutated; untouched
// subtrees are shared between input and output. Metadata bags travel with
// the node they were attached to, so dialect annotations survive rewrites
// the rewriter knows nothing about.
func Rewrite(e Expr, fn func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}
	return fn(rebuild(e, fn))
}

// rewriteOrder rewrites a single order term.
func rewriteOrder(o *OrderExpr, fn func(Expr) Expr) *OrderExpr {
	if x := Rewrite(o.X, fn); x != o.X {
		c := *o
		c.X = x
		return &c
	}
	return o
}

// rebuild rewrites e's children and returns e, or a copy of e when any
// child changed.
func rebuild(e Expr, fn func(Expr) Expr) Expr {
	if e.Leaf() {
		return e
	}
	switch e := e.(type) {
	case *ListExpr:
		items, changed := rewriteAll(e.Items, fn)
		if !changed {
			return e
		}
		c := *e
		c.Items = items
		return &c
	case *UnaryExpr:
		if x := Rewrite(e.X, fn); x != e.X {
			c := *e
			c.X = x
			return &c
		}
		return e
	case *BinaryExpr:
		x, y := Rewrite(e.X, fn), Rewrite(e.Y, fn)
		if x == e.X && y == e.Y {
			return e
		}
		c := *e
		c.X, c.Y = x, y
		return &c
	case *FuncExpr:
		args, changed := rewriteAll(e.Args, fn)
		if !changed {
			return e
		}
		c := *e
		c.Args = args
		return &c
	case *JoinExpr:
		left, right, on := Rewrite(e.Left, fn), Rewrite(e.Right, fn), Rewrite(e.On, fn)
		if left == e.Left && right == e.Right && on == e.On {
			return e
		}
		c := *e
		c.Left, c.Right, c.On = left, right, on
		return &c
	case *OrderExpr:
		return rewriteOrder(e, fn)
	case *AliasExpr:
		if x := Rewrite(e.X, fn); x != e.X {
			c := *e
			c.X = x
			return &c
		}
		return e
	case *SelectExpr:
		c := e.clone()
		changed := false
		if from := Rewrite(e.From, fn); from != e.From {
			c.From, changed = from, true
		}
		if cols, ch := rewriteAll(e.Columns, fn); ch {
			c.Columns, changed = cols, true
		}
		if where := Rewrite(e.Where, fn); where != e.Where {
			c.Where, changed = where, true
		}
		if gs, ch := rewriteAll(e.GroupBy, fn); ch {
			c.GroupBy, changed = gs, true
		}
		if having := Rewrite(e.Having, fn); having != e.Having {
			c.Having, changed = having, true
		}
		for i, o := range e.OrderBy {
			if ro := rewriteOrder(o, fn); ro != o {
				c.OrderBy[i], changed = ro, true
			}
		}
		for i, u := range e.Unions {
			if ru, ok := Rewrite(u.x, fn).(*SelectExpr); ok && ru != u.x {
				c.Unions[i].x, changed = ru, true
			}
		}
		if !changed {
			return e
		}
		return c
	case *ConflictExpr:
		c := *e
		changed := false
		c.Updates = append([]Assignment(nil), e.Updates...)
		for i, a := range e.Updates {
			if v := Rewrite(a.Value, fn); v != a.Value {
				c.Updates[i].Value, changed = v, true
			}
		}
		if !changed {
			return e
		}
		return &c
	case *InsertExpr:
		c := e.clone()
		changed := false
		for i, row := range e.Values {
			if vs, ch := rewriteAll(row, fn); ch {
				c.Values[i], changed = vs, true
			}
		}
		if ret, ch := rewriteAll(e.Returning, fn); ch {
			c.Returning, changed = ret, true
		}
		if e.Conflict != nil {
			if rc, ok := Rewrite(e.Conflict, fn).(*ConflictExpr); ok && rc != e.Conflict {
				c.Conflict, changed = rc, true
			}
		}
		if !changed {
			return e
		}
		return c
	case *UpdateExpr:
		c := e.clone()
		changed := false
		for i, a := range e.Assignments {
			if v := Rewrite(a.Value, fn); v != a.Value {
				c.Assignments[i].Value, changed = v, true
			}
		}
		if where := Rewrite(e.Where, fn); where != e.Where {
			c.Where, changed = where, true
		}
		if !changed {
			return e
		}
		return c
	case *DeleteExpr:
		if where := Rewrite(e.Where, fn); where != e.Where {
			c := *e
			c.Where = where
			return &c
		}
		return e
	default:
		return e
	}
}

func rewriteAll(es []Expr, fn func(Expr) Expr) ([]Expr, bool) {
	changed := false
	out := es
	for i, e := range es {
		r := Rewrite(e, fn)
		if r != e {
			if !changed {
				out = append([]Expr(nil), es...)
				changed = true
			}
			out[i] = r
		}
	}
	return out, changed
}

// children returns the direct child expressions of e for traversal.
func children(e Expr) []Expr {
	switch e := e.(type) {
	case *ListExpr:
		return e.Items
	case *UnaryExpr:
		return []Expr{e.X}
	case *BinaryExpr:
		return []Expr{e.X, e.Y}
	case *FuncExpr:
		return e.Args
	case *JoinExpr:
		return []Expr{e.Left, e.Right, e.On}
	case *OrderExpr:
		return []Expr{e.X}
	case *AliasExpr:
		return []Expr{e.X}
	case *SelectExpr:
		cs := make([]Expr, 0, len(e.Columns)+len(e.GroupBy)+len(e.OrderBy)+len(e.Unions)+3)
		cs = append(cs, e.From)
		cs = append(cs, e.Columns...)
		cs = append(cs, e.Where)
		cs = append(cs, e.GroupBy...)
		cs = append(cs, e.Having)
		for _, o := range e.OrderBy {
			cs = append(cs, o)
		}
		for _, u := range e.Unions {
			cs = append(cs, u.x)
		}
		return cs
	case *ConflictExpr:
		cs := make([]Expr, 0, len(e.Updates))
		for _, a := range e.Updates {
			cs = append(cs, a.Value)
		}
		return cs
	case *InsertExpr:
		var cs []Expr
		for _, row := range e.Values {
			cs = append(cs, row...)
		}
		cs = append(cs, e.Returning...)
		if e.Conflict != nil {
			cs = append(cs, e.Conflict)
		}
		return cs
	case *UpdateExpr:
		cs := make([]Expr, 0, len(e.Assignments)+1)
		for _, a := range e.Assignments {
			cs = append(cs, a.Value)
		}
		cs = append(cs, e.Where)
		return cs
	case *DeleteExpr:
		return []Expr{e.Where}
	default:
		return nil
	}
}
