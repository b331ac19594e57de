// Package analysis implements the static passes run over a parsed stub:
// conditional reachability under fixed version/platform facts, and
// qualified-name resolution through the enclosing scope chain.
package analysis

import (
	"log/slog"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/stubdoc/internal/pytree"
)

// Tristate is the outcome of constant-folding a conditional test.
type Tristate int

const (
	Unknown Tristate = iota
	False
	True
)

// Facts are the fixed runtime facts conditionals are folded against. An
// empty Version leaves version tests Unknown; an empty Platform leaves
// platform tests Unknown.
type Facts struct {
	Version  []int
	Platform string
}

// span is a half-open byte interval proven unreachable.
type span struct {
	start, end uint32
}

// Reachability marks statically dead branches of one stub file. A node is
// dead when its start offset falls inside a dead region; regions cover
// entire branch bodies, so marks propagate to all descendants.
type Reachability struct {
	facts    Facts
	log      *slog.Logger
	dead     []span
	analyzed bool
}

// NewReachability creates a pass over the given facts.
func NewReachability(facts Facts, log *slog.Logger) *Reachability {
	if log == nil {
		log = slog.Default()
	}
	return &Reachability{facts: facts, log: log}
}

// Analyze walks every conditional statement in the tree and records dead
// regions. Re-running on the same tree is a no-op: the first run's marks
// stand.
func (r *Reachability) Analyze(t *pytree.Tree) {
	if r.analyzed {
		return
	}
	r.analyzed = true
	r.walk(t, t.Root())
}

func (r *Reachability) walk(t *pytree.Tree, n *sitter.Node) {
	if n.Type() == pytree.TypeIfStmt {
		r.analyzeChain(t, n)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		r.walk(t, n.Child(i))
	}
}

// analyzeChain applies the propagation rule to an if/elif/else chain. A
// definitely-false test kills its own branch; a definitely-true test kills
// every later clause without inspecting their conditions; an unknown test
// leaves no marks for that clause.
func (r *Reachability) analyzeChain(t *pytree.Tree, ifStmt *sitter.Node) {
	sawTrue := false

	evalClause := func(cond, body *sitter.Node) {
		switch r.Eval(t, cond) {
		case False:
			if body != nil {
				r.markDead(body)
			}
		case True:
			sawTrue = true
		case Unknown:
			r.log.Warn("encountered unsupported condition", "condition", t.Text(cond))
		}
	}

	evalClause(ifStmt.ChildByFieldName("condition"), ifStmt.ChildByFieldName("consequence"))

	for i := 0; i < int(ifStmt.NamedChildCount()); i++ {
		clause := ifStmt.NamedChild(i)
		switch clause.Type() {
		case pytree.TypeElifClause:
			if sawTrue {
				r.markDead(clause)
				continue
			}
			evalClause(clause.ChildByFieldName("condition"), clause.ChildByFieldName("consequence"))
		case pytree.TypeElseClause:
			if sawTrue {
				r.markDead(clause)
			}
		}
	}
}

func (r *Reachability) markDead(n *sitter.Node) {
	r.dead = append(r.dead, span{start: n.StartByte(), end: n.EndByte()})
}

// IsDead reports whether a node lies inside a region proven unreachable.
func (r *Reachability) IsDead(n *sitter.Node) bool {
	pos := n.StartByte()
	for _, s := range r.dead {
		if s.start <= pos && pos < s.end {
			return true
		}
	}
	return false
}

// Eval constant-folds a restricted boolean expression. Exactly two leaf
// families resolve: sys.version_info compared against a tuple of 1-3
// integer literals, and sys.platform compared against a string literal.
// not/and/or combine resolvable operands; anything else is Unknown.
func (r *Reachability) Eval(t *pytree.Tree, expr *sitter.Node) Tristate {
	if expr == nil {
		return Unknown
	}
	switch expr.Type() {
	case pytree.TypeParenExpr:
		if expr.NamedChildCount() != 1 {
			return Unknown
		}
		return r.Eval(t, expr.NamedChild(0))

	case pytree.TypeNotOp:
		switch r.Eval(t, expr.ChildByFieldName("argument")) {
		case True:
			return False
		case False:
			return True
		}
		return Unknown

	case pytree.TypeBoolOp:
		left := r.Eval(t, expr.ChildByFieldName("left"))
		if left == Unknown {
			return Unknown
		}
		right := r.Eval(t, expr.ChildByFieldName("right"))
		if right == Unknown {
			return Unknown
		}
		op := expr.ChildByFieldName("operator")
		if op == nil {
			return Unknown
		}
		switch t.Text(op) {
		case "and":
			return both(left == True && right == True)
		case "or":
			return both(left == True || right == True)
		}
		return Unknown

	case pytree.TypeComparison:
		return r.evalComparison(t, expr)
	}
	return Unknown
}

func both(v bool) Tristate {
	if v {
		return True
	}
	return False
}

// evalComparison folds a single comparison whose left side is a fixed
// sys.version_info or sys.platform attribute access.
func (r *Reachability) evalComparison(t *pytree.Tree, cmp *sitter.Node) Tristate {
	// A chained comparison (a < b < c) has more than two operands; only the
	// simple two-operand form resolves.
	if cmp.NamedChildCount() != 2 {
		return Unknown
	}
	left := cmp.NamedChild(0)
	right := cmp.NamedChild(1)

	op := comparisonOp(cmp)
	if op == "" {
		return Unknown
	}

	switch attributePath(t, left) {
	case "sys.version_info":
		if len(r.facts.Version) == 0 {
			return Unknown
		}
		lit, ok := tupleLiteral(t, right)
		if !ok {
			return Unknown
		}
		return both(compareVersion(r.facts.Version, lit, op))

	case "sys.platform":
		if r.facts.Platform == "" || right.Type() != pytree.TypeString {
			return Unknown
		}
		val := t.StringText(right)
		switch op {
		case "==":
			return both(r.facts.Platform == val)
		case "!=":
			return both(r.facts.Platform != val)
		}
		return Unknown
	}
	return Unknown
}

// comparisonOp returns the single operator token of a comparison, or "".
func comparisonOp(cmp *sitter.Node) string {
	var op string
	for i := 0; i < int(cmp.ChildCount()); i++ {
		c := cmp.Child(i)
		switch c.Type() {
		case "<", "<=", ">", ">=", "==", "!=":
			if op != "" {
				return ""
			}
			op = c.Type()
		}
	}
	return op
}

// attributePath returns "obj.attr" for a plain attribute access on an
// identifier, or "".
func attributePath(t *pytree.Tree, n *sitter.Node) string {
	if n == nil || n.Type() != pytree.TypeAttribute {
		return ""
	}
	obj := n.ChildByFieldName("object")
	attr := n.ChildByFieldName("attribute")
	if obj == nil || attr == nil || obj.Type() != "identifier" {
		return ""
	}
	return t.Text(obj) + "." + t.Text(attr)
}

// tupleLiteral extracts a tuple of 1-3 integer literals.
func tupleLiteral(t *pytree.Tree, n *sitter.Node) ([]int, bool) {
	if n == nil || n.Type() != pytree.TypeTuple {
		return nil, false
	}
	count := int(n.NamedChildCount())
	if count < 1 || count > 3 {
		return nil, false
	}
	vals := make([]int, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c.Type() != pytree.TypeInteger {
			return nil, false
		}
		v, err := strconv.Atoi(strings.TrimSpace(t.Text(c)))
		if err != nil {
			return nil, false
		}
		vals = append(vals, v)
	}
	return vals, true
}

// compareVersion applies op between the current version truncated to the
// literal's arity and the literal, using lexicographic tuple comparison.
func compareVersion(version, lit []int, op string) bool {
	v := version
	if len(v) > len(lit) {
		v = v[:len(lit)]
	}
	c := compareTuple(v, lit)
	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	case "==":
		return c == 0
	case "!=":
		return c != 0
	}
	return false
}

// compareTuple is lexicographic: elementwise over the common prefix, then
// the shorter tuple sorts first.
func compareTuple(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
