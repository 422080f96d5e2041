// Package ast defines the statement and expression tree the parser
// produces and the executor walks read-only (§9: "ASTs are produced
// once and walked read-only by the executor").
package ast

// Statement is a full query: one or more clause sequences joined by
// UNION / UNION ALL.
type Statement struct {
	Parts    []*SingleQuery
	UnionAll []bool // UnionAll[i] describes the join before Parts[i+1]
}

// SingleQuery is one linear sequence of clauses.
type SingleQuery struct {
	Clauses []Clause
}

// Clause is any top-level pipeline stage (§4.7).
type Clause interface{ clauseNode() }

// Pattern is a comma-separated set of path patterns, as used by MATCH
// and CREATE.
type Pattern struct {
	Paths []*PathPattern
}

// PathPattern is a chain alternating node patterns and relationship
// patterns: len(Nodes) == len(Rels)+1. An optional Name binds the whole
// path (for shortestPath/allShortestPaths and named paths).
type PathPattern struct {
	Name          string
	Nodes         []*NodePattern
	Rels          []*RelPattern
	ShortestPath  bool
	AllShortest   bool
}

// NodePattern is `(var:Label1:Label2 {props})`.
type NodePattern struct {
	Variable   string
	Labels     []string
	Properties *MapLiteral
}

// RelPattern is `-[var:TYPE*min..max {props}]->` or its mirror/undirected
// forms.
type RelPattern struct {
	Variable    string
	Types       []string // OR'd alternatives, e.g. [:KNOWS|:LIKES]
	Properties  *MapLiteral
	Direction   RelDirection
	VarLength   bool
	MinHops     int
	MaxHops     int // -1 means unbounded (clamped by cypher_max_hops)
	HasMinHops  bool
	HasMaxHops  bool
}

// RelDirection is the arrow direction of a relationship pattern.
type RelDirection int

const (
	DirRight RelDirection = iota // (a)-[]->(b)
	DirLeft                      // (a)<-[]-(b)
	DirEither                    // (a)-[]-(b)
)

// --- Clauses ---

type MatchClause struct {
	Optional bool
	Pattern  *Pattern
	Where    Expr
}

func (*MatchClause) clauseNode() {}

type CreateClause struct{ Pattern *Pattern }

func (*CreateClause) clauseNode() {}

type MergeClause struct {
	Path     *PathPattern
	OnCreate []*SetItem
	OnMatch  []*SetItem
}

func (*MergeClause) clauseNode() {}

type SetItem struct {
	Target   Expr // PropertyAccess or Variable
	Value    Expr
	IsAdd    bool // SET n += {...}
	IsLabel  bool // SET n:Label
	Label    string
}

type SetClause struct{ Items []*SetItem }

func (*SetClause) clauseNode() {}

type RemoveItem struct {
	Target Expr
	Label  string // non-empty for REMOVE n:Label
}

type RemoveClause struct{ Items []*RemoveItem }

func (*RemoveClause) clauseNode() {}

type DeleteClause struct {
	Detach bool
	Items  []Expr
}

func (*DeleteClause) clauseNode() {}

// ProjectionItem is one RETURN/WITH item: `expr AS alias`.
type ProjectionItem struct {
	Expr  Expr
	Alias string
}

type OrderItem struct {
	Expr       Expr
	Descending bool
}

type WithClause struct {
	Distinct bool
	Items    []*ProjectionItem
	Star     bool // WITH * (all bound variables pass through)
	Where    Expr
	OrderBy  []*OrderItem
	Skip     Expr
	Limit    Expr
}

func (*WithClause) clauseNode() {}

type UnwindClause struct {
	Expr     Expr
	Variable string
}

func (*UnwindClause) clauseNode() {}

type ReturnClause struct {
	Distinct bool
	Items    []*ProjectionItem
	Star     bool
	OrderBy  []*OrderItem
	Skip     Expr
	Limit    Expr
}

func (*ReturnClause) clauseNode() {}

type CallClause struct {
	Procedure string
	Args      []Expr
	Yield     []string
	YieldAll  bool
}

func (*CallClause) clauseNode() {}

type ShowClause struct {
	Indexes     bool
	Constraints bool
}

func (*ShowClause) clauseNode() {}

type CreateIndexClause struct {
	Name        string
	EntityKind  string
	LabelOrType string
	Property    string
	Unique      bool
}

func (*CreateIndexClause) clauseNode() {}

type DropIndexClause struct{ Name string }

func (*DropIndexClause) clauseNode() {}

type CreateConstraintClause struct {
	Name        string
	Kind        string // uniqueness|existence|type
	EntityKind  string
	LabelOrType string
	Property    string
	ScalarType  string
}

func (*CreateConstraintClause) clauseNode() {}

type DropConstraintClause struct{ Name string }

func (*DropConstraintClause) clauseNode() {}

// --- Expressions ---

// Expr is any expression-grammar node (§4.5-§4.6).
type Expr interface{ exprNode() }

type NullLiteral struct{}
type BoolLiteral struct{ Value bool }
type IntLiteral struct{ Value int64 }
type FloatLiteral struct{ Value float64 }
type StringLiteral struct{ Value string }

type ListLiteral struct{ Items []Expr }

type MapEntry struct {
	Key   string
	Value Expr
}
type MapLiteral struct{ Entries []*MapEntry }

type Parameter struct{ Name string }
type Variable struct{ Name string }

type PropertyAccess struct {
	Target Expr
	Name   string
}

// IndexAccess is `list[i]`.
type IndexAccess struct {
	Target Expr
	Index  Expr
}

// SliceAccess is `list[i..j]`.
type SliceAccess struct {
	Target Expr
	From   Expr // nil means "from start"
	To     Expr // nil means "to end"
}

type UnaryOp struct {
	Op      string // "-", "not"
	Operand Expr
}

type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
}

// IsNullTest is `expr IS [NOT] NULL`.
type IsNullTest struct {
	Operand Expr
	Negate  bool
}

// ListPredicate covers `expr IN list`, `expr STARTS WITH s`,
// `expr ENDS WITH s`, `expr CONTAINS s`.
type ListPredicate struct {
	Op      string // "in", "starts_with", "ends_with", "contains"
	Operand Expr
	Arg     Expr
}

type FunctionCall struct {
	Name     string // may contain dots, e.g. "apoc.text.join"
	Args     []Expr
	Distinct bool // for count(DISTINCT x)
	Star     bool // for count(*)
}

// ListComprehension is `[x IN list WHERE pred | expr]`.
type ListComprehension struct {
	Variable string
	Source   Expr
	Where    Expr // nil if absent
	Project  Expr // nil means identity
}

// PatternComprehension is `[(a)-[:R]->(b) WHERE cond | expr]`.
type PatternComprehension struct {
	Path    *PathPattern
	Where   Expr
	Project Expr
}

type CaseWhen struct {
	Cond Expr
	Then Expr
}

// CaseExpr covers both `CASE expr WHEN v THEN ... END` (Operand set) and
// generic `CASE WHEN cond THEN ... END` (Operand nil).
type CaseExpr struct {
	Operand Expr
	Whens   []*CaseWhen
	Else    Expr
}

func (*NullLiteral) exprNode()         {}
func (*BoolLiteral) exprNode()         {}
func (*IntLiteral) exprNode()          {}
func (*FloatLiteral) exprNode()        {}
func (*StringLiteral) exprNode()       {}
func (*ListLiteral) exprNode()         {}
func (*MapLiteral) exprNode()          {}
func (*Parameter) exprNode()           {}
func (*Variable) exprNode()            {}
func (*PropertyAccess) exprNode()      {}
func (*IndexAccess) exprNode()         {}
func (*SliceAccess) exprNode()         {}
func (*UnaryOp) exprNode()             {}
func (*BinaryOp) exprNode()            {}
func (*IsNullTest) exprNode()          {}
func (*ListPredicate) exprNode()       {}
func (*FunctionCall) exprNode()        {}
func (*ListComprehension) exprNode()   {}
func (*PatternComprehension) exprNode() {}
func (*CaseExpr) exprNode()            {}
