package eval

import (
	"testing"

	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/values"
)

func TestArithmeticAndNullPropagation(t *testing.T) {
	e := New(nil)
	expr := &ast.BinaryOp{Op: "+", Left: &ast.IntLiteral{Value: 2}, Right: &ast.IntLiteral{Value: 3}}
	v, err := e.Eval(expr, Frame{})
	if err != nil {
		t.Fatal(err)
	}
	i, _ := v.Int()
	if i != 5 {
		t.Errorf("got %d, want 5", i)
	}

	nullExpr := &ast.BinaryOp{Op: "+", Left: &ast.NullLiteral{}, Right: &ast.IntLiteral{Value: 3}}
	v, err = e.Eval(nullExpr, Frame{})
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind() != values.KindNull {
		t.Errorf("expected null, got %v", v.Kind())
	}
}

func TestThreeValuedAnd(t *testing.T) {
	e := New(nil)
	// false AND null = false
	expr := &ast.BinaryOp{Op: "and", Left: &ast.BoolLiteral{Value: false}, Right: &ast.NullLiteral{}}
	v, err := e.Eval(expr, Frame{})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := v.Bool()
	if b != false {
		t.Errorf("false AND null should be false, got %v", v)
	}

	// true AND null = null
	expr2 := &ast.BinaryOp{Op: "and", Left: &ast.BoolLiteral{Value: true}, Right: &ast.NullLiteral{}}
	v2, err := e.Eval(expr2, Frame{})
	if err != nil {
		t.Fatal(err)
	}
	if v2.Kind() != values.KindNull {
		t.Errorf("true AND null should be null, got %v", v2)
	}
}

func TestPropertyAccessBroadcast(t *testing.T) {
	e := New(nil)
	list := values.List([]values.Value{
		values.Map(map[string]values.Value{"name": values.Str("a")}),
		values.Map(map[string]values.Value{"name": values.Str("b")}),
	})
	frame := Frame{"xs": list}
	expr := &ast.PropertyAccess{Target: &ast.Variable{Name: "xs"}, Name: "name"}
	v, err := e.Eval(expr, frame)
	if err != nil {
		t.Fatal(err)
	}
	items, _ := v.List()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	s0, _ := items[0].Str()
	if s0 != "a" {
		t.Errorf("got %q, want %q", s0, "a")
	}
}

func TestSliceAccessNegativeIndices(t *testing.T) {
	e := New(nil)
	list := values.List([]values.Value{values.Int(1), values.Int(2), values.Int(3), values.Int(4), values.Int(5)})
	frame := Frame{"xs": list}
	from := ast.IntLiteral{Value: -2}
	expr := &ast.SliceAccess{Target: &ast.Variable{Name: "xs"}, From: &from}
	v, err := e.Eval(expr, frame)
	if err != nil {
		t.Fatal(err)
	}
	items, _ := v.List()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
}

func TestListInPredicateWithNull(t *testing.T) {
	e := New(nil)
	list := values.List([]values.Value{values.Int(1), values.Null(), values.Int(3)})
	frame := Frame{}
	expr := &ast.ListPredicate{Op: "in", Operand: &ast.IntLiteral{Value: 2}, Arg: listLit(list)}
	v, err := e.Eval(expr, frame)
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind() != values.KindNull {
		t.Errorf("2 IN [1,null,3] should be null (not found, but null present), got %v", v)
	}
}

func listLit(v values.Value) ast.Expr {
	items, _ := v.List()
	out := make([]ast.Expr, len(items))
	for i, it := range items {
		switch it.Kind() {
		case values.KindInt:
			n, _ := it.Int()
			out[i] = &ast.IntLiteral{Value: n}
		case values.KindNull:
			out[i] = &ast.NullLiteral{}
		}
	}
	return &ast.ListLiteral{Items: out}
}

func TestBuiltinStringFunctions(t *testing.T) {
	v, err := fnSplit([]values.Value{values.Str("a,b,c"), values.Str(",")})
	if err != nil {
		t.Fatal(err)
	}
	items, _ := v.List()
	if len(items) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(items))
	}

	lv, err := fnLevenshtein([]values.Value{values.Str("kitten"), values.Str("sitting")})
	if err != nil {
		t.Fatal(err)
	}
	li, _ := lv.Int()
	if li != 3 {
		t.Errorf("levenshtein(kitten, sitting) = %d, want 3", li)
	}
}

func TestAggregateCountEmptyGroup(t *testing.T) {
	agg, err := NewAggregator("count", false, 0)
	if err != nil {
		t.Fatal(err)
	}
	v := agg.Result()
	i, _ := v.Int()
	if i != 0 {
		t.Errorf("count over empty group = %v, want 0", v)
	}
}

func TestAggregateCollectEmptyGroup(t *testing.T) {
	agg, err := NewAggregator("collect", false, 0)
	if err != nil {
		t.Fatal(err)
	}
	v := agg.Result()
	items, ok := v.List()
	if !ok || len(items) != 0 {
		t.Errorf("collect over empty group = %v, want []", v)
	}
}

func TestAggregateSumEmptyGroupIsNullExceptCount(t *testing.T) {
	agg, _ := NewAggregator("sum", false, 0)
	v := agg.Result()
	if v.Kind() != values.KindNull {
		t.Errorf("sum over empty group should be null, got %v", v)
	}
	avgAgg, _ := NewAggregator("avg", false, 0)
	av := avgAgg.Result()
	if av.Kind() != values.KindNull {
		t.Errorf("avg over empty group should be null, got %v", av)
	}
}

func TestPercentileContInterpolates(t *testing.T) {
	agg, _ := NewAggregator("percentilecont", false, 0.5)
	for _, n := range []float64{1, 2, 3, 4} {
		agg.Add(values.Float(n))
	}
	v := agg.Result()
	f, _ := v.Float()
	if f != 2.5 {
		t.Errorf("percentileCont(0.5) over [1,2,3,4] = %v, want 2.5", f)
	}
}

func TestCaseExprGenericForm(t *testing.T) {
	e := New(nil)
	expr := &ast.CaseExpr{
		Whens: []*ast.CaseWhen{
			{Cond: &ast.BoolLiteral{Value: false}, Then: &ast.IntLiteral{Value: 1}},
			{Cond: &ast.BoolLiteral{Value: true}, Then: &ast.IntLiteral{Value: 2}},
		},
		Else: &ast.IntLiteral{Value: 3},
	}
	v, err := e.Eval(expr, Frame{})
	if err != nil {
		t.Fatal(err)
	}
	i, _ := v.Int()
	if i != 2 {
		t.Errorf("got %d, want 2", i)
	}
}
