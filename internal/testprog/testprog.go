// Package testprog holds small IR programs shared by tests across packages.
package testprog

import "github.com/dankeyy/roc/internal/ir"

func let(s ir.Sym, t ir.Type, e ir.Expr, next ir.Stmt) *ir.Let {
	return &ir.Let{Sym: s, Ty: t, Expr: e, Next: next}
}

func i32(v int64) *ir.Literal { return &ir.Literal{Ty: ir.I32, I: v} }
func i64(v int64) *ir.Literal { return &ir.Literal{Ty: ir.I64, I: v} }

func ret(s ir.Sym) *ir.Ret { return &ir.Ret{Sym: s} }

func jump(j ir.JoinID, args ...ir.Sym) *ir.Jump { return &ir.Jump{Target: j, Args: args} }

func bin(op ir.BinOpKind, t ir.Type, a, b ir.Sym) *ir.BinOp {
	return &ir.BinOp{Op: op, Ty: t, A: a, B: b}
}

func call(name string, args ...ir.Sym) *ir.Call { return &ir.Call{Name: name, Args: args} }

func params(ps ...any) []ir.Param {
	out := make([]ir.Param, 0, len(ps)/2)
	for i := 0; i < len(ps); i += 2 {
		out = append(out, ir.Param{Sym: ir.Sym(ps[i].(int)), Ty: ps[i+1].(ir.Type)})
	}
	return out
}

// Pair is a composite of two i64 fields.
var Pair = ir.Struct("pair", ir.I64, ir.I64)

// Mixed is a padded composite: {i32, i64, i32}.
var Mixed = ir.Struct("mixed", ir.I32, ir.I64, ir.I32)

// Add is add(a, b) = a + b.
func Add() *ir.Func {
	return &ir.Func{
		Name:   "add",
		Params: params(0, ir.I32, 1, ir.I32),
		Ret:    ir.I32,
		Body:   let(2, ir.I32, bin(ir.OpAdd, ir.I32, 0, 1), ret(2)),
	}
}

// AddMain is main() = add(add(1, 2), 4).
func AddMain() *ir.Func {
	return &ir.Func{
		Name: "main",
		Ret:  ir.I32,
		Body: let(0, ir.I32, i32(1),
			let(1, ir.I32, i32(2),
				let(2, ir.I32, call("add", 0, 1),
					let(3, ir.I32, i32(4),
						let(4, ir.I32, call("add", 2, 3),
							ret(4)))))),
	}
}

// Reversed is main() = sub(4, add(1, 2)) where the call result is consumed
// after a later definition, which forces a slot.
func Reversed() *ir.Func {
	return &ir.Func{
		Name: "reversed",
		Ret:  ir.I32,
		Body: let(0, ir.I32, i32(1),
			let(1, ir.I32, i32(2),
				let(2, ir.I32, call("add", 0, 1),
					let(3, ir.I32, i32(4),
						let(4, ir.I32, bin(ir.OpSub, ir.I32, 3, 2),
							ret(4)))))),
	}
}

// Fact computes n! with a loop: join j0(acc, k) re-entered from its body.
func Fact() *ir.Func {
	return &ir.Func{
		Name:   "fact",
		Params: params(0, ir.I64),
		Ret:    ir.I64,
		Body: let(1, ir.I64, i64(1),
			&ir.Join{
				ID:     0,
				Params: params(2, ir.I64, 3, ir.I64),
				Body: let(4, ir.I64, i64(1),
					let(5, ir.I32, &ir.Cmp{Op: ir.CmpLe, Ty: ir.I64, A: 3, B: 4},
						&ir.Switch{
							Cond:  5,
							Ty:    ir.I32,
							Cases: []ir.Case{{Value: 1, Body: ret(2)}},
							Default: let(6, ir.I64, bin(ir.OpMul, ir.I64, 2, 3),
								let(7, ir.I64, bin(ir.OpSub, ir.I64, 3, 4),
									jump(0, 6, 7))),
						})),
				Remainder: jump(0, 1, 0),
			}),
	}
}

// Classify maps 1 to 10, 2 to 20, 3 to x*x and everything else to -1.
func Classify() *ir.Func {
	return &ir.Func{
		Name:   "classify",
		Params: params(0, ir.I32),
		Ret:    ir.I32,
		Body: &ir.Switch{
			Cond: 0,
			Ty:   ir.I32,
			Cases: []ir.Case{
				{Value: 1, Body: let(1, ir.I32, i32(10), ret(1))},
				{Value: 2, Body: let(2, ir.I32, i32(20), ret(2))},
				{Value: 3, Body: let(3, ir.I32, bin(ir.OpMul, ir.I32, 0, 0), ret(3))},
			},
			Default: let(4, ir.I32, i32(-1), ret(4)),
		},
	}
}

// Max returns the larger argument through a join point with no back edge.
func Max() *ir.Func {
	return &ir.Func{
		Name:   "max",
		Params: params(0, ir.I64, 1, ir.I64),
		Ret:    ir.I64,
		Body: &ir.Join{
			ID:     0,
			Params: params(2, ir.I64),
			Body:   ret(2),
			Remainder: let(3, ir.I32, &ir.Cmp{Op: ir.CmpGt, Ty: ir.I64, A: 0, B: 1},
				&ir.Switch{
					Cond:    3,
					Ty:      ir.I32,
					Cases:   []ir.Case{{Value: 1, Body: jump(0, 0)}},
					Default: jump(0, 1),
				}),
		},
	}
}

// Triangle counts pairs (i, j) with 0 <= j < i < n using two nested loops.
func Triangle() *ir.Func {
	one, zero := ir.Sym(1), ir.Sym(2)
	return &ir.Func{
		Name:   "triangle",
		Params: params(0, ir.I32),
		Ret:    ir.I32,
		Body: let(one, ir.I32, i32(1),
			let(zero, ir.I32, i32(0),
				&ir.Join{
					// outer(i, count)
					ID:     0,
					Params: params(3, ir.I32, 4, ir.I32),
					Body: let(5, ir.I32, &ir.Cmp{Op: ir.CmpGe, Ty: ir.I32, A: 3, B: 0},
						&ir.Switch{
							Cond:  5,
							Ty:    ir.I32,
							Cases: []ir.Case{{Value: 1, Body: ret(4)}},
							Default: &ir.Join{
								// inner(j, c)
								ID:     1,
								Params: params(6, ir.I32, 7, ir.I32),
								Body: let(8, ir.I32, &ir.Cmp{Op: ir.CmpLt, Ty: ir.I32, A: 6, B: 3},
									&ir.Switch{
										Cond: 8,
										Ty:   ir.I32,
										Cases: []ir.Case{{Value: 0, Body: let(9, ir.I32, bin(ir.OpAdd, ir.I32, 3, one),
											jump(0, 9, 7))}},
										Default: let(10, ir.I32, bin(ir.OpAdd, ir.I32, 6, one),
											let(11, ir.I32, bin(ir.OpAdd, ir.I32, 7, one),
												jump(1, 10, 11))),
									}),
								Remainder: jump(1, zero, 4),
							},
						}),
					Remainder: jump(0, zero, zero),
				})),
	}
}

// MakePair builds a composite result from two scalars.
func MakePair() *ir.Func {
	return &ir.Func{
		Name:   "make_pair",
		Params: params(0, ir.I64, 1, ir.I64),
		Ret:    Pair,
		Body:   let(2, Pair, &ir.StructInit{Fields: []ir.Sym{0, 1}}, ret(2)),
	}
}

// SumPair takes a composite argument.
func SumPair() *ir.Func {
	return &ir.Func{
		Name:   "sum_pair",
		Params: params(0, Pair),
		Ret:    ir.I64,
		Body: let(1, ir.I64, &ir.FieldGet{Recv: 0, Index: 0},
			let(2, ir.I64, &ir.FieldGet{Recv: 0, Index: 1},
				let(3, ir.I64, bin(ir.OpAdd, ir.I64, 1, 2),
					ret(3)))),
	}
}

// PairMain is sum_pair(make_pair(x, x*3)).
func PairMain() *ir.Func {
	return &ir.Func{
		Name:   "pair_main",
		Params: params(0, ir.I64),
		Ret:    ir.I64,
		Body: let(1, ir.I64, i64(3),
			let(2, ir.I64, bin(ir.OpMul, ir.I64, 0, 1),
				let(3, Pair, call("make_pair", 0, 2),
					let(4, ir.I64, call("sum_pair", 3),
						ret(4))))),
	}
}

// Forward returns a composite it received from a callee.
func Forward() *ir.Func {
	return &ir.Func{
		Name:   "forward",
		Params: params(0, ir.I64),
		Ret:    Pair,
		Body: let(1, ir.I64, i64(-1),
			let(2, Pair, call("make_pair", 1, 0),
				ret(2))),
	}
}

// Echo returns its composite argument unchanged.
func Echo() *ir.Func {
	return &ir.Func{
		Name:   "echo",
		Params: params(0, Pair),
		Ret:    Pair,
		Body:   ret(0),
	}
}

// Rotate swaps two composites k times through join parameters. The jump
// arguments are the join's own parameters in swapped order.
func Rotate() *ir.Func {
	return &ir.Func{
		Name:   "rotate",
		Params: params(0, ir.I32, 1, ir.I64, 2, ir.I64),
		Ret:    Pair,
		Body: let(3, Pair, &ir.StructInit{Fields: []ir.Sym{1, 2}},
			let(4, Pair, &ir.StructInit{Fields: []ir.Sym{2, 1}},
				let(5, ir.I32, i32(1),
					&ir.Join{
						ID:     0,
						Params: params(6, Pair, 7, Pair, 8, ir.I32),
						Body: &ir.Switch{
							Cond:  8,
							Ty:    ir.I32,
							Cases: []ir.Case{{Value: 0, Body: ret(6)}},
							Default: let(9, ir.I32, bin(ir.OpSub, ir.I32, 8, 5),
								jump(0, 7, 6, 9)),
						},
						Remainder: jump(0, 3, 4, 0),
					}))),
	}
}

// MixedInit builds a padded composite and reads back its last field.
func MixedInit() *ir.Func {
	return &ir.Func{
		Name:   "mixed_last",
		Params: params(0, ir.I32, 1, ir.I64, 2, ir.I32),
		Ret:    ir.I32,
		Body: let(3, Mixed, &ir.StructInit{Fields: []ir.Sym{0, 1, 2}},
			let(4, ir.I32, &ir.FieldGet{Recv: 3, Index: 2},
				let(5, ir.I32, &ir.FieldGet{Recv: 3, Index: 0},
					let(6, ir.I32, bin(ir.OpSub, ir.I32, 4, 5),
						ret(6))))),
	}
}

// EarlyExit holds a frame and returns from inside a loop nested in a switch
// arm.
func EarlyExit() *ir.Func {
	return &ir.Func{
		Name:   "early_exit",
		Params: params(0, ir.I32),
		Ret:    ir.I64,
		Body: let(1, ir.I64, i64(40),
			let(2, ir.I64, i64(2),
				let(3, Pair, &ir.StructInit{Fields: []ir.Sym{1, 2}},
					let(4, ir.I32, i32(1),
						&ir.Join{
							ID:     0,
							Params: params(5, ir.I32),
							Body: &ir.Switch{
								Cond: 5,
								Ty:   ir.I32,
								Cases: []ir.Case{{Value: 0, Body: let(6, ir.I64, &ir.FieldGet{Recv: 3, Index: 0},
									let(7, ir.I64, &ir.FieldGet{Recv: 3, Index: 1},
										let(8, ir.I64, bin(ir.OpAdd, ir.I64, 6, 7),
											ret(8))))}},
								Default: let(9, ir.I32, bin(ir.OpSub, ir.I32, 5, 4),
									jump(0, 9)),
							},
							Remainder: jump(0, 0),
						})))),
	}
}

// Avg averages two floats.
func Avg() *ir.Func {
	return &ir.Func{
		Name:   "avg",
		Params: params(0, ir.F64, 1, ir.F64),
		Ret:    ir.F64,
		Body: let(2, ir.F64, bin(ir.OpAdd, ir.F64, 0, 1),
			let(3, ir.F64, &ir.Literal{Ty: ir.F64, F: 2},
				let(4, ir.F64, bin(ir.OpDiv, ir.F64, 2, 3),
					ret(4)))),
	}
}

// Nop returns unit.
func Nop() *ir.Func {
	return &ir.Func{Name: "nop", Ret: ir.Unit, Body: ret(ir.NoSym)}
}

// CallNop discards a unit result.
func CallNop() *ir.Func {
	return &ir.Func{
		Name: "call_nop",
		Ret:  ir.I32,
		Body: let(0, ir.Unit, call("nop"),
			let(1, ir.I32, i32(7),
				ret(1))),
	}
}

// Program returns every sample function in one program.
func Program() *ir.Program {
	p := &ir.Program{Funcs: map[string]*ir.Func{}}
	for _, f := range []*ir.Func{
		Add(), AddMain(), Reversed(), Fact(), Classify(), Max(), Triangle(),
		MakePair(), SumPair(), PairMain(), Forward(), Echo(), Rotate(),
		MixedInit(), EarlyExit(), Avg(), Nop(), CallNop(),
	} {
		p.Funcs[f.Name] = f
	}
	return p
}
