package x86_64

// AssignStackSlots rewrites every Pseudo operand in fn to a Stack
// operand, first-fit, at successively decreasing 4-byte offsets from
// the frame base: the first distinct symbol seen lands at -4, the
// second at -8, and so on. It prepends AllocateStack for the total
// frame size if any slot was assigned.
func AssignStackSlots(fn *Function) {
	slots := map[string]int{}
	maxOffset := 0

	slotFor := func(name string) Stack {
		if off, ok := slots[name]; ok {
			return Stack{Offset: off}
		}
		off := -4 * (len(slots) + 1)
		slots[name] = off
		if -off > maxOffset {
			maxOffset = -off
		}
		return Stack{Offset: off}
	}

	rewrite := func(op Operand) Operand {
		if p, ok := op.(Pseudo); ok {
			return slotFor(p.Name)
		}
		return op
	}

	for i, in := range fn.Instrs {
		fn.Instrs[i] = rewriteOperands(in, rewrite)
	}

	if maxOffset > 0 {
		fn.Instrs = append([]Instr{AllocateStack{Size: maxOffset}}, fn.Instrs...)
	}
}

// rewriteOperands applies f to every operand slot of in, returning the
// (possibly new) instruction. Instructions with no operand slots pass
// through unchanged.
func rewriteOperands(in Instr, f func(Operand) Operand) Instr {
	switch in := in.(type) {
	case Mov:
		return Mov{Src: f(in.Src), Dst: f(in.Dst)}
	case UnaryInstr:
		return UnaryInstr{Op: in.Op, Dst: f(in.Dst)}
	case BinaryInstr:
		return BinaryInstr{Op: in.Op, Src: f(in.Src), Dst: f(in.Dst)}
	case Cmp:
		return Cmp{A: f(in.A), B: f(in.B)}
	case Idiv:
		return Idiv{Src: f(in.Src)}
	case SetCC:
		return SetCC{Cond: in.Cond, Dst: f(in.Dst)}
	case Cdq, Jmp, JmpCC, Label, AllocateStack, Ret:
		return in
	default:
		return in
	}
}
