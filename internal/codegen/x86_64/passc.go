package x86_64

// Legalize rewrites fn's instruction list so every surviving form is
// encodable by the target ISA, applying the first matching rule to each
// instruction in one forward pass. R10 and R11 are reserved exclusively
// for this pass's shuttles; no live value is ever held in them across
// instructions.
func Legalize(fn *Function) {
	var out []Instr
	emit := func(i Instr) { out = append(out, i) }

	isStack := func(op Operand) bool { _, ok := op.(Stack); return ok }
	isImm := func(op Operand) bool { _, ok := op.(Imm); return ok }

	for _, in := range fn.Instrs {
		switch in := in.(type) {
		case Mov:
			if isStack(in.Src) && isStack(in.Dst) {
				emit(Mov{Src: in.Src, Dst: R10})
				emit(Mov{Src: R10, Dst: in.Dst})
				continue
			}
			emit(in)

		case Cmp:
			switch {
			case isImm(in.B):
				emit(Mov{Src: in.B, Dst: R11})
				emit(Cmp{A: in.A, B: R11})
			case isStack(in.A) && isStack(in.B):
				emit(Mov{Src: in.A, Dst: R10})
				emit(Cmp{A: R10, B: in.B})
			default:
				emit(in)
			}

		case Idiv:
			if isImm(in.Src) {
				emit(Mov{Src: in.Src, Dst: R10})
				emit(Idiv{Src: R10})
				continue
			}
			emit(in)

		case BinaryInstr:
			switch {
			case in.Op == Mul && isStack(in.Dst):
				emit(Mov{Src: in.Dst, Dst: R11})
				emit(BinaryInstr{Op: Mul, Src: in.Src, Dst: R11})
				emit(Mov{Src: R11, Dst: in.Dst})
			case (in.Op == Add || in.Op == Sub) && isStack(in.Src) && isStack(in.Dst):
				emit(Mov{Src: in.Src, Dst: R10})
				emit(BinaryInstr{Op: in.Op, Src: R10, Dst: in.Dst})
			default:
				emit(in)
			}

		default:
			emit(in)
		}
	}

	fn.Instrs = out
}
