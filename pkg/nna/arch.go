package nna

import "strings"

// Architecture selects one of the NNA instruction sets.
type Architecture uint8

const (
	Nna8v1 Architecture = iota
	Nna8v2
)

// ParseArchitecture resolves an architecture name as used by the .arch
// directive and the CLI.
func ParseArchitecture(s string) (Architecture, bool) {
	switch s {
	case "nna8v1":
		return Nna8v1, true
	case "nna8v2":
		return Nna8v2, true
	}
	return 0, false
}

func (a Architecture) String() string {
	switch a {
	case Nna8v1:
		return "nna8v1"
	case Nna8v2:
		return "nna8v2"
	}
	return "unknown"
}

// SupportsBanks reports whether the architecture has bank switching and
// therefore accepts the .bank directive.
func (a Architecture) SupportsBanks() bool {
	return a == Nna8v2
}

// AddressableSize is how many bytes of memory the architecture can address.
func (a Architecture) AddressableSize() int {
	switch a {
	case Nna8v2:
		return 65536
	default:
		return 256
	}
}

// Table returns the architecture's instruction table.
func (a Architecture) Table() []OpSpec {
	switch a {
	case Nna8v2:
		return Nna8v2Ops
	default:
		return Nna8v1Ops
	}
}

// LookupOp finds the instruction spec for a mnemonic. Lookup is
// case-sensitive; names starting with '?' are reserved placeholders and
// never match.
func (a Architecture) LookupOp(name string) (OpSpec, bool) {
	if strings.HasPrefix(name, "?") {
		return OpSpec{}, false
	}
	for _, op := range a.Table() {
		if op.Name == name {
			return op, true
		}
	}
	return OpSpec{}, false
}

// ArgKind classifies one operand slot.
type ArgKind uint8

const (
	// ArgNone is padding, encoded as 0.
	ArgNone ArgKind = iota
	// ArgValue is a raw immediate: 2 bits in a pair slot, 4 bits in a big
	// slot. NZ values must be in 1..=4 and are stored as value-1.
	ArgValue
	// ArgConst is an enumerated name; the matched variant index is the
	// slot's bit value.
	ArgConst
)

// ConstArg is an enumerated operand. "?" variants are reserved and reject
// any match.
type ConstArg struct {
	Name     string
	Variants []string
}

// Match returns the bit value for a variant name.
func (c ConstArg) Match(s string) (uint8, bool) {
	for i, v := range c.Variants {
		if v == "?" {
			continue
		}
		if v == s {
			return uint8(i), true
		}
	}
	return 0, false
}

// RegArg is the register operand: r0..r3, encoded 0..3.
var RegArg = ConstArg{
	Name:     "reg",
	Variants: []string{"r0", "r1", "r2", "r3"},
}

// CalArg selects the ALU operation of V2's mco.
var CalArg = ConstArg{
	Name: "co",
	Variants: []string{
		"add", "sub", "mul", "div", "shl", "shr", "rol", "ror", "and", "or",
	},
}

// Arg is one declared operand slot.
type Arg struct {
	Desc  string
	Kind  ArgKind
	NZ    bool
	Const ConstArg
}

// OperandsKind is the overall operand shape of an instruction.
type OperandsKind uint8

const (
	// OpsNone takes no operands.
	OpsNone OperandsKind = iota
	// OpsBig takes one operand occupying the full low nibble.
	OpsBig
	// OpsPair takes two operands, each in one 2-bit slot of the low nibble.
	OpsPair
)

// Operands describes how an instruction's low nibble is filled. For
// OpsBig only A is set; for OpsPair A is bits 3:2 and B is bits 1:0.
type Operands struct {
	Kind OperandsKind
	A, B Arg
}

func noOps() Operands {
	return Operands{Kind: OpsNone}
}

func bigValue(desc string) Operands {
	return Operands{Kind: OpsBig, A: Arg{Desc: desc, Kind: ArgValue}}
}

func bigConst(desc string, c ConstArg) Operands {
	return Operands{Kind: OpsBig, A: Arg{Desc: desc, Kind: ArgConst, Const: c}}
}

func pair(a, b Arg) Operands {
	return Operands{Kind: OpsPair, A: a, B: b}
}

func reg(desc string) Arg {
	return Arg{Desc: desc, Kind: ArgConst, Const: RegArg}
}

func pad() Arg {
	return Arg{Kind: ArgNone}
}

func bit2nz(desc string) Arg {
	return Arg{Desc: desc, Kind: ArgValue, NZ: true}
}

// OpSpec is one instruction: mnemonic, opcode byte (operand bits clear),
// and operand shape.
type OpSpec struct {
	Name string
	Code uint8
	Ops  Operands
}

// Nna8v1Ops is the single-bank V1 instruction set.
var Nna8v1Ops = []OpSpec{
	{"nop", 0x00, noOps()},
	{"brk", 0x04, noOps()},
	{"flf", 0x08, noOps()},
	{"clf", 0x0C, noOps()},
	{"jmp", 0x01, pair(reg("addr"), pad())},
	{"inc", 0x02, pair(reg("reg"), pad())},
	{"dec", 0x03, pair(reg("reg"), pad())},
	{"lil", 0x10, bigValue("value")},
	{"lih", 0x20, bigValue("value")},
	{"mwr", 0x30, pair(reg("reg"), reg("addr"))},
	{"mrd", 0x40, pair(reg("reg"), reg("addr"))},
	{"mov", 0x50, pair(reg("dest"), reg("source"))},
	{"bra", 0x60, bigValue("addr")},
	{"rol", 0x70, pair(reg("a"), reg("b"))},
	{"eq", 0x80, pair(reg("a"), reg("b"))},
	{"gt", 0x90, pair(reg("a"), reg("b"))},
	{"add", 0xA0, pair(reg("source"), reg("a"))},
	{"mul", 0xB0, pair(reg("source"), reg("a"))},
	{"and", 0xC0, pair(reg("source"), reg("a"))},
	{"not", 0xD0, pair(reg("a"), reg("b"))},
	{"or", 0xE0, pair(reg("source"), reg("a"))},
	{"xor", 0xF0, pair(reg("source"), reg("a"))},
}

// Nna8v2Ops is the banked V2 instruction set.
var Nna8v2Ops = []OpSpec{
	{"nop", 0x00, noOps()},
	{"brk", 0x04, noOps()},
	{"jmp", 0x01, pair(reg("addr"), pad())},
	{"mpb", 0x02, pair(reg("bank"), pad())},
	{"mdb", 0x03, pair(reg("bank"), pad())},
	{"eq", 0x10, pair(reg("a"), reg("b"))},
	{"gt", 0x20, pair(reg("a"), reg("b"))},
	{"flf", 0x30, noOps()},
	{"clf", 0x34, noOps()},
	{"sef", 0x3C, noOps()},
	{"bra", 0x50, bigValue("addr")},
	{"mco", 0x60, bigConst("co", CalArg)},
	{"mwr", 0x70, pair(reg("reg"), reg("addr"))},
	{"mrd", 0x80, pair(reg("reg"), reg("addr"))},
	{"lil", 0x90, bigValue("val")},
	{"lih", 0xA0, bigValue("val")},
	{"mov", 0xB0, pair(reg("dest"), reg("src"))},
	{"cal", 0xC0, pair(reg("a"), reg("b"))},
	{"xor", 0xD0, pair(reg("a"), reg("b"))},
	{"inc", 0xE0, pair(reg("reg"), bit2nz("amount"))},
	{"dec", 0xF0, pair(reg("reg"), bit2nz("amount"))},
}
