package asm

import (
	"fmt"
	"strings"

	"github.com/Xgames123/nna/pkg/nna"
)

// RefType selects how a resolved label address is narrowed into an
// operand slot.
type RefType uint8

const (
	// RefFull is the whole address byte.
	RefFull RefType = iota
	// RefLow is the low nibble of the address.
	RefLow
	// RefHigh is the high nibble of the address.
	RefHigh
)

// Mask narrows addr per the ref type. Nibble refs land in the low four
// bits of the result.
func (r RefType) Mask(addr uint8) uint8 {
	switch r {
	case RefLow:
		return addr & 0x0F
	case RefHigh:
		return addr >> 4 & 0x0F
	default:
		return addr
	}
}

// IsFull reports whether the ref keeps the whole byte.
func (r RefType) IsFull() bool {
	return r == RefFull
}

// ValueTok is an 8-bit (or, inside an operand slot, narrower) value:
// either a constant or a reference to a label, resolved at codegen.
type ValueTok struct {
	Label string // empty for constants
	Ref   RefType
	Const uint8
}

// IsRef reports whether the value awaits label resolution.
func (v ValueTok) IsRef() bool {
	return v.Label != ""
}

// OpTok is one assembled operation. With Label set, Byte carries only the
// opcode bits and the low nibble is zero pending resolution.
type OpTok struct {
	Byte  uint8
	Label string
	Ref   RefType
}

// TokenKind tags the parser's token union.
type TokenKind uint8

const (
	TokOrg TokenKind = iota
	TokBank
	TokLabelDef
	TokValue
	TokOp
	TokReachable
	TokBytes
	TokIncludeBytes
	TokArch
	TokAssertMaxDist
)

// Token is one parsed element of the instruction stream. Which fields are
// meaningful depends on Kind.
type Token struct {
	Kind  TokenKind
	Addr  uint8            // Org start address, Bank index, AssertMaxDist distance
	Name  string           // LabelDef identifier
	Value ValueTok         // Value, Reachable, AssertMaxDist start
	Op    OpTok            // Op
	Bytes []byte           // Bytes
	Path  string           // IncludeBytes
	Arch  nna.Architecture // Arch
}

type parser struct {
	tok       *Tokenizer
	arch      nna.Architecture
	parsedOps bool
}

// Parse turns source text into the typed token stream, dispatching
// mnemonics through arch's instruction table until an .arch directive
// switches it. The first error aborts the parse.
func Parse(src string, arch nna.Architecture) ([]Located[Token], *Diagnostic) {
	p := &parser{tok: NewTokenizer(src), arch: arch}
	var out []Located[Token]
	for {
		lexeme, ok := p.tok.Next()
		if !ok {
			return out, nil
		}
		token, err := p.parseOne(lexeme)
		if err != nil {
			return nil, err
		}
		out = append(out, token)
	}
}

func (p *parser) parseOne(lexeme string) (Located[Token], *Diagnostic) {
	loc := p.tok.Location()
	if strings.HasPrefix(lexeme, ".") {
		return p.parseDirective(lexeme[1:])
	}
	if strings.HasSuffix(lexeme, ":") {
		name, ok := parseIdentifier(lexeme[:len(lexeme)-1])
		if !ok {
			return Located[Token]{}, errAt("Invalid label name.", loc)
		}
		return At(Token{Kind: TokLabelDef, Name: name}, loc), nil
	}
	if value, ok, err := parseValue8(lexeme, loc); err != nil {
		return Located[Token]{}, err
	} else if ok {
		return At(Token{Kind: TokValue, Value: value.Value}, value.Loc), nil
	}
	op, err := p.parseOp(lexeme)
	if err != nil {
		return Located[Token]{}, err
	}
	p.parsedOps = true
	return At(Token{Kind: TokOp, Op: op.Value}, op.Loc), nil
}

func errAt(msg string, loc Location) *Diagnostic {
	return &Diagnostic{Loc: loc, Message: msg}
}

// parseIdentifier validates a label name: alphabetic characters and '_'
// only.
func parseIdentifier(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	for _, c := range s {
		if !isAlpha(c) && c != '_' {
			return "", false
		}
	}
	return s, true
}

func isAlpha(c rune) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// parseValue8 classifies a lexeme as an 8-bit value: a 0x/0b literal or a
// &label reference with an optional .low/.high suffix. A lexeme that is
// neither reports ok=false without an error.
func parseValue8(lexeme string, loc Location) (Located[ValueTok], bool, *Diagnostic) {
	switch {
	case strings.HasPrefix(lexeme, "0x"):
		v, ok := nna.ParseHex8(lexeme[2:])
		if !ok {
			return Located[ValueTok]{}, false, errAt("Invalid 8 bit hex literal.", loc)
		}
		return At(ValueTok{Const: v}, loc), true, nil
	case strings.HasPrefix(lexeme, "0b"):
		v, ok := nna.ParseBin8(lexeme[2:])
		if !ok {
			return Located[ValueTok]{}, false, errAt("Invalid 8 bit binary literal.", loc)
		}
		return At(ValueTok{Const: v}, loc), true, nil
	case strings.HasPrefix(lexeme, "&"):
		name := lexeme[1:]
		ref := RefFull
		if strings.HasSuffix(name, ".low") {
			name, ref = name[:len(name)-4], RefLow
		} else if strings.HasSuffix(name, ".high") {
			name, ref = name[:len(name)-5], RefHigh
		}
		ident, ok := parseIdentifier(name)
		if !ok {
			return Located[ValueTok]{}, false, errAt("Label ref contains invalid characters.", loc)
		}
		return At(ValueTok{Label: ident, Ref: ref}, loc), true, nil
	}
	return Located[ValueTok]{}, false, nil
}

func (p *parser) nextSameLineOr(msg string) (string, Location, *Diagnostic) {
	lexeme, ok := p.tok.NextSameLine()
	if !ok {
		return "", Location{}, errAt(msg, p.tok.Location())
	}
	return lexeme, p.tok.Location(), nil
}

// parseNextHex8 reads a directive argument that must be an 8-bit hex
// literal with the 0x prefix.
func (p *parser) parseNextHex8() (Located[uint8], *Diagnostic) {
	lexeme, loc, err := p.nextSameLineOr("Expected an 8 bit constant value after this.")
	if err != nil {
		return Located[uint8]{}, err
	}
	if !strings.HasPrefix(lexeme, "0x") {
		return Located[uint8]{}, errAt("Expected an 8 bit constant value.", loc)
	}
	v, ok := nna.ParseHex8(lexeme[2:])
	if !ok {
		return Located[uint8]{}, errAt("Invalid 8 bit hex literal.", loc)
	}
	return At(v, loc), nil
}

func (p *parser) parseNextValue8() (Located[ValueTok], *Diagnostic) {
	lexeme, loc, err := p.nextSameLineOr("Expected an 8 bit value after this.")
	if err != nil {
		return Located[ValueTok]{}, err
	}
	value, ok, verr := parseValue8(lexeme, loc)
	if verr != nil {
		return Located[ValueTok]{}, verr
	}
	if !ok {
		return Located[ValueTok]{}, errAt("Expected an 8 bit value.", loc)
	}
	return value, nil
}

// parseNextString reads a double-quoted directive argument and returns
// its contents without the quotes.
func (p *parser) parseNextString() (Located[string], *Diagnostic) {
	lexeme, loc, err := p.nextSameLineOr("Expected a string literal after this.")
	if err != nil {
		return Located[string]{}, err
	}
	if !strings.HasPrefix(lexeme, "\"") {
		return Located[string]{}, errAt("Expected a string literal.", loc)
	}
	if len(lexeme) < 2 || !strings.HasSuffix(lexeme, "\"") {
		return Located[string]{}, errAt("String doesn't have an ending '\"'.", loc)
	}
	return At(lexeme[1:len(lexeme)-1], loc), nil
}

func (p *parser) parseDirective(name string) (Located[Token], *Diagnostic) {
	loc := p.tok.Location()
	switch name {
	case "org":
		addr, err := p.parseNextHex8()
		if err != nil {
			return Located[Token]{}, err
		}
		return At(Token{Kind: TokOrg, Addr: addr.Value}, loc.Combine(addr.Loc)), nil

	case "bank":
		if !p.arch.SupportsBanks() {
			return Located[Token]{}, errAt(
				fmt.Sprintf("Architecture %s does not support banks.", p.arch), loc)
		}
		num, err := p.parseNextHex8()
		if err != nil {
			return Located[Token]{}, err
		}
		return At(Token{Kind: TokBank, Addr: num.Value}, loc.Combine(num.Loc)), nil

	case "arch":
		if p.parsedOps {
			return Located[Token]{}, errAt(
				"Can't switch architecture after operations have been parsed.", loc)
		}
		name, err := p.parseNextString()
		if err != nil {
			return Located[Token]{}, err
		}
		arch, ok := nna.ParseArchitecture(name.Value)
		if !ok {
			return Located[Token]{}, errAt("Unknown architecture.", name.Loc)
		}
		p.arch = arch
		return At(Token{Kind: TokArch, Arch: arch}, loc.Combine(name.Loc)), nil

	case "reachable":
		value, err := p.parseNextValue8()
		if err != nil {
			return Located[Token]{}, err
		}
		return At(Token{Kind: TokReachable, Value: value.Value}, loc.Combine(value.Loc)), nil

	case "include_bytes":
		path, err := p.parseNextString()
		if err != nil {
			return Located[Token]{}, err
		}
		return At(Token{Kind: TokIncludeBytes, Path: path.Value}, loc.Combine(path.Loc)), nil

	case "assert_max_dist":
		if p.arch != nna.Nna8v1 {
			return Located[Token]{}, errAt("Unknown compiler directive.", loc)
		}
		start, err := p.parseNextValue8()
		if err != nil {
			return Located[Token]{}, err
		}
		dist, err := p.parseNextHex8()
		if err != nil {
			return Located[Token]{}, err
		}
		return At(Token{
			Kind:  TokAssertMaxDist,
			Value: start.Value,
			Addr:  dist.Value,
		}, loc.Combine(dist.Loc)), nil
	}
	return Located[Token]{}, errAt("Unknown compiler directive.", loc)
}

// parseOp assembles one operation through the current architecture table.
func (p *parser) parseOp(mnemonic string) (Located[OpTok], *Diagnostic) {
	loc := p.tok.Location()
	spec, ok := p.arch.LookupOp(mnemonic)
	if !ok {
		return Located[OpTok]{}, errAt(
			fmt.Sprintf("Unknown operation for architecture %s.", p.arch), loc)
	}

	switch spec.Ops.Kind {
	case nna.OpsNone:
		return At(OpTok{Byte: spec.Code}, loc), nil

	case nna.OpsBig:
		if spec.Ops.A.Kind == nna.ArgConst {
			bits, argLoc, err := p.parseNextConst(spec.Ops.A.Const)
			if err != nil {
				return Located[OpTok]{}, err
			}
			return At(OpTok{Byte: spec.Code | bits}, loc.Combine(argLoc)), nil
		}
		value, err := p.parseNextValue4()
		if err != nil {
			return Located[OpTok]{}, err
		}
		if value.Value.IsRef() {
			if value.Value.Ref.IsFull() {
				return Located[OpTok]{}, errAt(
					"Can't fit a full 8 bit reference into 4 bits. Use a .low or .high suffix.",
					value.Loc)
			}
			return At(OpTok{
				Byte:  spec.Code,
				Label: value.Value.Label,
				Ref:   value.Value.Ref,
			}, loc.Combine(value.Loc)), nil
		}
		return At(OpTok{Byte: spec.Code | value.Value.Const}, loc.Combine(value.Loc)), nil

	default: // OpsPair
		span := loc
		var low uint8
		for _, arg := range []struct {
			arg   nna.Arg
			shift uint8
		}{{spec.Ops.A, 2}, {spec.Ops.B, 0}} {
			switch arg.arg.Kind {
			case nna.ArgNone:
				// padding bits stay as declared in the opcode byte
			case nna.ArgConst:
				bits, argLoc, err := p.parseNextConst(arg.arg.Const)
				if err != nil {
					return Located[OpTok]{}, err
				}
				low |= bits << arg.shift
				span = span.Combine(argLoc)
			case nna.ArgValue:
				bits, argLoc, err := p.parseNextValue2(arg.arg.NZ)
				if err != nil {
					return Located[OpTok]{}, err
				}
				low |= bits << arg.shift
				span = span.Combine(argLoc)
			}
		}
		return At(OpTok{Byte: spec.Code | low}, span), nil
	}
}

func (p *parser) parseNextConst(c nna.ConstArg) (uint8, Location, *Diagnostic) {
	lexeme, loc, err := p.nextSameLineOr(
		fmt.Sprintf("Expected a '%s' argument after this.", c.Name))
	if err != nil {
		return 0, Location{}, err
	}
	bits, ok := c.Match(lexeme)
	if !ok {
		return 0, Location{}, errAt(
			fmt.Sprintf("Invalid '%s' argument.", c.Name), loc)
	}
	return bits, loc, nil
}

func (p *parser) parseNextValue4() (Located[ValueTok], *Diagnostic) {
	lexeme, loc, err := p.nextSameLineOr("Expected a 4 bit value after this.")
	if err != nil {
		return Located[ValueTok]{}, err
	}
	switch {
	case strings.HasPrefix(lexeme, "0x"):
		v, ok := nna.ParseHexU4(lexeme[2:])
		if !ok {
			return Located[ValueTok]{}, errAt("Invalid 4 bit hex literal.", loc)
		}
		return At(ValueTok{Const: v.Low()}, loc), nil
	case strings.HasPrefix(lexeme, "0b"):
		v, ok := nna.ParseBinU4(lexeme[2:])
		if !ok {
			return Located[ValueTok]{}, errAt("Invalid 4 bit binary literal.", loc)
		}
		return At(ValueTok{Const: v.Low()}, loc), nil
	case strings.HasPrefix(lexeme, "&"):
		value, ok, verr := parseValue8(lexeme, loc)
		if verr != nil {
			return Located[ValueTok]{}, verr
		}
		if ok {
			return value, nil
		}
	}
	return Located[ValueTok]{}, errAt("Expected a 4 bit value.", loc)
}

// parseNextValue2 reads a 2-bit operand. Label references are rejected:
// two bits can't hold any part of an address without silent truncation.
// With nz the value must be in 1..=4 and encodes as value-1.
func (p *parser) parseNextValue2(nz bool) (uint8, Location, *Diagnostic) {
	lexeme, loc, err := p.nextSameLineOr("Expected a 2 bit value after this.")
	if err != nil {
		return 0, Location{}, err
	}
	if strings.HasPrefix(lexeme, "&") {
		return 0, Location{}, errAt("A label reference can't be used as a 2 bit value.", loc)
	}
	max := uint64(3)
	if nz {
		max = 4
	}
	var v uint64
	var ok bool
	switch {
	case strings.HasPrefix(lexeme, "0x"):
		v, ok = nna.ParseHex(lexeme[2:], max)
	case strings.HasPrefix(lexeme, "0b"):
		v, ok = nna.ParseBin(lexeme[2:], max)
	}
	if !ok {
		return 0, Location{}, errAt("Expected a 2 bit value.", loc)
	}
	if nz {
		if v == 0 {
			return 0, Location{}, errAt("Value must be in range 1..=4.", loc)
		}
		v--
	}
	return uint8(v), loc, nil
}
