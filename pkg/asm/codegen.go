package asm

import "fmt"

// Region is a finalized .org region: a contiguous byte range within one
// bank.
type Region struct {
	Start uint8
	Bank  uint8
	Size  uint8
}

func (r Region) String() string {
	return fmt.Sprintf(".org %#04x ; size: %#04x", r.Start, r.Size)
}

// Overlap reports whether two regions in the same bank intersect, with
// [start, start+size) half-open.
func (r Region) Overlap(other Region) bool {
	if r.Bank != other.Bank {
		return false
	}
	return int(r.Start) < int(other.Start)+int(other.Size) &&
		int(other.Start) < int(r.Start)+int(r.Size)
}

// regionBuilder accumulates bytes for the in-flight .org region.
type regionBuilder struct {
	start uint8
	bank  uint8
	loc   Location // the introducing .org directive
	data  []byte
}

// addr is the absolute offset the next byte lands on.
func (b *regionBuilder) addr() uint8 {
	return b.start + uint8(len(b.data))
}

type symbol struct {
	bank uint8
	addr uint8
}

type pendingRef struct {
	bank uint8
	addr uint8
	name string
	ref  RefType
	loc  Location
}

type reachableCheck struct {
	end  uint8 // address just past the last emitted byte
	name string
	ref  RefType
	loc  Location
}

type maxDistCheck struct {
	end  uint8
	name string
	ref  RefType
	dist uint8
	loc  Location
}

type generator struct {
	image       Image
	labels      map[string]symbol
	refs        []pendingRef
	reachables  []reachableCheck
	maxDists    []maxDistCheck
	currentBank uint8
	region      *regionBuilder
	completed   []Region
}

// Generate walks the token stream in order, lays down non-overlapping
// regions across banks, resolves labels, and evaluates the queued
// assertions.
func Generate(tokens []Located[Token]) (Image, *Diagnostic) {
	g := &generator{
		image:  Image{Bank{}},
		labels: make(map[string]symbol),
	}
	for _, token := range tokens {
		if err := g.handle(token); err != nil {
			return nil, err
		}
	}
	if err := g.finalize(); err != nil {
		return nil, err
	}
	if err := g.patchRefs(); err != nil {
		return nil, err
	}
	if err := g.runChecks(); err != nil {
		return nil, err
	}
	return g.image, nil
}

func (g *generator) handle(token Located[Token]) *Diagnostic {
	switch token.Value.Kind {
	case TokArch:
		return nil
	case TokOrg:
		if err := g.finalize(); err != nil {
			return err
		}
		g.region = &regionBuilder{
			start: token.Value.Addr,
			bank:  g.currentBank,
			loc:   token.Loc,
		}
		return nil
	case TokBank:
		if err := g.finalize(); err != nil {
			return err
		}
		g.region = nil
		g.currentBank = token.Value.Addr
		return nil
	}

	if g.region == nil {
		return errAt("Everything needs to be defined inside an .org region, "+
			"otherwise the assembler can't know where to put it in the output binary.",
			token.Loc)
	}

	switch token.Value.Kind {
	case TokLabelDef:
		g.labels[token.Value.Name] = symbol{bank: g.currentBank, addr: g.region.addr()}

	case TokValue:
		v := token.Value.Value
		if v.IsRef() {
			g.refs = append(g.refs, pendingRef{
				bank: g.currentBank,
				addr: g.region.addr(),
				name: v.Label,
				ref:  v.Ref,
				loc:  token.Loc,
			})
			g.region.data = append(g.region.data, 0)
		} else {
			g.region.data = append(g.region.data, v.Const)
		}

	case TokBytes:
		g.region.data = append(g.region.data, token.Value.Bytes...)

	case TokOp:
		op := token.Value.Op
		if op.Label != "" {
			g.refs = append(g.refs, pendingRef{
				bank: g.currentBank,
				addr: g.region.addr(),
				name: op.Label,
				ref:  op.Ref,
				loc:  token.Loc,
			})
		}
		g.region.data = append(g.region.data, op.Byte)

	case TokReachable:
		v := token.Value.Value
		if v.IsRef() {
			g.reachables = append(g.reachables, reachableCheck{
				end:  g.region.addr(),
				name: v.Label,
				ref:  v.Ref,
				loc:  token.Loc,
			})
		} else if !checkReachable(g.region.addr(), v.Const) {
			return reachableFailed(g.region.addr(), v.Const, token.Loc)
		}

	case TokAssertMaxDist:
		v := token.Value.Value
		if v.IsRef() {
			g.maxDists = append(g.maxDists, maxDistCheck{
				end:  g.region.addr(),
				name: v.Label,
				ref:  v.Ref,
				dist: token.Value.Addr,
				loc:  token.Loc,
			})
		} else if err := checkMaxDist(g.region.addr(), v.Const, token.Value.Addr, token.Loc); err != nil {
			return err
		}

	case TokIncludeBytes:
		return errAt("Include was not resolved before code generation.", token.Loc)
	}
	return nil
}

// finalize closes the in-flight region: checks overlap against every
// completed region in the same bank, then copies its bytes into the image.
func (g *generator) finalize() *Diagnostic {
	if g.region == nil {
		return nil
	}
	b := g.region
	g.region = nil
	if int(b.start)+len(b.data) > 256 {
		return errAt("Region runs past the end of the bank.", b.loc)
	}
	region := Region{Start: b.start, Bank: b.bank, Size: uint8(len(b.data))}
	for _, other := range g.completed {
		if region.Overlap(other) {
			return errAt(fmt.Sprintf("This org (%s) overlaps with: %s", region, other), b.loc)
		}
	}
	g.growTo(b.bank)
	copy(g.image[b.bank][b.start:], b.data)
	g.completed = append(g.completed, region)
	return nil
}

// growTo extends the image so bank is addressable, zero-filling new banks.
func (g *generator) growTo(bank uint8) {
	for int(bank) >= len(g.image) {
		g.image = append(g.image, Bank{})
	}
}

// patchRefs resolves every queued label reference. The referenced slot's
// low nibble was pre-zeroed (full-byte slots are entirely zero), so OR
// fills it without disturbing the opcode bits already present.
func (g *generator) patchRefs() *Diagnostic {
	for _, ref := range g.refs {
		sym, ok := g.labels[ref.name]
		if !ok {
			return labelNotDefined(ref.name, ref.loc)
		}
		g.growTo(ref.bank)
		g.image[ref.bank][ref.addr] |= ref.ref.Mask(sym.addr)
	}
	return nil
}

func (g *generator) runChecks() *Diagnostic {
	for _, check := range g.reachables {
		sym, ok := g.labels[check.name]
		if !ok {
			return labelNotDefined(check.name, check.loc)
		}
		target := check.ref.Mask(sym.addr)
		if !checkReachable(check.end, target) {
			return reachableFailed(check.end, target, check.loc)
		}
	}
	for _, check := range g.maxDists {
		sym, ok := g.labels[check.name]
		if !ok {
			return labelNotDefined(check.name, check.loc)
		}
		start := check.ref.Mask(sym.addr)
		if err := checkMaxDist(check.end, start, check.dist, check.loc); err != nil {
			return err
		}
	}
	return nil
}

// checkReachable reports whether the byte just emitted sits in the same
// 16-byte page as start. end points one past that byte, hence the -1.
func checkReachable(end, start uint8) bool {
	here := end
	if here > 0 {
		here--
	}
	return here&0xF0 == start&0xF0
}

func checkMaxDist(end, start, dist uint8, loc Location) *Diagnostic {
	actual := int(end) - int(start)
	if actual < 0 {
		actual = -actual
	}
	if actual > int(dist) {
		return errAt(fmt.Sprintf("Max distance assertion failed. Distance was %#04x.", actual), loc)
	}
	return nil
}

func reachableFailed(end, start uint8, loc Location) *Diagnostic {
	here := end
	if here > 0 {
		here--
	}
	return errAt(fmt.Sprintf(
		"Reachable assertion failed: %#04x is not in the same 16 byte page as %#04x.",
		start, here), loc)
}

func labelNotDefined(name string, loc Location) *Diagnostic {
	return errAt(fmt.Sprintf("Label '%s' is not defined.", name), loc)
}
