package asm

import (
	"testing"

	"github.com/Xgames123/nna/pkg/nna"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOK(t *testing.T, src string, arch nna.Architecture) []Located[Token] {
	t.Helper()
	tokens, err := Parse(src, arch)
	require.Nil(t, err, "parse of %q failed: %v", src, err)
	return tokens
}

func TestParseDirectives(t *testing.T) {
	tokens := parseOK(t, ".arch \"nna8v2\"\n.bank 0x02\n.org 0xAB", nna.Nna8v1)
	require.Len(t, tokens, 3)
	assert.Equal(t, TokArch, tokens[0].Value.Kind)
	assert.Equal(t, nna.Nna8v2, tokens[0].Value.Arch)
	assert.Equal(t, TokBank, tokens[1].Value.Kind)
	assert.Equal(t, uint8(0x02), tokens[1].Value.Addr)
	assert.Equal(t, TokOrg, tokens[2].Value.Kind)
	assert.Equal(t, uint8(0xAB), tokens[2].Value.Addr)
}

func TestParseLabelsAndValues(t *testing.T) {
	tokens := parseOK(t, ".org 0x00\nloop: 0x1F 0b1010_0101 &loop &loop.low &loop.high", nna.Nna8v1)
	require.Len(t, tokens, 7)

	assert.Equal(t, TokLabelDef, tokens[1].Value.Kind)
	assert.Equal(t, "loop", tokens[1].Value.Name)

	assert.Equal(t, ValueTok{Const: 0x1F}, tokens[2].Value.Value)
	assert.Equal(t, ValueTok{Const: 0xA5}, tokens[3].Value.Value)
	assert.Equal(t, ValueTok{Label: "loop", Ref: RefFull}, tokens[4].Value.Value)
	assert.Equal(t, ValueTok{Label: "loop", Ref: RefLow}, tokens[5].Value.Value)
}

func TestParseOps(t *testing.T) {
	tests := []struct {
		name string
		arch nna.Architecture
		src  string
		want uint8
	}{
		{"nullary", nna.Nna8v1, "nop", 0x00},
		{"nullary low bits", nna.Nna8v1, "brk", 0x04},
		{"one reg with padding", nna.Nna8v1, "jmp r2", 0x09},
		{"big value", nna.Nna8v1, "lih 0x2", 0x22},
		{"big value bin", nna.Nna8v1, "lil 0b100", 0x14},
		{"two regs", nna.Nna8v1, "mov r1 r0", 0x54},
		{"alu const", nna.Nna8v2, "mco shr", 0x65},
		{"nz amount", nna.Nna8v2, "inc r3 0x4", 0xEF},
		{"nz amount one", nna.Nna8v2, "dec r0 0x1", 0xF0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := parseOK(t, ".org 0x00\n"+tt.src, tt.arch)
			require.Len(t, tokens, 2)
			require.Equal(t, TokOp, tokens[1].Value.Kind)
			assert.Equal(t, tt.want, tokens[1].Value.Op.Byte)
			assert.Empty(t, tokens[1].Value.Op.Label)
		})
	}
}

func TestParseOpLabelRef(t *testing.T) {
	tokens := parseOK(t, ".org 0x00\nbra &start.low", nna.Nna8v1)
	require.Len(t, tokens, 2)
	op := tokens[1].Value.Op
	assert.Equal(t, uint8(0x60), op.Byte, "low nibble stays clear pending resolution")
	assert.Equal(t, "start", op.Label)
	assert.Equal(t, RefLow, op.Ref)
}

// The opcode's high nibble survives into every assembled byte and the low
// nibble only carries declared operand bits.
func TestOpEncodingPreservesOpcodeBits(t *testing.T) {
	tokens := parseOK(t, ".org 0x00\nmov r3 r3\njmp r3\nlil 0xf", nna.Nna8v1)
	want := []uint8{0x5F, 0x0D, 0x1F}
	require.Len(t, tokens, 4)
	for i, w := range want {
		assert.Equal(t, w, tokens[i+1].Value.Op.Byte)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		arch nna.Architecture
		src  string
		msg  string
		line int
	}{
		{"unknown directive", nna.Nna8v1, ".bogus", "Unknown compiler directive.", 0},
		{"unknown mnemonic", nna.Nna8v1, "mco add", "Unknown operation", 0},
		{"missing org arg", nna.Nna8v1, ".org", "Expected an 8 bit constant value after this.", 0},
		{"org arg next line", nna.Nna8v1, ".org\n0x10", "Expected an 8 bit constant value after this.", 0},
		{"org without prefix", nna.Nna8v1, ".org 10", "Expected an 8 bit constant value.", 0},
		{"hex too wide", nna.Nna8v1, ".org 0x100", "Invalid 8 bit hex literal.", 0},
		{"bad label name", nna.Nna8v1, "1abel:", "Invalid label name.", 0},
		{"bad ref chars", nna.Nna8v1, ".org 0x00\n&l00p", "Label ref contains invalid characters.", 1},
		{"full ref in 4 bit slot", nna.Nna8v1, "bra &start",
			"Can't fit a full 8 bit reference into 4 bits", 0},
		{"ref in 2 bit slot", nna.Nna8v2, "inc r0 &start",
			"A label reference can't be used as a 2 bit value.", 0},
		{"nz zero", nna.Nna8v2, "inc r0 0x0", "Value must be in range 1..=4.", 0},
		{"nz too big", nna.Nna8v2, "inc r0 0x5", "Expected a 2 bit value.", 0},
		{"bad register", nna.Nna8v1, "mov r1 r9", "Invalid 'reg' argument.", 0},
		{"bank on v1", nna.Nna8v1, ".bank 0x01", "does not support banks", 0},
		{"unknown arch", nna.Nna8v1, ".arch \"nna8v3\"", "Unknown architecture.", 0},
		{"arch not a string", nna.Nna8v1, ".arch nna8v2", "Expected a string literal.", 0},
		{"unterminated string", nna.Nna8v1, ".include_bytes \"p.bin",
			"String doesn't have an ending '\"'.", 0},
		{"arch after ops", nna.Nna8v1, "nop\n.arch \"nna8v2\"",
			"Can't switch architecture after operations have been parsed.", 1},
		{"assert_max_dist is v1 only", nna.Nna8v2, ".assert_max_dist 0x00 0x04",
			"Unknown compiler directive.", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, tt.arch)
			require.NotNil(t, err, "parse of %q should fail", tt.src)
			assert.Contains(t, err.Message, tt.msg)
			assert.Equal(t, tt.line, err.Loc.Line)
		})
	}
}

func TestArchSwitchChangesTable(t *testing.T) {
	// mco exists only in V2; the .arch directive switches the dispatch
	// table mid-stream.
	tokens := parseOK(t, ".arch \"nna8v2\"\n.org 0x00\nmco add", nna.Nna8v1)
	require.Len(t, tokens, 3)
	assert.Equal(t, uint8(0x60), tokens[2].Value.Op.Byte)

	_, err := Parse("mco add", nna.Nna8v1)
	require.NotNil(t, err)
}

func TestParseIncludeBytes(t *testing.T) {
	tokens := parseOK(t, ".org 0x00\n.include_bytes \"payload.bin\"", nna.Nna8v1)
	require.Len(t, tokens, 2)
	assert.Equal(t, TokIncludeBytes, tokens[1].Value.Kind)
	assert.Equal(t, "payload.bin", tokens[1].Value.Path)
}

func TestRefTypeMask(t *testing.T) {
	assert.Equal(t, uint8(0xAB), RefFull.Mask(0xAB))
	assert.Equal(t, uint8(0x0B), RefLow.Mask(0xAB))
	assert.Equal(t, uint8(0x0A), RefHigh.Mask(0xAB))
}
