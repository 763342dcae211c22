package asm

import (
	"fmt"
	"strings"
)

// Bank is one 256-byte addressable region.
type Bank [256]byte

// Image is the assembled output: one bank for V1, up to 256 for V2.
type Image []Bank

// Raw concatenates all banks.
func (img Image) Raw() []byte {
	out := make([]byte, 0, len(img)*256)
	for _, bank := range img {
		out = append(out, bank[:]...)
	}
	return out
}

// HexDump renders the image as a hex dump with run-length
// compression: a "v2.0 raw" header line, then one entry per byte run,
// "N*HH" when a byte repeats N>1 times, eight entries per line.
func (img Image) HexDump() string {
	var out strings.Builder
	out.WriteString("v2.0 raw\n")
	raw := img.Raw()

	entries := 0
	for i := 0; i < len(raw); {
		run := 1
		for i+run < len(raw) && raw[i+run] == raw[i] {
			run++
		}
		if entries > 0 {
			if entries%8 == 0 {
				out.WriteByte('\n')
			} else {
				out.WriteByte(' ')
			}
		}
		if run > 1 {
			fmt.Fprintf(&out, "%d*%02x", run, raw[i])
		} else {
			fmt.Fprintf(&out, "%02x", raw[i])
		}
		entries++
		i += run
	}
	out.WriteByte('\n')
	return out.String()
}

// MemUsage returns the used byte span of the image: the offsets of the
// first and one past the last non-zero byte. An all-zero image spans 0..0.
func (img Image) MemUsage() (start, end int) {
	raw := img.Raw()
	first, last := -1, -1
	for i, b := range raw {
		if b != 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return 0, 0
	}
	return first, last + 1
}
