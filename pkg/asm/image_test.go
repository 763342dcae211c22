package asm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageRaw(t *testing.T) {
	img := Image{Bank{}, Bank{}}
	img[0][0] = 0xAA
	img[1][255] = 0xBB

	raw := img.Raw()
	assert.Len(t, raw, 512)
	assert.Equal(t, uint8(0xAA), raw[0])
	assert.Equal(t, uint8(0xBB), raw[511])
}

func TestImageHexDump(t *testing.T) {
	img := Image{Bank{}}
	img[0][0] = 0x22
	img[0][1] = 0x14
	img[0][2] = 0x14

	dump := img.HexDump()
	lines := strings.Split(dump, "\n")
	assert.Equal(t, "v2.0 raw", lines[0])
	assert.Equal(t, "22 2*14 253*00", lines[1])
}

func TestImageHexDumpWraps(t *testing.T) {
	img := Image{Bank{}}
	for i := 0; i < 16; i++ {
		img[0][i] = uint8(i + 1)
	}
	lines := strings.Split(img.HexDump(), "\n")
	assert.Equal(t, "01 02 03 04 05 06 07 08", lines[1])
	assert.Equal(t, "09 0a 0b 0c 0d 0e 0f 10", lines[2])
	assert.Equal(t, "240*00", lines[3])
}

func TestImageMemUsage(t *testing.T) {
	img := Image{Bank{}}
	start, end := img.MemUsage()
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)

	img[0][0x10] = 1
	img[0][0x20] = 2
	start, end = img.MemUsage()
	assert.Equal(t, 0x10, start)
	assert.Equal(t, 0x21, end)
}
