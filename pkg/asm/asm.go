package asm

import "github.com/Xgames123/nna/pkg/nna"

// Assemble runs the whole pipeline over one source text: tokenize, parse
// against arch's instruction table, resolve includes, generate code. The
// first error aborts and comes back as a *Diagnostic carrying filename
// and source span; no partial image is produced.
func Assemble(filename, source string, arch nna.Architecture) (Image, *Diagnostic) {
	tokens, err := Parse(source, arch)
	if err != nil {
		err.Filename = filename
		return nil, err
	}
	if err := ResolveIncludes(tokens); err != nil {
		err.Filename = filename
		return nil, err
	}
	image, err := Generate(tokens)
	if err != nil {
		err.Filename = filename
		return nil, err
	}
	return image, nil
}
