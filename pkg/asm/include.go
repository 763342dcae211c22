package asm

import (
	"errors"
	"io/fs"
	"os"
)

// ResolveIncludes replaces every IncludeBytes token in place with a Bytes
// token holding the file's contents. Paths resolve against the process
// working directory. I/O failures become diagnostics anchored at the
// directive's span.
func ResolveIncludes(tokens []Located[Token]) *Diagnostic {
	for i := range tokens {
		if tokens[i].Value.Kind != TokIncludeBytes {
			continue
		}
		data, err := os.ReadFile(tokens[i].Value.Path)
		if err != nil {
			msg := "File not found."
			if !errors.Is(err, fs.ErrNotExist) {
				var pathErr *fs.PathError
				if errors.As(err, &pathErr) {
					msg = pathErr.Err.Error()
				} else {
					msg = err.Error()
				}
			}
			return errAt(msg, tokens[i].Loc)
		}
		tokens[i].Value = Token{Kind: TokBytes, Bytes: data}
	}
	return nil
}
