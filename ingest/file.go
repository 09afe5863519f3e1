// Package ingest holds the adapters that turn files, directories and
// repository references into source units. They are the only code that
// touches the filesystem; the engine never does.
package ingest

import (
	"io"
	"os"

	"github.com/c360studio/codeguardian/source"
)

// ReadFile reads path into a Unit. The language is taken from the file
// extension, falling back to fallback (DefaultLanguage when empty).
// Undecodable bytes never fail the read; an unopenable path returns *IOError.
func ReadFile(path string, fallback source.Language) (source.Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return source.Unit{}, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return source.Unit{}, &IOError{Op: "read", Path: path, Err: err}
	}

	lang, ok := source.LanguageForPath(path)
	if !ok {
		lang = fallback
	}
	return source.NewUnit(source.Decode(raw), lang, path), nil
}
