package cli

import (
	"fmt"
	"os"

	"github.com/urdwyrd/urd/internal/world"
)

// Error codes for load failures.
const (
	ErrCodeFileNotFound = "E101"
	ErrCodeBadDocument  = "E102"
	ErrCodeInvalidWorld = "E103"
	ErrCodeGeneric      = "E001"
)

// LoadWorld reads and decodes a world document. Structural problems
// (unreadable file, malformed JSON, schema violations) come back as
// ExitError with ExitCommandError; reference validation is the
// caller's concern.
func LoadWorld(path string) (*world.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("cannot read world %s", path), err)
	}
	def, err := world.Decode(data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("cannot decode world %s", path), err)
	}
	return def, nil
}
