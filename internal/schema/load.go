package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads a schema file and builds its tree. The front-end is chosen by
// extension: .yaml, .yml and .json go through YAML, .cue through CUE.
func Load(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
		return ParseYAML(data, path)
	case ".cue":
		return ParseCUE(data, path)
	default:
		return nil, &ParseError{
			Pos:     Pos{File: path},
			Message: fmt.Sprintf("unsupported schema extension %q (want .yaml, .yml, .json or .cue)", ext),
		}
	}
}

// IsSchemaFile reports whether Load accepts the file extension.
func IsSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".cue":
		return true
	}
	return false
}
