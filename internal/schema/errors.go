package schema

import "fmt"

// ParseError reports schema text that could not be turned into a tree.
type ParseError struct {
	Pos     Pos
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Pos.IsValid() || e.Pos.File != "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
