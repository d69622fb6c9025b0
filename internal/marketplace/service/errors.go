package service

import "fmt"

// RequiredFileError indicates one of the agent contract files was absent
// across all fallback search locations.
type RequiredFileError struct {
	Filename string
}

func (e *RequiredFileError) Error() string {
	return fmt.Sprintf("%s not found in repository root, src/, or agents/", e.Filename)
}
