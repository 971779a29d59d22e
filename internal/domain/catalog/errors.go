package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrInvalidJSON  = errors.New("invalid item json")
	ErrNoItems      = errors.New("no items in import")
)

// SourceNotFoundError is returned when a compendium, pack or import does not exist.
type SourceNotFoundError struct {
	Source string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source %q not found", e.Source)
}

func IsSourceNotFound(err error) bool {
	var target *SourceNotFoundError
	return errors.As(err, &target)
}
