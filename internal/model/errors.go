package model

import (
	"fmt"
	"strings"
)

// MissingFieldError reports a dataset record that lacks required keys.
type MissingFieldError struct {
	Index  int
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("instance %d: missing key(s) %s", e.Index, strings.Join(e.Fields, ", "))
}
