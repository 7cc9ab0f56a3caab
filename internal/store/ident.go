package store

import (
	"fmt"
	"regexp"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdentifier(name string) bool {
	return identifierRe.MatchString(name)
}

// checkTable validates the table name and every column key of the given maps.
// Table and column names end up in SQL text, values never do.
func checkTable(table string, maps ...map[string]any) error {
	if !validIdentifier(table) {
		return fmt.Errorf("%w: table %q", ErrInvalidIdentifier, table)
	}
	for _, m := range maps {
		for col := range m {
			if !validIdentifier(col) {
				return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, col)
			}
		}
	}
	return nil
}
