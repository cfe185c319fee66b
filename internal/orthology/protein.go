package orthology

import (
	"fmt"
	"regexp"
)

var proteinIDPattern = regexp.MustCompile(`^(\d+)\..+`)

// ParseProteinID returns the species prefix of a "<speciesId>.<localId>"
// protein id.
func ParseProteinID(id string) (string, error) {
	m := proteinIDPattern.FindStringSubmatch(id)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidProteinID, id)
	}
	return m[1], nil
}
