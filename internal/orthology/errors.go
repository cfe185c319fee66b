package orthology

import (
	"errors"
	"fmt"
)

// NoLevelFound is returned by ResolveLowestLevel when no ancestor level holds
// matching data.
const NoLevelFound = "NoLevelFound"

var (
	// ErrInvalidTaxonomicLevel reports a level that is not an orthologous-group id or name.
	ErrInvalidTaxonomicLevel = errors.New("invalid taxonomic level")
	// ErrInvalidTissue reports a tissue code absent from the ontology table.
	ErrInvalidTissue = errors.New("invalid tissue")
	// ErrInvalidProteinID reports a protein id not shaped "<speciesId>.<localId>".
	ErrInvalidProteinID = errors.New("invalid protein id")
)

// StoreUnavailableError is returned when a level-walk query keeps failing at
// one level after every retry.
type StoreUnavailableError struct {
	ProteinID string
	Level     string
	Attempts  int
	Err       error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("graph store unavailable resolving %s at level %s after %d attempts: %v",
		e.ProteinID, e.Level, e.Attempts, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// ResolutionFailedError wraps a failed one-shot ortholog or abundance lookup.
type ResolutionFailedError struct {
	Operation string
	Err       error
}

func (e *ResolutionFailedError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *ResolutionFailedError) Unwrap() error { return e.Err }

func invalidLevel(level string) error {
	return fmt.Errorf("%w: %q", ErrInvalidTaxonomicLevel, level)
}

func invalidTissue(tissue string) error {
	return fmt.Errorf("%w: %q", ErrInvalidTissue, tissue)
}
