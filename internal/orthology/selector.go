package orthology

import (
	"strconv"
	"strings"

	"orthocore/internal/graph/core"
)

// Candidate is one dataset offering an abundance for a protein.
type Candidate struct {
	Abundance core.Abundance
	Dataset   core.Dataset
}

// SelectDataset picks the dataset to report for one protein. A single
// candidate is always chosen. Otherwise the first integrated dataset wins;
// failing that, the candidate with the strictly greatest positive score wins,
// earliest on ties. When every score is zero or less nothing is chosen and ok
// is false.
func SelectDataset(candidates []Candidate) (idx int, ok bool) {
	switch len(candidates) {
	case 0:
		return -1, false
	case 1:
		return 0, true
	}
	best, top := -1, 0.0
	for i, c := range candidates {
		if c.Dataset.Integrated {
			return i, true
		}
		if c.Dataset.Score > top {
			best, top = i, c.Dataset.Score
		}
	}
	return best, best >= 0
}

// RankPosition parses the position from a "position/total" rank. Unparseable
// ranks yield zero. A rank without "/" is read as a bare position, so "17"
// gives 17; exporters are assumed to write either form. Position does not
// take part in dataset selection.
func RankPosition(rank string) int {
	head, _, _ := strings.Cut(rank, "/")
	n, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0
	}
	return n
}
