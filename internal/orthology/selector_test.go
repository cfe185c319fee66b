package orthology

import (
	"testing"

	"orthocore/internal/graph/core"
)

func cand(integrated bool, score float64) Candidate {
	return Candidate{Dataset: core.Dataset{Integrated: integrated, Score: score}}
}

func TestSelectDataset(t *testing.T) {
	cases := []struct {
		name  string
		in    []Candidate
		want  int
		found bool
	}{
		{"empty", nil, -1, false},
		{"single zero score", []Candidate{cand(false, 0)}, 0, true},
		{"single integrated", []Candidate{cand(true, 0)}, 0, true},
		{"first integrated wins", []Candidate{cand(false, 5), cand(true, 1), cand(true, 9)}, 1, true},
		{"integrated beats earlier high score", []Candidate{cand(false, 50), cand(true, 0)}, 1, true},
		{"max score", []Candidate{cand(false, 3), cand(false, 7), cand(false, 2)}, 1, true},
		{"ties keep earliest", []Candidate{cand(false, 5), cand(false, 5)}, 0, true},
		{"all zero selects nothing", []Candidate{cand(false, 0), cand(false, 0)}, -1, false},
		{"negative scores select nothing", []Candidate{cand(false, -1), cand(false, -2)}, -1, false},
		{"zero then positive", []Candidate{cand(false, 0), cand(false, 0.5)}, 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := SelectDataset(tc.in)
			if got != tc.want || ok != tc.found {
				t.Fatalf("SelectDataset = %d, %v; want %d, %v", got, ok, tc.want, tc.found)
			}
		})
	}
}

func TestSelectDatasetIsPure(t *testing.T) {
	in := []Candidate{cand(false, 3), cand(false, 7), cand(false, 2)}
	for i := 0; i < 3; i++ {
		if got, _ := SelectDataset(in); got != 1 {
			t.Fatalf("run %d selected %d", i, got)
		}
	}
	if in[1].Dataset.Score != 7 {
		t.Fatalf("input mutated")
	}
}

func TestRankPosition(t *testing.T) {
	cases := map[string]int{"3/120": 3, " 12 /40": 12, "17": 17, "n/a": 0, "": 0}
	for in, want := range cases {
		if got := RankPosition(in); got != want {
			t.Fatalf("RankPosition(%q) = %d, want %d", in, got, want)
		}
	}
}
