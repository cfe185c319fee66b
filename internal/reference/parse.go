package reference

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"orthocore/internal/taxonomy"
)

// taxonomyHeaderLines is the number of leading header rows in the taxonomy table.
const taxonomyHeaderLines = 2

const maxLineBytes = 1 << 20

// scanRows calls fn for every non-blank line with its 1-based number,
// skipping the first skip lines.
func scanRows(r io.Reader, file string, skip int, fn func(line int, text string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		if line <= skip {
			continue
		}
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := fn(line, text); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return &MalformedError{File: file, Line: line + 1, Reason: "read", Err: err}
	}
	return nil
}

// ParseOrthgroups reads "<id>: <name>" rows into id → upper-cased name, plus
// the ids in file order.
func ParseOrthgroups(r io.Reader, file string) (map[string]string, []string, error) {
	names := make(map[string]string)
	var order []string
	err := scanRows(r, file, 0, func(line int, text string) error {
		rawID, name, ok := strings.Cut(text, ": ")
		if !ok {
			return &MalformedError{File: file, Line: line, Reason: `expected "<id>: <name>"`}
		}
		id, err := strconv.Atoi(strings.TrimSpace(rawID))
		if err != nil {
			return &MalformedError{File: file, Line: line, Reason: "orthologous group id is not an integer", Err: err}
		}
		key := strconv.Itoa(id)
		if _, dup := names[key]; !dup {
			order = append(order, key)
		}
		names[key] = strings.ToUpper(strings.TrimSpace(name))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return names, order, nil
}

// ParseSpeciesTissues reads "<species>\t<tissue>" rows into species → tissues
// in file order.
func ParseSpeciesTissues(r io.Reader, file string) (map[string][]string, error) {
	out := make(map[string][]string)
	err := scanRows(r, file, 0, func(line int, text string) error {
		rec := strings.Split(text, "\t")
		if len(rec) < 2 {
			return &MalformedError{File: file, Line: line, Reason: "expected species and tissue columns"}
		}
		out[rec[0]] = append(out[rec[0]], rec[1])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseTissueTerms reads "<term>\t<code>" rows into code → ontology term.
func ParseTissueTerms(r io.Reader, file string) (map[string]string, error) {
	out := make(map[string]string)
	err := scanRows(r, file, 0, func(line int, text string) error {
		rec := strings.Split(text, "\t")
		if len(rec) < 2 {
			return &MalformedError{File: file, Line: line, Reason: "expected ontology term and tissue code columns"}
		}
		out[rec[1]] = rec[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseTaxonomyEdges reads "<child>\t<parent>\t<childName>\t<parentName>"
// rows after the header lines.
func ParseTaxonomyEdges(r io.Reader, file string) ([]taxonomy.Edge, error) {
	var edges []taxonomy.Edge
	err := scanRows(r, file, taxonomyHeaderLines, func(line int, text string) error {
		rec := strings.Split(text, "\t")
		if len(rec) < 4 {
			return &MalformedError{File: file, Line: line, Reason: "expected 4 tab-separated columns, got " + strconv.Itoa(len(rec))}
		}
		edges = append(edges, taxonomy.Edge{
			ChildID:    rec[0],
			ParentID:   rec[1],
			ChildName:  strings.ToUpper(rec[2]),
			ParentName: strings.ToUpper(rec[3]),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return edges, nil
}
