package mra

import (
	"encoding/json"

	"github.com/nsf/jsondiff"
)

func keyed(records []Record) map[string]Record {
	m := make(map[string]Record, len(records))
	for _, r := range records {
		m[r.File+"#"+r.IClass] = r
	}
	return m
}

// DiffRecords compares two record lists keyed by file and iclass, so that a
// record moving position is not reported as a change. It returns the match
// kind and a human-readable diff.
func DiffRecords(a, b []Record) (jsondiff.Difference, string, error) {
	ja, err := json.Marshal(keyed(a))
	if err != nil {
		return jsondiff.NoMatch, "", err
	}
	jb, err := json.Marshal(keyed(b))
	if err != nil {
		return jsondiff.NoMatch, "", err
	}
	opts := jsondiff.DefaultConsoleOptions()
	diff, text := jsondiff.Compare(ja, jb, &opts)
	return diff, text, nil
}
