package script

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"autoseq/internal/auto"
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NormalizeLineEndings converts \r\n and lone \r into \n.
func NormalizeLineEndings(s string) string { return lineEndings.Replace(s) }

// ParseCSV reads a comma-separated script. Blank lines and lines starting
// with '#' are skipped; fields are trimmed.
func ParseCSV(r io.Reader) ([]auto.Entry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	cr := csv.NewReader(strings.NewReader(NormalizeLineEndings(string(raw))))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.Comment = '#'

	var out []auto.Entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse script: %w", err)
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if len(rec) == 0 || (len(rec) == 1 && rec[0] == "") {
			continue
		}
		out = append(out, auto.Entry{Name: rec[0], Args: rec[1:]})
	}
	return out, nil
}
