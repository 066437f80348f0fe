package script

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"autoseq/internal/auto"
)

// File is a script on disk. The parser is picked from the extension:
// .yaml/.yml is YAML, anything else is CSV.
type File string

func (f File) Entries() ([]auto.Entry, error) {
	path := string(f)
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("script file %q: %w", path, err)
	}
	defer fh.Close()

	var entries []auto.Entry
	if IsYAML(path) {
		entries, err = ParseYAML(fh)
	} else {
		entries, err = ParseCSV(fh)
	}
	if err != nil {
		return nil, fmt.Errorf("script file %q: %w", path, err)
	}
	return entries, nil
}

func IsYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Text is an inline CSV script.
type Text string

func (t Text) Entries() ([]auto.Entry, error) { return ParseCSV(strings.NewReader(string(t))) }

// List is a prebuilt script.
type List []auto.Entry

func (l List) Entries() ([]auto.Entry, error) { return l, nil }

// Names returns the distinct lowercase command names used by entries, in
// first-seen order.
func Names(entries []auto.Entry) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range entries {
		n := strings.ToLower(strings.TrimSpace(e.Name))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
