package script

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"autoseq/internal/auto"
)

func TestParseCSVLineEndings(t *testing.T) {
	t.Parallel()
	want := []auto.Entry{
		{Name: "drive", Args: []string{"2"}},
		{Name: "intake_in", Args: []string{}},
		{Name: "rotate", Args: []string{"1", "left"}},
	}
	tests := map[string]string{
		"lf":      "drive,2\nintake_in\nrotate,1,left\n",
		"crlf":    "drive,2\r\nintake_in\r\nrotate,1,left",
		"cr":      "drive,2\rintake_in\rrotate,1,left\r",
		"mixed":   "drive,2\r\nintake_in\rrotate,1,left\n",
		"spaces":  "drive, 2 \n intake_in\nrotate , 1,left\n",
		"blank":   "\ndrive,2\n\n\nintake_in\n\nrotate,1,left\n\n",
		"comment": "# warm up\ndrive,2\nintake_in\n#turn\nrotate,1,left\n",
	}
	for name, in := range tests {
		in := in
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCSV(strings.NewReader(in))
			if err != nil {
				t.Fatalf("ParseCSV error: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("got %#v\nwant %#v", got, want)
			}
		})
	}
}

func TestParseCSVEmptyFieldsKept(t *testing.T) {
	t.Parallel()
	got, err := ParseCSV(strings.NewReader("move_lifter,,3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !reflect.DeepEqual(got[0].Args, []string{"", "3"}) {
		t.Fatalf("got %#v", got)
	}
}

func TestParseYAML(t *testing.T) {
	t.Parallel()
	in := `
- [drive, 2.50]
- intake_in
- rotate: 1
- move_lifter: [10, fast]
- intake_stop:
`
	got, err := ParseYAML(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseYAML error: %v", err)
	}
	want := []auto.Entry{
		{Name: "drive", Args: []string{"2.50"}},
		{Name: "intake_in"},
		{Name: "rotate", Args: []string{"1"}},
		{Name: "move_lifter", Args: []string{"10", "fast"}},
		{Name: "intake_stop"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v\nwant %#v", got, want)
	}
}

func TestParseYAMLInvalid(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"not a sequence": "drive: 2\n",
		"two keys":       "- {drive: 1, rotate: 2}\n",
		"nested":         "- [drive, [1, 2]]\n",
		"empty list":     "- []\n",
	}
	for name, in := range tests {
		in := in
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseYAML(strings.NewReader(in)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseYAMLEmpty(t *testing.T) {
	t.Parallel()
	got, err := ParseYAML(strings.NewReader(""))
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestFileSource(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "auto.csv")
	ymlPath := filepath.Join(dir, "auto.YML")
	if err := os.WriteFile(csvPath, []byte("drive,1\r\nrotate,2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ymlPath, []byte("- [drive, 1]\n- [rotate, 2]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := File(csvPath).Entries()
	if err != nil {
		t.Fatal(err)
	}
	b, err := File(ymlPath).Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 2 || len(b) != 2 || a[1].Name != b[1].Name || a[1].Args[0] != b[1].Args[0] {
		t.Fatalf("csv %#v yaml %#v", a, b)
	}

	_, err = File(filepath.Join(dir, "missing.csv")).Entries()
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing file err = %v", err)
	}
}

func TestNames(t *testing.T) {
	t.Parallel()
	entries, _ := Text("Drive,1\nintake_in\ndrive,2\n\nROTATE").Entries()
	if got := Names(entries); !reflect.DeepEqual(got, []string{"drive", "intake_in", "rotate"}) {
		t.Fatalf("names = %v", got)
	}
}
