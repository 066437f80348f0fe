package app

import (
	"autoseq/internal/auto"
	"autoseq/internal/robot"
	"autoseq/internal/script"
	logx "autoseq/pkg/logx"
)

// CheckReport describes a parsed script against the built-in command set.
type CheckReport struct {
	Entries  int
	Names    []string
	Unknown  []string
	Commands []string
}

// Check parses the script at path and lists names no command or background
// task is registered for. Unknown names are skipped at run time, not fatal.
func Check(path string) (CheckReport, error) {
	entries, err := script.File(path).Entries()
	if err != nil {
		return CheckReport{}, err
	}
	m := auto.NewManager()
	if err := robot.Register(m, robot.NewSim(logx.Nop()), logx.Nop()); err != nil {
		return CheckReport{}, err
	}
	rep := CheckReport{Entries: len(entries), Names: script.Names(entries)}
	for _, n := range rep.Names {
		if !m.IsRegistered(n) {
			rep.Unknown = append(rep.Unknown, n)
		}
	}
	return rep, nil
}
