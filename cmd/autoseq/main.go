// autoseq plays a robot autonomous script: a list of timed foreground
// commands and persistent background tasks, ticked at a fixed rate.
//
//	autoseq run     --config autoseq.yaml --script auto.csv
//	autoseq check   --script auto.csv
//	autoseq journal --config autoseq.yaml -n 50
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"autoseq/internal/app"
	logx "autoseq/pkg/logx"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return errors.New("missing subcommand")
	}
	switch args[0] {
	case "run":
		return runCmd(args[1:])
	case "check":
		return checkCmd(args[1:])
	case "journal":
		return journalCmd(args[1:])
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: autoseq <command> [flags]

Commands:
  run      play a script until it finishes or a signal arrives
  check    parse a script and list names with no registered command
  journal  print recent lifecycle events from the configured journal

Run "autoseq <command> --help" for the flags of a command.
`)
}

func parse(fs *pflag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return false, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return true, nil
}

func runCmd(args []string) error {
	var opts app.Options
	fs := pflag.NewFlagSet("autoseq run", pflag.ContinueOnError)
	fs.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (JSON or YAML); defaults apply when empty")
	fs.StringVarP(&opts.ScriptPath, "script", "s", "", "script file (CSV or YAML), overrides script.path")
	fs.DurationVar(&opts.Period, "period", 0, "tick period, overrides runner.tick_period")
	fs.BoolVar(&opts.ExitOnFinish, "exit-on-finish", false, "exit once the script and every background task are done")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(opts)
	if err != nil {
		return err
	}
	startErr := a.Start(ctx)
	if startErr == nil {
		select {
		case <-ctx.Done():
		case <-a.Done():
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	stopErr := a.Stop(stopCtx)
	if startErr != nil {
		return startErr
	}
	return stopErr
}

func checkCmd(args []string) error {
	var path string
	fs := pflag.NewFlagSet("autoseq check", pflag.ContinueOnError)
	fs.StringVarP(&path, "script", "s", "", "script file to check")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if strings.TrimSpace(path) == "" {
		return errors.New("--script is required")
	}
	rep, err := app.Check(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d entries, %d distinct names\n", path, rep.Entries, len(rep.Names))
	if len(rep.Unknown) > 0 {
		fmt.Printf("unknown (skipped at run time): %s\n", strings.Join(rep.Unknown, ", "))
		return fmt.Errorf("%d unknown command name(s)", len(rep.Unknown))
	}
	return nil
}

func journalCmd(args []string) error {
	var (
		cfgPath string
		n       int
		asJSON  bool
	)
	fs := pflag.NewFlagSet("autoseq journal", pflag.ContinueOnError)
	fs.StringVarP(&cfgPath, "config", "c", "", "config file with a journal section")
	fs.IntVarP(&n, "lines", "n", 20, "number of records to print")
	fs.BoolVar(&asJSON, "json", false, "print records as JSON Lines")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	store, err := app.OpenJournal(cfgPath, logx.NewConsole("warn"))
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("journal is disabled (set journal.driver in the config)")
	}
	defer store.Close()

	recs, err := store.Recent(context.Background(), n)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	for _, r := range recs {
		if asJSON {
			if err := enc.Encode(r); err != nil {
				return err
			}
			continue
		}
		line := fmt.Sprintf("%s  %-24s", r.At.Local().Format("2006-01-02 15:04:05.000"), r.Type)
		if r.Name != "" {
			line += " " + r.Name
		}
		if len(r.Args) > 0 {
			line += " [" + strings.Join(r.Args, ",") + "]"
		}
		if r.Kind != "" {
			line += " kind=" + r.Kind
		}
		if r.Reason != "" {
			line += fmt.Sprintf(" reason=%s elapsed=%s", r.Reason, r.Elapsed)
		}
		fmt.Println(line)
	}
	return nil
}
