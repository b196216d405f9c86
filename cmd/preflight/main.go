// cmd/preflight/main.go
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/hamed0406/downtimebench/internal/config"
	"github.com/hamed0406/downtimebench/internal/targets"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run checks settings and the targets file without touching the network.
func run(args []string, stdout, stderr io.Writer) int {
	failed := false
	fail := func(msg string) {
		fmt.Fprintln(stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	if err := config.LoadDotEnv(".env"); err != nil {
		fail(err.Error())
	}

	flags := config.Flags()
	flags.SetOutput(stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	cfg, err := config.Load(flags)
	if err != nil {
		fail("settings: " + err.Error())
		return 1
	}
	ok(fmt.Sprintf("settings: interval %s, timeout %s, log dir %q", cfg.CheckInterval, cfg.CheckTimeout, cfg.LogDir))

	if cfg.CheckTimeout > cfg.CheckInterval {
		warn("timeout is longer than check-interval; slow rounds will delay the next one.")
	}

	if cfg.StatusAddr == "" {
		ok("status server disabled")
	} else {
		ok("status server on " + cfg.StatusAddr)
		if len(cfg.StatusKeys) == 0 {
			warn("status-keys empty; anyone who can reach " + cfg.StatusAddr + " can read the status API.")
		}
	}

	tgts, err := targets.Load(cfg.TargetsFile)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fail(e.Error())
		}
	} else {
		for _, t := range tgts {
			ok(fmt.Sprintf("%s [%s] %s", t.Kind.Icon(), t.Kind, t.Name))
		}
	}

	if failed {
		return 1
	}
	ok("preflight passed")
	return 0
}
