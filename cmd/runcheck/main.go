// Command runcheck runs monitoring checks through the shell-free
// launcher and reports their results in plugin style.
//
// A check is either given inline (-C with optional -w/-c thresholds)
// or read from a TOML suite file (-f). Every check runs under a
// watchdog: a check that outlives its timeout gets its whole process
// group of children killed and the run ends CRITICAL.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/criyle/go-runcmd"
	"github.com/criyle/go-runcmd/pkg/output"
	"github.com/criyle/go-runcmd/pkg/seccomp"
	"github.com/criyle/go-runcmd/pkg/state"
	"github.com/criyle/go-runcmd/pkg/thresh"
)

const defaultTimeout = 10 * time.Second

var (
	suiteFile    = flag.String("f", "", "TOML suite file of checks to run")
	command      = flag.String("C", "", "single command line to run as a check")
	warning      = flag.String("w", "", "warning range for the inline check")
	critical     = flag.String("c", "", "critical range for the inline check")
	timeout      = flag.Duration("t", defaultTimeout, "per-check timeout")
	seccompAllow = flag.String("s", "", "comma-separated syscall allowlist to confine checks")
	verbose      = flag.Bool("v", false, "verbose logging")

	maxOutput output.Size
)

func init() {
	flag.Var(&maxOutput, "m", "max captured output per stream (e.g. 64k)")
}

func main() {
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	checks, err := buildChecks()
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration")
	}

	runcmd.Init()
	if *seccompAllow != "" {
		filter, err := (&seccomp.Builder{
			Allow:   strings.Split(*seccompAllow, ","),
			Default: seccomp.ActionErrno,
		}).Build()
		if err != nil {
			logger.Fatal().Err(err).Msg("seccomp allowlist")
		}
		runcmd.Confine(filter.SockFprog())
	}
	dog := runcmd.NewWatchdog(nil)

	worst := state.OK
	for i := range checks {
		c := &checks[i]
		logger.Debug().Str("check", c.Name).Str("command", c.Command).
			Dur("timeout", c.Timeout.Duration).Msg("running")

		dog.Arm(c.Timeout.Duration)
		res, err := runcmd.RunCommandN(c.Command, c.MaxOutput, output.Lines)
		dog.Disarm()
		if err != nil {
			fmt.Printf("%s UNKNOWN - %v\n", c.Name, err)
			worst = state.Worst(worst, state.Unknown)
			continue
		}

		st, detail := evaluate(c, res)
		fmt.Printf("%s %s - %s\n", c.Name, st, detail)
		worst = state.Worst(worst, st)
	}
	os.Exit(int(worst))
}

// buildChecks assembles the check list from either the suite file or
// the inline flags. The two are mutually exclusive.
func buildChecks() ([]checkConfig, error) {
	if *suiteFile != "" && *command != "" {
		return nil, fmt.Errorf("-f and -C are mutually exclusive")
	}
	if *suiteFile != "" {
		cfg, err := loadSuite(*suiteFile)
		if err != nil {
			return nil, err
		}
		if maxOutput != 0 || *timeout != defaultTimeout {
			for i := range cfg.Checks {
				if maxOutput != 0 {
					cfg.Checks[i].MaxOutput = maxOutput
				}
				if *timeout != defaultTimeout {
					cfg.Checks[i].Timeout = duration{*timeout}
				}
			}
		}
		return cfg.Checks, nil
	}
	if *command == "" {
		return nil, fmt.Errorf("one of -f or -C is required")
	}
	th, err := thresh.Parse(*warning, *critical)
	if err != nil {
		return nil, err
	}
	return []checkConfig{{
		Name:       "check",
		Command:    *command,
		Timeout:    duration{*timeout},
		MaxOutput:  maxOutput,
		thresholds: th,
	}}, nil
}

// evaluate turns a finished check into a state and a one-line detail.
//
// When thresholds are configured and the first stdout line starts
// with a numeric token, the value decides the state. Otherwise the
// check is treated as a plugin of its own: exit codes 0-3 map
// straight to states and anything else, including a signalled child,
// is UNKNOWN.
func evaluate(c *checkConfig, res *runcmd.Result) (state.State, string) {
	detail := firstLine(res)

	if c.thresholds != nil && (c.thresholds.Warning != nil || c.thresholds.Critical != nil) {
		if v, ok := leadingValue(detail); ok {
			return c.thresholds.Status(v), detail
		}
		return state.Unknown, detail
	}

	if res.Status != runcmd.StatusExited {
		return state.Unknown, detail
	}
	if res.ExitStatus >= int(state.OK) && res.ExitStatus <= int(state.Unknown) {
		return state.State(res.ExitStatus), detail
	}
	return state.Unknown, detail
}

func firstLine(res *runcmd.Result) string {
	if len(res.Stdout.Lines) > 0 {
		return string(res.Stdout.Lines[0])
	}
	if len(res.Stderr.Lines) > 0 {
		return string(res.Stderr.Lines[0])
	}
	return "(no output)"
}

// leadingValue parses the first whitespace-separated token of line as
// a float, tolerating a trailing unit suffix such as "ms" or "%".
func leadingValue(line string) (float64, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, false
	}
	tok := fields[0]
	end := len(tok)
	for end > 0 {
		c := tok[end-1]
		if c >= '0' && c <= '9' || c == '.' {
			break
		}
		end--
	}
	v, err := strconv.ParseFloat(tok[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
