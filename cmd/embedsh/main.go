package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/atinylittleshell/embedsh"
	"github.com/atinylittleshell/embedsh/internal/core"
	"github.com/atinylittleshell/embedsh/internal/history"
	"github.com/atinylittleshell/embedsh/internal/repl/config"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var BUILD_VERSION = "dev"

const helpText = `embedsh - inspect the embedded shell setup

USAGE:
  embedsh [options]

MODES:
  embedsh -config                 Print the effective configuration
  embedsh -history [-n 20]        List recent inputs from the history database
  embedsh -history -site f.go:10  Only inputs typed at one breakpoint
  embedsh -search text            Search the history database
  embedsh -session id             Show one session of the history database
  embedsh -delete id              Delete one history entry
  embedsh -clear                  Delete all history entries
  embedsh -demo                   Open a demo breakpoint

Programs open the shell with embedsh.Sh(); see the package documentation.

OPTIONS:
`

type cli struct {
	help    bool
	version bool
	config  bool
	history bool
	limit   int
	site    string
	search  string
	session string
	delete  string
	clear   bool
	demo    bool
}

func parseFlags(args []string, stderr io.Writer) (*cli, *flag.FlagSet, error) {
	c := &cli{}
	fs := flag.NewFlagSet("embedsh", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&c.help, "h", false, "display help information")
	fs.BoolVar(&c.version, "ver", false, "display build version")
	fs.BoolVar(&c.config, "config", false, "print the effective configuration")
	fs.BoolVar(&c.history, "history", false, "list recent history entries")
	fs.IntVar(&c.limit, "n", 20, "number of history entries to list")
	fs.StringVar(&c.site, "site", "", "only list entries typed at this file:line")
	fs.StringVar(&c.search, "search", "", "search history entries")
	fs.StringVar(&c.session, "session", "", "show the entries of one session")
	fs.StringVar(&c.delete, "delete", "", "delete the history entry with this id")
	fs.BoolVar(&c.clear, "clear", false, "delete all history entries")
	fs.BoolVar(&c.demo, "demo", false, "open a demo breakpoint")
	err := fs.Parse(args)
	return c, fs, err
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "embedsh: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	c, fs, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	switch {
	case c.version:
		version := core.DisplayVersion(BUILD_VERSION)
		if !core.IsRelease(BUILD_VERSION) && version != "development" {
			version += " (pre-release)"
		}
		fmt.Fprintln(stdout, version)
		return nil
	case c.config:
		return printConfig(stdout)
	case c.history, c.search != "", c.session != "", c.delete != "", c.clear:
		return runHistory(c, stdout)
	case c.demo:
		runDemo()
		return nil
	default:
		fmt.Fprint(stdout, helpText)
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return nil
	}
}

func printConfig(w io.Writer) error {
	result, err := config.NewLoader(zap.NewNop()).LoadDefaultConfigPath()
	if err != nil {
		return err
	}
	if result.Path != "" {
		fmt.Fprintf(w, "# loaded from %s\n", result.Path)
	} else {
		fmt.Fprintln(w, "# no config file, using defaults")
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "# warning: %v\n", e)
	}
	data, err := yaml.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func historyPath() (string, error) {
	result, err := config.NewLoader(zap.NewNop()).LoadDefaultConfigPath()
	if err != nil {
		return "", err
	}
	if result.Config.History.File != "" {
		return result.Config.History.File, nil
	}
	return core.HistoryFile(), nil
}

func runHistory(c *cli, w io.Writer) error {
	path, err := historyPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no history database at %s", path)
	}
	h, err := history.NewHistoryManager(path)
	if err != nil {
		return err
	}
	defer h.Close()

	var entries []history.HistoryEntry
	switch {
	case c.clear:
		if err := h.ResetHistory(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintln(w, "history cleared")
		return nil
	case c.delete != "":
		id, err := strconv.ParseUint(c.delete, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid history id %q", c.delete)
		}
		if err := h.DeleteEntry(uint(id)); err != nil {
			return err
		}
		fmt.Fprintf(w, "deleted entry %d\n", id)
		return nil
	case c.search != "":
		entries, err = h.SearchHistory(c.search, c.limit)
	case c.session != "":
		entries, err = h.GetSessionEntries(c.session)
	default:
		entries, err = h.GetRecentEntries(c.site, c.limit)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	for _, e := range entries {
		status := " "
		if e.Failed {
			status = "!"
		}
		fmt.Fprintf(w, "%5d %s %-14s %s  %s\n", e.ID, status, humanize.Time(e.CreatedAt), e.Site, e.Source)
	}
	return nil
}

type demoUser struct {
	Name  string
	Email string
	Tags  []string
}

func (u *demoUser) Greeting() string {
	return "hello, " + u.Name
}

func runDemo() {
	user := &demoUser{Name: "Ada", Email: "ada@example.com", Tags: []string{"admin", "ops"}}
	retries := 3
	embedsh.Sh(embedsh.V("user", user), embedsh.V("retries", retries))
	fmt.Printf("resumed with %d retries\n", retries)
}
