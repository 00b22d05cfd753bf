package repl

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atinylittleshell/embedsh/internal/repl/completion"
	"github.com/atinylittleshell/embedsh/internal/repl/environ"
	"github.com/atinylittleshell/embedsh/internal/repl/input"
	"github.com/atinylittleshell/embedsh/internal/repl/render"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

type command struct {
	name  string
	usage string
	help  string
	run   func(r *REPL, ctx context.Context, s *Session, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"%kill_embedded", "%kill_embedded", "deactivate all future shells; this one keeps running", cmdKill},
		{"%exit", "%exit", "leave the shell and resume execution", cmdExit},
		{"exit", "exit", "same as %exit", cmdExit},
		{"quit", "quit", "same as %exit", cmdExit},
		{"%abort", "%abort", "leave the shell and abort the program", cmdAbort},
		{"%where", "%where", "show where the shell was opened", cmdWhere},
		{"%stack", "%stack", "show the call stack of the breakpoint", cmdStack},
		{"%goroutines", "%goroutines", "dump the stacks of all goroutines", cmdGoroutines},
		{"%vars", "%vars [pattern]", "list bound variables", cmdVars},
		{"%json", "%json name [path]", "show a variable as JSON, optionally at a path", cmdJSON},
		{"%mem", "%mem", "show memory statistics", cmdMem},
		{"%env", "%env", "show platform, module, working directory and git checkout", cmdEnv},
		{"%history", "%history [n | search query]", "show input history", cmdHistory},
		{"%copy", "%copy", "copy the last output to the clipboard", cmdCopy},
		{"%keys", "%keys", "show key bindings", cmdKeys},
		{"%help", "%help", "show this help", cmdHelp},
		{"?", "?", "same as %help", cmdHelp},
	}
}

// commandNames returns the magic commands offered for completion.
func commandNames() []string {
	names := lo.FilterMap(commands, func(c command, _ int) (string, bool) {
		return c.name, strings.HasPrefix(c.name, "%")
	})
	sort.Strings(names)
	return names
}

// lookupCommand matches line against the command table. Bare words such as
// exit only match when they are the whole line, so that exit = 1 still
// evaluates.
func lookupCommand(line string) (command, []string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, nil, false
	}
	for _, c := range commands {
		if c.name != fields[0] {
			continue
		}
		if !strings.HasPrefix(c.name, "%") && len(fields) > 1 {
			return command{}, nil, false
		}
		return c, fields[1:], true
	}
	return command{}, nil, false
}

func cmdKill(r *REPL, _ context.Context, _ *Session, _ []string) error {
	Kill()
	r.logger.Info("embedded shells deactivated")
	fmt.Fprintln(r.stdout, r.theme.Message("This shell keeps running; future shells are deactivated.", false))
	return nil
}

func cmdExit(*REPL, context.Context, *Session, []string) error {
	return ErrExit
}

func cmdAbort(*REPL, context.Context, *Session, []string) error {
	return ErrAbort
}

func cmdWhere(r *REPL, _ context.Context, s *Session, _ []string) error {
	fmt.Fprintln(r.stdout, s.Message)
	return nil
}

func cmdStack(r *REPL, _ context.Context, s *Session, _ []string) error {
	if len(s.Frames) == 0 {
		fmt.Fprintln(r.stdout, r.theme.Apply("no stack recorded", render.DimStyle))
		return nil
	}
	fmt.Fprintln(r.stdout, r.theme.Stack(s.Frames))
	return nil
}

func cmdGoroutines(r *REPL, _ context.Context, _ *Session, _ []string) error {
	buf := make([]byte, 64<<10)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			buf = buf[:n]
			break
		}
		buf = make([]byte, 2*len(buf))
	}
	fmt.Fprint(r.stdout, string(buf))
	return nil
}

func cmdVars(r *REPL, _ context.Context, _ *Session, args []string) error {
	names := r.exec.BindingNames()
	if len(args) > 0 {
		names = completion.Rank(args[0], names)
	}
	if len(names) == 0 {
		fmt.Fprintln(r.stdout, r.theme.Apply("no variables", render.DimStyle))
		return nil
	}
	rows := make([]render.Row, 0, len(names))
	for _, name := range names {
		v, _ := r.exec.Binding(name)
		rows = append(rows, render.Row{
			Key:         name,
			Description: fmt.Sprintf("%T = %v", v, v),
		})
	}
	fmt.Fprintln(r.stdout, r.theme.Table(rows, r.termWidth()))
	return nil
}

func cmdJSON(r *REPL, _ context.Context, _ *Session, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %%json name [path]")
	}
	v, ok := r.exec.Binding(args[0])
	if !ok {
		v, ok = r.exec.Global(args[0])
	}
	if !ok {
		return fmt.Errorf("%s is not defined", args[0])
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot encode %s: %w", args[0], err)
	}
	if len(args) > 1 {
		res := gjson.GetBytes(data, args[1])
		if !res.Exists() {
			return fmt.Errorf("path %q not found in %s", args[1], args[0])
		}
		data = []byte(res.Raw)
	}
	data = pretty.Pretty(data)
	if r.theme.Colored() {
		data = pretty.Color(data, nil)
	}
	r.lastOutput = strings.TrimRight(string(data), "\n")
	fmt.Fprint(r.stdout, string(data))
	return nil
}

func cmdMem(r *REPL, _ context.Context, _ *Session, _ []string) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	lastGC := "never"
	if m.LastGC > 0 {
		lastGC = humanize.Time(time.Unix(0, int64(m.LastGC)))
	}
	rows := []render.Row{
		{Key: "heap in use", Description: humanize.IBytes(m.HeapInuse)},
		{Key: "heap objects", Description: humanize.Comma(int64(m.HeapObjects))},
		{Key: "total alloc", Description: humanize.IBytes(m.TotalAlloc)},
		{Key: "system", Description: humanize.IBytes(m.Sys)},
		{Key: "goroutines", Description: humanize.Comma(int64(runtime.NumGoroutine()))},
		{Key: "gc cycles", Description: humanize.Comma(int64(m.NumGC))},
		{Key: "last gc", Description: lastGC},
	}
	fmt.Fprintln(r.stdout, r.theme.Table(rows, 0))
	return nil
}

func cmdEnv(r *REPL, _ context.Context, _ *Session, _ []string) error {
	rows := lo.Map(r.env.GetContext(), func(e environ.Entry, _ int) render.Row {
		return render.Row{Key: e.Name, Description: e.Value}
	})
	fmt.Fprintln(r.stdout, r.theme.Table(rows, r.termWidth()))
	return nil
}

func cmdHistory(r *REPL, _ context.Context, _ *Session, args []string) error {
	if len(args) > 0 && args[0] == "search" {
		if r.history == nil {
			return fmt.Errorf("persistent history is disabled")
		}
		entries, err := r.history.SearchHistory(strings.Join(args[1:], " "), r.config.History.Limit)
		if err != nil {
			return fmt.Errorf("history search failed: %w", err)
		}
		for _, e := range entries {
			fmt.Fprintf(r.stdout, "%s  %s\n", r.theme.Apply(e.Site, render.DimStyle), e.Source)
		}
		return nil
	}

	limit := len(r.inputs)
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("usage: %%history [n | search query]")
		}
		limit = min(n, len(r.inputs))
	}
	for _, in := range r.inputs[len(r.inputs)-limit:] {
		fmt.Fprintf(r.stdout, "%s %s\n", r.theme.Apply(fmt.Sprintf("%4d", in.count), render.LineNumberStyle), in.source)
	}
	return nil
}

func cmdCopy(r *REPL, _ context.Context, _ *Session, _ []string) error {
	if r.lastOutput == "" {
		return fmt.Errorf("nothing to copy")
	}
	if err := clipboard.WriteAll(r.lastOutput); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	fmt.Fprintln(r.stdout, r.theme.Apply("copied", render.DimStyle))
	return nil
}

func cmdKeys(r *REPL, _ context.Context, _ *Session, _ []string) error {
	km := r.reader.KeyMap()
	if km == nil {
		if r.config.IsVi() {
			km = input.ViInsertKeyMap()
		} else {
			km = input.EmacsKeyMap()
		}
	}
	h := help.New()
	h.ShowAll = true
	fmt.Fprintln(r.stdout, h.View(km))
	return nil
}

func cmdHelp(r *REPL, _ context.Context, _ *Session, _ []string) error {
	rows := make([]render.Row, 0, len(commands)+1)
	for _, c := range commands {
		rows = append(rows, render.Row{Key: c.usage, Description: c.help})
	}
	rows = append(rows,
		render.Row{Key: "!command", Description: "run a shell command"},
		render.Row{Key: "expression", Description: "evaluate; the result is kept in _"},
	)
	fmt.Fprintln(r.stdout, r.theme.Table(rows, r.termWidth()))
	return nil
}
