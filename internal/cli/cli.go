// Package cli dispatches taskmd commands. It is a thin layer: all task
// semantics live in internal/taskfile, file handling in internal/vault.
package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mjholt/taskmd/internal/extract"
	"github.com/mjholt/taskmd/internal/report"
	"github.com/mjholt/taskmd/internal/taskfile"
	"github.com/mjholt/taskmd/internal/vault"
)

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitNotFound = 3
	ExitConflict = 4
	ExitInternal = 10
)

type GlobalFlags struct {
	ConfigPath string
	Personal   bool
	JSON       bool
	Plain      bool
	Format     string
	Quiet      bool
	Verbose    bool
}

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "taskmd",
	Level:  log.WarnLevel,
})

func Run(args []string) int {
	gf, rest, err := extractGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return ExitUsage
	}
	if gf.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	if gf.Quiet {
		logger.SetLevel(log.ErrorLevel)
	}

	if len(rest) == 0 {
		printHelp()
		return ExitUsage
	}

	cmd := rest[0]
	cmdArgs := rest[1:]

	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		printHelp()
		return ExitOK
	}

	cfg, err := vault.LoadConfig(gf.ConfigPath)
	if err != nil {
		logger.Error("config", "err", err)
		return ExitInternal
	}

	switch cmd {
	case "init":
		return cmdInit(cfg, gf)
	case "config", "cfg":
		return cmdConfig(cfg, gf, cmdArgs)
	case "ls", "list":
		return cmdList(cfg, gf, cmdArgs)
	case "add":
		return cmdAdd(cfg, gf, cmdArgs)
	case "done":
		return cmdDone(cfg, gf, cmdArgs)
	case "blockers":
		return cmdBlockers(cfg, gf, cmdArgs)
	case "extract":
		return cmdExtract(gf, cmdArgs)
	case "standup", "today":
		return cmdStandup(cfg, gf)
	case "week", "review", "weekly":
		return cmdWeek(cfg, gf, cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printHelp()
		return ExitUsage
	}
}

func printHelp() {
	fmt.Print(`taskmd — personal tasks in Markdown (Eisenhower sections)

Usage:
  taskmd [global flags] <command> [args]

Global flags:
  --personal        Use the personal vault instead of the work vault
  --config <path>   Config file (default: ~/.taskmd/config.yaml or TASKMD_CONFIG)
  --json            JSON output
  --plain           Plain tab-separated output
  --format <f>      Report format (telegram)
  --quiet           Errors only
  --verbose         Debug logging

Commands:
  init
  config show
  config set <key> <value>
  ls [--status s,...] [--priority p,...] [--due today|this-week|overdue|YYYY-MM-DD] [--owner o] [--sort-due]
  add "<title>" [--priority p] [--due YYYY-MM-DD | --today | --tomorrow] [--owner o] [--area a] [--goal g]
  done "<match text>"
  blockers [--person name]
  extract [--file path] ["notes text"]
  standup
  week [--days N]

Priorities:
  critical (high) | important (medium) | waiting | team | backlog (low)
`)
}

func extractGlobalFlags(args []string) (GlobalFlags, []string, error) {
	gf := GlobalFlags{ConfigPath: vault.DefaultConfigPath()}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--personal":
			gf.Personal = true
		case "--config":
			if i+1 >= len(args) {
				return gf, nil, errors.New("--config requires a value")
			}
			i++
			gf.ConfigPath = args[i]
		case "--json":
			gf.JSON = true
		case "--plain":
			gf.Plain = true
		case "--format":
			if i+1 >= len(args) {
				return gf, nil, errors.New("--format requires a value")
			}
			i++
			gf.Format = args[i]
		case "--quiet":
			gf.Quiet = true
		case "--verbose":
			gf.Verbose = true
		default:
			out = append(out, args[i])
		}
	}
	return gf, out, nil
}

func reorderFlags(args []string, takesValue map[string]bool) []string {
	if len(args) == 0 {
		return args
	}
	var flags []string
	var rest []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			if i+1 < len(args) {
				rest = append(rest, args[i+1:]...)
			}
			break
		}
		if strings.HasPrefix(a, "-") {
			flags = append(flags, a)
			if takesValue[a] && !strings.Contains(a, "=") {
				if i+1 < len(args) {
					flags = append(flags, args[i+1])
					i++
				}
			}
			continue
		}
		rest = append(rest, a)
	}
	return append(flags, rest...)
}

// openVault loads and parses the selected vault file, surfacing parse
// warnings before the document is used.
func openVault(cfg vault.Config, gf GlobalFlags) (*vault.File, int) {
	path := cfg.Path(gf.Personal)
	f, err := vault.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(os.Stderr, err.Error())
			return nil, ExitNotFound
		}
		logger.Error("open", "path", path, "err", err)
		return nil, ExitInternal
	}
	for _, w := range f.Doc.Warnings {
		logger.Warn("parse", "path", path, "line", w.Line, "code", string(w.Code), "detail", w.Detail)
	}
	return f, ExitOK
}

func saveVault(f *vault.File) int {
	if err := f.Save(); err != nil {
		if errors.Is(err, vault.ErrStale) {
			fmt.Fprintln(os.Stderr, "write aborted:", err)
			return ExitConflict
		}
		logger.Error("write", "path", f.Path, "err", err)
		return ExitInternal
	}
	return ExitOK
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Error("encode", "err", err)
		return ExitInternal
	}
	return ExitOK
}

func cmdInit(cfg vault.Config, gf GlobalFlags) int {
	path := cfg.Path(gf.Personal)
	created, err := vault.Init(path, gf.Personal)
	if err != nil {
		logger.Error("init", "path", path, "err", err)
		return ExitInternal
	}
	if !gf.Quiet {
		if created {
			fmt.Println("Created tasks file:", path)
		} else {
			fmt.Println("Tasks file already exists:", path)
		}
	}
	return ExitOK
}

func cmdConfig(cfg vault.Config, gf GlobalFlags, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: taskmd config <show|set> ...")
		return ExitUsage
	}
	switch args[0] {
	case "show":
		if gf.JSON {
			return printJSON(map[string]any{
				"config_path":   gf.ConfigPath,
				"work_path":     cfg.WorkPath,
				"personal_path": cfg.PersonalPath,
				"done_policy":   cfg.DonePolicy,
			})
		}
		fmt.Println("Config")
		fmt.Println("  config file:  ", gf.ConfigPath)
		fmt.Println("  work_path:    ", cfg.WorkPath)
		fmt.Println("  personal_path:", cfg.PersonalPath)
		fmt.Println("  done_policy:  ", cfg.DonePolicy)
		return ExitOK
	case "set":
		return cmdConfigSet(cfg, gf, args[1:])
	default:
		fmt.Fprintln(os.Stderr, "Usage: taskmd config <show|set> ...")
		return ExitUsage
	}
}

func cmdConfigSet(cfg vault.Config, gf GlobalFlags, args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: taskmd config set <key> <value>")
		return ExitUsage
	}
	key := strings.ToLower(strings.TrimSpace(args[0]))
	value := strings.TrimSpace(strings.Join(args[1:], " "))
	switch key {
	case "work_path":
		cfg.WorkPath = value
	case "personal_path":
		cfg.PersonalPath = value
	case "done_policy":
		switch strings.ToLower(value) {
		case string(taskfile.DoneInPlace), string(taskfile.DoneRelocate):
			cfg.DonePolicy = strings.ToLower(value)
		default:
			fmt.Fprintf(os.Stderr, "Invalid done_policy %q (want in-place or relocate)\n", value)
			return ExitUsage
		}
	default:
		fmt.Fprintln(os.Stderr, "Unknown config key:", key)
		fmt.Fprintln(os.Stderr, "Allowed keys: work_path, personal_path, done_policy")
		return ExitUsage
	}
	if err := vault.SaveConfig(gf.ConfigPath, cfg); err != nil {
		logger.Error("config set", "err", err)
		return ExitInternal
	}
	if !gf.Quiet {
		fmt.Println("Updated", key)
	}
	return ExitOK
}

func cmdList(cfg vault.Config, gf GlobalFlags, args []string) int {
	args = reorderFlags(args, map[string]bool{
		"--status":   true,
		"--priority": true,
		"--due":      true,
		"--owner":    true,
	})
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	status := fs.String("status", "", "Status filter, comma-separated (todo|in-progress|done|blocked|waiting)")
	priority := fs.String("priority", "", "Priority filter, comma-separated")
	due := fs.String("due", "", "Due filter (today|this-week|overdue|YYYY-MM-DD)")
	owner := fs.String("owner", "", "Owner filter (exact, case-insensitive)")
	sortDue := fs.Bool("sort-due", false, "Sort by due date, missing dates last")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	filter := taskfile.Filter{Due: *due, Owner: *owner, SortByDue: *sortDue}
	for _, s := range splitList(*status) {
		filter.Statuses = append(filter.Statuses, taskfile.Status(s))
	}
	for _, p := range splitList(*priority) {
		norm, ok := taskfile.NormalizePriority(p)
		if !ok {
			fmt.Fprintf(os.Stderr, "ls: unknown priority %q\n", p)
			return ExitUsage
		}
		filter.Priorities = append(filter.Priorities, norm)
	}

	f, code := openVault(cfg, gf)
	if code != ExitOK {
		return code
	}
	tasks, err := taskfile.Apply(f.Doc.Tasks(), filter, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, "ls:", err)
		return ExitUsage
	}

	if gf.JSON {
		return printJSON(map[string]any{"tasks": tasks})
	}
	if gf.Plain {
		for _, t := range tasks {
			fmt.Printf("%s\t%s\t%s\t%s\t%s\n",
				t.Status, t.Priority(), dash(t.Due), dash(t.Owner), t.Title)
		}
		return ExitOK
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks match.")
		return ExitOK
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tPRIORITY\tDUE\tOWNER\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.Status, t.Priority(), dash(t.Due), dash(t.Owner), t.Title)
	}
	_ = w.Flush()
	return ExitOK
}

func cmdAdd(cfg vault.Config, gf GlobalFlags, args []string) int {
	args = reorderFlags(args, map[string]bool{
		"--priority": true,
		"--due":      true,
		"--owner":    true,
		"--area":     true,
		"--goal":     true,
	})
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	priority := fs.String("priority", "", "Priority (default backlog)")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	dueToday := fs.Bool("today", false, "Shortcut: due today")
	dueTomorrow := fs.Bool("tomorrow", false, "Shortcut: due tomorrow")
	owner := fs.String("owner", "", "Owner")
	area := fs.String("area", "", "Area")
	goal := fs.String("goal", "", "Goal link")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: taskmd add \"<title>\" [--priority p] [--due YYYY-MM-DD] ...")
		return ExitUsage
	}
	if strings.TrimSpace(*due) != "" && (*dueToday || *dueTomorrow) {
		fmt.Fprintln(os.Stderr, "add: --due cannot be combined with --today/--tomorrow")
		return ExitUsage
	}
	now := time.Now().UTC()
	if *dueToday {
		*due = now.Format("2006-01-02")
	}
	if *dueTomorrow {
		*due = now.AddDate(0, 0, 1).Format("2006-01-02")
	}

	f, code := openVault(cfg, gf)
	if code != ExitOK {
		return code
	}
	task, err := f.Doc.Add(taskfile.AddInput{
		Title:    strings.Join(rest, " "),
		Priority: *priority,
		Due:      strings.TrimSpace(*due),
		Owner:    strings.TrimSpace(*owner),
		Area:     strings.TrimSpace(*area),
		Goal:     strings.TrimSpace(*goal),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "add:", err)
		if errors.Is(err, taskfile.ErrNotFound) {
			return ExitNotFound
		}
		return ExitUsage
	}
	if code := saveVault(f); code != ExitOK {
		return code
	}
	if gf.JSON {
		return printJSON(map[string]any{"task": task})
	}
	if !gf.Quiet {
		fmt.Printf("Added [%s] %s\n", task.Priority(), task.Title)
	}
	return ExitOK
}

func cmdDone(cfg vault.Config, gf GlobalFlags, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: taskmd done \"<match text>\"")
		return ExitUsage
	}
	query := strings.Join(args, " ")

	f, code := openVault(cfg, gf)
	if code != ExitOK {
		return code
	}
	task, err := f.Doc.Complete(query, cfg.Policy())
	if err != nil {
		var conflict *taskfile.MatchConflictError
		switch {
		case errors.As(err, &conflict):
			fmt.Fprintf(os.Stderr, "done: %q matches multiple tasks:\n", query)
			for _, t := range conflict.Matches {
				fmt.Fprintf(os.Stderr, "  - %s\n", t.Title)
			}
			fmt.Fprintln(os.Stderr, "Be more specific.")
			return ExitConflict
		case errors.Is(err, taskfile.ErrNotFound):
			fmt.Fprintf(os.Stderr, "done: no open task matches %q\n", query)
			return ExitNotFound
		default:
			fmt.Fprintln(os.Stderr, "done:", err)
			return ExitInternal
		}
	}
	if code := saveVault(f); code != ExitOK {
		return code
	}
	if gf.JSON {
		return printJSON(map[string]any{"task": task})
	}
	if !gf.Quiet {
		fmt.Println("Completed:", task.Title)
	}
	return ExitOK
}

func cmdBlockers(cfg vault.Config, gf GlobalFlags, args []string) int {
	args = reorderFlags(args, map[string]bool{"--person": true})
	fs := flag.NewFlagSet("blockers", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	person := fs.String("person", "", "Only tasks waiting on this person")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	f, code := openVault(cfg, gf)
	if code != ExitOK {
		return code
	}
	blockers := taskfile.Blockers(f.Doc.Tasks(), *person)
	if gf.JSON {
		return printJSON(map[string]any{"tasks": blockers})
	}
	if report.IsTelegram(gf.Format) {
		fmt.Println(report.TelegramBlockers(blockers, *person))
		return ExitOK
	}
	fmt.Println(report.Blockers(blockers, *person))
	return ExitOK
}

func cmdExtract(gf GlobalFlags, args []string) int {
	args = reorderFlags(args, map[string]bool{"--file": true})
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fromFile := fs.String("file", "", "Read notes from a file")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	rest := fs.Args()

	var text string
	switch {
	case strings.TrimSpace(*fromFile) != "":
		b, err := os.ReadFile(*fromFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "extract:", err)
			return ExitNotFound
		}
		text = string(b)
	case len(rest) > 0:
		text = strings.Join(rest, " ")
	default:
		fmt.Fprintln(os.Stderr, "Usage: taskmd extract [--file path] [\"notes text\"]")
		return ExitUsage
	}

	candidates := extract.FromText(text)
	if gf.JSON {
		return printJSON(map[string]any{"candidates": candidates})
	}
	if len(candidates) == 0 {
		fmt.Println("No action items found.")
		return ExitOK
	}
	fmt.Printf("Candidates (%d) — review before adding:\n\n", len(candidates))
	for _, c := range candidates {
		line := fmt.Sprintf("  taskmd add %q --priority %s", c.Title, c.Priority)
		if c.Owner != "" {
			line += " --owner " + c.Owner
		}
		fmt.Println(line)
	}
	return ExitOK
}

func cmdStandup(cfg vault.Config, gf GlobalFlags) int {
	f, code := openVault(cfg, gf)
	if code != ExitOK {
		return code
	}
	tasks := f.Doc.Tasks()
	if report.IsTelegram(gf.Format) {
		fmt.Println(report.TelegramStandup(tasks, time.Now()))
		return ExitOK
	}
	fmt.Println(report.Standup(tasks, time.Now()))
	return ExitOK
}

func cmdWeek(cfg vault.Config, gf GlobalFlags, args []string) int {
	args = reorderFlags(args, map[string]bool{"--days": true})
	fs := flag.NewFlagSet("week", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	days := fs.Int("days", 7, "Days ahead")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	f, code := openVault(cfg, gf)
	if code != ExitOK {
		return code
	}
	tasks := f.Doc.Tasks()
	if report.IsTelegram(gf.Format) {
		fmt.Println(report.TelegramWeekly(tasks, time.Now(), *days))
		return ExitOK
	}
	fmt.Println(report.Weekly(tasks, time.Now(), *days))
	return ExitOK
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
