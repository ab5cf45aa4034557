package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/pretty"

	"mpkv/internal/vault"
	"mpkv/pkg/config"
	"mpkv/pkg/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "add":
		err = cmdAdd(os.Args[2:])
	case "view":
		err = cmdView(os.Args[2:])
	case "list":
		err = cmdList(os.Args[2:])
	case "search":
		err = cmdSearch(os.Args[2:])
	case "delete":
		err = cmdDelete(os.Args[2:])
	case "tags":
		err = cmdTags(os.Args[2:])
	case "export":
		err = cmdExport(os.Args[2:])
	case "compact":
		err = cmdCompact(os.Args[2:])
	case "backup":
		err = cmdBackup(os.Args[2:])
	case "restore":
		err = cmdRestore(os.Args[2:])
	case "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "mpkv: unknown command %q\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "mpkv: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mpkv - a note vault on an append-only key-value store

Usage:
  mpkv <command> [options]

Commands:
  add       Create a note
  view      Show one note
  list      List note titles, oldest first
  search    Full-text search over titles, tags and content
  delete    Remove a note
  tags      Show tag usage counts
  export    Write every note to a directory as .txt
  compact   Rewrite the log, dropping stale records
  backup    Write a compressed snapshot of the log
  restore   Replace the log from a snapshot
  help      Show this help

Options common to all commands:
  -vault DIR     Vault directory (overrides config)
  -config FILE   Config file (default ~/.mpkv/config.yaml)
  -strict        Fail on log corruption instead of truncating

Examples:
  mpkv add -title "Shopping list" -content "milk, eggs, coffee beans" -tags errands
  mpkv search -q coffee
  mpkv backup -out vault.zst`)
}

// vaultFlags are the flags every subcommand shares.
type vaultFlags struct {
	configPath string
	dir        string
	strict     bool
}

func registerVaultFlags(fs *flag.FlagSet) *vaultFlags {
	vf := &vaultFlags{}
	fs.StringVar(&vf.configPath, "config", defaultConfigPath(), "config file")
	fs.StringVar(&vf.dir, "vault", "", "vault directory (overrides config)")
	fs.BoolVar(&vf.strict, "strict", false, "fail on log corruption instead of truncating")
	return vf
}

// resolveConfig loads the config file, wires the global logger, and folds
// the shared flags in: -vault wins over vault.dir, -strict ors into
// vault.strict.
func resolveConfig(vf *vaultFlags) (config.Config, string, store.Options, error) {
	cfg, err := config.Load(vf.configPath)
	if err != nil {
		return cfg, "", store.Options{}, err
	}
	initLogger(cfg.Logger)

	dir := cfg.Vault.Dir
	if vf.dir != "" {
		dir = vf.dir
	}
	dir, err = config.ExpandHome(dir)
	if err != nil {
		return cfg, "", store.Options{}, err
	}

	opts := store.DefaultOptions()
	if cfg.Vault.MaxKeyBytes > 0 {
		opts.MaxKeyBytes = cfg.Vault.MaxKeyBytes
	}
	opts.Strict = cfg.Vault.Strict || vf.strict
	return cfg, dir, opts, nil
}

// app bundles what an open-vault subcommand works with.
type app struct {
	cfg config.Config
	st  *store.Store
	v   *vault.Vault
}

func openApp(vf *vaultFlags) (*app, error) {
	cfg, dir, opts, err := resolveConfig(vf)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(dir, opts)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, st: st, v: vault.New(st)}, nil
}

func (a *app) close() {
	if err := a.st.Close(); err != nil {
		slog.Error("close store", "error", err)
	}
}

func printJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	os.Stdout.Write(pretty.Pretty(data))
	return nil
}

func cmdAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	vf := registerVaultFlags(fs)
	title := fs.String("title", "", "note title (required)")
	content := fs.String("content", "", "note content (required)")
	tags := fs.String("tags", "", "comma-separated tags")
	fs.Parse(args)

	if *title == "" || *content == "" {
		return errors.New("add requires -title and -content")
	}

	a, err := openApp(vf)
	if err != nil {
		return err
	}
	defer a.close()

	n, err := a.v.Add(*title, *content, vault.ParseTags(*tags))
	if err != nil {
		return err
	}
	fmt.Printf("added %q (id %s)\n", n.Title, n.ID)
	return nil
}

func cmdView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	vf := registerVaultFlags(fs)
	title := fs.String("title", "", "note title (required)")
	asJSON := fs.Bool("json", false, "print the note as JSON")
	fs.Parse(args)

	if *title == "" {
		return errors.New("view requires -title")
	}

	a, err := openApp(vf)
	if err != nil {
		return err
	}
	defer a.close()

	n, err := a.v.Get(*title)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(n)
	}

	fmt.Printf("Title: %s\n", n.Title)
	if len(n.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(n.Tags, ", "))
	}
	fmt.Printf("Created: %s\n", n.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Modified: %s\n", n.LastModified.Format(time.RFC3339))
	fmt.Printf("\n%s\n", n.Content)
	return nil
}

func cmdList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	vf := registerVaultFlags(fs)
	asJSON := fs.Bool("json", false, "print titles as a JSON array")
	fs.Parse(args)

	a, err := openApp(vf)
	if err != nil {
		return err
	}
	defer a.close()

	titles, err := a.v.Titles()
	if err != nil {
		return err
	}
	if *asJSON {
		if titles == nil {
			titles = []string{}
		}
		return printJSON(titles)
	}
	for _, title := range titles {
		fmt.Println(title)
	}
	return nil
}

func cmdSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	vf := registerVaultFlags(fs)
	query := fs.String("q", "", "search query (required)")
	asJSON := fs.Bool("json", false, "print matching notes as JSON")
	fs.Parse(args)

	if *query == "" {
		return errors.New("search requires -q")
	}

	a, err := openApp(vf)
	if err != nil {
		return err
	}
	defer a.close()

	matches, err := a.v.Search(*query)
	if err != nil {
		return err
	}
	if *asJSON {
		if matches == nil {
			matches = []vault.Note{}
		}
		return printJSON(matches)
	}
	if len(matches) == 0 {
		fmt.Printf("no notes match %q\n", *query)
		return nil
	}
	for _, n := range matches {
		fmt.Println(n.Title)
	}
	return nil
}

func cmdDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	vf := registerVaultFlags(fs)
	title := fs.String("title", "", "note title (required)")
	fs.Parse(args)

	if *title == "" {
		return errors.New("delete requires -title")
	}

	a, err := openApp(vf)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.v.Delete(*title); err != nil {
		return err
	}
	fmt.Printf("deleted %q\n", *title)
	return nil
}

func cmdTags(args []string) error {
	fs := flag.NewFlagSet("tags", flag.ExitOnError)
	vf := registerVaultFlags(fs)
	asJSON := fs.Bool("json", false, "print counts as a JSON object")
	fs.Parse(args)

	a, err := openApp(vf)
	if err != nil {
		return err
	}
	defer a.close()

	counts, err := a.v.TagCounts()
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(counts)
	}

	names := make([]string, 0, len(counts))
	for tag := range counts {
		names = append(names, tag)
	}
	slices.Sort(names)
	for _, tag := range names {
		fmt.Printf("%s\t%d\n", tag, counts[tag])
	}
	return nil
}

func cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	vf := registerVaultFlags(fs)
	dir := fs.String("dir", "", "output directory (required)")
	fs.Parse(args)

	if *dir == "" {
		return errors.New("export requires -dir")
	}

	a, err := openApp(vf)
	if err != nil {
		return err
	}
	defer a.close()

	written, err := a.v.Export(*dir)
	if err != nil {
		return err
	}
	fmt.Printf("exported %d note(s) to %s\n", written, *dir)
	return nil
}

func cmdCompact(args []string) error {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	vf := registerVaultFlags(fs)
	fs.Parse(args)

	a, err := openApp(vf)
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.st.Compact()
	if err != nil {
		return err
	}
	fmt.Printf("kept %d record(s), dropped %d, %d bytes down to %d\n",
		stats.RecordsKept, stats.RecordsDropped, stats.BytesBefore, stats.BytesAfter)
	return nil
}

func cmdBackup(args []string) error {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	vf := registerVaultFlags(fs)
	out := fs.String("out", "", "output file (required)")
	codecFlag := fs.String("codec", "", "compression codec, zstd or gzip (default from config)")
	fs.Parse(args)

	if *out == "" {
		return errors.New("backup requires -out")
	}

	a, err := openApp(vf)
	if err != nil {
		return err
	}
	defer a.close()

	codec := a.cfg.Backup.Codec
	if *codecFlag != "" {
		codec = *codecFlag
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	n, err := a.v.Backup(f, codec)
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", *out, err)
	}
	fmt.Printf("wrote %d compressed byte(s) to %s\n", n, *out)
	return nil
}

// cmdRestore replaces the log before any store is opened; the restored
// data is then verified by opening the vault and replaying it.
func cmdRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	vf := registerVaultFlags(fs)
	in := fs.String("in", "", "input file (required)")
	codecFlag := fs.String("codec", "", "compression codec, zstd or gzip (default from config)")
	fs.Parse(args)

	if *in == "" {
		return errors.New("restore requires -in")
	}

	cfg, dir, opts, err := resolveConfig(vf)
	if err != nil {
		return err
	}
	codec := cfg.Backup.Codec
	if *codecFlag != "" {
		codec = *codecFlag
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("open %s: %w", *in, err)
	}
	defer f.Close()

	if err := vault.Restore(dir, f, codec); err != nil {
		return err
	}

	st, err := store.Open(dir, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("close store", "error", err)
		}
	}()

	seq, err := st.Keys()
	if err != nil {
		return err
	}
	notes := 0
	for range seq {
		notes++
	}
	fmt.Printf("restored %d note(s) to %s\n", notes, dir)
	return nil
}
