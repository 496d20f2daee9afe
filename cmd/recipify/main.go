// Command recipify parses, stores and exports recipes from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"recipify/internal/infrastructure/config"
	"recipify/internal/infrastructure/storage"
	"recipify/internal/pkg/common"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

var errUsage = errors.New("usage")

// app 子命令共用的狀態
type app struct {
	cfg   *config.Config
	out   io.Writer
	store *storage.Store
}

type command struct {
	usage      string
	needsStore bool
	flags      func(fs *pflag.FlagSet, cfg *config.Config)
	run        func(ctx context.Context, a *app, fs *pflag.FlagSet) error
}

var commands = map[string]command{
	"parse":  parseCommand,
	"list":   listCommand,
	"show":   showCommand,
	"delete": deleteCommand,
	"export": exportCommand,
	"seed":   seedCommand,
	"format": formatCommand,
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	common.Sync()
	if errors.Is(err, errUsage) {
		if err != errUsage {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out, errOut io.Writer) error {
	if len(args) == 0 {
		printUsage(errOut)
		return errUsage
	}
	name, rest := args[0], args[1:]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage(out)
		return nil
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(errOut, "unknown command %q\n\n", name)
		printUsage(errOut)
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprintf(errOut, "usage: recipify %s\n", cmd.usage)
		fs.PrintDefaults()
	}
	fs.String("db", cfg.Storage.DSN, "database DSN")
	fs.String("driver", cfg.Storage.Driver, "database driver (sqlite, postgres)")
	fs.String("log-level", "", "enable logging at this level (debug, info, warn, error)")
	if cmd.flags != nil {
		cmd.flags(fs, cfg)
	}
	if err := fs.Parse(rest); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	if level, _ := fs.GetString("log-level"); level != "" {
		if err := common.InitLogger(level, cfg.LogFile); err != nil {
			return err
		}
	}

	a := &app{cfg: cfg, out: out}
	if cmd.needsStore {
		cfg.Storage.DSN, _ = fs.GetString("db")
		cfg.Storage.Driver, _ = fs.GetString("driver")
		store, err := storage.Open(cfg.Storage)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Init(ctx); err != nil {
			return err
		}
		a.store = store
	}
	return cmd.run(ctx, a, fs)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: recipify <command> [flags]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

// argument 取得第 i 個位置參數
func argument(fs *pflag.FlagSet, i int, name string) (string, error) {
	if fs.NArg() <= i {
		fs.Usage()
		return "", fmt.Errorf("%s is required: %w", name, errUsage)
	}
	return fs.Arg(i), nil
}
