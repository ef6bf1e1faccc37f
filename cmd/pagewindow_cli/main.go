package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/sushant-115/pagewindow/config"
	"github.com/sushant-115/pagewindow/core/store"
	"github.com/sushant-115/pagewindow/core/window"
	internaltelemetry "github.com/sushant-115/pagewindow/internal/telemetry"
	"github.com/sushant-115/pagewindow/pkg/logger"
	"github.com/sushant-115/pagewindow/pkg/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to the pagewindow YAML configuration")
	flag.Parse()

	if err := run(*configPath, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "pagewindow: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer log.Sync()

	tel, shutdown, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("Failed to shut down telemetry", zap.Error(err))
		}
	}()
	metrics, err := internaltelemetry.NewWindowMetrics(tel.Meter)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store, log)
	if err != nil {
		return err
	}
	if n, err := store.Seed(ctx, st, cfg.Store.SeedRecords); err != nil {
		st.Close()
		return err
	} else if n > 0 {
		log.Info("Seeded empty store", zap.Int("records", n))
	}

	mgr, err := window.New(window.ConfigFrom(cfg.Window), st, log, metrics, tel.Tracer)
	if err != nil {
		st.Close()
		return err
	}
	defer mgr.Close()

	sh := &shell{mgr: mgr, st: st, out: os.Stdout}
	if len(args) > 0 {
		if err := sh.run(ctx, args); err != nil && !errors.Is(err, errExit) {
			return err
		}
		return nil
	}
	return interactive(ctx, sh)
}

func interactive(ctx context.Context, sh *shell) error {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".pagewindow_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pagewindow> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	sh.out = rl.Stdout()

	fmt.Fprintln(sh.out, "pagewindow CLI. Type 'help' for commands, 'exit' or 'quit' to leave.")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		err = sh.run(ctx, strings.Fields(line))
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(sh.out, "Error: %v\n", err)
		}
	}
}
