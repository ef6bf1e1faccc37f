package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/sushant-115/pagewindow/core/pagemap"
	"github.com/sushant-115/pagewindow/core/store"
	"github.com/sushant-115/pagewindow/core/window"
)

var errExit = errors.New("exit")

// shell executes CLI commands against a window.
type shell struct {
	mgr *window.Manager
	st  store.Store
	out io.Writer
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("seed"),
	readline.PcItem("load"),
	readline.PcItem("evict"),
	readline.PcItem("pin"),
	readline.PcItem("unpin"),
	readline.PcItem("detach"),
	readline.PcItem("move"),
	readline.PcItem("show"),
	readline.PcItem("ranges"),
	readline.PcItem("at"),
	readline.PcItem("index"),
	readline.PcItem("help"),
	readline.PcItem("exit"),
)

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  seed <n>                    append n generated records to the store")
	fmt.Fprintln(s.out, "  load <page>                 load a page into the window")
	fmt.Fprintln(s.out, "  evict <page>                drop a page from the window")
	fmt.Fprintln(s.out, "  pin <page> / unpin <page>   protect a page from eviction")
	fmt.Fprintln(s.out, "  detach <page> <neighbour>   turn a page into a feed of its neighbour")
	fmt.Fprintln(s.out, "  move <fp> <fo> <tp> <to>    move the record at (fp, fo) to (tp, to)")
	fmt.Fprintln(s.out, "  at <page> <offset>          show the record at a position")
	fmt.Fprintln(s.out, "  index <record id>           show the logical index of a record")
	fmt.Fprintln(s.out, "  show                        print pages and feeds")
	fmt.Fprintln(s.out, "  ranges                      print the contiguous page ranges")
	fmt.Fprintln(s.out, "  help")
	fmt.Fprintln(s.out, "  exit / quit")
}

// ints parses want numeric arguments of cmd.
func ints(cmd string, args []string, want int) ([]int, error) {
	if len(args) != want {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", cmd, want, len(args))
	}
	out := make([]int, want)
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", cmd, a)
		}
		out[i] = n
	}
	return out, nil
}

func position(page, offset int) (pagemap.RecordPosition, error) {
	return pagemap.NewRecordPosition(page, offset)
}

// run executes one command line. errExit is returned for exit and quit.
func (s *shell) run(ctx context.Context, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "seed":
		n, err := ints(cmd, args, 1)
		if err != nil {
			return err
		}
		total, err := s.st.TotalCount(ctx)
		if err != nil {
			return err
		}
		if err := store.Generate(ctx, s.st, total, n[0]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "appended %d records, %d in store\n", n[0], total+n[0])
	case "load", "evict", "pin", "unpin":
		n, err := ints(cmd, args, 1)
		if err != nil {
			return err
		}
		switch cmd {
		case "load":
			err = s.mgr.Load(ctx, n[0])
		case "evict":
			err = s.mgr.Evict(ctx, n[0])
		case "pin":
			err = s.mgr.Pin(n[0])
		case "unpin":
			err = s.mgr.Unpin(n[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "ok, loaded pages %v\n", s.mgr.LoadedPages())
	case "detach":
		n, err := ints(cmd, args, 2)
		if err != nil {
			return err
		}
		if err := s.mgr.Detach(ctx, n[0], n[1]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "ok, page %d is a feed of page %d\n", n[0], n[1])
	case "move":
		n, err := ints(cmd, args, 4)
		if err != nil {
			return err
		}
		from, err := position(n[0], n[1])
		if err != nil {
			return err
		}
		to, err := position(n[2], n[3])
		if err != nil {
			return err
		}
		if err := s.mgr.Move(ctx, from, to); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "moved %s -> %s\n", from, to)
	case "at":
		n, err := ints(cmd, args, 2)
		if err != nil {
			return err
		}
		pos, err := position(n[0], n[1])
		if err != nil {
			return err
		}
		rec, ok, err := s.mgr.RecordAt(pos)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(s.out, "%s: empty\n", pos)
			return nil
		}
		fmt.Fprintf(s.out, "%s: %s %s (index %d)\n", pos, rec.ID(), rec, s.mgr.IndexOf(rec.ID()))
	case "index":
		if len(args) != 1 {
			return fmt.Errorf("index expects a record id")
		}
		id, err := pagemap.ParseRecordID(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s: %d\n", id, s.mgr.IndexOf(id))
	case "show":
		s.show()
	case "ranges":
		ranges := s.mgr.Ranges()
		if len(ranges) == 0 {
			fmt.Fprintln(s.out, "no pages loaded")
		}
		for _, r := range ranges {
			fmt.Fprintln(s.out, r)
		}
	case "help":
		s.printHelp()
	case "exit", "quit":
		return errExit
	default:
		return fmt.Errorf("unknown command %q, type 'help' for a list of commands", cmd)
	}
	return nil
}

func (s *shell) show() {
	snap := s.mgr.Snapshot()
	fmt.Fprintf(s.out, "total records: %d\n", snap.TotalCount)
	for _, p := range s.mgr.LoadedPages() {
		fmt.Fprintf(s.out, "page %d: %s\n", p, joinRecords(snap.Pages[p]))
	}
	for _, p := range slices.Sorted(maps.Keys(snap.Feeds)) {
		fmt.Fprintf(s.out, "feed %d: %s\n", p, joinRecords(snap.Feeds[p]))
	}
}

func joinRecords(records []pagemap.Record) string {
	parts := make([]string, len(records))
	for i, rec := range records {
		parts[i] = fmt.Sprint(rec)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
