package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sushant-115/pagewindow/core/pagemap"
	"github.com/sushant-115/pagewindow/core/store"
	"github.com/sushant-115/pagewindow/core/window"
)

func setupShell(t *testing.T, total int) (*shell, *bytes.Buffer) {
	t.Helper()
	st := store.NewMemoryStore()
	require.NoError(t, store.Generate(context.Background(), st, 0, total))
	mgr, err := window.New(window.Config{PageSize: 3, MaxPages: 4}, st, zap.NewNop(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	out := &bytes.Buffer{}
	return &shell{mgr: mgr, st: st, out: out}, out
}

func exec(t *testing.T, sh *shell, line string) error {
	t.Helper()
	return sh.run(context.Background(), strings.Fields(line))
}

func TestShell_Session(t *testing.T) {
	sh, out := setupShell(t, 9)

	require.NoError(t, exec(t, sh, "load 1"))
	require.NoError(t, exec(t, sh, "load 2"))
	require.NoError(t, exec(t, sh, "move 2 2 1 0"))

	out.Reset()
	require.NoError(t, exec(t, sh, "show"))
	require.Equal(t, "total records: 9\n"+
		"page 1: [record-0005, record-0000, record-0001]\n"+
		"page 2: [record-0002, record-0003, record-0004]\n", out.String())

	out.Reset()
	require.NoError(t, exec(t, sh, "ranges"))
	require.Equal(t, "[1, 2]\n", out.String())

	out.Reset()
	require.NoError(t, exec(t, sh, "at 1 0"))
	require.Contains(t, out.String(), "record-0005 (index 0)")

	out.Reset()
	require.NoError(t, exec(t, sh, "detach 2 1"))
	require.NoError(t, exec(t, sh, "show"))
	require.Contains(t, out.String(), "feed 2: [record-0002, record-0003, record-0004]")
}

func TestShell_SeedAppends(t *testing.T) {
	sh, out := setupShell(t, 3)

	require.NoError(t, exec(t, sh, "seed 4"))
	require.Equal(t, "appended 4 records, 7 in store\n", out.String())

	require.NoError(t, exec(t, sh, "load 3"))
	rec, ok, err := sh.mgr.RecordAt(pagemap.MustPosition(3, 0))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "record-0006", rec.(*pagemap.Item).String())

	out.Reset()
	require.NoError(t, exec(t, sh, "index "+rec.ID().String()))
	require.Equal(t, rec.ID().String()+": 6\n", out.String())
}

func TestShell_Errors(t *testing.T) {
	sh, _ := setupShell(t, 9)

	require.ErrorContains(t, exec(t, sh, "load"), "expects 1 arguments")
	require.ErrorContains(t, exec(t, sh, "load x"), "not a number")
	require.ErrorContains(t, exec(t, sh, "frobnicate"), "unknown command")
	require.ErrorIs(t, exec(t, sh, "load 9"), pagemap.ErrOutOfBounds)
	require.ErrorIs(t, exec(t, sh, "move 1 -1 1 0"), pagemap.ErrInvalidArgument)
	require.ErrorIs(t, exec(t, sh, "index nope"), pagemap.ErrInvalidArgument)
	require.ErrorIs(t, exec(t, sh, "quit"), errExit)
	require.NoError(t, exec(t, sh, ""))
}
