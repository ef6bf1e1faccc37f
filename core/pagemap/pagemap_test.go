package pagemap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// --- Test Helpers ---

// letters returns one Item per rune of s, using the rune as payload.
func letters(s string) []Record {
	out := make([]Record, 0, len(s))
	for _, r := range s {
		out = append(out, NewItem([]byte(string(r))))
	}
	return out
}

// setupPageMap creates a PageMap with the given pages, each a string of
// single letter records.
func setupPageMap(t *testing.T, pageSize, totalCount int, pages map[int]string) *PageMap {
	t.Helper()
	m, err := NewPageMap(pageSize, totalCount)
	require.NoError(t, err)
	for page, content := range pages {
		require.NoError(t, m.SetPage(page, letters(content)))
	}
	return m
}

// content renders a page back to its letters.
func content(t *testing.T, m *PageMap, page int) string {
	t.Helper()
	values, ok := m.Page(page)
	require.True(t, ok, "page %d should be loaded", page)
	out := ""
	for _, rec := range values {
		out += rec.(*Item).String()
	}
	return out
}

// recordOf returns the record with the given letter.
func recordOf(t *testing.T, m *PageMap, letter string) Record {
	t.Helper()
	for _, p := range m.PageNumbers() {
		values, _ := m.Page(p)
		for _, rec := range values {
			if rec.(*Item).String() == letter {
				return rec
			}
		}
	}
	t.Fatalf("record %q not found", letter)
	return nil
}

// --- Tests ---

func TestNewPageMap(t *testing.T) {
	_, err := NewPageMap(0, 10)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewPageMap(4, -1)
	require.ErrorIs(t, err, ErrInvalidArgument)

	m, err := NewPageMap(4, 0)
	require.NoError(t, err)
	require.Equal(t, 4, m.PageSize())
	require.Equal(t, 0, m.Len())
	require.Equal(t, 0, m.LastPage())
	require.Empty(t, m.PageNumbers())
}

func TestPageMap_SetPage(t *testing.T) {
	m := setupPageMap(t, 4, 20, map[int]string{5: "uvwx", 1: "abcd", 2: "efgh"})

	t.Run("PageNumbersAreSorted", func(t *testing.T) {
		require.Equal(t, []int{1, 2, 5}, m.PageNumbers())
		require.Equal(t, 5, m.LastPage())
	})

	t.Run("RecordsAreIndexed", func(t *testing.T) {
		require.Equal(t, 0, m.IndexOf(recordOf(t, m, "a").ID()))
		require.Equal(t, 6, m.IndexOf(recordOf(t, m, "g").ID()))
		require.Equal(t, 19, m.IndexOf(recordOf(t, m, "x").ID()))
		require.Equal(t, -1, m.IndexOf(NewRecordID()))
	})

	t.Run("Rejects", func(t *testing.T) {
		require.ErrorIs(t, m.SetPage(0, letters("a")), ErrInvalidArgument)
		require.ErrorIs(t, m.SetPage(3, letters("abcde")), ErrOutOfBounds)
		require.ErrorIs(t, m.SetPage(3, []Record{nil}), ErrInvalidArgument)

		dup := NewItem([]byte("z"))
		require.ErrorIs(t, m.SetPage(3, []Record{dup, dup}), ErrInvalidArgument)

		// a record held by page 1 cannot also be put on page 3
		require.ErrorIs(t, m.SetPage(3, []Record{recordOf(t, m, "a")}), ErrInvalidArgument)
		require.False(t, m.HasPage(3))
	})

	t.Run("CheckPageDoesNotMutate", func(t *testing.T) {
		a := recordOf(t, m, "a")
		require.ErrorIs(t, m.CheckPage(3, []Record{a}), ErrInvalidArgument)
		require.ErrorIs(t, m.CheckPage(3, letters("abcde")), ErrOutOfBounds)

		// records of a released page are free to move
		require.NoError(t, m.CheckPage(3, []Record{a}, 1))
		require.False(t, m.HasPage(3))
		require.Equal(t, "abcd", content(t, m, 1))
		require.Equal(t, 0, m.IndexOf(a.ID()))
	})

	t.Run("ReplaceOwnRecords", func(t *testing.T) {
		values, _ := m.Page(2)
		reversed := []Record{values[3], values[2], values[1], values[0]}
		require.NoError(t, m.SetPage(2, reversed))
		require.Equal(t, "hgfe", content(t, m, 2))
		require.Equal(t, 4, m.IndexOf(values[3].ID()))
	})

	t.Run("PageReturnsCopy", func(t *testing.T) {
		values, _ := m.Page(1)
		values[0] = NewItem([]byte("z"))
		require.Equal(t, "abcd", content(t, m, 1))
	})

	t.Run("RemovePage", func(t *testing.T) {
		x := recordOf(t, m, "x")
		require.True(t, m.RemovePage(5))
		require.False(t, m.RemovePage(5))
		require.Equal(t, -1, m.IndexOf(x.ID()))
		require.Equal(t, []int{1, 2}, m.PageNumbers())
	})
}

func TestCoordinates(t *testing.T) {
	pos, err := IndexToPosition(0, 10, 100)
	require.NoError(t, err)
	require.Equal(t, MustPosition(1, 0), pos)

	pos, err = IndexToPosition(25, 10, 100)
	require.NoError(t, err)
	require.Equal(t, 3, pos.Page())
	require.Equal(t, 5, pos.Offset())

	_, err = IndexToPosition(-1, 10, 100)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = IndexToPosition(100, 10, 100)
	require.ErrorIs(t, err, ErrOutOfBounds)

	idx, err := PositionToIndex(MustPosition(3, 5), 10)
	require.NoError(t, err)
	require.Equal(t, 25, idx)

	_, err = PositionToIndex(MustPosition(1, 10), 10)
	require.ErrorIs(t, err, ErrOutOfBounds)
	_, err = PositionToIndex(RecordPosition{}, 10)
	require.ErrorIs(t, err, ErrInvalidArgument)

	for i := 0; i < 57; i++ {
		pos, err := IndexToPosition(i, 7, 57)
		require.NoError(t, err)
		back, err := PositionToIndex(pos, 7)
		require.NoError(t, err)
		require.Equal(t, i, back)
	}

	rng, err := IndexRangeFromBounds(3, 12, 5, 20)
	require.NoError(t, err)
	require.Equal(t, MustPosition(1, 3), rng.Start)
	require.Equal(t, MustPosition(3, 2), rng.End)

	_, err = IndexRangeFromBounds(5, 3, 5, 20)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = IndexRangeFromBounds(5, 20, 5, 20)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestRecordPosition(t *testing.T) {
	_, err := NewRecordPosition(0, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewRecordPosition(1, -1)
	require.ErrorIs(t, err, ErrInvalidArgument)

	pos, err := NewRecordPosition(2, 3)
	require.NoError(t, err)
	require.True(t, pos.Equal(MustPosition(2, 3)))
	require.False(t, pos.Equal(MustPosition(3, 2)))
	require.Equal(t, "(2, 3)", pos.String())
	require.False(t, RecordPosition{}.IsValid())
}

func TestRecordID(t *testing.T) {
	id := NewRecordID()
	require.False(t, id.IsNil())
	require.True(t, NilRecordID.IsNil())

	parsed, err := ParseRecordID(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	fromBytes, err := RecordIDFromBytes(id.Bytes())
	require.NoError(t, err)
	require.Equal(t, id, fromBytes)

	_, err = ParseRecordID("not-a-uuid")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = RecordIDFromBytes([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMaintainIndex(t *testing.T) {
	// page 3 is the partially filled last page of a collection of 10
	m := setupPageMap(t, 4, 10, map[int]string{1: "abcd", 2: "efgh", 3: "ij"})
	rng, err := PageRangeFor(1, 3)
	require.NoError(t, err)

	// 1. Shift a record by hand, leaving the index stale.
	values, _ := m.values(1)
	m.setValues(1, values[1:])
	e, _ := m.values(2)
	m.setValues(2, append(e, values[0]))

	// 2. Repair the index.
	require.NoError(t, MaintainIndex(rng, m))
	require.Equal(t, 0, m.IndexOf(recordOf(t, m, "b").ID()))
	require.Equal(t, 3, m.IndexOf(recordOf(t, m, "e").ID()))
	require.Equal(t, 6, m.IndexOf(recordOf(t, m, "h").ID()))
	require.Equal(t, 7, m.IndexOf(recordOf(t, m, "a").ID()))
	require.Equal(t, 8, m.IndexOf(recordOf(t, m, "i").ID()))

	// 3. Running it again changes nothing.
	before := make(map[RecordID]int, len(m.index))
	for k, v := range m.index {
		before[k] = v
	}
	require.NoError(t, MaintainIndex(rng, m))
	require.Equal(t, before, m.index)

	t.Run("MissingPage", func(t *testing.T) {
		gap, err := PageRangeFor(2, 4)
		require.NoError(t, err)
		require.ErrorIs(t, MaintainIndex(gap, m), ErrInconsistentState)
		require.ErrorIs(t, MaintainIndex(nil, m), ErrInvalidArgument)
	})
}

func TestRecordAt(t *testing.T) {
	m := setupPageMap(t, 4, 10, map[int]string{1: "abcd", 3: "ij"})

	rec, ok, err := RecordAt(MustPosition(1, 2), m, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "c", rec.(*Item).String())

	_, ok, err = RecordAt(MustPosition(3, 2), m, nil)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = RecordAt(MustPosition(2, 0), m, nil)
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = RecordAt(MustPosition(1, 4), m, nil)
	require.ErrorIs(t, err, ErrOutOfBounds)

	pos, ok := FindRecord(recordOf(t, m, "j"), m, nil)
	require.True(t, ok)
	require.Equal(t, MustPosition(3, 1), pos)

	_, ok = FindRecord(NewItem(nil), m, nil)
	require.False(t, ok)
}
