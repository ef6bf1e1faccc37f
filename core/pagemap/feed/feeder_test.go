package feed

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sushant-115/pagewindow/core/pagemap"
)

// setupFeeder loads the given pages into a fresh PageMap and wraps it in a
// Feeder.
func setupFeeder(t *testing.T, pageSize, totalCount int, pages map[int]string) (*Feeder, *pagemap.PageMap) {
	t.Helper()
	m, err := pagemap.NewPageMap(pageSize, totalCount)
	require.NoError(t, err)
	for page, content := range pages {
		require.NoError(t, m.SetPage(page, letters(content)))
	}
	fd, err := NewFeeder(m)
	require.NoError(t, err)
	return fd, m
}

func pageContent(t *testing.T, m *pagemap.PageMap, page int) string {
	t.Helper()
	values, ok := m.Page(page)
	require.True(t, ok, "page %d should be loaded", page)
	return join(values)
}

func TestNewFeeder(t *testing.T) {
	_, err := NewFeeder(nil)
	require.ErrorIs(t, err, pagemap.ErrInvalidArgument)
}

func TestFeeder_CreateFeedAt(t *testing.T) {
	fd, _ := setupFeeder(t, 4, 40, map[int]string{1: "abcd", 3: "ijkl"})

	f, err := fd.CreateFeedAt(2, 1)
	require.NoError(t, err)
	require.Equal(t, 1, f.Previous())
	require.Equal(t, 4, f.Size())

	again, err := fd.CreateFeedAt(2, 1)
	require.NoError(t, err)
	require.Same(t, f, again)

	_, err = fd.CreateFeedAt(2, 3)
	require.ErrorIs(t, err, ErrFeedExists)

	t.Run("Rejects", func(t *testing.T) {
		_, err := fd.CreateFeedAt(3, 2)
		require.ErrorIs(t, err, pagemap.ErrInvalidArgument, "2 is a feed, not a page")
		_, err = fd.CreateFeedAt(1, 2)
		require.ErrorIs(t, err, pagemap.ErrInvalidArgument)
		_, err = fd.CreateFeedAt(5, 3)
		require.ErrorIs(t, err, pagemap.ErrInvalidArgument)
		_, err = fd.CreateFeedAt(0, 1)
		require.ErrorIs(t, err, pagemap.ErrInvalidArgument)
	})

	t.Run("FeedAt", func(t *testing.T) {
		require.True(t, fd.FeedAt(7) == nil)
		require.NotNil(t, fd.FeedAt(2))
		require.Equal(t, []int{2}, fd.FeedPages())
	})

	t.Run("RemoveFeedAt", func(t *testing.T) {
		require.True(t, fd.RemoveFeedAt(2))
		require.False(t, fd.RemoveFeedAt(2))
		require.Empty(t, fd.FeedPages())
	})
}

func TestFeeder_Swap(t *testing.T) {
	fd, m := setupFeeder(t, 4, 40, map[int]string{4: "mnop", 5: "qrst", 6: "uvwx"})
	values, _ := m.Page(6)

	// 1. Turn page 6 into a feed hanging off page 5.
	f, err := fd.SwapMapToFeed(6, 5)
	require.NoError(t, err)
	require.False(t, m.HasPage(6))
	require.Equal(t, "uvwx", join(f.Records()))
	require.True(t, fd.IsPageCandidate(6))
	require.Equal(t, -1, m.IndexOf(values[0].ID()))

	pos, ok := fd.FindInFeeds(values[2])
	require.True(t, ok)
	require.Equal(t, pagemap.MustPosition(6, 2), pos)

	rec, ok, err := fd.RecordAt(pagemap.MustPosition(6, 1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Same(t, values[1], rec)

	// 2. And back again.
	require.NoError(t, fd.SwapFeedToMap(6))
	require.Equal(t, "uvwx", pageContent(t, m, 6))
	require.Equal(t, 20, m.IndexOf(values[0].ID()))
	require.True(t, fd.FeedAt(6) == nil)

	t.Run("Rejects", func(t *testing.T) {
		_, err := fd.SwapMapToFeed(7, 6)
		require.ErrorIs(t, err, pagemap.ErrNotFound)
		_, err = fd.SwapMapToFeed(4, 2)
		require.ErrorIs(t, err, pagemap.ErrInvalidArgument)
		require.True(t, m.HasPage(4), "a rejected swap leaves the page alone")

		err = fd.SwapFeedToMap(9)
		require.ErrorIs(t, err, ErrFeedNotFound)
		require.ErrorIs(t, err, pagemap.ErrNotFound)

		require.ErrorIs(t, fd.FillFeed(9, letters("a")), ErrFeedNotFound)
	})
}

func TestFeeder_Groups(t *testing.T) {
	fd, m := setupFeeder(t, 2, 40, map[int]string{1: "ab", 2: "cd", 5: "ij", 8: "op", 9: "qr"})
	for _, link := range [][2]int{{3, 2}, {4, 5}, {6, 5}, {10, 9}} {
		_, err := fd.CreateFeedAt(link[0], link[1])
		require.NoError(t, err)
	}

	require.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}, {8, 9, 10}}, fd.GroupWithFeeds())

	ranges := pagemap.AvailableRanges(m, fd)
	require.Len(t, ranges, 3)
	require.Equal(t, []int{4, 5, 6}, ranges[1].ToArray())

	require.Equal(t, [][]int{{3}, {4, 5, 6}, {8, 9, 10}}, fd.GroupWithFeedsForPage(3))
	require.Equal(t, [][]int{{5, 6}, {8, 9, 10}}, fd.GroupWithFeedsForPage(5))
	require.Nil(t, fd.GroupWithFeedsForPage(7))

	require.True(t, fd.HasNextFeed(2))
	require.True(t, fd.HasPreviousFeed(5))
	require.True(t, fd.HasNextFeed(5))
	require.False(t, fd.HasPreviousFeed(1))
	require.False(t, fd.HasNextFeed(8))

	t.Run("FeedOnBothSidesOfAGap", func(t *testing.T) {
		// 7 linked to 8 joins the run of 8, but not the run of 6
		_, err := fd.CreateFeedAt(7, 8)
		require.NoError(t, err)
		require.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}, {7, 8, 9, 10}}, fd.GroupWithFeeds())
	})
}

func TestFeeder_MoveIntoHeadFeed(t *testing.T) {
	fd, m := setupFeeder(t, 4, 12, map[int]string{1: "abcd", 2: "efgh"})
	_, err := fd.CreateFeedAt(3, 2)
	require.NoError(t, err)
	require.NoError(t, fd.FillFeed(3, letters("xy")))
	f, _ := fd.Feed(3)
	x, _ := f.At(0)

	ok, err := pagemap.MoveRecord(pagemap.MustPosition(3, 0), pagemap.MustPosition(1, 1), m, fd)
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, "axbc", pageContent(t, m, 1))
	require.Equal(t, "defg", pageContent(t, m, 2))
	require.Equal(t, "hy", join(f.Records()))
	require.Equal(t, 1, m.IndexOf(x.ID()))

	h, _ := f.At(0)
	require.Equal(t, -1, m.IndexOf(h.ID()), "records shifted into a feed are not indexed")
	pos, ok := pagemap.FindRecord(h, m, fd)
	require.True(t, ok)
	require.Equal(t, pagemap.MustPosition(3, 0), pos)
}

func TestFeeder_MoveOutOfTailFeed(t *testing.T) {
	fd, m := setupFeeder(t, 4, 24, map[int]string{5: "mnop", 6: "qrst"})
	_, err := fd.CreateFeedAt(4, 5)
	require.NoError(t, err)
	require.NoError(t, fd.FillFeed(4, letters("kl")))
	f, _ := fd.Feed(4)
	mRec, _ := m.Page(5)

	ok, err := pagemap.MoveRecord(pagemap.MustPosition(4, 2), pagemap.MustPosition(6, 1), m, fd)
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, "lm", join(f.Records()))
	require.Equal(t, "nopq", pageContent(t, m, 5))
	require.Equal(t, "krst", pageContent(t, m, 6))
	require.Equal(t, 16, m.IndexOf(mRec[1].ID()))
	require.Equal(t, -1, m.IndexOf(mRec[0].ID()))
}

func TestFeeder_MoveAcrossUnlinkedFeed(t *testing.T) {
	fd, m := setupFeeder(t, 4, 24, map[int]string{1: "abcd", 3: "ijkl"})
	// 2 belongs to the run of 3 only
	_, err := fd.CreateFeedAt(2, 3)
	require.NoError(t, err)
	require.NoError(t, fd.FillFeed(2, letters("gh")))

	_, err = pagemap.MoveRecord(pagemap.MustPosition(1, 0), pagemap.MustPosition(2, 2), m, fd)
	require.ErrorIs(t, err, pagemap.ErrCrossRangeMove)
	require.Equal(t, "abcd", pageContent(t, m, 1))
}
