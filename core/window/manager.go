// Package window owns a PageMap and its feeds and keeps a bounded number of
// pages of a store loaded, evicting the least recently used page when full.
package window

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sushant-115/pagewindow/config"
	"github.com/sushant-115/pagewindow/core/pagemap"
	"github.com/sushant-115/pagewindow/core/pagemap/feed"
	"github.com/sushant-115/pagewindow/core/store"
	internaltelemetry "github.com/sushant-115/pagewindow/internal/telemetry"
	"github.com/sushant-115/pagewindow/pkg/logger"
)

var (
	ErrWindowFull   = errors.New("window is full and all pages are pinned")
	ErrNotLoaded    = fmt.Errorf("%w: page is not loaded", pagemap.ErrNotFound)
	ErrPagePinned   = errors.New("page is pinned")
	ErrPageBuffered = errors.New("page is held by a feed")
	ErrNotPinned    = errors.New("page is not pinned")
)

// Config holds the window settings.
type Config struct {
	PageSize  int
	MaxPages  int
	LoadRate  float64 // page loads per second, 0 for unlimited
	LoadBurst int
}

// ConfigFrom converts the window section of the file configuration.
func ConfigFrom(c config.WindowConfig) Config {
	return Config{
		PageSize:  c.PageSize,
		MaxPages:  c.MaxPages,
		LoadRate:  c.LoadRate,
		LoadBurst: c.LoadBurst,
	}
}

// Snapshot is a copy of the window content.
type Snapshot struct {
	TotalCount int
	Pages      map[int][]pagemap.Record
	Feeds      map[int][]pagemap.Record
}

// Manager is the single owner of a PageMap and its Feeder. Every structural
// change goes through the Manager, which serialises them with a mutex.
type Manager struct {
	cfg     Config
	store   store.Store
	logger  *zap.Logger
	metrics *internaltelemetry.WindowMetrics
	tracer  trace.Tracer
	limiter *rate.Limiter

	mu      sync.Mutex
	pageMap *pagemap.PageMap
	feeder  *feed.Feeder
	frames  map[int]*frame
	lruList *list.List // front is the most recently used page
}

// New creates a Manager loading from st. logger, metrics and tracer may be
// nil.
func New(cfg Config, st store.Store, log *zap.Logger, metrics *internaltelemetry.WindowMetrics, tracer trace.Tracer) (*Manager, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: store is required", pagemap.ErrInvalidArgument)
	}
	if cfg.MaxPages < 1 {
		return nil, fmt.Errorf("%w: max pages must be greater than 0, got %d", pagemap.ErrInvalidArgument, cfg.MaxPages)
	}
	pm, err := pagemap.NewPageMap(cfg.PageSize, 0)
	if err != nil {
		return nil, err
	}
	fd, err := feed.NewFeeder(pm)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = internaltelemetry.NoopWindowMetrics()
	}
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("")
	}
	limit := rate.Inf
	if cfg.LoadRate > 0 {
		limit = rate.Limit(cfg.LoadRate)
	}

	m := &Manager{
		cfg:     cfg,
		store:   st,
		logger:  logger.Component(log, "window"),
		metrics: metrics,
		tracer:  tracer,
		limiter: rate.NewLimiter(limit, max(cfg.LoadBurst, 1)),
		pageMap: pm,
		feeder:  fd,
		frames:  make(map[int]*frame),
		lruList: list.New(),
	}
	m.logger.Info("Window initialized",
		zap.Int("page_size", cfg.PageSize),
		zap.Int("max_pages", cfg.MaxPages),
		zap.Float64("load_rate", cfg.LoadRate))
	return m, nil
}

func (m *Manager) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "window."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Load makes page part of the window. A loaded page is only marked as
// recently used. A full feed at page is promoted instead of reading the
// store. Loads are throttled to the configured rate.
func (m *Manager) Load(ctx context.Context, page int) (err error) {
	ctx, span := m.startSpan(ctx, "Load", attribute.Int("page", page))
	defer func() { endSpan(span, err) }()
	start := time.Now()

	if page < 1 {
		return fmt.Errorf("%w: page must be greater than 0, got %d", pagemap.ErrInvalidArgument, page)
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("load page %d: %w", page, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.frames[page]; ok {
		m.lruList.MoveToFront(f.lruElement)
		m.logger.Debug("Page already loaded", zap.Int("page", page))
		return nil
	}

	if m.feeder.FeedAt(page) != nil {
		if !m.feeder.IsPageCandidate(page) {
			return fmt.Errorf("%w: page %d is partially buffered", ErrPageBuffered, page)
		}
		// the linked page must survive making room, it owns the feed
		buf, _ := m.feeder.Feed(page)
		if lf, ok := m.frames[max(buf.Previous(), buf.Next())]; ok {
			lf.Pin()
			defer lf.Unpin()
		}
		if err := m.makeRoomLocked(ctx); err != nil {
			return err
		}
		if err := m.feeder.SwapFeedToMap(page); err != nil {
			return err
		}
		m.trackLocked(ctx, page)
		m.logger.Debug("Feed promoted to page", zap.Int("page", page))
		return nil
	}

	total, err := m.store.TotalCount(ctx)
	if err != nil {
		return fmt.Errorf("load page %d: %w", page, err)
	}
	if err := m.pageMap.SetTotalCount(total); err != nil {
		return err
	}
	if last := pagemap.LastPossiblePageNumber(m.pageMap); page > last {
		return fmt.Errorf("%w: page %d exceeds the last page %d", pagemap.ErrOutOfBounds, page, last)
	}

	records, err := m.store.LoadPage(ctx, page, m.cfg.PageSize)
	if err != nil {
		return fmt.Errorf("load page %d: %w", page, err)
	}
	// nothing is evicted for a page the map would reject
	victim, full, err := m.victimLocked()
	if err != nil {
		return err
	}
	var released []int
	if full {
		released = append(released, victim)
	}
	if err := m.pageMap.CheckPage(page, records, released...); err != nil {
		return fmt.Errorf("load page %d: %w", page, err)
	}
	if full {
		m.evictLocked(ctx, victim)
	}
	if err := m.pageMap.SetPage(page, records); err != nil {
		return fmt.Errorf("load page %d: %w", page, err)
	}
	m.trackLocked(ctx, page)

	m.metrics.PageLoadsCounter.Add(ctx, 1)
	m.metrics.LoadLatencyHistogram.Record(ctx, time.Since(start).Milliseconds())
	m.logger.Debug("Page loaded",
		zap.Int("page", page),
		zap.Int("records", len(records)),
		zap.Int("loaded_pages", len(m.frames)))
	return nil
}

func (m *Manager) trackLocked(ctx context.Context, page int) {
	f := newFrame(page)
	f.lruElement = m.lruList.PushFront(page)
	m.frames[page] = f
	m.metrics.LoadedPagesUpDown.Add(ctx, 1)
}

// victimLocked returns the least recently used unpinned page when the window
// is full. full is false when there is still room. Must be called with m.mu
// held.
func (m *Manager) victimLocked() (page int, full bool, err error) {
	if len(m.frames) < m.cfg.MaxPages {
		return 0, false, nil
	}
	for e := m.lruList.Back(); e != nil; e = e.Prev() {
		p := e.Value.(int)
		if !m.frames[p].IsPinned() {
			m.logger.Debug("Found LRU victim", zap.Int("page", p))
			return p, true, nil
		}
	}
	m.logger.Warn("Window is full and every page is pinned", zap.Int("max_pages", m.cfg.MaxPages))
	return 0, true, ErrWindowFull
}

// makeRoomLocked evicts the least recently used unpinned page if the window
// is full. Must be called with m.mu held.
func (m *Manager) makeRoomLocked(ctx context.Context) error {
	victim, full, err := m.victimLocked()
	if err != nil || !full {
		return err
	}
	m.evictLocked(ctx, victim)
	return nil
}

// evictLocked drops page and every feed linked to it. Must be called with
// m.mu held.
func (m *Manager) evictLocked(ctx context.Context, page int) {
	f := m.frames[page]
	m.lruList.Remove(f.lruElement)
	delete(m.frames, page)
	m.pageMap.RemovePage(page)

	for _, neighbour := range []int{page - 1, page + 1} {
		buf, ok := m.feeder.Feed(neighbour)
		if !ok || (buf.Previous() != page && buf.Next() != page) {
			continue
		}
		m.feeder.RemoveFeedAt(neighbour)
		m.logger.Warn("Dropped feed linked to evicted page",
			zap.Int("page", page),
			zap.Int("feed", neighbour),
			zap.Int("records", buf.Len()))
	}

	m.metrics.PageEvictionsCounter.Add(ctx, 1)
	m.metrics.LoadedPagesUpDown.Add(ctx, -1)
	m.logger.Debug("Page evicted", zap.Int("page", page), zap.Duration("resident", time.Since(f.loadedAt)))
}

// Evict removes a loaded, unpinned page from the window.
func (m *Manager) Evict(ctx context.Context, page int) (err error) {
	ctx, span := m.startSpan(ctx, "Evict", attribute.Int("page", page))
	defer func() { endSpan(span, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.frames[page]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotLoaded, page)
	}
	if f.IsPinned() {
		return fmt.Errorf("%w: %d (pin count %d)", ErrPagePinned, page, f.pinCount)
	}
	m.evictLocked(ctx, page)
	return nil
}

// Pin keeps page from being evicted until it is unpinned as often as it was
// pinned.
func (m *Manager) Pin(page int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.frames[page]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotLoaded, page)
	}
	f.Pin()
	return nil
}

// Unpin releases one pin of page.
func (m *Manager) Unpin(page int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.frames[page]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotLoaded, page)
	}
	if !f.IsPinned() {
		m.logger.Warn("Attempted to unpin page with pin count 0", zap.Int("page", page))
		return fmt.Errorf("%w: %d", ErrNotPinned, page)
	}
	f.Unpin()
	return nil
}

// Detach turns the loaded page into a feed linked to its loaded neighbour
// target, freeing its slot in the window.
func (m *Manager) Detach(ctx context.Context, page, target int) (err error) {
	ctx, span := m.startSpan(ctx, "Detach", attribute.Int("page", page), attribute.Int("target", target))
	defer func() { endSpan(span, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.frames[page]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotLoaded, page)
	}
	if f.IsPinned() {
		return fmt.Errorf("%w: %d (pin count %d)", ErrPagePinned, page, f.pinCount)
	}
	if _, err := m.feeder.SwapMapToFeed(page, target); err != nil {
		return err
	}
	m.lruList.Remove(f.lruElement)
	delete(m.frames, page)
	m.metrics.LoadedPagesUpDown.Add(ctx, -1)
	m.logger.Debug("Page detached into feed", zap.Int("page", page), zap.Int("target", target))
	return nil
}

// Move moves the record at from to to; see pagemap.MoveRecord. Rejected
// moves leave the window unchanged.
func (m *Manager) Move(ctx context.Context, from, to pagemap.RecordPosition) (err error) {
	ctx, span := m.startSpan(ctx, "Move",
		attribute.String("from", from.String()),
		attribute.String("to", to.String()))
	defer func() { endSpan(span, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := pagemap.MoveRecord(from, to, m.pageMap, m.feeder); err != nil {
		reason := moveFailureReason(err)
		m.metrics.MoveFailed(ctx, reason)
		m.logger.Warn("Move rejected",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
			zap.String("reason", reason),
			zap.Error(err))
		return err
	}

	for _, p := range []int{from.Page(), to.Page()} {
		if f, ok := m.frames[p]; ok {
			m.lruList.MoveToFront(f.lruElement)
		}
	}
	lo, hi := min(from.Page(), to.Page()), max(from.Page(), to.Page())
	m.metrics.MovesCounter.Add(ctx, 1)
	m.metrics.IndexRepairSpanHistogram.Record(ctx, int64(hi-lo+1))
	m.logger.Debug("Record moved", zap.Stringer("from", from), zap.Stringer("to", to))
	return nil
}

func moveFailureReason(err error) string {
	switch {
	case errors.Is(err, pagemap.ErrCrossRangeMove):
		return "cross_range"
	case errors.Is(err, pagemap.ErrRecordNotResolvable):
		return "not_resolvable"
	case errors.Is(err, pagemap.ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, pagemap.ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "inconsistent_state"
	}
}

func (m *Manager) RecordAt(pos pagemap.RecordPosition) (pagemap.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return pagemap.RecordAt(pos, m.pageMap, m.feeder)
}

// IndexOf returns the logical index of the record with id, or -1.
func (m *Manager) IndexOf(id pagemap.RecordID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pageMap.IndexOf(id)
}

// Ranges returns the contiguous runs of pages and feeds in the window.
func (m *Manager) Ranges() []*pagemap.PageRange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return pagemap.AvailableRanges(m.pageMap, m.feeder)
}

// LoadedPages returns the loaded page numbers, ascending.
func (m *Manager) LoadedPages() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pageMap.PageNumbers()
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		TotalCount: m.pageMap.TotalCount(),
		Pages:      make(map[int][]pagemap.Record, m.pageMap.Len()),
		Feeds:      make(map[int][]pagemap.Record),
	}
	for _, p := range m.pageMap.PageNumbers() {
		snap.Pages[p], _ = m.pageMap.Page(p)
	}
	for _, p := range m.feeder.FeedPages() {
		f, _ := m.feeder.Feed(p)
		snap.Feeds[p] = f.Records()
	}
	return snap
}

// Do runs fn with exclusive access to the page map and its feeds. fn must
// not keep either after it returns, and must not load or evict pages. If it
// does, the window adopts the new page set, evicting down to MaxPages, and
// Do returns ErrInconsistentState.
func (m *Manager) Do(fn func(*pagemap.PageMap, *feed.Feeder) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := m.pageMap.PageNumbers()
	err := fn(m.pageMap, m.feeder)
	if after := m.pageMap.PageNumbers(); !slices.Equal(before, after) {
		m.logger.Error("Page set changed inside Do", zap.Ints("before", before), zap.Ints("after", after))
		m.syncFramesLocked(context.Background())
		return fmt.Errorf("%w: pages must be loaded and evicted through the window", pagemap.ErrInconsistentState)
	}
	return err
}

// syncFramesLocked makes the frames match the pages of the map. Must be
// called with m.mu held.
func (m *Manager) syncFramesLocked(ctx context.Context) {
	for page, f := range m.frames {
		if m.pageMap.HasPage(page) {
			continue
		}
		m.lruList.Remove(f.lruElement)
		delete(m.frames, page)
		m.metrics.LoadedPagesUpDown.Add(ctx, -1)
	}
	for _, page := range m.pageMap.PageNumbers() {
		if _, ok := m.frames[page]; !ok {
			m.trackLocked(ctx, page)
		}
	}
	for len(m.frames) > m.cfg.MaxPages {
		if err := m.makeRoomLocked(ctx); err != nil {
			m.logger.Warn("Window stays over capacity", zap.Int("loaded_pages", len(m.frames)), zap.Error(err))
			return
		}
	}
}

// Close closes the store.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger.Info("Window closed", zap.Int("loaded_pages", len(m.frames)))
	return m.store.Close()
}
