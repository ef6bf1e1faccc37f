// Package store provides the backing collections a window loads its pages
// from. A store is an append-only, ordered list of records; the position of a
// record in that list is its logical index.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sushant-115/pagewindow/config"
	"github.com/sushant-115/pagewindow/core/pagemap"
	"github.com/sushant-115/pagewindow/pkg/logger"
)

var (
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrClosed        = errors.New("store is closed")
)

// Store is the backing collection of a window.
type Store interface {
	// TotalCount returns the number of records in the collection.
	TotalCount(ctx context.Context) (int, error)
	// LoadPage returns the records with the logical indices
	// [(page-1)*pageSize, page*pageSize). Pages beyond the end of the
	// collection are empty.
	LoadPage(ctx context.Context, page, pageSize int) ([]pagemap.Record, error)
	// Append adds items at the end of the collection.
	Append(ctx context.Context, items []*pagemap.Item) error
	Close() error
}

// Open creates the store configured by cfg. Stores with a positive
// CacheMaxCost are wrapped in a CachedStore.
func Open(cfg config.StoreConfig, log *zap.Logger) (Store, error) {
	log = logger.Component(log, "store")

	var (
		st  Store
		err error
	)
	if cfg.Driver == config.DriverSQLite || cfg.Driver == config.DriverBolt {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	switch cfg.Driver {
	case config.DriverMemory, "":
		st = NewMemoryStore()
	case config.DriverSQLite:
		st, err = OpenSQLiteStore(cfg.Path)
	case config.DriverBolt:
		st, err = OpenBoltStore(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheMaxCost > 0 {
		cached, err := NewCachedStore(st, cfg.CacheMaxCost)
		if err != nil {
			st.Close()
			return nil, err
		}
		st = cached
	}
	log.Info("Store opened",
		zap.String("driver", cfg.Driver),
		zap.String("path", cfg.Path),
		zap.Int64("cache_max_cost", cfg.CacheMaxCost))
	return st, nil
}

// Seed appends n generated records to st if it is empty. It returns the
// number of records added.
func Seed(ctx context.Context, st Store, n int) (int, error) {
	count, err := st.TotalCount(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 || n <= 0 {
		return 0, nil
	}
	return n, Generate(ctx, st, count, n)
}

// Generate appends n records whose payload names their logical index,
// starting at first.
func Generate(ctx context.Context, st Store, first, n int) error {
	const batch = 500
	if n <= 0 {
		return nil
	}
	items := make([]*pagemap.Item, 0, min(n, batch))
	for i := first; i < first+n; i++ {
		items = append(items, pagemap.NewItem([]byte(fmt.Sprintf("record-%04d", i))))
		if len(items) == batch {
			if err := st.Append(ctx, items); err != nil {
				return err
			}
			items = items[:0]
		}
	}
	if len(items) == 0 {
		return nil
	}
	return st.Append(ctx, items)
}

func checkPageArgs(page, pageSize int) error {
	if page < 1 || pageSize < 1 {
		return fmt.Errorf("%w: page (%d) and page size (%d) must be greater than 0", pagemap.ErrInvalidArgument, page, pageSize)
	}
	return nil
}
