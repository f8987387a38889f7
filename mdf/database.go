package mdf

import (
	"context"
	"encoding/binary"
	"log/slog"

	"mdfengine/internal/mdferr"
	"mdfengine/internal/obs"
	"mdfengine/internal/page"
	"mdfengine/internal/pagepool"
	"mdfengine/internal/rowcache"
	"mdfengine/internal/vmem"
)

// bootLocator is the fixed location of the boot page, per §6.
var bootLocator = page.Locator{PageID: 9, FileID: 1}

// Options are the pool configuration knobs enumerated in §6, surfaced here
// instead of on pagepool.Options directly so a caller configures the whole
// engine through one struct the way the teacher's NewDiskManager/NewBufferPool
// pair is usually wired together by a single constructor at the call site.
type Options struct {
	// ReserveBytes is the virtual reservation size, rounded up to a multiple
	// of 1 MiB. Zero picks vmem's default.
	ReserveBytes int
	// WarmAll, if true, fetches pages 0 through 4095 of file 1 in order at
	// Open to prime the pool before the first query. Pages past 4095 are not
	// read, and the pass stops at its first error, which is logged rather
	// than returned.
	WarmAll bool
	// ReadaheadExtent enables speculative loading of the next extent on
	// every page fetch whose following extent is not yet present.
	ReadaheadExtent bool
	// MaxPinnedBlocks bounds the page pool's resident extent count; zero
	// means only reclaim when the arena allocator is exhausted.
	MaxPinnedBlocks int
	// Stats receives pool events; nil installs a no-op sink.
	Stats obs.Sink
	// Log receives structured diagnostics; nil installs slog's default
	// logger discarding nothing but also adding no extra sinks.
	Log *slog.Logger
	// RowCacheRows bounds the decoded-row cache (internal/rowcache) sitting
	// above the B-tree/spatial walkers. Zero disables row caching; callers
	// only re-decode on every lookup.
	RowCacheRows int64
}

// BootInfo is the decoded content of the boot page: database identity and
// the entry point into the system catalog that a schema-facade
// implementation (component 4.G's caller) would walk to discover tables.
type BootInfo struct {
	Name             string
	Version          uint32
	FirstCatalogPage page.Locator
}

// Database is a read-only handle over one MDF file: a page pool backed by a
// virtual-memory reservation and a file reader, plus the decoded boot page.
// It never mutates the file and holds exactly one *os.File, one vmem
// reservation and the pool's internal goroutine-free state, matching §6's
// "process-wide state: none" requirement at the instance level.
type Database struct {
	Boot BootInfo

	vm     *vmem.Pool
	reader *FileReader
	pool   *pagepool.Pool
	log    *slog.Logger
	rows   *rowcache.Cache
}

// Open reserves a virtual-memory pool, wires it to a file reader and page
// pool, parses the boot page, and returns a ready Database.
func Open(ctx context.Context, path string, opts Options) (*Database, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	vm, err := vmem.Reserve(opts.ReserveBytes)
	if err != nil {
		return nil, &mdferr.Error{Kind: mdferr.KindBadAlloc, Page: mdferr.PageUnknown, Msg: "reserving virtual memory", Err: err}
	}
	reader, err := OpenFileReader(path)
	if err != nil {
		_ = vm.Close()
		return nil, &mdferr.Error{Kind: mdferr.KindBadOpen, Page: mdferr.PageUnknown, Msg: "opening mdf file", Err: err}
	}

	stats := opts.Stats
	if stats == nil {
		stats = obs.Noop{}
	}
	pool := pagepool.New(vm, reader, pagepool.Options{
		MaxExtents: opts.MaxPinnedBlocks,
		Readahead:  opts.ReadaheadExtent,
		Stats:      stats,
	})

	db := &Database{vm: vm, reader: reader, pool: pool, log: log}

	if opts.RowCacheRows > 0 {
		rows, err := rowcache.New(rowcache.Options{MaxCost: opts.RowCacheRows})
		if err != nil {
			_ = db.Close()
			return nil, &mdferr.Error{Kind: mdferr.KindBadAlloc, Page: mdferr.PageUnknown, Msg: "constructing row cache", Err: err}
		}
		db.rows = rows
	}

	boot, err := db.readBoot(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	db.Boot = boot

	if opts.WarmAll {
		if err := db.warmAll(ctx); err != nil {
			log.Warn("warm_all pass failed", "err", err)
		}
	}

	log.Debug("opened mdf database", "name", boot.Name, "version", boot.Version)
	return db, nil
}

// Pool exposes the underlying page pool for the btree/spatial walkers,
// which depend only on the btree.PageSource interface this type satisfies
// (internal/spatial's walker uses the same interface).
func (db *Database) Pool() *pagepool.Pool { return db.pool }

// Fetch implements btree.PageSource, the interface both the B-tree and the
// spatial walkers read pages through.
func (db *Database) Fetch(ctx context.Context, loc page.Locator) (*page.Page, error) {
	return db.pool.Fetch(ctx, loc)
}

// Close tears down the page pool's memory reservation and file handle.
// Page images obtained before Close must not be used afterward.
func (db *Database) Close() error {
	if db.rows != nil {
		db.rows.Close()
	}
	err1 := db.reader.Close()
	err2 := db.vm.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func (db *Database) readBoot(ctx context.Context) (BootInfo, error) {
	p, err := db.pool.Fetch(ctx, bootLocator)
	if err != nil {
		return BootInfo{}, err
	}
	if err := page.ValidateType(p, page.TypeBoot); err != nil {
		return BootInfo{}, err
	}
	row, err := p.RowAt(0, -1, -1, -1)
	if err != nil {
		return BootInfo{}, err
	}
	fixed := row.Fixed()
	if len(fixed) < 10 {
		return BootInfo{}, &mdferr.Error{Kind: mdferr.KindCorruption, Page: bootLocator.PageID,
			Msg: "boot page fixed span too short"}
	}
	version := binary.LittleEndian.Uint32(fixed[0:4])
	catalogPage := page.DecodeLocator(fixed[4:10])
	name := ""
	if row.VariableCount() > 0 {
		v, err := row.Variable(0)
		if err != nil {
			return BootInfo{}, err
		}
		name = decodeNChar(v.Bytes)
	}
	return BootInfo{Name: name, Version: version, FirstCatalogPage: catalogPage}, nil
}

// warmAll sequentially fetches every page of file 1 up to a conservative
// bound, primed by the boot page's own locator arithmetic. Real catalog
// enumeration is an out-of-scope collaborator's job (§1); this best-effort
// pass only demonstrates and exercises the readahead path.
func (db *Database) warmAll(ctx context.Context) error {
	const maxWarmPages = 4096
	for pid := uint32(0); pid < maxWarmPages; pid++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := db.pool.Fetch(ctx, page.Locator{PageID: pid, FileID: 1}); err != nil {
			return err
		}
	}
	return nil
}
