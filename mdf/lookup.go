package mdf

import (
	"context"

	"mdfengine/internal/btree"
	"mdfengine/internal/page"
	"mdfengine/internal/schema"
	"mdfengine/internal/spatial"
)

// FindRow locates the row in table whose clustered-index key equals key,
// decoding it through the row cache (internal/rowcache) when one is
// configured so a repeated point lookup of the same key skips re-running
// DecodeRow.
func (db *Database) FindRow(ctx context.Context, root page.Locator, table *schema.Table, key []byte) (*page.Row, bool, error) {
	rid, ok, err := btree.FindRecord(ctx, db, root, table.KeySchema(), key)
	if err != nil || !ok {
		return nil, false, err
	}
	if db.rows != nil {
		if row, hit := db.rows.Get(rid); hit {
			return row, true, nil
		}
	}
	p, err := db.Fetch(ctx, rid.Page)
	if err != nil {
		return nil, false, err
	}
	row, err := p.RowAt(rid.Slot, table.FixedWidth(), table.ColumnCount(), table.VariableColumnCount())
	if err != nil {
		return nil, false, err
	}
	if db.rows != nil {
		db.rows.Put(rid, row)
	}
	return row, true, nil
}

// Cursor returns a forward cursor over table's clustered index starting at
// the first row whose key is >= key, for range scans (§4.D Scans).
func (db *Database) Cursor(ctx context.Context, root page.Locator, table *schema.Table, key []byte) (*btree.Cursor, error) {
	return btree.LowerBound(ctx, db, root, table.KeySchema(), key)
}

// SpatialRow is one row a spatial query emits: its RID plus the primary
// key bytes extracted from the spatial index's composite key.
type SpatialRow struct {
	RID page.RID
	PK  []byte
}

// QueryDisk runs §4.E/§4.F's disk query end to end: rasterize the disk
// into cells, then walk root's spatial index once per cell with one
// dedup set threaded through, collecting deduplicated primary keys.
func (db *Database) QueryDisk(ctx context.Context, root page.Locator, pkLen int, center spatial.Point, radiusMeters float64, depth spatial.Depth, model spatial.RadiusModel) ([]SpatialRow, error) {
	cells := spatial.DiskCells(center, radiusMeters, depth, model)
	return db.queryCells(ctx, root, pkLen, cells)
}

// QueryRect runs §4.E/§4.F's rectangle query end to end, analogous to
// QueryDisk.
func (db *Database) QueryRect(ctx context.Context, root page.Locator, pkLen int, rect spatial.Rect, depth spatial.Depth) ([]SpatialRow, error) {
	cells := spatial.RectCells(rect, depth)
	return db.queryCells(ctx, root, pkLen, cells)
}

func (db *Database) queryCells(ctx context.Context, root page.Locator, pkLen int, cells []spatial.Cell) ([]SpatialRow, error) {
	dedup := spatial.NewDedup()
	var out []SpatialRow
	err := spatial.QueryCells(ctx, db, root, pkLen, cells, dedup, func(rid page.RID, pk []byte) error {
		out = append(out, SpatialRow{RID: rid, PK: pk})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
