// Dump an MDF file's boot page and page-pool statistics.
// Usage: go run ./cmd/mdfdump <path-to.mdf>
// Example: go run ./cmd/mdfdump testdata/demo.mdf
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"mdfengine/internal/obs"
	"mdfengine/mdf"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <database.mdf>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s testdata/demo.mdf\n", os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]

	stats := &obs.Counters{}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := mdf.Open(ctx, path, mdf.Options{
		ReadaheadExtent: true,
		Stats:           stats,
		RowCacheRows:    4096,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("database:       %s\n", db.Boot.Name)
	fmt.Printf("version:        %d\n", db.Boot.Version)
	fmt.Printf("catalog page:   %s\n", db.Boot.FirstCatalogPage)
	fmt.Printf("pool stats:     %s\n", stats.Snapshot())
}
