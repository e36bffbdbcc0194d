// Debug program that dumps the rows and score pairs found in a cached game-log page
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/scorelog/internal/cache"
	"github.com/ppiankov/scorelog/internal/extract"
	"github.com/ppiankov/scorelog/internal/model"
)

func main() {
	dir := flag.String("cache-dir", "gamelogs", "game-log cache directory")
	team := flag.String("team", "LAL", "franchise code")
	season := flag.Int("season", 2020, "season year")
	commented := flag.Bool("commented", false, "include tables hidden in HTML comments")
	flag.Parse()

	key := model.FetchKey{Team: strings.ToUpper(*team), Season: *season}
	if err := key.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store := cache.NewDiskCache(*dir)
	doc, ok := store.Get(key)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %s not cached at %s\n", key, store.Path(key))
		os.Exit(1)
	}

	rows, err := extract.NewRowExtractor(*commented).Extract(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== %s (%d bytes) ===\n\n", store.Path(key), len(doc))

	var total, games int
	for row := range rows {
		total++
		pair, ok := extract.ParseScorePair(row)
		if !ok {
			fmt.Printf("%4d  skip  %d cells: %s\n", total, row.Len(), strings.Join(row.Cells(), " | "))
			continue
		}
		games++
		fmt.Printf("%4d  %3d-%-3d total %d\n", total, pair.Team, pair.Opponent, pair.Total())
	}

	fmt.Printf("\n%d rows, %d games, %d skipped\n", total, games, total-games)
}
