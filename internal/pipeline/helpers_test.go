package pipeline

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/scorelog/internal/cache"
	"github.com/ppiankov/scorelog/internal/model"
)

// gameLogHTML renders a schedule page in the source's layout: a header row,
// one row per game (the game number is a <th>, points are td 8 and 9) and a
// repeated class="thead" header after the first game.
func gameLogHTML(pairs ...model.ScorePair) string {
	var b strings.Builder
	b.WriteString(`<html><body><table id="games"><thead><tr><th>G</th><th>Date</th><th>Tm</th><th>Opp</th></tr></thead><tbody>`)
	for i, p := range pairs {
		fmt.Fprintf(&b, `<tr><th data-stat="g">%d</th>`, i+1)
		cells := []string{"Tue, Oct 27, 2009", "10:30p", "", "Box Score", "", "Opponent", "W", "", fmt.Sprint(p.Team), fmt.Sprint(p.Opponent), "1", "0", "W 1", ""}
		for _, c := range cells {
			fmt.Fprintf(&b, "<td>%s</td>", c)
		}
		b.WriteString("</tr>")
		if i == 0 {
			b.WriteString(`<tr class="thead"><th>G</th><td>Date</td><td>Tm</td></tr>`)
		}
	}
	b.WriteString("</tbody></table></body></html>")
	return b.String()
}

// testConfig returns a config that never sleeps and caches under a temp dir
func testConfig(t *testing.T, baseURL string) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.HTTP.BaseURL = baseURL
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.HTTP.RespectRobots = false
	cfg.Delay = model.DelayConfig{}
	cfg.RateLimiting = model.RateLimitingConfig{}
	cfg.Cache.Dir = t.TempDir()
	return cfg
}

// seedCache writes documents for team into the disk cache of cfg
func seedCache(t *testing.T, cfg *model.Config, team string, docs map[int]string) {
	t.Helper()
	store := cache.NewDiskCache(cfg.Cache.Dir)
	for season, doc := range docs {
		if err := store.Put(model.FetchKey{Team: team, Season: season}, []byte(doc)); err != nil {
			t.Fatalf("seed cache: %v", err)
		}
	}
}
