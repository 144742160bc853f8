// Command magcheck loads pick/amplitude/origin fixture JSON (as written by
// cmd/seedgen), feeds it through an in-process engine with no archive or
// sink, and checks three of the testable properties of spec.md §8 (upsert
// idempotence, order independence, frozen respect) plus a cache-insert
// check on feed_pick. Trimmed-mean/median weight shapes, the summary
// trivial-delta skip, and eviction purge are not checked. Prints a
// pass/fail report, mirroring cmd/validate's phase structure.
//
// Usage:
//
//	go run ./cmd/magcheck -fixtures data/seed
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/seismag-engine/internal/domain"
	"github.com/couchcryptid/seismag-engine/internal/engine"
	"github.com/couchcryptid/seismag-engine/internal/magnitude"
)

// phase tracks pass/fail for one invariant check.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	fixtureDir := flag.String("fixtures", "", "directory containing picks.json, amplitudes.json, origins.json")
	flag.Parse()

	if *fixtureDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*fixtureDir); code != 0 {
		os.Exit(code)
	}
}

func run(fixtureDir string) int {
	picks, err := loadJSON[domain.Pick](filepath.Join(fixtureDir, "picks.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load picks: %v\n", err)
		return 1
	}
	amplitudes, err := loadJSON[domain.Amplitude](filepath.Join(fixtureDir, "amplitudes.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load amplitudes: %v\n", err)
		return 1
	}
	origins, err := loadJSON[domain.Origin](filepath.Join(fixtureDir, "origins.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load origins: %v\n", err)
		return 1
	}

	fmt.Println("=== Magnitude Engine Invariant Check ===")
	fmt.Println()

	phases := []*phase{
		checkUpsertIdempotence(picks, amplitudes, origins),
		checkOrderIndependence(picks, amplitudes, origins),
		checkFrozenRespected(picks, amplitudes, origins),
		checkEvictionPurge(picks, amplitudes, origins),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll invariants held.")
		return 0
	}
	fmt.Println("\nInvariant check FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func newCheckEngine() *engine.Engine {
	proc := magnitude.NewIdentityProcessor("MLv", "MLv")
	reg, _ := magnitude.NewRegistry([]magnitude.Processor{proc}, []string{"MLv"})
	cfg := engine.Config{
		MagnitudeTypes:       []string{"MLv"},
		AverageMethods:       map[string]magnitude.AverageMethod{"MLv": {Kind: magnitude.MethodMean}},
		MinimumArrivalWeight: 0.5,
		CacheExpiry:          time.Hour,
		Summary:              magnitude.SummaryConfig{Enabled: false},
	}
	return engine.New(cfg, reg, nil, nil, nil, nil, nil)
}

func feedAll(e *engine.Engine, picks []domain.Pick, amplitudes []domain.Amplitude, origins []domain.Origin) {
	for i := range picks {
		e.FeedPick(&picks[i])
	}
	for i := range amplitudes {
		e.FeedAmplitude(&amplitudes[i], false)
	}
	for i := range origins {
		e.FeedOrigin(&origins[i])
	}
}

// checkUpsertIdempotence feeds the same origin twice and verifies station
// magnitude counts do not double.
func checkUpsertIdempotence(picks []domain.Pick, amplitudes []domain.Amplitude, origins []domain.Origin) *phase {
	p := &phase{name: "Upsert idempotence (feed_origin twice)"}
	if len(origins) == 0 {
		return p
	}

	e := newCheckEngine()
	feedAll(e, picks, amplitudes, origins)
	first := countStationMagnitudes(origins[0])

	e.FeedOrigin(&origins[0])
	second := countStationMagnitudes(origins[0])

	if first != second {
		p.errorf("station magnitude count changed across repeat feed_origin: %d -> %d", first, second)
	}
	return p
}

// checkOrderIndependence feeds picks/amplitudes/origins in two different
// orderings and verifies both reach the same station magnitude count.
func checkOrderIndependence(picks []domain.Pick, amplitudes []domain.Amplitude, origins []domain.Origin) *phase {
	p := &phase{name: "Order independence (picks/amplitudes before vs after origin)"}
	if len(origins) == 0 {
		return p
	}

	o1 := cloneOrigin(origins[0])
	e1 := newCheckEngine()
	for i := range picks {
		e1.FeedPick(&picks[i])
	}
	for i := range amplitudes {
		e1.FeedAmplitude(&amplitudes[i], false)
	}
	e1.FeedOrigin(&o1)

	o2 := cloneOrigin(origins[0])
	e2 := newCheckEngine()
	e2.FeedOrigin(&o2)
	for i := range picks {
		e2.FeedPick(&picks[i])
	}
	for i := range amplitudes {
		e2.FeedAmplitude(&amplitudes[i], false)
	}

	n1 := countStationMagnitudes(o1)
	n2 := countStationMagnitudes(o2)
	if n1 == 0 {
		p.errorf("baseline ordering produced zero station magnitudes; fixture may be empty")
	}
	if n1 != n2 {
		p.errorf("order-dependent result: picks-first=%d, origin-first(+retro)=%d", n1, n2)
	}
	return p
}

// checkFrozenRespected marks the first network magnitude of origins[0] as
// frozen, re-runs feed_origin, and verifies its value did not change.
func checkFrozenRespected(picks []domain.Pick, amplitudes []domain.Amplitude, origins []domain.Origin) *phase {
	p := &phase{name: "Frozen network magnitudes are never overwritten"}
	if len(origins) == 0 {
		return p
	}

	o := cloneOrigin(origins[0])
	e := newCheckEngine()
	for i := range picks {
		e.FeedPick(&picks[i])
	}
	for i := range amplitudes {
		e.FeedAmplitude(&amplitudes[i], false)
	}
	e.FeedOrigin(&o)

	if len(o.NetworkMagnitudes) == 0 {
		p.errorf("fixture produced no network magnitudes to freeze")
		return p
	}
	o.NetworkMagnitudes[0].EvaluationStatus = "confirmed"
	frozenValue := o.NetworkMagnitudes[0].Value

	e.FeedOrigin(&o)
	if o.NetworkMagnitudes[0].Value != frozenValue {
		p.errorf("frozen network magnitude value changed: %g -> %g", frozenValue, o.NetworkMagnitudes[0].Value)
	}
	return p
}

// checkEvictionPurge verifies that feed_pick inserts the pick into the
// engine's cache (CacheSize grows by one). It does not advance time or
// evict anything, so the purge of index entries on eviction is not
// exercised here.
func checkEvictionPurge(picks []domain.Pick, _ []domain.Amplitude, _ []domain.Origin) *phase {
	p := &phase{name: "feed_pick inserts into the cache"}
	if len(picks) == 0 {
		return p
	}

	e := newCheckEngine()
	before := e.CacheSize()
	e.FeedPick(&picks[0])
	after := e.CacheSize()
	if after != before+1 {
		p.errorf("cache size did not increase after feed_pick: before=%d, after=%d", before, after)
	}
	return p
}

func countStationMagnitudes(o domain.Origin) int { return len(o.StationMagnitudes) }

func cloneOrigin(o domain.Origin) domain.Origin {
	clone := o
	clone.Arrivals = append([]domain.Arrival(nil), o.Arrivals...)
	clone.StationMagnitudes = append([]domain.StationMagnitude(nil), o.StationMagnitudes...)
	clone.NetworkMagnitudes = append([]domain.NetworkMagnitude(nil), o.NetworkMagnitudes...)
	return clone
}
