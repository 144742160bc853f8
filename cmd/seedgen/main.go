// Command seedgen generates a synthetic, internally-consistent stream of
// picks, amplitudes, and origins — either as JSON fixtures on disk or
// published directly to Kafka — for local testing and the scenario
// fixtures of spec.md §8. Mirrors cmd/genmock's flag-driven shape.
//
// Usage:
//
//	go run ./cmd/seedgen -out data/seed -origins 3 -stations 5
//	go run ./cmd/seedgen -brokers localhost:9092 -origins 3 -stations 5
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/seismag-engine/internal/domain"
)

var baseTime = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "directory to write pick/amplitude/origin JSON fixtures")
	brokers := flag.String("brokers", "", "comma-separated Kafka brokers to publish directly to, instead of writing files")
	picksTopic := flag.String("picks-topic", "picks", "Kafka topic for picks (with -brokers)")
	amplitudesTopic := flag.String("amplitudes-topic", "amplitudes", "Kafka topic for amplitudes (with -brokers)")
	originsTopic := flag.String("origins-topic", "origins", "Kafka topic for origins (with -brokers)")
	numOrigins := flag.Int("origins", 1, "number of synthetic origins to generate")
	numStations := flag.Int("stations", 5, "number of contributing stations per origin")
	flag.Parse()

	if *outDir == "" && *brokers == "" {
		flag.Usage()
		return fmt.Errorf("one of -out or -brokers is required")
	}

	domain.SetClock(clockwork.NewFakeClockAt(baseTime))
	defer domain.SetClock(nil)

	picks, amplitudes, origins := generate(*numOrigins, *numStations)

	if *outDir != "" {
		return writeFixtures(*outDir, picks, amplitudes, origins)
	}
	return publish(*brokers, *picksTopic, *amplitudesTopic, *originsTopic, picks, amplitudes, origins)
}

// generate builds numOrigins origins, each with numStations contributing
// stations recording a pick and an MLv amplitude at increasing distance,
// so the default trimmed-mean/median estimators have enough samples to
// exercise trimming.
func generate(numOrigins, numStations int) ([]*domain.Pick, []*domain.Amplitude, []*domain.Origin) {
	var picks []*domain.Pick
	var amplitudes []*domain.Amplitude
	var origins []*domain.Origin

	for o := 0; o < numOrigins; o++ {
		depth := 10.0 + float64(o)
		origin := &domain.Origin{
			PublicID: domain.NewPublicID("origin"),
			Depth:    &depth,
			AgencyID: "SG",
			CreationInfo: domain.CreationInfo{
				AgencyID:     "SG",
				CreationTime: baseTime.Add(time.Duration(o) * time.Hour),
			},
		}

		for s := 0; s < numStations; s++ {
			wfid := domain.WaveformStreamID{
				Network: "SG", Station: fmt.Sprintf("STA%02d", s), Location: "", Channel: "BHZ",
			}
			pick := &domain.Pick{
				PublicID:  domain.NewPublicID("pick"),
				WaveformID: wfid,
				Time:      baseTime.Add(time.Duration(o)*time.Hour + time.Duration(s)*time.Second),
				AgencyID:  "SG",
			}
			amp := &domain.Amplitude{
				PublicID:       domain.NewPublicID("amp"),
				Type:           "MLv",
				WaveformID:     wfid,
				Value:          100.0 + float64(s)*10,
				PickID:         pick.PublicID,
				EvaluationMode: domain.Automatic,
				CreationTime:   pick.Time,
				AgencyID:       "SG",
			}
			distance := 10.0 + float64(s)*5
			origin.Arrivals = append(origin.Arrivals, domain.Arrival{
				PickID:   pick.PublicID,
				Distance: distance,
				Weight:   1.0,
			})

			picks = append(picks, pick)
			amplitudes = append(amplitudes, amp)
		}

		origins = append(origins, origin)
	}

	return picks, amplitudes, origins
}

func writeFixtures(outDir string, picks []*domain.Pick, amplitudes []*domain.Amplitude, origins []*domain.Origin) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, "picks.json"), picks); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, "amplitudes.json"), amplitudes); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, "origins.json"), origins); err != nil {
		return err
	}
	fmt.Printf("wrote %d picks, %d amplitudes, %d origins to %s\n", len(picks), len(amplitudes), len(origins), outDir)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func publish(brokerList, picksTopic, amplitudesTopic, originsTopic string, picks []*domain.Pick, amplitudes []*domain.Amplitude, origins []*domain.Origin) error {
	brokers := strings.Split(brokerList, ",")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := publishTopic(ctx, brokers, picksTopic, picks, func(p *domain.Pick) string { return p.PublicID }); err != nil {
		return err
	}
	if err := publishTopic(ctx, brokers, amplitudesTopic, amplitudes, func(a *domain.Amplitude) string { return a.PublicID }); err != nil {
		return err
	}
	if err := publishTopic(ctx, brokers, originsTopic, origins, func(o *domain.Origin) string { return o.PublicID }); err != nil {
		return err
	}
	fmt.Printf("published %d picks, %d amplitudes, %d origins\n", len(picks), len(amplitudes), len(origins))
	return nil
}

func publishTopic[T any](ctx context.Context, brokers []string, topic string, items []T, keyOf func(T) string) error {
	w := &kafkago.Writer{
		Addr:     kafkago.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafkago.LeastBytes{},
	}
	defer w.Close()

	msgs := make([]kafkago.Message, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafkago.Message{Key: []byte(keyOf(item)), Value: data})
	}
	return w.WriteMessages(ctx, msgs...)
}
