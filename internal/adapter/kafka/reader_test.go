package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/seismag-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeeder struct {
	picks      []*domain.Pick
	amplitudes []*domain.Amplitude
	updates    []bool
	origins    []*domain.Origin
}

func (f *fakeFeeder) FeedPick(p *domain.Pick) bool {
	f.picks = append(f.picks, p)
	return true
}

func (f *fakeFeeder) FeedAmplitude(a *domain.Amplitude, update bool) bool {
	f.amplitudes = append(f.amplitudes, a)
	f.updates = append(f.updates, update)
	return true
}

func (f *fakeFeeder) FeedOrigin(o *domain.Origin) bool {
	f.origins = append(f.origins, o)
	return true
}

func newTestConsumer(feeder EngineFeeder) *Consumer {
	return &Consumer{
		engine:   feeder,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		messages: make(chan rawMessage, 1),
	}
}

func TestDispatchRoutesPickToEngine(t *testing.T) {
	f := &fakeFeeder{}
	c := newTestConsumer(f)

	c.dispatch(rawMessage{kind: "pick", data: []byte(`{"public_id":"p1"}`)})

	require.Len(t, f.picks, 1)
	assert.Equal(t, "p1", f.picks[0].PublicID)
}

func TestDispatchRoutesAmplitudeWithUpdateFlag(t *testing.T) {
	f := &fakeFeeder{}
	c := newTestConsumer(f)

	c.dispatch(rawMessage{kind: "amplitude", data: []byte(`{"public_id":"a1"}`), update: true})

	require.Len(t, f.amplitudes, 1)
	assert.Equal(t, "a1", f.amplitudes[0].PublicID)
	require.Len(t, f.updates, 1)
	assert.True(t, f.updates[0])
}

func TestDispatchRoutesOriginToEngine(t *testing.T) {
	f := &fakeFeeder{}
	c := newTestConsumer(f)

	c.dispatch(rawMessage{kind: "origin", data: []byte(`{"public_id":"o1"}`)})

	require.Len(t, f.origins, 1)
	assert.Equal(t, "o1", f.origins[0].PublicID)
}

func TestDispatchIgnoresInvalidJSON(t *testing.T) {
	f := &fakeFeeder{}
	c := newTestConsumer(f)

	c.dispatch(rawMessage{kind: "pick", data: []byte(`not json`)})

	assert.Empty(t, f.picks)
}

func TestDispatchIgnoresUnknownKind(t *testing.T) {
	f := &fakeFeeder{}
	c := newTestConsumer(f)

	c.dispatch(rawMessage{kind: "bogus", data: []byte(`{}`)})

	assert.Empty(t, f.picks)
	assert.Empty(t, f.amplitudes)
	assert.Empty(t, f.origins)
}

func TestNextBackoffDoublesUntilCapped(t *testing.T) {
	max := 5 * time.Second
	assert.Equal(t, 400*time.Millisecond, nextBackoff(200*time.Millisecond, max))
	assert.Equal(t, 3200*time.Millisecond, nextBackoff(1600*time.Millisecond, max))
	assert.Equal(t, max, nextBackoff(4*time.Second, max))
	assert.Equal(t, max, nextBackoff(max, max))
}

func TestSleepWithContextReturnsFalseOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, sleepWithContext(ctx, time.Second))
}

func TestSleepWithContextReturnsTrueOnElapse(t *testing.T) {
	assert.True(t, sleepWithContext(context.Background(), time.Millisecond))
}

func TestSleepWithContextZeroDurationReturnsTrueImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, sleepWithContext(ctx, 0))
}
