package driver

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSSourceDeliverAndRead(t *testing.T) {
	s := newNATSSource(1)

	require.True(t, s.deliver(Record{Key: "records.in", Value: []byte("a")}))

	rec, ok := <-s.Records()
	require.True(t, ok)
	assert.Equal(t, "records.in", rec.Key)
}

// TestNATSSourceCloseReleasesBlockedDeliveries covers shutdown with the
// consumer gone: delivery callbacks blocked on a full record channel must
// be released by Close instead of panicking when the channel closes.
func TestNATSSourceCloseReleasesBlockedDeliveries(t *testing.T) {
	s := newNATSSource(0)

	var wg sync.WaitGroup
	results := make(chan bool, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.deliver(Record{Key: "records.in", Value: []byte("x")})
		}()
	}

	// Nobody reads s.Records(); all four senders are blocked.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Close())

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("blocked deliveries were not released by Close")
	}

	close(results)
	for accepted := range results {
		assert.False(t, accepted, "records delivered after shutdown must be dropped")
	}

	_, ok := <-s.Records()
	assert.False(t, ok, "record channel closed after Close")
}

func TestNATSSourceRejectsDeliveryAfterClose(t *testing.T) {
	s := newNATSSource(8)
	require.NoError(t, s.Close())

	// Buffer space is available, but the source is closed.
	assert.False(t, s.deliver(Record{Key: "records.in", Value: []byte("late")}))
}

func TestNATSSourceCloseIsIdempotent(t *testing.T) {
	s := newNATSSource(0)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
