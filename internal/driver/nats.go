package driver

import (
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	streamerrors "git.home.luguber.info/inful/streamnode/internal/errors"
	"git.home.luguber.info/inful/streamnode/internal/logfields"
)

// NATSSource feeds a topology from a NATS subject: one record per message,
// with the subject as key and the payload as value.
type NATSSource struct {
	conn *nats.Conn
	sub  *nats.Subscription
	ch   chan Record
	done chan struct{}

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewNATSSource connects to NATS and subscribes to subject. The buffer
// bounds how many undelivered records are held before the subscription
// callback blocks.
func NewNATSSource(url, subject string, buffer int) (*NATSSource, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, streamerrors.SourceFailed("nats", err).WithContext("url", url)
	}

	s := newNATSSource(buffer)
	s.conn = conn

	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		s.deliver(Record{Key: msg.Subject, Value: msg.Data})
	})
	if err != nil {
		conn.Close()
		return nil, streamerrors.SourceFailed("nats", err).WithContext("subject", subject)
	}
	s.sub = sub

	slog.Info("NATS source subscribed",
		logfields.URL(url),
		logfields.Subject(subject))
	return s, nil
}

func newNATSSource(buffer int) *NATSSource {
	return &NATSSource{
		ch:   make(chan Record, buffer),
		done: make(chan struct{}),
	}
}

// deliver hands one record to the consumer. Once the source is closed the
// consumer has stopped reading, so a blocked send must give up instead of
// panicking when the record channel closes. The read lock keeps the channel
// open for the duration of the send attempt. Reports whether the record was
// accepted.
func (s *NATSSource) deliver(rec Record) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- rec:
		return true
	case <-s.done:
		return false
	}
}

// Records implements Source.
func (s *NATSSource) Records() <-chan Record { return s.ch }

// Close implements Source. It releases any delivery callback blocked on the
// record channel, waits for in-flight deliveries to finish, drains the
// subscription, closes the connection and only then closes the record
// channel.
func (s *NATSSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		if s.sub != nil {
			err = s.sub.Unsubscribe()
		}
		if s.conn != nil {
			s.conn.Close()
		}
		close(s.ch)
	})
	return err
}
