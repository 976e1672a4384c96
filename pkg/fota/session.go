package fota

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"

	"github.com/fota-tools/fotactl/pkg/errors"
)

// Outcome is the terminal result of one download attempt.
type Outcome struct {
	Event  EventID
	Cause  ErrorCause
	Bytes  int64
	Digest digest.Digest
	Err    error
}

// Ticket identifies one armed attempt and carries its one-shot outcome.
type Ticket struct {
	ID   string
	done <-chan Outcome
}

// Done returns the channel the terminal outcome is delivered on.
func (t *Ticket) Done() <-chan Outcome {
	return t.done
}

// Wait blocks until the attempt ends or the context is cancelled.
func (t *Ticket) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case o := <-t.done:
		return o, nil
	}
}

// session is the single-flight guard for downloads. Arming claims it for
// one attempt; every terminal path releases it through finish.
type session struct {
	armed atomic.Bool

	mu   sync.Mutex
	id   string
	host string
	path string
	done chan Outcome

	bytesDone  atomic.Int64
	bytesTotal atomic.Int64
}

// arm claims the session. It fails with ErrOperation while another attempt
// holds it.
func (s *session) arm(host, path string) (*Ticket, error) {
	if !s.armed.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("download already in progress: %w", errors.ErrOperation)
	}

	s.mu.Lock()
	s.id = uuid.New().String()
	s.host = host
	s.path = path
	s.done = make(chan Outcome, 1)
	ticket := &Ticket{ID: s.id, done: s.done}
	s.mu.Unlock()

	s.bytesDone.Store(0)
	s.bytesTotal.Store(0)
	return ticket, nil
}

// progress records transfer counters for observers.
func (s *session) progress(done, total int64) {
	s.bytesDone.Store(done)
	if total > 0 {
		s.bytesTotal.Store(total)
	}
}

// finish delivers the outcome to the current ticket and releases the
// session. The ticket keeps its own channel reference, so a later arm
// never loses an already delivered outcome.
func (s *session) finish(o Outcome) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		select {
		case done <- o:
		default:
		}
	}
	s.armed.Store(false)
}
