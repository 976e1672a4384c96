package fota

import (
	"context"
	"io"
	"log/slog"
)

// DefaultFragmentSize is the chunk size transfers stream in when the
// client was not configured with one.
const DefaultFragmentSize = 4096

// NotifyFunc receives download events on the transfer goroutine.
type NotifyFunc func(Event)

// Client transfers one remote object into a sink. Start returns once the
// transfer is initiated; everything after arrives through notify, ending
// with exactly one terminal event.
type Client interface {
	Start(ctx context.Context, host, path string, sink io.Writer, notify NotifyFunc) error
}

// pump streams body into sink in fragment-sized chunks, emitting a
// progress event per chunk and exactly one terminal event. A sink
// rejection is reported as an invalid update; any other failure is a
// broken download unless the context was cancelled first.
func pump(ctx context.Context, body io.Reader, total int64, fragmentSize int, sink io.Writer, notify NotifyFunc) {
	if fragmentSize <= 0 {
		fragmentSize = DefaultFragmentSize
	}
	buf := make([]byte, fragmentSize)
	var done int64

	for {
		if ctx.Err() != nil {
			notify(Event{ID: EventCancelled, BytesDone: done, BytesTotal: total})
			return
		}

		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := sink.Write(buf[:n]); werr != nil {
				slog.Error("sink_write_failed", "bytes_done", done, "error", werr)
				notify(Event{ID: EventError, Cause: CauseInvalidUpdate, BytesDone: done, BytesTotal: total})
				return
			}
			done += int64(n)
			notify(Event{ID: EventProgress, BytesDone: done, BytesTotal: total})
		}

		if err == io.EOF {
			notify(Event{ID: EventFinished, BytesDone: done, BytesTotal: total})
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				notify(Event{ID: EventCancelled, BytesDone: done, BytesTotal: total})
				return
			}
			slog.Error("transfer_read_failed", "bytes_done", done, "error", err)
			notify(Event{ID: EventError, Cause: CauseDownloadFailed, BytesDone: done, BytesTotal: total})
			return
		}
	}
}
