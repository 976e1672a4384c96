package fota

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/opencontainers/go-digest"
	"github.com/superfly/fsm"

	"github.com/fota-tools/fotactl/pkg/db"
	"github.com/fota-tools/fotactl/pkg/dfu"
	"github.com/fota-tools/fotactl/pkg/errors"
)

// TransferRequest is the transfer workflow input.
type TransferRequest struct {
	AttemptID  string
	URI        string
	Host       string
	Path       string
	ImageType  dfu.ImageType
	Partition  uint8
	BufferSize int
}

// TransferResult is the workflow output, accumulated across states.
type TransferResult struct {
	Bytes  int64
	Digest string
	Cause  ErrorCause
	Status string
}

// Workflow state names.
const (
	StatePrepare  = "prepare"
	StateTransfer = "transfer"
	StateFinalize = "finalize"
	StateFailed   = "failed"
)

// AttemptStore records download attempt lifecycles.
type AttemptStore interface {
	Create(attempt *db.Attempt) error
	UpdateStatus(attemptID, status, errorMessage string) error
	Finish(attemptID, status string, bytes int64, contentDigest string, cause int) error
}

// machine holds the transfer workflow dependencies.
type machine struct {
	target  *dfu.Target
	client  Client
	store   AttemptStore
	session *session
}

// register wires the workflow states onto the manager. Failures are always
// terminal for the attempt, so every error path goes through fsm.Abort and
// nothing is ever retried.
func (m *machine) register(ctx context.Context, manager *fsm.Manager) (fsm.Start[TransferRequest, TransferResult], fsm.Resume, error) {
	start, resume, err := fsm.Register[TransferRequest, TransferResult](manager, "fota-transfer").
		Start(StatePrepare, m.handlePrepare).
		To(StateTransfer, m.handleTransfer).
		To(StateFinalize, m.handleFinalize).
		End(StateFailed).
		Build(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "register transfer workflow")
	}
	return start, resume, nil
}

// handlePrepare records the attempt and readies the update target.
func (m *machine) handlePrepare(ctx context.Context, req *fsm.Request[TransferRequest, TransferResult]) (*fsm.Response[TransferResult], error) {
	slog.Info("transfer_state_prepare",
		"attempt_id", req.Msg.AttemptID,
		"host", req.Msg.Host,
		"path", req.Msg.Path,
		"partition", req.Msg.Partition)

	resp := req.W.Msg
	if resp == nil {
		resp = &TransferResult{}
	}

	attempt := &db.Attempt{
		AttemptID: req.Msg.AttemptID,
		URI:       req.Msg.URI,
		Host:      req.Msg.Host,
		Path:      req.Msg.Path,
		ImageType: req.Msg.ImageType.String(),
		Partition: int(req.Msg.Partition),
		Status:    db.StatusPending,
	}
	if err := m.store.Create(attempt); err != nil {
		slog.Error("attempt_record_failed", "attempt_id", req.Msg.AttemptID, "error", err)
		m.session.finish(Outcome{Event: EventError, Cause: CauseInternal, Err: err})
		return nil, fsm.Abort(errors.Wrap(err, "record attempt"))
	}

	if err := m.target.Init(req.Msg.ImageType, req.Msg.Partition, req.Msg.BufferSize, m.targetEvents); err != nil {
		slog.Error("target_init_failed", "attempt_id", req.Msg.AttemptID, "error", err)
		return nil, m.abort(req.Msg.AttemptID, resp, CauseInternal, err)
	}

	if err := m.store.UpdateStatus(req.Msg.AttemptID, db.StatusDownloading, ""); err != nil {
		slog.Error("status_update_failed", "attempt_id", req.Msg.AttemptID, "error", err)
		return nil, m.abort(req.Msg.AttemptID, resp, CauseInternal, err)
	}

	return fsm.NewResponse(resp), nil
}

// handleTransfer runs the download and consumes its events until the
// terminal one.
func (m *machine) handleTransfer(ctx context.Context, req *fsm.Request[TransferRequest, TransferResult]) (*fsm.Response[TransferResult], error) {
	slog.Info("transfer_state_transfer", "attempt_id", req.Msg.AttemptID)

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}

	events := make(chan Event, 64)
	notify := func(e Event) { events <- e }

	digester := digest.Canonical.Digester()
	sink := io.MultiWriter(m.target, digester.Hash())

	if err := m.client.Start(ctx, req.Msg.Host, req.Msg.Path, sink, notify); err != nil {
		slog.Error("download_start_failed", "attempt_id", req.Msg.AttemptID, "error", err)
		m.abandonTarget(req.Msg.AttemptID)
		return nil, m.abort(req.Msg.AttemptID, resp, CauseDownloadFailed, err)
	}

	var done int64
	for {
		select {
		case <-ctx.Done():
			slog.Info("download_cancelled", "attempt_id", req.Msg.AttemptID, "bytes_done", done)
			return nil, m.cancel(req.Msg.AttemptID, resp, done, ctx.Err())

		case evt := <-events:
			switch evt.ID {
			case EventProgress:
				done = evt.BytesDone
				m.session.progress(evt.BytesDone, evt.BytesTotal)
				slog.Debug("download_progress",
					"attempt_id", req.Msg.AttemptID,
					"bytes_done", evt.BytesDone,
					"bytes_total", evt.BytesTotal)

			case EventCancelled:
				slog.Info("download_cancelled", "attempt_id", req.Msg.AttemptID, "bytes_done", evt.BytesDone)
				return nil, m.cancel(req.Msg.AttemptID, resp, evt.BytesDone,
					fmt.Errorf("download cancelled after %d bytes", evt.BytesDone))

			case EventError:
				slog.Error("download_error",
					"attempt_id", req.Msg.AttemptID,
					"cause", evt.Cause.String(),
					"bytes_done", evt.BytesDone)
				resp.Bytes = evt.BytesDone
				m.abandonTarget(req.Msg.AttemptID)
				return nil, m.abort(req.Msg.AttemptID, resp, evt.Cause,
					fmt.Errorf("download failed: %s", evt.Cause))

			case EventFinished:
				slog.Info("download_finished", "attempt_id", req.Msg.AttemptID, "bytes", evt.BytesDone)
				resp.Bytes = evt.BytesDone
				resp.Digest = digester.Digest().String()
				return fsm.NewResponse(resp), nil
			}
		}
	}
}

// handleFinalize flushes the image and closes out the attempt.
func (m *machine) handleFinalize(ctx context.Context, req *fsm.Request[TransferRequest, TransferResult]) (*fsm.Response[TransferResult], error) {
	slog.Info("transfer_state_finalize", "attempt_id", req.Msg.AttemptID)

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}

	if err := m.target.Finalize(true); err != nil {
		slog.Error("target_finalize_failed", "attempt_id", req.Msg.AttemptID, "error", err)
		return nil, m.abort(req.Msg.AttemptID, resp, CauseInvalidUpdate, err)
	}

	resp.Status = db.StatusDone
	resp.Cause = CauseNoError
	if err := m.store.Finish(req.Msg.AttemptID, db.StatusDone, resp.Bytes, resp.Digest, int(CauseNoError)); err != nil {
		// The image is written; a bookkeeping failure must not undo it.
		slog.Error("attempt_finish_failed", "attempt_id", req.Msg.AttemptID, "error", err)
	}
	m.session.finish(Outcome{Event: EventFinished, Bytes: resp.Bytes, Digest: digest.Digest(resp.Digest)})

	slog.Info("transfer_complete",
		"attempt_id", req.Msg.AttemptID,
		"bytes", resp.Bytes,
		"digest", resp.Digest)
	return fsm.NewResponse(resp), nil
}

// abandonTarget releases the partially written slot. Failures are logged
// only; the attempt is already on its way out.
func (m *machine) abandonTarget(attemptID string) {
	if err := m.target.Finalize(false); err != nil {
		slog.Error("target_abandon_failed", "attempt_id", attemptID, "error", err)
	}
}

// cancel closes out an attempt the client did not finish, releasing the
// slot and the session.
func (m *machine) cancel(attemptID string, resp *TransferResult, bytes int64, err error) error {
	resp.Bytes = bytes
	resp.Status = db.StatusCancelled
	m.abandonTarget(attemptID)
	if ferr := m.store.Finish(attemptID, db.StatusCancelled, bytes, "", int(CauseNoError)); ferr != nil {
		slog.Error("attempt_finish_failed", "attempt_id", attemptID, "error", ferr)
	}
	m.session.finish(Outcome{Event: EventCancelled, Bytes: bytes})
	return fsm.Abort(err)
}

// abort records the failure, releases the session and makes the attempt
// terminal.
func (m *machine) abort(attemptID string, resp *TransferResult, cause ErrorCause, err error) error {
	resp.Status = db.StatusFailed
	resp.Cause = cause
	if ferr := m.store.Finish(attemptID, db.StatusFailed, resp.Bytes, resp.Digest, int(cause)); ferr != nil {
		slog.Error("attempt_finish_failed", "attempt_id", attemptID, "error", ferr)
	}
	m.session.finish(Outcome{Event: EventError, Cause: cause, Bytes: resp.Bytes, Err: err})
	return fsm.Abort(err)
}

func (m *machine) targetEvents(evt dfu.TargetEvent) {
	slog.Info("dfu_target_event", "event", evt.String())
}
