package fota

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/superfly/fsm"

	"github.com/fota-tools/fotactl/pkg/dfu"
	"github.com/fota-tools/fotactl/pkg/errors"
)

// DefaultBufferSize is the write-buffer size handed to the update target
// when the caller does not pick one.
const DefaultBufferSize = 2048

// Config carries the orchestrator dependencies.
type Config struct {
	Client     Client
	Target     *dfu.Target
	Store      AttemptStore
	ImageType  dfu.ImageType
	Partition  uint8
	BufferSize int
}

// Orchestrator arms downloads one at a time and drives each through the
// transfer workflow. Start returns as soon as the attempt is enqueued;
// the returned Ticket reports the outcome.
type Orchestrator struct {
	session    session
	machine    *machine
	enqueue    func(ctx context.Context, id string, req *fsm.Request[TransferRequest, TransferResult]) error
	imageType  dfu.ImageType
	partition  uint8
	bufferSize int
}

// NewOrchestrator registers the transfer workflow on the manager and
// returns an orchestrator bound to it.
func NewOrchestrator(ctx context.Context, manager *fsm.Manager, cfg Config) (*Orchestrator, error) {
	if cfg.Client == nil || cfg.Target == nil || cfg.Store == nil {
		return nil, fmt.Errorf("client, target and store are required: %w", errors.ErrValidation)
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}

	o := &Orchestrator{
		imageType:  cfg.ImageType,
		partition:  cfg.Partition,
		bufferSize: cfg.BufferSize,
	}
	o.machine = &machine{
		target:  cfg.Target,
		client:  cfg.Client,
		store:   cfg.Store,
		session: &o.session,
	}

	start, _, err := o.machine.register(ctx, manager)
	if err != nil {
		return nil, err
	}
	o.enqueue = func(ctx context.Context, id string, req *fsm.Request[TransferRequest, TransferResult]) error {
		version, err := start(ctx, id, req)
		if err != nil {
			return err
		}
		slog.Info("transfer_enqueued", "attempt_id", id, "version", version)
		return nil
	}
	return o, nil
}

// Start parses the URI, claims the single download slot and enqueues the
// transfer. A second Start while one is in flight fails with ErrOperation.
func (o *Orchestrator) Start(ctx context.Context, uri string) (*Ticket, error) {
	host, path, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	ticket, err := o.session.arm(host, path)
	if err != nil {
		return nil, err
	}

	req := &TransferRequest{
		AttemptID:  ticket.ID,
		URI:        uri,
		Host:       host,
		Path:       path,
		ImageType:  o.imageType,
		Partition:  o.partition,
		BufferSize: o.bufferSize,
	}
	if err := o.enqueue(ctx, ticket.ID, fsm.NewRequest(req, &TransferResult{})); err != nil {
		o.session.finish(Outcome{Event: EventError, Cause: CauseInternal, Err: err})
		return nil, errors.Wrap(err, "enqueue transfer")
	}

	slog.Info("download_armed", "attempt_id", ticket.ID, "host", host, "path", path)
	return ticket, nil
}

// Armed reports whether a download is currently in flight.
func (o *Orchestrator) Armed() bool {
	return o.session.armed.Load()
}

// Progress returns the byte counters of the in-flight download. Total is
// zero when the server did not advertise a length.
func (o *Orchestrator) Progress() (done, total int64) {
	return o.session.bytesDone.Load(), o.session.bytesTotal.Load()
}
