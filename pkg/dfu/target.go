package dfu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fota-tools/fotactl/pkg/boot"
	"github.com/fota-tools/fotactl/pkg/errors"
	"github.com/fota-tools/fotactl/pkg/flash"
)

// Target streams one candidate image into a flash partition. A single
// mutex serializes every caller for the duration of an update.
type Target struct {
	mu sync.Mutex

	table *flash.Table
	meta  boot.MetadataSource

	imageNum     int
	recoveryMode bool

	state     State
	everInit  bool
	imageType ImageType
	area      *flash.Area
	evt       EventFunc

	buf    []byte
	fill   int
	cursor int64
	size   int64
}

// Option configures a Target.
type Option func(*Target)

// WithImageNumber sets the bootloader image number ScheduleUpdate marks.
func WithImageNumber(n int) Option {
	return func(t *Target) { t.imageNum = n }
}

// WithRecoveryMode marks the device as running its recovery image, where a
// software reset cannot take effect.
func WithRecoveryMode(enabled bool) Option {
	return func(t *Target) { t.recoveryMode = enabled }
}

// NewTarget builds an update target over the partition table and the
// bootloader metadata source.
func NewTarget(table *flash.Table, meta boot.MetadataSource, opts ...Option) *Target {
	t := &Target{table: table, meta: meta}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Init opens the partition and prepares a fresh update. It fails with
// ErrOperation while an update is in flight; after Done, Scheduled or
// Reset it starts the next image.
func (t *Target) Init(imageType ImageType, partition uint8, bufferSize int, evt EventFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateInitialized, StateWriting:
		return fmt.Errorf("update in flight in state %s: %w", t.state, errors.ErrOperation)
	}
	if bufferSize <= 0 {
		return fmt.Errorf("buffer size %d: %w", bufferSize, errors.ErrValidation)
	}

	area, err := flash.Open(t.table, partition)
	if err != nil {
		return errors.Wrap(err, "open target partition")
	}
	align := area.Align()
	if align <= 0 {
		align = 1
	}

	t.area = area
	t.imageType = imageType
	t.evt = evt
	t.buf = make([]byte, roundUp(int64(bufferSize), align))
	t.fill = 0
	t.cursor = 0
	t.size = 0
	t.state = StateInitialized
	t.everInit = true

	slog.Info("dfu_target_initialized",
		"image_type", imageType.String(),
		"partition", partition,
		"partition_size", area.Size(),
		"buffer_size", len(t.buf))
	return nil
}

func roundUp(n int64, align int) int64 {
	a := int64(align)
	if rem := n % a; rem != 0 {
		return n + a - rem
	}
	return n
}

// Write implements io.Writer. Bytes are staged and flushed to flash in
// aligned chunks. A write that would overrun the partition fails with
// ErrOutOfBounds before any byte reaches the device.
func (t *Target) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateInitialized, StateWriting:
	default:
		return 0, fmt.Errorf("write in state %s: %w", t.state, errors.ErrOperation)
	}
	if grown := t.cursor + int64(t.fill) + int64(len(p)); grown > t.area.Size() {
		return 0, fmt.Errorf("image would grow to %d bytes in a %d byte partition: %w",
			grown, t.area.Size(), errors.ErrOutOfBounds)
	}
	t.state = StateWriting

	written := 0
	for len(p) > 0 {
		n := copy(t.buf[t.fill:], p)
		t.fill += n
		t.size += int64(n)
		written += n
		p = p[n:]
		if t.fill == len(t.buf) {
			if err := t.area.Write(t.cursor, t.buf); err != nil {
				return written, errors.Wrap(err, "flush image chunk")
			}
			t.cursor += int64(len(t.buf))
			t.fill = 0
		}
	}
	return written, nil
}

// Offset returns how many image bytes were accepted so far.
func (t *Target) Offset() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

// State returns the current lifecycle state.
func (t *Target) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Finalize ends the streaming phase and never schedules the image. With
// success true the staged tail is flushed, padded to alignment with the
// erased value. With success false the written range is erased to release
// the candidate slot; when nothing was streamed this session the whole
// partition is erased instead.
func (t *Target) Finalize(success bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateInitialized, StateWriting:
	default:
		return fmt.Errorf("finalize in state %s: %w", t.state, errors.ErrOperation)
	}

	if success {
		if err := t.flushTail(); err != nil {
			return err
		}
		slog.Info("dfu_target_finalized", "bytes", t.size, "flushed", t.cursor)
		t.state = StateDone
		return nil
	}

	end := t.cursor + roundUp(int64(t.fill), t.area.Align())
	if end == 0 || end > t.area.Size() {
		end = t.area.Size()
	}
	t.emit(EventErasePending)
	if err := t.area.Erase(0, end); err != nil {
		return errors.Wrap(err, "erase abandoned image")
	}
	t.emit(EventEraseDone)
	slog.Info("dfu_target_erased", "bytes", end)
	t.fill = 0
	t.cursor = 0
	t.size = 0
	t.state = StateDone
	return nil
}

func (t *Target) flushTail() error {
	if t.fill == 0 {
		return nil
	}
	padded := roundUp(int64(t.fill), t.area.Align())
	for i := int64(t.fill); i < padded; i++ {
		t.buf[i] = t.area.ErasedValue()
	}
	if err := t.area.Write(t.cursor, t.buf[:padded]); err != nil {
		return errors.Wrap(err, "flush image tail")
	}
	t.cursor += padded
	t.fill = 0
	return nil
}

func (t *Target) emit(evt TargetEvent) {
	if t.evt != nil {
		t.evt(evt)
	}
}

// ScheduleUpdate marks the slot pending so the bootloader swaps to it on
// the next boot. Valid once an image is being or has been written. The
// image content is not validated here.
func (t *Target) ScheduleUpdate(slot int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateInitialized, StateWriting, StateDone:
	default:
		return fmt.Errorf("schedule in state %s: %w", t.state, errors.ErrOperation)
	}
	if err := t.meta.MarkPending(t.imageNum, slot); err != nil {
		return errors.Wrap(err, "mark slot pending")
	}
	slog.Info("update_scheduled", "image", t.imageNum, "slot", slot)
	t.state = StateScheduled
	return nil
}

// Reset aborts the update in software from any state and always ends in
// Reset. In recovery mode the running image cannot restart itself; the
// returned error tells the caller to take the hardware path.
func (t *Target) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = nil
	t.fill = 0
	t.cursor = 0
	t.size = 0
	if t.area != nil {
		t.area.Close()
		t.area = nil
	}
	t.state = StateReset
	slog.Info("dfu_target_reset", "recovery_mode", t.recoveryMode)

	if t.recoveryMode {
		return fmt.Errorf("software reset unavailable in recovery mode: %w", errors.ErrOperation)
	}
	return nil
}

// ListImageSlots returns the bootloader's current image list. Available in
// any state once the target was initialized at least once.
func (t *Target) ListImageSlots(ctx context.Context) ([]boot.Slot, error) {
	t.mu.Lock()
	if !t.everInit {
		t.mu.Unlock()
		return nil, fmt.Errorf("target never initialized: %w", errors.ErrNotReady)
	}
	meta := t.meta
	t.mu.Unlock()
	return meta.Slots(ctx)
}
