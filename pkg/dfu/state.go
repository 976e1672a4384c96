// Package dfu drives one firmware update at a time: bytes stream into a
// target partition, then the result is finalized, scheduled or abandoned.
package dfu

import (
	"fmt"

	"github.com/fota-tools/fotactl/pkg/errors"
)

// State is the update target lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateWriting
	StateDone
	StateScheduled
	StateReset
)

var stateNames = map[State]string{
	StateUninitialized: "uninitialized",
	StateInitialized:   "initialized",
	StateWriting:       "writing",
	StateDone:          "done",
	StateScheduled:     "scheduled",
	StateReset:         "reset",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ImageType selects the update protocol family of the streamed image.
type ImageType int

const (
	ImageTypeMCUBoot ImageType = iota
	ImageTypeSMP
)

var imageTypeNames = map[ImageType]string{
	ImageTypeMCUBoot: "mcuboot",
	ImageTypeSMP:     "smp",
}

func (t ImageType) String() string {
	if name, ok := imageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseImageType maps a configuration string onto an image type.
func ParseImageType(s string) (ImageType, error) {
	for t, name := range imageTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("image type %q: %w", s, errors.ErrValidation)
}

// TargetEvent notifies the init-time callback about long-running target
// work.
type TargetEvent int

const (
	EventTimeout TargetEvent = iota
	EventErasePending
	EventEraseDone
)

var targetEventNames = map[TargetEvent]string{
	EventTimeout:      "timeout",
	EventErasePending: "erase_pending",
	EventEraseDone:    "erase_done",
}

func (e TargetEvent) String() string {
	if name, ok := targetEventNames[e]; ok {
		return name
	}
	return "unknown"
}

// EventFunc receives target events. It runs on the updating goroutine and
// must not call back into the Target.
type EventFunc func(TargetEvent)
