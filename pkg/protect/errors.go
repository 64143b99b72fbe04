package protect

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrProtectionFailed = errors.New("protection failed")

const (
	StageDecode    = "decode"
	StageNoise     = "noise"
	StageWatermark = "watermark"
	StageComposite = "composite"
	StageScramble  = "scramble"
	StageEncode    = "encode"
)

// StageError names the stage that failed. It matches both
// ErrProtectionFailed and the underlying cause.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s at %s: %v", ErrProtectionFailed, e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{ErrProtectionFailed, e.Err}
}

func fail(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}
