//go:build !unix

package terminal

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("raw terminal input requires a unix platform")

type unsupportedBackend struct{}

func newBackend() Backend {
	return unsupportedBackend{}
}

func (unsupportedBackend) Init() error                      { return errUnsupported }
func (unsupportedBackend) Fini()                            {}
func (unsupportedBackend) Wait(time.Duration) (bool, error) { return false, errUnsupported }
func (unsupportedBackend) Read([]byte) (int, error)         { return 0, errUnsupported }
