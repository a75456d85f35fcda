//go:build !linux && !darwin

package mmap

import (
	"github.com/ajitpratap0/colbridge/pkg/errors"
)

func mmap(int, int64, int, int, int) ([]byte, error) {
	return nil, errors.New(errors.ErrorTypeCapability, "memory mapping is not supported on this platform")
}

func munmap([]byte) error { return nil }

func madvise([]byte, int) error { return nil }

const (
	ProtRead       = 0
	MapShared      = 0
	MadvSequential = 0
	MadvWillneed   = 0
)
