// Package capi is the stable boundary the welding core exposes to host
// applications: opaque generation-tagged handles for the four object kinds,
// flat caller-owned buffers, stable integer result codes and a process-wide
// last-error slot. Operations on a handle return a Code; creation returns a
// Handle (NilHandle on failure) and count queries return -1 for a bad
// handle. Hosts that want a message read LastError after a failure.
package capi

import (
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/smr-robotics/weldcore/kinematics"
	"github.com/smr-robotics/weldcore/pointcloud"
)

// Code is a stable integer result code.
type Code int32

// The stable result codes of the handle ABI.
const (
	Success            Code = 0
	ErrInvalidHandle   Code = -1
	ErrInvalidParam    Code = -2
	ErrFileNotFound    Code = -3
	ErrFileFormat      Code = -4
	ErrMemoryAlloc     Code = -5
	ErrComputation     Code = -6
	ErrNoSolution      Code = -7
	ErrJointLimits     Code = -8
	ErrSingularity     Code = -9
	ErrNotImplemented  Code = -99
)

// Version is the ABI version string.
const Version = "1.0.0"

var (
	lastErrorMu sync.Mutex
	lastError   string
)

// LastError returns the message recorded by the most recent failing entry
// point, the empty string when nothing has failed yet. The slot is
// process-wide and overwritten by every failure that records a message;
// most bad-handle failures are reported by the return value alone and
// leave the slot unchanged.
func LastError() string {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	return lastError
}

func setLastError(msg string) {
	lastErrorMu.Lock()
	lastError = msg
	lastErrorMu.Unlock()
}

// fail records the error and translates it to its stable code.
func fail(err error) Code {
	setLastError(err.Error())
	switch {
	case os.IsNotExist(errors.Cause(err)):
		return ErrFileNotFound
	case errors.Is(err, pointcloud.ErrMalformedFile):
		return ErrFileFormat
	case errors.Is(err, pointcloud.ErrNoNormals):
		return ErrComputation
	case errors.Is(err, kinematics.ErrNoSolution):
		return ErrNoSolution
	case errors.Is(err, kinematics.ErrJointLimits):
		return ErrJointLimits
	case errors.Is(err, kinematics.ErrSingularity):
		return ErrSingularity
	default:
		return ErrComputation
	}
}

// failParam records a parameter error.
func failParam(err error) Code {
	setLastError(err.Error())
	return ErrInvalidParam
}
