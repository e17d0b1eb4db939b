package pciesw

import "github.com/h3platform/pciemon/internal/errors"

const (
	ErrNotInitialized     = errors.ErrorCode("pciesw_not_initialized")
	ErrInitFailed         = errors.ErrorCode("pciesw_init_failed")
	ErrDeviceNotFound     = errors.ErrorCode("pciesw_device_not_found")
	ErrDeviceCountFailed  = errors.ErrorCode("pciesw_device_count_failed")
	ErrDeviceInfoFailed   = errors.ErrorCode("pciesw_device_info_failed")
	ErrPortInfoFailed     = errors.ErrorCode("pciesw_port_info_failed")
	ErrMeasurementFailed  = errors.ErrorCode("pciesw_measurement_failed")
	ErrLibraryUnavailable = errors.ErrorCode("pciesw_library_unavailable")
)

// Result is the raw return code of the switch-management library.
type Result int

const (
	Success           Result = 0
	NotInitialized    Result = 1
	InvalidDevice     Result = 2
	InvalidPort       Result = 3
	MemoryError       Result = 4
	FileError         Result = 5
	Unsupported       Result = 6
	SequenceViolation Result = 7
	Unknown           Result = 99
)

var resultStrings = map[Result]string{
	Success:           "success",
	NotInitialized:    "library not initialized",
	InvalidDevice:     "invalid device",
	InvalidPort:       "invalid port",
	MemoryError:       "memory error",
	FileError:         "file error",
	Unsupported:       "operation unsupported",
	SequenceViolation: "measurement sequence violation",
	Unknown:           "unknown error",
}

func (r Result) String() string {
	if s, ok := resultStrings[r]; ok {
		return s
	}

	return resultStrings[Unknown]
}

// resultError represents a library-specific error
type resultError struct {
	result Result
}

func (e *resultError) Error() string {
	return e.result.String()
}

// newResultError creates an error from a library return code
func newResultError(r Result) error {
	if r == Success {
		return nil
	}
	return &resultError{result: r}
}

// ResultOf recovers the library return code carried by err. Errors not
// originating from a library call report Unknown; nil reports Success.
func ResultOf(err error) Result {
	if err == nil {
		return Success
	}

	var re *resultError
	if errors.As(err, &re) {
		return re.result
	}

	return Unknown
}

// IsResult reports whether err carries the given library return code.
func IsResult(err error, r Result) bool {
	return ResultOf(err) == r
}
