package pak

import (
	"errors"
	"fmt"
)

// Result is the outcome of a Pack or Unpack call.
type Result int

const (
	Success Result = iota
	SourceMissing
	SourceEmpty
	SourceSizeError
	SourceLoadError
	SourceReadError
	HeaderError
	DataError
	PathCreateError
	FileCreateError
	FileWriteError
)

// Unknown is reported by ResultOf for errors this package did not produce.
const Unknown Result = -1

// InvalidExitCode is the legacy exit code for a bad command line, and for
// a Result that cannot occur in the requested direction.
const InvalidExitCode = 0xF7

var resultNames = map[Result]string{
	Success:         "success",
	SourceMissing:   "source missing",
	SourceEmpty:     "source empty",
	SourceSizeError: "source size error",
	SourceLoadError: "source load error",
	SourceReadError: "source read error",
	HeaderError:     "header error",
	DataError:       "data error",
	PathCreateError: "path create error",
	FileCreateError: "file create error",
	FileWriteError:  "file write error",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("result(%d)", int(r))
}

var unpackCodes = map[Result]int{
	Success:         0,
	SourceMissing:   1,
	SourceSizeError: 2,
	SourceLoadError: 3,
	HeaderError:     4,
	DataError:       5,
	PathCreateError: 6,
	FileCreateError: 7,
	FileWriteError:  8,
}

var packCodes = map[Result]int{
	Success:         0,
	SourceMissing:   1,
	SourceEmpty:     2,
	PathCreateError: 3,
	FileCreateError: 4,
	FileWriteError:  5,
	SourceReadError: 6,
}

// ExitCode maps r to the numeric code the legacy launcher expects for op.
// The two directions number their results independently.
func (r Result) ExitCode(op Operation) int {
	codes := unpackCodes
	if op == OpPack {
		codes = packCodes
	}
	if code, ok := codes[r]; ok {
		return code
	}
	return InvalidExitCode
}

// Operation names the direction of an archive call.
type Operation int

const (
	OpPack Operation = iota
	OpUnpack
)

func (o Operation) String() string {
	switch o {
	case OpPack:
		return "pack"
	case OpUnpack:
		return "unpack"
	}
	return fmt.Sprintf("operation(%d)", int(o))
}

// Error is returned by Pack and Unpack. Result is the cause, Path the file
// or directory being worked on, Err the underlying error if there was one.
type Error struct {
	Op     Operation
	Result Result
	Path   string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("pak: %s %s: %s", e.Op, e.Path, e.Result)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ResultOf recovers the Result carried by err. A nil error is Success.
func ResultOf(err error) Result {
	if err == nil {
		return Success
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Result
	}
	return Unknown
}

func newError(op Operation, result Result, path string, err error) *Error {
	return &Error{Op: op, Result: result, Path: path, Err: err}
}
