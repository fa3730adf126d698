package protocol

import (
	"errors"

	"kudubot/internal/domain"
)

// Exit statuses, following sysexits.h where one fits.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 64
	ExitDataErr = 65
	ExitIOErr   = 74
)

// ExitCode maps an invocation error to the process exit status the host sees.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrUnrecognizedMode), errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, domain.ErrMalformedMessage):
		return ExitDataErr
	case errors.Is(err, domain.ErrIO):
		return ExitIOErr
	default:
		return ExitFailure
	}
}
