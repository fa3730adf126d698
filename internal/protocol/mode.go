// Package protocol implements the service side of the kudubot external
// service contract: one invocation, one mode, one message file, one response file.
package protocol

import (
	"errors"
	"fmt"

	"kudubot/internal/domain"
)

// Mode selects the protocol operation.
type Mode int

const (
	// HandleMessage computes a reply, rewrites the message file and reports "reply".
	HandleMessage Mode = iota + 1
	// IsApplicableTo reports whether the service wants to handle the message.
	IsApplicableTo
)

const (
	handleMessageArg  = "handle_message"
	isApplicableToArg = "is_applicable_to"
)

// ErrUsage means the argument vector does not have the expected shape.
var ErrUsage = errors.New("usage")

// ParseMode maps the mode argument to a Mode. Matching is exact and case-sensitive.
func ParseMode(s string) (Mode, error) {
	switch s {
	case handleMessageArg:
		return HandleMessage, nil
	case isApplicableToArg:
		return IsApplicableTo, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected %s or %s)", domain.ErrUnrecognizedMode, s, handleMessageArg, isApplicableToArg)
	}
}

// String returns the argument spelling of the mode.
func (m Mode) String() string {
	switch m {
	case HandleMessage:
		return handleMessageArg
	case IsApplicableTo:
		return isApplicableToArg
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Invocation is the full input of one service run.
type Invocation struct {
	Mode         Mode
	MessagePath  string
	ResponsePath string
	DatabasePath string // optional fourth argument: the host's database file
}

// ParseInvocation parses "<mode> <message_file> <response_file> [database_file]".
func ParseInvocation(args []string) (Invocation, error) {
	if len(args) < 3 || len(args) > 4 {
		return Invocation{}, fmt.Errorf("%w: expected <mode> <message_file> <response_file> [database_file], got %d arguments", ErrUsage, len(args))
	}
	mode, err := ParseMode(args[0])
	if err != nil {
		return Invocation{}, err
	}
	inv := Invocation{Mode: mode, MessagePath: args[1], ResponsePath: args[2]}
	if len(args) == 4 {
		inv.DatabasePath = args[3]
	}
	if inv.MessagePath == "" || inv.ResponsePath == "" {
		return Invocation{}, fmt.Errorf("%w: message and response file paths must not be empty", ErrUsage)
	}
	return inv, nil
}

// Args renders the invocation back into an argument vector.
func (inv Invocation) Args() []string {
	args := []string{inv.Mode.String(), inv.MessagePath, inv.ResponsePath}
	if inv.DatabasePath != "" {
		args = append(args, inv.DatabasePath)
	}
	return args
}
