package protocol

import (
	"errors"
	"fmt"
	"testing"

	"kudubot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("handle_message")
	require.NoError(t, err)
	assert.Equal(t, HandleMessage, m)

	m, err = ParseMode("is_applicable_to")
	require.NoError(t, err)
	assert.Equal(t, IsApplicableTo, m)

	for _, bad := range []string{"", "HANDLE_MESSAGE", "Is_Applicable_To", "handle_message ", "reply", "is_applicable"} {
		_, err := ParseMode(bad)
		assert.ErrorIs(t, err, domain.ErrUnrecognizedMode, "mode %q", bad)
	}
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "handle_message", HandleMessage.String())
	assert.Equal(t, "is_applicable_to", IsApplicableTo.String())
	assert.Equal(t, "Mode(0)", Mode(0).String())
}

func TestParseInvocation(t *testing.T) {
	inv, err := ParseInvocation([]string{"is_applicable_to", "m.json", "r.json"})
	require.NoError(t, err)
	assert.Equal(t, Invocation{Mode: IsApplicableTo, MessagePath: "m.json", ResponsePath: "r.json"}, inv)
	assert.Equal(t, []string{"is_applicable_to", "m.json", "r.json"}, inv.Args())

	inv, err = ParseInvocation([]string{"handle_message", "m.json", "r.json", "kudu.db"})
	require.NoError(t, err)
	assert.Equal(t, "kudu.db", inv.DatabasePath)
	assert.Equal(t, []string{"handle_message", "m.json", "r.json", "kudu.db"}, inv.Args())
}

func TestParseInvocation_Errors(t *testing.T) {
	_, err := ParseInvocation([]string{"handle_message", "m.json"})
	assert.ErrorIs(t, err, ErrUsage)

	_, err = ParseInvocation([]string{"handle_message", "m.json", "r.json", "db", "extra"})
	assert.ErrorIs(t, err, ErrUsage)

	_, err = ParseInvocation([]string{"handle_message", "", "r.json"})
	assert.ErrorIs(t, err, ErrUsage)

	_, err = ParseInvocation([]string{"bogus", "m.json", "r.json"})
	assert.ErrorIs(t, err, domain.ErrUnrecognizedMode)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitUsage, ExitCode(fmt.Errorf("x: %w", domain.ErrUnrecognizedMode)))
	assert.Equal(t, ExitUsage, ExitCode(fmt.Errorf("x: %w", ErrUsage)))
	assert.Equal(t, ExitDataErr, ExitCode(fmt.Errorf("x: %w", domain.ErrMalformedMessage)))
	assert.Equal(t, ExitIOErr, ExitCode(fmt.Errorf("x: %w", domain.ErrIO)))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("boom")))
}
