// Package transport is the only place that touches the exchange files.
package transport

import (
	"fmt"
	"os"

	"kudubot/internal/codec"
	"kudubot/internal/domain"

	"github.com/google/renameio/v2"
)

const filePerm = 0o644

// ReadText returns the whole content of path.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", domain.ErrIO, path, err)
	}
	return string(data), nil
}

// WriteText replaces the content of path. The new content is written to a
// temporary file in the same directory and renamed over path, so readers see
// either the previous or the complete new content.
func WriteText(path, content string) error {
	if err := renameio.WriteFile(path, []byte(content), filePerm, renameio.WithExistingPermissions()); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrIO, path, err)
	}
	return nil
}

// WriteJSON encodes v compactly and writes it to path.
func WriteJSON(path string, v any) error {
	data, err := codec.EncodeResponse(v)
	if err != nil {
		return err
	}
	return WriteText(path, string(data))
}

// ReadMessage reads and decodes the message file at path.
func ReadMessage(path string) (domain.Message, error) {
	text, err := ReadText(path)
	if err != nil {
		return domain.Message{}, err
	}
	msg, err := codec.Decode([]byte(text))
	if err != nil {
		return domain.Message{}, fmt.Errorf("%s: %w", path, err)
	}
	return msg, nil
}

// WriteMessage encodes msg and writes it to path.
func WriteMessage(path string, msg domain.Message) error {
	data, err := codec.Encode(msg)
	if err != nil {
		return err
	}
	return WriteText(path, string(data))
}
