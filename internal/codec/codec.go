// Package codec converts between the on-disk JSON form of a Message and the
// domain model. Decoding is strict about required fields and their types.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"kudubot/internal/domain"
)

// wireContact uses pointers so that missing and null keys can be told apart
// from zero values.
type wireContact struct {
	DatabaseID  *int64  `json:"database_id"`
	DisplayName *string `json:"display_name"`
	Address     *string `json:"address"`
}

type wireMessage struct {
	MessageTitle *string      `json:"message_title"`
	MessageBody  *string      `json:"message_body"`
	Receiver     *wireContact `json:"receiver"`
	Sender       *wireContact `json:"sender"`
	SenderGroup  *wireContact `json:"sender_group"`
	Timestamp    *float64     `json:"timestamp"`
}

// Decode parses one encoded Message. Every failure wraps domain.ErrMalformedMessage.
func Decode(data []byte) (domain.Message, error) {
	if !utf8.Valid(data) {
		return domain.Message{}, malformed("content is not valid UTF-8")
	}

	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %w", domain.ErrMalformedMessage, err)
	}

	switch {
	case w.MessageTitle == nil:
		return domain.Message{}, missing("message_title")
	case w.MessageBody == nil:
		return domain.Message{}, missing("message_body")
	case w.Receiver == nil:
		return domain.Message{}, missing("receiver")
	case w.Sender == nil:
		return domain.Message{}, missing("sender")
	case w.Timestamp == nil:
		return domain.Message{}, missing("timestamp")
	}

	receiver, err := w.Receiver.contact("receiver")
	if err != nil {
		return domain.Message{}, err
	}
	sender, err := w.Sender.contact("sender")
	if err != nil {
		return domain.Message{}, err
	}

	msg := domain.Message{
		MessageTitle: *w.MessageTitle,
		MessageBody:  *w.MessageBody,
		Receiver:     receiver,
		Sender:       sender,
		Timestamp:    *w.Timestamp,
	}
	if w.SenderGroup != nil {
		group, err := w.SenderGroup.contact("sender_group")
		if err != nil {
			return domain.Message{}, err
		}
		msg.SenderGroup = &group
	}
	return msg, nil
}

func (w *wireContact) contact(field string) (domain.Contact, error) {
	switch {
	case w.DatabaseID == nil:
		return domain.Contact{}, missing(field + ".database_id")
	case w.DisplayName == nil:
		return domain.Contact{}, missing(field + ".display_name")
	case w.Address == nil:
		return domain.Contact{}, missing(field + ".address")
	}
	return domain.Contact{
		DatabaseID:  *w.DatabaseID,
		DisplayName: *w.DisplayName,
		Address:     *w.Address,
	}, nil
}

// Encode serializes msg with sender_group written as an explicit null when absent.
func Encode(msg domain.Message) ([]byte, error) {
	data, err := marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}

// EncodeResponse serializes a response document compactly, e.g. {"mode":"reply"}.
func EncodeResponse(v any) ([]byte, error) {
	data, err := marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return data, nil
}

// marshal keeps <, > and & literal; chat bodies are not HTML.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing or null field %q", domain.ErrMalformedMessage, field)
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrMalformedMessage, reason)
}
