package codec

import (
	"encoding/json"
	"math"
	"testing"

	"kudubot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleMessage = `{"message_title":"Hi","message_body":"Hello Rust!","receiver":{"database_id":1,"display_name":"Bot","address":"bot@x"},"sender":{"database_id":2,"display_name":"Alice","address":"alice@x"},"sender_group":null,"timestamp":1000.0}`

func sampleMessage() domain.Message {
	return domain.Message{
		MessageTitle: "Hi",
		MessageBody:  "Hello Rust!",
		Receiver:     domain.Contact{DatabaseID: 1, DisplayName: "Bot", Address: "bot@x"},
		Sender:       domain.Contact{DatabaseID: 2, DisplayName: "Alice", Address: "alice@x"},
		Timestamp:    1000,
	}
}

func TestDecode_Example(t *testing.T) {
	msg, err := Decode([]byte(exampleMessage))
	require.NoError(t, err)
	assert.True(t, sampleMessage().Equal(msg))
	assert.Nil(t, msg.SenderGroup)
}

func TestDecode_GroupPresent(t *testing.T) {
	data := `{"message_title":"","message_body":"b","receiver":{"database_id":1,"display_name":"Bot","address":"bot@x"},` +
		`"sender":{"database_id":2,"display_name":"Alice","address":"alice@x"},` +
		`"sender_group":{"database_id":3,"display_name":"G","address":"g@x"},"timestamp":-3.25}`

	msg, err := Decode([]byte(data))
	require.NoError(t, err)
	require.NotNil(t, msg.SenderGroup)
	assert.Equal(t, domain.Contact{DatabaseID: 3, DisplayName: "G", Address: "g@x"}, *msg.SenderGroup)
	assert.Equal(t, -3.25, msg.Timestamp)
}

func TestDecode_MissingSenderGroupKeyIsAbsent(t *testing.T) {
	data := `{"message_title":"t","message_body":"b","receiver":{"database_id":1,"display_name":"Bot","address":"bot@x"},` +
		`"sender":{"database_id":2,"display_name":"Alice","address":"alice@x"},"timestamp":1}`

	msg, err := Decode([]byte(data))
	require.NoError(t, err)
	assert.Nil(t, msg.SenderGroup)
}

func TestDecode_Malformed(t *testing.T) {
	mutate := func(f func(m map[string]any)) []byte {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(exampleMessage), &m))
		f(m)
		data, err := json.Marshal(m)
		require.NoError(t, err)
		return data
	}

	cases := map[string][]byte{
		"not json":              []byte(`{"message_title":`),
		"array":                 []byte(`[]`),
		"null document":         []byte(`null`),
		"empty":                 []byte(``),
		"trailing garbage":      []byte(exampleMessage + `x`),
		"invalid utf8":          append([]byte(`{"message_title":"`), 0xff, '"', '}'),
		"missing receiver":      mutate(func(m map[string]any) { delete(m, "receiver") }),
		"null sender":           mutate(func(m map[string]any) { m["sender"] = nil }),
		"missing title":         mutate(func(m map[string]any) { delete(m, "message_title") }),
		"missing body":          mutate(func(m map[string]any) { delete(m, "message_body") }),
		"missing timestamp":     mutate(func(m map[string]any) { delete(m, "timestamp") }),
		"string timestamp":      mutate(func(m map[string]any) { m["timestamp"] = "1000" }),
		"numeric body":          mutate(func(m map[string]any) { m["message_body"] = 5 }),
		"fractional id":         mutate(func(m map[string]any) { m["sender"].(map[string]any)["database_id"] = 1.5 }),
		"string id":             mutate(func(m map[string]any) { m["sender"].(map[string]any)["database_id"] = "1" }),
		"missing address":       mutate(func(m map[string]any) { delete(m["receiver"].(map[string]any), "address") }),
		"null display name":     mutate(func(m map[string]any) { m["receiver"].(map[string]any)["display_name"] = nil }),
		"group not an object":   mutate(func(m map[string]any) { m["sender_group"] = "group" }),
		"group missing id":      mutate(func(m map[string]any) { m["sender_group"] = map[string]any{"display_name": "G", "address": "g"} }),
		"receiver scalar":       mutate(func(m map[string]any) { m["receiver"] = 1 }),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(data)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedMessage)
		})
	}
}

func TestEncode_KeyOrderAndExplicitNull(t *testing.T) {
	data, err := Encode(sampleMessage())
	require.NoError(t, err)
	assert.Equal(t,
		`{"message_title":"Hi","message_body":"Hello Rust!","receiver":{"database_id":1,"display_name":"Bot","address":"bot@x"},"sender":{"database_id":2,"display_name":"Alice","address":"alice@x"},"sender_group":null,"timestamp":1000}`,
		string(data))
}

func TestEncode_DoesNotEscapeHTML(t *testing.T) {
	msg := sampleMessage()
	msg.MessageBody = "<b>&</b>"
	data, err := Encode(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message_body":"<b>&</b>"`)
}

func TestEncode_RejectsNaN(t *testing.T) {
	msg := sampleMessage()
	msg.Timestamp = math.NaN()
	_, err := Encode(msg)
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	group := domain.Contact{DatabaseID: math.MinInt64, DisplayName: "Gruppe ü", Address: "grp@network"}

	msgs := []domain.Message{
		sampleMessage(),
		{},
		{
			MessageTitle: "Ünïcödé ✓",
			MessageBody:  "line1\nline2\t\"quoted\" \\ 😀",
			Receiver:     domain.Contact{DatabaseID: math.MaxInt64, DisplayName: "", Address: ""},
			Sender:       domain.Contact{DatabaseID: -7, DisplayName: "Bob", Address: "+491234"},
			SenderGroup:  &group,
			Timestamp:    -1712345678.000001,
		},
		{Receiver: sampleMessage().Receiver, Sender: sampleMessage().Sender, Timestamp: math.MaxFloat64},
		{Receiver: sampleMessage().Receiver, Sender: sampleMessage().Sender, Timestamp: math.SmallestNonzeroFloat64},
	}

	for i, m := range msgs {
		data, err := Encode(m)
		require.NoError(t, err, "case %d", i)
		got, err := Decode(data)
		require.NoError(t, err, "case %d", i)
		assert.True(t, m.Equal(got), "case %d: %+v != %+v", i, m, got)
	}
}

func TestEncodeResponse(t *testing.T) {
	data, err := EncodeResponse(domain.HandleResponse{Mode: domain.ReplyMode})
	require.NoError(t, err)
	assert.Equal(t, `{"mode":"reply"}`, string(data))

	data, err = EncodeResponse(domain.ApplicabilityResponse{IsApplicable: true})
	require.NoError(t, err)
	assert.Equal(t, `{"is_applicable":true}`, string(data))
}
