package domain

// Contact is one addressable chat participant: a user, a bot identity or a group.
type Contact struct {
	DatabaseID  int64  `json:"database_id"`
	DisplayName string `json:"display_name"`
	Address     string `json:"address"` // network-specific, opaque to services
}

// Message is one chat message crossing the host/service file boundary.
// SenderGroup is nil for direct messages.
type Message struct {
	MessageTitle string   `json:"message_title"`
	MessageBody  string   `json:"message_body"`
	Receiver     Contact  `json:"receiver"`
	Sender       Contact  `json:"sender"`
	SenderGroup  *Contact `json:"sender_group"`
	Timestamp    float64  `json:"timestamp"` // seconds since epoch, owned by the host
}

// IsGroup reports whether the message originated in a group conversation.
func (m Message) IsGroup() bool {
	return m.SenderGroup != nil
}

// DirectResponseContact returns the contact a reply should go to:
// the group for group messages, the individual sender otherwise.
func (m Message) DirectResponseContact() Contact {
	if m.SenderGroup != nil {
		return *m.SenderGroup
	}
	return m.Sender
}

// Reply builds the answer to m. The service speaks as the inbound receiver,
// the reply is never flagged as a group message and keeps the inbound timestamp.
func (m Message) Reply(title, body string) Message {
	return Message{
		MessageTitle: title,
		MessageBody:  body,
		Receiver:     m.DirectResponseContact(),
		Sender:       m.Receiver,
		SenderGroup:  nil,
		Timestamp:    m.Timestamp,
	}
}

// Equal compares two messages field by field, including group presence.
func (m Message) Equal(o Message) bool {
	if m.MessageTitle != o.MessageTitle || m.MessageBody != o.MessageBody {
		return false
	}
	if m.Receiver != o.Receiver || m.Sender != o.Sender || m.Timestamp != o.Timestamp {
		return false
	}
	if (m.SenderGroup == nil) != (o.SenderGroup == nil) {
		return false
	}
	return m.SenderGroup == nil || *m.SenderGroup == *o.SenderGroup
}
