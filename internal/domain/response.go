package domain

// ReplyMode is the only handle_message outcome a conforming service reports.
const ReplyMode = "reply"

// NoReplyMode is accepted from legacy services that decline to answer.
const NoReplyMode = "noreply"

// ApplicabilityResponse is written for is_applicable_to.
type ApplicabilityResponse struct {
	IsApplicable bool `json:"is_applicable"`
}

// HandleResponse is written for handle_message.
type HandleResponse struct {
	Mode string `json:"mode"`
}
