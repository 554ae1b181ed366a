package dto

import "github.com/google/uuid"

// AuthPayload is the profile snapshot sent with the auth intent. The user id
// itself comes from the verified token, never from the payload.
type AuthPayload struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

type MessagePayload struct {
	Content string `json:"content"`
}

type DeleteMessagePayload struct {
	MessageID uuid.UUID `json:"message_id"`
}

type ToggleMicPayload struct {
	On bool `json:"on"`
}

type MinimizePayload struct {
	Minimized    bool `json:"minimized"`
	MicrophoneOn bool `json:"microphone_on"`
}
