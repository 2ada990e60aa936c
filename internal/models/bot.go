package models

import "strings"

// BotEventKind is the kind of chat interaction received by the webhook
type BotEventKind string

const (
	BotEventMention BotEventKind = "mention"
	BotEventCommand BotEventKind = "command"
	BotEventButton  BotEventKind = "button"
)

// Attachment is a file attached to a chat message
type Attachment struct {
	URL         string `json:"url"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// IsImage reports whether the attachment is an image
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.ContentType, "image/")
}

// BotEvent is the platform-neutral envelope accepted by the webhook
type BotEvent struct {
	Kind        BotEventKind `json:"kind" validate:"required,oneof=mention command button"`
	UserID      string       `json:"user_id" validate:"required"`
	ChannelID   string       `json:"channel_id"`
	Text        string       `json:"text"`
	Command     string       `json:"command,omitempty"`
	ButtonID    string       `json:"button_id,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Button is an interactive control attached to a reply
type Button struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
}

// BotReply is returned to the chat platform adapter
type BotReply struct {
	Messages []string `json:"messages"`
	Buttons  []Button `json:"buttons,omitempty"`
}
