package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MessageFieldName    = "name"
	MessageFieldEmail   = "email"
	MessageFieldSubject = "subject"
	MessageFieldMessage = "message"
)

var (
	// ErrInvalidMessage indicates a submission is missing one of its required fields.
	ErrInvalidMessage = errors.New("invalid_message")
)

// Message is a single feedback submission left through the contact form.
type Message struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"not null;size:100"`
	Email     string    `gorm:"not null;size:120"`
	Subject   string    `gorm:"not null;size:200"`
	Body      string    `gorm:"column:message;type:text;not null"`
	IsRead    bool      `gorm:"not null;default:false;index"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// MessageInput holds the raw form values used to construct a Message.
type MessageInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// NewMessage constructs an unread Message from trimmed input. Every field must be non-empty
// after trimming; no other content checks are applied.
func NewMessage(input MessageInput, createdAt time.Time) (Message, error) {
	fields := []struct {
		name  string
		value string
	}{
		{name: MessageFieldName, value: strings.TrimSpace(input.Name)},
		{name: MessageFieldEmail, value: strings.TrimSpace(input.Email)},
		{name: MessageFieldSubject, value: strings.TrimSpace(input.Subject)},
		{name: MessageFieldMessage, value: strings.TrimSpace(input.Message)},
	}
	for _, field := range fields {
		if field.value == "" {
			return Message{}, fmt.Errorf("%w: missing %s", ErrInvalidMessage, field.name)
		}
	}

	return Message{
		Name:      fields[0].value,
		Email:     fields[1].value,
		Subject:   fields[2].value,
		Body:      fields[3].value,
		IsRead:    false,
		CreatedAt: createdAt.UTC(),
	}, nil
}
