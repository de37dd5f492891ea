// Package inbox holds the feedback operations: accepting submissions, the admin
// moderation actions and the unread counter.
package inbox

import (
	"context"
	"time"

	"github.com/gorilla/sessions"

	"github.com/MarkoPoloResearchLab/portfolio/internal/model"
)

// MessageStore is the persistence contract the inbox relies on.
type MessageStore interface {
	Create(ctx context.Context, message *model.Message) error
	ListNewestFirst(ctx context.Context) ([]model.Message, error)
	CountUnread(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id uint) (model.Message, error)
	Delete(ctx context.Context, id uint) error
}

// SessionGate guards admin operations.
type SessionGate interface {
	Require(session *sessions.Session) error
}

// Submission carries the raw feedback form values.
type Submission struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Intake validates and persists feedback submissions.
type Intake struct {
	store MessageStore
	clock func() time.Time
}

func NewIntake(store MessageStore, clock func() time.Time) *Intake {
	if clock == nil {
		clock = time.Now
	}
	return &Intake{store: store, clock: clock}
}

// Submit stores a new unread message. A blank field yields model.ErrInvalidMessage and a
// failed write yields the store's storage error; in both cases nothing is persisted.
func (intake *Intake) Submit(ctx context.Context, submission Submission) (model.Message, error) {
	message, validationErr := model.NewMessage(model.MessageInput{
		Name:    submission.Name,
		Email:   submission.Email,
		Subject: submission.Subject,
		Message: submission.Message,
	}, intake.clock())
	if validationErr != nil {
		return model.Message{}, validationErr
	}
	if createErr := intake.store.Create(ctx, &message); createErr != nil {
		return model.Message{}, createErr
	}
	return message, nil
}

// Moderator exposes the admin actions. Each call checks the session first and returns
// auth.ErrAuthRequired without touching the store when it is anonymous.
type Moderator struct {
	store MessageStore
	gate  SessionGate
}

func NewModerator(store MessageStore, gate SessionGate) *Moderator {
	return &Moderator{store: store, gate: gate}
}

func (moderator *Moderator) ListAll(ctx context.Context, session *sessions.Session) ([]model.Message, error) {
	if authErr := moderator.gate.Require(session); authErr != nil {
		return nil, authErr
	}
	return moderator.store.ListNewestFirst(ctx)
}

func (moderator *Moderator) MarkRead(ctx context.Context, session *sessions.Session, id uint) error {
	if authErr := moderator.gate.Require(session); authErr != nil {
		return authErr
	}
	_, markErr := moderator.store.MarkRead(ctx, id)
	return markErr
}

func (moderator *Moderator) Delete(ctx context.Context, session *sessions.Session, id uint) error {
	if authErr := moderator.gate.Require(session); authErr != nil {
		return authErr
	}
	return moderator.store.Delete(ctx, id)
}

// UnreadCounter reports the live number of unread messages.
type UnreadCounter struct {
	store MessageStore
}

func NewUnreadCounter(store MessageStore) *UnreadCounter {
	return &UnreadCounter{store: store}
}

func (counter *UnreadCounter) Count(ctx context.Context) (int64, error) {
	return counter.store.CountUnread(ctx)
}
