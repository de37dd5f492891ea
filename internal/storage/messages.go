package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/portfolio/internal/model"
)

const (
	errorMessageMessageNotFound = "message_not_found"
	errorMessageStorageFailure  = "storage_failure"

	columnIsRead = "is_read"
)

var (
	// ErrMessageNotFound indicates no message exists for the requested identifier.
	ErrMessageNotFound = errors.New(errorMessageMessageNotFound)
	// ErrStorage wraps every other persistence failure.
	ErrStorage = errors.New(errorMessageStorageFailure)
)

// MessageStore persists feedback messages. Every write runs in its own transaction.
type MessageStore struct {
	database *gorm.DB
}

func NewMessageStore(database *gorm.DB) *MessageStore {
	return &MessageStore{database: database}
}

// Create inserts the message and populates its identifier.
func (store *MessageStore) Create(ctx context.Context, message *model.Message) error {
	createErr := store.database.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return transaction.Create(message).Error
	})
	if createErr != nil {
		return storageError("create message", createErr)
	}
	return nil
}

// ListNewestFirst returns every message ordered by creation time, newest first. Messages
// created at the same instant are ordered by descending identifier.
func (store *MessageStore) ListNewestFirst(ctx context.Context) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	queryErr := store.database.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&messages).Error
	if queryErr != nil {
		return nil, storageError("list messages", queryErr)
	}
	return messages, nil
}

func (store *MessageStore) CountUnread(ctx context.Context) (int64, error) {
	var unreadCount int64
	countErr := store.database.WithContext(ctx).
		Model(&model.Message{}).
		Where(columnIsRead+" = ?", false).
		Count(&unreadCount).Error
	if countErr != nil {
		return 0, storageError("count unread messages", countErr)
	}
	return unreadCount, nil
}

func (store *MessageStore) FindByID(ctx context.Context, id uint) (model.Message, error) {
	return findMessage(store.database.WithContext(ctx), id)
}

// MarkRead flags the message as read. Marking an already read message changes nothing.
func (store *MessageStore) MarkRead(ctx context.Context, id uint) (model.Message, error) {
	var updated model.Message
	transactionErr := store.database.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		message, findErr := findMessage(transaction, id)
		if findErr != nil {
			return findErr
		}
		if !message.IsRead {
			if updateErr := transaction.Model(&message).Update(columnIsRead, true).Error; updateErr != nil {
				return storageError("mark message read", updateErr)
			}
			message.IsRead = true
		}
		updated = message
		return nil
	})
	if transactionErr != nil {
		return model.Message{}, classify("mark message read", transactionErr)
	}
	return updated, nil
}

// Delete permanently removes the message.
func (store *MessageStore) Delete(ctx context.Context, id uint) error {
	transactionErr := store.database.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		message, findErr := findMessage(transaction, id)
		if findErr != nil {
			return findErr
		}
		if deleteErr := transaction.Delete(&message).Error; deleteErr != nil {
			return storageError("delete message", deleteErr)
		}
		return nil
	})
	if transactionErr != nil {
		return classify("delete message", transactionErr)
	}
	return nil
}

func findMessage(database *gorm.DB, id uint) (model.Message, error) {
	var message model.Message
	findErr := database.First(&message, "id = ?", id).Error
	if findErr == nil {
		return message, nil
	}
	if errors.Is(findErr, gorm.ErrRecordNotFound) {
		return model.Message{}, fmt.Errorf("%w: %d", ErrMessageNotFound, id)
	}
	return model.Message{}, storageError("find message", findErr)
}

func classify(operation string, err error) error {
	if errors.Is(err, ErrMessageNotFound) || errors.Is(err, ErrStorage) {
		return err
	}
	return storageError(operation, err)
}

func storageError(operation string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, operation, err)
}
