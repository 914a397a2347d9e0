package app

import (
	"context"
	"fmt"
	"strings"

	"savvynote/internal/util"
	"savvynote/pkg/domain"
	"savvynote/pkg/store"
)

const maxMessageLen = 500

// MessageView decorates a message with presigned attachment URLs.
type MessageView struct {
	domain.Message
	FileURLs []string `json:"file_urls,omitempty"`
}

// SendMessage stores a direct message with optional attachments. Recipients
// who blocked the sender cannot be messaged.
func (a *App) SendMessage(ctx context.Context, senderID, receiverID, text string, files []UploadFile) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(files) == 0 {
		return domain.Message{}, ErrMessageRequired
	}
	if len(text) > maxMessageLen {
		return domain.Message{}, ErrMessageTooLong
	}
	if _, found, err := a.store.GetUserByID(receiverID); err != nil {
		return domain.Message{}, fmt.Errorf("fetch receiver: %w", err)
	} else if !found {
		return domain.Message{}, notFound("Other user not found")
	}
	blocked, err := a.store.IsBlocked(receiverID, senderID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("check block: %w", err)
	}
	if blocked {
		return domain.Message{}, forbidden(ErrBlockedByUser.Error())
	}
	keys, types, err := a.uploadAll(ctx, senderID, files)
	if err != nil {
		return domain.Message{}, err
	}
	msg := domain.Message{
		ID:         util.NewID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		FileKeys:   keys,
		FileTypes:  types,
		CreatedAt:  a.now().UTC(),
	}
	if err := a.store.CreateMessage(msg); err != nil {
		return domain.Message{}, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// Conversation returns the two-way message history between userID and
// otherID, newest first.
func (a *App) Conversation(ctx context.Context, userID, otherID string, page store.Page) ([]MessageView, int, error) {
	if _, found, err := a.store.GetUserByID(otherID); err != nil {
		return nil, 0, fmt.Errorf("fetch user: %w", err)
	} else if !found {
		return nil, 0, notFound("Other user not found")
	}
	messages, total, err := a.store.ListConversation(userID, otherID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list conversation: %w", err)
	}
	views := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		urls, err := a.presignAll(ctx, msg.FileKeys)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, MessageView{Message: msg, FileURLs: urls})
	}
	return views, total, nil
}

// ActiveConversations returns the user's existing conversation partners with
// the latest message per partner, optionally filtered by username search.
func (a *App) ActiveConversations(userID, search string, page store.Page) ([]store.ConversationPreview, int, error) {
	return a.store.ListActiveConversations(userID, strings.TrimSpace(search), page)
}

// PotentialConversations returns musicians the user has never messaged,
// excluding anyone who blocked them and ranking followed musicians first.
func (a *App) PotentialConversations(userID string, page store.Page) ([]domain.User, int, error) {
	return a.store.ListPotentialConversations(userID, page)
}
