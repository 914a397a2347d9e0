package store

import (
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"savvynote/pkg/domain"
)

func (s *GormStore) CreateMessage(m domain.Message) error {
	model := MessageModel{
		ID:         m.ID,
		SenderID:   &m.SenderID,
		ReceiverID: &m.ReceiverID,
		Text:       m.Text,
		FileKeys:   datatypes.NewJSONSlice(m.FileKeys),
		FileTypes:  datatypes.NewJSONSlice(m.FileTypes),
		CreatedAt:  m.CreatedAt,
	}
	return s.db.Create(&model).Error
}

// ListConversation returns the two users' direct messages newest first, so
// page 1 is the most recent window.
func (s *GormStore) ListConversation(userID, otherID string, page Page) ([]domain.Message, int, error) {
	q := s.db.Model(&MessageModel{}).Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		userID, otherID, otherID, userID,
	)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []MessageModel
	if err := q.Order("created_at DESC").Offset(page.offset()).Limit(page.limit()).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	res := make([]domain.Message, 0, len(models))
	for _, m := range models {
		res = append(res, messageFromModel(m))
	}
	return res, int(total), nil
}

// ListActiveConversations returns one preview per counterpart the user has
// exchanged messages with, most recent conversation first. Search filters by
// counterpart username.
func (s *GormStore) ListActiveConversations(userID, search string, page Page) ([]ConversationPreview, int, error) {
	var models []MessageModel
	err := s.db.
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	// Messages are newest first, so the first one seen per counterpart is
	// that conversation's latest.
	seen := make(map[string]bool)
	var previews []ConversationPreview
	for _, m := range models {
		counterpartID := counterpart(m, userID)
		if counterpartID == "" || seen[counterpartID] {
			continue
		}
		seen[counterpartID] = true
		user, found, err := s.GetUserByID(counterpartID)
		if err != nil {
			return nil, 0, err
		}
		if !found {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(user.Username), strings.ToLower(search)) {
			continue
		}
		previews = append(previews, ConversationPreview{User: user, LastMessage: messageFromModel(m)})
	}

	total := len(previews)
	start := page.offset()
	if start > total {
		start = total
	}
	end := start + page.limit()
	if end > total {
		end = total
	}
	return previews[start:end], total, nil
}

// ListPotentialConversations returns musicians the requester has never
// messaged, followings first, excluding the requester and anyone who
// blocked them.
func (s *GormStore) ListPotentialConversations(userID string, page Page) ([]domain.User, int, error) {
	contacted := s.db.Model(&MessageModel{}).
		Select("CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END", userID).
		Where("sender_id = ? OR receiver_id = ?", userID, userID)
	blockedBy := s.db.Model(&BlockModel{}).Select("blocker_id").Where("blocked_id = ?", userID)

	q := s.db.Model(&UserModel{}).
		Where("role = ?", string(domain.RoleMusician)).
		Where("id <> ?", userID).
		Where("id NOT IN (?)", contacted).
		Where("id NOT IN (?)", blockedBy)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []UserModel
	err := q.
		Order(clause.Expr{
			SQL:  "CASE WHEN id IN (SELECT following_id FROM follow_models WHERE follower_id = ?) THEN 0 ELSE 1 END, username ASC",
			Vars: []any{userID},
		}).
		Offset(page.offset()).Limit(page.limit()).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, int(total), nil
}

func counterpart(m MessageModel, userID string) string {
	if m.SenderID != nil && *m.SenderID != userID {
		return *m.SenderID
	}
	if m.ReceiverID != nil && *m.ReceiverID != userID {
		return *m.ReceiverID
	}
	return ""
}

func messageFromModel(m MessageModel) domain.Message {
	msg := domain.Message{
		ID:        m.ID,
		Text:      m.Text,
		FileKeys:  []string(m.FileKeys),
		FileTypes: []string(m.FileTypes),
		CreatedAt: m.CreatedAt,
	}
	if m.SenderID != nil {
		msg.SenderID = *m.SenderID
	}
	if m.ReceiverID != nil {
		msg.ReceiverID = *m.ReceiverID
	}
	return msg
}
