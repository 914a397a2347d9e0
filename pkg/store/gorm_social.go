package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"savvynote/pkg/domain"
)

// CreateFollow inserts the edge and reports whether it was new.
func (s *GormStore) CreateFollow(followerID, followingID string) (bool, error) {
	model := FollowModel{
		ID:          uuid.NewString(),
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   time.Now().UTC(),
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
		DoNothing: true,
	}).Create(&model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) DeleteFollow(followerID, followingID string) (bool, error) {
	res := s.db.Delete(&FollowModel{}, "follower_id = ? AND following_id = ?", followerID, followingID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) IsFollowing(followerID, followingID string) (bool, error) {
	var count int64
	err := s.db.Model(&FollowModel{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) FollowCounts(userID string) (int, int, error) {
	var followers, following int64
	if err := s.db.Model(&FollowModel{}).Where("following_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, err
	}
	if err := s.db.Model(&FollowModel{}).Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, err
	}
	return int(followers), int(following), nil
}

// ListFollowers returns users following userID, hiding anyone who has blocked
// the requester.
func (s *GormStore) ListFollowers(userID, requesterID string, page Page) ([]domain.User, int, error) {
	sub := s.db.Model(&FollowModel{}).Select("follower_id").Where("following_id = ?", userID)
	return s.listUsersIn(sub, requesterID, page)
}

// ListFollowing returns users userID follows, hiding anyone who has blocked
// the requester.
func (s *GormStore) ListFollowing(userID, requesterID string, page Page) ([]domain.User, int, error) {
	sub := s.db.Model(&FollowModel{}).Select("following_id").Where("follower_id = ?", userID)
	return s.listUsersIn(sub, requesterID, page)
}

func (s *GormStore) listUsersIn(idQuery *gorm.DB, requesterID string, page Page) ([]domain.User, int, error) {
	q := s.db.Model(&UserModel{}).Where("id IN (?)", idQuery)
	if requesterID != "" {
		q = q.Where("id NOT IN (?)",
			s.db.Model(&BlockModel{}).Select("blocker_id").Where("blocked_id = ?", requesterID))
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []UserModel
	if err := q.Order("username ASC").Offset(page.offset()).Limit(page.limit()).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, int(total), nil
}

func (s *GormStore) CreateBlock(blockerID, blockedID string) (bool, error) {
	model := BlockModel{
		ID:        uuid.NewString(),
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: time.Now().UTC(),
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
		DoNothing: true,
	}).Create(&model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) DeleteBlock(blockerID, blockedID string) (bool, error) {
	res := s.db.Delete(&BlockModel{}, "blocker_id = ? AND blocked_id = ?", blockerID, blockedID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) IsBlocked(blockerID, blockedID string) (bool, error) {
	var count int64
	err := s.db.Model(&BlockModel{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) ListBlocked(userID string, page Page) ([]domain.User, int, error) {
	sub := s.db.Model(&BlockModel{}).Select("blocked_id").Where("blocker_id = ?", userID)
	return s.listUsersIn(sub, "", page)
}
