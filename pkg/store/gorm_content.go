package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"savvynote/pkg/domain"
)

// CreatePost inserts the post plus its tagged-user rows atomically.
func (s *GormStore) CreatePost(p domain.Post) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		model := PostModel{
			ID:        p.ID,
			OwnerID:   p.OwnerID,
			FileKeys:  datatypes.NewJSONSlice(p.FileKeys),
			FileTypes: datatypes.NewJSONSlice(p.FileTypes),
			Caption:   p.Caption,
			CreatedAt: p.CreatedAt,
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		for _, tag := range p.TaggedUsers {
			row := TaggedUserModel{
				ID:         uuid.NewString(),
				PostID:     p.ID,
				UserID:     tag.UserID,
				ImageIndex: tag.ImageIndex,
				CreatedAt:  p.CreatedAt,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) GetPost(id string) (domain.Post, bool, error) {
	var model PostModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Post{}, false, nil
		}
		return domain.Post{}, false, err
	}
	post, err := s.postFromModel(model)
	if err != nil {
		return domain.Post{}, false, err
	}
	return post, true, nil
}

func (s *GormStore) DeletePost(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{
			&TaggedUserModel{}, &PostBanAdminModel{}, &LikeModel{},
			&HiddenPostModel{}, &ReportModel{},
		} {
			if err := tx.Delete(child, "post_id = ?", id).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&CommentModel{}, "post_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&PostModel{}, "id = ?", id).Error
	})
}

// ListPostsByOwner returns one owner's posts newest first, excluding banned.
func (s *GormStore) ListPostsByOwner(ownerID string, page Page) ([]domain.Post, int, error) {
	q := s.db.Model(&PostModel{}).Where("owner_id = ? AND is_banned = false", ownerID)
	return s.listPosts(q, page)
}

// ListFeed excludes the viewer's own posts, posts they hid or reported, and
// globally banned posts; newest first.
func (s *GormStore) ListFeed(viewerID string, page Page) ([]domain.Post, int, error) {
	q := s.db.Model(&PostModel{}).
		Where("is_banned = false").
		Where("owner_id <> ?", viewerID).
		Where("id NOT IN (?)", s.db.Model(&HiddenPostModel{}).Select("post_id").Where("user_id = ?", viewerID)).
		Where("id NOT IN (?)", s.db.Model(&ReportModel{}).Select("post_id").Where("user_id = ?", viewerID))
	return s.listPosts(q, page)
}

func (s *GormStore) ListBannedPosts(page Page) ([]domain.Post, int, error) {
	q := s.db.Model(&PostModel{}).Where("is_banned = true")
	return s.listPosts(q, page)
}

func (s *GormStore) listPosts(q *gorm.DB, page Page) ([]domain.Post, int, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []PostModel
	if err := q.Order("created_at DESC").Offset(page.offset()).Limit(page.limit()).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	res := make([]domain.Post, 0, len(models))
	for _, m := range models {
		post, err := s.postFromModel(m)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, post)
	}
	return res, int(total), nil
}

func (s *GormStore) ListReports(page Page) ([]domain.Report, int, error) {
	q := s.db.Model(&ReportModel{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []ReportModel
	if err := q.Order("created_at DESC").Offset(page.offset()).Limit(page.limit()).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	res := make([]domain.Report, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Report{
			ID:           m.ID,
			UserID:       m.UserID,
			PostID:       m.PostID,
			ReportReason: m.ReportReason,
			Status:       domain.ReportStatus(m.Status),
			CreatedAt:    m.CreatedAt,
		})
	}
	return res, int(total), nil
}

func (s *GormStore) LikePost(userID, postID string) (bool, error) {
	model := LikeModel{
		ID:        uuid.NewString(),
		UserID:    userID,
		PostID:    postID,
		CreatedAt: time.Now().UTC(),
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoNothing: true,
	}).Create(&model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) UnlikePost(userID, postID string) (bool, error) {
	res := s.db.Delete(&LikeModel{}, "user_id = ? AND post_id = ?", userID, postID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) PostLikeCount(postID string) (int, error) {
	var count int64
	err := s.db.Model(&LikeModel{}).Where("post_id = ?", postID).Count(&count).Error
	return int(count), err
}

func (s *GormStore) HidePost(userID, postID string) (bool, error) {
	model := HiddenPostModel{UserID: userID, PostID: postID, CreatedAt: time.Now().UTC()}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) UnhidePost(userID, postID string) (bool, error) {
	res := s.db.Delete(&HiddenPostModel{}, "user_id = ? AND post_id = ?", userID, postID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) CreateReport(r domain.Report) (bool, error) {
	model := ReportModel{
		ID:           r.ID,
		UserID:       r.UserID,
		PostID:       r.PostID,
		ReportReason: r.ReportReason,
		Status:       string(r.Status),
		CreatedAt:    r.CreatedAt,
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoNothing: true,
	}).Create(&model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// BanPost flips the flag and records the admin in one transaction so the
// banned <=> has-admins invariant holds at every commit point.
func (s *GormStore) BanPost(postID, adminID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		admin := PostBanAdminModel{PostID: postID, AdminID: adminID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&admin).Error; err != nil {
			return err
		}
		return tx.Model(&PostModel{}).Where("id = ?", postID).Update("is_banned", true).Error
	})
}

func (s *GormStore) UnbanPost(postID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&PostBanAdminModel{}, "post_id = ?", postID).Error; err != nil {
			return err
		}
		return tx.Model(&PostModel{}).Where("id = ?", postID).Update("is_banned", false).Error
	})
}

func (s *GormStore) CreateComment(c domain.Comment) error {
	var replyTo *string
	if c.ReplyTo != "" {
		v := c.ReplyTo
		replyTo = &v
	}
	model := CommentModel{
		ID:        c.ID,
		UserID:    c.UserID,
		PostID:    c.PostID,
		Text:      c.Text,
		ReplyToID: replyTo,
		CreatedAt: c.CreatedAt,
	}
	return s.db.Create(&model).Error
}

func (s *GormStore) GetComment(id string) (domain.Comment, bool, error) {
	var model CommentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Comment{}, false, nil
		}
		return domain.Comment{}, false, err
	}
	comment, err := s.commentFromModel(model)
	if err != nil {
		return domain.Comment{}, false, err
	}
	return comment, true, nil
}

func (s *GormStore) ListComments(postID string, page Page) ([]domain.Comment, int, error) {
	q := s.db.Model(&CommentModel{}).Where("post_id = ?", postID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []CommentModel
	if err := q.Order("created_at ASC").Offset(page.offset()).Limit(page.limit()).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	res := make([]domain.Comment, 0, len(models))
	for _, m := range models {
		comment, err := s.commentFromModel(m)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, comment)
	}
	return res, int(total), nil
}

func (s *GormStore) LikeComment(userID, commentID string) (bool, error) {
	model := CommentLikeModel{
		ID:        uuid.NewString(),
		UserID:    userID,
		CommentID: commentID,
		CreatedAt: time.Now().UTC(),
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "comment_id"}},
		DoNothing: true,
	}).Create(&model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) postFromModel(m PostModel) (domain.Post, error) {
	post := domain.Post{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		FileKeys:  []string(m.FileKeys),
		FileTypes: []string(m.FileTypes),
		Caption:   m.Caption,
		IsBanned:  m.IsBanned,
		CreatedAt: m.CreatedAt,
	}
	var tags []TaggedUserModel
	if err := s.db.Where("post_id = ?", m.ID).Find(&tags).Error; err != nil {
		return domain.Post{}, err
	}
	for _, tag := range tags {
		post.TaggedUsers = append(post.TaggedUsers, domain.TaggedUser{
			UserID:     tag.UserID,
			ImageIndex: tag.ImageIndex,
		})
	}
	var admins []PostBanAdminModel
	if err := s.db.Where("post_id = ?", m.ID).Find(&admins).Error; err != nil {
		return domain.Post{}, err
	}
	for _, admin := range admins {
		post.BanAdminIDs = append(post.BanAdminIDs, admin.AdminID)
	}
	return post, nil
}

func (s *GormStore) commentFromModel(m CommentModel) (domain.Comment, error) {
	replyTo := ""
	if m.ReplyToID != nil {
		replyTo = *m.ReplyToID
	}
	var likeCount int64
	if err := s.db.Model(&CommentLikeModel{}).Where("comment_id = ?", m.ID).Count(&likeCount).Error; err != nil {
		return domain.Comment{}, err
	}
	return domain.Comment{
		ID:        m.ID,
		UserID:    m.UserID,
		PostID:    m.PostID,
		Text:      m.Text,
		ReplyTo:   replyTo,
		LikeCount: int(likeCount),
		CreatedAt: m.CreatedAt,
	}, nil
}
