package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"savvynote/pkg/domain"
)

const migrateLockID int64 = 52779344

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock
// so concurrent replicas do not race the schema.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&UserModel{},
			&MusicianModel{},
			&BusinessModel{},
			&InstrumentModel{},
			&GenreModel{},
			&MusicianInstrumentModel{},
			&MusicianGenreModel{},
			&FollowModel{},
			&BlockModel{},
			&PostModel{},
			&TaggedUserModel{},
			&PostBanAdminModel{},
			&LikeModel{},
			&CommentModel{},
			&CommentLikeModel{},
			&HiddenPostModel{},
			&ReportModel{},
			&MessageModel{},
			&JobListingModel{},
			&ListingInstrumentModel{},
			&ListingGenreModel{},
			&JobApplicationModel{},
			&ExperienceModel{},
			&SubscriptionModel{},
		)
	}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)"); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)")
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string) error {
	_, err := conn.ExecContext(ctx, query, migrateLockID)
	return err
}

// CreateUserWithProfile inserts the user plus its role profile atomically, so
// a failed join-row insert never leaves an orphaned user behind.
func (s *GormStore) CreateUserWithProfile(user domain.User, musician *domain.Musician, business *domain.Business) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		model := userToModel(user)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if musician != nil {
			m := MusicianModel{
				ID:          musician.ID,
				UserID:      user.ID,
				StageName:   musician.StageName,
				YearsPlayed: musician.YearsPlayed,
				HomeStudio:  musician.HomeStudio,
			}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
			for _, inst := range musician.Instruments {
				join := MusicianInstrumentModel{
					MusicianID:   musician.ID,
					InstrumentID: inst.InstrumentID,
					YearsPlayed:  inst.YearsPlayed,
				}
				if err := tx.Create(&join).Error; err != nil {
					return err
				}
			}
			for _, genreID := range musician.GenreIDs {
				join := MusicianGenreModel{MusicianID: musician.ID, GenreID: genreID}
				if err := tx.Create(&join).Error; err != nil {
					return err
				}
			}
		}
		if business != nil {
			b := BusinessModel{
				ID:           business.ID,
				UserID:       user.ID,
				BusinessName: business.BusinessName,
				Industry:     business.Industry,
			}
			if err := tx.Create(&b).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "email", "phone", "first_name", "last_name", "password_hash", "rating", "updated_at"}),
	}).Create(&model).Error
}

func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("username = ?", username).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

func (s *GormStore) HasUsername(username, excludeUserID string) (bool, error) {
	return s.userFieldTaken("username = ?", username, excludeUserID)
}

func (s *GormStore) HasEmail(email, excludeUserID string) (bool, error) {
	return s.userFieldTaken("email = ?", email, excludeUserID)
}

func (s *GormStore) HasPhone(phone, excludeUserID string) (bool, error) {
	return s.userFieldTaken("phone = ?", phone, excludeUserID)
}

func (s *GormStore) userFieldTaken(cond, value, excludeUserID string) (bool, error) {
	var count int64
	q := s.db.Model(&UserModel{}).Where(cond, value)
	if excludeUserID != "" {
		q = q.Where("id <> ?", excludeUserID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// GetMusicianByUserID loads the musician profile plus its associations.
func (s *GormStore) GetMusicianByUserID(userID string) (domain.Musician, bool, error) {
	var model MusicianModel
	if err := s.db.Where("user_id = ?", userID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Musician{}, false, nil
		}
		return domain.Musician{}, false, err
	}
	musician := domain.Musician{
		ID:          model.ID,
		UserID:      model.UserID,
		StageName:   model.StageName,
		YearsPlayed: model.YearsPlayed,
		HomeStudio:  model.HomeStudio,
	}
	var joins []MusicianInstrumentModel
	if err := s.db.Where("musician_id = ?", model.ID).Find(&joins).Error; err != nil {
		return domain.Musician{}, false, err
	}
	for _, j := range joins {
		musician.Instruments = append(musician.Instruments, domain.MusicianInstrument{
			InstrumentID: j.InstrumentID,
			YearsPlayed:  j.YearsPlayed,
		})
	}
	var genreJoins []MusicianGenreModel
	if err := s.db.Where("musician_id = ?", model.ID).Find(&genreJoins).Error; err != nil {
		return domain.Musician{}, false, err
	}
	for _, j := range genreJoins {
		musician.GenreIDs = append(musician.GenreIDs, j.GenreID)
	}
	return musician, true, nil
}

func (s *GormStore) SaveMusician(m domain.Musician) error {
	model := MusicianModel{
		ID:          m.ID,
		UserID:      m.UserID,
		StageName:   m.StageName,
		YearsPlayed: m.YearsPlayed,
		HomeStudio:  m.HomeStudio,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"stage_name", "years_played", "home_studio"}),
	}).Create(&model).Error
}

// ReplaceMusicianAssociations swaps the instrument/genre sets inside one
// transaction so readers never observe the cleared intermediate state.
func (s *GormStore) ReplaceMusicianAssociations(musicianID string, instruments []domain.MusicianInstrument, genreIDs []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&MusicianInstrumentModel{}, "musician_id = ?", musicianID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&MusicianGenreModel{}, "musician_id = ?", musicianID).Error; err != nil {
			return err
		}
		for _, inst := range instruments {
			join := MusicianInstrumentModel{
				MusicianID:   musicianID,
				InstrumentID: inst.InstrumentID,
				YearsPlayed:  inst.YearsPlayed,
			}
			if err := tx.Create(&join).Error; err != nil {
				return err
			}
		}
		for _, genreID := range genreIDs {
			join := MusicianGenreModel{MusicianID: musicianID, GenreID: genreID}
			if err := tx.Create(&join).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) GetBusinessByUserID(userID string) (domain.Business, bool, error) {
	var model BusinessModel
	if err := s.db.Where("user_id = ?", userID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Business{}, false, nil
		}
		return domain.Business{}, false, err
	}
	return domain.Business{
		ID:           model.ID,
		UserID:       model.UserID,
		BusinessName: model.BusinessName,
		Industry:     model.Industry,
	}, true, nil
}

func (s *GormStore) SaveBusiness(b domain.Business) error {
	model := BusinessModel{
		ID:           b.ID,
		UserID:       b.UserID,
		BusinessName: b.BusinessName,
		Industry:     b.Industry,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"business_name", "industry"}),
	}).Create(&model).Error
}

func (s *GormStore) ListMusicians() ([]domain.Musician, error) {
	var models []MusicianModel
	if err := s.db.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Musician, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Musician{
			ID:          m.ID,
			UserID:      m.UserID,
			StageName:   m.StageName,
			YearsPlayed: m.YearsPlayed,
			HomeStudio:  m.HomeStudio,
		})
	}
	return res, nil
}

func (s *GormStore) ListBusinesses() ([]domain.Business, error) {
	var models []BusinessModel
	if err := s.db.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Business, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Business{
			ID:           m.ID,
			UserID:       m.UserID,
			BusinessName: m.BusinessName,
			Industry:     m.Industry,
		})
	}
	return res, nil
}

// SearchMusicians runs the discovery query: username icontains plus optional
// instrument/genre name filters, excluding musicians who blocked the viewer
// and ranking the viewer's followings first.
func (s *GormStore) SearchMusicians(filter MusicianFilter, page Page) ([]domain.User, int, error) {
	q := s.db.Model(&UserModel{}).Where("user_models.role = ?", string(domain.RoleMusician))

	if filter.Search != "" {
		q = q.Where("user_models.username ILIKE ?", "%"+filter.Search+"%")
	}
	if len(filter.Instruments) > 0 || len(filter.Genres) > 0 {
		sub := s.db.Model(&MusicianModel{}).Select("musician_models.user_id")
		cond := s.db
		if len(filter.Instruments) > 0 {
			cond = cond.Or("musician_models.id IN (?)",
				s.db.Model(&MusicianInstrumentModel{}).
					Select("musician_instrument_models.musician_id").
					Joins("JOIN instrument_models ON instrument_models.id = musician_instrument_models.instrument_id").
					Where("instrument_models.instrument IN ?", filter.Instruments))
		}
		if len(filter.Genres) > 0 {
			cond = cond.Or("musician_models.id IN (?)",
				s.db.Model(&MusicianGenreModel{}).
					Select("musician_genre_models.musician_id").
					Joins("JOIN genre_models ON genre_models.id = musician_genre_models.genre_id").
					Where("genre_models.genre IN ?", filter.Genres))
		}
		q = q.Where("user_models.id IN (?)", sub.Where(cond))
	}
	if filter.ViewerID != "" {
		q = q.Where("user_models.id NOT IN (?)",
			s.db.Model(&BlockModel{}).Select("blocker_id").Where("blocked_id = ?", filter.ViewerID))
		q = q.Where("user_models.id <> ?", filter.ViewerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.ViewerID != "" {
		q = q.Order(clause.Expr{
			SQL: "CASE WHEN user_models.id IN (SELECT following_id FROM follow_models WHERE follower_id = ?) THEN 0 ELSE 1 END",
			Vars: []any{filter.ViewerID},
		})
	}
	var models []UserModel
	if err := q.Order("user_models.created_at ASC").
		Offset(page.offset()).Limit(page.limit()).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, int(total), nil
}

func (s *GormStore) CreateInstrument(i domain.Instrument) error {
	model := InstrumentModel{ID: i.ID, Name: i.Name, ClassName: i.ClassName}
	return s.db.Create(&model).Error
}

func (s *GormStore) GetInstrument(id string) (domain.Instrument, bool, error) {
	var model InstrumentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Instrument{}, false, nil
		}
		return domain.Instrument{}, false, err
	}
	return domain.Instrument{ID: model.ID, Name: model.Name, ClassName: model.ClassName}, true, nil
}

func (s *GormStore) ListInstruments() ([]domain.Instrument, error) {
	var models []InstrumentModel
	if err := s.db.Order("instrument ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Instrument, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Instrument{ID: m.ID, Name: m.Name, ClassName: m.ClassName})
	}
	return res, nil
}

func (s *GormStore) CreateGenre(g domain.Genre) error {
	model := GenreModel{ID: g.ID, Name: g.Name}
	return s.db.Create(&model).Error
}

func (s *GormStore) GetGenre(id string) (domain.Genre, bool, error) {
	var model GenreModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Genre{}, false, nil
		}
		return domain.Genre{}, false, err
	}
	return domain.Genre{ID: model.ID, Name: model.Name}, true, nil
}

func (s *GormStore) ListGenres() ([]domain.Genre, error) {
	var models []GenreModel
	if err := s.db.Order("genre ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Genre, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Genre{ID: m.ID, Name: m.Name})
	}
	return res, nil
}

func userToModel(u domain.User) UserModel {
	var phone *string
	if u.Phone != "" {
		p := u.Phone
		phone = &p
	}
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Phone:        phone,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Rating:       u.Rating,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	phone := ""
	if m.Phone != nil {
		phone = *m.Phone
	}
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		Phone:        phone,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		Rating:       m.Rating,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
