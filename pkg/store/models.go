package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null;size:30"`
	Email        string `gorm:"uniqueIndex;not null"`
	Phone        *string `gorm:"uniqueIndex;size:14"`
	FirstName    string
	LastName     string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null"`
	Rating       float64
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type MusicianModel struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"uniqueIndex;not null"`
	StageName   string
	YearsPlayed int
	HomeStudio  bool
	User        UserModel `gorm:"constraint:OnDelete:CASCADE"`
}

type BusinessModel struct {
	ID           string `gorm:"primaryKey"`
	UserID       string `gorm:"uniqueIndex;not null"`
	BusinessName string `gorm:"not null"`
	Industry     string
	User         UserModel `gorm:"constraint:OnDelete:CASCADE"`
}

type InstrumentModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"column:instrument;not null"`
	ClassName string
}

type GenreModel struct {
	ID   string `gorm:"primaryKey"`
	Name string `gorm:"column:genre;not null"`
}

// MusicianInstrumentModel is an explicit join table because the association
// carries years_played.
type MusicianInstrumentModel struct {
	MusicianID   string `gorm:"primaryKey"`
	InstrumentID string `gorm:"primaryKey"`
	YearsPlayed  int    `gorm:"not null"`
	Musician     MusicianModel   `gorm:"constraint:OnDelete:CASCADE"`
	Instrument   InstrumentModel `gorm:"constraint:OnDelete:CASCADE"`
}

type MusicianGenreModel struct {
	MusicianID string `gorm:"primaryKey"`
	GenreID    string `gorm:"primaryKey"`
	Musician   MusicianModel `gorm:"constraint:OnDelete:CASCADE"`
	Genre      GenreModel    `gorm:"constraint:OnDelete:CASCADE"`
}

// FollowModel rejects self-follow at the database as well as the app layer.
type FollowModel struct {
	ID          string `gorm:"primaryKey"`
	FollowerID  string `gorm:"uniqueIndex:idx_follow_pair;not null;check:chk_no_self_follow,follower_id <> following_id"`
	FollowingID string `gorm:"uniqueIndex:idx_follow_pair;not null"`
	CreatedAt   time.Time `gorm:"not null"`
	Follower    UserModel `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Following   UserModel `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE"`
}

type BlockModel struct {
	ID        string `gorm:"primaryKey"`
	BlockerID string `gorm:"uniqueIndex:idx_block_pair;not null;check:chk_no_self_block,blocker_id <> blocked_id"`
	BlockedID string `gorm:"uniqueIndex:idx_block_pair;not null"`
	CreatedAt time.Time `gorm:"not null"`
	Blocker   UserModel `gorm:"foreignKey:BlockerID;constraint:OnDelete:CASCADE"`
	Blocked   UserModel `gorm:"foreignKey:BlockedID;constraint:OnDelete:CASCADE"`
}

type PostModel struct {
	ID        string                      `gorm:"primaryKey"`
	OwnerID   string                      `gorm:"not null;index"`
	FileKeys  datatypes.JSONSlice[string] `gorm:"not null"`
	FileTypes datatypes.JSONSlice[string] `gorm:"not null"`
	Caption   string                      `gorm:"size:500"`
	IsBanned  bool                        `gorm:"not null;default:false;index"`
	CreatedAt time.Time                   `gorm:"not null;index"`
	Owner     UserModel                   `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

type TaggedUserModel struct {
	ID         string `gorm:"primaryKey"`
	PostID     string `gorm:"uniqueIndex:idx_tag_pair;not null"`
	UserID     string `gorm:"uniqueIndex:idx_tag_pair;not null"`
	ImageIndex *int
	CreatedAt  time.Time `gorm:"not null"`
	Post       PostModel `gorm:"constraint:OnDelete:CASCADE"`
	User       UserModel `gorm:"constraint:OnDelete:CASCADE"`
}

// PostBanAdminModel records which admins banned a post. A post is banned
// exactly when it has at least one row here.
type PostBanAdminModel struct {
	PostID  string    `gorm:"primaryKey"`
	AdminID string    `gorm:"primaryKey"`
	Post    PostModel `gorm:"constraint:OnDelete:CASCADE"`
	Admin   UserModel `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE"`
}

type LikeModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"uniqueIndex:idx_like_pair;not null"`
	PostID    string    `gorm:"uniqueIndex:idx_like_pair;not null"`
	CreatedAt time.Time `gorm:"not null"`
	User      UserModel `gorm:"constraint:OnDelete:CASCADE"`
	Post      PostModel `gorm:"constraint:OnDelete:CASCADE"`
}

type CommentModel struct {
	ID        string  `gorm:"primaryKey"`
	UserID    string  `gorm:"not null"`
	PostID    string  `gorm:"not null;index"`
	Text      string  `gorm:"size:500"`
	ReplyToID *string `gorm:"index"`
	CreatedAt time.Time `gorm:"not null"`
	User      UserModel `gorm:"constraint:OnDelete:CASCADE"`
	Post      PostModel `gorm:"constraint:OnDelete:CASCADE"`
}

type CommentLikeModel struct {
	ID        string       `gorm:"primaryKey"`
	UserID    string       `gorm:"uniqueIndex:idx_comment_like_pair;not null"`
	CommentID string       `gorm:"uniqueIndex:idx_comment_like_pair;not null"`
	CreatedAt time.Time    `gorm:"not null"`
	User      UserModel    `gorm:"constraint:OnDelete:CASCADE"`
	Comment   CommentModel `gorm:"constraint:OnDelete:CASCADE"`
}

type HiddenPostModel struct {
	UserID    string    `gorm:"primaryKey"`
	PostID    string    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	User      UserModel `gorm:"constraint:OnDelete:CASCADE"`
	Post      PostModel `gorm:"constraint:OnDelete:CASCADE"`
}

type ReportModel struct {
	ID           string    `gorm:"primaryKey"`
	UserID       string    `gorm:"uniqueIndex:idx_report_pair;not null"`
	PostID       string    `gorm:"uniqueIndex:idx_report_pair;not null"`
	ReportReason string    `gorm:"size:500"`
	Status       string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	User         UserModel `gorm:"constraint:OnDelete:CASCADE"`
	Post         PostModel `gorm:"constraint:OnDelete:CASCADE"`
}

// MessageModel keeps sender/receiver nullable so message history survives
// account deletion.
type MessageModel struct {
	ID         string  `gorm:"primaryKey"`
	SenderID   *string `gorm:"index:idx_msg_pair"`
	ReceiverID *string `gorm:"index:idx_msg_pair"`
	Text       string  `gorm:"size:500"`
	FileKeys   datatypes.JSONSlice[string]
	FileTypes  datatypes.JSONSlice[string]
	CreatedAt  time.Time `gorm:"not null;index"`
	Sender     *UserModel `gorm:"foreignKey:SenderID;constraint:OnDelete:SET NULL"`
	Receiver   *UserModel `gorm:"foreignKey:ReceiverID;constraint:OnDelete:SET NULL"`
}

type JobListingModel struct {
	ID               string `gorm:"primaryKey"`
	BusinessID       string `gorm:"not null;index"`
	EventTitle       string `gorm:"not null"`
	Venue            string `gorm:"not null"`
	GigType          string `gorm:"not null;size:10"`
	EventDescription string
	PaymentType      string `gorm:"size:15"`
	PaymentAmount    float64
	StartDate        string
	EndDate          string
	StartTime        string
	EndTime          string
	RecurringPattern string `gorm:"size:20"`
	ExperienceLevel  string `gorm:"size:50"`
	CreatedAt        time.Time     `gorm:"not null"`
	Business         BusinessModel `gorm:"constraint:OnDelete:CASCADE"`
}

type ListingInstrumentModel struct {
	JobListingID string          `gorm:"primaryKey"`
	InstrumentID string          `gorm:"primaryKey"`
	JobListing   JobListingModel `gorm:"constraint:OnDelete:CASCADE"`
	Instrument   InstrumentModel `gorm:"constraint:OnDelete:CASCADE"`
}

type ListingGenreModel struct {
	JobListingID string          `gorm:"primaryKey"`
	GenreID      string          `gorm:"primaryKey"`
	JobListing   JobListingModel `gorm:"constraint:OnDelete:CASCADE"`
	Genre        GenreModel      `gorm:"constraint:OnDelete:CASCADE"`
}

type JobApplicationModel struct {
	ID           string  `gorm:"primaryKey"`
	ApplicantID  string  `gorm:"not null;index"`
	JobListingID string  `gorm:"not null;index"`
	FirstName    string  `gorm:"size:35"`
	LastName     string  `gorm:"size:50"`
	Phone        *string `gorm:"uniqueIndex;size:14"`
	AltEmail     string
	FileKeys     datatypes.JSONSlice[string]
	Status       string          `gorm:"not null;size:20"`
	CreatedAt    time.Time       `gorm:"not null"`
	Applicant    UserModel       `gorm:"foreignKey:ApplicantID;constraint:OnDelete:CASCADE"`
	JobListing   JobListingModel `gorm:"constraint:OnDelete:CASCADE"`
}

type ExperienceModel struct {
	ID               string `gorm:"primaryKey"`
	JobApplicationID string `gorm:"not null;index"`
	JobTitle         string `gorm:"size:75"`
	CompanyName      string `gorm:"size:75"`
	StartDate        string `gorm:"not null"`
	EndDate          string `gorm:"not null"`
	Description      string
	JobApplication   JobApplicationModel `gorm:"constraint:OnDelete:CASCADE"`
}

// SubscriptionModel is keyed uniquely by checkout session so webhook
// redelivery cannot create duplicates.
type SubscriptionModel struct {
	ID                   string `gorm:"primaryKey"`
	BusinessID           string `gorm:"uniqueIndex;not null"`
	StripeCustomerID     string `gorm:"not null"`
	StripeSubscriptionID string `gorm:"not null"`
	CheckoutSessionID    string `gorm:"uniqueIndex;not null"`
	Plan                 string `gorm:"not null;size:20"`
	CreatedAt            time.Time     `gorm:"not null"`
	Business             BusinessModel `gorm:"constraint:OnDelete:CASCADE"`
}
