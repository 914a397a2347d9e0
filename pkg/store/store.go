package store

import (
	"time"

	"savvynote/pkg/domain"
)

// Page bounds a list query. Numbering starts at 1.
type Page struct {
	Number int
	Size   int
}

func (p Page) offset() int {
	n := p.Number
	if n < 1 {
		n = 1
	}
	return (n - 1) * p.limit()
}

func (p Page) limit() int {
	if p.Size <= 0 {
		return 5
	}
	return p.Size
}

// ConversationPreview pairs a counterpart with the latest message exchanged.
type ConversationPreview struct {
	User        domain.User    `json:"user"`
	LastMessage domain.Message `json:"last_message"`
}

// MusicianFilter narrows discovery queries. Instrument/genre names are OR'd
// within themselves and AND'd with the username search. ViewerID excludes
// musicians who blocked the viewer and ranks the viewer's followings first.
type MusicianFilter struct {
	Search      string
	Instruments []string
	Genres      []string
	ViewerID    string
}

// Store defines persistence for the whole relational data layer.
type Store interface {
	// identity
	CreateUserWithProfile(user domain.User, musician *domain.Musician, business *domain.Business) error
	SaveUser(domain.User) error
	GetUserByID(id string) (domain.User, bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	HasUsername(username, excludeUserID string) (bool, error)
	HasEmail(email, excludeUserID string) (bool, error)
	HasPhone(phone, excludeUserID string) (bool, error)
	ListUsers() ([]domain.User, error)

	// profiles
	GetMusicianByUserID(userID string) (domain.Musician, bool, error)
	SaveMusician(domain.Musician) error
	ReplaceMusicianAssociations(musicianID string, instruments []domain.MusicianInstrument, genreIDs []string) error
	GetBusinessByUserID(userID string) (domain.Business, bool, error)
	SaveBusiness(domain.Business) error
	ListMusicians() ([]domain.Musician, error)
	ListBusinesses() ([]domain.Business, error)
	SearchMusicians(filter MusicianFilter, page Page) ([]domain.User, int, error)

	// catalog
	CreateInstrument(domain.Instrument) error
	GetInstrument(id string) (domain.Instrument, bool, error)
	ListInstruments() ([]domain.Instrument, error)
	CreateGenre(domain.Genre) error
	GetGenre(id string) (domain.Genre, bool, error)
	ListGenres() ([]domain.Genre, error)

	// social graph
	CreateFollow(followerID, followingID string) (bool, error)
	DeleteFollow(followerID, followingID string) (bool, error)
	IsFollowing(followerID, followingID string) (bool, error)
	FollowCounts(userID string) (followers int, following int, err error)
	ListFollowers(userID, requesterID string, page Page) ([]domain.User, int, error)
	ListFollowing(userID, requesterID string, page Page) ([]domain.User, int, error)
	CreateBlock(blockerID, blockedID string) (bool, error)
	DeleteBlock(blockerID, blockedID string) (bool, error)
	IsBlocked(blockerID, blockedID string) (bool, error)
	ListBlocked(userID string, page Page) ([]domain.User, int, error)

	// content
	CreatePost(domain.Post) error
	GetPost(id string) (domain.Post, bool, error)
	DeletePost(id string) error
	ListPostsByOwner(ownerID string, page Page) ([]domain.Post, int, error)
	ListFeed(viewerID string, page Page) ([]domain.Post, int, error)
	ListBannedPosts(page Page) ([]domain.Post, int, error)
	ListReports(page Page) ([]domain.Report, int, error)
	LikePost(userID, postID string) (bool, error)
	UnlikePost(userID, postID string) (bool, error)
	PostLikeCount(postID string) (int, error)
	HidePost(userID, postID string) (bool, error)
	UnhidePost(userID, postID string) (bool, error)
	CreateReport(domain.Report) (bool, error)
	BanPost(postID, adminID string) error
	UnbanPost(postID string) error
	CreateComment(domain.Comment) error
	GetComment(id string) (domain.Comment, bool, error)
	ListComments(postID string, page Page) ([]domain.Comment, int, error)
	LikeComment(userID, commentID string) (bool, error)

	// messaging
	CreateMessage(domain.Message) error
	ListConversation(userID, otherID string, page Page) ([]domain.Message, int, error)
	ListActiveConversations(userID, search string, page Page) ([]ConversationPreview, int, error)
	ListPotentialConversations(userID string, page Page) ([]domain.User, int, error)

	// marketplace
	CreateListing(domain.JobListing) error
	GetListing(id string) (domain.JobListing, bool, error)
	ListListings(page Page) ([]domain.JobListing, int, error)
	CreateApplication(domain.JobApplication) error
	GetApplication(id string) (domain.JobApplication, bool, error)
	ListApplicationsByListing(listingID string, page Page) ([]domain.JobApplication, int, error)
	ListApplicationsByApplicant(userID string, page Page) ([]domain.JobApplication, int, error)
	SubmitExperiences(applicationID string, experiences []domain.Experience) error
	UpdateApplicationStatus(applicationID string, status domain.ApplicationStatus) error

	// subscriptions
	UpsertSubscription(domain.Subscription) (bool, error)
	GetSubscriptionByBusiness(businessID string) (domain.Subscription, bool, error)
}

// SessionStore issues and resolves access tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}

// RefreshTokenStore persists refresh tokens for rotation + replay detection.
type RefreshTokenStore interface {
	NewToken(userID string, ttl time.Duration) (string, error)
	RotateToken(token string, ttl time.Duration) (userID string, newToken string, err error)
	DeleteToken(token string) error
}

// UserSessionRevoker invalidates every session issued to a user before a cutoff.
type UserSessionRevoker interface {
	RevokeUserSessions(userID string, since time.Time) error
}

// UserRefreshTokenRevoker invalidates every refresh token family owned by a user.
type UserRefreshTokenRevoker interface {
	RevokeUserRefreshTokens(userID string) error
}
