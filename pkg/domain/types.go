package domain

import "time"

// UserRole discriminates which profile extension exists for a user.
type UserRole string

const (
	RoleMusician UserRole = "musician"
	RoleBusiness UserRole = "business"
)

// User is the identity record shared by musicians and businesses.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Rating       float64   `json:"rating"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

// Musician is the 1:1 profile extension for role=musician.
type Musician struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	StageName   string               `json:"stage_name"`
	YearsPlayed int                  `json:"years_played"`
	HomeStudio  bool                 `json:"home_studio"`
	Instruments []MusicianInstrument `json:"instruments,omitempty"`
	GenreIDs    []string             `json:"genre_ids,omitempty"`
}

// MusicianInstrument is the join entity carrying per-instrument experience.
type MusicianInstrument struct {
	InstrumentID string `json:"instrument_id"`
	YearsPlayed  int    `json:"years_played"`
}

// Business is the 1:1 profile extension for role=business.
type Business struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	BusinessName string `json:"business_name"`
	Industry     string `json:"industry,omitempty"`
}

// Instrument is a catalog entry musicians and listings reference.
type Instrument struct {
	ID        string `json:"id"`
	Name      string `json:"instrument"`
	ClassName string `json:"class_name,omitempty"`
}

// Genre is a catalog entry musicians and listings reference.
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"genre"`
}

// Follow is a directed follower edge between two users.
type Follow struct {
	ID          string    `json:"id"`
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Block is a directed block edge between two users.
type Block struct {
	ID        string    `json:"id"`
	BlockerID string    `json:"blocker_id"`
	BlockedID string    `json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Post holds uploaded media keys plus moderation state.
// Invariant: IsBanned is true exactly when BanAdminIDs is non-empty.
type Post struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	FileKeys    []string     `json:"file_keys"`
	FileTypes   []string     `json:"file_types"`
	Caption     string       `json:"caption"`
	TaggedUsers []TaggedUser `json:"tagged_users,omitempty"`
	IsBanned    bool         `json:"is_banned"`
	BanAdminIDs []string     `json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
}

// TaggedUser marks a user tagged on a post, optionally pinned to one image.
type TaggedUser struct {
	UserID     string `json:"user_id"`
	ImageIndex *int   `json:"image_index,omitempty"`
}

// Like is a unique (user, post) pair; comment likes reuse the same shape.
type Like struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id,omitempty"`
	CommentID string    `json:"comment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is threaded via ReplyTo.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id"`
	Text      string    `json:"text"`
	ReplyTo   string    `json:"reply_to,omitempty"`
	LikeCount int       `json:"like_count"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportStatus tracks the moderation lifecycle of a report.
type ReportStatus string

const (
	ReportStatusReported   ReportStatus = "Reported"
	ReportStatusInProgress ReportStatus = "In Progress"
	ReportStatusAddressed  ReportStatus = "Addressed"
)

// Report is a user's report against a post. One active report per pair.
type Report struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	PostID       string       `json:"post_id"`
	ReportReason string       `json:"report_reason"`
	Status       ReportStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Message is a direct message between two users with optional attachments.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Text       string    `json:"message"`
	FileKeys   []string  `json:"file_keys,omitempty"`
	FileTypes  []string  `json:"file_types,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// GigType enumerates listing engagement shapes.
type GigType string

const (
	GigOneTime   GigType = "oneTime"
	GigRecurring GigType = "recurring"
	GigLongTerm  GigType = "longTerm"
)

// PaymentType enumerates listing compensation models.
type PaymentType string

const (
	PaymentFixed  PaymentType = "Fixed amount"
	PaymentHourly PaymentType = "Hourly rate"
)

// JobListing is a gig posted by a business.
type JobListing struct {
	ID               string      `json:"id"`
	BusinessID       string      `json:"business_id"`
	EventTitle       string      `json:"event_title"`
	Venue            string      `json:"venue"`
	GigType          GigType     `json:"gig_type"`
	EventDescription string      `json:"event_description"`
	PaymentType      PaymentType `json:"payment_type"`
	PaymentAmount    float64     `json:"payment_amount"`
	StartDate        string      `json:"start_date,omitempty"`
	EndDate          string      `json:"end_date,omitempty"`
	StartTime        string      `json:"start_time,omitempty"`
	EndTime          string      `json:"end_time,omitempty"`
	RecurringPattern string      `json:"recurring_pattern,omitempty"`
	ExperienceLevel  string      `json:"experience_level,omitempty"`
	InstrumentIDs    []string    `json:"instrument_ids,omitempty"`
	GenreIDs         []string    `json:"genre_ids,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

// ApplicationStatus is the job-application state machine.
type ApplicationStatus string

const (
	ApplicationInProgress ApplicationStatus = "In-Progress"
	ApplicationSubmitted  ApplicationStatus = "Submitted"
	ApplicationRejected   ApplicationStatus = "Rejected"
	ApplicationAccepted   ApplicationStatus = "Accepted"
)

// CanTransition reports whether moving from s to next is a legal step:
// In-Progress -> Submitted -> {Accepted, Rejected}.
func (s ApplicationStatus) CanTransition(next ApplicationStatus) bool {
	switch s {
	case ApplicationInProgress:
		return next == ApplicationSubmitted
	case ApplicationSubmitted:
		return next == ApplicationAccepted || next == ApplicationRejected
	default:
		return false
	}
}

// SubscriptionPlan mirrors the payment processor's plan codes.
type SubscriptionPlan string

const (
	PlanNone    SubscriptionPlan = "none"
	PlanMonthly SubscriptionPlan = "monthly"
	PlanAnnual  SubscriptionPlan = "annual"
)

// JobApplication is a user's application against a listing.
type JobApplication struct {
	ID          string            `json:"id"`
	ApplicantID string            `json:"applicant_id"`
	ListingID   string            `json:"listing_id"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Phone       string            `json:"phone,omitempty"`
	AltEmail    string            `json:"alt_email,omitempty"`
	FileKeys    []string          `json:"file_keys,omitempty"`
	Status      ApplicationStatus `json:"status"`
	Experiences []Experience      `json:"experiences,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Experience is one prior-work entry attached to an application.
type Experience struct {
	ID            string `json:"id"`
	ApplicationID string `json:"application_id"`
	JobTitle      string `json:"job_title"`
	CompanyName   string `json:"company_name"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Description   string `json:"description,omitempty"`
}

// Subscription mirrors the processor's subscription object, 1:1 with Business.
type Subscription struct {
	ID                   string           `json:"id"`
	BusinessID           string           `json:"business_id"`
	StripeCustomerID     string           `json:"stripe_customer_id"`
	StripeSubscriptionID string           `json:"stripe_subscription_id"`
	CheckoutSessionID    string           `json:"-"`
	Plan                 SubscriptionPlan `json:"plan"`
	CreatedAt            time.Time        `json:"created_at"`
}
