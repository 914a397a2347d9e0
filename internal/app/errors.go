package app

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials deliberately carries no field detail so the
	// response cannot be used for account enumeration.
	ErrInvalidCredentials = errors.New("Invalid credentials")

	// ErrNeedsSignup is returned by Google login when no account exists
	// for the verified email. Handlers translate it into a distinguishing
	// 202 so the frontend can route into the signup flow.
	ErrNeedsSignup = errors.New("needs_signup")

	ErrRefreshTokenRequired = errors.New("refresh token required")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")

	ErrMissingFields    = errors.New("Make sure all fields are filled out.")
	ErrPasswordMismatch = errors.New("Passwords don't match.")

	ErrSelfFollow   = errors.New("Cannot follow yourself.")
	ErrSelfBlock    = errors.New("Cannot block yourself.")
	ErrNotFollowing = errors.New("Follow relationship does not exist.")
	ErrNotBlocking  = errors.New("Block relationship does not exist.")

	ErrNotLiked        = errors.New("This post is not liked")
	ErrAlreadyHidden   = errors.New("This post has already been hidden")
	ErrNotHidden       = errors.New("This post is not currently hidden")
	ErrAlreadyReported = errors.New("This post has already been reported")

	ErrBlockedByUser = errors.New("You cannot interact with this user.")

	ErrResumeRequired = errors.New("No resume file uploaded.")
	ErrResumeNotPDF   = errors.New("Only PDF files are allowed.")

	ErrInvalidStatusTransition = errors.New("invalid application status transition")

	ErrBusinessOnly = errors.New("Only business accounts can perform this action.")

	ErrTooManyFiles    = errors.New("A post can include at most 10 files.")
	ErrCaptionTooLong  = errors.New("Caption must be at most 500 characters.")
	ErrMessageTooLong  = errors.New("Message must be at most 500 characters.")
	ErrMessageRequired = errors.New("Message text or attachments required.")

	ErrUnknownPlan = errors.New("unknown subscription plan")
)

// NotFoundError carries the user-facing message for a missing entity,
// matching the per-entity wording the frontend depends on.
type NotFoundError struct {
	Message string
}

func (e NotFoundError) Error() string { return e.Message }

func notFound(message string) error { return NotFoundError{Message: message} }

// IsNotFound reports whether err is any entity-not-found error.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// ForbiddenError marks operations the requester is not allowed to perform.
type ForbiddenError struct {
	Message string
}

func (e ForbiddenError) Error() string { return e.Message }

func forbidden(message string) error { return ForbiddenError{Message: message} }

// IsForbidden reports whether err should surface as a 403.
func IsForbidden(err error) bool {
	var fe ForbiddenError
	return errors.As(err, &fe)
}

// FieldErrors scopes validation failures to the offending request fields,
// e.g. {"username": "A user with that username already exists."}.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e[field]))
	}
	return strings.Join(parts, "; ")
}

// AsFieldErrors unwraps err into FieldErrors when possible.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
