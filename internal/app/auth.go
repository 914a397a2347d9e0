package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"savvynote/internal/util"
	"savvynote/pkg/auth"
	"savvynote/pkg/domain"
	"savvynote/pkg/store"
)

// forgotPasswordDelay pads the miss path of ForgotPassword so response
// timing does not reveal whether an email is registered.
const forgotPasswordDelay = 3 * time.Second

// SignUpInstrument pairs an instrument id with the applicant's experience.
type SignUpInstrument struct {
	ID          string `json:"id"`
	YearsPlayed int    `json:"years_played"`
}

// SignUpParams carries the role-branching signup payload.
type SignUpParams struct {
	Username  string
	Email     string
	Phone     string
	FirstName string
	LastName  string
	Password  string
	Role      domain.UserRole

	// musician fields
	StageName   string
	YearsPlayed int
	HomeStudio  bool
	Instruments []SignUpInstrument
	GenreIDs    []string

	// business fields
	BusinessName string
	Industry     string
}

// SignUp registers a musician or business account. The user row and its
// profile extension are written in a single transaction.
func (a *App) SignUp(params SignUpParams) (domain.User, error) {
	params.Username = strings.TrimSpace(params.Username)
	params.Email = strings.TrimSpace(strings.ToLower(params.Email))

	fieldErrs := FieldErrors{}
	if params.Username == "" {
		fieldErrs["username"] = "This field is required."
	}
	if params.Email == "" {
		fieldErrs["email"] = "This field is required."
	}
	if params.Password == "" {
		fieldErrs["password"] = "This field is required."
	} else if err := auth.ValidatePassword(params.Password); err != nil {
		fieldErrs["password"] = err.Error()
	}
	if params.Role != domain.RoleMusician && params.Role != domain.RoleBusiness {
		fieldErrs["role"] = "Role must be musician or business."
	}
	if params.Role == domain.RoleBusiness && strings.TrimSpace(params.BusinessName) == "" {
		fieldErrs["business_name"] = "This field is required."
	}
	if params.Phone != "" && !validPhone(params.Phone) {
		fieldErrs["phone"] = invalidPhoneMessage
	}
	if len(fieldErrs) > 0 {
		return domain.User{}, fieldErrs
	}

	if taken, err := a.store.HasUsername(params.Username, ""); err != nil {
		return domain.User{}, fmt.Errorf("check username: %w", err)
	} else if taken {
		fieldErrs["username"] = "A user with that username already exists."
	}
	if taken, err := a.store.HasEmail(params.Email, ""); err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	} else if taken {
		fieldErrs["email"] = "A user with that email already exists."
	}
	if params.Phone != "" {
		if taken, err := a.store.HasPhone(params.Phone, ""); err != nil {
			return domain.User{}, fmt.Errorf("check phone: %w", err)
		} else if taken {
			fieldErrs["phone"] = "A user with that phone number already exists."
		}
	}
	if len(fieldErrs) > 0 {
		return domain.User{}, fieldErrs
	}

	passwordHash, err := auth.HashPassword(params.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := a.now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Username:     params.Username,
		Email:        params.Email,
		Phone:        params.Phone,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: passwordHash,
		Role:         params.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var musician *domain.Musician
	var business *domain.Business
	switch params.Role {
	case domain.RoleMusician:
		instruments := make([]domain.MusicianInstrument, 0, len(params.Instruments))
		for _, in := range params.Instruments {
			if _, found, err := a.store.GetInstrument(in.ID); err != nil {
				return domain.User{}, fmt.Errorf("check instrument: %w", err)
			} else if !found {
				return domain.User{}, FieldErrors{"instruments": "Instrument not found."}
			}
			instruments = append(instruments, domain.MusicianInstrument{
				InstrumentID: in.ID,
				YearsPlayed:  in.YearsPlayed,
			})
		}
		for _, id := range params.GenreIDs {
			if _, found, err := a.store.GetGenre(id); err != nil {
				return domain.User{}, fmt.Errorf("check genre: %w", err)
			} else if !found {
				return domain.User{}, FieldErrors{"genres": "Genre not found."}
			}
		}
		musician = &domain.Musician{
			ID:          util.NewID(),
			UserID:      user.ID,
			StageName:   params.StageName,
			YearsPlayed: params.YearsPlayed,
			HomeStudio:  params.HomeStudio,
			Instruments: instruments,
			GenreIDs:    params.GenreIDs,
		}
	case domain.RoleBusiness:
		business = &domain.Business{
			ID:           util.NewID(),
			UserID:       user.ID,
			BusinessName: strings.TrimSpace(params.BusinessName),
			Industry:     params.Industry,
		}
	}

	if err := a.store.CreateUserWithProfile(user, musician, business); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login validates credentials and issues an access + refresh token pair.
func (a *App) Login(username, password string) (domain.User, string, string, error) {
	username = strings.TrimSpace(username)
	user, found, err := a.store.GetUserByUsername(username)
	if err != nil {
		return domain.User{}, "", "", fmt.Errorf("fetch user: %w", err)
	}
	if !found || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", "", ErrInvalidCredentials
	}
	return a.issueUserTokens(user)
}

// GoogleLogin resolves a verified Google email to an existing account.
// Unknown emails return ErrNeedsSignup so the client can branch into signup.
func (a *App) GoogleLogin(email string) (domain.User, string, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return domain.User{}, "", "", ErrInvalidCredentials
	}
	user, found, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", "", fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return domain.User{}, "", "", ErrNeedsSignup
	}
	return a.issueUserTokens(user)
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// Logout invalidates the access token and optional refresh token.
func (a *App) Logout(accessToken, refreshToken string) error {
	if err := a.sessions.DeleteSession(accessToken); err != nil {
		return err
	}
	return a.RevokeRefreshToken(refreshToken)
}

// Refresh rotates the refresh token and issues a new token pair. Replayed
// tokens revoke the whole family inside the token store.
func (a *App) Refresh(refreshToken string) (domain.User, string, string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return domain.User{}, "", "", ErrRefreshTokenRequired
	}
	userID, newRefreshToken, err := a.refreshTokens.RotateToken(refreshToken, a.refreshTTL)
	if err != nil {
		if errors.Is(err, store.ErrInvalidRefreshToken) || errors.Is(err, store.ErrRefreshTokenReplay) {
			return domain.User{}, "", "", ErrInvalidRefreshToken
		}
		return domain.User{}, "", "", fmt.Errorf("rotate refresh token: %w", err)
	}
	user, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.User{}, "", "", fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		_ = a.refreshTokens.DeleteToken(newRefreshToken)
		return domain.User{}, "", "", ErrInvalidRefreshToken
	}
	accessToken, err := a.sessions.NewSession(user.ID)
	if err != nil {
		_ = a.refreshTokens.DeleteToken(newRefreshToken)
		return domain.User{}, "", "", fmt.Errorf("issue access token: %w", err)
	}
	return user, accessToken, newRefreshToken, nil
}

// RevokeRefreshToken invalidates a refresh token explicitly.
func (a *App) RevokeRefreshToken(refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	return a.refreshTokens.DeleteToken(refreshToken)
}

// ForgotPassword emails a reset link when the address is registered. The
// response is identical either way; the miss path is padded to the same
// latency as template rendering plus SMTP delivery.
func (a *App) ForgotPassword(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ErrMissingFields
	}
	user, found, err := a.store.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		a.sleep(forgotPasswordDelay)
		return nil
	}
	token, err := a.resetTokens.Issue(user.ID, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	link := fmt.Sprintf("%s/reset-password/%s/%s", a.frontendURL, user.ID, token)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nWe received a request to reset your SavvyNote password.\r\n"+
			"Use the link below within the next hour:\r\n\r\n%s\r\n\r\n"+
			"If you did not request this, you can safely ignore this email.\r\n",
		user.Username, link,
	)
	if err := a.mailer.Send(user.Email, "Reset your SavvyNote password", body); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// ResetPassword verifies the emailed token and replaces the credential.
func (a *App) ResetPassword(userID, token, password, confirm string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(token) == "" ||
		password == "" || confirm == "" {
		return ErrMissingFields
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}
	user, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return auth.ErrInvalidResetToken
	}
	if err := a.resetTokens.Verify(token, user.ID, user.PasswordHash); err != nil {
		return err
	}
	return a.replacePassword(user, password)
}

// ChangePassword updates the password after verifying the current one.
func (a *App) ChangePassword(userID, currentPassword, newPassword string) error {
	if newPassword == "" {
		return ErrMissingFields
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	user, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return notFound("User not found")
	}
	if !auth.CheckPassword(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	return a.replacePassword(user, newPassword)
}

// replacePassword stores the new hash and revokes every outstanding token,
// since a credential change must end all existing sessions.
func (a *App) replacePassword(user domain.User, newPassword string) error {
	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	revokeSince := a.now().UTC()
	user.PasswordHash = passwordHash
	user.UpdatedAt = revokeSince
	if err := a.store.SaveUser(user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := a.revokeAllUserTokens(user.ID, revokeSince); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

func (a *App) issueUserTokens(user domain.User) (domain.User, string, string, error) {
	accessToken, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", "", fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := a.refreshTokens.NewToken(user.ID, a.refreshTTL)
	if err != nil {
		return domain.User{}, "", "", fmt.Errorf("issue refresh token: %w", err)
	}
	return user, accessToken, refreshToken, nil
}

func (a *App) revokeAllUserTokens(userID string, since time.Time) error {
	if userID == "" {
		return nil
	}
	if revoker, ok := a.sessions.(store.UserSessionRevoker); ok {
		if err := revoker.RevokeUserSessions(userID, since); err != nil {
			return err
		}
	}
	if revoker, ok := a.refreshTokens.(store.UserRefreshTokenRevoker); ok {
		return revoker.RevokeUserRefreshTokens(userID)
	}
	return nil
}
