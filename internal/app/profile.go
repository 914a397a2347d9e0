package app

import (
	"fmt"
	"strings"

	"savvynote/internal/util"
	"savvynote/pkg/domain"
)

// InstrumentExperience is an instrument name with the years played on it.
type InstrumentExperience struct {
	Instrument  string `json:"instrument"`
	YearsPlayed int    `json:"years_played"`
}

// MusicianProfile is the public detail view of a musician account.
type MusicianProfile struct {
	domain.User
	StageName   string                 `json:"stage_name"`
	YearsPlayed int                    `json:"years_played"`
	HomeStudio  bool                   `json:"home_studio"`
	Instruments []InstrumentExperience `json:"instruments"`
	Genres      []string               `json:"genres"`
	Followers   int                    `json:"followers"`
	Following   int                    `json:"following"`
}

// BusinessProfile is the public detail view of a business account.
type BusinessProfile struct {
	domain.User
	BusinessName string `json:"business_name"`
	Industry     string `json:"industry"`
	Followers    int    `json:"followers"`
	Following    int    `json:"following"`
}

// GetMusicianProfile returns the musician detail for userID. viewerID may be
// empty for unauthenticated reads; owners who blocked the viewer are hidden.
func (a *App) GetMusicianProfile(viewerID, userID string) (MusicianProfile, error) {
	user, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return MusicianProfile{}, fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return MusicianProfile{}, notFound("User not found")
	}
	if err := a.ensureNotBlocked(userID, viewerID); err != nil {
		return MusicianProfile{}, err
	}
	musician, found, err := a.store.GetMusicianByUserID(userID)
	if err != nil {
		return MusicianProfile{}, fmt.Errorf("fetch musician: %w", err)
	}
	if !found {
		return MusicianProfile{}, notFound("Musician profile not found")
	}
	instruments, genres, err := a.resolveAssociations(musician)
	if err != nil {
		return MusicianProfile{}, err
	}
	followers, following, err := a.store.FollowCounts(userID)
	if err != nil {
		return MusicianProfile{}, fmt.Errorf("count follows: %w", err)
	}
	return MusicianProfile{
		User:        user,
		StageName:   musician.StageName,
		YearsPlayed: musician.YearsPlayed,
		HomeStudio:  musician.HomeStudio,
		Instruments: instruments,
		Genres:      genres,
		Followers:   followers,
		Following:   following,
	}, nil
}

// GetBusinessProfile returns the business detail for userID.
func (a *App) GetBusinessProfile(viewerID, userID string) (BusinessProfile, error) {
	user, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return BusinessProfile{}, fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return BusinessProfile{}, notFound("User not found")
	}
	if err := a.ensureNotBlocked(userID, viewerID); err != nil {
		return BusinessProfile{}, err
	}
	business, found, err := a.store.GetBusinessByUserID(userID)
	if err != nil {
		return BusinessProfile{}, fmt.Errorf("fetch business: %w", err)
	}
	if !found {
		return BusinessProfile{}, notFound("Business profile not found")
	}
	followers, following, err := a.store.FollowCounts(userID)
	if err != nil {
		return BusinessProfile{}, fmt.Errorf("count follows: %w", err)
	}
	return BusinessProfile{
		User:         user,
		BusinessName: business.BusinessName,
		Industry:     business.Industry,
		Followers:    followers,
		Following:    following,
	}, nil
}

// MusicianPatch carries a partial musician profile update. Nil fields keep
// their current values; non-nil Instruments/GenreIDs wholesale-replace the
// association sets.
type MusicianPatch struct {
	Username    *string
	Email       *string
	Phone       *string
	FirstName   *string
	LastName    *string
	StageName   *string
	YearsPlayed *int
	HomeStudio  *bool
	Instruments *[]SignUpInstrument
	GenreIDs    *[]string
}

// PatchMusicianProfile applies a partial update to the requester's own
// musician profile, re-validating username/email/phone uniqueness against
// every other account.
func (a *App) PatchMusicianProfile(requesterID, userID string, patch MusicianPatch) (MusicianProfile, error) {
	if requesterID != userID {
		return MusicianProfile{}, forbidden("You can only edit your own profile.")
	}
	user, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return MusicianProfile{}, fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return MusicianProfile{}, notFound("User not found")
	}
	musician, found, err := a.store.GetMusicianByUserID(userID)
	if err != nil {
		return MusicianProfile{}, fmt.Errorf("fetch musician: %w", err)
	}
	if !found {
		return MusicianProfile{}, notFound("Musician profile not found")
	}

	if err := a.applyUserPatch(&user, patch.Username, patch.Email, patch.Phone, patch.FirstName, patch.LastName); err != nil {
		return MusicianProfile{}, err
	}
	if patch.StageName != nil {
		musician.StageName = *patch.StageName
	}
	if patch.YearsPlayed != nil {
		musician.YearsPlayed = *patch.YearsPlayed
	}
	if patch.HomeStudio != nil {
		musician.HomeStudio = *patch.HomeStudio
	}

	if err := a.store.SaveUser(user); err != nil {
		return MusicianProfile{}, fmt.Errorf("update user: %w", err)
	}
	if err := a.store.SaveMusician(musician); err != nil {
		return MusicianProfile{}, fmt.Errorf("update musician: %w", err)
	}

	if patch.Instruments != nil || patch.GenreIDs != nil {
		instruments := musician.Instruments
		if patch.Instruments != nil {
			instruments = make([]domain.MusicianInstrument, 0, len(*patch.Instruments))
			for _, in := range *patch.Instruments {
				if _, found, err := a.store.GetInstrument(in.ID); err != nil {
					return MusicianProfile{}, fmt.Errorf("check instrument: %w", err)
				} else if !found {
					return MusicianProfile{}, FieldErrors{"instruments": "Instrument not found."}
				}
				instruments = append(instruments, domain.MusicianInstrument{
					InstrumentID: in.ID,
					YearsPlayed:  in.YearsPlayed,
				})
			}
		}
		genreIDs := musician.GenreIDs
		if patch.GenreIDs != nil {
			genreIDs = *patch.GenreIDs
			for _, id := range genreIDs {
				if _, found, err := a.store.GetGenre(id); err != nil {
					return MusicianProfile{}, fmt.Errorf("check genre: %w", err)
				} else if !found {
					return MusicianProfile{}, FieldErrors{"genres": "Genre not found."}
				}
			}
		}
		if err := a.store.ReplaceMusicianAssociations(musician.ID, instruments, genreIDs); err != nil {
			return MusicianProfile{}, fmt.Errorf("replace associations: %w", err)
		}
	}
	return a.GetMusicianProfile(requesterID, userID)
}

// BusinessPatch carries a partial business profile update.
type BusinessPatch struct {
	Username     *string
	Email        *string
	Phone        *string
	FirstName    *string
	LastName     *string
	BusinessName *string
	Industry     *string
}

// PatchBusinessProfile applies a partial update to the requester's own
// business profile.
func (a *App) PatchBusinessProfile(requesterID, userID string, patch BusinessPatch) (BusinessProfile, error) {
	if requesterID != userID {
		return BusinessProfile{}, forbidden("You can only edit your own profile.")
	}
	user, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return BusinessProfile{}, fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return BusinessProfile{}, notFound("User not found")
	}
	business, found, err := a.store.GetBusinessByUserID(userID)
	if err != nil {
		return BusinessProfile{}, fmt.Errorf("fetch business: %w", err)
	}
	if !found {
		return BusinessProfile{}, notFound("Business profile not found")
	}

	if err := a.applyUserPatch(&user, patch.Username, patch.Email, patch.Phone, patch.FirstName, patch.LastName); err != nil {
		return BusinessProfile{}, err
	}
	if patch.BusinessName != nil {
		if strings.TrimSpace(*patch.BusinessName) == "" {
			return BusinessProfile{}, FieldErrors{"business_name": "This field may not be blank."}
		}
		business.BusinessName = strings.TrimSpace(*patch.BusinessName)
	}
	if patch.Industry != nil {
		business.Industry = *patch.Industry
	}

	if err := a.store.SaveUser(user); err != nil {
		return BusinessProfile{}, fmt.Errorf("update user: %w", err)
	}
	if err := a.store.SaveBusiness(business); err != nil {
		return BusinessProfile{}, fmt.Errorf("update business: %w", err)
	}
	return a.GetBusinessProfile(requesterID, userID)
}

// applyUserPatch mutates shared identity fields, checking uniqueness against
// every account except the user's own.
func (a *App) applyUserPatch(user *domain.User, username, email, phone, firstName, lastName *string) error {
	fieldErrs := FieldErrors{}
	if username != nil {
		candidate := strings.TrimSpace(*username)
		if candidate == "" {
			fieldErrs["username"] = "This field may not be blank."
		} else if taken, err := a.store.HasUsername(candidate, user.ID); err != nil {
			return fmt.Errorf("check username: %w", err)
		} else if taken {
			fieldErrs["username"] = "A user with that username already exists."
		} else {
			user.Username = candidate
		}
	}
	if email != nil {
		candidate := strings.TrimSpace(strings.ToLower(*email))
		if candidate == "" {
			fieldErrs["email"] = "This field may not be blank."
		} else if taken, err := a.store.HasEmail(candidate, user.ID); err != nil {
			return fmt.Errorf("check email: %w", err)
		} else if taken {
			fieldErrs["email"] = "A user with that email already exists."
		} else {
			user.Email = candidate
		}
	}
	if phone != nil {
		candidate := strings.TrimSpace(*phone)
		if candidate != "" {
			if !validPhone(candidate) {
				fieldErrs["phone"] = invalidPhoneMessage
			} else if taken, err := a.store.HasPhone(candidate, user.ID); err != nil {
				return fmt.Errorf("check phone: %w", err)
			} else if taken {
				fieldErrs["phone"] = "A user with that phone number already exists."
			}
		}
		if _, ok := fieldErrs["phone"]; !ok {
			user.Phone = candidate
		}
	}
	if firstName != nil {
		user.FirstName = *firstName
	}
	if lastName != nil {
		user.LastName = *lastName
	}
	if len(fieldErrs) > 0 {
		return fieldErrs
	}
	user.UpdatedAt = a.now().UTC()
	return nil
}

// ensureNotBlocked rejects viewers the profile owner has blocked.
func (a *App) ensureNotBlocked(ownerID, viewerID string) error {
	if viewerID == "" || viewerID == ownerID {
		return nil
	}
	blocked, err := a.store.IsBlocked(ownerID, viewerID)
	if err != nil {
		return fmt.Errorf("check block: %w", err)
	}
	if blocked {
		return forbidden("You cannot view this profile.")
	}
	return nil
}

func (a *App) resolveAssociations(musician domain.Musician) ([]InstrumentExperience, []string, error) {
	instruments := make([]InstrumentExperience, 0, len(musician.Instruments))
	for _, mi := range musician.Instruments {
		inst, found, err := a.store.GetInstrument(mi.InstrumentID)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch instrument: %w", err)
		}
		if !found {
			continue
		}
		instruments = append(instruments, InstrumentExperience{
			Instrument:  inst.Name,
			YearsPlayed: mi.YearsPlayed,
		})
	}
	genres := make([]string, 0, len(musician.GenreIDs))
	for _, id := range musician.GenreIDs {
		genre, found, err := a.store.GetGenre(id)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch genre: %w", err)
		}
		if !found {
			continue
		}
		genres = append(genres, genre.Name)
	}
	return instruments, genres, nil
}

// Instruments returns the dropdown catalog of instruments.
func (a *App) Instruments() ([]domain.Instrument, error) {
	return a.store.ListInstruments()
}

// CreateInstrument adds a catalog instrument and returns its id.
func (a *App) CreateInstrument(name, className string) (domain.Instrument, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Instrument{}, FieldErrors{"instrument": "This field is required."}
	}
	inst := domain.Instrument{ID: util.NewID(), Name: name, ClassName: className}
	if err := a.store.CreateInstrument(inst); err != nil {
		return domain.Instrument{}, fmt.Errorf("create instrument: %w", err)
	}
	return inst, nil
}

// Genres returns the dropdown catalog of genres.
func (a *App) Genres() ([]domain.Genre, error) {
	return a.store.ListGenres()
}

// CreateGenre adds a catalog genre and returns its id.
func (a *App) CreateGenre(name string) (domain.Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Genre{}, FieldErrors{"genre": "This field is required."}
	}
	genre := domain.Genre{ID: util.NewID(), Name: name}
	if err := a.store.CreateGenre(genre); err != nil {
		return domain.Genre{}, fmt.Errorf("create genre: %w", err)
	}
	return genre, nil
}

// Musicians lists every musician profile for dropdowns.
func (a *App) Musicians() ([]domain.Musician, error) {
	return a.store.ListMusicians()
}

// Businesses lists every business profile for dropdowns.
func (a *App) Businesses() ([]domain.Business, error) {
	return a.store.ListBusinesses()
}

// Users lists every account for dropdowns.
func (a *App) Users() ([]domain.User, error) {
	return a.store.ListUsers()
}
