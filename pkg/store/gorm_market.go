package store

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"savvynote/pkg/domain"
)

// CreateListing inserts the listing and its instrument/genre joins atomically.
func (s *GormStore) CreateListing(l domain.JobListing) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		model := listingToModel(l)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		for _, instrumentID := range l.InstrumentIDs {
			row := ListingInstrumentModel{JobListingID: l.ID, InstrumentID: instrumentID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for _, genreID := range l.GenreIDs {
			row := ListingGenreModel{JobListingID: l.ID, GenreID: genreID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) GetListing(id string) (domain.JobListing, bool, error) {
	var model JobListingModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.JobListing{}, false, nil
		}
		return domain.JobListing{}, false, err
	}
	listing, err := s.listingFromModel(model)
	if err != nil {
		return domain.JobListing{}, false, err
	}
	return listing, true, nil
}

func (s *GormStore) ListListings(page Page) ([]domain.JobListing, int, error) {
	q := s.db.Model(&JobListingModel{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []JobListingModel
	if err := q.Order("created_at DESC").Offset(page.offset()).Limit(page.limit()).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	res := make([]domain.JobListing, 0, len(models))
	for _, m := range models {
		listing, err := s.listingFromModel(m)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, listing)
	}
	return res, int(total), nil
}

func (s *GormStore) CreateApplication(a domain.JobApplication) error {
	model := applicationToModel(a)
	return s.db.Create(&model).Error
}

func (s *GormStore) GetApplication(id string) (domain.JobApplication, bool, error) {
	var model JobApplicationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.JobApplication{}, false, nil
		}
		return domain.JobApplication{}, false, err
	}
	app, err := s.applicationFromModel(model)
	if err != nil {
		return domain.JobApplication{}, false, err
	}
	return app, true, nil
}

func (s *GormStore) ListApplicationsByListing(listingID string, page Page) ([]domain.JobApplication, int, error) {
	q := s.db.Model(&JobApplicationModel{}).Where("job_listing_id = ?", listingID)
	return s.listApplications(q, page)
}

func (s *GormStore) ListApplicationsByApplicant(userID string, page Page) ([]domain.JobApplication, int, error) {
	q := s.db.Model(&JobApplicationModel{}).Where("applicant_id = ?", userID)
	return s.listApplications(q, page)
}

func (s *GormStore) listApplications(q *gorm.DB, page Page) ([]domain.JobApplication, int, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []JobApplicationModel
	if err := q.Order("created_at DESC").Offset(page.offset()).Limit(page.limit()).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	res := make([]domain.JobApplication, 0, len(models))
	for _, m := range models {
		app, err := s.applicationFromModel(m)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, app)
	}
	return res, int(total), nil
}

// SubmitExperiences replaces the application's experience entries and moves it
// to Submitted in one transaction.
func (s *GormStore) SubmitExperiences(applicationID string, experiences []domain.Experience) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&ExperienceModel{}, "job_application_id = ?", applicationID).Error; err != nil {
			return err
		}
		for _, exp := range experiences {
			model := ExperienceModel{
				ID:               exp.ID,
				JobApplicationID: applicationID,
				JobTitle:         exp.JobTitle,
				CompanyName:      exp.CompanyName,
				StartDate:        exp.StartDate,
				EndDate:          exp.EndDate,
				Description:      exp.Description,
			}
			if model.ID == "" {
				model.ID = uuid.NewString()
			}
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		}
		return tx.Model(&JobApplicationModel{}).
			Where("id = ?", applicationID).
			Update("status", string(domain.ApplicationSubmitted)).Error
	})
}

func (s *GormStore) UpdateApplicationStatus(applicationID string, status domain.ApplicationStatus) error {
	return s.db.Model(&JobApplicationModel{}).
		Where("id = ?", applicationID).
		Update("status", string(status)).Error
}

// UpsertSubscription inserts the subscription unless one with the same
// checkout session already exists; redelivered webhooks report created=false.
func (s *GormStore) UpsertSubscription(sub domain.Subscription) (bool, error) {
	model := SubscriptionModel{
		ID:                   sub.ID,
		BusinessID:           sub.BusinessID,
		StripeCustomerID:     sub.StripeCustomerID,
		StripeSubscriptionID: sub.StripeSubscriptionID,
		CheckoutSessionID:    sub.CheckoutSessionID,
		Plan:                 string(sub.Plan),
		CreatedAt:            sub.CreatedAt,
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "checkout_session_id"}},
		DoNothing: true,
	}).Create(&model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) GetSubscriptionByBusiness(businessID string) (domain.Subscription, bool, error) {
	var model SubscriptionModel
	if err := s.db.First(&model, "business_id = ?", businessID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Subscription{}, false, nil
		}
		return domain.Subscription{}, false, err
	}
	return domain.Subscription{
		ID:                   model.ID,
		BusinessID:           model.BusinessID,
		StripeCustomerID:     model.StripeCustomerID,
		StripeSubscriptionID: model.StripeSubscriptionID,
		CheckoutSessionID:    model.CheckoutSessionID,
		Plan:                 domain.SubscriptionPlan(model.Plan),
		CreatedAt:            model.CreatedAt,
	}, true, nil
}

func listingToModel(l domain.JobListing) JobListingModel {
	return JobListingModel{
		ID:               l.ID,
		BusinessID:       l.BusinessID,
		EventTitle:       l.EventTitle,
		Venue:            l.Venue,
		GigType:          string(l.GigType),
		EventDescription: l.EventDescription,
		PaymentType:      string(l.PaymentType),
		PaymentAmount:    l.PaymentAmount,
		StartDate:        l.StartDate,
		EndDate:          l.EndDate,
		StartTime:        l.StartTime,
		EndTime:          l.EndTime,
		RecurringPattern: l.RecurringPattern,
		ExperienceLevel:  l.ExperienceLevel,
		CreatedAt:        l.CreatedAt,
	}
}

func (s *GormStore) listingFromModel(m JobListingModel) (domain.JobListing, error) {
	listing := domain.JobListing{
		ID:               m.ID,
		BusinessID:       m.BusinessID,
		EventTitle:       m.EventTitle,
		Venue:            m.Venue,
		GigType:          domain.GigType(m.GigType),
		EventDescription: m.EventDescription,
		PaymentType:      domain.PaymentType(m.PaymentType),
		PaymentAmount:    m.PaymentAmount,
		StartDate:        m.StartDate,
		EndDate:          m.EndDate,
		StartTime:        m.StartTime,
		EndTime:          m.EndTime,
		RecurringPattern: m.RecurringPattern,
		ExperienceLevel:  m.ExperienceLevel,
		CreatedAt:        m.CreatedAt,
	}
	var instruments []ListingInstrumentModel
	if err := s.db.Where("job_listing_id = ?", m.ID).Find(&instruments).Error; err != nil {
		return domain.JobListing{}, err
	}
	for _, row := range instruments {
		listing.InstrumentIDs = append(listing.InstrumentIDs, row.InstrumentID)
	}
	var genres []ListingGenreModel
	if err := s.db.Where("job_listing_id = ?", m.ID).Find(&genres).Error; err != nil {
		return domain.JobListing{}, err
	}
	for _, row := range genres {
		listing.GenreIDs = append(listing.GenreIDs, row.GenreID)
	}
	return listing, nil
}

func applicationToModel(a domain.JobApplication) JobApplicationModel {
	var phone *string
	if a.Phone != "" {
		v := a.Phone
		phone = &v
	}
	return JobApplicationModel{
		ID:           a.ID,
		ApplicantID:  a.ApplicantID,
		JobListingID: a.ListingID,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Phone:        phone,
		AltEmail:     a.AltEmail,
		FileKeys:     datatypes.NewJSONSlice(a.FileKeys),
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt,
	}
}

func (s *GormStore) applicationFromModel(m JobApplicationModel) (domain.JobApplication, error) {
	app := domain.JobApplication{
		ID:          m.ID,
		ApplicantID: m.ApplicantID,
		ListingID:   m.JobListingID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		AltEmail:    m.AltEmail,
		FileKeys:    []string(m.FileKeys),
		Status:      domain.ApplicationStatus(m.Status),
		CreatedAt:   m.CreatedAt,
	}
	if m.Phone != nil {
		app.Phone = *m.Phone
	}
	var experiences []ExperienceModel
	if err := s.db.Where("job_application_id = ?", m.ID).Order("start_date ASC").Find(&experiences).Error; err != nil {
		return domain.JobApplication{}, err
	}
	for _, exp := range experiences {
		app.Experiences = append(app.Experiences, domain.Experience{
			ID:            exp.ID,
			ApplicationID: exp.JobApplicationID,
			JobTitle:      exp.JobTitle,
			CompanyName:   exp.CompanyName,
			StartDate:     exp.StartDate,
			EndDate:       exp.EndDate,
			Description:   exp.Description,
		})
	}
	return app, nil
}
