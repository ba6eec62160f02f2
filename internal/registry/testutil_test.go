package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/varunSbabu/BloodLink/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Per-test in-memory database to avoid cross-test interference.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func validDonor(phone string, bloodType models.BloodType) *models.Donor {
	return &models.Donor{
		Name:         "Test Donor",
		Age:          30,
		Gender:       models.GenderMale,
		BloodType:    bloodType,
		Phone:        phone,
		Country:      "India",
		State:        "Karnataka",
		City:         "Bangalore",
		Smoking:      "no",
		Drinking:     "no",
		LastDonation: models.LastDonationNever,
		Password:     "password123",
	}
}

func validRequest(phone string, bloodType models.BloodType) *models.BloodRequest {
	return &models.BloodRequest{
		Name:      "Test Requester",
		BloodType: bloodType,
		Gender:    models.GenderFemale,
		Phone:     phone,
		Country:   "India",
		State:     "Karnataka",
		City:      "Bangalore",
		Urgency:   models.UrgencyNormal,
		Reason:    "surgery",
	}
}

func mustCreateDonor(t *testing.T, db *gorm.DB, phone string, bloodType models.BloodType) *models.Donor {
	t.Helper()
	donor := validDonor(phone, bloodType)
	require.NoError(t, NewDonorRegistry(db).Create(donor))
	return donor
}

func mustCreateRequest(t *testing.T, db *gorm.DB, phone string, bloodType models.BloodType) *models.BloodRequest {
	t.Helper()
	req := validRequest(phone, bloodType)
	require.NoError(t, NewRequestRegistry(db).Create(req))
	return req
}
