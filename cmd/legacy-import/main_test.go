package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartadmission/admissions-api/internal/models"
)

func TestDecodeDumpBareArray(t *testing.T) {
	raw := []byte(`[{"id":"app1abcde","fullName":"Jane Doe","email":"jane@example.com","status":"Pending","dateApplied":"2025-03-01T10:00:00Z"}]`)

	legacy, discarded, err := decodeDump(raw)
	require.NoError(t, err)
	assert.Zero(t, discarded)
	require.Len(t, legacy, 1)
	assert.Equal(t, "jane@example.com", legacy[0].Email)
}

func TestDecodeDumpSnapshotDiscardsRetiredKey(t *testing.T) {
	raw := []byte(`{
		"applications": [{"id":"app1abcde","fullName":"Jane Doe","email":"jane@example.com"}],
		"admission_applications": [{"name":"Old Shape","applied":"2024-01-01"},{"name":"Older Shape"}]
	}`)

	legacy, discarded, err := decodeDump(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, discarded)
	require.Len(t, legacy, 1)
	assert.Equal(t, "app1abcde", legacy[0].ID)
}

func TestDecodeDumpRejectsUnknownShape(t *testing.T) {
	_, _, err := decodeDump([]byte(`{"admin_auth":"true"}`))
	assert.Error(t, err)
}

func TestConvertDefaultsAndNormalizes(t *testing.T) {
	app, err := convert(legacyApplication{
		ID:          "app1abcde",
		FullName:    "Jane Doe",
		Email:       "jane@example.com",
		DateApplied: "2025-03-01T10:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "APP1ABCDE", app.ID)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), app.DateApplied)
	assert.NotNil(t, app.Documents)
	assert.Nil(t, app.DateUpdated)
}

func TestConvertRejectsMissingIdentity(t *testing.T) {
	_, err := convert(legacyApplication{FullName: "Jane Doe", Email: "jane@example.com"})
	assert.Error(t, err)

	_, err = convert(legacyApplication{ID: "APP1ABCDE", FullName: "Jane Doe"})
	assert.Error(t, err)
}

func TestConvertRejectsUnknownStatus(t *testing.T) {
	_, err := convert(legacyApplication{
		ID:       "APP1ABCDE",
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Status:   "Waitlisted",
	})
	assert.Error(t, err)
}
