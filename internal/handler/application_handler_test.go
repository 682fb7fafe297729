package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartadmission/admissions-api/internal/models"
	"github.com/smartadmission/admissions-api/internal/service"
)

type fakeApplicationStore struct {
	apps []models.Application
}

func (f *fakeApplicationStore) Create(ctx context.Context, app *models.Application) error {
	f.apps = append(f.apps, *app)
	return nil
}

func (f *fakeApplicationStore) ListAll(ctx context.Context) ([]models.Application, error) {
	return append([]models.Application(nil), f.apps...), nil
}

func (f *fakeApplicationStore) FindByIDAndEmail(ctx context.Context, id, email string) (*models.Application, error) {
	for _, app := range f.apps {
		if strings.EqualFold(app.ID, id) && strings.EqualFold(app.Email, email) {
			found := app
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeApplicationStore) FindByID(ctx context.Context, id string) (*models.Application, error) {
	for _, app := range f.apps {
		if strings.EqualFold(app.ID, id) {
			found := app
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeApplicationStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := f.FindByID(ctx, id)
	return err == nil, nil
}

func (f *fakeApplicationStore) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Application, error) {
	for i, app := range f.apps {
		if strings.EqualFold(app.ID, id) {
			f.apps[i].Status = status
			updated := f.apps[i]
			return &updated, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeApplicationStore) Delete(ctx context.Context, id string) error {
	for i, app := range f.apps {
		if strings.EqualFold(app.ID, id) {
			f.apps = append(f.apps[:i], f.apps[i+1:]...)
			return nil
		}
	}
	return nil
}

type seqIDGenerator struct{ n int }

func (g *seqIDGenerator) Generate() (string, error) {
	g.n++
	return "APP" + strings.Repeat("A", 4) + string(rune('0'+g.n)), nil
}

func newApplicationService(store *fakeApplicationStore) *service.ApplicationService {
	return service.NewApplicationService(store, &seqIDGenerator{}, nil, nil, validator.New(), zap.NewNop(), service.ApplicationServiceConfig{})
}

func submitPayload() map[string]interface{} {
	return map[string]interface{}{
		"fullName":      "Jane Doe",
		"email":         "jane@example.com",
		"phone":         "+621234567",
		"dateOfBirth":   "2001-04-12",
		"address":       "Street 1",
		"city":          "Jakarta",
		"country":       "Indonesia",
		"postalCode":    "10110",
		"course":        "Computer Science",
		"degree":        "Bachelor",
		"qualification": "High School Diploma",
		"gpa":           "88.5",
		"statement":     strings.Repeat("I want to study computer science. ", 5),
	}
}

func performJSON(t *testing.T, handler gin.HandlerFunc, method, target string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	c.Request = httptest.NewRequest(method, target, body)
	c.Request.Header.Set("Content-Type", "application/json")

	handler(c)
	return rec
}

func TestApplicationHandlerSubmit(t *testing.T) {
	store := &fakeApplicationStore{}
	h := NewApplicationHandler(newApplicationService(store))

	rec := performJSON(t, h.Submit, http.MethodPost, "/api/v1/applications", submitPayload())
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.apps, 1)
	assert.Equal(t, models.StatusPending, store.apps[0].Status)

	var envelope struct {
		Data models.Application `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, strings.HasPrefix(envelope.Data.ID, "APP"))
}

func TestApplicationHandlerSubmitValidationError(t *testing.T) {
	store := &fakeApplicationStore{}
	h := NewApplicationHandler(newApplicationService(store))

	payload := submitPayload()
	payload["email"] = "not-an-email"
	rec := performJSON(t, h.Submit, http.MethodPost, "/api/v1/applications", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.apps)
}

func TestApplicationHandlerTrack(t *testing.T) {
	store := &fakeApplicationStore{apps: []models.Application{
		{ID: "APP1AAAAA", Email: "jane@example.com", Status: models.StatusReviewing},
	}}
	h := NewApplicationHandler(newApplicationService(store))

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/applications/track?appId=app1aaaaa&email=JANE@example.com", nil)

	h.Track(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.TrackingResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.Step)
	assert.Equal(t, "APP1AAAAA", envelope.Data.Application.ID)
}

func TestApplicationHandlerTrackNotFound(t *testing.T) {
	h := NewApplicationHandler(newApplicationService(&fakeApplicationStore{}))

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/applications/track?appId=APP1ZZZZZ&email=x@example.com", nil)

	h.Track(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
