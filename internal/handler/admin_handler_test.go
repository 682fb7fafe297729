package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartadmission/admissions-api/internal/models"
	"github.com/smartadmission/admissions-api/internal/service"
)

func adminFixtures() *fakeApplicationStore {
	return &fakeApplicationStore{apps: []models.Application{
		{Seq: 1, ID: "APP1AAAAA", FullName: "Jane Doe", Email: "jane@example.com", Course: "Computer Science", Status: models.StatusPending, DateApplied: time.Now()},
		{Seq: 2, ID: "APP1BBBBB", FullName: "John Smith", Email: "john@example.com", Course: "Business Administration", Status: models.StatusReviewing, DateApplied: time.Now()},
	}}
}

func newAdminHandler(store *fakeApplicationStore) *AdminHandler {
	apps := newApplicationService(store)
	exporter := service.NewExportService(store, zap.NewNop())
	return NewAdminHandler(apps, nil, exporter)
}

func TestAdminHandlerListWithFilter(t *testing.T) {
	h := newAdminHandler(adminFixtures())

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications?status=Reviewing", nil)

	h.List(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data       []models.Application `json:"data"`
		Pagination *models.Pagination   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "APP1BBBBB", envelope.Data[0].ID)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestAdminHandlerUpdateStatus(t *testing.T) {
	store := adminFixtures()
	h := newAdminHandler(store)

	gin.SetMode(gin.TestMode)
	rec := performParamJSON(t, h.UpdateStatus, "APP1AAAAA", map[string]string{"status": "Accepted"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusAccepted, store.apps[0].Status)
}

func TestAdminHandlerUpdateStatusInvalidValue(t *testing.T) {
	h := newAdminHandler(adminFixtures())

	rec := performParamJSON(t, h.UpdateStatus, "APP1AAAAA", map[string]string{"status": "Waitlisted"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminHandlerDelete(t *testing.T) {
	store := adminFixtures()
	h := newAdminHandler(store)

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/admin/applications/APP1AAAAA", nil)
	c.Params = gin.Params{{Key: "id", Value: "APP1AAAAA"}}

	h.Delete(c)
	// a body-less 204 is only flushed by the engine, force it here
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, store.apps, 1)
}

func TestAdminHandlerPDF(t *testing.T) {
	h := newAdminHandler(adminFixtures())

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications/APP1AAAAA/pdf", nil)
	c.Params = gin.Params{{Key: "id", Value: "APP1AAAAA"}}

	h.PDF(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "application-app1aaaaa.pdf")
}

func performParamJSON(t *testing.T, handler gin.HandlerFunc, id string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	c.Request = httptest.NewRequest(http.MethodPatch, "/api/v1/admin/applications/"+id+"/status", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: id}}

	handler(c)
	return rec
}
