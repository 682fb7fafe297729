package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartadmission/admissions-api/internal/models"
)

type staticExportSource struct {
	apps []models.Application
}

func (s *staticExportSource) ListAll(ctx context.Context) ([]models.Application, error) {
	return s.apps, nil
}

func exportFixtures() []models.Application {
	return []models.Application{
		{ID: "APP1AAAAA", FullName: "Jane Doe", Email: "jane@example.com", Course: "Computer Science", GPA: "88.5", Status: models.StatusPending, DateApplied: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "APP1BBBBB", FullName: "John Smith", Email: "john@example.com", Course: "Business Administration", GPA: "75", Status: models.StatusAccepted, DateApplied: time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)},
	}
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc := NewExportService(&staticExportSource{apps: exportFixtures()}, zap.NewNop())

	result, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-1",
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
	})
	require.NoError(t, err)
	assert.Equal(t, "admissions-job-1.csv", result.Filename)

	content := string(result.Data)
	assert.Contains(t, content, "Application ID")
	assert.Contains(t, content, "APP1AAAAA")
	assert.Contains(t, content, "APP1BBBBB")
	// Header plus two data rows.
	assert.Equal(t, 3, strings.Count(strings.TrimSpace(content), "\n")+1)
}

func TestExportServiceGenerateAppliesFrozenFilters(t *testing.T) {
	svc := NewExportService(&staticExportSource{apps: exportFixtures()}, zap.NewNop())

	result, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-2",
		Params: models.ReportJobParams{Format: models.ReportFormatCSV, Status: "Accepted"},
	})
	require.NoError(t, err)
	assert.NotContains(t, string(result.Data), "APP1AAAAA")
	assert.Contains(t, string(result.Data), "APP1BBBBB")
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc := NewExportService(&staticExportSource{apps: exportFixtures()}, zap.NewNop())

	result, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-3",
		Params: models.ReportJobParams{Format: models.ReportFormatPDF, Title: "August Intake"},
	})
	require.NoError(t, err)
	assert.Equal(t, "admissions-job-3.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"))
}

func TestExportServiceGenerateRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&staticExportSource{}, zap.NewNop())

	_, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-4",
		Params: models.ReportJobParams{Format: "xlsx"},
	})
	require.Error(t, err)
}

func TestExportServiceApplicationPDF(t *testing.T) {
	svc := NewExportService(&staticExportSource{}, zap.NewNop())
	app := exportFixtures()[0]
	app.Statement = strings.Repeat("Motivation. ", 20)
	app.Documents = models.Documents{{Name: "transcript.pdf", Size: 1024}}

	result, err := svc.ApplicationPDF(&app)
	require.NoError(t, err)
	assert.Equal(t, "application-app1aaaaa.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"))
}
