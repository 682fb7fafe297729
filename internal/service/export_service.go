package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smartadmission/admissions-api/internal/models"
	appErrors "github.com/smartadmission/admissions-api/pkg/errors"
	"github.com/smartadmission/admissions-api/pkg/export"
)

var exportHeaders = []string{"Application ID", "Full Name", "Email", "Phone", "Course", "Degree", "GPA", "Status", "Date Applied"}

// ExportResult holds a rendered export artifact.
type ExportResult struct {
	Filename string
	Data     []byte
	Format   models.ReportFormat
}

type exportSource interface {
	ListAll(ctx context.Context) ([]models.Application, error)
}

// ExportService renders application listings and single-record summaries
// into CSV and PDF artifacts.
type ExportService struct {
	source exportSource
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(source exportSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		source: source,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Generate renders the applications matching the job's frozen filters into
// the requested format.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	apps, err := s.source.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load applications for export")
	}
	filtered := FilterApplications(apps, models.ApplicationFilter{
		Search: job.Params.Search,
		Status: job.Params.Status,
		Course: job.Params.Course,
	})

	dataset := buildDataset(filtered)
	title := job.Params.Title
	if title == "" {
		title = "Admissions Report"
	}

	var data []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		data, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		data, err = s.pdf.Render(dataset, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", job.Params.Format))
	}
	if err != nil {
		return nil, fmt.Errorf("render %s export: %w", job.Params.Format, err)
	}

	return &ExportResult{
		Filename: fmt.Sprintf("admissions-%s.%s", job.ID, job.Params.Format),
		Data:     data,
		Format:   job.Params.Format,
	}, nil
}

// ApplicationPDF renders a single application into a printable summary.
func (s *ExportService) ApplicationPDF(app *models.Application) (*ExportResult, error) {
	docs := make([]string, 0, len(app.Documents))
	for _, doc := range app.Documents {
		docs = append(docs, doc.Name)
	}
	docList := strings.Join(docs, ", ")
	if docList == "" {
		docList = "None"
	}

	updated := "-"
	if app.DateUpdated != nil {
		updated = app.DateUpdated.Format("2006-01-02 15:04")
	}

	sections := []export.DetailSection{
		{
			Heading: "Applicant",
			Fields: []export.DetailField{
				{Label: "Full Name", Value: app.FullName},
				{Label: "Email", Value: app.Email},
				{Label: "Phone", Value: app.Phone},
				{Label: "Date of Birth", Value: app.DateOfBirth},
				{Label: "Address", Value: fmt.Sprintf("%s, %s, %s %s", app.Address, app.City, app.Country, app.PostalCode)},
			},
		},
		{
			Heading: "Programme",
			Fields: []export.DetailField{
				{Label: "Course", Value: app.Course},
				{Label: "Degree", Value: app.Degree},
				{Label: "Qualification", Value: app.Qualification},
				{Label: "GPA", Value: app.GPA},
			},
		},
		{
			Heading: "Application",
			Fields: []export.DetailField{
				{Label: "Status", Value: string(app.Status)},
				{Label: "Date Applied", Value: app.DateApplied.Format("2006-01-02 15:04")},
				{Label: "Last Updated", Value: updated},
				{Label: "Documents", Value: docList},
				{Label: "Personal Statement", Value: app.Statement},
			},
		},
	}

	data, err := s.pdf.RenderDetail("Application Summary", app.ID, sections)
	if err != nil {
		return nil, fmt.Errorf("render application pdf: %w", err)
	}
	return &ExportResult{
		Filename: fmt.Sprintf("application-%s.pdf", strings.ToLower(app.ID)),
		Data:     data,
		Format:   models.ReportFormatPDF,
	}, nil
}

func buildDataset(apps []models.Application) export.Dataset {
	rows := make([]map[string]string, 0, len(apps))
	for _, app := range apps {
		rows = append(rows, map[string]string{
			"Application ID": app.ID,
			"Full Name":      app.FullName,
			"Email":          app.Email,
			"Phone":          app.Phone,
			"Course":         app.Course,
			"Degree":         app.Degree,
			"GPA":            app.GPA,
			"Status":         string(app.Status),
			"Date Applied":   app.DateApplied.Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}
