package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/smartadmission/admissions-api/internal/models"
	"github.com/smartadmission/admissions-api/internal/repository"
	"github.com/smartadmission/admissions-api/pkg/config"
	"github.com/smartadmission/admissions-api/pkg/database"
	"github.com/smartadmission/admissions-api/pkg/logger"
)

// legacyApplication mirrors the browser-era export format: a JSON array of
// camelCase records with ISO-8601 date strings. Older exports may omit the
// address block and documents entirely.
type legacyApplication struct {
	ID            string            `json:"id"`
	FullName      string            `json:"fullName"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone"`
	DateOfBirth   string            `json:"dateOfBirth"`
	Address       string            `json:"address"`
	City          string            `json:"city"`
	Country       string            `json:"country"`
	PostalCode    string            `json:"postalCode"`
	Course        string            `json:"course"`
	Degree        string            `json:"degree"`
	Qualification string            `json:"qualification"`
	GPA           string            `json:"gpa"`
	Statement     string            `json:"statement"`
	Documents     []models.Document `json:"documents"`
	Status        string            `json:"status"`
	DateApplied   string            `json:"dateApplied"`
	DateUpdated   string            `json:"dateUpdated"`
}

func main() {
	var file string
	var dryRun bool
	flag.StringVar(&file, "file", "applications.json", "path to the legacy JSON export")
	flag.BoolVar(&dryRun, "dry-run", false, "parse and validate without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	raw, err := os.ReadFile(file)
	if err != nil {
		logr.Fatal("failed to read export file", zap.String("file", file), zap.Error(err))
	}

	legacy, discarded, err := decodeDump(raw)
	if err != nil {
		logr.Fatal("failed to parse export file", zap.Error(err))
	}
	if discarded > 0 {
		// The admission_applications slot predates the current schema and is
		// not interoperable with it; those records are dropped, not migrated.
		logr.Warn("discarding records stored under the retired admission_applications key",
			zap.Int("count", discarded))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	repo := repository.NewApplicationRepository(db)
	ctx := context.Background()

	imported, skipped := 0, 0
	for i, record := range legacy {
		app, err := convert(record)
		if err != nil {
			logr.Warn("skipping malformed record", zap.Int("index", i), zap.Error(err))
			skipped++
			continue
		}

		exists, err := repo.ExistsByID(ctx, app.ID)
		if err != nil {
			logr.Fatal("failed to check existing id", zap.String("application_id", app.ID), zap.Error(err))
		}
		if exists {
			logr.Info("skipping existing application", zap.String("application_id", app.ID))
			skipped++
			continue
		}

		if dryRun {
			imported++
			continue
		}
		if err := repo.Create(ctx, app); err != nil {
			logr.Fatal("failed to import application", zap.String("application_id", app.ID), zap.Error(err))
		}
		imported++
	}

	logr.Info("import complete",
		zap.Int("imported", imported),
		zap.Int("skipped", skipped),
		zap.Bool("dry_run", dryRun))
}

// decodeDump accepts either of the browser-era dump layouts: a bare JSON
// array (the "applications" slot exported on its own) or a full localStorage
// snapshot object carrying an "applications" and/or "admission_applications"
// key. Records under "admission_applications" use an incompatible schema and
// are counted and discarded rather than mapped.
func decodeDump(raw []byte) ([]legacyApplication, int, error) {
	trimmed := strings.TrimLeftFunc(string(raw), unicode.IsSpace)
	if strings.HasPrefix(trimmed, "[") {
		var legacy []legacyApplication
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return nil, 0, err
		}
		return legacy, 0, nil
	}

	var snapshot struct {
		Applications          []legacyApplication `json:"applications"`
		AdmissionApplications []json.RawMessage   `json:"admission_applications"`
	}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, 0, err
	}
	if snapshot.Applications == nil && snapshot.AdmissionApplications == nil {
		return nil, 0, fmt.Errorf("dump carries neither an applications array nor a localStorage snapshot")
	}
	return snapshot.Applications, len(snapshot.AdmissionApplications), nil
}

func convert(legacy legacyApplication) (*models.Application, error) {
	if strings.TrimSpace(legacy.ID) == "" || strings.TrimSpace(legacy.Email) == "" || strings.TrimSpace(legacy.FullName) == "" {
		return nil, fmt.Errorf("record is missing id, name, or email")
	}

	status, err := models.ParseStatus(strings.TrimSpace(legacy.Status))
	if err != nil {
		// Very old exports predate the Reviewing stage and store no status.
		if strings.TrimSpace(legacy.Status) == "" {
			status = models.StatusPending
		} else {
			return nil, err
		}
	}

	dateApplied, err := parseLegacyTime(legacy.DateApplied)
	if err != nil {
		return nil, err
	}

	app := &models.Application{
		ID:            strings.ToUpper(strings.TrimSpace(legacy.ID)),
		FullName:      legacy.FullName,
		Email:         legacy.Email,
		Phone:         legacy.Phone,
		DateOfBirth:   legacy.DateOfBirth,
		Address:       legacy.Address,
		City:          legacy.City,
		Country:       legacy.Country,
		PostalCode:    legacy.PostalCode,
		Course:        legacy.Course,
		Degree:        legacy.Degree,
		Qualification: legacy.Qualification,
		GPA:           legacy.GPA,
		Statement:     legacy.Statement,
		Documents:     models.Documents(legacy.Documents),
		Status:        status,
		DateApplied:   dateApplied,
	}
	if app.Documents == nil {
		app.Documents = models.Documents{}
	}
	if legacy.DateUpdated != "" {
		if updated, err := parseLegacyTime(legacy.DateUpdated); err == nil {
			app.DateUpdated = &updated
		}
	}
	return app, nil
}

func parseLegacyTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().UTC(), nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
