package service

import (
	"strings"

	"github.com/smartadmission/admissions-api/internal/models"
)

// FilterApplications narrows a record list by the given criteria. Criteria
// combine with AND semantics; an empty criterion matches everything, a
// non-empty status or course must match exactly. The input order is
// preserved and the input slice is never mutated.
func FilterApplications(apps []models.Application, f models.ApplicationFilter) []models.Application {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	status := strings.TrimSpace(f.Status)
	course := strings.TrimSpace(f.Course)

	out := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		if search != "" && !matchesSearch(app, search) {
			continue
		}
		if status != "" && string(app.Status) != status {
			continue
		}
		if course != "" && app.Course != course {
			continue
		}
		out = append(out, app)
	}
	return out
}

// matchesSearch checks the lowercased needle against applicant name, email,
// and application ID.
func matchesSearch(app models.Application, needle string) bool {
	return strings.Contains(strings.ToLower(app.FullName), needle) ||
		strings.Contains(strings.ToLower(app.Email), needle) ||
		strings.Contains(strings.ToLower(app.ID), needle)
}
