package survey

import (
	"context"
	"strings"

	"github.com/garnizeh/questionnaire/pkg/models"
	"github.com/garnizeh/questionnaire/pkg/repository"
)

// ResolveLatestResponse returns the current response of a questionnaire,
// scoped to username when one is given, or nil when there is none. A blank
// username is treated as no scope. Ties on the timestamp go to the highest id.
func ResolveLatestResponse(ctx context.Context, repo repository.ResponseRepo, questionnaireID int64, username *string) (*models.Response, error) {
	if username != nil && strings.TrimSpace(*username) == "" {
		username = nil
	}
	return repo.LatestResponse(ctx, questionnaireID, username)
}
