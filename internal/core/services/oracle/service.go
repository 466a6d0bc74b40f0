package oracle

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/domain"
)

type IOracleService interface {
	Definitions() []domain.OracleDefinition

	// Run executes an oracle against the extracted trace of a test and, on
	// success, records the script output as the test result.
	Run(ctx context.Context, userID uuid.UUID, oracle string, req domain.RunRequest) (string, error)
}
