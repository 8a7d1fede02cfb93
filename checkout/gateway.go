package checkout

import (
	"context"

	"bookstore/models"
)

// Gateway is the payment provider as this system sees it.
type Gateway interface {
	CreateSession(ctx context.Context, req models.SessionRequest) (models.SessionRef, error)
	GetStatus(ctx context.Context, sessionID string) (string, error)
}
