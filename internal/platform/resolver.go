package platform

import (
	"context"

	"group-order-bot/internal/logger"
)

// UnknownUser is the placeholder shown when a display name cannot be
// resolved.
const UnknownUser = "unknown user"

// NameResolver maps a platform user id to a display name. Failures
// never propagate: implementations degrade to UnknownUser.
type NameResolver interface {
	Resolve(ctx context.Context, userID, groupID string) string
}

// Resolver resolves display names through the platform API.
type Resolver struct {
	client *Client
	logger *logger.Logger
}

// NewResolver creates a resolver over the platform client.
func NewResolver(client *Client, log *logger.Logger) *Resolver {
	return &Resolver{
		client: client,
		logger: log,
	}
}

func (r *Resolver) Resolve(ctx context.Context, userID, groupID string) string {
	name, err := r.client.DisplayName(ctx, userID, groupID)
	if err != nil || name == "" {
		r.logger.Error("display_name_failed", "Failed to resolve display name", "", err, map[string]interface{}{
			"user_id": userID,
		})
		return UnknownUser
	}
	return name
}
