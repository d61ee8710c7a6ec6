package community

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Client is the outbound boundary to the community platform.
type Client interface {
	Invite(ctx context.Context, userID uuid.UUID, email string) error
	Reactivate(ctx context.Context, userID uuid.UUID, email string) error
	Remove(ctx context.Context, userID uuid.UUID, email string) error
}

// LogClient logs each call instead of talking to a real platform. Used in
// development and as the default until an integration is configured.
type LogClient struct {
	logger *slog.Logger
}

// NewLogClient creates a logging community client.
func NewLogClient(logger *slog.Logger) *LogClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogClient{logger: logger}
}

func (c *LogClient) Invite(ctx context.Context, userID uuid.UUID, email string) error {
	c.logger.InfoContext(ctx, "community invite",
		slog.String("user_id", userID.String()), slog.String("email", email))
	return nil
}

func (c *LogClient) Reactivate(ctx context.Context, userID uuid.UUID, email string) error {
	c.logger.InfoContext(ctx, "community reactivate",
		slog.String("user_id", userID.String()), slog.String("email", email))
	return nil
}

func (c *LogClient) Remove(ctx context.Context, userID uuid.UUID, email string) error {
	c.logger.InfoContext(ctx, "community remove",
		slog.String("user_id", userID.String()), slog.String("email", email))
	return nil
}
