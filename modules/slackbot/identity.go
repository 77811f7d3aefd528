package slackbot

import (
	"context"
	"errors"
	"fmt"

	"github.com/slack-go/slack"
)

// AuthTester is the part of the Slack client used by the startup handshake.
type AuthTester interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
}

// Identity is the bot's own account as reported by auth.test.
type Identity struct {
	UserID string
	BotID  string
	TeamID string
	Team   string
}

// ResolveIdentity performs the startup handshake. It runs once before any
// event is served; the result is immutable afterwards.
func ResolveIdentity(ctx context.Context, api AuthTester) (Identity, error) {
	resp, err := api.AuthTestContext(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("auth.test failed: %w", err)
	}
	if resp.UserID == "" {
		return Identity{}, errors.New("auth.test returned no user id")
	}
	return Identity{
		UserID: resp.UserID,
		BotID:  resp.BotID,
		TeamID: resp.TeamID,
		Team:   resp.Team,
	}, nil
}
