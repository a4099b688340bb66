package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"earplugs/shared/go/config"
)

type adminEnsurer interface {
	EnsureAdmin(ctx context.Context, username, password string) (int64, error)
}

// bootstrapAdmin makes sure the configured owner account exists with the admin role.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, users adminEnsurer) error {
	if cfg.Admin.Username == "" {
		return nil
	}

	id, err := users.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("ensure admin %q: %w", cfg.Admin.Username, err)
	}
	log.Info().Int64("user_id", id).Str("username", cfg.Admin.Username).Msg("admin account ready")
	return nil
}
