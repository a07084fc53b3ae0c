package main

import (
	"os"

	"github.com/campushub/miniapp/internal/pkg/logger"
	"github.com/campushub/miniapp/internal/server"
)

// @title Campus Hub API
// @version 1.0
// @description API for the Campus Hub mini-app: events, chat, media, schedules and moderation

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Admin token, also accepted as the token query parameter

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// blocks until shutdown signal
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
