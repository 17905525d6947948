package main

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/ai"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/crypto"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/oauth"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/state"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/auth/token"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/config"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/db"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/server"
	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/version"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize database")
	}

	cipher, err := crypto.NewCipher(cfg.TokenEncryptionKey, cfg.TokenEncryptionPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize token cipher")
	}
	ledger := token.NewLedger(db.NewTokenStore(database), cipher)

	coord := oauth.NewCoordinator(oauth.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
	}, state.NewStore(state.DefaultTTL))
	if !coord.Configured() {
		log.Warn().Msg("google oauth credentials not configured, calendar features disabled")
	}

	catalogEntries := ai.DefaultCatalog()
	if cfg.ProviderCatalogPath != "" {
		catalogEntries, err = ai.LoadCatalogFile(cfg.ProviderCatalogPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.ProviderCatalogPath).Msg("load provider catalog")
		}
	}
	router := ai.NewRouter(ai.NewCatalog(catalogEntries))

	// Pick the first provider with a configured key; otherwise the simulator
	// stays active.
	for _, id := range []string{ai.ProviderOpenAI, ai.ProviderGemini, ai.ProviderClaude} {
		if key := cfg.ProviderKey(id); key != "" {
			if err := router.Select(id, key, ""); err != nil {
				log.Warn().Err(err).Str("provider", id).Msg("initial provider selection failed")
				continue
			}
			break
		}
	}

	routes := server.Routes(coord, ledger, router)
	log.Info().
		Str("address", cfg.HTTPAddress).
		Str("version", version.Version).
		Str("provider", router.Active()).
		Msg("agentcal listening")
	if err := http.ListenAndServe(cfg.HTTPAddress, routes); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}
