package cmd

import (
	"os"
	"path/filepath"

	"github.com/pterm/pterm"

	"movieswipe/cli/internal/auth"
	"movieswipe/cli/internal/backend"
	"movieswipe/cli/internal/config"
	apperr "movieswipe/cli/internal/errors"
	"movieswipe/cli/internal/groups"
	"movieswipe/cli/internal/httperrors"
	"movieswipe/cli/internal/keychain"
	"movieswipe/cli/internal/logging"
	"movieswipe/cli/internal/session"
	"movieswipe/cli/internal/xdg"
)

// backendContext completes "... while <context>" in network error hints.
var backendContext = "contacting the MovieSwipe backend"

// app is the per-process object graph. It is built once per command run.
type app struct {
	cfg    config.Config
	log    *pterm.Logger
	store  *keychain.Manager
	sess   *session.Manager
	auth   *auth.Service
	groups *groups.Client
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "load config", err)
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "config", err)
	}

	backendContext = "contacting " + httperrors.ExtractHostFromURL(cfg.BaseURL)

	log := logging.New(cfg.LogLevel, os.Stderr)
	log.Debug("config loaded", log.Args("base_url", cfg.BaseURL, "threshold_seconds", cfg.ExpiryThresholdSeconds))

	fileDir := cfg.Keyring.FileDir
	if fileDir == "" {
		if dir, err := xdg.StateDir(); err == nil {
			fileDir = filepath.Join(dir, "keyring")
		}
	}
	store, err := keychain.NewManager(keychain.Config{
		Backend:      cfg.Keyring.Backend,
		FileDir:      fileDir,
		FilePassword: cfg.Keyring.Password,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageUnavailable, "open secure storage", err)
	}

	api := backend.New(cfg.BaseURL, cfg.Endpoints, backend.WithLogger(log))
	sess := session.New(session.Config{
		Store:         store,
		Refresher:     api,
		Threshold:     cfg.Threshold(),
		Logger:        log,
		OnAuthExpired: notifySessionExpired,
	})

	return &app{
		cfg:    cfg,
		log:    log,
		store:  store,
		sess:   sess,
		auth:   auth.NewService(api, store, sess),
		groups: groups.New(cfg.BaseURL, cfg.Endpoints, sess.Client(nil)),
	}, nil
}

func loadConfig() (config.Config, error) {
	if flagConfig != "" {
		return config.LoadFile(flagConfig)
	}
	return config.Load()
}

func notifySessionExpired(error) {
	pterm.Warning.Println("Your session has expired. Run 'movieswipe login' to sign in again.")
}
