package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-certify/internal/artifact"
	"github.com/stemsi/exstem-certify/internal/config"
	"github.com/stemsi/exstem-certify/internal/database"
	"github.com/stemsi/exstem-certify/internal/exam"
	"github.com/stemsi/exstem-certify/internal/logger"
	"github.com/stemsi/exstem-certify/internal/remote"
	"github.com/stemsi/exstem-certify/internal/repository"
	"github.com/stemsi/exstem-certify/internal/service"
)

// App is the engine wired for one command invocation.
type App struct {
	Config     *config.Config
	Log        zerolog.Logger
	Creds      *service.CredentialStore
	Slot       *exam.Slot
	Redemption *service.RedemptionService
	Submission *service.SubmissionService
	Auth       *service.AuthService
	Admin      *service.AdminService

	closers []func() error
}

// AppFactory builds the App a command runs against. Logs go to logOut.
type AppFactory func(ctx context.Context, opts *RootOptions, logOut io.Writer) (*App, error)

// NewApp wires the engine over repo. The persisted credential is not loaded;
// callers do that with Creds.Load.
func NewApp(cfg *config.Config, repo repository.CredentialRepository, log zerolog.Logger) *App {
	creds := service.NewCredentialStore(repo, log)
	slot := exam.NewSlot()
	client := remote.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, creds, log)

	return &App{
		Config:     cfg,
		Log:        log,
		Creds:      creds,
		Slot:       slot,
		Redemption: service.NewRedemptionService(client, creds, slot, log),
		Submission: service.NewSubmissionService(client, artifact.NewFileSaver(cfg.CertificateDir, log), cfg.RequestTimeout, log),
		Auth:       service.NewAuthService(client, creds, slot, log),
		Admin:      service.NewAdminService(client, creds, log),
	}
}

// OpenApp opens the configured credential backend, wires the engine and
// restores the persisted credential.
func OpenApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	repo, closer, err := openRepository(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	app := NewApp(cfg, repo, log)
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	if err := app.Creds.Load(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// DefaultAppFactory reads configuration from the environment. --verbose
// raises the log level to debug.
func DefaultAppFactory(ctx context.Context, opts *RootOptions, logOut io.Writer) (*App, error) {
	cfg := config.Load()

	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	log := logger.Setup(level, cfg.LogFormat, logOut)

	return OpenApp(ctx, cfg, log)
}

// Close releases the credential backend.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.CredentialRepository, func() error, error) {
	switch cfg.CredentialBackend {
	case config.BackendMemory:
		return repository.NewMemoryCredentialRepository(), nil, nil

	case config.BackendRedis:
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis credential backend: %w", err)
		}
		return repository.NewRedisCredentialRepository(rdb, cfg.CredentialKey), rdb.Close, nil

	default:
		db, err := database.NewBoltDB(cfg, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt credential backend: %w", err)
		}
		return repository.NewBoltCredentialRepository(db, cfg.CredentialKey), db.Close, nil
	}
}
