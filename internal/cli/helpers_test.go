package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-certify/internal/config"
	"github.com/stemsi/exstem-certify/internal/repository"
	"github.com/stemsi/exstem-certify/internal/testutil"
)

// cliEnv runs commands against a fake authority. The credential repository
// outlives each invocation the way a file on disk would.
type cliEnv struct {
	authority *testutil.Authority
	repo      *repository.MemoryCredentialRepository
	certDir   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	e := &cliEnv{
		authority: testutil.NewAuthority(t),
		repo:      repository.NewMemoryCredentialRepository(),
		certDir:   t.TempDir(),
	}
	e.authority.Enroll("jane@example.com", "A1B2C3D4")
	return e
}

func (e *cliEnv) factory() AppFactory {
	return func(ctx context.Context, _ *RootOptions, _ io.Writer) (*App, error) {
		cfg := &config.Config{
			APIBaseURL:        e.authority.URL(),
			RequestTimeout:    5 * time.Second,
			CredentialBackend: config.BackendMemory,
			CertificateDir:    e.certDir,
		}
		app := NewApp(cfg, e.repo, zerolog.Nop())
		if err := app.Creds.Load(ctx); err != nil {
			return nil, err
		}
		return app, nil
	}
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return execute(e.factory(), stdin, args...)
}

func execute(factory AppFactory, stdin string, args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd := NewRootCommand(factory)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// Replies to testutil.Questions in order.
const (
	passingReplies = "t\n2\nf\n2\ny\n"
	failingReplies = "f\n1\nt\n1\nn\n"
)
