package permissions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Poutchouli/SharedMailbox-editor/internal/http/dto"
	"github.com/Poutchouli/SharedMailbox-editor/internal/script"
)

func newTestService(requireAuth bool) Service {
	return NewService(Deps{
		Compiler: script.NewCompiler(script.Config{
			Now: func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
		}),
		DefaultDomain: "admr50.fr",
		RequireAuth:   requireAuth,
	})
}

var oneOp = []script.Operation{{
	MailboxIdentity: "stan", UserToModify: "kyle", ActionType: script.ActionAdd, AccessRights: script.Rights{"FullAccess"},
}}

func strPtr(s string) *string { return &s }

func TestGenerate_NoOperations(t *testing.T) {
	_, err := newTestService(false).Generate(context.Background(), dto.GenerateRequest{})
	assert.ErrorIs(t, err, ErrNoOperations)
}

func TestGenerate_DefaultDomain(t *testing.T) {
	sc, err := newTestService(false).Generate(context.Background(), dto.GenerateRequest{
		Operations: oneOp, AuthEnabled: true, Username: "admin", Password: "pw",
	})
	require.NoError(t, err)
	assert.Contains(t, sc.Content, "'admin@admr50.fr'")
}

func TestGenerate_ExplicitEmptyDomainIsMissing(t *testing.T) {
	_, err := newTestService(false).Generate(context.Background(), dto.GenerateRequest{
		Operations: oneOp, AuthEnabled: true, Username: "admin", Password: "pw", Domain: strPtr(" "),
	})
	assert.ErrorIs(t, err, script.ErrMissingAuthField)
}

func TestGenerate_AuthDisabledIgnoresCredentials(t *testing.T) {
	sc, err := newTestService(false).Generate(context.Background(), dto.GenerateRequest{
		Operations: oneOp, Username: "admin",
	})
	require.NoError(t, err)
	assert.Contains(t, sc.Content, "Get-PSSession")
	assert.NotContains(t, sc.Content, "admin")
}

func TestGenerate_RequireAuthForcesCredentials(t *testing.T) {
	_, err := newTestService(true).Generate(context.Background(), dto.GenerateRequest{Operations: oneOp})
	assert.ErrorIs(t, err, script.ErrMissingAuthField)

	sc, err := newTestService(true).Generate(context.Background(), dto.GenerateRequest{
		Operations: oneOp, Username: "root@other.fr", Password: "pw",
	})
	require.NoError(t, err)
	assert.Contains(t, sc.Content, "Connect-ExchangeOnline -Credential")
}
