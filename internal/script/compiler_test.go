package script

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }

func newTestCompiler() *Compiler {
	return NewCompiler(Config{Now: fixedNow})
}

func op(mailbox, user string, a Action, rights ...string) Operation {
	return Operation{MailboxIdentity: mailbox, UserToModify: user, ActionType: a, AccessRights: rights}
}

func TestCompile_LogFileName(t *testing.T) {
	s, err := newTestCompiler().Compile(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ExchangePermissionScript_20240309_140507.log", s.LogFile)
	assert.Contains(t, s.Content, `$LogFilePath = "$PSScriptRoot\ExchangePermissionScript_20240309_140507.log"`)

	c := NewCompiler(Config{LogPrefix: `bad"prefix$`, Now: fixedNow})
	s, err = c.Compile(nil, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.LogFile, DefaultLogPrefix+"_"))
}

func TestCompile_SectionOrder(t *testing.T) {
	s, err := newTestCompiler().Compile([]Operation{op("stan", "kyle", ActionAdd, "FullAccess")}, nil)
	require.NoError(t, err)

	idx := func(sub string) int {
		i := strings.Index(s.Content, sub)
		require.GreaterOrEqual(t, i, 0, "missing %q", sub)
		return i
	}
	order := []int{
		idx("Function Write-Log"),
		idx("-Type 'START'"),
		idx("Get-PSSession"),
		idx("# Début des modifications des permissions"),
		idx("Add-MailboxPermission"),
		idx("Disconnect-ExchangeOnline"),
		idx("-Type 'END'"),
	}
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1], order[i])
	}
}

func TestCompile_WithoutCredentialsChecksSession(t *testing.T) {
	s, err := newTestCompiler().Compile(nil, nil)
	require.NoError(t, err)
	assert.Contains(t, s.Content, CodeNoActiveSession)
	assert.Contains(t, s.Content, CodeSessionCheckFailed)
	assert.NotContains(t, s.Content, "Connect-ExchangeOnline -Credential")
	assert.NotContains(t, s.Content, "$EncodedPassword")
}

func TestCompile_WithCredentials(t *testing.T) {
	creds := &Credentials{Username: "admin", Password: "p@ss'w0rd", Domain: "admr50.fr"}
	s, err := newTestCompiler().Compile(nil, creds)
	require.NoError(t, err)

	assert.Contains(t, s.Content, "PSCredential ('admin@admr50.fr', $SecurePassword)")
	assert.Contains(t, s.Content, "Connect-ExchangeOnline -Credential $Credential")
	assert.Contains(t, s.Content, CodeConnectFailed)
	assert.Contains(t, s.Content, "exit 1")
	assert.NotContains(t, s.Content, "p@ss'w0rd")
	assert.NotContains(t, s.Content, "Get-PSSession")

	// la contraseña se recupera desde el literal embebido
	enc := EncodePassword("p@ss'w0rd")
	assert.Contains(t, s.Content, "$EncodedPassword = '"+enc+"'")
	dec, err := base64.StdEncoding.DecodeString(enc)
	require.NoError(t, err)
	assert.Equal(t, "p@ss'w0rd", string(dec))
}

func TestCompile_UsernameWithDomainIsKept(t *testing.T) {
	creds := &Credentials{Username: "root@other.org", Password: "x", Domain: "admr50.fr"}
	s, err := newTestCompiler().Compile(nil, creds)
	require.NoError(t, err)
	assert.Contains(t, s.Content, "PSCredential ('root@other.org', $SecurePassword)")
}

func TestCompile_MissingAuthField(t *testing.T) {
	cases := map[string]Credentials{
		"no password": {Username: "admin", Domain: "admr50.fr"},
		"no username": {Password: "x", Domain: "admr50.fr"},
		"no domain":   {Username: "admin", Password: "x"},
	}
	for name, creds := range cases {
		t.Run(name, func(t *testing.T) {
			creds := creds
			s, err := newTestCompiler().Compile([]Operation{op("a", "b", ActionAdd, "SendAs")}, &creds)
			assert.Nil(t, s)
			require.ErrorIs(t, err, ErrMissingAuthField)
		})
	}

	_, err := newTestCompiler().Compile(nil, &Credentials{Username: "admin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain, password")
}

func TestCompile_ReservedPrincipalNeverEmitsCommands(t *testing.T) {
	for _, user := range []string{`NT AUTHORITY\SELF`, ` nt authority\self `} {
		s, err := newTestCompiler().Compile([]Operation{op("stan", user, ActionRemove, "FullAccess", "SendAs")}, nil)
		require.NoError(t, err)

		assert.NotContains(t, s.Content, "Remove-MailboxPermission")
		assert.NotContains(t, s.Content, "Remove-RecipientPermission")
		assert.Equal(t, 1, strings.Count(s.Content, CodeReserved))
		require.Len(t, s.Results, 1)
		assert.Equal(t, StatusReserved, s.Results[0].Status)
	}
}

func TestCompile_MalformedOperation(t *testing.T) {
	cases := map[string]Operation{
		"no mailbox":   op("", "kyle", ActionAdd, "FullAccess"),
		"no user":      op("stan", "  ", ActionAdd, "FullAccess"),
		"bad action":   op("stan", "kyle", Action("grant"), "FullAccess"),
		"no rights":    op("stan", "kyle", ActionAdd),
		"blank rights": op("stan", "kyle", ActionAdd, " ", ""),
	}
	for name, o := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := newTestCompiler().Compile([]Operation{o}, nil)
			require.NoError(t, err)

			assert.Equal(t, 1, strings.Count(s.Content, CodeMalformed))
			assert.NotContains(t, s.Content, "-MailboxPermission")
			assert.NotContains(t, s.Content, "-RecipientPermission")
			assert.NotContains(t, s.Content, "Set-Mailbox")
			assert.Equal(t, StatusMalformed, s.Results[0].Status)
		})
	}
}

func TestCompile_ActionIsCaseInsensitive(t *testing.T) {
	s, err := newTestCompiler().Compile([]Operation{op("stan", "kyle", Action(" ADD "), "fullaccess")}, nil)
	require.NoError(t, err)
	assert.Contains(t, s.Content, "Add-MailboxPermission")
	assert.Equal(t, StatusApplied, s.Results[0].Status)
	assert.Equal(t, []string{"FullAccess"}, s.Results[0].Rights)
}

func TestCompile_EachRightHasItsOwnTryCatch(t *testing.T) {
	ops := []Operation{
		op("stan", "kyle", ActionAdd, "FullAccess", "SendAs"),
		op("cartman", "butters", ActionRemove, "SendAs"),
	}
	s, err := newTestCompiler().Compile(ops, nil)
	require.NoError(t, err)

	// 1 del chequeo de sesión + 3 derechos
	assert.Equal(t, 4, strings.Count(s.Content, "} catch {"))
	assert.Equal(t, 3, strings.Count(s.Content, CodeOperationFailed))
	assert.Contains(t, s.Content, "Add-MailboxPermission")
	assert.Contains(t, s.Content, "Add-RecipientPermission")
	assert.Contains(t, s.Content, "Remove-RecipientPermission")
	assert.Equal(t, 2, strings.Count(s.Content, "MAILBOX_NOT_FOUND_SENDAS"))
	assert.Equal(t, 2, s.Count(StatusApplied))
}

func TestCompile_DuplicateRightsEmittedOnce(t *testing.T) {
	s, err := newTestCompiler().Compile([]Operation{op("stan", "kyle", ActionAdd, "FullAccess", "fullaccess")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(s.Content, "Add-MailboxPermission"))
}

func TestCompile_SendOnBehalf(t *testing.T) {
	s, err := newTestCompiler().Compile([]Operation{op("stan", "kyle", ActionRemove, "SendOnBehalf")}, nil)
	require.NoError(t, err)
	assert.Contains(t, s.Content, "-GrantSendOnBehalfTo @{Remove=$userTarget}")
}

func TestCompile_UnknownRightIsAWarning(t *testing.T) {
	s, err := newTestCompiler().Compile([]Operation{
		op("stan", "kyle", ActionAdd, "ReadPermission", "FullAccess"),
		op("stan", "wendy", ActionAdd, "ChangeOwner"),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(s.Content, CodeUnknownRight))
	require.Len(t, s.Results, 2)
	assert.Equal(t, StatusApplied, s.Results[0].Status)
	assert.Equal(t, []string{"ReadPermission"}, s.Results[0].UnknownRights)
	assert.Equal(t, StatusNoKnownRights, s.Results[1].Status)
	assert.Equal(t, 1, strings.Count(s.Content, "Add-MailboxPermission"))
}

func TestCompile_QuotesInterpolatedValues(t *testing.T) {
	s, err := newTestCompiler().Compile([]Operation{op("o'brien@x.fr", "evil'; Remove-Mailbox -Identity x; '", ActionAdd, "FullAccess")}, nil)
	require.NoError(t, err)

	assert.Contains(t, s.Content, "$mailboxTarget = 'o''brien@x.fr'")
	assert.Contains(t, s.Content, "$userTarget = 'evil''; Remove-Mailbox -Identity x; '''")
}

func TestCompile_NewlinesDoNotBreakLines(t *testing.T) {
	s, err := newTestCompiler().Compile([]Operation{op("stan\r\nWrite-Host pwned", "kyle", ActionAdd, "SendAs")}, nil)
	require.NoError(t, err)
	for _, l := range strings.Split(s.Content, "\n") {
		assert.False(t, strings.HasPrefix(strings.TrimSpace(l), "Write-Host pwned"))
	}
}

func TestCompile_Deterministic(t *testing.T) {
	ops := []Operation{
		op("stan", "kyle", ActionAdd, "FullAccess", "SendAs"),
		op("stan", `NT AUTHORITY\SELF`, ActionAdd, "FullAccess"),
		op("", "", ActionAdd),
	}
	a, err := newTestCompiler().Compile(ops, nil)
	require.NoError(t, err)
	b, err := newTestCompiler().Compile(ops, nil)
	require.NoError(t, err)
	assert.Equal(t, a.Content, b.Content)
	assert.Equal(t, a.Results, b.Results)
}

func TestRights_UnmarshalJSON(t *testing.T) {
	var o Operation
	require.NoError(t, json.Unmarshal([]byte(`{"mailboxIdentity":"m","userToModify":"u","actionType":"add","accessRights":"FullAccess, SendAs"}`), &o))
	assert.Equal(t, Rights{"FullAccess", "SendAs"}, o.AccessRights)

	require.NoError(t, json.Unmarshal([]byte(`{"accessRights":["SendAs"]}`), &o))
	assert.Equal(t, Rights{"SendAs"}, o.AccessRights)

	assert.Error(t, json.Unmarshal([]byte(`{"accessRights":42}`), &o))
}

func TestOperations_UnmarshalJSON(t *testing.T) {
	var ops Operations
	require.NoError(t, json.Unmarshal([]byte(`[
		{"mailboxIdentity":"stan","userToModify":"kyle","actionType":"add","accessRights":42},
		null,
		{"mailboxIdentity":"stan","userToModify":"kyle","actionType":"add","accessRights":"SendAs"}
	]`), &ops))
	require.Len(t, ops, 3)
	assert.True(t, ops[0].undecodable)
	assert.False(t, ops[2].undecodable)

	s, err := newTestCompiler().Compile(ops, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusMalformed, s.Results[0].Status)
	assert.Equal(t, StatusMalformed, s.Results[1].Status)
	assert.Equal(t, StatusApplied, s.Results[2].Status)
	assert.Equal(t, 2, strings.Count(s.Content, CodeMalformed))

	assert.Error(t, json.Unmarshal([]byte(`{"mailboxIdentity":"stan"}`), &ops))
}

func TestCompile_TrimsCredentials(t *testing.T) {
	for name, creds := range map[string]Credentials{
		"blank username": {Username: "  ", Password: "x", Domain: "admr50.fr"},
		"blank domain":   {Username: "admin", Password: "x", Domain: " \t"},
	} {
		t.Run(name, func(t *testing.T) {
			creds := creds
			_, err := newTestCompiler().Compile(nil, &creds)
			require.ErrorIs(t, err, ErrMissingAuthField)
		})
	}

	s, err := newTestCompiler().Compile(nil, &Credentials{Username: " admin ", Password: " p ", Domain: " admr50.fr "})
	require.NoError(t, err)
	assert.Contains(t, s.Content, "PSCredential ('admin@admr50.fr', $SecurePassword)")
	assert.Contains(t, s.Content, "$EncodedPassword = '"+EncodePassword(" p ")+"'")
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "'plain'", quote("plain"))
	assert.Equal(t, "'it''s'", quote("it's"))
	assert.Equal(t, "'a’’b'", quote("a’b"))
	assert.Equal(t, "'a b'", quote("a\nb"))
}
