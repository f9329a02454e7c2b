package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScanner []Finding

func (s stubScanner) Scan(string) []Finding { return s }

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(nil, "anything"))
	assert.NoError(t, Check(stubScanner(nil), "plain prose"))

	err := Check(stubScanner{{RuleID: "aws-access-token"}}, "AKIA...")
	require.ErrorIs(t, err, ErrSecretDetected)
	assert.Contains(t, err.Error(), "aws-access-token")
}

func TestGitleaks(t *testing.T) {
	g, err := NewGitleaks()
	require.NoError(t, err)

	assert.Empty(t, g.Scan("Please rewrite this friendly note about lunch."))

	findings := g.Scan(`token := "ghp_` + "abcdefghijklmnopqrstuvwxyz0123456789" + `"`)
	require.NotEmpty(t, findings)
	rules := make([]string, 0, len(findings))
	for _, f := range findings {
		rules = append(rules, f.RuleID)
	}
	assert.Contains(t, rules, "github-pat")
}

func TestSecretErrorUnwraps(t *testing.T) {
	var err error = &SecretError{RuleID: "github-pat"}
	assert.ErrorIs(t, err, ErrSecretDetected)
	assert.Equal(t, "selection looks like it contains a secret (github-pat)", err.Error())
}
