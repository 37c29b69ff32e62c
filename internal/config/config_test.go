package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/5amu/adhound/internal/config"
	"github.com/5amu/adhound/pkg/bloodhound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := config.DefaultConfig()
	assert.Equal(t, config.DefaultPort, c.Port)
	assert.Equal(t, config.DefaultWorkers, c.Workers)
	assert.Equal(t, ".", c.Output.Dir)

	m, err := c.Methods()
	require.NoError(t, err)
	assert.Equal(t, bloodhound.Default, m)

	assert.ErrorIs(t, c.Validate(), config.ErrMissingDomain)
}

func TestLoadFromPath(t *testing.T) {
	path := writeFile(t, "adhound.yaml", `
domain: contoso.local
targets:
  - 10.0.0.10
ssl: true
auth:
  username: svc_collect
  kerberos: true
  krb5_conf: /etc/krb5.conf
collection: [trusts, acl, container]
output:
  dir: /tmp/out
  prefix: lab
verbose: true
`)
	c, err := config.LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "contoso.local", c.Domain)
	assert.Equal(t, []string{"10.0.0.10"}, c.Targets)
	assert.Equal(t, config.DefaultSSLPort, c.Port)
	assert.True(t, c.Auth.Kerberos)
	assert.Equal(t, "/etc/krb5.conf", c.Auth.Krb5Conf)
	assert.Equal(t, "lab", c.Output.Prefix)
	assert.True(t, c.Verbose)
	require.NoError(t, c.Validate())

	m, err := c.Methods()
	require.NoError(t, err)
	assert.Equal(t, bloodhound.All, m)
}

func TestLoadFromPathErrors(t *testing.T) {
	_, err := config.LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = config.LoadFromPath(writeFile(t, "bad.yaml", "domain: [unterminated"))
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	c := config.DefaultConfig()
	c.Domain = "contoso.local"
	assert.ErrorIs(t, c.Validate(), config.ErrMissingTarget)

	c.Targets = []string{"dc01"}
	c.Auth.Password = "Passw0rd!"
	c.Auth.NTLMHash = "31d6cfe0d16ae931b73c59d7e0c089c0"
	assert.ErrorIs(t, c.Validate(), config.ErrAuthConflict)

	c.Auth.NTLMHash = ""
	c.Collection = []string{"trusts", "bogus"}
	assert.ErrorIs(t, c.Validate(), bloodhound.ErrInvalidCollection)
}

func TestExpandTargets(t *testing.T) {
	file := writeFile(t, "targets.txt", "dc01.contoso.local\n\n10.0.0.10\n")

	got := config.ExpandTargets([]string{"10.0.0.8/30", file, "dc01.contoso.local", " "})
	assert.Equal(t, []string{"10.0.0.9", "10.0.0.10", "dc01.contoso.local"}, got)

	assert.Equal(t, []string{"10.0.0.1"}, config.ExpandTargets([]string{"10.0.0.1/32"}))
}
