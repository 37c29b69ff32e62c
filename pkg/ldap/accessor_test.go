package ldap_test

import (
	"testing"

	"github.com/5amu/adhound/pkg/ldap"
	"github.com/5amu/adhound/pkg/mstypes"
	goldap "github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStringDefaults(t *testing.T) {
	e := goldap.NewEntry("DC=corp,DC=local", map[string][]string{
		"description": {"first", "second"},
		"name":        {"corp"},
	})

	assert.Equal(t, "first", ldap.GetString(e, "description", ""))
	assert.Equal(t, "corp", ldap.GetString(e, "NAME", ""))
	assert.Equal(t, "fallback", ldap.GetString(e, "missing", "fallback"))
	assert.Equal(t, "fallback", ldap.GetString(nil, "name", "fallback"))
	assert.Equal(t, []string{"first", "second"}, ldap.GetStrings(e, "Description"))
	assert.True(t, ldap.HasAttribute(e, "name"))
	assert.False(t, ldap.HasAttribute(e, "gPLink"))
}

func TestGetInt(t *testing.T) {
	e := goldap.NewEntry("DC=corp,DC=local", map[string][]string{
		"msDS-Behavior-Version": {"7"},
		"trustAttributes":       {"not a number"},
	})

	assert.EqualValues(t, 7, ldap.GetInt(e, "msds-behavior-version", -1))
	assert.EqualValues(t, -1, ldap.GetInt(e, "trustAttributes", -1))
	assert.EqualValues(t, 0, ldap.GetInt(e, "trustDirection", 0))
}

func TestGetTimestamp(t *testing.T) {
	e := goldap.NewEntry("DC=corp,DC=local", map[string][]string{
		"whenCreated": {"20200101000000.0Z"},
		"epoch":       {"1577836800"},
		"garbage":     {"yesterday"},
	})

	assert.EqualValues(t, 1577836800, ldap.GetTimestamp(e, "whencreated", 0))
	assert.EqualValues(t, 1577836800, ldap.GetTimestamp(e, "epoch", 0))
	assert.EqualValues(t, 0, ldap.GetTimestamp(e, "garbage", 0))
	assert.EqualValues(t, 0, ldap.GetTimestamp(e, "missing", 0))
}

func TestGetSID(t *testing.T) {
	sid, err := mstypes.ParseSID("S-1-5-21-1004336348-1177238915-682003330")
	require.NoError(t, err)
	raw, err := sid.MarshalBinary()
	require.NoError(t, err)

	e := goldap.NewEntry("DC=corp,DC=local", map[string][]string{
		"objectSid":          {string(raw)},
		"securityIdentifier": {"S-1-5-21-1-2-3"},
		"broken":             {string([]byte{1, 4, 0})},
	})

	assert.Equal(t, "S-1-5-21-1004336348-1177238915-682003330", ldap.GetSID(e, "objectsid"))
	assert.Equal(t, "S-1-5-21-1-2-3", ldap.GetSID(e, "securityIdentifier"))
	assert.Equal(t, "", ldap.GetSID(e, "broken"))
	assert.Equal(t, "", ldap.GetSID(e, "missing"))
}

func TestDomainNameHelpers(t *testing.T) {
	assert.Equal(t, "DC=corp,DC=local", ldap.ToDN("corp.local"))
	assert.Equal(t, "", ldap.ToDN(""))
	assert.Equal(t, "corp.local", ldap.DNToDomain("CN=Users,DC=corp,dc=local"))
	assert.Equal(t, `\01\05\ff`, ldap.EscapeBinary([]byte{1, 5, 255}))
	assert.Equal(t, "(&(a=1)(!(b=2)))", ldap.JoinFilters(ldap.NewFilter("a", "1"), ldap.NegativeFilter(ldap.NewFilter("b", "2"))))
}

func TestEncodeSID(t *testing.T) {
	v, err := ldap.EncodeSID("S-1-5-32-544")
	require.NoError(t, err)
	assert.Equal(t, `\01\02\00\00\00\00\00\05\20\00\00\00\20\02\00\00`, v)

	_, err = ldap.EncodeSID("not a sid")
	assert.ErrorIs(t, err, mstypes.ErrMalformedSID)
}
