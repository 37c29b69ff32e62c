package bloodhound_test

import (
	"testing"

	"github.com/5amu/adhound/pkg/bloodhound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCollectionMethods(t *testing.T) {
	tests := []struct {
		in   []string
		want bloodhound.CollectionMethod
	}{
		{nil, bloodhound.NoneMethod},
		{[]string{""}, bloodhound.NoneMethod},
		{[]string{"trusts"}, bloodhound.Trusts},
		{[]string{"ACL", "Container"}, bloodhound.ACL | bloodhound.Container},
		{[]string{"acl,trusts"}, bloodhound.ACL | bloodhound.Trusts},
		{[]string{"Default"}, bloodhound.Trusts},
		{[]string{"dconly"}, bloodhound.DCOnly},
		{[]string{"all"}, bloodhound.All},
		{[]string{"group,session,localadmin"}, bloodhound.NoneMethod},
		{[]string{"session", "trusts"}, bloodhound.Trusts},
	}
	for _, tt := range tests {
		got, err := bloodhound.ParseCollectionMethods(tt.in...)
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestParseCollectionMethodsInvalid(t *testing.T) {
	_, err := bloodhound.ParseCollectionMethods("trusts,gpo")
	assert.ErrorIs(t, err, bloodhound.ErrInvalidCollection)
	assert.Contains(t, err.Error(), `"gpo"`)
}

func TestCollectionMethodString(t *testing.T) {
	assert.Equal(t, "none", bloodhound.NoneMethod.String())
	assert.Equal(t, "trusts,acl,container", bloodhound.All.String())
	assert.Equal(t, "acl", bloodhound.ACL.String())

	c := bloodhound.Trusts | bloodhound.Container
	assert.True(t, c.Has(bloodhound.Trusts))
	assert.False(t, c.Has(bloodhound.ACL))
	assert.False(t, c.Has(bloodhound.NoneMethod))
}

func TestFunctionalLevel(t *testing.T) {
	for code, want := range map[string]string{
		"0":  "2000 Mixed/Native",
		"2":  "2003",
		"4":  "2008 R2",
		"7":  "2016",
		" 6": "2012 R2",
		"8":  "Unknown",
		"-1": "Unknown",
		"":   "Unknown",
		"x":  "Unknown",
	} {
		assert.Equal(t, want, bloodhound.FunctionalLevel(code), "code %q", code)
	}
}
