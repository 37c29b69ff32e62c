package bloodhound_test

import (
	"testing"

	"github.com/5amu/adhound/pkg/bloodhound"
	"github.com/stretchr/testify/assert"
)

func TestTrustOutput(t *testing.T) {
	tests := []struct {
		name       string
		direction  int64
		attributes uint32
		want       bloodhound.Trust
	}{
		{
			name:       "parent child",
			direction:  3,
			attributes: bloodhound.TrustWithinForest,
			want:       bloodhound.Trust{TrustDirection: "Bidirectional", TrustType: "ParentChild", IsTransitive: true},
		},
		{
			name:       "quarantined parent child",
			direction:  3,
			attributes: bloodhound.TrustWithinForest | bloodhound.TrustQuarantinedDomain,
			want:       bloodhound.Trust{TrustDirection: "Bidirectional", TrustType: "ParentChild", IsTransitive: true, SidFilteringEnabled: true},
		},
		{
			name:       "forest",
			direction:  1,
			attributes: bloodhound.TrustForestTransitive,
			want:       bloodhound.Trust{TrustDirection: "Inbound", TrustType: "Forest", IsTransitive: true, SidFilteringEnabled: true},
		},
		{
			name:       "external",
			direction:  2,
			attributes: bloodhound.TrustTreatAsExternal,
			want:       bloodhound.Trust{TrustDirection: "Outbound", TrustType: "External", SidFilteringEnabled: true},
		},
		{
			name:       "cross organization",
			direction:  2,
			attributes: bloodhound.TrustCrossOrganization | bloodhound.TrustForestTransitive,
			want:       bloodhound.Trust{TrustDirection: "Outbound", TrustType: "Forest", IsTransitive: true, SidFilteringEnabled: true},
		},
		{
			name:       "unknown transitive",
			direction:  0,
			attributes: 0,
			want:       bloodhound.Trust{TrustDirection: "Disabled", TrustType: "Unknown", IsTransitive: true, SidFilteringEnabled: true},
		},
		{
			name:       "unknown non transitive",
			direction:  3,
			attributes: bloodhound.TrustNonTransitive,
			want:       bloodhound.Trust{TrustDirection: "Bidirectional", TrustType: "Unknown", SidFilteringEnabled: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := bloodhound.NewTrustRelationship("fabrikam.com", tt.direction, 2, int64(tt.attributes), "S-1-5-21-4-5-6")
			tt.want.TargetDomainName = "FABRIKAM.COM"
			tt.want.TargetDomainSid = "S-1-5-21-4-5-6"
			assert.Equal(t, tt.want, tr.Output())
		})
	}
}

func TestTrustLabels(t *testing.T) {
	assert.Equal(t, "Unknown", bloodhound.TrustDirection(9).String())
	assert.Equal(t, "WINDOWS_ACTIVE_DIRECTORY", bloodhound.TrustTypeUplevel.String())
	assert.Equal(t, "MIT", bloodhound.TrustTypeMIT.String())
	assert.Equal(t, "UNKNOWN", bloodhound.TrustType(0).String())
}

func TestTrustFromEntry(t *testing.T) {
	tr := bloodhound.TrustFromEntry(trustEntry(t, "child.contoso.local", "3", "2", "32", "S-1-5-21-1-2-3"))
	assert.Equal(t, bloodhound.TrustRelationship{
		Name:       "child.contoso.local",
		Direction:  bloodhound.TrustBidirectional,
		Type:       bloodhound.TrustTypeUplevel,
		Attributes: bloodhound.TrustWithinForest,
		SID:        "S-1-5-21-1-2-3",
	}, tr)
	assert.True(t, tr.HasFlag(bloodhound.TrustWithinForest))
	assert.False(t, tr.HasFlag(bloodhound.TrustForestTransitive))
}
