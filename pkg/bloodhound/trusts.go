package bloodhound

import (
	"github.com/5amu/adhound/pkg/ldap"
)

type TrustDirection int

const (
	TrustDisabled TrustDirection = iota
	TrustInbound
	TrustOutbound
	TrustBidirectional
)

func (d TrustDirection) String() string {
	switch d {
	case TrustDisabled:
		return "Disabled"
	case TrustInbound:
		return "Inbound"
	case TrustOutbound:
		return "Outbound"
	case TrustBidirectional:
		return "Bidirectional"
	}
	return "Unknown"
}

// trustType attribute values
type TrustType int

const (
	TrustTypeDownlevel TrustType = 1
	TrustTypeUplevel   TrustType = 2
	TrustTypeMIT       TrustType = 3
)

func (t TrustType) String() string {
	switch t {
	case TrustTypeDownlevel:
		return "WINDOWS_NON_ACTIVE_DIRECTORY"
	case TrustTypeUplevel:
		return "WINDOWS_ACTIVE_DIRECTORY"
	case TrustTypeMIT:
		return "MIT"
	}
	return "UNKNOWN"
}

// trustAttributes flags
// https://learn.microsoft.com/en-us/openspecs/windows_protocols/ms-adts/e9a2d23c-c31e-4a6f-88a0-6646fdb51a3c
const (
	TrustNonTransitive                        uint32 = 0x00000001
	TrustUplevelOnly                          uint32 = 0x00000002
	TrustQuarantinedDomain                    uint32 = 0x00000004
	TrustForestTransitive                     uint32 = 0x00000008
	TrustCrossOrganization                    uint32 = 0x00000010
	TrustWithinForest                         uint32 = 0x00000020
	TrustTreatAsExternal                      uint32 = 0x00000040
	TrustUsesRC4Encryption                    uint32 = 0x00000080
	TrustCrossOrganizationNoTGTDelegation     uint32 = 0x00000200
	TrustPIMTrust                             uint32 = 0x00000400
	TrustCrossOrganizationEnableTGTDelegation uint32 = 0x00000800
)

// TrustRelationship is one trustedDomain object as found in the directory.
type TrustRelationship struct {
	Name       string
	Direction  TrustDirection
	Type       TrustType
	Attributes uint32
	SID        string
}

func NewTrustRelationship(name string, direction, trustType, attributes int64, sid string) TrustRelationship {
	return TrustRelationship{
		Name:       name,
		Direction:  TrustDirection(direction),
		Type:       TrustType(trustType),
		Attributes: uint32(attributes),
		SID:        sid,
	}
}

// TrustFromEntry reads the trustedDomain attributes of e.
func TrustFromEntry(e *ldap.Entry) TrustRelationship {
	return NewTrustRelationship(
		ldap.GetString(e, ldap.Name, ""),
		ldap.GetInt(e, ldap.TrustDirection, 0),
		ldap.GetInt(e, ldap.TrustType, 0),
		ldap.GetInt(e, ldap.TrustAttributes, 0),
		ldap.GetSID(e, ldap.SecurityIdentifier),
	)
}

func (t TrustRelationship) HasFlag(flag uint32) bool {
	return t.Attributes&flag == flag
}

// Output converts the relationship to its ingestion form.
func (t TrustRelationship) Output() Trust {
	out := Trust{
		TargetDomainName: upper(t.Name),
		TargetDomainSid:  t.SID,
		TrustDirection:   t.Direction.String(),
	}

	switch {
	case t.HasFlag(TrustWithinForest):
		out.TrustType = "ParentChild"
		out.IsTransitive = true
		out.SidFilteringEnabled = t.HasFlag(TrustQuarantinedDomain)
	case t.HasFlag(TrustForestTransitive):
		out.TrustType = "Forest"
		out.IsTransitive = true
		out.SidFilteringEnabled = true
	case t.HasFlag(TrustTreatAsExternal) || t.HasFlag(TrustCrossOrganization):
		out.TrustType = "External"
		out.IsTransitive = false
		out.SidFilteringEnabled = true
	default:
		out.TrustType = "Unknown"
		out.IsTransitive = !t.HasFlag(TrustNonTransitive)
		out.SidFilteringEnabled = true
	}
	return out
}
