package bloodhound

import (
	"strings"

	"github.com/5amu/adhound/pkg/encoder"
	"github.com/5amu/adhound/pkg/ldap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Object types understood by the ingestor.
const (
	TypeUser      = "User"
	TypeComputer  = "Computer"
	TypeGroup     = "Group"
	TypeGPO       = "GPO"
	TypeOU        = "OU"
	TypeContainer = "Container"
	TypeDomain    = "Domain"
	TypeBase      = "Base"
)

// sAMAccountType values
const (
	samGroupObject         = 268435456
	samNonSecurityGroup    = 268435457
	samAliasObject         = 536870912
	samNonSecurityAlias    = 536870913
	samUserObject          = 805306368
	samMachineAccount      = 805306369
	samTrustAccount        = 805306370
	samAppBasicGroup       = 1073741824
	samAppQueryGroup       = 1073741825
	foreignPrincipalMarker = "CN=FOREIGNSECURITYPRINCIPALS,"
)

// cases.Caser is stateful, so build one per call.
func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// IsFilteredContainerChild reports whether a child of the domain head is left
// out of ChildObjects.
func IsFilteredContainerChild(dn string) bool {
	dn = upper(dn)
	return strings.Contains(dn, "CN=PROGRAM DATA,DC=") || strings.Contains(dn, "CN=SYSTEM,DC=")
}

// objectGUID returns the upper-cased textual GUID of e. Values that are not
// 16 raw bytes are assumed to be textual already.
func objectGUID(e *ldap.Entry) string {
	raw := ldap.GetBytes(e, ldap.ObjectGUID)
	if len(raw) == 16 {
		if s, err := encoder.StringFromUUID(raw); err == nil {
			return upper(s)
		}
	}
	return upper(strings.Trim(string(raw), "{}"))
}

func hasClass(classes []string, class string) bool {
	for _, c := range classes {
		if strings.EqualFold(c, class) {
			return true
		}
	}
	return false
}

// ResolveEntry derives the graph identifier and type of a directory entry.
// Security principals are identified by SID, everything else by objectGUID.
func ResolveEntry(e *ldap.Entry) TypedPrincipal {
	dn := ldap.GetString(e, ldap.DistinguishedName, "")
	if dn == "" && e != nil {
		dn = e.DN
	}
	sid := ldap.GetSID(e, ldap.ObjectSid)

	if !ldap.HasAttribute(e, ldap.SAMAccountName) {
		classes := ldap.GetStrings(e, ldap.ObjectClass)
		switch {
		case strings.Contains(upper(dn), foreignPrincipalMarker):
			if sid == "" {
				sid = ldap.GetString(e, ldap.Name, "")
			}
			return TypedPrincipal{ObjectIdentifier: sid, ObjectType: TypeBase}
		case hasClass(classes, "domain") || hasClass(classes, "domainDNS"):
			return TypedPrincipal{ObjectIdentifier: sid, ObjectType: TypeDomain}
		case hasClass(classes, "groupPolicyContainer"):
			return TypedPrincipal{ObjectIdentifier: objectGUID(e), ObjectType: TypeGPO}
		case hasClass(classes, "organizationalUnit"):
			return TypedPrincipal{ObjectIdentifier: objectGUID(e), ObjectType: TypeOU}
		case hasClass(classes, "container"):
			return TypedPrincipal{ObjectIdentifier: objectGUID(e), ObjectType: TypeContainer}
		}
		if sid != "" {
			return TypedPrincipal{ObjectIdentifier: sid, ObjectType: TypeBase}
		}
		return TypedPrincipal{ObjectIdentifier: objectGUID(e), ObjectType: TypeBase}
	}

	switch ldap.GetInt(e, ldap.SAMAccountType, 0) {
	case samGroupObject, samNonSecurityGroup, samAliasObject, samNonSecurityAlias, samAppBasicGroup, samAppQueryGroup:
		return TypedPrincipal{ObjectIdentifier: sid, ObjectType: TypeGroup}
	case samMachineAccount:
		if ldap.HasAttribute(e, ldap.GroupMSAMembership) {
			return TypedPrincipal{ObjectIdentifier: sid, ObjectType: TypeUser}
		}
		return TypedPrincipal{ObjectIdentifier: sid, ObjectType: TypeComputer}
	case samUserObject:
		return TypedPrincipal{ObjectIdentifier: sid, ObjectType: TypeUser}
	case samTrustAccount:
		return TypedPrincipal{ObjectIdentifier: sid, ObjectType: TypeBase}
	}
	return TypedPrincipal{ObjectIdentifier: sid, ObjectType: TypeDomain}
}

type wellKnownPrincipal struct {
	name       string
	objectType string
}

// Well-known SIDs are resolved locally and prefixed with the domain name,
// the way the ingestor expects them.
var wellKnownSIDs = map[string]wellKnownPrincipal{
	"S-1-0":        {"Null Authority", TypeUser},
	"S-1-0-0":      {"Nobody", TypeUser},
	"S-1-1":        {"World Authority", TypeUser},
	"S-1-1-0":      {"Everyone", TypeGroup},
	"S-1-2":        {"Local Authority", TypeUser},
	"S-1-2-0":      {"Local", TypeGroup},
	"S-1-2-1":      {"Console Logon", TypeGroup},
	"S-1-3":        {"Creator Authority", TypeUser},
	"S-1-3-0":      {"Creator Owner", TypeUser},
	"S-1-3-1":      {"Creator Group", TypeGroup},
	"S-1-5-1":      {"Dialup", TypeGroup},
	"S-1-5-2":      {"Network", TypeGroup},
	"S-1-5-3":      {"Batch", TypeGroup},
	"S-1-5-4":      {"Interactive", TypeGroup},
	"S-1-5-6":      {"Service", TypeGroup},
	"S-1-5-7":      {"Anonymous", TypeGroup},
	"S-1-5-9":      {"Enterprise Domain Controllers", TypeGroup},
	"S-1-5-10":     {"Principal Self", TypeUser},
	"S-1-5-11":     {"Authenticated Users", TypeGroup},
	"S-1-5-12":     {"Restricted Code", TypeGroup},
	"S-1-5-13":     {"Terminal Server Users", TypeGroup},
	"S-1-5-14":     {"Remote Interactive Logon", TypeGroup},
	"S-1-5-15":     {"This Organization", TypeGroup},
	"S-1-5-17":     {"IUSR", TypeUser},
	"S-1-5-18":     {"Local System", TypeUser},
	"S-1-5-19":     {"NT Authority", TypeUser},
	"S-1-5-20":     {"Network Service", TypeUser},
	"S-1-5-32-544": {"Administrators", TypeGroup},
	"S-1-5-32-545": {"Users", TypeGroup},
	"S-1-5-32-546": {"Guests", TypeGroup},
	"S-1-5-32-547": {"Power Users", TypeGroup},
	"S-1-5-32-548": {"Account Operators", TypeGroup},
	"S-1-5-32-549": {"Server Operators", TypeGroup},
	"S-1-5-32-550": {"Print Operators", TypeGroup},
	"S-1-5-32-551": {"Backup Operators", TypeGroup},
	"S-1-5-32-552": {"Replicators", TypeGroup},
	"S-1-5-32-554": {"Pre-Windows 2000 Compatible Access", TypeGroup},
	"S-1-5-32-555": {"Remote Desktop Users", TypeGroup},
	"S-1-5-32-556": {"Network Configuration Operators", TypeGroup},
	"S-1-5-32-557": {"Incoming Forest Trust Builders", TypeGroup},
	"S-1-5-32-558": {"Performance Monitor Users", TypeGroup},
	"S-1-5-32-559": {"Performance Log Users", TypeGroup},
	"S-1-5-32-560": {"Windows Authorization Access Group", TypeGroup},
	"S-1-5-32-561": {"Terminal Server License Servers", TypeGroup},
	"S-1-5-32-562": {"Distributed COM Users", TypeGroup},
	"S-1-5-32-568": {"IIS_IUSRS", TypeGroup},
	"S-1-5-32-569": {"Cryptographic Operators", TypeGroup},
	"S-1-5-32-573": {"Event Log Readers", TypeGroup},
	"S-1-5-32-574": {"Certificate Service DCOM Access", TypeGroup},
	"S-1-5-32-575": {"RDS Remote Access Servers", TypeGroup},
	"S-1-5-32-576": {"RDS Endpoint Servers", TypeGroup},
	"S-1-5-32-577": {"RDS Management Servers", TypeGroup},
	"S-1-5-32-578": {"Hyper-V Administrators", TypeGroup},
	"S-1-5-32-579": {"Access Control Assistance Operators", TypeGroup},
	"S-1-5-32-580": {"Remote Management Users", TypeGroup},
}

// WellKnownPrincipal returns the domain-qualified identifier and type of a
// well-known SID.
func WellKnownPrincipal(sid, domain string) (TypedPrincipal, bool) {
	p, ok := wellKnownSIDs[upper(sid)]
	if !ok {
		return TypedPrincipal{}, false
	}
	return TypedPrincipal{
		ObjectIdentifier: upper(domain) + "-" + upper(sid),
		ObjectType:       p.objectType,
	}, true
}
