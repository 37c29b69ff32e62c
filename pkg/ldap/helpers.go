package ldap

import (
	"fmt"
	"strings"
)

const (
	FilterIsDomain        = "(objectClass=domain)"
	FilterIsTrustedDomain = "(objectClass=trustedDomain)"
	FilterAll             = "(objectClass=*)"
	FilterHasSchemaGUID   = "(schemaIDGUID=*)"
)

const (
	SAMAccountName         = "sAMAccountName"
	SAMAccountType         = "sAMAccountType"
	ObjectSid              = "objectSid"
	ObjectGUID             = "objectGUID"
	ObjectClass            = "objectClass"
	DistinguishedName      = "distinguishedName"
	Name                   = "name"
	Description            = "description"
	WhenCreated            = "whenCreated"
	BehaviorVersion        = "msDS-Behavior-Version"
	GPLink                 = "gPLink"
	NTSecurityDescriptor   = "nTSecurityDescriptor"
	TrustDirection         = "trustDirection"
	TrustType              = "trustType"
	TrustAttributes        = "trustAttributes"
	SecurityIdentifier     = "securityIdentifier"
	LDAPDisplayName        = "lDAPDisplayName"
	SchemaIDGUID           = "schemaIDGUID"
	GroupMSAMembership     = "msDS-GroupMSAMembership"
	DNSHostName            = "dNSHostName"
	SchemaNamingContext    = "schemaNamingContext"
	SchemaNamingContextRDN = "CN=Schema,CN=Configuration"
)

func JoinFilters(filters ...string) string {
	var builder strings.Builder
	builder.WriteString("(&")
	for _, s := range filters {
		builder.WriteString(s)
	}
	builder.WriteString(")")
	return builder.String()
}

func NegativeFilter(filter string) string {
	return fmt.Sprintf("(!%s)", filter)
}

func NewFilter(attribute string, equalsTo string) string {
	return fmt.Sprintf("(%s=%s)", attribute, equalsTo)
}

// EscapeBinary renders raw bytes as a filter assertion value, e.g. for
// matching objectSid.
func EscapeBinary(b []byte) string {
	var builder strings.Builder
	for _, c := range b {
		builder.WriteString(fmt.Sprintf("\\%02x", c))
	}
	return builder.String()
}

// ToDN converts a DNS domain name to its naming context.
func ToDN(domain string) string {
	if domain == "" {
		return ""
	}
	return fmt.Sprintf("DC=%s", strings.Join(strings.Split(domain, "."), ",DC="))
}

// DNToDomain extracts the DNS domain from the DC components of a DN.
func DNToDomain(dn string) string {
	var parts []string
	for _, rdn := range strings.Split(dn, ",") {
		rdn = strings.TrimSpace(rdn)
		if len(rdn) > 3 && strings.EqualFold(rdn[:3], "dc=") {
			parts = append(parts, rdn[3:])
		}
	}
	return strings.Join(parts, ".")
}
