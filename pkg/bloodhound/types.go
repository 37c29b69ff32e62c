package bloodhound

const (
	DataTypeDomains = "domains"
	SchemaVersion   = 5
)

type Meta struct {
	Type    string `json:"type"`
	Count   int    `json:"count"`
	Version int    `json:"version"`
}

// Domains is the envelope of a domains.json file.
type Domains struct {
	Data []*Domain `json:"data"`
	Meta Meta      `json:"meta"`
}

func NewDomains(records ...*Domain) *Domains {
	if records == nil {
		records = []*Domain{}
	}
	return &Domains{
		Data: records,
		Meta: Meta{
			Type:    DataTypeDomains,
			Count:   len(records),
			Version: SchemaVersion,
		},
	}
}

type DomainProperties struct {
	Name              string `json:"name"`
	Domain            string `json:"domain"`
	DomainSID         string `json:"domainsid"`
	DistinguishedName string `json:"distinguishedname"`
	Description       string `json:"description"`
	FunctionalLevel   string `json:"functionallevel"`
	HighValue         bool   `json:"highvalue"`
	WhenCreated       int64  `json:"whencreated"`
}

type Domain struct {
	ObjectIdentifier string           `json:"ObjectIdentifier"`
	Properties       DomainProperties `json:"Properties"`
	Trusts           []Trust          `json:"Trusts"`
	Aces             []ACE            `json:"Aces"`
	Links            []Link           `json:"Links"`
	ChildObjects     []TypedPrincipal `json:"ChildObjects"`
	GPOChanges       GPOChanges       `json:"GPOChanges"`
	IsDeleted        bool             `json:"IsDeleted"`
	IsACLProtected   bool             `json:"IsACLProtected"`
}

// GPOChanges is part of the schema but never populated by LDAP collection.
type GPOChanges struct {
	AffectedComputers  []TypedPrincipal `json:"AffectedComputers"`
	DcomUsers          []TypedPrincipal `json:"DcomUsers"`
	LocalAdmins        []TypedPrincipal `json:"LocalAdmins"`
	PSRemoteUsers      []TypedPrincipal `json:"PSRemoteUsers"`
	RemoteDesktopUsers []TypedPrincipal `json:"RemoteDesktopUsers"`
}

// NewDomain returns a record with every sequence initialised so that it
// serializes as [] rather than null.
func NewDomain(sid string) *Domain {
	return &Domain{
		ObjectIdentifier: sid,
		Properties:       DomainProperties{DomainSID: sid, HighValue: true},
		Trusts:           []Trust{},
		Aces:             []ACE{},
		Links:            []Link{},
		ChildObjects:     []TypedPrincipal{},
		GPOChanges: GPOChanges{
			AffectedComputers:  []TypedPrincipal{},
			DcomUsers:          []TypedPrincipal{},
			LocalAdmins:        []TypedPrincipal{},
			PSRemoteUsers:      []TypedPrincipal{},
			RemoteDesktopUsers: []TypedPrincipal{},
		},
	}
}

type TypedPrincipal struct {
	ObjectIdentifier string `json:"ObjectIdentifier"`
	ObjectType       string `json:"ObjectType"`
}

type ACE struct {
	PrincipalSID  string `json:"PrincipalSID"`
	PrincipalType string `json:"PrincipalType"`
	RightName     string `json:"RightName"`
	IsInherited   bool   `json:"IsInherited"`
}

type Link struct {
	IsEnforced bool   `json:"IsEnforced"`
	GUID       string `json:"GUID"`
}

type Trust struct {
	TargetDomainName    string `json:"TargetDomainName"`
	TargetDomainSid     string `json:"TargetDomainSid"`
	IsTransitive        bool   `json:"IsTransitive"`
	TrustDirection      string `json:"TrustDirection"`
	TrustType           string `json:"TrustType"`
	SidFilteringEnabled bool   `json:"SidFilteringEnabled"`
}
