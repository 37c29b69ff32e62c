package bloodhound

import (
	"context"
	"fmt"
	"strings"

	"github.com/5amu/adhound/pkg/mstypes"
	"github.com/google/uuid"
)

// Edge names emitted for access-control entries.
const (
	RightOwns                    = "Owns"
	RightGenericAll              = "GenericAll"
	RightGenericWrite            = "GenericWrite"
	RightWriteDacl               = "WriteDacl"
	RightWriteOwner              = "WriteOwner"
	RightAllExtendedRights       = "AllExtendedRights"
	RightGetChanges              = "GetChanges"
	RightGetChangesAll           = "GetChangesAll"
	RightGetChangesInFilteredSet = "GetChangesInFilteredSet"
)

// Extended rights granting directory replication.
var replicationRights = map[uuid.UUID]string{
	uuid.MustParse("1131f6aa-9c07-11d1-f79f-00c04fc2dcd2"): RightGetChanges,
	uuid.MustParse("1131f6ad-9c07-11d1-f79f-00c04fc2dcd2"): RightGetChangesAll,
	uuid.MustParse("89e95b76-444d-4c62-991a-0facbeda640c"): RightGetChangesInFilteredSet,
}

// schemaIDGUID of the domain class, used when the schema map is missing.
var domainClassGUID = uuid.MustParse("19195a5a-6da0-11d0-afd3-00c04fd930c9")

// Principals that never produce an edge.
var ignoredSIDs = map[string]struct{}{
	"S-1-3-0":  {}, // Creator Owner
	"S-1-5-18": {}, // Local System
	"S-1-5-10": {}, // Principal Self
}

// ACLParser turns a raw nTSecurityDescriptor into output ACEs.
type ACLParser interface {
	ParseACL(ctx context.Context, objectType string, descriptor []byte, classGUIDs map[string]string) (protected bool, aces []ACE, err error)
}

// PrincipalResolver returns the object type of the principal owning sid.
type PrincipalResolver interface {
	ResolveSID(ctx context.Context, sid string) (string, error)
}

// DefaultACLParser decodes descriptors with pkg/mstypes and maps access masks
// to edges. Principal types come from Resolver; well-known SIDs are resolved
// locally and prefixed with DomainName.
type DefaultACLParser struct {
	Resolver   PrincipalResolver
	DomainName string
}

func NewACLParser(resolver PrincipalResolver, domain string) *DefaultACLParser {
	return &DefaultACLParser{Resolver: resolver, DomainName: domain}
}

func (p *DefaultACLParser) ParseACL(ctx context.Context, objectType string, descriptor []byte, classGUIDs map[string]string) (bool, []ACE, error) {
	if len(descriptor) == 0 {
		return false, []ACE{}, nil
	}
	sd, err := mstypes.ParseSecurityDescriptor(descriptor)
	if err != nil {
		return false, nil, fmt.Errorf("parse %s descriptor: %w", objectType, err)
	}
	protected := sd.HasControl(mstypes.SE_DACL_PROTECTED)

	aces := []ACE{}
	if sd.Owner != nil {
		if ace, ok := p.ace(ctx, sd.Owner.String(), RightOwns, false); ok {
			aces = append(aces, ace)
		}
	}
	if sd.DACL == nil {
		return protected, aces, nil
	}

	classGUID := objectClassGUID(objectType, classGUIDs)
	for i := range sd.DACL.ACEs {
		entry := &sd.DACL.ACEs[i]
		if !appliesTo(entry, classGUID) {
			continue
		}
		inherited := entry.HasFlag(mstypes.INHERITED_ACE)
		for _, right := range rights(entry) {
			if ace, ok := p.ace(ctx, entry.SID.String(), right, inherited); ok {
				aces = append(aces, ace)
			}
		}
	}
	return protected, dedupe(aces), nil
}

func (p *DefaultACLParser) ace(ctx context.Context, sid, right string, inherited bool) (ACE, bool) {
	if _, ok := ignoredSIDs[sid]; ok {
		return ACE{}, false
	}
	principal := p.principal(ctx, sid)
	return ACE{
		PrincipalSID:  principal.ObjectIdentifier,
		PrincipalType: principal.ObjectType,
		RightName:     right,
		IsInherited:   inherited,
	}, true
}

func (p *DefaultACLParser) principal(ctx context.Context, sid string) TypedPrincipal {
	if wk, ok := WellKnownPrincipal(sid, p.DomainName); ok {
		return wk
	}
	out := TypedPrincipal{ObjectIdentifier: sid, ObjectType: TypeBase}
	if p.Resolver == nil {
		return out
	}
	if t, err := p.Resolver.ResolveSID(ctx, sid); err == nil && t != "" {
		out.ObjectType = t
	}
	return out
}

// objectClassGUID looks up the schemaIDGUID of the object's class. The
// domain class falls back to its well-known value.
func objectClassGUID(objectType string, classGUIDs map[string]string) uuid.UUID {
	for name, guid := range classGUIDs {
		if !strings.EqualFold(name, objectType) {
			continue
		}
		if u, err := uuid.Parse(strings.Trim(guid, "{}")); err == nil {
			return u
		}
	}
	if strings.EqualFold(objectType, "domain") {
		return domainClassGUID
	}
	return uuid.Nil
}

// appliesTo reports whether an allowed ACE affects the object itself.
func appliesTo(a *mstypes.ACE, classGUID uuid.UUID) bool {
	if a.SID == nil {
		return false
	}
	if a.Type != mstypes.ACCESS_ALLOWED_ACE_TYPE && a.Type != mstypes.ACCESS_ALLOWED_OBJECT_ACE_TYPE {
		return false
	}
	if a.HasFlag(mstypes.INHERIT_ONLY_ACE) && !a.HasFlag(mstypes.INHERITED_ACE) {
		return false
	}
	if a.HasFlag(mstypes.INHERITED_ACE) && a.IsObjectACE() &&
		a.HasObjectFlag(mstypes.ACE_INHERITED_OBJECT_TYPE_PRESENT) &&
		classGUID != uuid.Nil && a.InheritedObjectType != classGUID {
		return false
	}
	return true
}

func rights(a *mstypes.ACE) []string {
	typed := a.IsObjectACE() && a.HasObjectFlag(mstypes.ACE_OBJECT_TYPE_PRESENT)

	if (a.HasPriv(mstypes.GENERIC_ALL) || a.HasPriv(mstypes.ADS_RIGHT_FULL_CONTROL)) && !typed {
		return []string{RightGenericAll}
	}

	var out []string
	if a.HasPriv(mstypes.GENERIC_WRITE) || (a.HasPriv(mstypes.ADS_RIGHT_DS_WRITE_PROP) && !typed) {
		out = append(out, RightGenericWrite)
	}
	if a.HasPriv(mstypes.WRITE_DAC) {
		out = append(out, RightWriteDacl)
	}
	if a.HasPriv(mstypes.WRITE_OWNER) {
		out = append(out, RightWriteOwner)
	}
	if a.HasPriv(mstypes.ADS_RIGHT_DS_CONTROL_ACCESS) {
		if !typed {
			out = append(out, RightAllExtendedRights)
		} else if r, ok := replicationRights[a.ObjectType]; ok {
			out = append(out, r)
		}
	}
	return out
}

func dedupe(aces []ACE) []ACE {
	seen := make(map[ACE]struct{}, len(aces))
	out := make([]ACE, 0, len(aces))
	for _, a := range aces {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
