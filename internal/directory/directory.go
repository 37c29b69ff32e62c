package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/5amu/adhound/pkg/bloodhound"
	"github.com/5amu/adhound/pkg/encoder"
	"github.com/5amu/adhound/pkg/ldap"
	goldap "github.com/go-ldap/ldap/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 4096

var ErrPrincipalNotFound = errors.New("principal not found")

// Searcher is the part of the LDAP client the directory needs.
// *ldap.LdapClient satisfies it.
type Searcher interface {
	SearchBase(base string, scope int, filter string, controls []goldap.Control, attributes ...string) ([]*goldap.Entry, error)
}

var (
	domainAttributes = []string{
		ldap.DistinguishedName, ldap.ObjectSid, ldap.ObjectClass, ldap.Name,
		ldap.Description, ldap.WhenCreated, ldap.BehaviorVersion, ldap.GPLink,
		ldap.NTSecurityDescriptor,
	}
	principalAttributes = []string{
		ldap.DistinguishedName, ldap.ObjectSid, ldap.ObjectGUID, ldap.ObjectClass,
		ldap.Name, ldap.SAMAccountName, ldap.SAMAccountType, ldap.GroupMSAMembership,
	}
	trustAttributes = []string{
		ldap.DistinguishedName, ldap.Name, ldap.TrustDirection, ldap.TrustType,
		ldap.TrustAttributes, ldap.SecurityIdentifier,
	}
)

// Directory answers the queries of the domain assembler against a live
// domain controller. DN and SID lookups are cached.
type Directory struct {
	client Searcher
	baseDN string
	log    *slog.Logger

	dns  *lru.Cache[string, bloodhound.TypedPrincipal]
	sids *lru.Cache[string, string]

	mu    sync.Mutex
	guids map[string]string
}

func New(client Searcher, domain string, cacheSize int, log *slog.Logger) (*Directory, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	dns, err := lru.New[string, bloodhound.TypedPrincipal](cacheSize)
	if err != nil {
		return nil, err
	}
	sids, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Directory{
		client: client,
		baseDN: ldap.ToDN(domain),
		log:    log,
		dns:    dns,
		sids:   sids,
	}, nil
}

func (d *Directory) BaseDN() string {
	return d.baseDN
}

func (d *Directory) search(ctx context.Context, base string, scope int, filter string, controls []goldap.Control, attributes ...string) ([]*goldap.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.log.Debug("ldap search", "base", base, "filter", filter)
	return d.client.SearchBase(base, scope, filter, controls, attributes...)
}

func (d *Directory) Domains(ctx context.Context) ([]*goldap.Entry, error) {
	sdflags := ldap.NewControlSDFlags(ldap.OwnerSecurityInformation | ldap.GroupSecurityInformation | ldap.DaclSecurityInformation)
	entries, err := d.search(ctx, d.baseDN, goldap.ScopeWholeSubtree, ldap.FilterIsDomain, []goldap.Control{sdflags}, domainAttributes...)
	if err != nil {
		return nil, fmt.Errorf("query domains: %w", err)
	}
	return entries, nil
}

func (d *Directory) ChildObjects(ctx context.Context, dn string) ([]*goldap.Entry, error) {
	entries, err := d.search(ctx, dn, goldap.ScopeSingleLevel, ldap.FilterAll, nil, principalAttributes...)
	if err != nil {
		return nil, fmt.Errorf("query children of %s: %w", dn, err)
	}
	return entries, nil
}

func (d *Directory) Trusts(ctx context.Context) ([]*goldap.Entry, error) {
	entries, err := d.search(ctx, d.baseDN, goldap.ScopeWholeSubtree, ldap.FilterIsTrustedDomain, nil, trustAttributes...)
	if err != nil {
		return nil, fmt.Errorf("query trusts: %w", err)
	}
	return entries, nil
}

// LookupDN resolves dn from the cache or with a base search. Missing objects
// yield nil, nil.
func (d *Directory) LookupDN(ctx context.Context, dn string) (*bloodhound.TypedPrincipal, error) {
	key := strings.ToUpper(dn)
	if p, ok := d.dns.Get(key); ok {
		return &p, nil
	}

	entries, err := d.search(ctx, dn, goldap.ScopeBaseObject, ldap.FilterAll, nil, principalAttributes...)
	if goldap.IsErrorWithCode(err, goldap.LDAPResultNoSuchObject) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", dn, err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	p := bloodhound.ResolveEntry(entries[0])
	if p.ObjectIdentifier == "" {
		return nil, nil
	}
	d.dns.Add(key, p)
	if strings.HasPrefix(p.ObjectIdentifier, "S-") {
		d.sids.Add(p.ObjectIdentifier, p.ObjectType)
	}
	return &p, nil
}

// ResolveSID returns the object type of the principal identified by sid.
func (d *Directory) ResolveSID(ctx context.Context, sid string) (string, error) {
	if t, ok := d.sids.Get(sid); ok {
		return t, nil
	}

	parsed, err := ldap.EncodeSID(sid)
	if err != nil {
		return "", err
	}
	entries, err := d.search(ctx, d.baseDN, goldap.ScopeWholeSubtree, ldap.NewFilter(ldap.ObjectSid, parsed), nil, principalAttributes...)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", sid, err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("%w: %s", ErrPrincipalNotFound, sid)
	}

	p := bloodhound.ResolveEntry(entries[0])
	d.sids.Add(sid, p.ObjectType)
	return p.ObjectType, nil
}

// schemaBase reads the schema naming context from the RootDSE. Child domains
// share the forest root's schema, so the domain's own DN is only a fallback.
func (d *Directory) schemaBase(ctx context.Context) string {
	entries, err := d.search(ctx, "", goldap.ScopeBaseObject, ldap.FilterAll, nil, ldap.SchemaNamingContext)
	if err == nil && len(entries) > 0 {
		if base := ldap.GetString(entries[0], ldap.SchemaNamingContext, ""); base != "" {
			return base
		}
	}
	d.log.Debug("schemaNamingContext unavailable, using domain base", "error", err)
	return ldap.SchemaNamingContextRDN + "," + d.baseDN
}

// ObjectTypeGUIDs loads the lDAPDisplayName to schemaIDGUID map from the
// schema partition once.
func (d *Directory) ObjectTypeGUIDs(ctx context.Context) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.guids != nil {
		return d.guids, nil
	}

	base := d.schemaBase(ctx)
	entries, err := d.search(ctx, base, goldap.ScopeSingleLevel, ldap.FilterHasSchemaGUID, nil, ldap.LDAPDisplayName, ldap.SchemaIDGUID)
	if err != nil {
		return nil, fmt.Errorf("query schema: %w", err)
	}

	guids := make(map[string]string, len(entries))
	for _, e := range entries {
		name := ldap.GetString(e, ldap.LDAPDisplayName, "")
		guid, err := encoder.StringFromUUID(ldap.GetBytes(e, ldap.SchemaIDGUID))
		if name == "" || err != nil {
			continue
		}
		guids[name] = guid
	}
	d.log.Debug("loaded schema guids", "count", len(guids))
	d.guids = guids
	return guids, nil
}
