package bloodhound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/5amu/adhound/pkg/ldap"
)

var ErrDomainNotFound = errors.New("could not find domain object")

// Directory is the query side the assembler depends on.
type Directory interface {
	// Domains returns every domain head known to the directory.
	Domains(ctx context.Context) ([]*ldap.Entry, error)
	// ChildObjects lists the objects directly below dn.
	ChildObjects(ctx context.Context, dn string) ([]*ldap.Entry, error)
	// Trusts returns the trustedDomain objects of the domain.
	Trusts(ctx context.Context) ([]*ldap.Entry, error)
	// LookupDN resolves dn to a graph identifier. It returns nil, nil when
	// the object does not exist.
	LookupDN(ctx context.Context, dn string) (*TypedPrincipal, error)
	// ObjectTypeGUIDs maps lDAPDisplayName to schemaIDGUID.
	ObjectTypeGUIDs(ctx context.Context) (map[string]string, error)
}

type Options struct {
	// Domain is the DNS name of the domain, e.g. contoso.local.
	Domain string
	// BaseDN of the domain head. Derived from Domain when empty.
	BaseDN     string
	Collection CollectionMethod
	OutputDir  string
	Prefix     string
	Timestamp  string
	// Indent the JSON output.
	Indent bool
}

type Assembler struct {
	dir  Directory
	acl  ACLParser
	opts Options
	log  *slog.Logger
}

func NewAssembler(dir Directory, acl ACLParser, opts Options, log *slog.Logger) *Assembler {
	if opts.BaseDN == "" {
		opts.BaseDN = ldap.ToDN(opts.Domain)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{dir: dir, acl: acl, opts: opts, log: log.With("domain", opts.Domain)}
}

// Path is where Dump writes the record.
func (a *Assembler) Path() string {
	return filepath.Join(a.opts.OutputDir, OutputFilename(a.opts.Prefix, a.opts.Timestamp))
}

// Dump collects the domain record and writes it to Path. It returns the path
// of the written file.
func (a *Assembler) Dump(ctx context.Context) (string, error) {
	entry, err := a.locate(ctx)
	if err != nil {
		a.log.Error("Could not find domain object. Aborting domain enumeration", "base", a.opts.BaseDN, "error", err)
		return "", err
	}

	path := a.Path()
	a.log.Debug("Opening file for writing", "file", path)
	sink, err := OpenSink(path)
	if err != nil {
		a.log.Warn("Could not write file", "file", path, "error", err)
		return "", err
	}
	defer sink.Close()

	record, err := a.Collect(ctx, entry)
	if err == nil {
		err = sink.WriteDomains(NewDomains(record), a.opts.Indent)
	}
	if err != nil {
		_ = sink.Close()
		_ = os.Remove(path)
		return "", err
	}

	a.log.Debug("Finished writing domain info", "file", path)
	return path, nil
}

func (a *Assembler) locate(ctx context.Context) (*ldap.Entry, error) {
	domains, err := a.dir.Domains(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDomainNotFound, err)
	}
	for _, e := range domains {
		dn := ldap.GetString(e, ldap.DistinguishedName, e.DN)
		if strings.EqualFold(dn, a.opts.BaseDN) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDomainNotFound, a.opts.BaseDN)
}

// Collect builds the record of the domain head entry according to the
// active collection methods.
func (a *Assembler) Collect(ctx context.Context, entry *ldap.Entry) (*Domain, error) {
	sid := ldap.GetSID(entry, ldap.ObjectSid)
	dn := ldap.GetString(entry, ldap.DistinguishedName, entry.DN)

	d := NewDomain(sid)
	d.Properties.Name = upper(a.opts.Domain)
	d.Properties.Domain = upper(a.opts.Domain)
	d.Properties.DistinguishedName = upper(dn)
	d.Properties.Description = ldap.GetString(entry, ldap.Description, "")
	d.Properties.FunctionalLevel = FunctionalLevel(ldap.GetString(entry, ldap.BehaviorVersion, ""))
	d.Properties.WhenCreated = ldap.GetTimestamp(entry, ldap.WhenCreated, 0)

	c := a.opts.Collection
	if c.Has(Container) {
		d.ChildObjects = a.childObjects(ctx, dn)
	}
	if c.Has(ACL) {
		protected, aces, err := a.aces(ctx, entry)
		if err != nil {
			return nil, err
		}
		d.IsACLProtected = protected
		d.Aces = aces
	}
	if c.Has(Trusts) {
		d.Trusts = a.trusts(ctx)
	}
	if c.Has(Container) {
		d.Links = ResolveLinks(ctx, a.dir, ldap.GetString(entry, ldap.GPLink, ""), a.log)
	}
	return d, nil
}

func (a *Assembler) childObjects(ctx context.Context, dn string) []TypedPrincipal {
	out := []TypedPrincipal{}
	children, err := a.dir.ChildObjects(ctx, dn)
	if err != nil {
		a.log.Warn("Could not list child objects", "dn", dn, "error", err)
		return out
	}
	for _, child := range children {
		if IsFilteredContainerChild(ldap.GetString(child, ldap.DistinguishedName, child.DN)) {
			continue
		}
		out = append(out, ResolveEntry(child))
	}
	return out
}

func (a *Assembler) aces(ctx context.Context, entry *ldap.Entry) (bool, []ACE, error) {
	guids, err := a.dir.ObjectTypeGUIDs(ctx)
	if err != nil {
		a.log.Warn("Could not load schema GUIDs", "error", err)
		guids = nil
	}
	protected, aces, err := a.acl.ParseACL(ctx, "domain", ldap.GetBytes(entry, ldap.NTSecurityDescriptor), guids)
	if err != nil {
		return false, nil, fmt.Errorf("domain acl: %w", err)
	}
	if aces == nil {
		aces = []ACE{}
	}
	return protected, aces, nil
}

func (a *Assembler) trusts(ctx context.Context) []Trust {
	out := []Trust{}
	entries, err := a.dir.Trusts(ctx)
	if err != nil {
		a.log.Warn("Could not query trusts", "error", err)
		return out
	}
	for _, e := range entries {
		out = append(out, TrustFromEntry(e).Output())
	}
	a.log.Info(fmt.Sprintf("Found %d trusts", len(entries)))
	return out
}
