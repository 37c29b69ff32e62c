package bloodhound

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// gPLink option values
const (
	GPLinkEnabled          = 0
	GPLinkDisabled         = 1
	GPLinkEnforced         = 2
	GPLinkDisabledEnforced = 3
)

var gplinkSplit = regexp.MustCompile(`(?i)\[LDAP://`)

// GPLink is one entry of a gPLink attribute.
type GPLink struct {
	DN     string
	Option int
}

// Active reports whether the link applies to the container.
func (l GPLink) Active() bool {
	return l.Option == GPLinkEnabled || l.Option == GPLinkEnforced
}

func (l GPLink) Enforced() bool {
	return l.Option == GPLinkEnforced
}

// ParseGPLink splits a gPLink value of the form
// "[LDAP://cn={GUID},cn=policies,...;0][LDAP://...;2]" into its links, in
// attribute order. Segments without a numeric option are skipped.
func ParseGPLink(s string) []GPLink {
	var links []GPLink
	// text before the first link is not part of any link
	for _, segment := range gplinkSplit.Split(s, -1)[1:] {
		segment = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(segment), "]["))
		if segment == "" {
			continue
		}
		i := strings.LastIndex(segment, ";")
		if i <= 0 {
			continue
		}
		option, err := strconv.Atoi(strings.TrimSpace(segment[i+1:]))
		if err != nil {
			continue
		}
		links = append(links, GPLink{DN: segment[:i], Option: option})
	}
	return links
}

// ResolveLinks turns the active links of a gPLink value into output links.
// Links whose target cannot be resolved are logged and dropped.
func ResolveLinks(ctx context.Context, dir Directory, gplink string, log *slog.Logger) []Link {
	out := []Link{}
	for _, l := range ParseGPLink(gplink) {
		if !l.Active() {
			continue
		}
		dn := upper(l.DN)
		p, err := dir.LookupDN(ctx, dn)
		if err != nil || p == nil || p.ObjectIdentifier == "" {
			attrs := []any{"dn", l.DN}
			if err != nil {
				attrs = append(attrs, "error", err)
			}
			log.Warn("could not resolve GPO link", attrs...)
			continue
		}
		out = append(out, Link{IsEnforced: l.Enforced(), GUID: p.ObjectIdentifier})
	}
	return out
}
