package bloodhound

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidCollection = errors.New("invalid collection method")

// CollectionMethod is a set of collection flags. Only the flags below change
// what ends up in a domain record.
type CollectionMethod uint8

const (
	Trusts CollectionMethod = 1 << iota
	ACL
	Container

	DCOnly     = Trusts | ACL | Container
	All        = Trusts | ACL | Container
	Default    = Trusts
	NoneMethod = CollectionMethod(0)
)

var methodNames = []struct {
	name   string
	method CollectionMethod
}{
	{"trusts", Trusts},
	{"acl", ACL},
	{"container", Container},
}

// Tokens accepted by the collector that only affect other object types.
var otherMethods = map[string]struct{}{
	"group":       {},
	"localadmin":  {},
	"session":     {},
	"loggedon":    {},
	"objectprops": {},
	"rdp":         {},
	"dcom":        {},
	"psremote":    {},
}

// ParseCollectionMethods turns user supplied tokens into a CollectionMethod.
// Tokens are case insensitive and may be comma separated.
func ParseCollectionMethods(tokens ...string) (CollectionMethod, error) {
	var out CollectionMethod
	for _, token := range tokens {
		for _, t := range strings.Split(token, ",") {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" {
				continue
			}
			m, err := parseMethod(t)
			if err != nil {
				return NoneMethod, err
			}
			out |= m
		}
	}
	return out, nil
}

func parseMethod(t string) (CollectionMethod, error) {
	switch t {
	case "all":
		return All, nil
	case "dconly":
		return DCOnly, nil
	case "default":
		return Default, nil
	}
	for _, m := range methodNames {
		if m.name == t {
			return m.method, nil
		}
	}
	if _, ok := otherMethods[t]; ok {
		return NoneMethod, nil
	}
	return NoneMethod, fmt.Errorf("%w: %q", ErrInvalidCollection, t)
}

func (c CollectionMethod) Has(m CollectionMethod) bool {
	return m != NoneMethod && c&m == m
}

func (c CollectionMethod) String() string {
	var names []string
	for _, m := range methodNames {
		if c.Has(m.method) {
			names = append(names, m.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}
