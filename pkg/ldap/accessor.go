package ldap

import (
	"strconv"
	"strings"
	"time"

	"github.com/5amu/adhound/pkg/mstypes"
	"github.com/go-ldap/ldap/v3"
)

// Entry is a raw directory entry as returned by a search.
type Entry = ldap.Entry

// Attribute names are matched case-insensitively: servers return them with
// their schema casing, callers usually spell them the way the docs do.

func GetStrings(e *Entry, attribute string) []string {
	if e == nil {
		return nil
	}
	return e.GetEqualFoldAttributeValues(attribute)
}

func HasAttribute(e *Entry, attribute string) bool {
	return len(GetStrings(e, attribute)) > 0
}

// GetString returns the first value of attribute or def when it is absent.
func GetString(e *Entry, attribute, def string) string {
	values := GetStrings(e, attribute)
	if len(values) == 0 {
		return def
	}
	return values[0]
}

// GetInt parses the first value of attribute as a base 10 integer, falling
// back to def when the attribute is absent or not numeric.
func GetInt(e *Entry, attribute string, def int64) int64 {
	v := GetString(e, attribute, "")
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return def
	}
	return i
}

func GetBytes(e *Entry, attribute string) []byte {
	if e == nil {
		return nil
	}
	return e.GetEqualFoldRawAttributeValue(attribute)
}

var generalizedTimeLayouts = []string{
	"20060102150405.0Z",
	"20060102150405Z",
	"20060102150405.0Z0700",
	"20060102150405Z0700",
}

// GetTimestamp returns attribute as Unix seconds. GeneralizedTime values and
// plain integers are accepted; anything else yields def.
func GetTimestamp(e *Entry, attribute string, def int64) int64 {
	v := strings.TrimSpace(GetString(e, attribute, ""))
	if v == "" {
		return def
	}
	for _, layout := range generalizedTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Unix()
		}
	}
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	return def
}

// GetSID returns the string form of a SID attribute. Binary values are
// decoded, values already in S-1-... form are returned verbatim and
// malformed ones yield "".
func GetSID(e *Entry, attribute string) string {
	raw := GetBytes(e, attribute)
	if len(raw) == 0 {
		return ""
	}
	if len(raw) > 2 && (raw[0] == 'S' || raw[0] == 's') && raw[1] == '-' {
		return string(raw)
	}
	sid, err := mstypes.DecodeSID(raw)
	if err != nil {
		return ""
	}
	return sid
}

// EncodeSID renders a textual SID as an escaped binary filter value.
func EncodeSID(sid string) (string, error) {
	parsed, err := mstypes.ParseSID(sid)
	if err != nil {
		return "", err
	}
	raw, err := parsed.MarshalBinary()
	if err != nil {
		return "", err
	}
	return EscapeBinary(raw), nil
}
