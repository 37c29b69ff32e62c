package mstypes

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformedSID = errors.New("malformed security identifier")

// SID is a Windows security identifier.
// https://learn.microsoft.com/en-us/openspecs/windows_protocols/ms-dtyp/f992ad60-0fe4-4b87-9fed-beb478836861
type SID struct {
	Revision       uint8
	Authority      uint64
	SubAuthorities []uint32
}

// UnmarshalSID decodes a binary SID at the start of b and returns it along
// with the number of bytes consumed.
func UnmarshalSID(b []byte) (*SID, int, error) {
	if len(b) < 8 {
		return nil, 0, ErrMalformedSID
	}
	count := int(b[1])
	size := 8 + 4*count
	if len(b) < size {
		return nil, 0, ErrMalformedSID
	}

	sid := &SID{Revision: b[0]}
	for i := 2; i < 8; i++ {
		sid.Authority = sid.Authority<<8 | uint64(b[i])
	}
	for i := 0; i < count; i++ {
		sid.SubAuthorities = append(sid.SubAuthorities, binary.LittleEndian.Uint32(b[8+4*i:]))
	}
	return sid, size, nil
}

// ParseSID parses the textual S-R-I-S-S... form.
func ParseSID(s string) (*SID, error) {
	parts := strings.Split(strings.ToUpper(s), "-")
	if len(parts) < 3 || parts[0] != "S" {
		return nil, ErrMalformedSID
	}
	rev, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return nil, ErrMalformedSID
	}
	auth, err := strconv.ParseUint(parts[2], 10, 48)
	if err != nil {
		return nil, ErrMalformedSID
	}

	sid := &SID{Revision: uint8(rev), Authority: auth}
	for _, p := range parts[3:] {
		sub, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, ErrMalformedSID
		}
		sid.SubAuthorities = append(sid.SubAuthorities, uint32(sub))
	}
	return sid, nil
}

func (s *SID) MarshalBinary() ([]byte, error) {
	if len(s.SubAuthorities) > 255 {
		return nil, ErrMalformedSID
	}
	b := make([]byte, 8+4*len(s.SubAuthorities))
	b[0] = s.Revision
	b[1] = byte(len(s.SubAuthorities))
	for i := 0; i < 6; i++ {
		b[7-i] = byte(s.Authority >> (8 * i))
	}
	for i, sub := range s.SubAuthorities {
		binary.LittleEndian.PutUint32(b[8+4*i:], sub)
	}
	return b, nil
}

func (s *SID) String() string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("S-%d-%d", s.Revision, s.Authority))
	for _, v := range s.SubAuthorities {
		builder.WriteString(fmt.Sprintf("-%d", v))
	}
	return builder.String()
}

// DecodeSID converts a raw objectSid attribute value into its string form.
func DecodeSID(b []byte) (string, error) {
	sid, _, err := UnmarshalSID(b)
	if err != nil {
		return "", err
	}
	return sid.String(), nil
}
