package mstypes

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/5amu/adhound/pkg/encoder"
	"github.com/google/uuid"
)

var ErrMalformedDescriptor = errors.New("malformed security descriptor")

// https://learn.microsoft.com/en-us/openspecs/windows_protocols/ms-dtyp/7d4dac05-9cef-4563-a058-f108abecce1d
const (
	SE_OWNER_DEFAULTED uint16 = 0x0001
	SE_GROUP_DEFAULTED uint16 = 0x0002
	SE_DACL_PRESENT    uint16 = 0x0004
	SE_DACL_DEFAULTED  uint16 = 0x0008
	SE_SACL_PRESENT    uint16 = 0x0010
	SE_DACL_PROTECTED  uint16 = 0x1000
	SE_SACL_PROTECTED  uint16 = 0x2000
	SE_SELF_RELATIVE   uint16 = 0x8000
)

// https://learn.microsoft.com/en-us/openspecs/windows_protocols/ms-dtyp/628ebb1d-c509-4ea0-a10f-77ef97ca4586
const (
	ACCESS_ALLOWED_ACE_TYPE        uint8 = 0x00
	ACCESS_DENIED_ACE_TYPE         uint8 = 0x01
	SYSTEM_AUDIT_ACE_TYPE          uint8 = 0x02
	ACCESS_ALLOWED_OBJECT_ACE_TYPE uint8 = 0x05
	ACCESS_DENIED_OBJECT_ACE_TYPE  uint8 = 0x06
)

const (
	OBJECT_INHERIT_ACE         uint8 = 0x01
	CONTAINER_INHERIT_ACE      uint8 = 0x02
	NO_PROPAGATE_INHERIT_ACE   uint8 = 0x04
	INHERIT_ONLY_ACE           uint8 = 0x08
	INHERITED_ACE              uint8 = 0x10
	SUCCESSFUL_ACCESS_ACE_FLAG uint8 = 0x40
	FAILED_ACCESS_ACE_FLAG     uint8 = 0x80
)

const (
	ACE_OBJECT_TYPE_PRESENT           uint32 = 0x1
	ACE_INHERITED_OBJECT_TYPE_PRESENT uint32 = 0x2
)

// Access mask bits relevant to directory objects.
// https://learn.microsoft.com/en-us/windows/win32/api/iads/ne-iads-ads_rights_enum
const (
	ADS_RIGHT_DS_CREATE_CHILD   uint32 = 0x00000001
	ADS_RIGHT_DS_DELETE_CHILD   uint32 = 0x00000002
	ADS_RIGHT_DS_SELF           uint32 = 0x00000008
	ADS_RIGHT_DS_READ_PROP      uint32 = 0x00000010
	ADS_RIGHT_DS_WRITE_PROP     uint32 = 0x00000020
	ADS_RIGHT_DS_CONTROL_ACCESS uint32 = 0x00000100
	DELETE                      uint32 = 0x00010000
	READ_CONTROL                uint32 = 0x00020000
	WRITE_DAC                   uint32 = 0x00040000
	WRITE_OWNER                 uint32 = 0x00080000
	GENERIC_ALL                 uint32 = 0x10000000
	GENERIC_EXECUTE             uint32 = 0x20000000
	GENERIC_WRITE               uint32 = 0x40000000
	GENERIC_READ                uint32 = 0x80000000

	// Full control as expanded by the directory for GenericAll grants.
	ADS_RIGHT_FULL_CONTROL uint32 = 0x000F01FF
)

type SecurityDescriptor struct {
	Revision uint8
	Control  uint16
	Owner    *SID
	Group    *SID
	DACL     *ACL
}

type ACL struct {
	Revision uint8
	ACEs     []ACE
}

type ACE struct {
	Type  uint8
	Flags uint8
	Mask  uint32

	// Only set on object ACEs.
	ObjectFlags         uint32
	ObjectType          uuid.UUID
	InheritedObjectType uuid.UUID

	SID *SID
}

func (sd *SecurityDescriptor) HasControl(flag uint16) bool {
	return sd.Control&flag == flag
}

func (a *ACE) HasFlag(flag uint8) bool {
	return a.Flags&flag == flag
}

func (a *ACE) HasPriv(priv uint32) bool {
	return a.Mask&priv == priv
}

func (a *ACE) HasObjectFlag(flag uint32) bool {
	return a.ObjectFlags&flag == flag
}

func (a *ACE) IsObjectACE() bool {
	return a.Type == ACCESS_ALLOWED_OBJECT_ACE_TYPE || a.Type == ACCESS_DENIED_OBJECT_ACE_TYPE
}

// ParseSecurityDescriptor decodes a self-relative SECURITY_DESCRIPTOR as
// returned by the nTSecurityDescriptor attribute. The SACL is not decoded.
func ParseSecurityDescriptor(b []byte) (*SecurityDescriptor, error) {
	if len(b) < 20 {
		return nil, fmt.Errorf("%w: header too short", ErrMalformedDescriptor)
	}

	sd := &SecurityDescriptor{
		Revision: b[0],
		Control:  binary.LittleEndian.Uint16(b[2:4]),
	}
	offOwner := binary.LittleEndian.Uint32(b[4:8])
	offGroup := binary.LittleEndian.Uint32(b[8:12])
	offDacl := binary.LittleEndian.Uint32(b[16:20])

	var err error
	if offOwner != 0 {
		if sd.Owner, err = sidAt(b, offOwner); err != nil {
			return nil, err
		}
	}
	if offGroup != 0 {
		if sd.Group, err = sidAt(b, offGroup); err != nil {
			return nil, err
		}
	}
	if offDacl != 0 && sd.HasControl(SE_DACL_PRESENT) {
		if uint64(offDacl) >= uint64(len(b)) {
			return nil, fmt.Errorf("%w: dacl offset out of range", ErrMalformedDescriptor)
		}
		if sd.DACL, err = parseACL(b[offDacl:]); err != nil {
			return nil, err
		}
	}
	return sd, nil
}

func sidAt(b []byte, off uint32) (*SID, error) {
	if uint64(off) >= uint64(len(b)) {
		return nil, fmt.Errorf("%w: sid offset out of range", ErrMalformedDescriptor)
	}
	sid, _, err := UnmarshalSID(b[off:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}
	return sid, nil
}

func parseACL(b []byte) (*ACL, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("%w: acl header too short", ErrMalformedDescriptor)
	}
	acl := &ACL{Revision: b[0]}
	size := int(binary.LittleEndian.Uint16(b[2:4]))
	count := int(binary.LittleEndian.Uint16(b[4:6]))
	if size < 8 || size > len(b) {
		return nil, fmt.Errorf("%w: acl size %d", ErrMalformedDescriptor, size)
	}
	b = b[:size]

	offset := 8
	for i := 0; i < count; i++ {
		if offset+4 > len(b) {
			return nil, fmt.Errorf("%w: ace %d out of range", ErrMalformedDescriptor, i)
		}
		aceSize := int(binary.LittleEndian.Uint16(b[offset+2 : offset+4]))
		if aceSize < 4 || offset+aceSize > len(b) {
			return nil, fmt.Errorf("%w: ace %d size %d", ErrMalformedDescriptor, i, aceSize)
		}
		ace, err := parseACE(b[offset : offset+aceSize])
		if err != nil {
			return nil, err
		}
		acl.ACEs = append(acl.ACEs, *ace)
		offset += aceSize
	}
	return acl, nil
}

func parseACE(b []byte) (*ACE, error) {
	ace := &ACE{Type: b[0], Flags: b[1]}
	body := b[4:]

	switch ace.Type {
	case ACCESS_ALLOWED_ACE_TYPE, ACCESS_DENIED_ACE_TYPE, SYSTEM_AUDIT_ACE_TYPE:
		if len(body) < 4 {
			return nil, fmt.Errorf("%w: ace body too short", ErrMalformedDescriptor)
		}
		ace.Mask = binary.LittleEndian.Uint32(body[0:4])
		body = body[4:]
	case ACCESS_ALLOWED_OBJECT_ACE_TYPE, ACCESS_DENIED_OBJECT_ACE_TYPE:
		if len(body) < 8 {
			return nil, fmt.Errorf("%w: object ace body too short", ErrMalformedDescriptor)
		}
		ace.Mask = binary.LittleEndian.Uint32(body[0:4])
		ace.ObjectFlags = binary.LittleEndian.Uint32(body[4:8])
		body = body[8:]

		var err error
		if ace.HasObjectFlag(ACE_OBJECT_TYPE_PRESENT) {
			if ace.ObjectType, body, err = readGUID(body); err != nil {
				return nil, err
			}
		}
		if ace.HasObjectFlag(ACE_INHERITED_OBJECT_TYPE_PRESENT) {
			if ace.InheritedObjectType, body, err = readGUID(body); err != nil {
				return nil, err
			}
		}
	default:
		// Callback and conditional ACEs carry nothing the collector maps.
		return ace, nil
	}

	sid, _, err := UnmarshalSID(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}
	ace.SID = sid
	return ace, nil
}

func readGUID(b []byte) (uuid.UUID, []byte, error) {
	if len(b) < 16 {
		return uuid.Nil, nil, fmt.Errorf("%w: truncated guid", ErrMalformedDescriptor)
	}
	u, err := encoder.GUIDFromBytes(b[:16])
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}
	return u, b[16:], nil
}

// MarshalBinary encodes the descriptor in self-relative form: header, owner,
// group, then the DACL.
func (sd *SecurityDescriptor) MarshalBinary() ([]byte, error) {
	out := make([]byte, 20)
	out[0] = sd.Revision
	control := sd.Control | SE_SELF_RELATIVE
	if sd.DACL != nil {
		control |= SE_DACL_PRESENT
	}

	for _, f := range []struct {
		sid *SID
		at  int
	}{{sd.Owner, 4}, {sd.Group, 8}} {
		if f.sid == nil {
			continue
		}
		b, err := f.sid.MarshalBinary()
		if err != nil {
			return nil, err
		}
		binary.LittleEndian.PutUint32(out[f.at:], uint32(len(out)))
		out = append(out, b...)
	}

	if sd.DACL != nil {
		b, err := sd.DACL.MarshalBinary()
		if err != nil {
			return nil, err
		}
		binary.LittleEndian.PutUint32(out[16:], uint32(len(out)))
		out = append(out, b...)
	}
	binary.LittleEndian.PutUint16(out[2:4], control)
	return out, nil
}

func (acl *ACL) MarshalBinary() ([]byte, error) {
	body := []byte{}
	for i := range acl.ACEs {
		b, err := acl.ACEs[i].MarshalBinary()
		if err != nil {
			return nil, err
		}
		body = append(body, b...)
	}
	hdr := make([]byte, 8)
	hdr[0] = acl.Revision
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(8+len(body)))
	binary.LittleEndian.PutUint16(hdr[4:6], uint16(len(acl.ACEs)))
	return append(hdr, body...), nil
}

func (a *ACE) MarshalBinary() ([]byte, error) {
	if a.SID == nil {
		return nil, ErrMalformedSID
	}
	body := binary.LittleEndian.AppendUint32(nil, a.Mask)
	if a.IsObjectACE() {
		body = binary.LittleEndian.AppendUint32(body, a.ObjectFlags)
		for _, g := range []struct {
			flag uint32
			guid uuid.UUID
		}{{ACE_OBJECT_TYPE_PRESENT, a.ObjectType}, {ACE_INHERITED_OBJECT_TYPE_PRESENT, a.InheritedObjectType}} {
			if !a.HasObjectFlag(g.flag) {
				continue
			}
			b, err := encoder.UUIDFromString(g.guid.String())
			if err != nil {
				return nil, err
			}
			body = append(body, b...)
		}
	}
	sid, err := a.SID.MarshalBinary()
	if err != nil {
		return nil, err
	}
	body = append(body, sid...)

	hdr := []byte{a.Type, a.Flags, 0, 0}
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(4+len(body)))
	return append(hdr, body...), nil
}
