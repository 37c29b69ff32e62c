package mstypes_test

import (
	"testing"

	"github.com/5amu/adhound/pkg/mstypes"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSID(t *testing.T, s string) *mstypes.SID {
	t.Helper()
	sid, err := mstypes.ParseSID(s)
	require.NoError(t, err)
	return sid
}

func TestSIDRoundTrip(t *testing.T) {
	in := "S-1-5-21-3623811015-3361044348-30300820-1013"
	sid := mustSID(t, in)
	assert.Equal(t, in, sid.String())

	b, err := sid.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, b, 8+4*5)

	out, err := mstypes.DecodeSID(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeSIDKnownBytes(t *testing.T) {
	// S-1-5-32-544 (BUILTIN\Administrators)
	b := []byte{1, 2, 0, 0, 0, 0, 0, 5, 32, 0, 0, 0, 0x20, 0x02, 0, 0}
	s, err := mstypes.DecodeSID(b)
	require.NoError(t, err)
	assert.Equal(t, "S-1-5-32-544", s)
}

func TestDecodeSIDMalformed(t *testing.T) {
	_, err := mstypes.DecodeSID([]byte{1, 4, 0, 0, 0, 0, 0, 5, 21, 0})
	assert.ErrorIs(t, err, mstypes.ErrMalformedSID)

	_, err = mstypes.ParseSID("X-1-5")
	assert.ErrorIs(t, err, mstypes.ErrMalformedSID)

	_, err = mstypes.ParseSID("S-1-5-abc")
	assert.ErrorIs(t, err, mstypes.ErrMalformedSID)
}

func TestParseSecurityDescriptor(t *testing.T) {
	getChanges := uuid.MustParse("1131f6aa-9c07-11d1-f79f-00c04fc2dcd2")
	domainClass := uuid.MustParse("19195a5a-6da0-11d0-afd3-00c04fd930c9")

	in := &mstypes.SecurityDescriptor{
		Revision: 1,
		Control:  mstypes.SE_DACL_PROTECTED,
		Owner:    mustSID(t, "S-1-5-32-544"),
		Group:    mustSID(t, "S-1-5-21-1-2-3-513"),
		DACL: &mstypes.ACL{
			Revision: 4,
			ACEs: []mstypes.ACE{
				{
					Type:  mstypes.ACCESS_ALLOWED_ACE_TYPE,
					Flags: mstypes.INHERITED_ACE,
					Mask:  mstypes.GENERIC_ALL,
					SID:   mustSID(t, "S-1-5-21-1-2-3-512"),
				},
				{
					Type:                mstypes.ACCESS_ALLOWED_OBJECT_ACE_TYPE,
					Mask:                mstypes.ADS_RIGHT_DS_CONTROL_ACCESS,
					ObjectFlags:         mstypes.ACE_OBJECT_TYPE_PRESENT | mstypes.ACE_INHERITED_OBJECT_TYPE_PRESENT,
					ObjectType:          getChanges,
					InheritedObjectType: domainClass,
					SID:                 mustSID(t, "S-1-5-21-1-2-3-1104"),
				},
			},
		},
	}

	raw, err := in.MarshalBinary()
	require.NoError(t, err)

	sd, err := mstypes.ParseSecurityDescriptor(raw)
	require.NoError(t, err)

	assert.True(t, sd.HasControl(mstypes.SE_DACL_PROTECTED))
	assert.True(t, sd.HasControl(mstypes.SE_DACL_PRESENT))
	assert.Equal(t, "S-1-5-32-544", sd.Owner.String())
	assert.Equal(t, "S-1-5-21-1-2-3-513", sd.Group.String())
	require.NotNil(t, sd.DACL)
	require.Len(t, sd.DACL.ACEs, 2)

	first := sd.DACL.ACEs[0]
	assert.True(t, first.HasFlag(mstypes.INHERITED_ACE))
	assert.True(t, first.HasPriv(mstypes.GENERIC_ALL))
	assert.Equal(t, "S-1-5-21-1-2-3-512", first.SID.String())

	second := sd.DACL.ACEs[1]
	assert.True(t, second.IsObjectACE())
	assert.Equal(t, getChanges, second.ObjectType)
	assert.Equal(t, domainClass, second.InheritedObjectType)
	assert.Equal(t, "S-1-5-21-1-2-3-1104", second.SID.String())
}

func TestParseSecurityDescriptorMalformed(t *testing.T) {
	_, err := mstypes.ParseSecurityDescriptor([]byte{1, 0, 4})
	assert.ErrorIs(t, err, mstypes.ErrMalformedDescriptor)

	sd := &mstypes.SecurityDescriptor{Revision: 1, Owner: mustSID(t, "S-1-5-18")}
	raw, err := sd.MarshalBinary()
	require.NoError(t, err)

	// owner offset past the end of the buffer
	raw[4] = 0xff
	_, err = mstypes.ParseSecurityDescriptor(raw)
	assert.ErrorIs(t, err, mstypes.ErrMalformedDescriptor)
}

func TestParseSecurityDescriptorWithoutDACL(t *testing.T) {
	sd := &mstypes.SecurityDescriptor{Revision: 1, Owner: mustSID(t, "S-1-5-18")}
	raw, err := sd.MarshalBinary()
	require.NoError(t, err)

	out, err := mstypes.ParseSecurityDescriptor(raw)
	require.NoError(t, err)
	assert.Nil(t, out.DACL)
	assert.False(t, out.HasControl(mstypes.SE_DACL_PROTECTED))
}
