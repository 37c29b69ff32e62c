package encoder_test

import (
	"slices"
	"testing"

	"github.com/5amu/adhound/pkg/encoder"
)

func TestUUIDFromString(t *testing.T) {
	ustr := "8a885d04-1ceb-11c9-9fe8-08002b104860"
	bsli := []byte{4, 93, 136, 138, 235, 28, 201, 17, 159, 232, 8, 0, 43, 16, 72, 96}

	b, err := encoder.UUIDFromString(ustr)
	if err != nil {
		t.Fatal(err)
	}
	if slices.Compare(b, bsli) != 0 {
		t.Errorf("%v, expected: %v", b, bsli)
	}

	if _, err := encoder.UUIDFromString("not-a-guid"); err == nil {
		t.Errorf("expected error for malformed guid")
	}
}

func TestStringFromUUID(t *testing.T) {
	ustr := "8a885d04-1ceb-11c9-9fe8-08002b104860"
	bsli := []byte{4, 93, 136, 138, 235, 28, 201, 17, 159, 232, 8, 0, 43, 16, 72, 96}

	d, err := encoder.StringFromUUID(bsli)
	if err != nil {
		t.Fatal(err)
	}
	if d != ustr {
		t.Errorf("%s, expected: %s", d, ustr)
	}

	if _, err := encoder.StringFromUUID(bsli[:4]); err == nil {
		t.Errorf("expected error for short input")
	}
}
