package sensor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	name     string
	got      []byte
	want     []byte
	identify int
}

func (d *fakeDriver) Name() string { return d.name }
func (d *fakeDriver) Expected() []byte { return d.want }
func (d *fakeDriver) Configure() error { return nil }
func (d *fakeDriver) Identify() []byte {
	d.identify++
	return d.got
}

func TestSelfTest(t *testing.T) {
	ok := &fakeDriver{name: "a", got: []byte{1, 2}, want: []byte{1, 2}}
	bad := &fakeDriver{name: "b", got: []byte{0, 0}, want: []byte{0xe1}}
	later := &fakeDriver{name: "c", got: []byte{3}, want: []byte{3}}

	require.NoError(t, SelfTest(ok, later))
	err := SelfTest(ok, bad, later)
	require.Equal(t, &IdentityError{Name: "b", Got: []byte{0, 0}, Want: []byte{0xe1}}, err)
	require.Equal(t, "b: identity 00 00, expected e1", err.Error())
	require.Equal(t, 1, later.identify)
}
