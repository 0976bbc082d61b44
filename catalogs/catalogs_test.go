package catalogs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/libswap/pkg/library"
)

func TestRefs(t *testing.T) {
	assert.Equal(t, []string{"monkey", "shark"}, Refs())
}

func TestSource_MatchesBuiltInTables(t *testing.T) {
	for _, name := range []string{"Shark", "Monkey"} {
		t.Run(name, func(t *testing.T) {
			pub, err := Source{}.Fetch(context.Background(), name)
			require.NoError(t, err)
			assert.Equal(t, name, pub.Name)
			assert.Equal(t, library.DefaultComponentKeys(name), pub.Components)
			assert.Equal(t, library.DefaultStyleKeys(name), pub.Styles)
		})
	}
}

func TestSource_Unknown(t *testing.T) {
	for _, ref := range []string{"zed", "../shark", ""} {
		_, err := Source{}.Fetch(context.Background(), ref)
		assert.ErrorIs(t, err, ErrUnknownLibrary, ref)
	}
}

func TestSource_AddsRemoteLibrary(t *testing.T) {
	reg := library.NewRegistry()

	lib, err := library.AddFromSource(context.Background(), Source{}, "monkey", reg)

	require.NoError(t, err)
	assert.Equal(t, "monkey", lib.ID)
	assert.Equal(t, library.KindRemote, lib.Kind)
	assert.True(t, reg.Snapshot().IsRegistered("Monkey"))
}
