package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagingLastWriteWins(t *testing.T) {
	area := NewStagingArea()
	area.Stage("acct-1", StagedInput{Kind: InputFile, FileRef: "files/old.pdf", MediaType: "application/pdf"})
	area.Stage("acct-1", StagedInput{Kind: InputFile, FileRef: "files/new.jpg", MediaType: "image/jpeg"})

	in, ok := area.Take("acct-1")
	require.True(t, ok)
	assert.Equal(t, "files/new.jpg", in.FileRef)

	_, ok = area.Take("acct-1")
	assert.False(t, ok)
}

func TestStagingTakeClearsAtomically(t *testing.T) {
	area := NewStagingArea()
	area.Stage("acct-1", StagedInput{Kind: InputText, Text: "my landlord locked me out"})

	in, ok := area.Take("acct-1")
	require.True(t, ok)
	assert.Equal(t, InputText, in.Kind)

	// The next upload starts from a clean slate.
	area.Stage("acct-1", StagedInput{Kind: InputFile, FileRef: "files/lease.pdf"})
	in, ok = area.Take("acct-1")
	require.True(t, ok)
	assert.Equal(t, "files/lease.pdf", in.FileRef)
}

func TestStagingIsPerAccount(t *testing.T) {
	area := NewStagingArea()
	area.Stage("acct-1", StagedInput{Kind: InputText, Text: "a"})
	area.Stage("acct-2", StagedInput{Kind: InputText, Text: "b"})

	in, ok := area.Take("acct-2")
	require.True(t, ok)
	assert.Equal(t, "b", in.Text)

	in, ok = area.Take("acct-1")
	require.True(t, ok)
	assert.Equal(t, "a", in.Text)
}
