package runtime

import (
	"gatekeeper/errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestPolicyLoader_Default(t *testing.T) {
	req := require.New(t)

	policy, err := DefaultPolicyLoader().Load()

	req.NoError(err)
	req.Equal([]string{"nojoya1", "nojoya2", "nojoya3"}, policy.Words)
	req.Equal([]string{"badsite.com", "spam.example"}, policy.Domains)
	req.Equal([]string{"words/default.txt", "domains/default.txt"}, policy.Sources)
}

func TestPolicyLoader_MergesAndDeduplicates(t *testing.T) {
	req := require.New(t)
	fsys := fstest.MapFS{
		"words/en.txt":         {Data: []byte("Spam\r\nscam\n\n# comment\n")},
		"words/uz.txt":         {Data: []byte("spam\nnojoya\n")},
		"words/notes.md":       {Data: []byte("ignored\n")},
		"domains/extra.txt":    {Data: []byte(" Evil.example \n")},
		"domains/nested/a.txt": {Data: []byte("skipped.example\n")},
	}

	policy, err := NewPolicyLoader(fsys).Load()

	req.NoError(err)
	req.Equal([]string{"nojoya", "scam", "spam"}, policy.Words)
	req.Equal([]string{"evil.example"}, policy.Domains)
}

func TestPolicyLoader_OnlyDomains(t *testing.T) {
	req := require.New(t)
	fsys := fstest.MapFS{"domains/a.txt": {Data: []byte("badsite.com\n")}}

	policy, err := NewPolicyLoader(fsys).Load()

	req.NoError(err)
	req.Empty(policy.Words)
	req.Equal([]string{"badsite.com"}, policy.Domains)
}

func TestPolicyLoader_Empty(t *testing.T) {
	fsys := fstest.MapFS{"words/empty.txt": {Data: []byte("\n\n")}}

	_, err := NewPolicyLoader(fsys).Load()

	require.ErrorIs(t, err, errors.ErrEmptyPolicy)
}
