package vault

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCandidate(t *testing.T) {
	valid := func() Candidate {
		return Candidate{
			SiteName: "Example",
			SiteURL:  "https://example.com",
			Username: "alice",
			Password: "long-enough-password",
		}
	}

	t.Run("Valid", func(t *testing.T) {
		c := valid()
		require.NoError(t, validateCandidate(&c))
	})

	t.Run("TrimsFields", func(t *testing.T) {
		c := valid()
		c.SiteName = "  Example  "
		c.Username = " alice "
		require.NoError(t, validateCandidate(&c))
		assert.Equal(t, "Example", c.SiteName)
		assert.Equal(t, "alice", c.Username)
	})

	t.Run("EmptySiteName", func(t *testing.T) {
		c := valid()
		c.SiteName = "   "
		assert.ErrorIs(t, validateCandidate(&c), ErrInvalidRecord)
	})

	t.Run("EmptyPassword", func(t *testing.T) {
		c := valid()
		c.Password = ""
		assert.ErrorIs(t, validateCandidate(&c), ErrInvalidRecord)
	})

	t.Run("PasswordWhitespacePreserved", func(t *testing.T) {
		c := valid()
		c.Password = "  spaces matter  "
		require.NoError(t, validateCandidate(&c))
		assert.Equal(t, "  spaces matter  ", c.Password)
	})

	t.Run("OversizedSecret", func(t *testing.T) {
		c := valid()
		c.Password = strings.Repeat("x", MaxSecretSize+1)
		assert.ErrorIs(t, validateCandidate(&c), ErrInvalidRecord)
	})

	t.Run("ControlCharacters", func(t *testing.T) {
		c := valid()
		c.Username = "alice\x00"
		assert.ErrorIs(t, validateCandidate(&c), ErrInvalidRecord)
	})

	t.Run("InvalidUTF8", func(t *testing.T) {
		c := valid()
		c.SiteName = string([]byte{0xff, 0xfe})
		assert.ErrorIs(t, validateCandidate(&c), ErrInvalidRecord)
	})

	t.Run("UnknownSource", func(t *testing.T) {
		c := valid()
		c.Source = Source("telepathy")
		assert.ErrorIs(t, validateCandidate(&c), ErrInvalidRecord)
	})
}
