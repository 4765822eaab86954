package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandidate() Candidate {
	return Candidate{
		SiteName: "GitHub",
		SiteURL:  "https://github.com",
		Username: "octocat",
		Password: "p@ss1-long-enough",
	}
}

func TestSession_AddAndReveal(t *testing.T) {
	_, session := createTestSession(t)

	id, advisories, err := session.Add(t.Context(), testCandidate())
	require.NoError(t, err)
	assert.Empty(t, advisories)

	rec, err := session.Get(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "GitHub", rec.SiteName)
	assert.Equal(t, SourceManual, rec.Source)
	assert.NotEmpty(t, rec.Secret.Ciphertext)
	assert.NotContains(t, string(rec.Secret.Ciphertext), "p@ss1")

	plaintext, err := session.Reveal(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "p@ss1-long-enough", string(plaintext))
}

func TestSession_Add_ExactDuplicate(t *testing.T) {
	_, session := createTestSession(t)

	id, _, err := session.Add(t.Context(), testCandidate())
	require.NoError(t, err)

	// Same site and username behind URL decoration must be rejected.
	dup := testCandidate()
	dup.SiteURL = "http://www.github.com/login"
	dup.Password = "another-password"
	_, _, err = session.Add(t.Context(), dup)

	assert.ErrorIs(t, err, ErrDuplicateRecord)
	var dupErr *DuplicateError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, id, dupErr.ExistingID)

	records, err := session.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, records, 1, "a blocked duplicate must not write")
}

func TestSession_Add_DifferentUsernameIsNotDuplicate(t *testing.T) {
	_, session := createTestSession(t)

	_, _, err := session.Add(t.Context(), testCandidate())
	require.NoError(t, err)

	other := testCandidate()
	other.Username = "hubot"
	_, advisories, err := session.Add(t.Context(), other)
	require.NoError(t, err)
	assert.Empty(t, advisories)
}

func TestSession_Add_SimilarDomainAdvisory(t *testing.T) {
	_, session := createTestSession(t)

	_, _, err := session.Add(t.Context(), testCandidate())
	require.NoError(t, err)

	sub := testCandidate()
	sub.SiteURL = "https://gist.github.com"
	id, advisories, err := session.Add(t.Context(), sub)
	require.NoError(t, err)
	assert.NotZero(t, id, "advisory matches must not block the save")
	require.Len(t, advisories, 1)
	assert.Equal(t, MatchSimilarDomain, advisories[0].Kind)
}

func TestSession_Add_UsernameReuseAdvisory(t *testing.T) {
	_, session := createTestSession(t)

	_, _, err := session.Add(t.Context(), testCandidate())
	require.NoError(t, err)

	other := testCandidate()
	other.SiteName = "Example"
	other.SiteURL = "https://example.org"
	_, advisories, err := session.Add(t.Context(), other)
	require.NoError(t, err)
	require.Len(t, advisories, 1)
	assert.Equal(t, MatchUsernameReuse, advisories[0].Kind)
}

func TestSession_Add_Invalid(t *testing.T) {
	_, session := createTestSession(t)

	cand := testCandidate()
	cand.Password = ""
	_, _, err := session.Add(t.Context(), cand)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	cand = testCandidate()
	cand.Username = "   "
	_, _, err = session.Add(t.Context(), cand)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestSession_Update(t *testing.T) {
	_, session := createTestSession(t)

	id, _, err := session.Add(t.Context(), testCandidate())
	require.NoError(t, err)
	before, err := session.Get(t.Context(), id)
	require.NoError(t, err)

	notes := "work account"
	require.NoError(t, session.Update(t.Context(), id, RecordUpdate{Notes: &notes}))

	after, err := session.Get(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "work account", after.Notes)
	assert.NotEqual(t, before.Secret.Nonce, after.Secret.Nonce, "every update re-seals with a fresh nonce")

	// The password survives a metadata-only edit.
	plaintext, err := session.Reveal(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "p@ss1-long-enough", string(plaintext))
}

func TestSession_Update_Password(t *testing.T) {
	_, session := createTestSession(t)

	id, _, err := session.Add(t.Context(), testCandidate())
	require.NoError(t, err)

	password := "new-password-value"
	require.NoError(t, session.Update(t.Context(), id, RecordUpdate{Password: &password}))

	plaintext, err := session.Reveal(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "new-password-value", string(plaintext))
}

func TestSession_Update_NotFound(t *testing.T) {
	_, session := createTestSession(t)
	notes := "x"
	err := session.Update(t.Context(), 42, RecordUpdate{Notes: &notes})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSession_Delete(t *testing.T) {
	_, session := createTestSession(t)

	id, _, err := session.Add(t.Context(), testCandidate())
	require.NoError(t, err)

	require.NoError(t, session.Delete(t.Context(), id))
	_, err = session.Get(t.Context(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, session.Delete(t.Context(), id), ErrNotFound)
}

func TestSession_Reveal_TamperedRecord(t *testing.T) {
	store, session := createTestSession(t)

	id, _, err := session.Add(t.Context(), testCandidate())
	require.NoError(t, err)
	okID, _, err := session.Add(t.Context(), Candidate{
		SiteName: "Example",
		SiteURL:  "https://example.com",
		Username: "alice",
		Password: "untouched-password",
	})
	require.NoError(t, err)

	row, err := store.repo.Get(id)
	require.NoError(t, err)
	row.Ciphertext[0] ^= 0x01
	require.NoError(t, store.repo.Update(row))

	_, err = session.Reveal(t.Context(), id)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	// Tampering with one record must not poison the others.
	plaintext, err := session.Reveal(t.Context(), okID)
	require.NoError(t, err)
	assert.Equal(t, "untouched-password", string(plaintext))
}

func TestSession_Reveal_UpdatesLastUsed(t *testing.T) {
	now := time.Now()
	store := newTestStore(t)
	store.now = func() time.Time { return now }
	session, err := store.Initialize(t.Context(), "test-passphrase")
	require.NoError(t, err)
	defer session.Close()

	id, _, err := session.Add(t.Context(), testCandidate())
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = session.Reveal(t.Context(), id)
	require.NoError(t, err)

	rec, err := session.Get(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, now, rec.LastUsedAt)
}

func TestSession_Lock(t *testing.T) {
	_, session := createTestSession(t)

	id, _, err := session.Add(t.Context(), testCandidate())
	require.NoError(t, err)

	session.Lock()
	assert.True(t, session.Locked())

	_, _, err = session.Add(t.Context(), testCandidate())
	assert.ErrorIs(t, err, ErrSessionLocked)
	_, err = session.List(t.Context())
	assert.ErrorIs(t, err, ErrSessionLocked)
	_, err = session.Reveal(t.Context(), id)
	assert.ErrorIs(t, err, ErrSessionLocked)

	// Locking twice is fine.
	session.Lock()
}

func TestSession_List_Sorted(t *testing.T) {
	_, session := createTestSession(t)

	for _, c := range []Candidate{
		{SiteName: "Zebra", SiteURL: "https://zebra.example", Username: "u", Password: "password-one"},
		{SiteName: "Apple", SiteURL: "https://apple.example", Username: "b", Password: "password-two"},
		{SiteName: "Apple", SiteURL: "https://apple.example", Username: "a", Password: "password-three"},
	} {
		_, _, err := session.Add(t.Context(), c)
		require.NoError(t, err)
	}

	records, err := session.List(t.Context())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Apple", records[0].SiteName)
	assert.Equal(t, "a", records[0].Username)
	assert.Equal(t, "b", records[1].Username)
	assert.Equal(t, "Zebra", records[2].SiteName)
}

func TestSession_FindByURL(t *testing.T) {
	_, session := createTestSession(t)

	_, _, err := session.Add(t.Context(), testCandidate())
	require.NoError(t, err)
	other := testCandidate()
	other.Username = "hubot"
	_, _, err = session.Add(t.Context(), other)
	require.NoError(t, err)
	_, _, err = session.Add(t.Context(), Candidate{
		SiteName: "Example",
		SiteURL:  "https://example.com",
		Username: "alice",
		Password: "password-value",
	})
	require.NoError(t, err)

	records, err := session.FindByURL(t.Context(), "www.github.com/login?next=/")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = session.FindByURL(t.Context(), "nowhere.example")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSession_Check(t *testing.T) {
	_, session := createTestSession(t)

	_, _, err := session.Add(t.Context(), testCandidate())
	require.NoError(t, err)

	matches, err := session.Check(t.Context(), testCandidate())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, MatchExact, matches[0].Kind)

	records, err := session.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, records, 1, "Check must not write")
}

func TestSession_ChangePassphrase(t *testing.T) {
	store, session := createTestSession(t)

	id, _, err := session.Add(t.Context(), testCandidate())
	require.NoError(t, err)

	require.NoError(t, session.ChangePassphrase(t.Context(), "brand-new-passphrase"))

	// The current session keeps working on the new key.
	plaintext, err := session.Reveal(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "p@ss1-long-enough", string(plaintext))
	session.Close()

	// Old passphrase is dead, new one unlocks.
	_, err = store.Unlock(t.Context(), "test-passphrase")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	session2, err := store.Unlock(t.Context(), "brand-new-passphrase")
	require.NoError(t, err)
	defer session2.Close()

	plaintext, err = session2.Reveal(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "p@ss1-long-enough", string(plaintext))
}

func TestSession_ChangePassphrase_Weak(t *testing.T) {
	_, session := createTestSession(t)
	err := session.ChangePassphrase(t.Context(), "short")
	assert.ErrorIs(t, err, ErrWeakPassphrase)
}

// Full lifecycle: initialize, store, lock, unlock, retrieve.
func TestSession_Lifecycle(t *testing.T) {
	store := newTestStore(t)

	session, err := store.Initialize(t.Context(), "correct-horse-battery")
	require.NoError(t, err)

	id, _, err := session.Add(t.Context(), Candidate{
		SiteName: "GitHub",
		SiteURL:  "https://github.com",
		Username: "octocat",
		Password: "p@ss1",
	})
	require.NoError(t, err)
	session.Lock()

	session, err = store.Unlock(t.Context(), "correct-horse-battery")
	require.NoError(t, err)
	defer session.Close()

	records, err := session.FindByURL(t.Context(), "github.com")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)

	plaintext, err := session.Reveal(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "p@ss1", string(plaintext))
}
