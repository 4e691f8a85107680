package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmodiet-go/internal/models"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	return s
}

func TestOpen_MissingFile(t *testing.T) {
	s := tempStore(t)

	doc, err := s.Read()
	require.NoError(t, err)
	assert.Empty(t, doc.Users)
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestWriteRead_RoundTrip(t *testing.T) {
	s := tempStore(t)

	doc := &models.Document{Users: []models.User{{
		ID:    "u1",
		Name:  "Юрий",
		Email: "yuri@example.com",
		Tokens: []models.Token{
			{Hash: "abc", IssuedAt: 100, ExpiresAt: 200},
		},
		TelegramID:  42,
		BioHistory:  []map[string]any{{"date": "01.01.2030", "pulse": float64(60)}},
		DietHistory: []models.DietEntry{{Date: "x", Calories: 2172}},
	}}}
	require.NoError(t, s.Write(doc))

	got, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestApply_MutatesAndPersists(t *testing.T) {
	s := tempStore(t)

	err := s.Apply(func(doc *models.Document) error {
		doc.Users = append(doc.Users, models.User{ID: "u1", Email: "a@b.c"})
		return nil
	})
	require.NoError(t, err)

	doc, err := s.Read()
	require.NoError(t, err)
	require.Len(t, doc.Users, 1)
	assert.Equal(t, "u1", doc.Users[0].ID)
}

func TestApply_ErrorWritesNothing(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Write(&models.Document{Users: []models.User{{ID: "keep"}}}))

	wantErr := errors.New("boom")
	err := s.Apply(func(doc *models.Document) error {
		doc.Users = nil
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	doc, err := s.Read()
	require.NoError(t, err)
	require.Len(t, doc.Users, 1)
	assert.Equal(t, "keep", doc.Users[0].ID)
}

// Two concurrent Apply calls must not lose each other's updates: the
// lock spans the whole read-mutate-write unit.
func TestApply_NoLostUpdates(t *testing.T) {
	s := tempStore(t)

	var wg sync.WaitGroup
	const n = 25
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Apply(func(doc *models.Document) error {
				doc.Users = append(doc.Users, models.User{ID: "u"})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	doc, err := s.Read()
	require.NoError(t, err)
	assert.Len(t, doc.Users, n)
}

func TestDocument_Lookups(t *testing.T) {
	doc := &models.Document{Users: []models.User{
		{ID: "u1", Email: "First@Example.com", TelegramID: 7,
			Tokens: []models.Token{{Hash: "h1"}}},
		{ID: "u2", Email: "second@example.com"},
	}}

	assert.Equal(t, "u1", doc.UserByEmail("first@example.COM").ID)
	assert.Nil(t, doc.UserByEmail("third@example.com"))
	assert.Equal(t, "u1", doc.UserByTokenHash("h1").ID)
	assert.Nil(t, doc.UserByTokenHash("nope"))
	assert.Equal(t, "u1", doc.UserByTelegramID(7).ID)
	assert.Nil(t, doc.UserByTelegramID(8))
	assert.Equal(t, "u2", doc.UserByID("u2").ID)
}
