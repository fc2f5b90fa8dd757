package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/pkg/apperr"
)

func TestFindOrCreateDirect(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db)

	conv, created, err := repo.FindOrCreateDirect(1, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, conv.Members, 2)

	again, created, err := repo.FindOrCreateDirect(1, 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)
}

func TestFindDirectIgnoresGroupConversations(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db)

	// A group containing both users is not their 1:1 conversation.
	seedConversation(t, db, 1, 2, 3)

	_, err := repo.FindDirect(1, 2)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	direct := seedConversation(t, db, 1, 2)
	found, err := repo.FindDirect(1, 2)
	require.NoError(t, err)
	assert.Equal(t, direct.ID, found.ID)
}

func TestHideAndUnhideAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db)
	conv := seedConversation(t, db, 1, 2)

	require.NoError(t, repo.Hide(conv.ID, 2))

	convs, err := repo.ListForUser(2)
	require.NoError(t, err)
	assert.Empty(t, convs)

	convs, err = repo.ListForUser(1)
	require.NoError(t, err)
	assert.Len(t, convs, 1)

	require.NoError(t, repo.UnhideAll(conv.ID))

	convs, err = repo.ListForUser(2)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestHideUnknownMembership(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db)
	conv := seedConversation(t, db, 1, 2)

	err := repo.Hide(conv.ID, 99)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestListForUserOrdering(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db)

	older := seedConversation(t, db, 1, 2)
	newer := seedConversation(t, db, 1, 3)

	base := time.Now()
	require.NoError(t, repo.Touch(older.ID, base.Add(-time.Hour)))
	require.NoError(t, repo.Touch(newer.ID, base))

	convs, err := repo.ListForUser(1)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, newer.ID, convs[0].ID)
	assert.Equal(t, older.ID, convs[1].ID)
}

func TestIsMember(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db)
	conv := seedConversation(t, db, 1, 2)

	ok, err := repo.IsMember(conv.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsMember(conv.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}
