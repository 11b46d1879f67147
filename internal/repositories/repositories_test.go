package repositories_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"github.com/3Eeeecho/go-cloudbox/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seed(t *testing.T, db *gorm.DB) (*models.User, *models.User, *models.File) {
	t.Helper()
	ctx := context.Background()
	users := repositories.NewUserRepository(db)
	alice := &models.User{Email: "Alice@Example.com", PasswordHash: "x"}
	bob := &models.User{Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	file := &models.File{Name: "a.txt", StorageKey: "k/a.txt", Size: 3, UserID: alice.ID}
	require.NoError(t, repositories.NewFileRepository(db).Create(ctx, file))
	return alice, bob, file
}

func TestUserEmailCaseInsensitive(t *testing.T) {
	db := testutil.NewDB(t)
	alice, _, _ := seed(t, db)
	users := repositories.NewUserRepository(db)

	found, err := users.FindByEmail(context.Background(), " ALICE@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, alice.ID, found.ID)

	missing, err := users.FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = users.Create(context.Background(), &models.User{Email: "alice@EXAMPLE.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestEnsurePublicTokenConcurrent(t *testing.T) {
	db := testutil.NewDB(t)
	_, _, file := seed(t, db)
	files := repositories.NewFileRepository(db)

	const workers = 8
	tokens := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := files.EnsurePublicToken(context.Background(), file.ID, uuid.NewString())
			assert.NoError(t, err)
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	for _, token := range tokens {
		assert.Equal(t, tokens[0], token)
	}
	found, err := files.FindByPublicToken(context.Background(), tokens[0])
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, file.ID, found.ID)

	require.NoError(t, files.ClearPublicToken(context.Background(), file.ID))
	gone, err := files.FindByPublicToken(context.Background(), tokens[0])
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestShareUniquePerRecipient(t *testing.T) {
	db := testutil.NewDB(t)
	alice, bob, file := seed(t, db)
	shares := repositories.NewShareRepository(db)
	ctx := context.Background()

	first := &models.Share{FileID: file.ID, SharedByID: alice.ID, SharedWithID: bob.ID, Permission: models.PermissionViewer}
	require.NoError(t, shares.Create(ctx, first))
	dup := &models.Share{FileID: file.ID, SharedByID: alice.ID, SharedWithID: bob.ID, Permission: models.PermissionEditor}
	assert.ErrorIs(t, shares.Create(ctx, dup), gorm.ErrDuplicatedKey)

	with, err := shares.ListSharedWith(ctx, bob.ID, time.Now())
	require.NoError(t, err)
	require.Len(t, with, 1)
	require.NotNil(t, with[0].File)
	require.NotNil(t, with[0].SharedBy)
	assert.Equal(t, alice.ID, with[0].SharedBy.ID)

	// 过期的分享不出现在列表中
	past := time.Now().Add(-time.Minute)
	require.NoError(t, shares.Updates(ctx, first.ID, map[string]any{"expires_at": past}))
	with, err = shares.ListSharedWith(ctx, bob.ID, time.Now())
	require.NoError(t, err)
	assert.Empty(t, with)
}

func TestFileQueries(t *testing.T) {
	db := testutil.NewDB(t)
	alice, _, file := seed(t, db)
	files := repositories.NewFileRepository(db)
	ctx := context.Background()

	other := &models.File{Name: "b.txt", StorageKey: "k/b.txt", Size: 4, UserID: alice.ID}
	require.NoError(t, files.Create(ctx, other))
	require.NoError(t, files.Updates(ctx, other.ID, map[string]any{"trashed": true}))

	total, err := files.SumActiveSize(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	trashed, err := files.ListTrashed(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, trashed, 1)
	assert.Equal(t, other.ID, trashed[0].ID)

	byIDs, err := files.FindByIDs(ctx, []string{file.ID, other.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	missing, err := files.FindByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNotificationMarkAllRead(t *testing.T) {
	db := testutil.NewDB(t)
	alice, _, _ := seed(t, db)
	repo := repositories.NewNotificationRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{UserID: alice.ID, Title: "t", Message: "m", Type: models.NotificationTypeShare}))
	}
	count, err := repo.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	n, err := repo.MarkAllRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	count, err = repo.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestToggleStarredConcurrent(t *testing.T) {
	db := testutil.NewDB(t)
	_, _, file := seed(t, db)
	files := repositories.NewFileRepository(db)
	ctx := context.Background()

	const n = 10
	results := make([]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			starred, err := files.ToggleStarred(ctx, file.ID)
			assert.NoError(t, err)
			results[i] = starred
		}(i)
	}
	wg.Wait()

	// 每次翻转都基于上一次的结果，偶数次之后回到未加星
	on := 0
	for _, r := range results {
		if r {
			on++
		}
	}
	assert.Equal(t, n/2, on)
	reloaded, err := files.FindByID(ctx, file.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Starred)

	_, err = files.ToggleStarred(ctx, uuid.NewString())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
