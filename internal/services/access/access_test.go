package access

import (
	"context"
	"testing"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"github.com/3Eeeecho/go-cloudbox/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allActions = []Action{
	ActionView, ActionRename, ActionMove, ActionDelete, ActionRestore,
	ActionPurge, ActionStar, ActionShare, ActionDownload,
}

func ptr[T any](v T) *T { return &v }

func TestEvaluateFileOwner(t *testing.T) {
	t.Parallel()
	now := time.Now()
	file := &models.File{ID: "f1", UserID: "alice"}

	for _, a := range allActions {
		g, err := EvaluateFile("alice", file, nil, a, now)
		require.NoError(t, err, a)
		assert.True(t, g.Owner)
		assert.Equal(t, models.PermissionEditor, g.Level)
	}
}

func TestEvaluateFileOwnerTrashed(t *testing.T) {
	t.Parallel()
	now := time.Now()
	file := &models.File{ID: "f1", UserID: "alice", Trashed: true}

	allowed := map[Action]bool{ActionView: true, ActionDelete: true, ActionRestore: true, ActionPurge: true}
	for _, a := range allActions {
		_, err := EvaluateFile("alice", file, nil, a, now)
		if allowed[a] {
			assert.NoError(t, err, a)
			continue
		}
		assert.ErrorIs(t, err, xerr.ErrItemTrashed, a)
		assert.ErrorIs(t, err, xerr.ErrAccessDenied, a)
		assert.NotErrorIs(t, err, xerr.ErrInvalidOperation, a)
	}
}

func TestEvaluateFileShared(t *testing.T) {
	t.Parallel()
	now := time.Now()
	file := &models.File{ID: "f1", UserID: "alice"}

	tests := []struct {
		perm    models.Permission
		allowed []Action
	}{
		{models.PermissionViewer, []Action{ActionView, ActionDownload, ActionStar}},
		{models.PermissionEditor, []Action{ActionView, ActionDownload, ActionStar, ActionRename, ActionMove}},
	}
	for _, tt := range tests {
		t.Run(string(tt.perm), func(t *testing.T) {
			t.Parallel()
			share := &models.Share{FileID: "f1", SharedWithID: "bob", Permission: tt.perm}
			ok := map[Action]bool{}
			for _, a := range tt.allowed {
				ok[a] = true
			}
			for _, a := range allActions {
				g, err := EvaluateFile("bob", file, share, a, now)
				if ok[a] {
					require.NoError(t, err, a)
					assert.False(t, g.Owner)
					assert.Equal(t, tt.perm, g.Level)
					assert.Same(t, share, g.Share)
					continue
				}
				assert.ErrorIs(t, err, xerr.ErrAccessDenied, a)
			}
		})
	}
}

func TestEvaluateFileDenied(t *testing.T) {
	t.Parallel()
	now := time.Now()
	file := &models.File{ID: "f1", UserID: "alice"}

	tests := []struct {
		name  string
		file  *models.File
		share *models.Share
	}{
		{"no share", file, nil},
		{"share for another file", file, &models.Share{FileID: "f2", SharedWithID: "bob", Permission: models.PermissionEditor}},
		{"share for another user", file, &models.Share{FileID: "f1", SharedWithID: "carol", Permission: models.PermissionEditor}},
		{"expired share", file, &models.Share{FileID: "f1", SharedWithID: "bob", Permission: models.PermissionEditor, ExpiresAt: ptr(now.Add(-time.Minute))}},
		{"trashed file", &models.File{ID: "f1", UserID: "alice", Trashed: true}, &models.Share{FileID: "f1", SharedWithID: "bob", Permission: models.PermissionEditor}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := EvaluateFile("bob", tt.file, tt.share, ActionView, now)
			assert.ErrorIs(t, err, xerr.ErrPermissionDenied)
		})
	}

	_, err := EvaluateFile("bob", nil, nil, ActionView, now)
	assert.ErrorIs(t, err, xerr.ErrNotFound)
}

func TestEvaluateFolder(t *testing.T) {
	t.Parallel()
	folder := &models.Folder{ID: "d1", UserID: "alice"}

	_, err := EvaluateFolder("alice", folder, ActionRename)
	assert.NoError(t, err)
	_, err = EvaluateFolder("bob", folder, ActionView)
	assert.ErrorIs(t, err, xerr.ErrAccessDenied)
	_, err = EvaluateFolder("alice", nil, ActionView)
	assert.ErrorIs(t, err, xerr.ErrDirectoryNotFound)

	folder.Trashed = true
	_, err = EvaluateFolder("alice", folder, ActionMove)
	assert.ErrorIs(t, err, xerr.ErrItemTrashed)
	_, err = EvaluateFolder("alice", folder, ActionRestore)
	assert.NoError(t, err)
}

func TestEvaluateAnonymous(t *testing.T) {
	t.Parallel()
	file := &models.File{ID: "f1", UserID: "alice", PublicShareToken: ptr("tok")}

	_, err := EvaluateAnonymous(file, "tok", ActionView)
	assert.NoError(t, err)
	_, err = EvaluateAnonymous(file, "tok", ActionDownload)
	assert.NoError(t, err)

	for _, a := range []Action{ActionRename, ActionMove, ActionDelete, ActionShare, ActionStar} {
		_, err = EvaluateAnonymous(file, "tok", a)
		assert.ErrorIs(t, err, xerr.ErrAccessDenied, a)
	}

	_, err = EvaluateAnonymous(file, "other", ActionView)
	assert.ErrorIs(t, err, xerr.ErrPublicLinkNotFound)
	_, err = EvaluateAnonymous(&models.File{ID: "f2"}, "", ActionView)
	assert.ErrorIs(t, err, xerr.ErrPublicLinkNotFound)

	file.Trashed = true
	_, err = EvaluateAnonymous(file, "tok", ActionView)
	assert.ErrorIs(t, err, xerr.ErrPublicLinkNotFound)
}

func TestEvaluatorLooksUpShare(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	users := repositories.NewUserRepository(db)
	files := repositories.NewFileRepository(db)
	shares := repositories.NewShareRepository(db)
	ev := NewEvaluator(files, repositories.NewFolderRepository(db), shares)

	alice := &models.User{Email: "alice@example.com"}
	bob := &models.User{Email: "bob@example.com"}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))
	file := &models.File{Name: "a.txt", StorageKey: "k", UserID: alice.ID}
	require.NoError(t, files.Create(ctx, file))

	_, _, err := ev.AuthorizeFile(ctx, bob.ID, file.ID, ActionView)
	assert.ErrorIs(t, err, xerr.ErrAccessDenied)

	require.NoError(t, shares.Create(ctx, &models.Share{
		FileID: file.ID, SharedByID: alice.ID, SharedWithID: bob.ID, Permission: models.PermissionViewer,
	}))
	got, grant, err := ev.AuthorizeFile(ctx, bob.ID, file.ID, ActionView)
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
	require.NotNil(t, grant.Share)
	assert.Equal(t, models.PermissionViewer, grant.Level)

	_, _, err = ev.AuthorizeFile(ctx, bob.ID, "missing", ActionView)
	assert.ErrorIs(t, err, xerr.ErrFileNotFound)

	_, err = ev.AuthorizeFolder(ctx, alice.ID, "missing", ActionView)
	assert.ErrorIs(t, err, xerr.ErrDirectoryNotFound)
}
