package explorer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/cache"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/search"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"github.com/3Eeeecho/go-cloudbox/internal/services/access"
	"github.com/3Eeeecho/go-cloudbox/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	ctx     context.Context
	cfg     *config.Config
	users   repositories.UserRepository
	files   repositories.FileRepository
	folders repositories.FolderRepository
	shares  repositories.ShareRepository
	storage *testutil.MemoryStorage
	cache   *testutil.MemoryCache

	db        *gorm.DB
	evaluator access.Evaluator
	domain    FolderDomainService
	engine    search.Engine

	fileService   FileService
	folderService FolderService
	trashService  TrashService
	publicLinks   PublicLinkService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		ctx:     context.Background(),
		cfg:     testutil.Config(),
		users:   repositories.NewUserRepository(db),
		files:   repositories.NewFileRepository(db),
		folders: repositories.NewFolderRepository(db),
		shares:  repositories.NewShareRepository(db),
		storage: testutil.NewMemoryStorage(),
		cache:   testutil.NewMemoryCache(),
		db:      db,
	}
	evaluator := access.NewEvaluator(f.files, f.folders, f.shares)
	domain := NewFolderDomainService(f.folders)
	engine := search.NewDBEngine(f.files)
	f.evaluator, f.domain, f.engine = evaluator, domain, engine

	f.fileService = NewFileService(f.files, f.folders, f.shares, evaluator, domain, f.storage, f.cache, engine, f.cfg)
	f.folderService = NewFolderService(f.folders, evaluator, domain)
	f.trashService = f.newTrashService(f.files)
	f.publicLinks = NewPublicLinkService(f.files, evaluator, f.storage, f.cache, f.cfg)
	return f
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x", Name: strings.Split(email, "@")[0]}
	require.NoError(t, f.users.Create(f.ctx, u))
	return u
}

func (f *fixture) upload(t *testing.T, owner *models.User, name, content string, folderID *string) *models.File {
	t.Helper()
	file, err := f.fileService.Upload(f.ctx, owner.ID, UploadRequest{
		FolderID: folderID,
		Name:     name,
		MimeType: "text/plain",
		Size:     int64(len(content)),
		Content:  strings.NewReader(content),
	})
	require.NoError(t, err)
	return file
}

func (f *fixture) folder(t *testing.T, owner *models.User, name string, parentID *string) *models.Folder {
	t.Helper()
	folder, err := f.folderService.CreateFolder(f.ctx, owner.ID, name, parentID)
	require.NoError(t, err)
	return folder
}

func (f *fixture) share(t *testing.T, file *models.File, from, to *models.User, p models.Permission) *models.Share {
	t.Helper()
	s := &models.Share{FileID: file.ID, SharedByID: from.ID, SharedWithID: to.ID, Permission: p}
	require.NoError(t, f.shares.Create(f.ctx, s))
	return s
}

// newTrashService files 可以替换成注入故障的实现
func (f *fixture) newTrashService(files repositories.FileRepository) TrashService {
	return NewTrashService(files, f.folders, f.shares, f.evaluator, f.domain, NewTransactionManager(f.db), f.storage, f.cache, f.engine)
}

func (f *fixture) reload(t *testing.T, id string) *models.File {
	t.Helper()
	file, err := f.files.FindByID(f.ctx, id)
	require.NoError(t, err)
	return file
}

func TestUploadValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")

	_, err := f.fileService.Upload(f.ctx, alice.ID, UploadRequest{Name: "a.txt", Size: 0, Content: strings.NewReader("")})
	assert.ErrorIs(t, err, xerr.ErrEmptyUpload)

	big := UploadRequest{Name: "big.bin", Size: f.cfg.Storage.MaxUploadSize + 1, Content: strings.NewReader("x")}
	_, err = f.fileService.Upload(f.ctx, alice.ID, big)
	assert.ErrorIs(t, err, xerr.ErrFileTooLarge)

	_, err = f.fileService.Upload(f.ctx, alice.ID, UploadRequest{Name: "../etc", Size: 1, Content: strings.NewReader("x")})
	assert.ErrorIs(t, err, xerr.ErrFileNameInvalid)

	missing := "missing"
	_, err = f.fileService.Upload(f.ctx, alice.ID, UploadRequest{Name: "a.txt", Size: 1, Content: strings.NewReader("x"), FolderID: &missing})
	assert.ErrorIs(t, err, xerr.ErrDirectoryNotFound)

	f.storage.FailPut = true
	_, err = f.fileService.Upload(f.ctx, alice.ID, UploadRequest{Name: "a.txt", Size: 1, Content: strings.NewReader("x")})
	assert.ErrorIs(t, err, xerr.ErrStorageFailure)
	f.storage.FailPut = false

	file, err := f.fileService.Upload(f.ctx, alice.ID, UploadRequest{Name: "Notes.TXT", Size: 11, Content: strings.NewReader("hello world")})
	require.NoError(t, err)
	assert.True(t, f.storage.Has(file.StorageKey))
	assert.True(t, strings.HasPrefix(file.StorageKey, alice.ID+"/"))
	assert.True(t, strings.HasSuffix(file.StorageKey, ".txt"))
	assert.Contains(t, file.MimeType, "text/plain")
}

func TestUploadQuota(t *testing.T) {
	f := newFixture(t)
	f.cfg.Storage.QuotaBytes = 10
	alice := f.user(t, "alice@example.com")

	first := f.upload(t, alice, "a.txt", "123456", nil)
	_, err := f.fileService.Upload(f.ctx, alice.ID, UploadRequest{Name: "b.txt", Size: 5, Content: strings.NewReader("12345")})
	assert.ErrorIs(t, err, xerr.ErrQuotaExceeded)

	// 回收站中的文件不计入配额
	require.NoError(t, f.trashService.TrashFile(f.ctx, alice.ID, first.ID))
	f.upload(t, alice, "b.txt", "12345", nil)

	usage, err := f.fileService.StorageUsage(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, usage.UsedBytes)
	assert.EqualValues(t, 50, usage.Percentage)
	assert.True(t, f.cache.Has(cache.GenerateStorageUsageKey(alice.ID)))
}

func TestTrashedFileOwnerAccess(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	file := f.upload(t, alice, "report.pdf", "content", nil)

	require.NoError(t, f.trashService.TrashFile(f.ctx, alice.ID, file.ID))
	// 重复删除是幂等的
	require.NoError(t, f.trashService.TrashFile(f.ctx, alice.ID, file.ID))

	entry, err := f.fileService.GetFile(f.ctx, alice.ID, file.ID)
	require.NoError(t, err)
	assert.True(t, entry.Trashed)

	_, err = f.fileService.Download(f.ctx, alice.ID, file.ID)
	assert.ErrorIs(t, err, xerr.ErrItemTrashed)
	assert.ErrorIs(t, err, xerr.ErrAccessDenied)
	_, err = f.fileService.Rename(f.ctx, alice.ID, file.ID, "new.pdf")
	assert.ErrorIs(t, err, xerr.ErrItemTrashed)
	_, err = f.publicLinks.GeneratePublicLink(f.ctx, alice.ID, file.ID)
	assert.ErrorIs(t, err, xerr.ErrItemTrashed)

	restored, err := f.trashService.RestoreFile(f.ctx, alice.ID, file.ID)
	require.NoError(t, err)
	assert.False(t, restored.Trashed)

	result, err := f.fileService.Download(f.ctx, alice.ID, file.ID)
	require.NoError(t, err)
	assert.Contains(t, result.URL, file.StorageKey)
	assert.NotNil(t, f.reload(t, file.ID).LastOpenedAt)
}

func TestSharedFilePermissions(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	carol := f.user(t, "carol@example.com")
	file := f.upload(t, alice, "plan.txt", "content", nil)
	share := f.share(t, file, alice, bob, models.PermissionViewer)

	entry, err := f.fileService.GetFile(f.ctx, bob.ID, file.ID)
	require.NoError(t, err)
	assert.True(t, entry.Shared)
	assert.Equal(t, models.PermissionViewer, entry.Permission)

	_, err = f.fileService.Download(f.ctx, bob.ID, file.ID)
	require.NoError(t, err)
	opened, err := f.shares.FindByID(f.ctx, share.ID)
	require.NoError(t, err)
	assert.NotNil(t, opened.LastOpenedAt)

	_, err = f.fileService.Rename(f.ctx, bob.ID, file.ID, "x.txt")
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)
	assert.ErrorIs(t, f.trashService.TrashFile(f.ctx, bob.ID, file.ID), xerr.ErrPermissionDenied)
	_, err = f.publicLinks.GeneratePublicLink(f.ctx, bob.ID, file.ID)
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)

	_, err = f.fileService.GetFile(f.ctx, carol.ID, file.ID)
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)

	// 升级为 EDITOR 后可以重命名，名称对所有者同样生效
	require.NoError(t, f.shares.Updates(f.ctx, share.ID, map[string]any{"permission": models.PermissionEditor}))
	renamed, err := f.fileService.Rename(f.ctx, bob.ID, file.ID, "plan-v2.txt")
	require.NoError(t, err)
	assert.Equal(t, "plan-v2.txt", renamed.Name)
	assert.Equal(t, "plan-v2.txt", f.reload(t, file.ID).Name)

	// 编辑者只能移动到所有者的文件夹
	bobFolder := f.folder(t, bob, "mine", nil)
	_, err = f.fileService.Move(f.ctx, bob.ID, file.ID, &bobFolder.ID)
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)
	aliceFolder := f.folder(t, alice, "docs", nil)
	moved, err := f.fileService.Move(f.ctx, bob.ID, file.ID, &aliceFolder.ID)
	require.NoError(t, err)
	assert.Equal(t, aliceFolder.ID, *moved.FolderID)

	// 文件进入回收站后分享对象无法访问
	require.NoError(t, f.trashService.TrashFile(f.ctx, alice.ID, file.ID))
	_, err = f.fileService.GetFile(f.ctx, bob.ID, file.ID)
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)
}

func TestToggleStar(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	file := f.upload(t, alice, "star.txt", "content", nil)
	share := f.share(t, file, alice, bob, models.PermissionViewer)

	starred, err := f.fileService.ToggleStar(f.ctx, alice.ID, file.ID)
	require.NoError(t, err)
	assert.True(t, starred)
	assert.True(t, f.reload(t, file.ID).Starred)

	// 接收者的星标记在分享记录上，不影响所有者
	starred, err = f.fileService.ToggleStar(f.ctx, bob.ID, file.ID)
	require.NoError(t, err)
	assert.True(t, starred)
	reloaded, err := f.shares.FindByID(f.ctx, share.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Starred)

	starred, err = f.fileService.ToggleStar(f.ctx, alice.ID, file.ID)
	require.NoError(t, err)
	assert.False(t, starred)

	aliceStarred, err := f.fileService.Starred(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, aliceStarred)

	bobStarred, err := f.fileService.Starred(f.ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobStarred, 1)
	assert.True(t, bobStarred[0].Starred)
	assert.True(t, bobStarred[0].Shared)
}

func TestMoveFolderCycle(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	a := f.folder(t, alice, "a", nil)
	b := f.folder(t, alice, "b", &a.ID)
	c := f.folder(t, alice, "c", &b.ID)

	_, err := f.folderService.MoveFolder(f.ctx, alice.ID, a.ID, &a.ID)
	assert.ErrorIs(t, err, xerr.ErrCannotMoveIntoSelf)
	_, err = f.folderService.MoveFolder(f.ctx, alice.ID, a.ID, &c.ID)
	assert.ErrorIs(t, err, xerr.ErrCannotMoveIntoSubtree)

	moved, err := f.folderService.MoveFolder(f.ctx, alice.ID, c.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)

	// c 已经不在 a 的子树中
	moved, err = f.folderService.MoveFolder(f.ctx, alice.ID, a.ID, &c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, *moved.ParentID)

	bob := f.user(t, "bob@example.com")
	_, err = f.folderService.MoveFolder(f.ctx, bob.ID, a.ID, nil)
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)
}

func TestPurgeFile(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	file := f.upload(t, alice, "gone.txt", "content", nil)
	f.share(t, file, alice, bob, models.PermissionViewer)
	link, err := f.publicLinks.GeneratePublicLink(f.ctx, alice.ID, file.ID)
	require.NoError(t, err)
	_, err = f.publicLinks.Resolve(f.ctx, link.Token)
	require.NoError(t, err)

	assert.ErrorIs(t, f.trashService.PurgeFile(f.ctx, alice.ID, file.ID), xerr.ErrNotInTrash)

	require.NoError(t, f.trashService.TrashFile(f.ctx, alice.ID, file.ID))
	// 存储删除失败不阻止记录删除
	f.storage.FailRemove = true
	require.NoError(t, f.trashService.PurgeFile(f.ctx, alice.ID, file.ID))

	assert.Nil(t, f.reload(t, file.ID))
	shares, err := f.shares.ListByFile(f.ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, shares)
	assert.False(t, f.cache.Has(cache.GeneratePublicTokenKey(link.Token)))

	_, err = f.publicLinks.Resolve(f.ctx, link.Token)
	assert.ErrorIs(t, err, xerr.ErrPublicLinkNotFound)
}

func TestPurgeFolderReparentsChildren(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	top := f.folder(t, alice, "top", nil)
	mid := f.folder(t, alice, "mid", &top.ID)
	child := f.folder(t, alice, "child", &mid.ID)
	file := f.upload(t, alice, "inside.txt", "content", &mid.ID)

	require.NoError(t, f.trashService.TrashFolder(f.ctx, alice.ID, mid.ID))
	// 文件夹进入回收站不级联到子项
	assert.False(t, f.reload(t, file.ID).Trashed)

	require.NoError(t, f.trashService.PurgeFolder(f.ctx, alice.ID, mid.ID))

	gone, err := f.folders.FindByID(f.ctx, mid.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	reparented, err := f.folders.FindByID(f.ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, reparented.ParentID)
	assert.Equal(t, top.ID, *reparented.ParentID)
	require.NotNil(t, f.reload(t, file.ID).FolderID)
	assert.Equal(t, top.ID, *f.reload(t, file.ID).FolderID)
}

// failingDeleteRepo 删除指定文件记录时返回错误
type failingDeleteRepo struct {
	repositories.FileRepository
	failID string
}

func (r *failingDeleteRepo) Delete(tx *gorm.DB, id string) error {
	if id == r.failID {
		return errors.New("disk full")
	}
	return r.FileRepository.Delete(tx, id)
}

func TestEmptyTrashContinuesAfterFailure(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	folder := f.folder(t, alice, "old", nil)
	first := f.upload(t, alice, "first.txt", "1", nil)
	broken := f.upload(t, alice, "broken.txt", "2", nil)
	last := f.upload(t, alice, "last.txt", "3", nil)

	for _, id := range []string{first.ID, broken.ID, last.ID} {
		require.NoError(t, f.trashService.TrashFile(f.ctx, alice.ID, id))
	}
	require.NoError(t, f.trashService.TrashFolder(f.ctx, alice.ID, folder.ID))

	svc := f.newTrashService(&failingDeleteRepo{FileRepository: f.files, failID: broken.ID})
	result, err := svc.EmptyTrash(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesPurged)
	assert.Equal(t, 1, result.FoldersPurged)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"file " + broken.ID}, result.Failures)
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, xerr.ErrDatabaseError)
	assert.Contains(t, result.Err.Error(), broken.ID)

	assert.Nil(t, f.reload(t, first.ID))
	assert.Nil(t, f.reload(t, last.ID))
	// 失败的文件仍留在回收站中，事务已回滚
	kept := f.reload(t, broken.ID)
	require.NotNil(t, kept)
	assert.True(t, kept.Trashed)

	listing, err := f.trashService.ListTrash(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, broken.ID, listing.Files[0].ID)
	assert.Empty(t, listing.Folders)
}

func TestEmptyTrashTwice(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	outer := f.folder(t, alice, "outer", nil)
	inner := f.folder(t, alice, "inner", &outer.ID)
	one := f.upload(t, alice, "one.txt", "1", nil)
	two := f.upload(t, alice, "two.txt", "2", &inner.ID)
	keep := f.upload(t, alice, "keep.txt", "3", nil)

	for _, id := range []string{one.ID, two.ID} {
		require.NoError(t, f.trashService.TrashFile(f.ctx, alice.ID, id))
	}
	require.NoError(t, f.trashService.TrashFolder(f.ctx, alice.ID, inner.ID))
	require.NoError(t, f.trashService.TrashFolder(f.ctx, alice.ID, outer.ID))

	result, err := f.trashService.EmptyTrash(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesPurged)
	assert.Equal(t, 2, result.FoldersPurged)
	assert.Zero(t, result.Failed)
	assert.NoError(t, result.Err)
	assert.False(t, f.storage.Has(one.StorageKey))
	assert.True(t, f.storage.Has(keep.StorageKey))

	result, err = f.trashService.EmptyTrash(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, result.FilesPurged)
	assert.Zero(t, result.FoldersPurged)

	listing, err := f.trashService.ListTrash(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, listing.Files)
	assert.Empty(t, listing.Folders)
}

func TestRestoreToRootWhenParentUnavailable(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	dir := f.folder(t, alice, "dir", nil)
	file := f.upload(t, alice, "a.txt", "content", &dir.ID)

	require.NoError(t, f.trashService.TrashFile(f.ctx, alice.ID, file.ID))
	require.NoError(t, f.trashService.TrashFolder(f.ctx, alice.ID, dir.ID))

	restored, err := f.trashService.RestoreFile(f.ctx, alice.ID, file.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.FolderID)
	assert.Nil(t, f.reload(t, file.ID).FolderID)

	folder, err := f.trashService.RestoreFolder(f.ctx, alice.ID, dir.ID)
	require.NoError(t, err)
	assert.False(t, folder.Trashed)
}

func TestPublicLinkLifecycle(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	file := f.upload(t, alice, "public.txt", "content", nil)

	link, err := f.publicLinks.GeneratePublicLink(f.ctx, alice.ID, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/public-view/"+link.Token, link.URL)

	again, err := f.publicLinks.GeneratePublicLink(f.ctx, alice.ID, file.ID)
	require.NoError(t, err)
	assert.Equal(t, link.Token, again.Token)

	resolved, err := f.publicLinks.PublicFile(f.ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, file.ID, resolved.ID)
	assert.True(t, f.cache.Has(cache.GeneratePublicTokenKey(link.Token)))

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f.publicLinks.(*publicLinkService).now = func() time.Time { return now }
	dl, err := f.publicLinks.PublicDownload(f.ctx, link.Token)
	require.NoError(t, err)
	assert.Contains(t, dl.URL, "expires=7200")
	assert.Equal(t, now.Add(f.cfg.Storage.PresignedURLExpiry), dl.ExpiresAt)

	// 回收站中的文件链接失效，恢复后重新可用
	require.NoError(t, f.trashService.TrashFile(f.ctx, alice.ID, file.ID))
	_, err = f.publicLinks.PublicFile(f.ctx, link.Token)
	assert.ErrorIs(t, err, xerr.ErrPublicLinkNotFound)
	_, err = f.trashService.RestoreFile(f.ctx, alice.ID, file.ID)
	require.NoError(t, err)

	require.NoError(t, f.publicLinks.RevokePublicLink(f.ctx, alice.ID, file.ID))
	assert.False(t, f.cache.Has(cache.GeneratePublicTokenKey(link.Token)))
	_, err = f.publicLinks.Resolve(f.ctx, link.Token)
	assert.ErrorIs(t, err, xerr.ErrPublicLinkNotFound)
	// 撤销是幂等的
	require.NoError(t, f.publicLinks.RevokePublicLink(f.ctx, alice.ID, file.ID))

	_, err = f.publicLinks.Resolve(f.ctx, "")
	assert.ErrorIs(t, err, xerr.ErrPublicLinkNotFound)
}

func TestSearchAndRecent(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	report := f.upload(t, alice, "Quarterly Report.pdf", "1", nil)
	trashed := f.upload(t, alice, "old report.pdf", "2", nil)
	f.upload(t, bob, "bob report.pdf", "3", nil)
	bobFile := f.upload(t, bob, "shared.txt", "4", nil)
	f.share(t, bobFile, bob, alice, models.PermissionViewer)
	require.NoError(t, f.trashService.TrashFile(f.ctx, alice.ID, trashed.ID))

	found, err := f.fileService.Search(f.ctx, alice.ID, "report")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, report.ID, found[0].ID)

	empty, err := f.fileService.Search(f.ctx, alice.ID, "   ")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = f.fileService.Download(f.ctx, alice.ID, bobFile.ID)
	require.NoError(t, err)
	recent, err := f.fileService.Recent(f.ctx, alice.ID)
	require.NoError(t, err)
	require.NotEmpty(t, recent)
	assert.Equal(t, bobFile.ID, recent[0].ID)
	assert.True(t, recent[0].Shared)
}

func TestListFiles(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	dir := f.folder(t, alice, "dir", nil)
	f.upload(t, alice, "root.txt", "1", nil)
	f.upload(t, alice, "inside.txt", "2", &dir.ID)

	root, err := f.fileService.ListFiles(f.ctx, alice.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, root.Folder)
	assert.Len(t, root.Folders, 1)
	require.Len(t, root.Files, 1)
	assert.Equal(t, "root.txt", root.Files[0].Name)

	sub, err := f.fileService.ListFiles(f.ctx, alice.ID, &dir.ID)
	require.NoError(t, err)
	require.Len(t, sub.Files, 1)
	assert.Equal(t, dir.ID, sub.Folder.ID)

	_, err = f.fileService.ListFiles(f.ctx, bob.ID, &dir.ID)
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)
}

func TestDirectUpload(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	docs := f.folder(t, alice, "docs", nil)

	ticket, err := f.fileService.InitUpload(f.ctx, alice.ID, InitUploadRequest{
		FolderID: &docs.ID,
		Name:     "photo.PNG",
		Size:     4,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ticket.Key, alice.ID+"/"))
	assert.True(t, strings.HasSuffix(ticket.Key, ".png"))
	assert.Equal(t, "PUT", ticket.Method)
	assert.Equal(t, "application/octet-stream", ticket.Headers["Content-Type"])
	assert.Contains(t, ticket.UploadURL, ticket.Key)

	complete := CompleteUploadRequest{Key: ticket.Key, FolderID: &docs.ID, Name: "photo.PNG"}

	// 对象还没上传
	_, err = f.fileService.CompleteUpload(f.ctx, alice.ID, complete)
	assert.ErrorIs(t, err, xerr.ErrUploadNotFound)

	_, err = f.storage.PutObject(f.ctx, ticket.Key, strings.NewReader("data"), 4, "image/png")
	require.NoError(t, err)

	// 其他用户不能登记别人的 key
	_, err = f.fileService.CompleteUpload(f.ctx, bob.ID, complete)
	assert.ErrorIs(t, err, xerr.ErrInvalidUploadKey)
	_, err = f.fileService.CompleteUpload(f.ctx, alice.ID, CompleteUploadRequest{Key: alice.ID + "/../" + bob.ID + "/x", Name: "x"})
	assert.ErrorIs(t, err, xerr.ErrInvalidUploadKey)

	file, err := f.fileService.CompleteUpload(f.ctx, alice.ID, complete)
	require.NoError(t, err)
	assert.Equal(t, int64(4), file.Size)
	assert.Equal(t, "image/png", file.MimeType)
	assert.Equal(t, &docs.ID, file.FolderID)

	listing, err := f.fileService.ListFiles(f.ctx, alice.ID, &docs.ID)
	require.NoError(t, err)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, file.ID, listing.Files[0].ID)

	// 重复登记不会删除已登记文件的对象
	_, err = f.fileService.CompleteUpload(f.ctx, alice.ID, complete)
	assert.ErrorIs(t, err, xerr.ErrUploadAlreadyCompleted)
	assert.True(t, f.storage.Has(ticket.Key))
}

func TestDirectUploadRejections(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")

	_, err := f.fileService.InitUpload(f.ctx, alice.ID, InitUploadRequest{Name: "big.bin", Size: f.cfg.Storage.MaxUploadSize + 1})
	assert.ErrorIs(t, err, xerr.ErrFileTooLarge)
	_, err = f.fileService.InitUpload(f.ctx, alice.ID, InitUploadRequest{Name: "empty.bin"})
	assert.ErrorIs(t, err, xerr.ErrEmptyUpload)

	trashed := f.folder(t, alice, "old", nil)
	require.NoError(t, f.trashService.TrashFolder(f.ctx, alice.ID, trashed.ID))
	_, err = f.fileService.InitUpload(f.ctx, alice.ID, InitUploadRequest{Name: "a.txt", Size: 1, FolderID: &trashed.ID})
	assert.ErrorIs(t, err, xerr.ErrTargetFolderTrashed)
	assert.ErrorIs(t, err, xerr.ErrInvalidOperation)

	// 客户端实际上传的内容超过上限时，登记失败并删除对象
	ticket, err := f.fileService.InitUpload(f.ctx, alice.ID, InitUploadRequest{Name: "small.txt", Size: 1, MimeType: "text/plain"})
	require.NoError(t, err)
	oversized := strings.Repeat("x", int(f.cfg.Storage.MaxUploadSize)+1)
	_, err = f.storage.PutObject(f.ctx, ticket.Key, strings.NewReader(oversized), int64(len(oversized)), "text/plain")
	require.NoError(t, err)

	_, err = f.fileService.CompleteUpload(f.ctx, alice.ID, CompleteUploadRequest{Key: ticket.Key, Name: "small.txt"})
	assert.ErrorIs(t, err, xerr.ErrFileTooLarge)
	assert.False(t, f.storage.Has(ticket.Key))

	f.storage.FailPut = true
	_, err = f.fileService.InitUpload(f.ctx, alice.ID, InitUploadRequest{Name: "a.txt", Size: 1})
	assert.ErrorIs(t, err, xerr.ErrStorageFailure)
}
