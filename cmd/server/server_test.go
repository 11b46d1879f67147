package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/storage"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-cloudbox/internal/router"
	"github.com/3Eeeecho/go-cloudbox/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
}

func newClient(t *testing.T) *apiClient {
	t.Helper()
	return newClientWith(t, testutil.Config(), testutil.NewMemoryStorage())
}

func newClientWith(t *testing.T, cfg *config.Config, store storage.StorageService) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := BuildHandlers(Deps{
		DB:      testutil.NewDB(t),
		Cache:   testutil.NewMemoryCache(),
		Storage: store,
		Sender:  &testutil.RecordingSender{},
		Config:  cfg,
	})
	return &apiClient{t: t, engine: router.InitRouter(h, cfg)}
}

func (c *apiClient) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, token)
}

func (c *apiClient) send(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)

	var env envelope
	if w.Code != http.StatusFound {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (c *apiClient) register(email string) string {
	c.t.Helper()
	w, env := c.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": email, "password": "hunter22", "name": email[:3]})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(env.Data, &data))
	return data.Token
}

func (c *apiClient) upload(token, name, content string) string {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(c.t, err)
	_, err = part.Write([]byte(content))
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, env := c.send(req, token)
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		ID string `json:"id"`
	}
	require.NoError(c.t, json.Unmarshal(env.Data, &data))
	return data.ID
}

func TestShareFlowOverHTTP(t *testing.T) {
	c := newClient(t)
	alice := c.register("alice@example.com")
	bob := c.register("bob@example.com")

	w, env := c.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "alice@example.com", "password": "hunter22"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, xerr.EmailAlreadyExistsCode, env.Code)

	fileID := c.upload(alice, "plan.txt", "the plan")

	// 分享前 bob 无权访问
	w, env = c.do(http.MethodGet, "/api/v1/files/"+fileID, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, xerr.PermissionDeniedCode, env.Code)

	w, env = c.do(http.MethodPost, "/api/v1/shares", alice, gin.H{"file_id": fileID, "email": "bob@example.com", "permission": "viewer"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var shared struct {
		Kind  string `json:"kind"`
		Token string `json:"token"`
		Share struct {
			ID string `json:"id"`
		} `json:"share"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &shared))
	assert.Equal(t, "internal", shared.Kind)

	w, _ = c.do(http.MethodGet, "/api/v1/files/"+fileID, bob, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = c.do(http.MethodGet, "/api/v1/files/"+fileID+"/download", bob, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "https://storage.test/")

	w, env = c.do(http.MethodGet, "/api/v1/files/"+fileID+"/download?redirect=false", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "https://storage.test/")

	w, _ = c.do(http.MethodPut, "/api/v1/files/"+fileID+"/rename", bob, gin.H{"name": "mine.txt"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = c.do(http.MethodGet, "/api/v1/notifications/unread-count", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":1}`, string(env.Data))

	// 公开链接不需要登录
	w, _ = c.do(http.MethodGet, "/api/v1/public/"+shared.Token, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 进入回收站后分享对象无法访问，所有者仍可查看
	w, _ = c.do(http.MethodDelete, "/api/v1/files/"+fileID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = c.do(http.MethodGet, "/api/v1/files/"+fileID, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = c.do(http.MethodGet, "/api/v1/files/"+fileID, alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, env = c.do(http.MethodGet, "/api/v1/files/"+fileID+"/download", alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, xerr.FileStatusInvalidCode, env.Code)
	w, _ = c.do(http.MethodGet, "/api/v1/public/"+shared.Token, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = c.do(http.MethodDelete, "/api/v1/trash", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"files_purged":1`)

	w, _ = c.do(http.MethodGet, "/api/v1/files/"+fileID, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = c.do(http.MethodDelete, "/api/v1/shares/"+shared.Share.ID, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFoldersOverHTTP(t *testing.T) {
	c := newClient(t)
	alice := c.register("alice@example.com")

	w, env := c.do(http.MethodPost, "/api/v1/folders", alice, gin.H{"name": "docs"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var folder struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &folder))

	w, env = c.do(http.MethodPut, "/api/v1/folders/"+folder.ID+"/move", alice, gin.H{"parent_id": folder.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, xerr.CannotMoveIntoSelfCode, env.Code)

	w, _ = c.do(http.MethodGet, "/api/v1/folders", alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = c.do(http.MethodDelete, "/api/v1/folders/"+folder.ID+"/permanent", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = c.do(http.MethodDelete, "/api/v1/folders/"+folder.ID, alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = c.do(http.MethodDelete, "/api/v1/folders/"+folder.ID+"/permanent", alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnauthenticatedAndUnknownRoutes(t *testing.T) {
	c := newClient(t)

	w, env := c.do(http.MethodGet, "/api/v1/files", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, xerr.UnauthorizedCode, env.Code)

	w, env = c.do(http.MethodGet, "/api/v1/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, xerr.TokenInvalidCode, env.Code)

	w, env = c.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, xerr.NotFoundCode, env.Code)

	w, _ = c.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "x@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDirectUploadToLocalStorage(t *testing.T) {
	cfg := testutil.Config()
	cfg.Storage.Type = "local"
	cfg.Storage.LocalBasePath = t.TempDir()
	cfg.Storage.LocalSignKey = "blob-secret"
	cfg.Storage.PublicBaseURL = "http://localhost/api/v1/blobs"
	cfg.Storage.MaxUploadSize = 16
	local, err := storage.NewLocalStorageService(&cfg.Storage)
	require.NoError(t, err)

	c := newClientWith(t, cfg, local)
	alice := c.register("alice@example.com")

	w, env := c.do(http.MethodPost, "/api/v1/files/init-upload", alice, gin.H{"name": "notes.txt", "size": 5, "mime_type": "text/plain"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ticket struct {
		Key       string `json:"key"`
		UploadURL string `json:"upload_url"`
		Method    string `json:"method"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	assert.Equal(t, http.MethodPut, ticket.Method)

	// 对象还没上传
	w, _ = c.do(http.MethodPost, "/api/v1/files/complete-upload", alice, gin.H{"key": ticket.Key, "name": "notes.txt"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	u, err := url.Parse(ticket.UploadURL)
	require.NoError(t, err)

	// 签名被篡改
	req := httptest.NewRequest(http.MethodPut, u.Path+"?expires="+u.Query().Get("expires")+"&sig=bad", strings.NewReader("hello"))
	w, _ = c.send(req, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 超出上限的请求体被拒绝
	req = httptest.NewRequest(http.MethodPut, u.RequestURI(), strings.NewReader(strings.Repeat("x", 32)))
	w, env = c.send(req, "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, xerr.FileTooLargeCode, env.Code)

	req = httptest.NewRequest(http.MethodPut, u.RequestURI(), strings.NewReader("hello"))
	req.Header.Set("Content-Type", "text/plain")
	w, _ = c.send(req, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = c.do(http.MethodPost, "/api/v1/files/complete-upload", alice, gin.H{"key": ticket.Key, "name": "notes.txt", "mime_type": "text/plain"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var file struct {
		ID   string `json:"id"`
		Size int64  `json:"size"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &file))
	assert.Equal(t, int64(5), file.Size)

	w, env = c.do(http.MethodPost, "/api/v1/files/complete-upload", alice, gin.H{"key": ticket.Key, "name": "notes.txt"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, xerr.UploadAlreadyCompletedCode, env.Code)

	// 其他用户不能登记别人的 key
	bob := c.register("bob@example.com")
	w, _ = c.do(http.MethodPost, "/api/v1/files/complete-upload", bob, gin.H{"key": ticket.Key, "name": "stolen.txt"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = c.do(http.MethodGet, "/api/v1/files/"+file.ID, alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
