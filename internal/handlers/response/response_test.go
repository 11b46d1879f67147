package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", xerr.ErrFileNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", xerr.ErrShareNotFound), http.StatusNotFound},
		{"access denied", xerr.ErrPermissionDenied, http.StatusForbidden},
		{"invalid operation", xerr.ErrCannotShareWithSelf, http.StatusBadRequest},
		{"trashed item", xerr.ErrItemTrashed, http.StatusForbidden},
		{"trashed target folder", xerr.ErrTargetFolderTrashed, http.StatusBadRequest},
		{"unauthenticated", xerr.ErrInvalidCredentials, http.StatusUnauthorized},
		{"duplicate", xerr.ErrEmailAlreadyExists, http.StatusConflict},
		{"storage", xerr.Wrap(xerr.ErrStorageError, errors.New("timeout")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("keeps business message", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		HandleError(c, fmt.Errorf("share: %w", xerr.ErrCannotShareWithSelf), "分享失败")

		require.Equal(t, http.StatusBadRequest, w.Code)
		var body Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, xerr.CannotShareWithSelfCode, body.Code)
		assert.Equal(t, xerr.ErrCannotShareWithSelf.Msg, body.Message)
	})

	t.Run("hides internal details", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		HandleError(c, errors.New("dial tcp 10.0.0.1:3306: refused"), "获取文件失败")

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, xerr.InternalServerErrorCode, body.Code)
		assert.Equal(t, "获取文件失败", body.Message)
	})
}
