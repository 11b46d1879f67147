package search

import (
	"context"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
)

// Engine 文件名搜索。只索引未删除的文件，返回命中的文件 ID
type Engine interface {
	Index(ctx context.Context, file *models.File) error
	Remove(ctx context.Context, fileID string) error
	Search(ctx context.Context, userID, query string, limit int) ([]string, error)
}

// DBEngine 未启用 Elasticsearch 时直接查询数据库
type DBEngine struct {
	files repositories.FileRepository
}

var _ Engine = (*DBEngine)(nil)

func NewDBEngine(files repositories.FileRepository) *DBEngine {
	return &DBEngine{files: files}
}

// 数据库本身就是索引，写入无需额外操作
func (e *DBEngine) Index(ctx context.Context, file *models.File) error { return nil }

func (e *DBEngine) Remove(ctx context.Context, fileID string) error { return nil }

func (e *DBEngine) Search(ctx context.Context, userID, query string, limit int) ([]string, error) {
	files, err := e.files.SearchByName(ctx, userID, query, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	return ids, nil
}
