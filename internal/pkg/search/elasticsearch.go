package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/elastic/go-elasticsearch/v8"
)

// ESEngine 基于 Elasticsearch 的文件名搜索
type ESEngine struct {
	client *elasticsearch.Client
	index  string
}

var _ Engine = (*ESEngine)(nil)

func NewESEngine(client *elasticsearch.Client, index string) *ESEngine {
	if index == "" {
		index = "cloudbox-files"
	}
	return &ESEngine{client: client, index: index}
}

type fileDocument struct {
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

func (e *ESEngine) Index(ctx context.Context, file *models.File) error {
	// 回收站中的文件不参与搜索
	if file.Trashed {
		return e.Remove(ctx, file.ID)
	}

	body, err := json.Marshal(fileDocument{
		Name:      file.Name,
		UserID:    file.UserID,
		MimeType:  file.MimeType,
		Size:      file.Size,
		CreatedAt: file.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("序列化索引文档失败: %w", err)
	}

	res, err := e.client.Index(e.index, bytes.NewReader(body),
		e.client.Index.WithDocumentID(file.ID),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("写入 Elasticsearch 失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("写入 Elasticsearch 失败: %s", res.String())
	}
	return nil
}

func (e *ESEngine) Remove(ctx context.Context, fileID string) error {
	res, err := e.client.Delete(e.index, fileID, e.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("删除 Elasticsearch 文档失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("删除 Elasticsearch 文档失败: %s", res.String())
	}
	return nil
}

func (e *ESEngine) Search(ctx context.Context, userID, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildQuery(userID, query)); err != nil {
		return nil, fmt.Errorf("构建搜索请求失败: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(&buf),
		e.client.Search.WithSize(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("搜索 Elasticsearch 失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		// 索引尚未创建时视为没有结果
		if res.StatusCode == http.StatusNotFound {
			return []string{}, nil
		}
		return nil, fmt.Errorf("搜索 Elasticsearch 失败: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析搜索结果失败: %w", err)
	}

	ids := make([]string, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// buildQuery 只在该用户自己的文件中按文件名做模糊匹配
func buildQuery(userID, query string) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"term": map[string]any{"user_id.keyword": userID}},
				},
				"should": []any{
					map[string]any{"match": map[string]any{"name": map[string]any{"query": query, "fuzziness": "AUTO"}}},
					map[string]any{"wildcard": map[string]any{"name.keyword": map[string]any{
						"value":            "*" + strings.ToLower(query) + "*",
						"case_insensitive": true,
					}}},
				},
				"minimum_should_match": 1,
			},
		},
	}
}
