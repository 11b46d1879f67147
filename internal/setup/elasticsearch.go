package setup

import (
	"fmt"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/search"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// InitSearch 启用 Elasticsearch 时返回 ES 引擎，否则退化为数据库查询
func InitSearch(cfg *config.ElasticsearchConfig, files repositories.FileRepository) (search.Engine, error) {
	if !cfg.Enabled {
		logger.Info("Elasticsearch 未启用，搜索使用数据库")
		return search.NewDBEngine(files), nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 Elasticsearch 客户端失败: %w", err)
	}

	// 尝试连接并获取集群信息，验证连接是否成功
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("连接 Elasticsearch 失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("连接 Elasticsearch 失败: %s", res.Status())
	}

	logger.Info("Elasticsearch client initialized successfully.", zap.String("index", cfg.Index))
	return search.NewESEngine(client, cfg.Index), nil
}
