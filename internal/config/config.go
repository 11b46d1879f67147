package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper" // 导入 Viper
)

// Config 结构体包含所有应用的配置
type Config struct {
	Server        ServerConfig        `mapstructure:"server"` // `mapstructure` 标签用于Viper绑定结构体
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Storage       StorageConfig       `mapstructure:"storage"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	AliyunOSS     AliyunOSSConfig     `mapstructure:"aliyun_oss"`
	S3            S3Config            `mapstructure:"s3"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Mail          MailConfig          `mapstructure:"mail"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`         // gin 运行模式: debug, release, test
	FrontendURL     string        `mapstructure:"frontend_url"` // 邮件和公开链接中使用的前端地址
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, postgres, sqlite
	DSN          string `mapstructure:"dsn"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig 对象存储的通用配置
type StorageConfig struct {
	Type               string        `mapstructure:"type"` // minio, aliyun_oss, s3, local
	LocalBasePath      string        `mapstructure:"local_base_path"`
	LocalSignKey       string        `mapstructure:"local_sign_key"`  // 本地存储签名 URL 使用的密钥
	PublicBaseURL      string        `mapstructure:"public_base_url"` // 本地存储签名 URL 的前缀
	PresignedURLExpiry time.Duration `mapstructure:"presigned_url_expiry"`
	MaxUploadSize      int64         `mapstructure:"max_upload_size"` // 单文件大小上限（字节）
	QuotaBytes         int64         `mapstructure:"quota_bytes"`     // 每个用户的存储配额（字节）
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

type AliyunOSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"` // 例如: https://oss-cn-hangzhou.aliyuncs.com
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
}

// S3Config 兼容 S3 协议的对象存储配置（AWS、Cloudflare R2、Supabase 等）
type S3Config struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Endpoint        string `mapstructure:"endpoint"` // 为空时使用 AWS 默认地址
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey string        `mapstructure:"secret_key"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// zap日志配置
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

// ElasticsearchConfig 定义 Elasticsearch 连接配置
type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// MailConfig 邮件发送配置
type MailConfig struct {
	Driver               string `mapstructure:"driver"` // postmark, log
	PostmarkServerToken  string `mapstructure:"postmark_server_token"`
	PostmarkAccountToken string `mapstructure:"postmark_account_token"`
	SenderEmail          string `mapstructure:"sender_email"`
	SupportEmail         string `mapstructure:"support_email"`
	LogDir               string `mapstructure:"log_dir"` // log 驱动把邮件写入该目录
}

var AppConfig *Config // 全局应用配置实例

// LoadConfig 从默认路径加载配置
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".", "./configs", "/etc/go-cloudbox/")
}

// LoadConfigFrom 从指定目录查找 config.yaml 并加载
func LoadConfigFrom(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // 配置文件名 (不带扩展名)
	v.SetConfigType("yaml")   // 配置文件类型
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// 读取环境变量，例如 GO_CLOUDBOX_DATABASE_DSN 对应 database.dsn
	v.SetEnvPrefix("GO_CLOUDBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// 其他读取错误，例如配置文件格式错误
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件未找到不是致命错误，依赖环境变量和默认值
		log.Println("Warning: config file not found, using environment variables or default values.")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	log.Println("Configuration loaded successfully with Viper.")
	return cfg, nil
}

// setDefaults 设置默认值 (如果配置文件和环境变量中都没有，则使用这些默认值)
// AutomaticEnv 只对已知的 key 生效，所以需要环境变量覆盖的 key 都要在这里登记
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "cloudbox.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_base_path", "./uploads/data")
	v.SetDefault("storage.local_sign_key", "")
	v.SetDefault("storage.public_base_url", "http://localhost:8080/api/v1/blobs")
	v.SetDefault("storage.presigned_url_expiry", 2*time.Hour)
	v.SetDefault("storage.max_upload_size", int64(100<<20))
	v.SetDefault("storage.quota_bytes", int64(10<<30))

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket_name", "go-cloudbox")

	v.SetDefault("aliyun_oss.endpoint", "")
	v.SetDefault("aliyun_oss.access_key_id", "")
	v.SetDefault("aliyun_oss.secret_access_key", "")
	v.SetDefault("aliyun_oss.bucket_name", "")

	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.use_path_style", false)

	v.SetDefault("jwt.secret_key", "")
	v.SetDefault("jwt.expires_in", 24*time.Hour)
	v.SetDefault("jwt.issuer", "go-cloudbox")

	v.SetDefault("log.output_path", "logs/app.log")
	v.SetDefault("log.error_path", "logs/error.log")
	v.SetDefault("log.level", "info")

	v.SetDefault("elasticsearch.enabled", false)
	v.SetDefault("elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.index", "cloudbox-files")

	v.SetDefault("mail.driver", "log")
	v.SetDefault("mail.postmark_server_token", "")
	v.SetDefault("mail.postmark_account_token", "")
	v.SetDefault("mail.sender_email", "no-reply@cloudbox.local")
	v.SetDefault("mail.support_email", "support@cloudbox.local")
	v.SetDefault("mail.log_dir", "logs/mails")
}

// Validate 检查启动必需的配置项
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key 不能为空")
	}
	if c.Storage.Type == "local" && c.Storage.LocalSignKey == "" {
		// 本地存储签名未单独配置时复用 JWT 密钥
		c.Storage.LocalSignKey = c.JWT.SecretKey
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver)
	}
	if c.Storage.PresignedURLExpiry <= 0 {
		return errors.New("storage.presigned_url_expiry 必须大于 0")
	}
	return nil
}
