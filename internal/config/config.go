package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// ErrCodeCredentialsNotFound 表示服务账号密钥文件不存在。
	ErrCodeCredentialsNotFound = "credentials_not_found"
	// ErrCodeCollectionMissing 表示未配置目标 collection。
	ErrCodeCollectionMissing = "collection_missing"
	// ErrCodeInvalid 表示 .env 无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

// 环境变量名（同时也是 .env 里的 key）。
const (
	EnvCollection      = "FIRESTORE_LIKER_ID_COLLECTION"
	EnvCredentialsPath = "SERVICE_ACCOUNT_KEY_PATH"
	EnvProjectID       = "GOOGLE_CLOUD_PROJECT"
	EnvDatabaseID      = "FIRESTORE_DATABASE_ID"
	EnvLogLevel        = "LOG_LEVEL"
)

const (
	// DefaultCredentialsPath 相对于工作目录。
	DefaultCredentialsPath = "./serviceAccountKey.json"
	DefaultDatabaseID      = "(default)"
	DefaultLogLevel        = "info"
	// EnvFileName 是可选的 dotenv 文件名，位于工作目录。
	EnvFileName = ".env"
)

// Config 是启动时构造一次、显式传给各组件的运行配置。
type Config struct {
	Collection      string `mapstructure:"firestore_liker_id_collection"`
	CredentialsPath string `mapstructure:"service_account_key_path"`
	ProjectID       string `mapstructure:"google_cloud_project"`
	DatabaseID      string `mapstructure:"firestore_database_id"`
	LogLevel        string `mapstructure:"log_level"`

	// EnvFile 是实际读取到的 .env 路径；未读取时为空。
	EnvFile string `mapstructure:"-"`
}

// Level 把 LogLevel 解析为 logrus 级别；Load 已校验过，这里不会失败。
func (c Config) Level() logrus.Level {
	lv, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lv
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeCredentialsNotFound:
		return fmt.Sprintf("%s：未找到服务账号密钥文件 %q", e.Code, e.Path)
	case ErrCodeCollectionMissing:
		return fmt.Sprintf("%s：未设置 %s（环境变量或 .env）", e.Code, EnvCollection)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：%q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：%q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Remediation 返回面向用户的修复步骤（多行）；未知 code 返回空串。
func Remediation(code string) string {
	switch code {
	case ErrCodeCredentialsNotFound:
		return `请确认：
  1. 已从 Firebase 控制台下载服务账号密钥（Service Account Key）
  2. 已重命名为 serviceAccountKey.json
  3. 已放在项目根目录（或用 ` + EnvCredentialsPath + ` 指定路径）`
	case ErrCodeCollectionMissing:
		return `请确认：
  1. 已在项目根目录创建 .env 文件
  2. 已添加：` + EnvCollection + `=your-collection-name`
	default:
		return ""
	}
}

// Load 在 dir 下按固定规则构造 Config。
//
// 来源优先级：环境变量 > <dir>/.env > 内置默认值。
// 校验顺序固定：先检查密钥文件，再检查 collection；任一失败都不做后续处理。
func Load(dir string) (Config, error) {
	dirAbs, err := filepath.Abs(dir)
	if err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: dir, Err: err}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("firestore_liker_id_collection", "")
	v.SetDefault("service_account_key_path", DefaultCredentialsPath)
	v.SetDefault("google_cloud_project", "")
	v.SetDefault("firestore_database_id", DefaultDatabaseID)
	v.SetDefault("log_level", DefaultLogLevel)

	envPath := filepath.Join(dirAbs, EnvFileName)
	v.SetConfigFile(envPath)
	v.SetConfigType("env")

	envUsed := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, &Error{Code: ErrCodeInvalid, Path: envPath, Err: err}
		}
	} else {
		envUsed = envPath
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: envPath, Err: err}
	}
	cfg.EnvFile = envUsed

	cfg.Collection = strings.TrimSpace(cfg.Collection)
	cfg.ProjectID = strings.TrimSpace(cfg.ProjectID)
	cfg.DatabaseID = strings.TrimSpace(cfg.DatabaseID)
	if cfg.DatabaseID == "" {
		cfg.DatabaseID = DefaultDatabaseID
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	cfg.CredentialsPath = absCleanFrom(dirAbs, cfg.CredentialsPath)
	if cfg.CredentialsPath == "" {
		cfg.CredentialsPath = absCleanFrom(dirAbs, DefaultCredentialsPath)
	}
	fi, err := os.Stat(cfg.CredentialsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, &Error{Code: ErrCodeCredentialsNotFound, Path: cfg.CredentialsPath, Err: os.ErrNotExist}
		}
		return Config{}, &Error{Code: ErrCodeInvalid, Path: cfg.CredentialsPath, Err: err}
	}
	if fi.IsDir() {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: cfg.CredentialsPath, Err: fmt.Errorf("期望文件，实际是目录")}
	}

	if cfg.Collection == "" {
		return Config{}, &Error{Code: ErrCodeCollectionMissing, Path: envPath}
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: envPath, Err: fmt.Errorf("%s：%w", EnvLogLevel, err)}
	}

	return cfg, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute；p 为空返回空串。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
