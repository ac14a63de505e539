package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

// clearEnv 保证宿主环境里的同名变量不会干扰用例（空值等同未设置）。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvCollection, EnvCredentialsPath, EnvProjectID, EnvDatabaseID, EnvLogLevel} {
		t.Setenv(k, "")
	}
}

func TestLoad_CredentialsNotFound(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvCollection, "likers")

	_, err := Load(dir)
	if Code(err) != ErrCodeCredentialsNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeCredentialsNotFound, err, Code(err))
	}
	if !strings.Contains(err.Error(), "serviceAccountKey.json") {
		t.Fatalf("错误信息应包含默认密钥路径：%v", err)
	}
}

func TestLoad_CredentialsCheckedBeforeCollection(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	// 两项都缺：先报密钥文件。
	_, err := Load(dir)
	if Code(err) != ErrCodeCredentialsNotFound {
		t.Fatalf("期望 %q，实际 code=%q", ErrCodeCredentialsNotFound, Code(err))
	}
}

func TestLoad_CollectionMissing(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "serviceAccountKey.json"), []byte(`{}`))

	_, err := Load(dir)
	if Code(err) != ErrCodeCollectionMissing {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeCollectionMissing, err, Code(err))
	}
}

func TestLoad_FromDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "serviceAccountKey.json"), []byte(`{}`))
	writeFile(t, filepath.Join(dir, ".env"), []byte("FIRESTORE_LIKER_ID_COLLECTION=likers\nLOG_LEVEL=debug\n"))

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if cfg.Collection != "likers" {
		t.Fatalf("期望 collection=likers，实际=%q", cfg.Collection)
	}
	if cfg.Level() != logrus.DebugLevel {
		t.Fatalf("期望 debug 级别，实际=%v", cfg.Level())
	}
	if cfg.EnvFile != filepath.Join(dir, ".env") {
		t.Fatalf("期望记录 .env 路径，实际=%q", cfg.EnvFile)
	}
	if cfg.DatabaseID != DefaultDatabaseID {
		t.Fatalf("期望默认 database，实际=%q", cfg.DatabaseID)
	}
	wantCred := filepath.Join(dir, "serviceAccountKey.json")
	if cfg.CredentialsPath != wantCred {
		t.Fatalf("期望密钥路径=%q，实际=%q", wantCred, cfg.CredentialsPath)
	}
}

func TestLoad_EnvOverridesDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "serviceAccountKey.json"), []byte(`{}`))
	writeFile(t, filepath.Join(dir, ".env"), []byte("FIRESTORE_LIKER_ID_COLLECTION=from-file\n"))
	t.Setenv(EnvCollection, "from-env")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if cfg.Collection != "from-env" {
		t.Fatalf("环境变量应覆盖 .env，实际=%q", cfg.Collection)
	}
}

func TestLoad_CustomCredentialsPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "secrets"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	writeFile(t, filepath.Join(dir, "secrets", "sa.json"), []byte(`{}`))
	t.Setenv(EnvCredentialsPath, "secrets/sa.json")
	t.Setenv(EnvCollection, "likers")
	t.Setenv(EnvProjectID, " my-project ")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if cfg.CredentialsPath != filepath.Join(dir, "secrets", "sa.json") {
		t.Fatalf("相对路径应以工作目录为基准，实际=%q", cfg.CredentialsPath)
	}
	if cfg.ProjectID != "my-project" {
		t.Fatalf("project 应被 trim，实际=%q", cfg.ProjectID)
	}
}

func TestLoad_CredentialsPathIsDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "serviceAccountKey.json"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	t.Setenv(EnvCollection, "likers")

	_, err := Load(dir)
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "serviceAccountKey.json"), []byte(`{}`))
	t.Setenv(EnvCollection, "likers")
	t.Setenv(EnvLogLevel, "loud")

	_, err := Load(dir)
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestRemediation(t *testing.T) {
	if !strings.Contains(Remediation(ErrCodeCredentialsNotFound), "serviceAccountKey.json") {
		t.Fatalf("密钥缺失的提示应提到文件名")
	}
	if !strings.Contains(Remediation(ErrCodeCollectionMissing), EnvCollection) {
		t.Fatalf("collection 缺失的提示应提到变量名")
	}
	if Remediation("nope") != "" {
		t.Fatalf("未知 code 应返回空串")
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}
