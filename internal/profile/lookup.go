// Package profile 封装“按 email 查 liker 档案”这一项远端能力。
//
// 核心流程只依赖 Lookup 接口与稳定的 domain.Profile；Firestore 细节限制在本包内部。
package profile

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/John-Robertt/likercsv/internal/domain"
)

// Lookup 是 ProfileLookup 能力：按 email 等值查询，最多取 1 条。
//
// 约束：
// - 未命中返回零值 Profile 与 nil error（不是失败）
// - 不做缓存、不做重试、不做去重；每次调用一次往返
// - email 由调用方 trim，这里不校验空串
type Lookup interface {
	LookupByEmail(ctx context.Context, email string) (domain.Profile, error)
}

// LookupFunc 让普通函数满足 Lookup（测试与组合时使用）。
type LookupFunc func(ctx context.Context, email string) (domain.Profile, error)

func (f LookupFunc) LookupByEmail(ctx context.Context, email string) (domain.Profile, error) {
	return f(ctx, email)
}

const (
	StageConnect = "connect"
	StageQuery   = "query"
	StageDecode  = "decode"
)

// Error 是远端查询阶段的可追溯错误。
type Error struct {
	Collection string
	Email      string
	Stage      string // StageConnect / StageQuery / StageDecode
	Err        error
}

func (e *Error) Error() string {
	if e.Email == "" {
		return fmt.Sprintf("collection=%s stage=%s: %v", e.Collection, e.Stage, e.Err)
	}
	return fmt.Sprintf("collection=%s stage=%s email=%q: %v", e.Collection, e.Stage, e.Email, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Hint 根据底层 gRPC 状态码给出一句可操作的提示；无法归类时返回空串。
func Hint(err error) string {
	switch grpcCode(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return "服务账号无权访问该 Firestore（检查密钥是否属于正确的项目、是否有 datastore 读权限）"
	case codes.NotFound:
		return "项目或数据库不存在（检查 GOOGLE_CLOUD_PROJECT / FIRESTORE_DATABASE_ID）"
	case codes.Unavailable, codes.DeadlineExceeded:
		return "无法连接 Firestore（检查网络或代理）"
	case codes.FailedPrecondition:
		return "查询前置条件不满足（例如数据库处于 Datastore 模式）"
	default:
		return ""
	}
}

type grpcStatusError interface {
	GRPCStatus() *status.Status
}

// grpcCode 沿错误链找到第一个携带 gRPC 状态的错误；找不到返回 codes.OK。
func grpcCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	var se grpcStatusError
	if errors.As(err, &se) {
		return se.GRPCStatus().Code()
	}
	return codes.OK
}
