package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/John-Robertt/likercsv/internal/config"
	"github.com/John-Robertt/likercsv/internal/domain"
	"github.com/John-Robertt/likercsv/internal/wallet"
)

// 文档里的字段名。
const (
	FieldEmail      = "email"
	FieldEvmWallet  = "evmWallet"
	FieldLikeWallet = "likeWallet"
)

var _ Lookup = (*Firestore)(nil)

// Firestore 是基于 Firestore collection 的 Lookup 实现。
// 文档 ID 即 Liker ID。
type Firestore struct {
	client     *firestore.Client
	collection string
	log        logrus.FieldLogger
}

// NewFirestore 用 cfg 中的密钥/项目/数据库构造客户端。
//
// - ProjectID 为空：从密钥文件推断（firestore.DetectProjectID）
// - CredentialsPath 为空：走 ADC；设置了 FIRESTORE_EMULATOR_HOST 时 SDK 会直连模拟器
func NewFirestore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*Firestore, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	databaseID := cfg.DatabaseID
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, &Error{Collection: cfg.Collection, Stage: StageConnect, Err: err}
	}

	log.WithFields(logrus.Fields{
		"collection": cfg.Collection,
		"database":   databaseID,
	}).Debug("firestore client ready")

	return &Firestore{
		client:     client,
		collection: cfg.Collection,
		log:        log,
	}, nil
}

// LookupByEmail 执行 `email == ?` 且 limit 1 的查询。
func (f *Firestore) LookupByEmail(ctx context.Context, email string) (domain.Profile, error) {
	it := f.client.Collection(f.collection).
		Where(FieldEmail, "==", email).
		Limit(1).
		Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if errors.Is(err, iterator.Done) {
		f.log.WithFields(logrus.Fields{"email": email, "found": false}).Debug("lookup")
		return domain.Profile{}, nil
	}
	if err != nil {
		return domain.Profile{}, &Error{Collection: f.collection, Email: email, Stage: StageQuery, Err: err}
	}
	if snap == nil || snap.Ref == nil {
		return domain.Profile{}, &Error{Collection: f.collection, Email: email, Stage: StageDecode, Err: fmt.Errorf("文档快照缺少引用")}
	}

	p := profileFromData(snap.Ref.ID, snap.Data())
	f.log.WithFields(logrus.Fields{"email": email, "found": true, "liker_id": p.LikerID}).Debug("lookup")
	warnBadWallet(f.log, email, p)
	return p, nil
}

// warnBadWallet 只记录格式异常的 evmWallet，输出仍保持原值。
func warnBadWallet(log logrus.FieldLogger, email string, p domain.Profile) {
	if p.EvmWallet == "" || wallet.ValidEVM(p.EvmWallet) {
		return
	}
	log.WithFields(logrus.Fields{
		"email":      email,
		"liker_id":   p.LikerID,
		"evm_wallet": p.EvmWallet,
		"checksum":   wallet.ChecksumEVM(p.EvmWallet),
	}).Warn("evmWallet 不是合法的 EVM 地址（或 EIP-55 校验和不符）")
}

// Close 释放底层连接。
func (f *Firestore) Close() error {
	if f == nil || f.client == nil {
		return nil
	}
	return f.client.Close()
}

// profileFromData 把文档 ID 与字段映射为 Profile；缺失或 null 的字段为空串。
func profileFromData(id string, data map[string]any) domain.Profile {
	return domain.Profile{
		LikerID:    id,
		EvmWallet:  stringField(data, FieldEvmWallet),
		LikeWallet: stringField(data, FieldLikeWallet),
	}
}

// stringField 读取字段并转成 CSV 单元格文本。
//
// 假值（nil、false、0、空串）视为缺失；true 写作 "1"；
// 数组与对象写作 JSON；其他值用 fmt.Sprint 渲染。
func stringField(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if !x {
			return ""
		}
		return "1"
	case int64:
		if x == 0 {
			return ""
		}
		return fmt.Sprint(x)
	case float64:
		if x == 0 {
			return ""
		}
		return fmt.Sprint(x)
	case []any, map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}
