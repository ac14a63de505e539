package domain

// Profile 是远端 liker 档案在本程序中的只读投影。
//
// 约定：未命中时三个字段都为空串（零值即“空档案”），不是错误。
type Profile struct {
	LikerID    string
	EvmWallet  string
	LikeWallet string
}

// 输出 CSV 的列名；与 OutputRow 的 csv tag 一致。
const (
	ColEmail      = "email"
	ColLikerID    = "likerId"
	ColEvmWallet  = "evmWallet"
	ColLikeWallet = "likeWallet"
)

// OutputRow 是一条输入记录对应的输出行（1:1，顺序与输入一致）。
// 字段顺序即输出表头顺序。
type OutputRow struct {
	Email      string `json:"email" csv:"email"`
	LikerID    string `json:"likerId" csv:"likerId"`
	EvmWallet  string `json:"evmWallet" csv:"evmWallet"`
	LikeWallet string `json:"likeWallet" csv:"likeWallet"`
}

// NewOutputRow 把查询结果合并到 email 上。
func NewOutputRow(email string, p Profile) OutputRow {
	return OutputRow{
		Email:      email,
		LikerID:    p.LikerID,
		EvmWallet:  p.EvmWallet,
		LikeWallet: p.LikeWallet,
	}
}

// Matched 报告该行是否查到了 Liker ID。
func (r OutputRow) Matched() bool { return r.LikerID != "" }
