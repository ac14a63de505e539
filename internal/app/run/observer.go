package run

import (
	"github.com/John-Robertt/likercsv/internal/domain"
)

// Observer 用于把“进度/逐行结果”从核心流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（stdout 可能承载 JSON 报告）。
// - 事件严格按行顺序、在同一个 goroutine 内发出。
type Observer interface {
	// OnStart 在读取输入之前调用，读取失败时也已发出。
	OnStart(input, output string)
	// OnLoaded 在读完输入、开始逐行查询前调用；total 为数据行数。
	OnLoaded(total int)
	// OnRecordDone 在第 idx 行（从 1 开始）查询完成并追加结果后调用。
	OnRecordDone(idx, total int, row domain.OutputRow)
	// OnFinish 在输出文件成功写入后调用；失败路径不会调用。
	OnFinish(rr domain.RunReport)
}
