package run

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/John-Robertt/likercsv/internal/csvio"
	"github.com/John-Robertt/likercsv/internal/domain"
	"github.com/John-Robertt/likercsv/internal/profile"
)

// Params 是一次 run 的全部输入；Lookup 必填，Observer 可为 nil。
type Params struct {
	Input    string
	Output   string
	Lookup   profile.Lookup
	Observer Observer
	// Now 用于记录起止时间；为 nil 时使用 time.Now。
	Now func() time.Time
}

// StageError 标记失败发生在哪一步（read / lookup / write）。
// Row 只在 lookup 阶段有意义（从 1 开始）。
type StageError struct {
	Stage string
	Row   int
	Email string
	Err   error
}

const (
	StageRead   = "read"
	StageLookup = "lookup"
	StageWrite  = "write"
)

func (e *StageError) Error() string {
	if e.Stage == StageLookup {
		return fmt.Sprintf("%s 第 %d 行（%s）：%v", e.Stage, e.Row, e.Email, e.Err)
	}
	return fmt.Sprintf("%s：%v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Stage 从 error 中提取失败阶段；若不是 *StageError 则返回空串。
func Stage(err error) string {
	var e *StageError
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// Execute 读取输入、逐行查询、最后一次性写出结果。
//
// 任何一步失败都会中止整个 run，且不写输出文件（已查询的结果随之丢弃）。
func Execute(ctx context.Context, p Params) (domain.RunReport, error) {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	if p.Lookup == nil {
		return domain.RunReport{}, errors.New("run: Lookup 不能为空")
	}

	rr := domain.RunReport{
		InputPath:  p.Input,
		OutputPath: p.Output,
		StartedAt:  now(),
	}

	if p.Observer != nil {
		p.Observer.OnStart(p.Input, p.Output)
	}

	tb, err := csvio.Read(p.Input)
	if err != nil {
		return rr, &StageError{Stage: StageRead, Err: err}
	}

	if p.Observer != nil {
		p.Observer.OnLoaded(len(tb.Records))
	}

	rows, err := Enrich(ctx, p.Lookup, tb.Records, p.Observer)
	if err != nil {
		return rr, err
	}

	if err := csvio.Write(p.Output, rows); err != nil {
		return rr, &StageError{Stage: StageWrite, Err: err}
	}

	rr.Rows = rows
	rr.FinishedAt = now()
	rr.Finalize()

	if p.Observer != nil {
		p.Observer.OnFinish(rr)
	}
	return rr, nil
}

// Enrich 按输入顺序逐行查询并生成输出行（1:1）。
//
// 每行：取 email 并 TrimSpace（缺列即空串）-> 查询 -> 追加结果 -> 通知 Observer。
// 一次只有一个查询在途；遇到错误立即返回，不重试。
func Enrich(ctx context.Context, lookup profile.Lookup, records []csvio.Record, obs Observer) ([]domain.OutputRow, error) {
	total := len(records)
	rows := make([]domain.OutputRow, 0, total)

	for i, rec := range records {
		email := strings.TrimSpace(rec.Get(domain.ColEmail))

		p, err := lookup.LookupByEmail(ctx, email)
		if err != nil {
			return nil, &StageError{Stage: StageLookup, Row: i + 1, Email: email, Err: err}
		}

		row := domain.NewOutputRow(email, p)
		rows = append(rows, row)

		if obs != nil {
			obs.OnRecordDone(i+1, total, row)
		}
	}
	return rows, nil
}
