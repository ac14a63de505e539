package run

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/John-Robertt/likercsv/internal/domain"
)

type recordObserver struct {
	events      []string
	startCalls  int
	startTotal  int
	indexes     []int
	emails      []string
	finishCalls int
	finished    domain.RunReport
}

func (o *recordObserver) OnStart(input, output string) {
	o.events = append(o.events, "start")
	o.startCalls++
}

func (o *recordObserver) OnLoaded(total int) {
	o.events = append(o.events, "loaded")
	o.startTotal = total
}

func (o *recordObserver) OnRecordDone(idx, total int, row domain.OutputRow) {
	o.events = append(o.events, "record")
	o.indexes = append(o.indexes, idx)
	o.emails = append(o.emails, row.Email)
}

func (o *recordObserver) OnFinish(rr domain.RunReport) {
	o.events = append(o.events, "finish")
	o.finishCalls++
	o.finished = rr
}

func TestExecute_EmitsStartRecordAndFinishEvents(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "email\na@x.com\nb@y.com\n")
	out := filepath.Join(dir, "out.csv")

	obs := &recordObserver{}
	_, err := Execute(context.Background(), Params{
		Input:    in,
		Output:   out,
		Lookup:   &stubLookup{byEmail: map[string]domain.Profile{"b@y.com": {LikerID: "L2"}}},
		Observer: obs,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	if obs.startCalls != 1 || obs.startTotal != 2 {
		t.Fatalf("OnStart/OnLoaded 不符合预期：calls=%d total=%d", obs.startCalls, obs.startTotal)
	}
	if want := []string{"start", "loaded", "record", "record", "finish"}; !reflect.DeepEqual(obs.events, want) {
		t.Fatalf("事件顺序不符合预期：%v", obs.events)
	}
	if !reflect.DeepEqual(obs.indexes, []int{1, 2}) {
		t.Fatalf("行事件序号不符合预期：%v", obs.indexes)
	}
	if !reflect.DeepEqual(obs.emails, []string{"a@x.com", "b@y.com"}) {
		t.Fatalf("行事件顺序不符合预期：%v", obs.emails)
	}
	if obs.finishCalls != 1 || obs.finished.Summary.Matched != 1 || obs.finished.OutputPath != out {
		t.Fatalf("OnFinish 不符合预期：calls=%d rr=%+v", obs.finishCalls, obs.finished)
	}
}

func TestExecute_NilObserver_SameResult(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "email\na@x.com\n")
	lk := &stubLookup{byEmail: map[string]domain.Profile{"a@x.com": {LikerID: "L1"}}}

	a, err := Execute(context.Background(), Params{Input: in, Output: filepath.Join(dir, "a.csv"), Lookup: lk, Now: fixedNow})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, err := Execute(context.Background(), Params{Input: in, Output: filepath.Join(dir, "a.csv"), Lookup: lk, Observer: &recordObserver{}, Now: fixedNow})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("observer 不应改变结果：\nnil=%+v\nobs=%+v", a, b)
	}
}

func TestExecute_StartEmittedBeforeReadFailure(t *testing.T) {
	dir := t.TempDir()
	// 第 3 行列数不符，读取阶段失败。
	in := writeInput(t, dir, "email,name\na@x.com,A\nb@y.com\n")

	obs := &recordObserver{}
	_, err := Execute(context.Background(), Params{
		Input:    in,
		Output:   filepath.Join(dir, "out.csv"),
		Lookup:   &stubLookup{},
		Observer: obs,
	})
	if Stage(err) != StageRead {
		t.Fatalf("期望 read 阶段失败，实际 %v", err)
	}
	if !reflect.DeepEqual(obs.events, []string{"start"}) {
		t.Fatalf("读取失败前应已发出 OnStart，且不应有后续事件：%v", obs.events)
	}
}
