// Package csvio 负责输入 CSV 的读取、输出 CSV 的写入，以及输出文件命名。
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const utf8BOM = "\ufeff"

// Record 是一行输入数据：列名 -> 原始字符串值。
type Record map[string]string

// Get 返回列 col 的值；列不存在时返回空串（不视为错误）。
func (r Record) Get(col string) string {
	return r[col]
}

// Table 是读取后的整张输入表。Records 顺序与文件行顺序一致。
type Table struct {
	Header  []string
	Records []Record
}

// HasColumn 报告表头是否包含 col。
func (t Table) HasColumn(col string) bool {
	for _, h := range t.Header {
		if h == col {
			return true
		}
	}
	return false
}

// Read 读取 path 指向的 CSV：首行作为表头，其余每行按表头映射为 Record。
func Read(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse 与 Read 相同，但从任意 io.Reader 读取。
//
// 规则：
// - 空行跳过（encoding/csv 的默认行为）
// - 表头去掉 UTF-8 BOM 并 TrimSpace；值保持原样（email 的 trim 由调用方负责）
// - 字段数与表头不一致：返回带行号的 *csv.ParseError
func Parse(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// 空文件：没有表头也没有数据，视为 0 行。
			return Table{}, nil
		}
		return Table{}, err
	}
	for i := range header {
		h := header[i]
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		header[i] = strings.TrimSpace(h)
	}
	// 之后每行都必须与表头同宽。
	cr.FieldsPerRecord = len(header)

	t := Table{Header: header, Records: make([]Record, 0, 64)}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, err
		}
		rec := make(Record, len(header))
		for i, h := range header {
			rec[h] = row[i]
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

// DescribeParseError 把 *csv.ParseError 变成一句可定位的话；其他错误原样返回文本。
func DescribeParseError(err error) string {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Sprintf("第 %d 行第 %d 列：%v", pe.Line, pe.Column, pe.Err)
	}
	return err.Error()
}
