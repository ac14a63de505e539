package csvio

import (
	"io"

	"github.com/gocarina/gocsv"

	"github.com/John-Robertt/likercsv/internal/domain"
	"github.com/John-Robertt/likercsv/internal/infra/fsx"
)

// Write 把 rows 连同表头写到 path（已存在则覆盖）。
// 整个文件一次性原子落盘：要么是完整的新文件，要么保持原样。
func Write(path string, rows []domain.OutputRow) error {
	return fsx.WriteAtomic(path, func(w io.Writer) error {
		return Encode(w, rows)
	})
}

// Encode 把 rows 编码为 CSV 写入 w；表头取自 OutputRow 的 csv tag。
// rows 为空时仍输出表头。
func Encode(w io.Writer, rows []domain.OutputRow) error {
	if rows == nil {
		rows = []domain.OutputRow{}
	}
	return gocsv.Marshal(rows, w)
}
