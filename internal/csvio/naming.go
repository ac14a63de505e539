package csvio

import (
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout 是输出文件名里的时间戳格式（YYYYMMDD_HHMMSS）。
const TimestampLayout = "20060102_150405"

// OutputPath 由输入路径推导输出路径：<base>_<YYYYMMDD_HHMMSS><.ext>，与输入同目录。
// 时间取 UTC；输入没有扩展名时结果也没有扩展名。
func OutputPath(input string, now time.Time) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	return base + "_" + now.UTC().Format(TimestampLayout) + ext
}
