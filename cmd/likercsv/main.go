package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/likercsv/internal/app/run"
	"github.com/John-Robertt/likercsv/internal/config"
	"github.com/John-Robertt/likercsv/internal/csvio"
	"github.com/John-Robertt/likercsv/internal/domain"
	"github.com/John-Robertt/likercsv/internal/infra/fsx"
	"github.com/John-Robertt/likercsv/internal/profile"
)

// lookupCloser 是 CLI 实际持有的查询端：用完需要 Close。
type lookupCloser interface {
	profile.Lookup
	Close() error
}

var (
	// 测试通过替换这两个变量注入假的远端与固定时间。
	newLookup = defaultNewLookup
	nowFunc   = time.Now
)

func defaultNewLookup(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (lookupCloser, error) {
	return profile.NewFirestore(ctx, cfg, log)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		// 没有命令也就没有输入文件：按用法错误处理。
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if isHelp(args[0]) {
		printUsage(os.Stdout)
		return
	}

	switch args[0] {
	case "run":
		if code := runCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage(os.Stderr)
		os.Exit(2)
	}
}

func runCmd(args []string) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 读取当前目录失败：%v\n", err)
		return 1
	}
	return cli{dir: cwd, stdout: os.Stdout, stderr: os.Stderr}.run(args)
}

// cli 把工作目录与输出流显式化，便于测试驱动完整的 run 流程。
type cli struct {
	dir    string
	stdout io.Writer
	stderr io.Writer
}

func (c cli) run(args []string) int {
	for _, a := range args {
		if a == "--" {
			break
		}
		if isHelp(a) {
			printRunUsage(c.stdout)
			return 0
		}
	}

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(c.stderr, "参数错误：%v\n\n", err)
		printRunUsage(c.stderr)
		return 2
	}

	// 预检：配置（密钥文件 -> collection）先于一切处理。
	cfg, err := config.Load(c.dir)
	if err != nil {
		fmt.Fprintf(c.stderr, "❌ Error: %v\n", err)
		if hint := config.Remediation(config.Code(err)); hint != "" {
			fmt.Fprintln(c.stderr, hint)
		}
		if config.Code(err) == config.ErrCodeCollectionMissing {
			fmt.Fprintln(c.stderr, "\n可参考 .env.sample")
		} else if config.Code(err) == config.ErrCodeCredentialsNotFound {
			fmt.Fprintln(c.stderr, "\n密钥格式可参考 serviceAccountKey.sample.json")
		}
		return 1
	}

	log := newLogger(c.stderr, cfg)

	if ra.Input == "" {
		fmt.Fprintln(c.stderr, "❌ Error: 请提供输入文件")
		printRunUsage(c.stderr)
		return 1
	}

	input := ra.Input
	if !filepath.IsAbs(input) {
		input = filepath.Join(c.dir, input)
	}
	fi, err := os.Stat(input)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(c.stderr, "❌ Error: 文件 %q 不存在\n", ra.Input)
			return 1
		}
		fmt.Fprintf(c.stderr, "❌ Error: 无法访问文件 %q：%v\n", ra.Input, err)
		return 1
	}
	if fi.IsDir() {
		fmt.Fprintf(c.stderr, "❌ Error: %q 是目录，不是 CSV 文件\n", ra.Input)
		return 1
	}

	output := csvio.OutputPath(input, nowFunc())

	ctx := context.Background()
	lookup, err := newLookup(ctx, cfg, log)
	if err != nil {
		logRunError(log, err)
		return 1
	}
	defer func() {
		if err := lookup.Close(); err != nil {
			log.WithError(err).Warn("关闭 Firestore 客户端失败")
		}
	}()

	progressW, inPlace := pickProgressWriter(c.stdout, c.stderr)
	fmt.Fprintf(progressW, "🔥 Firestore collection: %s\n", cfg.Collection)
	obs := newProgressUI(progressW, inPlace)

	rr, err := run.Execute(ctx, run.Params{
		Input:    input,
		Output:   output,
		Lookup:   lookup,
		Observer: obs,
		Now:      nowFunc,
	})
	if err != nil {
		obs.Abort()
		logRunError(log, err)
		return 1
	}

	emitReport(c.stdout, rr)
	return 0
}

type runArgs struct {
	Input string
}

func parseRunArgs(args []string) (runArgs, error) {
	ra := runArgs{}
	// "--" 之后的参数一律视为文件名（允许以 '-' 开头）。
	endOfFlags := false
	for _, a := range args {
		switch {
		case !endOfFlags && a == "--":
			endOfFlags = true
			continue
		case !endOfFlags && strings.HasPrefix(a, "-") && a != "-":
			return runArgs{}, fmt.Errorf("未知参数 %q", a)
		}
		if ra.Input != "" {
			return runArgs{}, fmt.Errorf("重复的输入文件：%q 与 %q", ra.Input, a)
		}
		ra.Input = a
	}
	return ra, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  likercsv run <input.csv>

命令：
  run    按 email 查询 Liker ID 与钱包地址，输出 <input>_<YYYYMMDD_HHMMSS>.csv

使用 "likercsv run --help" 查看详细说明。
`)
}

func printRunUsage(w io.Writer) {
	fmt.Fprintf(w, `用法：
  likercsv run <input.csv>

输入：
  CSV，首行为表头，至少包含 email 列

配置（环境变量，或工作目录下的 .env）：
  %-30s 目标 collection（必填）
  %-30s 服务账号密钥路径（默认 %s）
  %-30s GCP 项目（默认从密钥推断）
  %-30s Firestore 数据库（默认 %s）
  %-30s 日志级别（默认 %s）

  -h, --help  显示帮助
`,
		config.EnvCollection,
		config.EnvCredentialsPath, config.DefaultCredentialsPath,
		config.EnvProjectID,
		config.EnvDatabaseID, config.DefaultDatabaseID,
		config.EnvLogLevel, config.DefaultLogLevel,
	)
}

func newLogger(w io.Writer, cfg config.Config) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(cfg.Level())
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.EnvFile != "" {
		l.WithField("path", cfg.EnvFile).Debug("已加载 .env")
	}
	return l
}

func logRunError(log logrus.FieldLogger, err error) {
	entry := log.WithError(err)
	if st := run.Stage(err); st != "" {
		entry = entry.WithField("stage", st)
	}
	if hint := profile.Hint(err); hint != "" {
		entry = entry.WithField("hint", hint)
	}
	if run.Stage(err) == run.StageRead {
		entry = entry.WithField("detail", csvio.DescribeParseError(err))
	}
	if hint := writeHint(err); hint != "" {
		entry = entry.WithField("hint", hint)
	}
	entry.Error("❌ 运行失败，未写出任何结果")
}

// writeHint 针对输出文件落盘失败给出提示。
func writeHint(err error) string {
	switch {
	case fsx.IsPathTypeConflict(err):
		return "输出路径已被目录或特殊文件占用，请移走后重试"
	case fsx.IsCrossDevice(err):
		return "输入所在目录是挂载点，无法原子替换输出文件；请把 CSV 复制到普通目录后重试"
	default:
		return ""
	}
}

func emitReport(stdout io.Writer, rr domain.RunReport) {
	if isTTY(stdout) {
		return
	}
	// stdout 非 TTY：stdout 只输出一个 RunReport JSON，过程信息都在 stderr。
	enc := json.NewEncoder(stdout)
	_ = enc.Encode(rr)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// pickProgressWriter 选择进度输出的去处，以及能否原地刷新同一行。
func pickProgressWriter(stdout, stderr io.Writer) (io.Writer, bool) {
	if isTTY(stderr) {
		return stderr, true
	}
	// 仅重定向了 stderr 时 stdout 仍可能是终端。
	if isTTY(stdout) {
		return stdout, true
	}
	return stderr, false
}
