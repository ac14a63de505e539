package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// 通过可替换的函数指针，让测试能稳定模拟 rename 失败 / EXDEV。
var renameFunc = os.Rename

// PathTypeConflictError 表示目标路径已存在但不是普通文件（例如是个目录）。
type PathTypeConflictError struct {
	Path string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望普通文件，实际 %s）", e.Path, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError 表示 rename 跨了文件系统（EXDEV）。
// 临时文件总是与目标同目录创建，正常情况下不会出现；出现说明目录是挂载点之类的特殊情况。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("跨盘 rename 失败（EXDEV）：%q -> %q：%v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice 判断 err 是否为跨盘（EXDEV）错误。
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename 封装 os.Rename，并把 EXDEV 显式标记为 CrossDeviceError。
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// WriteAtomic 把 fill 写出的内容原子落到 path（同目录临时文件 + rename），已存在则覆盖。
//
// fill 返回错误时放弃本次写入，目标文件保持原样；失败时不会留下临时文件。
func WriteAtomic(path string, fill func(w io.Writer) error) error {
	path = filepath.Clean(path)
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	if fi, err := os.Lstat(path); err == nil {
		if fi.IsDir() {
			return &PathTypeConflictError{Path: path, Got: "dir"}
		}
		if !fi.Mode().IsRegular() {
			return &PathTypeConflictError{Path: path, Got: fi.Mode().Type().String()}
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	// 前缀带 '.'，避免在输入目录里显眼。
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := fill(tmp); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := Rename(tmpName, path); err != nil {
		return err
	}

	// 目录 fsync：best-effort。
	_ = syncDirBestEffort(dir)
	return nil
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
