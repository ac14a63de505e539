// Package wallet 对档案里的钱包地址做格式检查（只检查，不改写）。
package wallet

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

const evmHexLen = 40

// ValidEVM 判断 addr 是否为合法的 EVM 地址：0x 前缀 + 40 位十六进制。
// 全小写或全大写不带校验信息，视为合法；大小写混合时按 EIP-55 校验。
func ValidEVM(addr string) bool {
	if len(addr) != 2+evmHexLen || !(strings.HasPrefix(addr, "0x") || strings.HasPrefix(addr, "0X")) {
		return false
	}
	body := addr[2:]
	if _, err := hex.DecodeString(body); err != nil {
		return false
	}

	lower := strings.ToLower(body)
	if body == lower || body == strings.ToUpper(body) {
		return true
	}
	return body == checksumBody(lower)
}

// ChecksumEVM 返回 EIP-55 大小写形式；addr 不是 40 位十六进制时原样返回。
func ChecksumEVM(addr string) string {
	if len(addr) != 2+evmHexLen {
		return addr
	}
	lower := strings.ToLower(addr[2:])
	if _, err := hex.DecodeString(lower); err != nil {
		return addr
	}
	return "0x" + checksumBody(lower)
}

// checksumBody 要求 lower 为 40 位小写十六进制。
func checksumBody(lower string) string {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(lower))
	sum := hasher.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}
