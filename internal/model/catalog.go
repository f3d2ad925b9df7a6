package model

import "fmt"

// PartCodes 注塑件编码（KODE INJECT），下标即行号
var PartCodes = [...]string{
	"J-303 RH", "J-305", "J-306 RH", "J-306 LH", "J-307", "J-308 RH", "J-308 LH", "J-309",
	"J-1401 RH", "J-1402 LH", "J-1403 RH", "J-1403 LH", "J-1404 RH", "J-1404 LH", "J-1405 RH", "J-1405 LH",
	"J-1406 RH", "J-1406 LH", "J-1407 RH", "J-1407 LH", "J-1408 RH", "J-1408 LH", "J-1409 RH", "J-1409 LH",
	"J-1410 RH", "J-1411 LH", "J-1412 RH", "J-1413 LH", "J-5501", "J-5502", "J-5503", "J-5504", "J-5505",
	"J-5506", "J-5508 RH", "J-5508 LH", "J-5509 RH", "J-5509 LH", "136B", "202B",
}

// StdPacks 标准包装数（STDRT PACK），与 PartCodes 一一对应
var StdPacks = [...]int{
	104, 200, 32, 32, 52, 15, 15, 48, 72, 72, 40, 40, 60, 60, 9, 9, 10, 10, 144, 144, 120, 120, 40, 40,
	18, 18, 24, 24, 11, 11, 12, 12, 192, 180, 200, 200, 24, 24, 25, 25,
}

// PartCount 零件数量 N
const PartCount = len(PartCodes)

// 编译期保证两张表长度一致
var _ = [1]struct{}{}[len(PartCodes)-len(StdPacks)]

// CatalogEntry 目录条目
type CatalogEntry struct {
	Index    int    `json:"index"`
	Code     string `json:"code"`
	PackSize int    `json:"packSize"`
}

// ValidIndex 下标是否落在 [0, N)
func ValidIndex(index int) bool {
	return index >= 0 && index < PartCount
}

// CheckIndex 校验下标，越界返回校验错误
func CheckIndex(index int) error {
	if !ValidIndex(index) {
		return NewValidationError(MsgIndexOutOfRange, fmt.Errorf("index %d out of range [0,%d)", index, PartCount), index, PartCount)
	}
	return nil
}

// PackSize 标准包装数；越界返回 0
func PackSize(index int) int {
	if !ValidIndex(index) {
		return 0
	}
	return StdPacks[index]
}

// PartCode 零件编码；越界返回空串
func PartCode(index int) string {
	if !ValidIndex(index) {
		return ""
	}
	return PartCodes[index]
}

// IndexOfPartCode 按编码查下标，未找到返回 -1
func IndexOfPartCode(code string) int {
	for i, c := range PartCodes {
		if c == code {
			return i
		}
	}
	return -1
}

// Catalog 返回完整目录（副本）
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, 0, PartCount)
	for i := range PartCodes {
		out = append(out, CatalogEntry{Index: i, Code: PartCodes[i], PackSize: StdPacks[i]})
	}
	return out
}
