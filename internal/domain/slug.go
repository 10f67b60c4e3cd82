package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// Slug 是图片站点期望的国家标识（同时用于请求 URL 与本地文件名主干）。
//
// 不变量：同一 pass 内 slug 必须是 name 的纯函数。
type Slug string

// PrimarySlug 是主站（travala）的命名约定：转小写，每个空格替换为 '-'。
// 不处理标点、变音符号或其它空白字符。
func PrimarySlug(name string) Slug {
	return Slug(strings.ReplaceAll(strings.ToLower(name), " ", "-"))
}

// FallbackSlug 是备用站（holidify）的命名约定：原样转大写，不处理空格。
//
// 注意：与 PrimarySlug 不对称（多词国家名不会得到同一个 slug）。
// 两个站点各自的真实命名规则不同，因此刻意保留为两个独立函数。
func FallbackSlug(name string) Slug {
	return Slug(strings.ToUpper(name))
}

// ValidateSlug 拒绝无法安全用于 URL/文件名的 slug。
// 这类条目记为 invalid_name，不发起网络请求，批次继续。
func ValidateSlug(s Slug) error {
	v := string(s)
	if strings.TrimSpace(v) == "" {
		return &InvalidNameError{Slug: v, Reason: "为空或只包含空白"}
	}
	if v == "." || v == ".." {
		return &InvalidNameError{Slug: v, Reason: "不能是 . 或 .."}
	}
	if strings.ContainsAny(v, `/\`) {
		return &InvalidNameError{Slug: v, Reason: "包含路径分隔符"}
	}
	if strings.IndexFunc(v, unicode.IsControl) >= 0 {
		return &InvalidNameError{Slug: v, Reason: "包含控制字符"}
	}
	return nil
}

// InvalidNameError 表示国家名转换后的 slug 不可用。
type InvalidNameError struct {
	Slug   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("slug %q 无效：%s", e.Slug, e.Reason)
}
