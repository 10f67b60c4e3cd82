package host

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/John-Robertt/ctfetch/internal/domain"
)

// Registry 是 host 的只读注册表（按 name 索引）。
type Registry struct {
	byName map[string]Host
}

func NewRegistry(hosts ...Host) (Registry, error) {
	byName := make(map[string]Host, len(hosts))
	for _, h := range hosts {
		if h == nil {
			return Registry{}, fmt.Errorf("host 不能为空")
		}
		name := strings.ToLower(strings.TrimSpace(h.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("host.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 host：%q", name)
		}
		byName[name] = h
	}
	return Registry{byName: byName}, nil
}

func (r Registry) Get(name string) (Host, bool) {
	if r.byName == nil {
		return nil, false
	}
	h, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return h, ok
}

// JoinImageURL 把 base 与最后一段路径拼起来；seg 做 PathEscape（空格、非 ASCII 等）。
// 供各 host 实现复用。
func JoinImageURL(base, seg string) (string, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base_url 必须是 http/https：%q", base)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base_url 缺少 host：%q", base)
	}
	return base + "/" + url.PathEscape(seg), nil
}

// FileName 是图片落盘的文件名：<slug>.jpg。
func FileName(slug domain.Slug) string {
	return string(slug) + ".jpg"
}
