package host

import (
	"github.com/John-Robertt/ctfetch/internal/domain"
)

// Host 描述一个国家缩略图站点的命名约定。
//
// 约束：
// - Slug 必须是纯函数（同一 name 永远得到同一 slug）
// - ImageURL 只做 URL 拼接，不发起网络请求
type Host interface {
	Name() string
	Slug(name string) domain.Slug
	ImageURL(slug domain.Slug) (string, error)
}
