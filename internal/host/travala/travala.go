package travala

import (
	"strings"

	"github.com/John-Robertt/ctfetch/internal/domain"
	"github.com/John-Robertt/ctfetch/internal/host"
)

// DefaultBaseURL 是 travala 国家缩略图目录。
const DefaultBaseURL = "https://static.travala.com/resources/images-pc/countries/thumbnail"

// Host 实现主 pass 的站点约定：<base>/thumbnail-<slug>.jpg，slug 为小写+连字符。
type Host struct {
	// BaseURL 为空时使用 DefaultBaseURL（测试可指向 httptest）。
	BaseURL string
}

func (Host) Name() string { return "travala" }

func (Host) Slug(name string) domain.Slug { return domain.PrimarySlug(name) }

func (h Host) ImageURL(slug domain.Slug) (string, error) {
	base := strings.TrimSpace(h.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	return host.JoinImageURL(base, "thumbnail-"+string(slug)+".jpg")
}
