package holidify

import (
	"strings"

	"github.com/John-Robertt/ctfetch/internal/domain"
	"github.com/John-Robertt/ctfetch/internal/host"
)

// DefaultBaseURL 是 holidify 的背景图目录。
const DefaultBaseURL = "https://www.holidify.com/images/bgImages"

// Host 实现 fallback pass 的站点约定：<base>/<SLUG>.jpg，slug 为原样大写。
type Host struct {
	BaseURL string
}

func (Host) Name() string { return "holidify" }

func (Host) Slug(name string) domain.Slug { return domain.FallbackSlug(name) }

func (h Host) ImageURL(slug domain.Slug) (string, error) {
	base := strings.TrimSpace(h.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	return host.JoinImageURL(base, string(slug)+".jpg")
}
