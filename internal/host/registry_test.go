package host_test

import (
	"testing"

	"github.com/John-Robertt/ctfetch/internal/domain"
	"github.com/John-Robertt/ctfetch/internal/host"
	"github.com/John-Robertt/ctfetch/internal/host/holidify"
	"github.com/John-Robertt/ctfetch/internal/host/travala"
)

func TestNewRegistry_LookupAndDuplicate(t *testing.T) {
	reg, err := host.NewRegistry(travala.Host{}, holidify.Host{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if h, ok := reg.Get(" Travala "); !ok || h.Name() != "travala" {
		t.Fatalf("按名称查找失败：%v %v", h, ok)
	}
	if _, ok := reg.Get("nope"); ok {
		t.Fatalf("未注册的 host 不应命中")
	}

	if _, err := host.NewRegistry(travala.Host{}, travala.Host{BaseURL: "http://x"}); err == nil {
		t.Fatalf("重复 host 应报错")
	}
}

func TestTravala_ImageURL(t *testing.T) {
	h := travala.Host{}
	got, err := h.ImageURL(h.Slug("United States"))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := "https://static.travala.com/resources/images-pc/countries/thumbnail/thumbnail-united-states.jpg"
	if got != want {
		t.Fatalf("URL 不符合预期：\n got=%s\nwant=%s", got, want)
	}
	if host.FileName(h.Slug("United States")) != "united-states.jpg" {
		t.Fatalf("文件名不符合预期：%s", host.FileName(h.Slug("United States")))
	}
}

func TestHolidify_ImageURL(t *testing.T) {
	h := holidify.Host{BaseURL: "http://127.0.0.1:9/img/"}
	for name, want := range map[string]string{
		"Atlantis":    "http://127.0.0.1:9/img/ATLANTIS.jpg",
		"Narnia":      "http://127.0.0.1:9/img/NARNIA.jpg",
		"New Zealand": "http://127.0.0.1:9/img/NEW%20ZEALAND.jpg",
	} {
		got, err := h.ImageURL(h.Slug(name))
		if err != nil {
			t.Fatalf("不期望错误：%v", err)
		}
		if got != want {
			t.Fatalf("%s：got=%s want=%s", name, got, want)
		}
	}
	if h.Slug("New Zealand") != domain.Slug("NEW ZEALAND") {
		t.Fatalf("fallback slug 不处理空格")
	}
}

func TestJoinImageURL_RejectsBadBase(t *testing.T) {
	for _, base := range []string{"ftp://x/y", "not a url", "http://"} {
		if _, err := host.JoinImageURL(base, "a.jpg"); err == nil {
			t.Fatalf("期望 %q 报错", base)
		}
	}
}
