package domain

import (
	"strings"
	"testing"
)

func TestPrimarySlug(t *testing.T) {
	cases := []struct {
		in   string
		want Slug
	}{
		{"Japan", "japan"},
		{"United States", "united-states"},
		{"Bosnia and Herzegovina", "bosnia-and-herzegovina"},
		{"  Two  Spaces", "--two--spaces"},
		{"Côte d'Ivoire", "côte-d'ivoire"},
	}
	for _, c := range cases {
		if got := PrimarySlug(c.in); got != c.want {
			t.Fatalf("PrimarySlug(%q)=%q，期望 %q", c.in, got, c.want)
		}
	}
}

func TestPrimarySlug_DeterministicAndLowerIdempotent(t *testing.T) {
	names := []string{"Japan", "New Zealand", "SOUTH AFRICA", "papua new guinea", "Timor-Leste", ""}
	for _, n := range names {
		a, b := PrimarySlug(n), PrimarySlug(n)
		if a != b {
			t.Fatalf("同一输入必须得到同一 slug：%q -> %q / %q", n, a, b)
		}
		if strings.ToLower(string(a)) != string(a) {
			t.Fatalf("再次小写不应改变 slug：%q", a)
		}
		if PrimarySlug(string(a)) != a {
			t.Fatalf("对 slug 再次应用转换不应改变结果：%q", a)
		}
	}
}

func TestFallbackSlug_NoSpaceHandling(t *testing.T) {
	if got := FallbackSlug("Atlantis"); got != "ATLANTIS" {
		t.Fatalf("期望 ATLANTIS，实际 %q", got)
	}
	// 与主站不对称：空格保留。
	if got := FallbackSlug("New Zealand"); got != "NEW ZEALAND" {
		t.Fatalf("期望 NEW ZEALAND，实际 %q", got)
	}
}

func TestValidateSlug(t *testing.T) {
	for _, ok := range []Slug{"japan", "NEW ZEALAND", "côte-d'ivoire"} {
		if err := ValidateSlug(ok); err != nil {
			t.Fatalf("不期望错误 %q：%v", ok, err)
		}
	}
	for _, bad := range []Slug{"", "   ", ".", "..", "a/b", `a\b`, "COSTA\nRICA", "peru\r", "a\x00b"} {
		if err := ValidateSlug(bad); err == nil {
			t.Fatalf("期望 %q 被拒绝", bad)
		}
	}
}
