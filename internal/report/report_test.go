package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/ctfetch/internal/domain"
)

func TestWriteLists_OrderAndTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	rr := domain.RunReport{Items: []domain.ItemResult{
		{Name: "Japan", Status: domain.StatusSuccess},
		{Name: "Wonderland", Status: domain.StatusFailed},
		{Name: "Brazil", Status: domain.StatusSuccess},
		{Name: "Narnia", Status: domain.StatusFailed},
	}}

	ok := filepath.Join(dir, "successful_downloads.txt")
	bad := filepath.Join(dir, "failed_downloads.txt")
	if err := WriteLists(ok, bad, &rr); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	if got := mustRead(t, ok); got != "Japan\nBrazil\n" {
		t.Fatalf("成功列表不符合预期：%q", got)
	}
	if got := mustRead(t, bad); got != "Wonderland\nNarnia\n" {
		t.Fatalf("失败列表不符合预期：%q", got)
	}
}

func TestWriteLists_EmptyFilesWhenNoItems(t *testing.T) {
	dir := t.TempDir()
	ok := filepath.Join(dir, "fallback_successful_downloads.txt")
	bad := filepath.Join(dir, "fallback_failed_downloads.txt")

	// 先写入旧内容，确认会被覆盖为空。
	if err := os.WriteFile(bad, []byte("Old\n"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	if err := WriteLists(ok, bad, &domain.RunReport{}); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got := mustRead(t, ok); got != "" {
		t.Fatalf("期望空文件，实际 %q", got)
	}
	if got := mustRead(t, bad); got != "" {
		t.Fatalf("期望覆盖为空文件，实际 %q", got)
	}
}

func TestWriteJSON_SingleObject(t *testing.T) {
	var buf bytes.Buffer
	rr := domain.RunReport{Pass: domain.PassPrimary, Items: []domain.ItemResult{{Name: "Japan", Status: domain.StatusSuccess}}}
	rr.Finalize()
	if err := WriteJSON(&buf, rr); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	var back domain.RunReport
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("输出不是合法 JSON：%v\n%s", err, buf.String())
	}
	if back.Summary.Succeeded != 1 || back.Pass != domain.PassPrimary {
		t.Fatalf("JSON 内容不符合预期：%+v", back)
	}
}

func mustRead(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("读取文件失败 %q：%v", p, err)
	}
	return string(b)
}
