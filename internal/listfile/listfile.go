package listfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/ctfetch/internal/domain"
)

// Error 是读取输入列表时的结构化错误（带 error_code）。
// 任何 Error 都意味着 pass 必须在发起网络请求之前中止。
type Error struct {
	Code string // domain.ErrCodeInputNotFound / domain.ErrCodeInputMalformed
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case domain.ErrCodeInputNotFound:
		return fmt.Sprintf("%s：输入文件 %q 不存在", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：输入文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：输入文件 %q 无效", e.Code, e.Path)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ReadRecords 读取主 pass 的国家记录列表。
//
// 支持两种格式：
// - JSON（默认）：顶层必须是数组，每个元素必须是带字符串 name 字段的对象（其余字段忽略），
//   name 不能为 null，也不能含换行
// - HTML（.html/.htm）：优先取带 data-name 属性的元素，否则取每个 <li> 的文本
//
// 任何一条记录不合法都视为整个文件 malformed（宁可不跑，也不跑一半）。
func ReadRecords(path string) ([]domain.CountryRecord, error) {
	b, err := readFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		recs, err := parseHTMLRecords(b)
		if err != nil {
			return nil, &Error{Code: domain.ErrCodeInputMalformed, Path: path, Err: err}
		}
		return recs, nil
	default:
		recs, err := parseJSONRecords(b)
		if err != nil {
			return nil, &Error{Code: domain.ErrCodeInputMalformed, Path: path, Err: err}
		}
		return recs, nil
	}
}

// ReadNames 读取 fallback pass 的输入：每行一个国家名（通常是主 pass 的 failed 文件）。
//
// 每行做 TrimSpace；空行保留为一个条目（下游会记为 invalid_name），
// 保证“输入条目数 == 成功数 + 失败数”。
func ReadNames(path string) ([]string, error) {
	b, err := readFile(path)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimPrefix(b, []byte("\xEF\xBB\xBF"))

	names := make([]string, 0, 64)
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		names = append(names, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, &Error{Code: domain.ErrCodeInputMalformed, Path: path, Err: err}
	}
	return names, nil
}

// Names 把记录列表投影为按顺序排列的国家名。
func Names(recs []domain.CountryRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Name)
	}
	return out
}

func readFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Code: domain.ErrCodeInputNotFound, Path: path, Err: err}
		}
		return nil, &Error{Code: domain.ErrCodeInputMalformed, Path: path, Err: err}
	}
	return b, nil
}

func parseJSONRecords(b []byte) ([]domain.CountryRecord, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("期望 JSON 数组（元素为带 name 的对象）：%w", err)
	}
	if raw == nil {
		return nil, errors.New("期望 JSON 数组，实际为 null")
	}

	recs := make([]domain.CountryRecord, 0, len(raw))
	for i, obj := range raw {
		v, ok := obj["name"]
		if !ok {
			return nil, fmt.Errorf("第 %d 条记录缺少 name 字段", i)
		}
		// null 解码到 string 不报错，需单独拒绝。
		if !bytes.HasPrefix(bytes.TrimSpace(v), []byte(`"`)) {
			return nil, fmt.Errorf("第 %d 条记录的 name 不是字符串：%s", i, bytes.TrimSpace(v))
		}
		var name string
		if err := json.Unmarshal(v, &name); err != nil {
			return nil, fmt.Errorf("第 %d 条记录的 name 不是字符串：%w", i, err)
		}
		// 成功/失败列表每行一个名字，换行会破坏两个 pass 之间的交接。
		if strings.ContainsAny(name, "\r\n") {
			return nil, fmt.Errorf("第 %d 条记录的 name 含换行：%q", i, name)
		}
		recs = append(recs, domain.CountryRecord{Name: name})
	}
	return recs, nil
}

func parseHTMLRecords(b []byte) ([]domain.CountryRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	recs := make([]domain.CountryRecord, 0, 64)
	doc.Find("[data-name]").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("data-name")
		recs = append(recs, domain.CountryRecord{Name: normSpace(name)})
	})
	if len(recs) > 0 {
		return recs, nil
	}

	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		recs = append(recs, domain.CountryRecord{Name: normSpace(s.Text())})
	})
	if len(recs) == 0 {
		return nil, errors.New("未找到任何国家记录（需要 data-name 属性或 <li> 列表）")
	}
	return recs, nil
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
