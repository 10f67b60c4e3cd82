package report

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/ctfetch/internal/domain"
	"github.com/John-Robertt/ctfetch/internal/infra/fsx"
)

// WriteLists 持久化一次 pass 的两个产物：成功列表与失败列表。
//
// 格式：每行一个国家名（处理顺序），每行以 '\n' 结尾；没有条目时写空文件。
// 两个文件都是原子写入（覆盖上一次运行的结果）。
func WriteLists(successPath, failurePath string, rr *domain.RunReport) error {
	if err := writeLines(successPath, rr.Successes()); err != nil {
		return err
	}
	return writeLines(failurePath, rr.Failures())
}

// WriteJSON 输出机器可读的 RunReport（单个 JSON 对象 + 换行）。
func WriteJSON(w io.Writer, rr domain.RunReport) error {
	return json.NewEncoder(w).Encode(rr)
}

func writeLines(path string, lines []string) error {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	return fsx.WriteFileAtomicReplace(dir, name, []byte(sb.String()))
}
