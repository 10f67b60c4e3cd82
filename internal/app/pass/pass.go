package pass

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/ctfetch/internal/domain"
	"github.com/John-Robertt/ctfetch/internal/host"
	"github.com/John-Robertt/ctfetch/internal/infra/fsx"
	"github.com/John-Robertt/ctfetch/internal/listfile"
	"github.com/John-Robertt/ctfetch/internal/report"
)

// Spec 描述一次 pass 的全部参数（两个 pass 形状相同，只是参数不同）。
type Spec struct {
	Pass string // domain.PassPrimary / domain.PassFallback
	Host host.Host

	Input       string
	OutDir      string
	SuccessFile string
	FailureFile string
}

// FatalError 表示 pass 在批处理开始前（或结束后持久化时）失败。
type FatalError struct {
	Code string
	Err  error
}

func (e *FatalError) Error() string { return fmt.Sprintf("%s：%v", e.Code, e.Err) }

func (e *FatalError) Unwrap() error { return e.Err }

// Run 执行一次完整的 pass：读输入 -> 建输出目录 -> 逐条下载 -> 写成功/失败列表。
//
// 输入缺失/格式错误时立即返回（不发起任何网络请求、不改动已有产物），
// 报告为空并带 Error。单条失败只记录在 Items 里，不影响返回的 error。
func Run(ctx context.Context, s Spec, c *http.Client, obs Observer) (domain.RunReport, error) {
	rr := domain.RunReport{
		RunID:     uuid.NewString(),
		Pass:      s.Pass,
		Input:     s.Input,
		OutDir:    s.OutDir,
		StartedAt: time.Now().UTC(),
		Items:     make([]domain.ItemResult, 0, 256),
	}
	if s.Host != nil {
		rr.Host = s.Host.Name()
	}

	fail := func(code string, err error) (domain.RunReport, error) {
		rr.Error = &domain.ReportError{Code: code, Msg: err.Error()}
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr, &FatalError{Code: code, Err: err}
	}

	if s.Host == nil {
		return fail(domain.ErrCodeConfigInvalid, errors.New("host 不能为空"))
	}

	names, err := readInput(s)
	if err != nil {
		code := listfile.Code(err)
		if code == "" {
			code = domain.ErrCodeConfigInvalid
		}
		return fail(code, err)
	}

	if err := fsx.EnsureDir(s.OutDir); err != nil {
		return fail(domain.ErrCodeOutputUnavailable, fmt.Errorf("创建输出目录 %q 失败：%w", s.OutDir, err))
	}

	if obs != nil {
		obs.OnStart(&rr, len(names))
	}

	f := Fetcher{Host: s.Host, Client: c, OutDir: s.OutDir}
	Loop(ctx, names, f.Handle, &rr, obs)

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()

	if err := report.WriteLists(s.SuccessFile, s.FailureFile, &rr); err != nil {
		// 下载结果仍然有效（已在 rr.Items 中），只是交接文件没写成。
		rr.Error = &domain.ReportError{Code: domain.ErrCodeLocalWriteError, Msg: err.Error()}
		return rr, &FatalError{Code: domain.ErrCodeLocalWriteError, Err: err}
	}
	return rr, nil
}

func readInput(s Spec) ([]string, error) {
	switch s.Pass {
	case domain.PassPrimary:
		recs, err := listfile.ReadRecords(s.Input)
		if err != nil {
			return nil, err
		}
		return listfile.Names(recs), nil
	case domain.PassFallback:
		return listfile.ReadNames(s.Input)
	default:
		return nil, fmt.Errorf("未知 pass：%q", s.Pass)
	}
}
