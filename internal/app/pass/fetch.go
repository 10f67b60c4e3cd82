package pass

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/ctfetch/internal/domain"
	"github.com/John-Robertt/ctfetch/internal/host"
	"github.com/John-Robertt/ctfetch/internal/infra/fsx"
)

// writeImage 可替换，方便测试模拟磁盘写入失败。
var writeImage = fsx.WriteFileAtomicReplace

// Fetcher 是一个 pass 的单条目处理器：slug -> URL -> GET -> 原子落盘。
type Fetcher struct {
	Host   host.Host
	Client *http.Client
	OutDir string
}

// Handle 实现 Handler。
//
// 分类规则：
// - 名字为空白或 slug 不可用：invalid_name（不发请求）
// - HTTP 非 2xx：remote_rejected（带状态码，不写文件）
// - 其它网络错误（DNS/连接重置/超时/读 body 失败）：transport_error
// - 写文件失败：local_write_error
func (f Fetcher) Handle(ctx context.Context, name string) domain.ItemResult {
	item := domain.ItemResult{
		Name:   name,
		Status: domain.StatusFailed, // 成功时覆盖
	}

	// 空白名在主站会变成 "---" 之类的合法 slug，必须在转换前拦下。
	if strings.TrimSpace(name) == "" {
		item.ErrorCode = domain.ErrCodeInvalidName
		item.ErrorMsg = "国家名为空或只包含空白"
		return item
	}

	slug := f.Host.Slug(name)
	item.Slug = string(slug)
	if err := domain.ValidateSlug(slug); err != nil {
		item.ErrorCode = domain.ErrCodeInvalidName
		item.ErrorMsg = err.Error()
		return item
	}

	u, err := f.Host.ImageURL(slug)
	if err != nil {
		item.ErrorCode = domain.ErrCodeInvalidName
		item.ErrorMsg = fmt.Sprintf("构造 URL 失败：%v", err)
		return item
	}
	item.URL = u

	body, err := download(ctx, f.Client, u)
	if err != nil {
		var hs *host.HTTPStatusError
		if errors.As(err, &hs) {
			item.ErrorCode = domain.ErrCodeRemoteRejected
			item.HTTPStatus = hs.StatusCode
			item.ErrorMsg = humanizeStatus(f.Host.Name(), hs.StatusCode)
			return item
		}
		item.ErrorCode = domain.ErrCodeTransportError
		item.ErrorMsg = humanizeTransport(f.Host.Name(), err)
		return item
	}

	fileName := host.FileName(slug)
	if err := writeImage(f.OutDir, fileName, body); err != nil {
		item.ErrorCode = domain.ErrCodeLocalWriteError
		item.ErrorMsg = fmt.Sprintf("写入 %s 失败：%v", fileName, err)
		return item
	}

	item.File = filepath.Join(f.OutDir, fileName)
	item.Status = domain.StatusSuccess
	return item
}

func download(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("image client 为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 丢弃少量 body，便于连接复用。
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return nil, &host.HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
	}
	// 必须完整读完 body 才算成功：读到一半断开属于 transport_error，不落盘。
	return io.ReadAll(resp.Body)
}

func humanizeStatus(hostName string, code int) string {
	switch code {
	case 403, 429:
		return fmt.Sprintf("%s 返回 HTTP %d（可能触发反爬/限流）。可以设置 --rate 降低请求频率。", hostName, code)
	case 404:
		return fmt.Sprintf("%s 返回 HTTP 404（该国家没有对应图片）。", hostName)
	default:
		return fmt.Sprintf("%s 返回 HTTP %d。", hostName, code)
	}
}

func humanizeTransport(hostName string, err error) string {
	low := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Sprintf("%s 请求已取消。", hostName)
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(low, "timeout"):
		return fmt.Sprintf("%s 请求超时：%v", hostName, err)
	case strings.Contains(low, "x509") || strings.Contains(low, "certificate") || strings.Contains(low, "tls"):
		return fmt.Sprintf("%s TLS 校验失败（仅在受限测试环境可用 --insecure-skip-verify 关闭）：%v", hostName, err)
	default:
		return fmt.Sprintf("%s 下载失败：%v", hostName, err)
	}
}
