package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/ctfetch/internal/app/pass"
	"github.com/John-Robertt/ctfetch/internal/config"
	"github.com/John-Robertt/ctfetch/internal/domain"
	"github.com/John-Robertt/ctfetch/internal/host"
	"github.com/John-Robertt/ctfetch/internal/host/holidify"
	"github.com/John-Robertt/ctfetch/internal/host/travala"
	"github.com/John-Robertt/ctfetch/internal/infra/httpx"
	"github.com/John-Robertt/ctfetch/internal/report"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage(os.Stdout)
		return
	}

	switch args[0] {
	case domain.PassPrimary, domain.PassFallback:
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
			os.Exit(1)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		code := passCmd(ctx, args[0], args[1:], cmdEnv{
			cwd:       cwd,
			stdout:    os.Stdout,
			stderr:    os.Stderr,
			lookupEnv: os.LookupEnv,
		})
		stop()
		if code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage(os.Stderr)
		os.Exit(2)
	}
}

// cmdEnv 收拢进程级依赖，测试可以在进程内驱动完整命令。
type cmdEnv struct {
	cwd       string
	stdout    io.Writer
	stderr    io.Writer
	lookupEnv config.LookupEnv
}

// passCmd 执行一个 pass 并返回退出码：
// 0 = pass 完成（无论单条成功与否）；1 = 配置/输入/输出目录等致命错误；2 = 参数错误。
func passCmd(ctx context.Context, passName string, args []string, env cmdEnv) int {
	for _, a := range args {
		if isHelp(a) {
			printPassUsage(env.stdout, passName)
			return 0
		}
	}

	cli, err := parsePassArgs(passName, args)
	if err != nil {
		fmt.Fprintf(env.stderr, "参数错误：%v\n\n", err)
		printPassUsage(env.stderr, passName)
		return 2
	}

	eff, err := config.LoadEffective(env.cwd, env.lookupEnv, cli)
	if err != nil {
		rr := reportForFatal(passName, config.Code(err), err)
		emitReport(env, rr)
		return 1
	}

	reg, err := host.NewRegistry(
		travala.Host{BaseURL: baseURLFor(eff, "travala")},
		holidify.Host{BaseURL: baseURLFor(eff, "holidify")},
	)
	if err != nil {
		fmt.Fprintf(env.stderr, "初始化 host registry 失败：%v\n", err)
		return 1
	}
	h, ok := reg.Get(eff.Host)
	if !ok {
		rr := reportForFatal(passName, domain.ErrCodeConfigInvalid, fmt.Errorf("host 未注册：%q", eff.Host))
		emitReport(env, rr)
		return 1
	}

	client := httpx.NewImageClient(httpx.Options{
		Timeout:            eff.Timeout,
		InsecureSkipVerify: eff.InsecureSkipVerify,
		RatePerSecond:      eff.RatePerSecond,
	})

	progressW, interactive := pickProgressWriter(env)
	var obs pass.Observer
	if interactive {
		obs = newProgressUI(progressW, eff)
	}

	rr, runErr := pass.Run(ctx, pass.Spec{
		Pass:        passName,
		Host:        h,
		Input:       eff.Input,
		OutDir:      eff.OutDir,
		SuccessFile: eff.SuccessFile,
		FailureFile: eff.FailureFile,
	}, client, obs)

	emitReport(env, rr)
	if runErr != nil {
		return 1
	}
	emitLocations(env.stderr, eff)
	return 0
}

func baseURLFor(eff config.EffectiveConfig, hostName string) string {
	if eff.Host == hostName {
		return eff.BaseURL
	}
	return ""
}

func parsePassArgs(passName string, args []string) (config.CLIArgs, error) {
	cli := config.CLIArgs{Pass: passName}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--insecure-skip-verify":
			cli.InsecureSkipVerify = true
			cli.InsecureSet = true
		case strings.HasPrefix(a, "--insecure-skip-verify="):
			v := strings.TrimPrefix(a, "--insecure-skip-verify=")
			b, err := strconv.ParseBool(v)
			if err != nil {
				return config.CLIArgs{}, fmt.Errorf("--insecure-skip-verify 只能是 true 或 false，实际是 %q", v)
			}
			cli.InsecureSkipVerify = b
			cli.InsecureSet = true
		case a == "--timeout" || strings.HasPrefix(a, "--timeout="):
			v, next, err := flagValue(args, i, "--timeout")
			if err != nil {
				return config.CLIArgs{}, err
			}
			i = next
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				return config.CLIArgs{}, fmt.Errorf("--timeout 必须是正的时长（例如 30s），实际是 %q", v)
			}
			cli.Timeout = d
			cli.TimeoutSet = true
		case a == "--rate" || strings.HasPrefix(a, "--rate="):
			v, next, err := flagValue(args, i, "--rate")
			if err != nil {
				return config.CLIArgs{}, err
			}
			i = next
			r, err := strconv.ParseFloat(v, 64)
			if err != nil || r < 0 {
				return config.CLIArgs{}, fmt.Errorf("--rate 必须是非负数（每秒请求数），实际是 %q", v)
			}
			cli.Rate = r
			cli.RateSet = true
		case strings.HasPrefix(a, "-"):
			return config.CLIArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if cli.Input != "" {
				return config.CLIArgs{}, fmt.Errorf("重复的输入文件：%q 与 %q", cli.Input, a)
			}
			cli.Input = a
		}
	}
	return cli, nil
}

// flagValue 支持 "--name=value" 与 "--name value" 两种写法。
func flagValue(args []string, i int, name string) (string, int, error) {
	a := args[i]
	if strings.HasPrefix(a, name+"=") {
		return strings.TrimPrefix(a, name+"="), i, nil
	}
	if i+1 >= len(args) {
		return "", i, fmt.Errorf("%s 需要一个值", name)
	}
	return args[i+1], i + 1, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  ctfetch primary  [countries.json]       [flags]
  ctfetch fallback [failed_downloads.txt] [flags]

命令：
  primary   按国家列表从 travala 下载缩略图（country_images/）
  fallback  对主 pass 的失败列表从 holidify 重新下载（fallback_country_images/）

使用 "ctfetch primary --help" 查看详细说明。
`)
}

func printPassUsage(w io.Writer, passName string) {
	d, _ := config.Defaults(passName)
	fmt.Fprintf(w, `用法：
  ctfetch %s [input] [--timeout=30s] [--rate=N] [--insecure-skip-verify]

参数：
  input                   输入文件（默认 %s）
  --timeout               单个请求的总超时（默认 30s）
  --rate                  每秒最多请求数；0 表示不限速（默认 0）
  --insecure-skip-verify  关闭 TLS 证书校验（仅限受限测试环境）
  -h, --help              显示帮助

输出：
  图片：%s/
  列表：%s, %s
`, passName, d.Input, d.OutDir, d.SuccessFile, d.FailureFile)
}

// emitReport 输出本次 pass 的结果。
//
// stdout 非 TTY：stdout 只输出一个 RunReport JSON，摘要走 stderr。
// stdout 是 TTY：摘要与失败明细直接写 stdout。
func emitReport(env cmdEnv, rr domain.RunReport) {
	if isTTY(env.stdout) {
		writeSummary(env.stdout, rr)
		return
	}
	_ = report.WriteJSON(env.stdout, rr)
	writeSummary(env.stderr, rr)
}

func writeSummary(w io.Writer, rr domain.RunReport) {
	if rr.Error != nil {
		fmt.Fprintf(w, "中止：%s %s\n", rr.Error.Code, rr.Error.Msg)
		if rr.Summary.Total == 0 {
			return
		}
	}
	fmt.Fprintf(w, "完成：pass=%s total=%d succeeded=%d failed=%d\n",
		rr.Pass, rr.Summary.Total, rr.Summary.Succeeded, rr.Summary.Failed,
	)
	if rr.Summary.Failed == 0 {
		return
	}
	fmt.Fprintln(w, "失败明细：")
	for _, it := range rr.Items {
		if it.Status != domain.StatusFailed {
			continue
		}
		name := it.Name
		if name == "" {
			name = "<empty>"
		}
		fmt.Fprintf(w, "  %s %s: %s\n", name, it.ErrorCode, it.ErrorMsg)
	}
}

func reportForFatal(passName, code string, err error) domain.RunReport {
	if code == "" {
		code = domain.ErrCodeConfigInvalid
	}
	now := time.Now().UTC()
	rr := domain.RunReport{
		Pass:       passName,
		StartedAt:  now,
		FinishedAt: now,
		Items:      []domain.ItemResult{},
		Error:      &domain.ReportError{Code: code, Msg: err.Error()},
	}
	rr.Finalize()
	return rr
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter(env cmdEnv) (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(env.stderr) {
		return env.stderr, true
	}
	if isTTY(env.stdout) {
		return env.stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	fmt.Fprintf(w, "images: %s\n", eff.OutDir)
	fmt.Fprintf(w, "succeeded: %s\n", eff.SuccessFile)
	fmt.Fprintf(w, "failed: %s\n", eff.FailureFile)
}
