package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/John-Robertt/ctfetch/internal/domain"
)

const (
	// ErrCodeInvalid 表示配置文件/环境变量/CLI 参数无法解析或字段不合法。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
)

const (
	// FileName 是 cwd 下的可选配置文件。
	FileName = "ctfetch.json"
	// EnvFileName 是 cwd 下的可选 .env 文件（由 godotenv 解析，不写入进程环境）。
	EnvFileName = ".env"

	EnvTimeout  = "CTFETCH_TIMEOUT"
	EnvInsecure = "CTFETCH_INSECURE_SKIP_VERIFY"
	EnvRate     = "CTFETCH_RATE"

	// DefaultTimeout 是请求总超时的内置默认值。
	DefaultTimeout = 30 * time.Second
)

// PassDefaults 是每个 pass 的内置约定（输入/输出文件名与站点）。
type PassDefaults struct {
	Host        string
	Input       string
	OutDir      string
	SuccessFile string
	FailureFile string
}

var defaults = map[string]PassDefaults{
	domain.PassPrimary: {
		Host:        "travala",
		Input:       "countries.json",
		OutDir:      "country_images",
		SuccessFile: "successful_downloads.txt",
		FailureFile: "failed_downloads.txt",
	},
	domain.PassFallback: {
		Host:        "holidify",
		Input:       "failed_downloads.txt",
		OutDir:      "fallback_country_images",
		SuccessFile: "fallback_successful_downloads.txt",
		FailureFile: "fallback_failed_downloads.txt",
	},
}

// Defaults 返回 pass 的内置约定；未知 pass 返回 false。
func Defaults(pass string) (PassDefaults, bool) {
	d, ok := defaults[pass]
	return d, ok
}

// CLIArgs 保留“是否显式指定”的信息，保证 CLI 能覆盖任何更低优先级的来源。
type CLIArgs struct {
	Pass  string
	Input string

	InsecureSkipVerify bool
	InsecureSet        bool

	Timeout    time.Duration
	TimeoutSet bool

	Rate    float64
	RateSet bool
}

// FileConfig 对应 ctfetch.json 的解析结构。
type FileConfig struct {
	TimeoutSeconds     int             `json:"timeout_seconds"`
	InsecureSkipVerify *bool           `json:"insecure_skip_verify"`
	RequestsPerSecond  float64         `json:"requests_per_second"`
	Primary            *PassFileConfig `json:"primary"`
	Fallback           *PassFileConfig `json:"fallback"`
}

type PassFileConfig struct {
	Host        string `json:"host"`
	BaseURL     string `json:"base_url"`
	Input       string `json:"input"`
	OutDir      string `json:"out_dir"`
	SuccessFile string `json:"success_file"`
	FailureFile string `json:"failure_file"`
}

// EffectiveConfig 是合并后的最终配置，路径均为 clean + absolute。
type EffectiveConfig struct {
	Pass string

	Timeout            time.Duration
	InsecureSkipVerify bool
	RatePerSecond      float64

	Host        string
	BaseURL     string // 为空表示使用 host 的默认 base
	Input       string
	OutDir      string
	SuccessFile string
	FailureFile string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" && e.Err != nil {
		return fmt.Sprintf("%s：%q 无效：%v", e.Code, e.Path, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s：%v", e.Code, e.Err)
	}
	return e.Code
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

// LookupEnv 与 os.LookupEnv 同签名，测试可注入。
type LookupEnv func(key string) (string, bool)

// LoadEffective 读取 <cwd>/ctfetch.json 与 <cwd>/.env（都可选），并与环境变量、CLI 参数合并。
//
// 覆盖优先级（固定）：
// - timeout / insecure_skip_verify / rate：CLI > 进程环境变量 > .env > ctfetch.json > 默认
// - input：CLI 位置参数 > ctfetch.json 的 <pass>.input > 默认
// - 其他字段：仅由 ctfetch.json 控制
func LoadEffective(cwd string, env LookupEnv, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	d, ok := defaults[cli.Pass]
	if !ok {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Err: fmt.Errorf("未知 pass：%q", cli.Pass)}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	envPath := filepath.Join(cwdAbs, EnvFileName)
	dotenv, err := readDotEnv(envPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: envPath, Err: err}
	}
	lookup := layeredLookup(env, dotenv)

	eff := EffectiveConfig{
		Pass:          cli.Pass,
		Timeout:       DefaultTimeout,
		RatePerSecond: fc.RequestsPerSecond,
	}

	if fc.TimeoutSeconds < 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("timeout_seconds 不能为负数：%d", fc.TimeoutSeconds)}
	}
	if fc.TimeoutSeconds > 0 {
		eff.Timeout = time.Duration(fc.TimeoutSeconds) * time.Second
	}
	if fc.InsecureSkipVerify != nil {
		eff.InsecureSkipVerify = *fc.InsecureSkipVerify
	}

	if v, ok := lookup(EnvTimeout); ok {
		dur, err := parseTimeout(v)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: EnvTimeout, Err: err}
		}
		eff.Timeout = dur
	}
	if v, ok := lookup(EnvInsecure); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: EnvInsecure, Err: err}
		}
		eff.InsecureSkipVerify = b
	}
	if v, ok := lookup(EnvRate); ok {
		r, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: EnvRate, Err: err}
		}
		eff.RatePerSecond = r
	}

	if cli.TimeoutSet {
		eff.Timeout = cli.Timeout
	}
	if cli.InsecureSet {
		eff.InsecureSkipVerify = cli.InsecureSkipVerify
	}
	if cli.RateSet {
		eff.RatePerSecond = cli.Rate
	}

	if eff.Timeout <= 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Err: fmt.Errorf("timeout 必须大于 0：%s", eff.Timeout)}
	}
	if eff.RatePerSecond < 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Err: fmt.Errorf("rate 不能为负数：%v", eff.RatePerSecond)}
	}

	pc := passConfig(fc, cli.Pass)

	eff.Host = d.Host
	if h := strings.ToLower(strings.TrimSpace(pc.Host)); h != "" {
		eff.Host = h
	}
	if err := validateHost(eff.Host); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	eff.BaseURL = strings.TrimSpace(pc.BaseURL)
	if eff.BaseURL != "" {
		u, err := url.Parse(eff.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("%s.base_url 必须是 http/https URL：%q", cli.Pass, eff.BaseURL)}
		}
	}

	input := firstNonEmpty(cli.Input, pc.Input, d.Input)
	eff.Input = absCleanFrom(cwdAbs, input)
	eff.OutDir = absCleanFrom(cwdAbs, firstNonEmpty(pc.OutDir, d.OutDir))
	eff.SuccessFile = absCleanFrom(cwdAbs, firstNonEmpty(pc.SuccessFile, d.SuccessFile))
	eff.FailureFile = absCleanFrom(cwdAbs, firstNonEmpty(pc.FailureFile, d.FailureFile))

	if eff.SuccessFile == eff.FailureFile {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("success_file 与 failure_file 不能相同：%q", eff.SuccessFile)}
	}
	return eff, nil
}

func passConfig(fc FileConfig, pass string) PassFileConfig {
	var pc *PassFileConfig
	switch pass {
	case domain.PassPrimary:
		pc = fc.Primary
	case domain.PassFallback:
		pc = fc.Fallback
	}
	if pc == nil {
		return PassFileConfig{}
	}
	return *pc
}

func validateHost(h string) error {
	switch h {
	case "travala", "holidify":
		return nil
	default:
		return fmt.Errorf("host 只能是 travala 或 holidify，实际是 %q", h)
	}
}

// parseTimeout 接受 Go duration（"45s"）或整数秒（"45"）。
func parseTimeout(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// layeredLookup：进程环境变量优先于 .env。
func layeredLookup(env LookupEnv, dotenv map[string]string) LookupEnv {
	return func(key string) (string, bool) {
		if env != nil {
			if v, ok := env(key); ok {
				return v, true
			}
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

func readDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return godotenv.Read(path)
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
