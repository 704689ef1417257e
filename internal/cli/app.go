// Package cli vaultctl 命令行
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"ginvault/pkg/client"
)

// ErrUsage 参数错误，已输出用法
var ErrUsage = errors.New("usage")

const (
	envServer = "GINVAULT_SERVER"
	envTenant = "GINVAULT_TENANT"
	envTokens = "GINVAULT_TOKENS"

	defaultServer = "http://localhost:8080"
)

// Config 全局参数
type Config struct {
	Server    string
	Tenant    string
	TokenFile string
}

// App 一次命令执行
type App struct {
	client *client.Client
	auth   *client.AuthStore

	in  *bufio.Reader
	out io.Writer
	err io.Writer
}

func New(cfg Config, in io.Reader, out, errOut io.Writer) (*App, error) {
	var store client.TokenStore
	if cfg.TokenFile != "" {
		store = client.NewFileTokenStore(cfg.TokenFile)
	} else {
		store = client.NewMemoryTokenStore()
	}

	c, err := client.New(client.Options{
		BaseURL:    cfg.Server,
		Subdomain:  cfg.Tenant,
		TokenStore: store,
		UserAgent:  "vaultctl",
	})
	if err != nil {
		return nil, err
	}

	app := &App{
		client: c,
		in:     bufio.NewReader(in),
		out:    out,
		err:    errOut,
	}
	app.auth = client.NewAuthStore(c)
	c.OnUnauthorized(func() {
		fmt.Fprintln(errOut, "登录已过期，请执行 vaultctl login")
	})
	return app, nil
}

// ParseGlobal 解析子命令之前的全局参数，环境变量作为默认值
func ParseGlobal(args []string, errOut io.Writer) (Config, []string, error) {
	cfg := Config{
		Server:    envOr(envServer, defaultServer),
		Tenant:    os.Getenv(envTenant),
		TokenFile: os.Getenv(envTokens),
	}
	if cfg.TokenFile == "" {
		if path, err := client.DefaultTokenPath(); err == nil {
			cfg.TokenFile = path
		}
	}

	fs := flag.NewFlagSet("vaultctl", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&cfg.Server, "server", cfg.Server, "API 地址 ($"+envServer+")")
	fs.StringVar(&cfg.Tenant, "tenant", cfg.Tenant, "租户子域名 ($"+envTenant+")")
	fs.StringVar(&cfg.TokenFile, "tokens", cfg.TokenFile, "令牌文件 ($"+envTokens+")")
	fs.Usage = func() {
		fmt.Fprintln(errOut, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return cfg, nil, ErrUsage
	}
	return cfg, fs.Args(), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

const usage = `用法: vaultctl [-server URL] [-tenant 子域名] [-tokens 文件] <命令>

命令:
  login              登录并保存令牌
  logout             注销并删除本地令牌
  whoami             当前用户和租户
  gins list          藏品列表
  gins add           新增藏品
  gins show <id>     藏品详情`

// Run 执行子命令
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.err, usage)
		return ErrUsage
	}

	switch args[0] {
	case "login":
		return a.login(ctx, args[1:])
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "gins":
		return a.gins(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.err, "未知命令: %s\n\n%s\n", args[0], usage)
		return ErrUsage
	}
}

func (a *App) gins(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.err, "用法: vaultctl gins <list|add|show>")
		return ErrUsage
	}
	switch args[0] {
	case "list":
		return a.ginsList(ctx, args[1:])
	case "add":
		return a.ginsAdd(ctx, args[1:])
	case "show":
		return a.ginsShow(ctx, args[1:])
	default:
		fmt.Fprintf(a.err, "未知命令: gins %s\n", args[0])
		return ErrUsage
	}
}

// describe 把 API 错误转成提示
func describe(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.IsUpgradeRequired():
		return fmt.Errorf("%s，请升级到 %s 套餐", apiErr.Message, apiErr.RequiredTier)
	case apiErr.IsUnauthorized():
		return fmt.Errorf("%s，请执行 vaultctl login", apiErr.Message)
	default:
		return errors.New(apiErr.Message)
	}
}
