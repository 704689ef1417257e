package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
)

func (a *App) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.err)
	email := fs.String("email", "", "邮箱")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	if a.client.Subdomain() == "" {
		sub, err := prompt(a.in, a.out, "租户")
		if err != nil {
			return err
		}
		a.client.SetSubdomain(sub)
	}
	if a.client.Subdomain() == "" {
		return errors.New("租户不能为空")
	}

	if *email == "" {
		v, err := prompt(a.in, a.out, "邮箱")
		if err != nil {
			return err
		}
		*email = v
	}
	password, err := promptPassword(a.in, a.out)
	if err != nil {
		return err
	}

	if err := a.auth.Login(ctx, *email, password); err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "已登录 %s (%s)\n", *email, a.client.Subdomain())
	return nil
}

func (a *App) logout(ctx context.Context) error {
	if !a.client.HasTokens() {
		fmt.Fprintln(a.out, "未登录")
		return nil
	}
	err := a.auth.Logout(ctx)
	fmt.Fprintln(a.out, "已注销")
	if err != nil {
		// 本地令牌已删除，服务端吊销失败只提示
		fmt.Fprintf(a.err, "服务端注销失败: %v\n", err)
	}
	return nil
}

func (a *App) whoami(ctx context.Context) error {
	if !a.client.HasTokens() {
		return errors.New("未登录")
	}
	if err := a.auth.Restore(ctx); err != nil {
		return describe(err)
	}

	state := a.auth.State()
	if state.User != nil {
		fmt.Fprintf(a.out, "用户:   %s (%s)\n", state.User.Email, state.User.Role)
	}
	if state.Tenant != nil {
		fmt.Fprintf(a.out, "租户:   %s (%s)\n", state.Tenant.Name, state.Tenant.Subdomain)
	}
	if state.Limits != nil {
		fmt.Fprintf(a.out, "套餐:   %s\n", state.Limits.Tier)
		fmt.Fprintf(a.out, "藏品上限: %s\n", limit(state.Limits.MaxGins))
	}
	return nil
}

func limit(n int) string {
	if n < 0 {
		return "不限"
	}
	return fmt.Sprint(n)
}
