package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"ginvault/pkg/client"
)

func (a *App) ginsList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("gins list", flag.ContinueOnError)
	fs.SetOutput(a.err)
	var filter client.GinFilter
	fs.StringVar(&filter.Keyword, "q", "", "关键字")
	fs.StringVar(&filter.Country, "country", "", "产地")
	fs.StringVar(&filter.Style, "style", "", "风格")
	fs.StringVar(&filter.SortBy, "sort", "", "排序字段 name|rating|abv|created_at")
	fs.StringVar(&filter.Order, "order", "", "asc|desc")
	fs.IntVar(&filter.Page, "page", 1, "页码")
	fs.IntVar(&filter.PageSize, "size", 20, "每页数量")
	favorite := fs.Bool("favorite", false, "只看收藏")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if *favorite {
		filter.Favorite = favorite
	}

	page, err := a.client.Gins().List(ctx, filter)
	if err != nil {
		return describe(err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t名称\t酒厂\t产地\t酒精度\t评分\t余量")
	for _, g := range page.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.1f%%\t%.1f\t%d%%\n",
			g.ID, g.Name, g.Distillery, g.Country, g.ABV, g.Rating, g.FillLevel)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	info := page.PageInfo
	fmt.Fprintf(a.out, "第 %d/%d 页，共 %d 条\n", info.Page, info.TotalPages, info.Total)
	return nil
}

func (a *App) ginsAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("gins add", flag.ContinueOnError)
	fs.SetOutput(a.err)
	var input client.GinInput
	fs.StringVar(&input.Name, "name", "", "名称（必填）")
	fs.StringVar(&input.Distillery, "distillery", "", "酒厂")
	fs.StringVar(&input.Country, "country", "", "产地")
	fs.StringVar(&input.Region, "region", "", "地区")
	fs.StringVar(&input.Style, "style", "", "风格")
	fs.StringVar(&input.Barcode, "barcode", "", "条码")
	fs.Float64Var(&input.ABV, "abv", 0, "酒精度")
	fs.Float64Var(&input.Rating, "rating", 0, "评分 0-5")
	fs.IntVar(&input.BottleSizeML, "size", 0, "容量 ml")
	botanicals := fs.String("botanicals", "", "植物原料，逗号分隔")
	fill := fs.Int("fill", -1, "余量百分比，默认 100")
	favorite := fs.Bool("favorite", false, "加入收藏")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if strings.TrimSpace(input.Name) == "" {
		fmt.Fprintln(a.err, "缺少 -name")
		return ErrUsage
	}

	if *botanicals != "" {
		for _, b := range strings.Split(*botanicals, ",") {
			if b = strings.TrimSpace(b); b != "" {
				input.Botanicals = append(input.Botanicals, b)
			}
		}
	}
	if *fill >= 0 {
		input.FillLevel = fill
	}
	input.IsFavorite = *favorite

	g, err := a.client.Gins().Create(ctx, input)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "已添加 #%d %s\n", g.ID, g.Name)
	return nil
}

func (a *App) ginsShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.err, "用法: vaultctl gins show <id>")
		return ErrUsage
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || id == 0 {
		return errors.New("ID格式错误")
	}

	g, err := a.client.Gins().Get(ctx, uint(id))
	if err != nil {
		return describe(err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s\t%s\n", label, value)
		}
	}
	row("ID", strconv.FormatUint(uint64(g.ID), 10))
	row("名称", g.Name)
	row("酒厂", g.Distillery)
	row("产地", strings.Trim(g.Country+" / "+g.Region, " /"))
	row("风格", g.Style)
	row("酒精度", fmt.Sprintf("%.1f%%", g.ABV))
	if g.BottleSizeML > 0 {
		row("容量", fmt.Sprintf("%d ml", g.BottleSizeML))
	}
	row("余量", fmt.Sprintf("%d%%", g.FillLevel))
	row("评分", fmt.Sprintf("%.1f", g.Rating))
	row("条码", g.Barcode)
	row("植物原料", strings.Join(g.Botanicals, ", "))
	if g.Price > 0 {
		row("价格", fmt.Sprintf("%.2f %s", g.Price, g.Currency))
	}
	if g.IsFavorite {
		row("收藏", "是")
	}
	row("描述", g.Description)
	return tw.Flush()
}
