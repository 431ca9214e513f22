// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package view

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/rowscope/rowscope/internal/config"
	"github.com/rowscope/rowscope/internal/dao"
	"github.com/rowscope/rowscope/internal/model"
	"github.com/rowscope/rowscope/internal/model1"
	"github.com/rowscope/rowscope/internal/render"
	"github.com/rowscope/rowscope/internal/selection"
)

var builtinCommands = []string{"help", "q", "quit", "refresh", "select", "sort"}

// Command interprets command bar input.
type Command struct {
	app *App
}

// NewCommand creates a new command interpreter.
func NewCommand(app *App) *Command {
	return &Command{app: app}
}

// Completions lists the command bar suggestions.
func (c *Command) Completions() []string {
	cc := append([]string{}, builtinCommands...)
	cc = append(cc, c.app.aliases.Names()...)
	for _, s := range dao.Schemes() {
		cc = append(cc, s+"://")
	}
	sort.Strings(cc)

	return cc
}

// Run parses and executes a command line.
func (c *Command) Run(line string) error {
	line = strings.TrimSpace(strings.TrimPrefix(line, ":"))
	ff := strings.Fields(line)
	if len(ff) == 0 {
		return nil
	}
	name, args := ff[0], ff[1:]

	switch name {
	case "q", "q!", "quit":
		c.app.Stop()
		return nil
	case "help", "?":
		c.app.showHelp()
		return nil
	case "sort":
		return c.sortCmd(args)
	case "select":
		return c.selectCmd(args)
	case "refresh":
		b, err := c.browser()
		if err != nil {
			return err
		}
		return b.Refresh()
	default:
		return c.Open(line)
	}
}

// Open resolves an alias or source URI and pushes a browser for it.
func (c *Command) Open(src string) error {
	if src == "" {
		src = c.app.config.Rowscope.Source()
	}
	uri := c.app.aliases.Resolve(src)
	if !strings.Contains(uri, "://") {
		return fmt.Errorf("unknown command or alias %q", src)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("invalid source %q: %w", uri, err)
	}

	g, err := OpenGrid(context.Background(), c.app.config, c.app.factory, uri)
	if err != nil {
		return err
	}
	slog.Info("Opening source", "source", uri)
	if u.Scheme == "s3" {
		c.app.refreshAccount()
	}

	b := NewBrowser(c.app, src, g)
	if err := c.app.inject(b); err != nil {
		b.Close()
		return err
	}

	return nil
}

func (c *Command) browser() (*Browser, error) {
	b, ok := c.app.Browser()
	if !ok {
		return nil, fmt.Errorf("no active table")
	}

	return b, nil
}

// sortCmd handles `sort [KEY [asc|desc]]`. No key restores natural order.
func (c *Command) sortCmd(args []string) error {
	b, err := c.browser()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return b.Grid().Sort(context.Background(), "", model1.Ascending)
	}

	col, ok := findColumn(b.Grid().Columns(), args[0])
	if !ok {
		return fmt.Errorf("sort: unknown column %q", args[0])
	}
	key, dir := col.Key(), model1.Ascending
	if len(args) > 1 {
		if dir, err = model1.ParseSortDirection(args[1]); err != nil {
			return err
		}
	}

	return b.Grid().Sort(context.Background(), key, dir)
}

func (c *Command) selectCmd(args []string) error {
	b, err := c.browser()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: select none|single|multiple")
	}
	mode, err := selection.ParseMode(args[0])
	if err != nil {
		return err
	}
	b.Grid().Selection().SetMode(mode)
	c.app.flash.Infof("Selection mode %s", mode)

	return nil
}

// OpenGrid opens the provider behind uri and builds its grid.
func OpenGrid(ctx context.Context, cfg *config.Config, f dao.Factory, uri string) (*model.Grid, error) {
	opts, err := cfg.Rowscope.GridOptions()
	if err != nil {
		return nil, err
	}
	p, err := dao.ProviderFor(ctx, f, uri)
	if err != nil {
		return nil, err
	}
	extra, err := cfg.Rowscope.CustomColumns(p.Header())
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	return model.NewGrid(p, opts, extra...), nil
}

func findColumn(cc render.Columns, key string) (render.Column, bool) {
	for _, c := range cc {
		if strings.EqualFold(c.Key(), key) {
			return c, true
		}
	}

	return nil, false
}
