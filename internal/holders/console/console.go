// Package console drives the coordinator from an interactive line based
// session: one lookup, then any number of sort and search changes that
// reuse the fetched result.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"token-holders/internal/holders/coordinator"
	"token-holders/internal/holders/ledger"
	"token-holders/internal/holders/model"
	"token-holders/internal/holders/render"

	"github.com/bytedance/sonic"
)

const MsgEmptyAddress = "Please enter a token address"

type Options struct {
	Limit int
	JSON  bool
}

type Console struct {
	coord  *coordinator.Coordinator
	out    io.Writer
	opts   Options
	sort   model.SortConfig
	search string
}

func New(coord *coordinator.Coordinator, out io.Writer, opts Options) *Console {
	c := &Console{
		coord: coord,
		out:   out,
		opts:  opts,
		sort:  model.DefaultSortConfig(),
	}
	coord.Subscribe(func(s model.FetchState) {
		if s.Phase == model.PhaseLoading && !c.opts.JSON {
			fmt.Fprintf(c.out, "Loading %s ...\n", s.Identifier)
		}
	})
	return c
}

// Lookup validates address and fetches it. Validation and retrieval
// failures are printed; only output errors are returned.
func (c *Console) Lookup(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return c.println(MsgEmptyAddress)
	}
	if !c.coord.Ledger().ValidateAddressSyntax(address) {
		return c.println(ledger.MsgInvalidAddress)
	}
	c.sort = model.DefaultSortConfig()
	c.search = ""
	return c.report(c.coord.Submit(ctx, address))
}

func (c *Console) Retry(ctx context.Context) error {
	_, err := c.coord.Retry(ctx)
	if errors.Is(err, coordinator.ErrNothingToRetry) {
		return c.println("Nothing to retry")
	}
	return c.report(nil, err)
}

func (c *Console) report(_ *model.QueryResult, err error) error {
	if errors.Is(err, coordinator.ErrSuperseded) {
		return nil
	}
	st := c.coord.State()
	if st.Phase == model.PhaseFailed {
		return c.println(fmt.Sprintf("Error: %s (type 'retry' to try again)", st.Message))
	}
	return c.Show()
}

// Show renders the current view.
func (c *Console) Show() error {
	v, ok := c.coord.View(c.sort, c.search)
	if !ok {
		return c.println("No token loaded")
	}
	st := c.coord.State()
	if c.opts.JSON {
		b, err := sonic.Marshal(struct {
			Token model.TokenMetadata `json:"token"`
			View  interface{}         `json:"view"`
		}{st.Result.Metadata, v})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.out, string(b))
		return err
	}
	if err := render.Summary(c.out, st.Result.Metadata, v.Stats, c.coord.Ledger().CurrentEndpointInfo()); err != nil {
		return err
	}
	if c.search != "" {
		fmt.Fprintf(c.out, "Search: %q (%d matches)\n", c.search, len(v.Rows))
	}
	return render.Table(c.out, v, c.sort, c.opts.Limit)
}

// Run reads commands until quit or EOF.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	c.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		quit, err := c.Exec(ctx, scanner.Text())
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
		c.prompt()
	}
	return scanner.Err()
}

// Exec runs a single command line.
func (c *Console) Exec(ctx context.Context, line string) (quit bool, err error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		return false, c.help()
	case "lookup", "l":
		return false, c.Lookup(ctx, arg)
	case "retry", "r":
		return false, c.Retry(ctx)
	case "show":
		return false, c.Show()
	case "sort", "s":
		field, err := model.ParseSortField(arg)
		if err != nil {
			return false, c.println(err.Error())
		}
		c.sort = c.sort.Toggle(field)
		return false, c.Show()
	case "search", "/":
		c.search = arg
		return false, c.Show()
	}
	// 直接输入地址等同于 lookup
	if arg == "" && c.coord.Ledger().ValidateAddressSyntax(cmd) {
		return false, c.Lookup(ctx, cmd)
	}
	return false, c.println(fmt.Sprintf("unknown command %q, type 'help'", cmd))
}

func (c *Console) help() error {
	_, err := fmt.Fprint(c.out, `commands:
  lookup <address>   fetch holders for a token (or just paste the address)
  sort <field>       rank|address|balance|percentage|daysHeld, repeat to flip direction
  search [term]      filter by address substring, empty clears
  retry              repeat the last lookup
  show               print the current view
  quit
`)
	return err
}

func (c *Console) prompt() {
	if !c.opts.JSON {
		fmt.Fprint(c.out, "> ")
	}
}

func (c *Console) println(s string) error {
	_, err := fmt.Fprintln(c.out, s)
	return err
}
