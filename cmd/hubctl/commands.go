package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/dalemusser/communityhub/internal/app/system/filters"
	"github.com/dalemusser/communityhub/internal/client/listing"
	"github.com/dalemusser/communityhub/internal/client/session"
	"github.com/dalemusser/communityhub/internal/client/share"
	"github.com/dalemusser/communityhub/internal/domain/resource"
	"github.com/shopspring/decimal"
)

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

// readLine reads one line of stdin without its newline.
func (c *cli) readLine(prompt string) string {
	if prompt != "" {
		fmt.Fprint(c.out, prompt)
	}
	line, _ := c.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func lookupKind(name string) (resource.Kind, error) {
	k, ok := resource.ByName(name)
	if !ok {
		return resource.Kind{}, fmt.Errorf("unknown kind %q (have %s)", name, strings.Join(resource.Names(), ", "))
	}
	return k, nil
}

// parsePairs reads key=value arguments. Repeated keys keep every value.
func parsePairs(args []string) (map[string][]string, []string, error) {
	out := map[string][]string{}
	var order []string
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, nil, fmt.Errorf("expected key=value, got %q", a)
		}
		if _, seen := out[k]; !seen {
			order = append(order, k)
		}
		out[k] = append(out[k], v)
	}
	return out, order, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Account                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func cmdLogin(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (read from stdin when empty)")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 || *email == "" {
		return errUsage
	}
	if *password == "" {
		*password = c.readLine("Password: ")
	}
	if *password == "" {
		return errors.New("password is required")
	}
	res, err := c.api.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, res.Message)
	return nil
}

func cmdRegister(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("register")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (read from stdin when empty)")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 || *name == "" || *email == "" {
		return errUsage
	}
	if *password == "" {
		*password = c.readLine("Password: ")
	}
	if *password == "" {
		return errors.New("password is required")
	}
	res, err := c.api.Register(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, res.Message)
	return nil
}

func cmdLogout(_ context.Context, c *cli, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	if err := c.api.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Signed out.")
	return nil
}

func cmdWhoami(_ context.Context, c *cli, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	claims, ok := c.sess.Claims()
	if !ok {
		return session.ErrNoSession
	}
	fmt.Fprintf(c.out, "%s <%s>\n", claims.Name, claims.Email)
	fmt.Fprintf(c.out, "user:        %s\n", claims.UserID)
	group := claims.CurrentGroupID
	if group == "" {
		group = "(none)"
	}
	fmt.Fprintf(c.out, "group:       %s\n", group)
	fmt.Fprintf(c.out, "permissions: %s\n", strings.Join(claims.Permissions, ", "))
	if !claims.ExpiresAt.IsZero() {
		fmt.Fprintf(c.out, "expires:     %s\n", claims.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	}
	if claims.Expired(c.now()) {
		fmt.Fprintln(c.out, "The session has expired; run hubctl login.")
	}
	return nil
}

func cmdGroups(ctx context.Context, c *cli, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "list":
		if len(args) != 0 {
			return errUsage
		}
		groups, err := c.api.Groups(ctx)
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Fprintln(c.out, "No groups yet. Create one or join with a code.")
			return nil
		}
		for _, g := range groups {
			mark := " "
			if cur, _ := g.Get("current"); cur == true {
				mark = "*"
			}
			line := fmt.Sprintf("%s %s  %s", mark, g.ID(), g.String("name"))
			if code := g.String("joinCode"); code != "" {
				line += "  code " + code
			}
			fmt.Fprintln(c.out, line)
		}
		return nil
	case "create":
		if len(args) < 1 || len(args) > 2 {
			return errUsage
		}
		desc := ""
		if len(args) == 2 {
			desc = args[1]
		}
		res, err := c.api.CreateGroup(ctx, args[0], desc)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, res.Message)
		if code := res.Group.String("joinCode"); code != "" {
			fmt.Fprintf(c.out, "Join code: %s\n", code)
		}
		return nil
	case "join":
		if len(args) != 1 {
			return errUsage
		}
		res, err := c.api.JoinGroup(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, res.Message)
		return nil
	case "switch":
		if len(args) != 1 {
			return errUsage
		}
		res, err := c.api.SwitchGroup(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, res.Message)
		return nil
	}
	return errUsage
}

/*─────────────────────────────────────────────────────────────────────────────*
| Listings                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func cmdKinds(_ context.Context, c *cli, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	for _, k := range resource.All {
		mode := "read-write"
		if k.ReadOnly() {
			mode = "read-only"
		}
		fmt.Fprintf(c.out, "%-14s %-10s filters: %s\n", k.Name, mode, strings.Join(k.Filters.Keys(), ", "))
	}
	return nil
}

func (c *cli) controller(kind resource.Kind) *listing.Controller {
	return listing.New(kind, c.api, listing.WithBanner(c.banner), listing.WithLogger(c.log))
}

// load fetches page of kind, through the filtered endpoint when pairs is
// not empty.
func (c *cli) load(ctx context.Context, kind resource.Kind, pairs map[string][]string, order []string, page int) (*listing.Controller, error) {
	lc := c.controller(kind)
	var err error
	if len(pairs) == 0 {
		err = lc.Load(ctx)
	} else {
		for _, key := range order {
			f, ok := kind.Filters.Field(key)
			if !ok {
				return nil, fmt.Errorf("%s has no filter %q (have %s)", kind.Name, key, strings.Join(kind.Filters.Keys(), ", "))
			}
			for _, v := range pairs[key] {
				if f.Kind == filters.Enum {
					for _, opt := range strings.Split(v, ",") {
						lc.ToggleFilter(key, strings.TrimSpace(opt))
					}
					continue
				}
				lc.SetFilter(key, v)
			}
		}
		err = lc.Search(ctx)
	}
	if err == nil && page > 1 {
		err = lc.GoTo(ctx, page)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errShown, err)
	}
	return lc, nil
}

func (c *cli) printListing(lc *listing.Controller) {
	cards := lc.Cards()
	if len(cards) == 0 {
		fmt.Fprintf(c.out, "No %s found.\n", lc.Kind().Plural)
	}
	for _, card := range cards {
		line := fmt.Sprintf("%s  %s", card.ID, card.Title)
		if card.Subtitle != "" {
			line += "  (" + card.Subtitle + ")"
		}
		fmt.Fprintln(c.out, line)
	}
	ctl := lc.Controls()
	pager := ctl.Label
	if ctl.PrevEnabled {
		pager += "  [prev]"
	}
	if ctl.NextEnabled {
		pager += "  [next]"
	}
	fmt.Fprintln(c.out, pager)
}

func cmdList(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("list")
	page := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}
	kind, err := lookupKind(fs.Arg(0))
	if err != nil {
		return err
	}
	lc, err := c.load(ctx, kind, nil, nil, *page)
	if err != nil {
		return err
	}
	c.printListing(lc)
	return nil
}

func cmdSearch(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("search")
	page := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil || fs.NArg() < 2 {
		return errUsage
	}
	kind, err := lookupKind(fs.Arg(0))
	if err != nil {
		return err
	}
	pairs, order, err := parsePairs(fs.Args()[1:])
	if err != nil {
		return err
	}
	lc, err := c.load(ctx, kind, pairs, order, *page)
	if err != nil {
		return err
	}
	c.printListing(lc)
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Mutations                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// positiveAmount is the client-side check for money fields.
func positiveAmount(raw string) (json.Number, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("amount %q is not a number", raw)
	}
	if !d.IsPositive() {
		return "", errors.New("amount must be greater than 0")
	}
	return json.Number(d.String()), nil
}

// createBody turns key=value pairs into a request body, rejecting what the
// server would reject anyway.
func createBody(kind resource.Kind, pairs map[string][]string) (map[string]any, error) {
	body := map[string]any{}
	for k, vals := range pairs {
		v := vals[len(vals)-1]
		switch {
		case k == "amount":
			n, err := positiveAmount(v)
			if err != nil {
				return nil, err
			}
			body[k] = n
		case v == "true" || v == "false":
			body[k] = v == "true"
		default:
			body[k] = v
		}
	}
	if kind.TitleKey != "" {
		if s, _ := body[kind.TitleKey].(string); strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%s is required", kind.TitleKey)
		}
	}
	return body, nil
}

func cmdCreate(ctx context.Context, c *cli, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	kind, err := lookupKind(args[0])
	if err != nil {
		return err
	}
	if kind.ReadOnly() {
		return fmt.Errorf("%s are read-only", kind.Plural)
	}
	pairs, _, err := parsePairs(args[1:])
	if err != nil {
		return err
	}
	body, err := createBody(kind, pairs)
	if err != nil {
		return err
	}
	m, err := c.api.Create(ctx, kind, body)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %s\n", m.Message, m.Record.ID())
	return nil
}

func cmdDelete(ctx context.Context, c *cli, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	kind, err := lookupKind(args[0])
	if err != nil {
		return err
	}
	msg, err := c.api.Delete(ctx, kind, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

func cmdBulkDelete(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("bulk-delete")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil || fs.NArg() < 2 {
		return errUsage
	}
	kind, err := lookupKind(fs.Arg(0))
	if err != nil {
		return err
	}
	lc := c.controller(kind)
	for _, id := range fs.Args()[1:] {
		lc.Toggle(id)
	}
	confirm := listing.ConfirmFunc(func(prompt string) bool {
		if *yes {
			return true
		}
		ans := strings.ToLower(c.readLine(prompt + " [y/N] "))
		return ans == "y" || ans == "yes"
	})

	res, sent, err := lc.BulkDelete(ctx, confirm)
	if err != nil {
		if !sent {
			return err
		}
		return fmt.Errorf("%w: %w", errShown, err)
	}
	if !sent {
		fmt.Fprintln(c.out, "Nothing deleted.")
		return nil
	}
	fmt.Fprintln(c.out, res.Message)
	for _, f := range res.Failed {
		fmt.Fprintf(c.out, "  %s: %s\n", f.ID, f.Reason)
	}
	return nil
}

func cmdPay(ctx context.Context, c *cli, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	account, member := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
	if account == "" || member == "" {
		return errUsage
	}
	amount, err := positiveAmount(args[2])
	if err != nil {
		return err
	}
	m, err := c.api.RecordPayment(ctx, account, member, amount.String())
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, m.Message)
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Export                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// target is dir, or the user cache directory when dir is empty.
func target(dir string) share.Target {
	return share.CacheDir{Dir: dir}
}

func cmdExport(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("export")
	page := fs.Int("page", 1, "page number")
	dir := fs.String("dir", "", "output directory (default: user cache dir)")
	if err := fs.Parse(args); err != nil || fs.NArg() < 1 {
		return errUsage
	}
	kind, err := lookupKind(fs.Arg(0))
	if err != nil {
		return err
	}
	pairs, order, err := parsePairs(fs.Args()[1:])
	if err != nil {
		return err
	}
	lc, err := c.load(ctx, kind, pairs, order, *page)
	if err != nil {
		return err
	}
	path, err := lc.Export(target(*dir), c.now())
	if err != nil {
		return fmt.Errorf("%w: %w", errShown, err)
	}
	fmt.Fprintln(c.out, path)
	return nil
}

func cmdExportAccount(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("export-account")
	dir := fs.String("dir", "", "output directory (default: user cache dir)")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}
	acct, err := c.api.Get(ctx, resource.Payments, fs.Arg(0))
	if err != nil {
		return err
	}
	path, err := share.Account(target(*dir), resource.Payments.Singular, acct, c.now())
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, path)
	return nil
}
