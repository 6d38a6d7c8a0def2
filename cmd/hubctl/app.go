package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/communityhub/internal/client"
	"github.com/dalemusser/communityhub/internal/client/notify"
	"github.com/dalemusser/communityhub/internal/client/session"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultServer = "http://localhost:8080"

var (
	// errUsage makes run print the command's usage and exit 2.
	errUsage = errors.New("usage")
	// errShown marks a failure the banner already reported.
	errShown = errors.New("already reported")
)

type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

// cli is everything a command needs.
type cli struct {
	api    *client.Client
	sess   *session.Provider
	banner *notify.Banner
	log    *zap.Logger
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
}

type command struct {
	usage string
	run   func(ctx context.Context, c *cli, args []string) error
}

var commands = map[string]command{
	"login":          {"login -email EMAIL [-password PASSWORD]", cmdLogin},
	"register":       {"register -name NAME -email EMAIL [-password PASSWORD]", cmdRegister},
	"logout":         {"logout", cmdLogout},
	"whoami":         {"whoami", cmdWhoami},
	"groups":         {"groups [list | create NAME [DESCRIPTION] | join CODE | switch ID]", cmdGroups},
	"kinds":          {"kinds", cmdKinds},
	"list":           {"list [-page N] KIND", cmdList},
	"search":         {"search [-page N] KIND key=value...", cmdSearch},
	"show":           {"show [-find TERM] KIND ID", cmdShow},
	"create":         {"create KIND key=value...", cmdCreate},
	"delete":         {"delete KIND ID", cmdDelete},
	"bulk-delete":    {"bulk-delete [-yes] KIND ID...", cmdBulkDelete},
	"export":         {"export [-page N] [-dir DIR] KIND [key=value...]", cmdExport},
	"export-account": {"export-account [-dir DIR] PAYMENT_ID", cmdExportAccount},
	"pay":            {"pay PAYMENT_ID MEMBER_ID AMOUNT", cmdPay},
}

func run(ctx context.Context, args []string, e env) int {
	fs := flag.NewFlagSet("hubctl", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	server := fs.String("server", firstNonEmpty(e.getenv("HUBCTL_SERVER_URL"), defaultServer), "API server URL")
	tokenFile := fs.String("token-file", e.getenv("HUBCTL_TOKEN_FILE"), "where the session token is kept")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Usage = func() { printUsage(e.stderr, fs) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(e.stderr, "hubctl: unknown command %q\n", name)
		fs.Usage()
		return 2
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(e.stderr, "hubctl: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	c, err := newCLI(*server, *tokenFile, logger, e)
	if err != nil {
		fmt.Fprintf(e.stderr, "hubctl: %v\n", err)
		return 1
	}
	defer c.banner.Close()

	if err := cmd.run(ctx, c, rest); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(e.stderr, "usage: hubctl %s\n", cmd.usage)
			return 2
		}
		if client.IsAuthError(err) {
			fmt.Fprintln(e.stderr, "hubctl: signed out; run hubctl login")
		}
		if errors.Is(err, errShown) {
			return 1
		}
		fmt.Fprintf(e.stderr, "hubctl: %v\n", err)
		return 1
	}
	return 0
}

// newLogger is a development logger at warn level, or debug with -v.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = !verbose
	return cfg.Build()
}

func newCLI(server, tokenFile string, logger *zap.Logger, e env) (*cli, error) {
	if tokenFile == "" {
		p, err := session.DefaultTokenPath()
		if err != nil {
			return nil, fmt.Errorf("locate token file: %w", err)
		}
		tokenFile = p
	}
	sess := session.NewProvider(session.FileStore{Path: tokenFile})
	if err := sess.Load(); err != nil {
		logger.Warn("stored session discarded", zap.Error(err))
	}

	api, err := client.New(server, sess, client.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	banner := notify.New(notify.OnShow(func(m notify.Message) {
		fmt.Fprintf(e.stderr, "[%s] %s\n", m.Level, m.Text)
	}))

	return &cli{
		api:    api,
		sess:   sess,
		banner: banner,
		log:    logger,
		in:     bufio.NewReader(e.stdin),
		out:    e.stdout,
		errOut: e.stderr,
		now:    time.Now,
	}, nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "usage: hubctl [flags] <command> [args]")
	fmt.Fprintln(w, "\nflags:")
	fs.PrintDefaults()
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", commands[n].usage)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
