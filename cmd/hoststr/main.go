// Command hoststr shows how host strings cross into an embedded runtime.
//
// Every positional argument, every -env variable and every -path is converted
// to runtime text, runtime bytes and a runtime wide string, and the text is
// converted back to check that nothing was lost.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/pyembed/hoststr/pkg/hoststr"
	"github.com/pyembed/hoststr/pkg/hoststr/logging"
	"github.com/pyembed/hoststr/pkg/hoststr/sandbox"
)

type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	styled := term.IsTerminal(int(os.Stdout.Fd()))
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, styled))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, styled bool) int {
	fs := flag.NewFlagSet("hoststr", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML or JSON configuration file")
		backend    = fs.String("backend", "", "runtime backend: sandbox or cpython")
		localeName = fs.String("locale", "", "reference runtime locale, e.g. C.UTF-8")
		schema     = fs.Bool("schema", false, "print the configuration JSON schema and exit")
		targetList = fs.String("target", "text,bytes,wide", "comma-separated conversions: text, bytes, wide")
		verbose    = fs.Bool("v", false, "debug logging")
		version    = fs.Bool("version", false, "print version and exit")
		envs       listFlag
		paths      listFlag
	)
	fs.Var(&envs, "env", "environment variable to inspect (repeatable)")
	fs.Var(&paths, "path", "path to inspect (repeatable)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: hoststr [flags] [arg ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *version {
		fmt.Fprintf(stdout, "hoststr %s\n", hoststr.Version)
		if v := hoststr.PythonVersion(); v != "" {
			fmt.Fprintf(stdout, "python %s\n", v)
		}
		return 0
	}
	if *schema {
		out, err := hoststr.ConfigSchema()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, string(out))
		return 0
	}

	var cfg hoststr.Config
	if *configPath != "" {
		var err error
		if cfg, err = hoststr.LoadConfig(*configPath); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *localeName != "" {
		cfg.Locale = *localeName
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if fs.NArg() == 0 && len(envs) == 0 && len(paths) == 0 {
		fs.Usage()
		return 2
	}
	targets, err := parseTargets(*targetList)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	zl := newLogger(stderr, cfg.LogLevel)
	defer zl.Sync() //nolint:errcheck
	sandbox.SetLogger(zl)
	defer sandbox.SetLogger(nil)

	b, err := hoststr.Open(ctx, cfg, hoststr.WithLogger(logging.NewZap(zl)))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if cerr := b.Close(ctx); cerr != nil {
			fmt.Fprintf(stderr, "close: %v\n", cerr)
		}
	}()

	var reports []report
	for i, a := range fs.Args() {
		reports = append(reports, inspect(b, fmt.Sprintf("arg[%d]", i), hoststr.FromString(a), targets))
	}
	for _, name := range envs {
		s, ok := hoststr.Getenv(name)
		if !ok {
			reports = append(reports, report{Source: "$" + name, Err: errors.New("not set")})
			continue
		}
		reports = append(reports, inspect(b, "$"+name, s, targets))
	}
	for _, p := range paths {
		reports = append(reports, inspect(b, "path", hoststr.FromPath(p), targets))
	}
	render(stdout, b.Runtime().Name(), reports, styled)
	for _, r := range reports {
		if r.Err != nil || !r.RoundTrip {
			return 1
		}
	}
	return 0
}

func newLogger(w io.Writer, level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core)
}
