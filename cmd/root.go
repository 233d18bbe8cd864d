package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/omnisketch/drivergen/internal/config"
	"github.com/omnisketch/drivergen/internal/generator"
	"github.com/omnisketch/drivergen/internal/logger"
	"github.com/omnisketch/drivergen/internal/prompt"
	"github.com/omnisketch/drivergen/internal/templates"
	"github.com/omnisketch/drivergen/internal/tui"
)

// Name is the command name used in usage text and error prefixes.
const Name = "generate_driver"

// Interactive collaborators, replaced in tests.
var (
	prompter     prompt.Prompter = prompt.Terminal{}
	selectHeader                 = tui.SelectHeader
)

type globalOptions struct {
	settings string
	root     string
	verbose  bool
	debug    bool
}

type rootOptions struct {
	global      *globalOptions
	flags       generator.Flags
	all         bool
	pick        bool
	stdout      bool
	interactive bool
}

// FlagError marks an invocation whose shape is wrong. The usage text is
// printed after the error message.
type FlagError struct {
	err error
}

func (e *FlagError) Error() string { return e.err.Error() }
func (e *FlagError) Unwrap() error { return e.err }

func flagErrorf(format string, args ...any) error {
	return &FlagError{err: generator.UsageErrorf(format, args...)}
}

var legacyFlags = []string{"file", "author", "config", "template"}

func addLegacyFlags(fs *pflag.FlagSet, f *generator.Flags) {
	fs.StringVarP(&f.File, "file", "f", "", "test header under test/ (legacy flag-driven mode)")
	fs.StringVarP(&f.Author, "author", "a", "", "author written into the driver header")
	fs.StringVarP(&f.Config, "config", "c", "", "default config file of the driver, relative to build/")
	fs.StringVarP(&f.Template, "template", "t", "", `template arguments of the test class, e.g. "13,Hash::AwareHash"`)
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	o := &rootOptions{global: g}

	cmd := &cobra.Command{
		Use:   Name + " <path/XXXTest.h>",
		Short: "Generate a C++ sketch driver from a test header",
		Long: `Generate driver/<Name>Driver.cpp from the test header <Name>Test.h.

The last three lines of the header carry the driver metadata, in any order:

  // Driver instance:
  //      AUTHOR: dromniscience
  //      CONFIG: sketch_config.toml  # with respect to the ` + "`src/`" + ` directory
  //    TEMPLATE: <13, Hash::AwareHash>

A relative CONFIG is resolved against ../src/. The legacy flag-driven mode
(-f/-a/-c/-t) takes the same values from the command line instead.`,
		Example: `  generate_driver sketch_test/BloomFilterTest.h
  generate_driver --all sketch_test
  generate_driver -f test/BloomFilterTest.h -a dromniscience -c ../test.toml -t "13,Hash::AwareHash"`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &FlagError{err: generator.UsageErrorf("%v", err)}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.settings, "settings", "", "settings file (default ./"+config.FileName+")")
	pf.StringVar(&g.root, "root", ".", "project directory holding test/, sketch/ and driver/")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log every driver written")
	pf.BoolVar(&g.debug, "debug", false, "log parsed metadata and settings")

	fs := cmd.Flags()
	addLegacyFlags(fs, &o.flags)
	fs.BoolVar(&o.all, "all", false, "generate a driver for every *Test.h in a directory (default test/)")
	fs.BoolVar(&o.pick, "pick", false, "choose the test header interactively")
	fs.BoolVar(&o.stdout, "stdout", false, "print drivers instead of writing them")
	fs.BoolVarP(&o.interactive, "interactive", "i", false, "prompt for missing legacy flags")

	cmd.AddCommand(newConfigCmd(g), newTemplateCmd())
	return cmd
}

func (g *globalOptions) load(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	log := logger.Init(cmd.ErrOrStderr(), logger.Level(g.verbose, g.debug))
	wd, err := os.Getwd()
	if err != nil {
		return nil, log, err
	}
	loader := config.NewLoader(wd, g.settings)
	if err := loader.BindFlags(cmd.Flags(), "root"); err != nil {
		return nil, log, err
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, log, err
	}
	log.Debug().Str("settings", loader.Used()).Interface("config", cfg).Msg("loaded settings")
	return cfg, log, nil
}

func newGenerator(cfg *config.Config, log zerolog.Logger) (*generator.Generator, error) {
	text, err := templates.Load(cfg.Template)
	if err != nil {
		return nil, err
	}
	r, err := generator.NewRenderer(text, cfg.Style())
	if err != nil {
		return nil, err
	}
	return &generator.Generator{Layout: cfg.Layout(), Renderer: r, Log: log}, nil
}

func (o *rootOptions) legacy(cmd *cobra.Command) bool {
	for _, name := range legacyFlags {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func (o *rootOptions) run(cmd *cobra.Command, args []string) error {
	legacy := o.legacy(cmd)
	modes := 0
	for _, on := range []bool{legacy, o.all, o.pick} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return flagErrorf("-f, --all and --pick cannot be combined")
	}
	if o.interactive && !legacy {
		return flagErrorf("--interactive only applies to the -f/-a/-c/-t flags")
	}

	cfg, log, err := o.global.load(cmd)
	if err != nil {
		return err
	}
	g, err := newGenerator(cfg, log)
	if err != nil {
		return err
	}
	testDir := filepath.Join(cfg.Root, cfg.TestDir)

	switch {
	case legacy:
		if len(args) > 0 {
			return flagErrorf("unexpected argument %q in flag-driven mode", args[0])
		}
		return o.runLegacy(cmd, g)

	case o.all:
		if len(args) > 1 {
			return flagErrorf("--all takes at most one directory, got %d arguments", len(args))
		}
		dir := testDir
		if len(args) == 1 {
			dir = args[0]
		}
		return o.runAll(cmd, g, dir)

	case o.pick:
		if len(args) > 0 {
			return flagErrorf("--pick takes no arguments")
		}
		headers, err := generator.Discover(testDir)
		if err != nil {
			return err
		}
		header, err := selectHeader(headers)
		if err != nil {
			return err
		}
		return o.runHeader(cmd, g, header)
	}

	if len(args) != 1 {
		return flagErrorf("expected one test header, got %d arguments", len(args))
	}
	return o.runHeader(cmd, g, args[0])
}

func (o *rootOptions) runHeader(cmd *cobra.Command, g *generator.Generator, header string) error {
	inv, err := g.FromHeader(header)
	if err != nil {
		return err
	}
	return o.emit(cmd, g, inv)
}

func (o *rootOptions) runLegacy(cmd *cobra.Command, g *generator.Generator) error {
	if o.interactive {
		err := prompt.Fill(prompter, []prompt.Field{
			{Label: "Test header under " + g.Layout.TestDir + "/", Value: &o.flags.File},
			{Label: "Author", Value: &o.flags.Author},
			{Label: "Default config file", Default: "../test.toml", Value: &o.flags.Config},
		})
		if err != nil {
			return err
		}
	}
	inv, err := g.FromFlags(o.flags)
	if err != nil {
		return err
	}
	g.Log.Debug().
		Str("driver", inv.DriverName()).
		Str("sketch", inv.SketchName()).
		Str("author", inv.Author).
		Str("config", inv.Config).
		Str("template", inv.Template).
		Msg("resolved flags")
	return o.emit(cmd, g, inv)
}

func (o *rootOptions) runAll(cmd *cobra.Command, g *generator.Generator, dir string) error {
	headers, err := generator.Discover(dir)
	if err != nil {
		return err
	}
	if len(headers) == 0 {
		return generator.UsageErrorf("no *%s files in %s", generator.HeaderSuffix, dir)
	}
	if !o.stdout {
		written, err := g.GenerateAll(headers)
		for _, w := range written {
			fmt.Fprintln(cmd.OutOrStdout(), w)
		}
		return err
	}
	invs := make([]generator.Invocation, 0, len(headers))
	for _, h := range headers {
		inv, err := g.FromHeader(h)
		if err != nil {
			return err
		}
		invs = append(invs, inv)
	}
	for _, inv := range invs {
		if err := o.emit(cmd, g, inv); err != nil {
			return err
		}
	}
	return nil
}

func (o *rootOptions) emit(cmd *cobra.Command, g *generator.Generator, inv generator.Invocation) error {
	if !o.stdout {
		_, err := g.Write(inv)
		return err
	}
	src, err := g.Render(inv)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(src)
	return err
}

// Run executes the command line and returns the process exit status.
func Run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}
	fmt.Fprintf(stderr, "(%s) %v\n", Name, err)
	var flagErr *FlagError
	if errors.As(err, &flagErr) {
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, root.UsageString())
	}
	return generator.ExitCode(err)
}

func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}
