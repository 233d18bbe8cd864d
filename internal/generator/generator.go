package generator

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Layout is the directory contract of a sketch project. Directories other
// than Root are relative to Root.
type Layout struct {
	Root      string
	TestDir   string
	SketchDir string
	DriverDir string
	// ConfigPrefix is prepended to relative CONFIG values of metadata trailers.
	ConfigPrefix string
}

// DefaultLayout is the layout generate_driver has always assumed.
func DefaultLayout() Layout {
	return Layout{
		Root:         ".",
		TestDir:      "test",
		SketchDir:    "sketch",
		DriverDir:    "driver",
		ConfigPrefix: "../src/",
	}
}

func (l Layout) dir(name string) string {
	return filepath.Join(l.Root, name)
}

// Generator resolves invocations and writes drivers.
type Generator struct {
	Layout   Layout
	Renderer *Renderer
	Log      zerolog.Logger
}

// FromHeader resolves an invocation from the metadata trailer of the test
// header at path. Every failure is reported with exit code ExitUsage.
func (g *Generator) FromHeader(path string) (Invocation, error) {
	if !strings.HasSuffix(path, HeaderSuffix) {
		return Invocation{}, usageErrorf("File name must end with %s, got %s.", HeaderSuffix, path)
	}
	base, ok := BaseName(path)
	if !ok {
		return Invocation{}, headerError(KindValidation, path, "Missing sketch name before "+HeaderSuffix+".")
	}
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return Invocation{}, headerError(KindValidation, path, "Not a regular file.")
	}

	f, err := os.Open(path)
	if err != nil {
		return Invocation{}, headerError(KindValidation, path, "Cannot open file: "+err.Error())
	}
	defer f.Close()

	t, lines, err := ReadTrailer(f, path)
	if err != nil {
		return Invocation{}, err
	}
	for _, l := range lines {
		g.Log.Debug().Str("file", path).Stringer("label", l.Label).Str("value", l.Value).Msg("metadata line")
	}

	config := t.Config
	if !strings.HasPrefix(config, "/") {
		config = g.Layout.ConfigPrefix + config
	}
	return Invocation{
		BaseName: base,
		Author:   t.Author,
		Config:   config,
		Template: NormalizeTemplate(t.Template),
	}, nil
}

// Flags are the arguments of the legacy flag-driven contract.
type Flags struct {
	File     string
	Author   string
	Config   string
	Template string
}

// FromFlags resolves an invocation from legacy flags. The file must be a
// direct child of the test directory and have a sketch header sibling.
// Naming violations exit with ExitValidation, absent flags with ExitMissing.
func (g *Generator) FromFlags(f Flags) (Invocation, error) {
	var base string
	if f.File != "" {
		var err error
		if base, err = g.checkLegacyFile(f.File); err != nil {
			return Invocation{}, err
		}
	}
	switch {
	case f.File == "":
		return Invocation{}, missingError("Input file must be specified.")
	case f.Author == "":
		return Invocation{}, missingError("Author must be specified.")
	case f.Config == "":
		return Invocation{}, missingError("Default config file must be specified.")
	}
	return Invocation{
		BaseName: base,
		Author:   f.Author,
		Config:   f.Config,
		Template: NormalizeTemplate(f.Template),
	}, nil
}

func (g *Generator) checkLegacyFile(file string) (string, error) {
	testDir := path.Clean(filepath.ToSlash(g.Layout.TestDir))
	rel := strings.TrimPrefix(filepath.ToSlash(file), "./")
	if !strings.HasPrefix(rel, testDir+"/") {
		return "", validationErrorf("Input file must be in the `%s/` directory.", testDir)
	}
	name := strings.TrimPrefix(rel, testDir+"/")
	if !strings.HasSuffix(name, HeaderSuffix) || name == HeaderSuffix {
		return "", validationErrorf("Naming convention in `%s/` is violated.", testDir)
	}
	tests, err := listDir(g.Layout.dir(g.Layout.TestDir))
	if err != nil {
		return "", validationErrorf("Cannot list `%s/`: %v", testDir, err)
	}
	if !tests[name] {
		return "", validationErrorf("Input file not found in %s/", testDir)
	}

	base := strings.TrimSuffix(name, HeaderSuffix)
	sketchDir := path.Clean(filepath.ToSlash(g.Layout.SketchDir))
	sketches, err := listDir(g.Layout.dir(g.Layout.SketchDir))
	if err != nil {
		return "", validationErrorf("Cannot list `%s/`: %v", sketchDir, err)
	}
	if !sketches[base+".h"] {
		return "", validationErrorf("No file named %s.h in the `%s/` directory.", base, sketchDir)
	}
	return base, nil
}

func listDir(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	return names, nil
}

// Render returns the driver source for inv.
func (g *Generator) Render(inv Invocation) ([]byte, error) {
	return g.Renderer.Render(inv)
}

// DriverPath is where the driver for inv is written.
func (g *Generator) DriverPath(inv Invocation) string {
	return filepath.Join(g.Layout.dir(g.Layout.DriverDir), inv.DriverName())
}

// Write renders inv and writes the driver, replacing any previous one. The
// text goes to a temporary file that is renamed into place, so a failed run
// never leaves a truncated driver behind.
func (g *Generator) Write(inv Invocation) (string, error) {
	src, err := g.Render(inv)
	if err != nil {
		return "", err
	}
	dst := g.DriverPath(inv)
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+inv.DriverName()+".*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	g.Log.Info().Str("driver", dst).Str("sketch", inv.SketchName()).Msg("wrote driver")
	return dst, nil
}

// Discover lists the test headers directly inside dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var headers []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, ok := BaseName(e.Name()); ok {
			headers = append(headers, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(headers)
	return headers, nil
}

// GenerateAll resolves every header first and writes drivers only when all
// of them are valid.
func (g *Generator) GenerateAll(headers []string) ([]string, error) {
	invs := make([]Invocation, 0, len(headers))
	for _, h := range headers {
		inv, err := g.FromHeader(h)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	written := make([]string, 0, len(invs))
	for _, inv := range invs {
		dst, err := g.Write(inv)
		if err != nil {
			return written, err
		}
		written = append(written, dst)
	}
	return written, nil
}
