package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/omnisketch/drivergen/internal/config"
	"github.com/omnisketch/drivergen/internal/generator"
	"github.com/omnisketch/drivergen/internal/templates"
)

const trailer = `
// Driver instance:
//      AUTHOR: dromniscience
//      CONFIG: test.toml
//    TEMPLATE: Hash::AwareHash
`

// project lays out a sketch project with one test header and its sketch.
func project(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"test/BloomFilterTest.h": "#pragma once\n" + trailer,
		"test/HashPipeTest.h":    "#pragma once\n" + strings.Replace(trailer, "dromniscience", "KyleLv", 1),
		"sketch/BloomFilter.h":   "#pragma once\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errb bytes.Buffer
	code = Run(args, &out, &errb)
	return code, out.String(), errb.String()
}

func readDriver(t *testing.T, root, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, "driver", name))
	require.NoError(t, err)
	return string(b)
}

func TestRun_Header(t *testing.T) {
	root := project(t)
	code, _, stderr := run(t, "--root", root, filepath.Join(root, "test", "BloomFilterTest.h"))
	require.Equal(t, 0, code, stderr)

	got := readDriver(t, root, "BloomFilterDriver.cpp")
	assert.Contains(t, got, " * @brief Driver of Bloom Filter\n")
	assert.Contains(t, got, "#include <sketch_test/BloomFilterTest.h>")
	assert.Contains(t, got, `std::string config_file = "../src/test.toml";`)
	assert.Contains(t, got, "std::make_unique<Test::BloomFilterTest<Hash::AwareHash>>(config_file);")
}

func TestRun_HeaderErrors(t *testing.T) {
	root := project(t)
	tests := []struct {
		name    string
		args    []string
		message string
		usage   bool
	}{
		{"no arguments", []string{"--root", root}, "expected one test header, got 0 arguments", true},
		{"two arguments", []string{"--root", root, "a/XTest.h", "b/YTest.h"}, "got 2 arguments", true},
		{"wrong suffix", []string{"--root", root, filepath.Join(root, "sketch", "BloomFilter.h")}, "File name must end with Test.h", false},
		{"not a file", []string{"--root", root, filepath.Join(root, "test", "MissingTest.h")}, "Not a regular file.", false},
		{"unknown flag", []string{"--root", root, "--bogus"}, "unknown flag: --bogus", true},
		{"mixed modes", []string{"--root", root, "--all", "--pick"}, "cannot be combined", true},
		{"interactive without flags", []string{"--root", root, "-i", "x/XTest.h"}, "--interactive only applies", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(t, tt.args...)
			assert.Equal(t, generator.ExitUsage, code)
			assert.True(t, strings.HasPrefix(stderr, "(generate_driver) "), stderr)
			assert.Contains(t, stderr, tt.message)
			assert.Equal(t, tt.usage, strings.Contains(stderr, "Usage:"), stderr)
		})
	}
	_, err := os.Stat(filepath.Join(root, "driver"))
	assert.True(t, os.IsNotExist(err), "failed runs write nothing")
}

func TestRun_Legacy(t *testing.T) {
	root := project(t)
	code, _, stderr := run(t, "--root", root,
		"-f", "./test/BloomFilterTest.h", "-a", "dromniscience", "-c", "../test.toml", "-t", "13,Hash::AwareHash")
	require.Equal(t, 0, code, stderr)

	got := readDriver(t, root, "BloomFilterDriver.cpp")
	assert.Contains(t, got, `std::string config_file = "../test.toml";`)
	assert.Contains(t, got, "Test::BloomFilterTest<13, Hash::AwareHash>")
}

func TestRun_LegacyErrors(t *testing.T) {
	root := project(t)
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"outside test dir", []string{"-f", "sketch/BloomFilter.h", "-a", "x", "-c", "y"}, generator.ExitValidation},
		{"missing sketch", []string{"-f", "test/HashPipeTest.h", "-a", "x", "-c", "y"}, generator.ExitValidation},
		{"missing file", []string{"-a", "x", "-c", "y"}, generator.ExitMissing},
		{"missing author", []string{"-f", "test/BloomFilterTest.h", "-c", "y"}, generator.ExitMissing},
		{"missing config", []string{"-f", "test/BloomFilterTest.h", "-a", "x"}, generator.ExitMissing},
		{"positional argument", []string{"-f", "test/BloomFilterTest.h", "-a", "x", "-c", "y", "extra"}, generator.ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(t, append([]string{"--root", root}, tt.args...)...)
			assert.Equal(t, tt.code, code, stderr)
		})
	}
}

type fakePrompter map[string]string

func (f fakePrompter) Ask(label, def string) (string, error) {
	if v, ok := f[label]; ok {
		return v, nil
	}
	return def, nil
}

func TestRun_LegacyInteractive(t *testing.T) {
	root := project(t)
	old := prompter
	prompter = fakePrompter{"Author": "dromniscience"}
	t.Cleanup(func() { prompter = old })

	code, _, stderr := run(t, "--root", root, "-i", "-f", "test/BloomFilterTest.h")
	require.Equal(t, 0, code, stderr)

	got := readDriver(t, root, "BloomFilterDriver.cpp")
	assert.Contains(t, got, "@author dromniscience")
	assert.Contains(t, got, `config_file = "../test.toml";`)
	assert.Contains(t, got, "Test::BloomFilterTest>")
}

func TestRun_All(t *testing.T) {
	root := project(t)
	code, stdout, stderr := run(t, "--root", root, "--all")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, filepath.Join(root, "driver", "BloomFilterDriver.cpp")+"\n"+
		filepath.Join(root, "driver", "HashPipeDriver.cpp")+"\n", stdout)
	assert.Contains(t, readDriver(t, root, "HashPipeDriver.cpp"), "@author KyleLv")
}

func TestRun_AllStdout(t *testing.T) {
	root := project(t)
	code, stdout, stderr := run(t, "--root", root, "--all", "--stdout", filepath.Join(root, "test"))
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, 2, strings.Count(stdout, "int main(int argc, char *argv[])"))
	assert.Contains(t, stdout, "@file BloomFilterDriver.cpp")
	assert.Contains(t, stdout, "@file HashPipeDriver.cpp")

	_, err := os.Stat(filepath.Join(root, "driver"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_AllEmptyDir(t *testing.T) {
	code, _, stderr := run(t, "--all", t.TempDir())
	assert.Equal(t, generator.ExitUsage, code)
	assert.Contains(t, stderr, "no *Test.h files")
}

func TestRun_Pick(t *testing.T) {
	root := project(t)
	old := selectHeader
	var offered []string
	selectHeader = func(headers []string) (string, error) {
		offered = headers
		return headers[1], nil
	}
	t.Cleanup(func() { selectHeader = old })

	code, _, stderr := run(t, "--root", root, "--pick")
	require.Equal(t, 0, code, stderr)
	assert.Len(t, offered, 2)
	assert.Contains(t, readDriver(t, root, "HashPipeDriver.cpp"), "Driver of Hash Pipe")
}

func TestRun_PickCanceled(t *testing.T) {
	root := project(t)
	old := selectHeader
	selectHeader = func([]string) (string, error) { return "", errors.New("selection canceled") }
	t.Cleanup(func() { selectHeader = old })

	code, _, stderr := run(t, "--root", root, "--pick")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "selection canceled")
}

func TestRun_Settings(t *testing.T) {
	root := project(t)
	settings := filepath.Join(t.TempDir(), "drivergen.yaml")
	content := "driver_dir: out\nnamespace: Sketches\ncopyright_year: 2024\nconfig_prefix: /opt/conf/\n"
	require.NoError(t, os.WriteFile(settings, []byte(content), 0o644))

	code, _, stderr := run(t, "--root", root, "--settings", settings, filepath.Join(root, "test", "BloomFilterTest.h"))
	require.Equal(t, 0, code, stderr)

	b, err := os.ReadFile(filepath.Join(root, "out", "BloomFilterDriver.cpp"))
	require.NoError(t, err)
	got := string(b)
	assert.Contains(t, got, "using namespace Sketches;")
	assert.Contains(t, got, "Copyright (c) 2024")
	assert.Contains(t, got, `config_file = "/opt/conf/test.toml";`)
}

func TestRun_CustomTemplatePack(t *testing.T) {
	root := project(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, templates.FileName), []byte("// [[.Class]] by [[.Author]]\n"), 0o644))
	pack := filepath.Join(t.TempDir(), "pack.zip")

	code, stdout, stderr := run(t, "template", "export", pack)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "wrote "+pack+"\n", stdout)

	settings := filepath.Join(t.TempDir(), "drivergen.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("template: "+filepath.Join(dir, templates.FileName)+"\n"), 0o644))
	code, stdout, stderr = run(t, "--root", root, "--settings", settings, "--stdout", filepath.Join(root, "test", "BloomFilterTest.h"))
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "// BloomFilterTest<Hash::AwareHash> by dromniscience\n", stdout)

	require.NoError(t, os.WriteFile(settings, []byte("template: "+pack+"\n"), 0o644))
	code, stdout, stderr = run(t, "--root", root, "--settings", settings, "--stdout", filepath.Join(root, "test", "BloomFilterTest.h"))
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "#include <sketch_test/BloomFilterTest.h>")
}

func TestRun_ConfigInitShow(t *testing.T) {
	settings := filepath.Join(t.TempDir(), "drivergen.yaml")

	code, stdout, stderr := run(t, "--settings", settings, "config", "init")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "wrote "+settings+"\n", stdout)

	code, _, stderr = run(t, "--settings", settings, "config", "init")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already exists")

	code, stdout, stderr = run(t, "--settings", settings, "--root", "/src", "config", "show")
	require.Equal(t, 0, code, stderr)
	var got config.Config
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &got))
	want := *config.DefaultConfig()
	want.Root = "/src"
	assert.Equal(t, want, got)
}

func TestRun_Help(t *testing.T) {
	code, stdout, _ := run(t, "-h")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "generate_driver <path/XXXTest.h>")
	assert.Contains(t, stdout, "--template")
}
