package generator

import (
	"strings"
	"unicode"
)

const (
	// HeaderSuffix terminates every test header name.
	HeaderSuffix = "Test.h"
	driverSuffix = "Driver.cpp"
)

// Invocation is the resolved input of one driver generation. The rendered
// driver depends on nothing else.
type Invocation struct {
	// BaseName is the sketch name taken from the header, e.g. BloomFilter.
	BaseName string
	Author   string
	Config   string
	// Template is the normalized template argument list without brackets.
	Template string
}

// DriverName is the file name of the generated driver.
func (inv Invocation) DriverName() string {
	return inv.BaseName + driverSuffix
}

// HeaderName is the file name of the test header the driver includes.
func (inv Invocation) HeaderName() string {
	return inv.BaseName + HeaderSuffix
}

// SketchName is the human readable label of the sketch.
func (inv Invocation) SketchName() string {
	return SketchName(inv.BaseName)
}

// ClassName is the test class instantiated by the driver, with its template
// argument list when there is one.
func (inv Invocation) ClassName() string {
	class := inv.BaseName + "Test"
	if inv.Template != "" {
		class += "<" + inv.Template + ">"
	}
	return class
}

// BaseName strips directory components (either separator) and the Test.h
// suffix from a header path. ok is false when the path does not name a test
// header.
func BaseName(path string) (base string, ok bool) {
	name := path
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		name = path[i+1:]
	}
	if !strings.HasSuffix(name, HeaderSuffix) {
		return "", false
	}
	base = strings.TrimSuffix(name, HeaderSuffix)
	return base, base != ""
}

// SketchName splits name before every upper case letter and joins the
// fragments with spaces. A trailing "Test" fragment is dropped, so both
// BloomFilter and BloomFilterTest read "Bloom Filter".
func SketchName(name string) string {
	var words []string
	start := 0
	for i, r := range name {
		if i > start && unicode.IsUpper(r) {
			words = append(words, name[start:i])
			start = i
		}
	}
	if start < len(name) {
		words = append(words, name[start:])
	}
	if len(words) > 1 && words[len(words)-1] == "Test" {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// NormalizeTemplate rewrites a template argument list into the form embedded
// in the driver: outer angle brackets removed and elements separated by ", ".
func NormalizeTemplate(args string) string {
	args = strings.TrimSpace(args)
	if enclosed(args) {
		args = strings.TrimSpace(args[1 : len(args)-1])
	}
	if args == "" {
		return ""
	}
	parts := strings.Split(args, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// enclosed reports whether s opens with '<' whose matching '>' is the last
// byte, as in "<13, Hash::AwareHash>" but not "<A>, B<C>".
func enclosed(s string) bool {
	if !strings.HasPrefix(s, "<") || !strings.HasSuffix(s, ">") {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				return i == len(s)-1
			}
		}
	}
	return false
}
