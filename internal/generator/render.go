package generator

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Delimiters of driver templates. The driver body is C++, whose brace
// initializers would collide with the default {{ }}.
const (
	LeftDelim  = "[["
	RightDelim = "]]"
)

// Style holds the render settings that are fixed per project.
type Style struct {
	Namespace     string
	CopyrightYear int
	// IncludeDir is the include path prefix of test headers.
	IncludeDir string
}

// Renderer turns an Invocation into driver source text.
type Renderer struct {
	tpl   *template.Template
	style Style
}

// driverData is the value a driver template is executed with.
type driverData struct {
	DriverName string
	SketchName string
	Author     string
	Config     string
	Include    string
	Class      string
	Namespace  string
	Year       int
}

var funcs = template.FuncMap{
	"cstr": cString,
}

// NewRenderer parses a driver template.
func NewRenderer(text string, style Style) (*Renderer, error) {
	tpl, err := template.New("driver").
		Delims(LeftDelim, RightDelim).
		Funcs(funcs).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse driver template: %w", err)
	}
	return &Renderer{tpl: tpl, style: style}, nil
}

// Render executes the template for inv.
func (r *Renderer) Render(inv Invocation) ([]byte, error) {
	include := inv.HeaderName()
	if dir := strings.TrimSuffix(r.style.IncludeDir, "/"); dir != "" {
		include = dir + "/" + include
	}
	data := driverData{
		DriverName: inv.DriverName(),
		SketchName: inv.SketchName(),
		Author:     inv.Author,
		Config:     inv.Config,
		Include:    include,
		Class:      inv.ClassName(),
		Namespace:  r.style.Namespace,
		Year:       r.style.CopyrightYear,
	}
	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", inv.DriverName(), err)
	}
	return buf.Bytes(), nil
}

// cString escapes s for use inside a C++ string literal.
func cString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
