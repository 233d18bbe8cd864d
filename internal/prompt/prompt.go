// Package prompt asks for legacy flag values that were left out.
package prompt

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
)

// Prompter asks the user for a single value.
type Prompter interface {
	Ask(label, def string) (string, error)
}

// Terminal prompts on the controlling terminal.
type Terminal struct{}

// Ask shows a promptui prompt that refuses blank answers.
func (Terminal) Ask(label, def string) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Default:  def,
		Validate: NotBlank,
	}
	return p.Run()
}

// NotBlank is the prompt validator for required values.
func NotBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value is required")
	}
	return nil
}

// Fill asks for every empty value in fields, in order.
func Fill(p Prompter, fields []Field) error {
	for _, f := range fields {
		if *f.Value != "" {
			continue
		}
		v, err := p.Ask(f.Label, f.Default)
		if err != nil {
			return err
		}
		*f.Value = strings.TrimSpace(v)
	}
	return nil
}

// Field is one value Fill may ask for.
type Field struct {
	Label   string
	Default string
	Value   *string
}
