package console

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned by a Prompter when the user interrupts input.
var ErrAborted = errors.New("input aborted")

// Prompter collects choices and free text from the user.
type Prompter interface {
	// Select returns the index of the chosen item.
	Select(label string, items []string, cursor int) (int, error)
	Input(label string, validate func(string) error) (string, error)
}

// TerminalPrompter implements Prompter with promptui.
type TerminalPrompter struct {
	Size int
}

func (p TerminalPrompter) Select(label string, items []string, cursor int) (int, error) {
	size := p.Size
	if size <= 0 {
		size = 10
	}

	sel := promptui.Select{
		Label:     label,
		Items:     items,
		Size:      size,
		CursorPos: cursor,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(items[index]), strings.ToLower(input))
		},
	}

	index, _, err := sel.Run()
	return index, translate(err)
}

func (p TerminalPrompter) Input(label string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: promptui.ValidateFunc(validate),
	}

	value, err := prompt.Run()
	return value, translate(err)
}

func translate(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return ErrAborted
	}
	return err
}
