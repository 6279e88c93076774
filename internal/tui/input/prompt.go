// Package input parses and completes calendar prompt commands.
package input

import (
	"errors"
	"strings"
)

// ErrNotCommand is returned for prompt input that does not start with "/".
var ErrNotCommand = errors.New("commands start with /")

// PromptCommand describes a command suggestion entry.
type PromptCommand struct {
	Name        string
	Args        string // argument synopsis, e.g. "<date>"
	Description string
}

// Command is a parsed prompt line.
type Command struct {
	Name string // lower-cased, with the leading slash
	Args []string
}

// Arg returns the arguments joined back into one string.
func (c Command) Arg() string {
	return strings.Join(c.Args, " ")
}

// Parse splits a prompt line into a command and its arguments.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") || fields[0] == "/" {
		return Command{}, ErrNotCommand
	}
	return Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}, nil
}

// PromptMatchingCommands returns commands that match the current input prefix.
// Nothing matches once an argument is being typed.
func PromptMatchingCommands(input string, commands []PromptCommand) []PromptCommand {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") || strings.Contains(input, " ") {
		return nil
	}

	prefix := strings.ToLower(trimmed)
	var matches []PromptCommand
	for _, cmd := range commands {
		if strings.HasPrefix(strings.ToLower(cmd.Name), prefix) {
			matches = append(matches, cmd)
		}
	}
	return matches
}

// PromptAutocomplete returns the first matching command and whether it exists.
func PromptAutocomplete(input string, commands []PromptCommand) (string, bool) {
	matches := PromptMatchingCommands(input, commands)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Name + " ", true
}
