package command

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is one parsed frame: a timestamp, a command name, and up to
// 26 single-letter keyword arguments.
type Command struct {
	Timestamp int
	Name      string
	args      [26]string
	has       [26]bool
}

// Parse reads a full Command off stream: "[N] name (-x value)*". Key
// letters must be distinct within one command; every key must be
// followed by exactly one value token.
func Parse(stream *TokenStream) (Command, error) {
	var cmd Command

	tsTok := stream.Get()
	if tsTok == nil {
		return cmd, fmt.Errorf("command: timestamp not found")
	}
	if len(tsTok.Text) <= 2 || tsTok.Text[0] != '[' || tsTok.Text[len(tsTok.Text)-1] != ']' {
		return cmd, fmt.Errorf("command: timestamp format error: %q", tsTok.Text)
	}
	ts, err := strconv.Atoi(tsTok.Text[1 : len(tsTok.Text)-1])
	if err != nil {
		return cmd, fmt.Errorf("command: timestamp invalid: %q", tsTok.Text)
	}
	cmd.Timestamp = ts

	nameTok := stream.Get()
	if nameTok == nil {
		return cmd, fmt.Errorf("command: command name not found")
	}
	cmd.Name = nameTok.Text

	for {
		keyTok := stream.Get()
		if keyTok == nil {
			break
		}
		if len(keyTok.Text) != 2 || keyTok.Text[0] != '-' {
			return cmd, fmt.Errorf("command: key format error: %q", keyTok.Text)
		}
		letter := keyTok.Text[1]
		if letter < 'a' || letter > 'z' {
			return cmd, fmt.Errorf("command: key invalid: %q", keyTok.Text)
		}
		idx := letter - 'a'
		if cmd.has[idx] {
			return cmd, fmt.Errorf("command: duplicated key -%c", letter)
		}
		valTok := stream.Get()
		if valTok == nil {
			return cmd, fmt.Errorf("command: missing argument for key -%c", letter)
		}
		cmd.args[idx] = valTok.Text
		cmd.has[idx] = true
	}
	return cmd, nil
}

// Arg returns the value given for -key, or "" if it was not present.
// key outside 'a'..'z' always returns "".
func (c Command) Arg(key byte) string {
	if key < 'a' || key > 'z' {
		return ""
	}
	return c.args[key-'a']
}

// Has reports whether -key was present on the command line.
func (c Command) Has(key byte) bool {
	if key < 'a' || key > 'z' {
		return false
	}
	return c.has[key-'a']
}

// Check reports whether exactly the keys in must are present, plus
// optionally any of the keys in optional, and nothing else.
func (c Command) Check(must, optional string) bool {
	for i := 0; i < len(must); i++ {
		if !c.Has(must[i]) {
			return false
		}
	}
	for letter := byte('a'); letter <= 'z'; letter++ {
		if !c.Has(letter) {
			continue
		}
		if strings.IndexByte(must, letter) == -1 && strings.IndexByte(optional, letter) == -1 {
			return false
		}
	}
	return true
}
