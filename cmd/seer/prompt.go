package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ask prints label and reads one line. Hidden input is used for secrets when
// stdin is a terminal.
func (c *cli) ask(label string, secret bool) (string, error) {
	fmt.Fprint(c.errOut, label+": ")
	if f, ok := c.in.(*os.File); ok && secret && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.errOut)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	if c.lines == nil {
		c.lines = bufio.NewReader(c.in)
	}
	line, err := c.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// valueOrAsk returns value when set, otherwise prompts for it.
func (c *cli) valueOrAsk(value, label string, secret bool) (string, error) {
	if strings.TrimSpace(value) != "" {
		return value, nil
	}
	v, err := c.ask(label, secret)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return v, nil
}
