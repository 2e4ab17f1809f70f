// Package prompt asks the user for credentials and confirmations on the terminal.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"mockct/internal/judge"
	appErr "mockct/pkg/errors"
)

// Prompter reads answers line by line. Passwords are read without echo when
// the input is a terminal.
type Prompter struct {
	reader          *bufio.Reader
	writer          *bufio.Writer
	fd              int
	isTerminal      bool
	defaultUsername string

	// pending holds a read that outlived a canceled prompt; the next prompt takes its answer.
	pending chan answer
}

type answer struct {
	text string
	err  error
}

func New(in io.Reader, out io.Writer, defaultUsername string) *Prompter {
	p := &Prompter{
		reader:          bufio.NewReader(in),
		writer:          bufio.NewWriter(out),
		fd:              -1,
		defaultUsername: defaultUsername,
	}
	if f, ok := in.(*os.File); ok {
		p.fd = int(f.Fd())
		p.isTerminal = term.IsTerminal(p.fd)
	}
	return p
}

// Stdio prompts on stdin and writes questions to stderr so stdout stays clean.
func Stdio(defaultUsername string) *Prompter {
	return New(os.Stdin, os.Stderr, defaultUsername)
}

// Credentials asks for username and password. An empty username falls back to
// the configured default.
func (p *Prompter) Credentials(ctx context.Context) (judge.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return judge.Credentials{}, err
	}
	label := "username"
	if p.defaultUsername != "" {
		label = fmt.Sprintf("username [%s]", p.defaultUsername)
	}
	username, err := p.promptValue(ctx, label)
	if err != nil {
		return judge.Credentials{}, err
	}
	if username == "" {
		username = p.defaultUsername
	}
	if username == "" {
		return judge.Credentials{}, appErr.New(appErr.LoginAborted).WithMessage("username is required")
	}

	password, err := p.promptSecret(ctx, "password")
	if err != nil {
		return judge.Credentials{}, err
	}
	return judge.Credentials{Username: username, Password: password}, nil
}

// Confirm asks a yes/no question. Anything other than y or yes declines, and so
// does closed input.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	reply, err := p.promptValue(ctx, question+" [y/N]")
	if err != nil {
		if appErr.Is(err, appErr.LoginAborted) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(reply) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Ask reads one free-form answer. An empty answer yields def.
func (p *Prompter) Ask(ctx context.Context, label, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if def != "" {
		label = fmt.Sprintf("%s [%s]", label, def)
	}
	reply, err := p.promptValue(ctx, label)
	if err != nil {
		return "", err
	}
	if reply == "" {
		reply = def
	}
	return reply, nil
}

func (p *Prompter) promptValue(ctx context.Context, label string) (string, error) {
	p.printf("%s: ", label)
	line, err := p.await(ctx, nil, func() (string, error) {
		line, err := p.reader.ReadString('\n')
		if err == io.EOF && line != "" {
			return line, nil
		}
		return line, err
	})
	switch {
	case err == nil:
		return strings.TrimSpace(line), nil
	case err == io.EOF:
		p.printf("\n")
		return "", appErr.New(appErr.LoginAborted).WithMessage("input closed")
	case ctx.Err() != nil:
		p.printf("\n")
		return "", err
	default:
		return "", fmt.Errorf("read input failed: %w", err)
	}
}

func (p *Prompter) promptSecret(ctx context.Context, label string) (string, error) {
	if !p.isTerminal {
		return p.promptValue(ctx, label)
	}
	p.printf("%s: ", label)
	var restore func()
	if old, err := term.GetState(p.fd); err == nil {
		restore = func() { _ = term.Restore(p.fd, old) }
	}
	secret, err := p.await(ctx, restore, func() (string, error) {
		secret, err := term.ReadPassword(p.fd)
		return string(secret), err
	})
	p.printf("\n")
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("read password failed: %w", err)
	}
	return secret, nil
}

// await runs read in the background and returns ctx.Err() as soon as ctx is done.
// onCancel undoes terminal changes made by the abandoned read.
func (p *Prompter) await(ctx context.Context, onCancel func(), read func() (string, error)) (string, error) {
	if p.pending == nil {
		ch := make(chan answer, 1)
		go func() {
			text, err := read()
			ch <- answer{text: text, err: err}
		}()
		p.pending = ch
	}
	select {
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		return "", ctx.Err()
	case got := <-p.pending:
		p.pending = nil
		return got.text, got.err
	}
}

func (p *Prompter) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.writer, format, args...)
	_ = p.writer.Flush()
}
