package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"mockct/internal/testutil"
	appErr "mockct/pkg/errors"
)

func TestCredentials(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		def      string
		wantUser string
		wantPass string
		wantCode appErr.ErrorCode
	}{
		{name: "explicit", input: "alice\nsecret\n", wantUser: "alice", wantPass: "secret"},
		{name: "default username", input: "\nsecret\n", def: "bob", wantUser: "bob", wantPass: "secret"},
		{name: "no username", input: "\n", wantCode: appErr.LoginAborted},
		{name: "closed input", input: "", wantCode: appErr.LoginAborted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := New(strings.NewReader(tt.input), &out, tt.def)
			creds, err := p.Credentials(context.Background())
			if tt.wantCode != 0 {
				testutil.AssertEqual(t, appErr.GetCode(err), tt.wantCode)
				return
			}
			if err != nil {
				t.Fatalf("credentials: %v", err)
			}
			testutil.AssertEqual(t, creds.Username, tt.wantUser)
			testutil.AssertEqual(t, creds.Password, tt.wantPass)
			testutil.AssertTrue(t, strings.Contains(out.String(), "password:"), "password prompt shown")
		})
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		p := New(strings.NewReader(tt.input), &out, "")
		got, err := p.Confirm(context.Background(), "submit?")
		if err != nil {
			t.Fatalf("confirm %q: %v", tt.input, err)
		}
		testutil.AssertEqual(t, got, tt.want)
		testutil.AssertTrue(t, strings.HasPrefix(out.String(), "submit? [y/N]: "), "question shown")
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(strings.NewReader("alice\npw\n"), &bytes.Buffer{}, "")
	if _, err := p.Credentials(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestAsk(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("\nSSAFY_py_0821\n"), &out, "")

	got, err := p.Ask(context.Background(), "difficulty", "mid")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	testutil.AssertEqual(t, got, "mid")
	testutil.AssertTrue(t, strings.Contains(out.String(), "difficulty [mid]: "), out.String())

	got, err = p.Ask(context.Background(), "exam code", "")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	testutil.AssertEqual(t, got, "SSAFY_py_0821")

	_, err = p.Ask(context.Background(), "exam code", "")
	testutil.AssertEqual(t, appErr.GetCode(err), appErr.LoginAborted)
}

func TestConfirmReturnsOnCancel(t *testing.T) {
	in, feed := io.Pipe()
	defer feed.Close()
	p := New(in, &bytes.Buffer{}, "")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		_, err := p.Confirm(ctx, "submit?")
		done <- err
	}()
	select {
	case err := <-done:
		testutil.AssertTrue(t, errors.Is(err, context.Canceled), "canceled confirm returns the context error")
	case <-time.After(time.Second):
		t.Fatal("confirm still blocked after cancel")
	}

	go func() { _, _ = feed.Write([]byte("late\n")) }()
	got, err := p.Ask(context.Background(), "exam code", "")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	testutil.AssertEqual(t, got, "late")
}
