package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/flockapp/internal/client/api"
	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	err      error

	calls []string
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(context.Context) error { return f.record("register") }
func (f *fakeExec) Verify(context.Context) error   { return f.record("verify") }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) WhoAmI(context.Context) error   { return f.record("whoami") }
func (f *fakeExec) Forgot(context.Context) error   { return f.record("forgot") }
func (f *fakeExec) Reset(context.Context) error    { return f.record("reset") }
func (f *fakeExec) Passwd(context.Context) error   { return f.record("passwd") }
func (f *fakeExec) Products(context.Context) error { return f.record("products") }
func (f *fakeExec) Events(_ context.Context, all bool, page int) error {
	return f.record(fmt.Sprintf("events:%t:%d", all, page))
}
func (f *fakeExec) ShowCart(context.Context) error { return f.record("cart") }
func (f *fakeExec) Add(_ context.Context, id string) error {
	return f.record("add:" + id)
}
func (f *fakeExec) Inc(_ context.Context, id string) error {
	return f.record("inc:" + id)
}
func (f *fakeExec) Dec(_ context.Context, id string, qty int) error {
	return f.record(fmt.Sprintf("dec:%s:%d", id, qty))
}
func (f *fakeExec) Remove(_ context.Context, id string) error {
	return f.record("rm:" + id)
}
func (f *fakeExec) Checkout(context.Context) error { return f.record("checkout") }
func (f *fakeExec) Live(context.Context) error     { return f.record("live") }
func (f *fakeExec) Comments(context.Context) error { return f.record("comments") }
func (f *fakeExec) Comment(_ context.Context, text string) error {
	return f.record("comment:" + text)
}
func (f *fakeExec) Watch(context.Context) error { return f.record("watch") }

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func run(exec execIface, lines ...string) {
	reader := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	runREPL(context.Background(), exec, func() string { return "(status)" }, reader)
}

func TestRunREPL_DispatchesWithArguments(t *testing.T) {
	captureOutput(t)

	exec := &fakeExec{}
	run(exec,
		"login",
		"",
		"products",
		"events",
		"events all 2",
		"cart",
		"add prod-tee",
		"inc prod-tee",
		"dec prod-tee 0",
		"rm item-1",
		"checkout",
		"live",
		"comments",
		"comment hello   there",
		"watch",
		"whoami",
		"passwd",
		"logout",
		"exit",
		"register",
	)

	assert.Equal(t, []string{
		"login", "products", "events:false:1", "events:true:2", "cart",
		"add:prod-tee", "inc:prod-tee", "dec:prod-tee:0", "rm:item-1", "checkout",
		"live", "comments", "comment:hello there", "watch", "whoami", "passwd", "logout",
	}, exec.calls)
}

func TestRunREPL_UsageErrorsDoNotDispatch(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{loggedIn: true}
	run(exec, "add", "dec prod-tee", "dec prod-tee many", "rm", "events 0", "events all 1 2", "quit")

	assert.Empty(t, exec.calls)
	assert.Contains(t, *out, "Usage: add <productId>")
	assert.Contains(t, *out, "Usage: dec <productId> <qty>")
	assert.Contains(t, *out, "Usage: rm <itemId>")
	assert.Contains(t, *out, "Usage: events [all] [page]")
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}

func TestRunREPL_HelpDependsOnSignIn(t *testing.T) {
	out := captureOutput(t)

	run(&fakeExec{}, "help")
	assert.Contains(t, *out, helpSignedOut)

	*out = nil
	run(&fakeExec{loggedIn: true}, "help")
	assert.Contains(t, *out, helpSignedIn)
}

func TestRunREPL_ReportsErrorsAndContinues(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{err: &api.APIError{StatusCode: 401, Message: "Invalid email or password"}}
	run(exec, "login", "foobar", "cart")

	assert.Equal(t, []string{"login", "cart"}, exec.calls)
	assert.Contains(t, *out, "Error: Invalid email or password")
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "flock (status)> ")
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	captureOutput(t)

	exec := &fakeExec{}
	run(exec, "products")
	assert.Equal(t, []string{"products"}, exec.calls)
}
