package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/flockapp/internal/client/api"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	Register(ctx context.Context) error
	Verify(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Forgot(ctx context.Context) error
	Reset(ctx context.Context) error
	Passwd(ctx context.Context) error

	Products(ctx context.Context) error
	Events(ctx context.Context, all bool, page int) error

	ShowCart(ctx context.Context) error
	Add(ctx context.Context, productID string) error
	Inc(ctx context.Context, productID string) error
	Dec(ctx context.Context, productID string, quantity int) error
	Remove(ctx context.Context, itemID string) error
	Checkout(ctx context.Context) error

	Live(ctx context.Context) error
	Comments(ctx context.Context) error
	Comment(ctx context.Context, text string) error
	Watch(ctx context.Context) error
}

const (
	helpSignedOut = "Available commands: register, verify, login, forgot, reset, products, events, exit"
	helpSignedIn  = "Available commands: whoami, products, events [all] [page], cart, add <productId>, " +
		"inc <productId>, dec <productId> <qty>, rm <itemId>, checkout, live, comments, comment <text>, " +
		"watch, passwd, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the Flock CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Commands that need arguments print their
// usage when the arguments are missing or malformed. The loop exits on EOF or
// when the user types "exit" or "quit".
//
// Handler errors are printed with the user-facing message from api.Message
// and never end the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("flock %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}

		case "register":
			cmdErr = a.Register(ctx)
		case "verify":
			cmdErr = a.Verify(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "whoami":
			cmdErr = a.WhoAmI(ctx)
		case "forgot":
			cmdErr = a.Forgot(ctx)
		case "reset":
			cmdErr = a.Reset(ctx)
		case "passwd":
			cmdErr = a.Passwd(ctx)

		case "products":
			cmdErr = a.Products(ctx)
		case "events":
			all, page, ok := parseEventArgs(args)
			if !ok {
				printlnFn("Usage: events [all] [page]")
				continue
			}
			cmdErr = a.Events(ctx, all, page)

		case "cart":
			cmdErr = a.ShowCart(ctx)
		case "add":
			if len(args) != 1 {
				printlnFn("Usage: add <productId>")
				continue
			}
			cmdErr = a.Add(ctx, args[0])
		case "inc":
			if len(args) != 1 {
				printlnFn("Usage: inc <productId>")
				continue
			}
			cmdErr = a.Inc(ctx, args[0])
		case "dec":
			if len(args) != 2 {
				printlnFn("Usage: dec <productId> <qty>")
				continue
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				printlnFn("Usage: dec <productId> <qty>")
				continue
			}
			cmdErr = a.Dec(ctx, args[0], qty)
		case "rm":
			if len(args) != 1 {
				printlnFn("Usage: rm <itemId>")
				continue
			}
			cmdErr = a.Remove(ctx, args[0])
		case "checkout":
			cmdErr = a.Checkout(ctx)

		case "live":
			cmdErr = a.Live(ctx)
		case "comments":
			cmdErr = a.Comments(ctx)
		case "comment":
			cmdErr = a.Comment(ctx, strings.Join(args, " "))
		case "watch":
			cmdErr = a.Watch(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", api.Message(cmdErr))
		}
	}
}

func parseEventArgs(args []string) (all bool, page int, ok bool) {
	page = 1
	if len(args) > 0 && args[0] == "all" {
		all = true
		args = args[1:]
	}
	switch len(args) {
	case 0:
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return false, 0, false
		}
		page = n
	default:
		return false, 0, false
	}
	return all, page, true
}
