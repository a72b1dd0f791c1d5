package cli

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"

	"github.com/dmitrijs2005/flockapp/internal/logging"
)

// browserOpener prints the payment URL and, when launch is set, hands it to
// the desktop's default browser.
type browserOpener struct {
	out    io.Writer
	launch bool
	log    logging.Logger
}

func (o *browserOpener) Open(ctx context.Context, url string) error {
	fmt.Fprintln(o.out, "Complete your payment at:", url)
	if !o.launch {
		return nil
	}

	name, args := browserCommand(runtime.GOOS)
	cmd := exec.Command(name, append(args, url)...)
	if err := cmd.Start(); err != nil {
		// the URL is already on screen
		o.log.Warn(ctx, "open browser failed", "err", err)
		return nil
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func browserCommand(goos string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}
