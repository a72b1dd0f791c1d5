package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/flockapp/internal/client/live"
	"github.com/dmitrijs2005/flockapp/internal/client/models"
	"github.com/dmitrijs2005/flockapp/internal/client/views"
)

// Live reloads and prints the current program.
func (a *App) Live(ctx context.Context) error {
	if err := a.live.FetchLiveProgram(ctx); err != nil {
		return err
	}
	a.printProgram(a.live.State().Program)
	return nil
}

// Comments refreshes and prints the comment feed of the current program.
func (a *App) Comments(ctx context.Context) error {
	if a.live.State().Program == nil {
		if err := a.live.FetchLiveProgram(ctx); err != nil {
			return err
		}
	} else if err := a.live.FetchLiveComments(ctx); err != nil {
		return err
	}

	st := a.live.State()
	if st.Program == nil {
		fmt.Fprintln(a.out, "Nothing is on air right now.")
		return nil
	}
	if len(st.Comments) == 0 {
		fmt.Fprintln(a.out, "No comments yet.")
	}
	for _, c := range st.Comments {
		a.printComment(c)
	}
	return nil
}

func (a *App) Comment(ctx context.Context, text string) error {
	if err := a.live.PostComment(ctx, text); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Comment posted.")
	return nil
}

// Watch follows the live program: participation is recorded, new comments
// are printed as the poller brings them in, and Enter stops watching.
func (a *App) Watch(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotSignedIn
	}
	if err := a.live.FetchLiveProgram(ctx); err != nil {
		return err
	}

	st := a.live.State()
	if st.Program == nil {
		fmt.Fprintln(a.out, "Nothing is on air right now.")
		return nil
	}
	a.printProgram(st.Program)

	var mu sync.Mutex
	seen := make(map[string]bool, len(st.Comments))
	for _, c := range st.Comments {
		seen[c.ID] = true
		a.printComment(c)
	}
	unsubscribe := a.live.Subscribe(func(s live.State) {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range s.Comments {
			if !seen[c.ID] {
				seen[c.ID] = true
				a.printComment(c)
			}
		}
	})

	watchCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		live.NewPoller(a.live, a.config.CommentsPollInterval, a.config.RequestTimeout, a.logger).Run(watchCtx)
	}()

	a.live.Focus(ctx)
	fmt.Fprintln(a.out, "Watching. Press Enter to stop.")
	_, _ = a.reader.ReadString('\n')

	a.live.Blur()
	cancel()
	wg.Wait()
	unsubscribe()
	return nil
}

func (a *App) printProgram(p *models.Program) {
	if p == nil {
		fmt.Fprintln(a.out, "Nothing is on air right now.")
		return
	}
	fmt.Fprintf(a.out, "[%s] %s\n", views.ProgramStatus(p), p.Title)
	if p.Description != "" {
		fmt.Fprintln(a.out, p.Description)
	}
	if p.VideoURL != "" {
		fmt.Fprintln(a.out, "Stream:", p.VideoURL)
	}
}

func (a *App) printComment(c models.Comment) {
	fmt.Fprintf(a.out, "%s %s: %s\n", c.CreatedAt.Local().Format("15:04"), views.AuthorName(c), c.Content)
}
