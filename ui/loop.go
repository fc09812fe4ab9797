package ui

import (
	"context"
	"time"

	"github.com/rivo/tview"
)

// RunTicker calls fn on the application's event goroutine fps times a second until ctx is done.
// Frames are dropped, not queued, while a previous one is still pending.
func RunTicker(ctx context.Context, app *tview.Application, fps int, fn func()) {
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	pending := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case pending <- struct{}{}:
			default:
				continue
			}
			app.QueueUpdateDraw(func() {
				defer func() { <-pending }()
				if ctx.Err() == nil {
					fn()
				}
			})
		}
	}
}
