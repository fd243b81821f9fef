// Package console runs a flow.Controller over a line-oriented terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/BTreeMap/WellnessGate/internal/flow"
)

const (
	// UserPrompt is written before each line is read.
	UserPrompt = "You: "
	// BotPrefix is written before each emitted message.
	BotPrefix = "Bot: "
)

// Run prints the start line and any pending banner, then feeds each input line to c until the
// session terminates or in is exhausted. Cancellation of ctx returns ctx.Err().
func Run(ctx context.Context, in io.Reader, out io.Writer, c *flow.Controller) error {
	w := bufio.NewWriter(out)
	defer w.Flush()

	fmt.Fprintf(w, "Chatbot started for %s. Type 'quit' to exit.\n", c.Session().Profile.Name)
	writeMessages(w, c.Banner().Messages)

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines := make(chan string)
	readErr := make(chan error, 1)
	go readLines(readCtx, in, lines, readErr)

	for c.State() != flow.StateTerminated {
		fmt.Fprint(w, UserPrompt)
		if err := w.Flush(); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(w)
			slog.Info("console.Run: context cancelled, stopping", "sessionID", c.Session().ID)
			return ctx.Err()
		case err := <-readErr:
			fmt.Fprintln(w)
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			slog.Info("console.Run: input closed, stopping", "sessionID", c.Session().ID)
			return nil
		case line := <-lines:
			outcome := c.Handle(ctx, line)
			writeMessages(w, outcome.Messages)
		}
	}
	return nil
}

// readLines sends each line of in on lines, then reports the scan result on done.
// It stops early once ctx is cancelled.
func readLines(ctx context.Context, in io.Reader, lines chan<- string, done chan<- error) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	done <- scanner.Err()
}

func writeMessages(w io.Writer, msgs []string) {
	for _, m := range msgs {
		fmt.Fprintf(w, "%s%s\n", BotPrefix, m)
	}
}
