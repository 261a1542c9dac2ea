package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"inventory-ledger/internal/adapters/cli"
	"inventory-ledger/internal/app"
	"inventory-ledger/internal/core"
)

// Run starts the interactive loop. Each line is one CLI command, optionally prefixed
// with a slash. It returns when the reader is exhausted or the user types exit.
func Run(ctx context.Context, svc app.ApplicationService, actor core.Actor, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "Inventory Ledger")
	fmt.Fprintf(out, "Acting as user %d (%s). Type help for commands, exit to quit.\n", actor.UserID, actor.Role)
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for {
		fmt.Fprint(out, "\n> ")
		input, err := reader.ReadString('\n')
		line := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), "/"))
		if line != "" {
			if quit := handle(ctx, svc, actor, out, line); quit {
				fmt.Fprintln(out, "Goodbye!")
				return
			}
		}
		if err != nil {
			fmt.Fprintln(out)
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func handle(ctx context.Context, svc app.ApplicationService, actor core.Actor, out io.Writer, line string) bool {
	tokens := strings.Fields(line)
	switch strings.ToLower(tokens[0]) {
	case "exit", "quit", "q":
		return true
	}
	if err := cli.Dispatch(ctx, svc, actor, out, tokens); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintf(out, "%v  (type help for all commands)\n", err)
			return false
		}
		fmt.Fprintf(out, "Error [%s]: %v\n", core.ErrorCode(err), err)
	}
	return false
}
