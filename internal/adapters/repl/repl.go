package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pnl-engine/internal/app"
)

var errExit = errors.New("exit")

// Run starts the interactive REPL loop. It opens with a review of every brand's
// suggestions, then dispatches slash commands until /quit or end of input.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "Reconciliation Console")
	fmt.Fprintln(out, "Review suggested order/invoice links, or use /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	if err := Review(ctx, svc, "", reader, out); err != nil {
		if errors.Is(err, errExit) {
			fmt.Fprintln(out, "Goodbye!")
			return
		}
		fmt.Fprintf(out, "Error: %v\n", err)
	}

	for {
		fmt.Fprint(out, "\n> ")
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if err != nil {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			continue
		}

		if !strings.HasPrefix(input, "/") {
			fmt.Fprintln(out, "Commands start with /. Type /help for the list.")
			continue
		}
		if err := dispatch(ctx, svc, input, reader, out); err != nil {
			if errors.Is(err, errExit) {
				fmt.Fprintln(out, "Goodbye!")
				return
			}
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func dispatch(ctx context.Context, svc app.ApplicationService, input string, reader *bufio.Reader, out io.Writer) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]
	brand := ""
	if len(args) > 0 {
		brand = args[0]
	}

	switch cmd {
	case "suggest", "s":
		result, err := svc.SuggestMatches(ctx, app.SuggestRequest{Brand: brand})
		if err != nil {
			return err
		}
		PrintSuggestions(out, result)

	case "review", "r":
		return Review(ctx, svc, brand, reader, out)

	case "link":
		if len(args) < 2 {
			fmt.Fprintln(out, "Usage: /link <order-id> <invoice-id>")
			return nil
		}
		result, err := svc.LinkMatch(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		PrintOrder(out, result.Order)

	case "unlink":
		if len(args) < 1 {
			fmt.Fprintln(out, "Usage: /unlink <order-id>")
			return nil
		}
		result, err := svc.UnlinkMatch(ctx, args[0])
		if err != nil {
			return err
		}
		PrintOrder(out, result.Order)

	case "exclude", "include":
		if len(args) < 1 {
			fmt.Fprintf(out, "Usage: /%s <order-id>\n", cmd)
			return nil
		}
		op := svc.ExcludeOrder
		if cmd == "include" {
			op = svc.IncludeOrder
		}
		result, err := op(ctx, args[0])
		if err != nil {
			return err
		}
		PrintOrder(out, result.Order)

	case "invoice":
		if len(args) < 2 {
			fmt.Fprintln(out, "Usage: /invoice <invoice-id> <approve|ignore|reopen>")
			return nil
		}
		result, err := svc.TransitionInvoice(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		PrintInvoice(out, result.Invoice)

	case "position", "pos":
		result, err := svc.GetCashPosition(ctx, brand)
		if err != nil {
			return err
		}
		PrintPosition(out, result)

	case "forecast", "f":
		req := app.ForecastRequest{Brand: brand}
		if len(args) > 1 {
			days, err := strconv.Atoi(args[1])
			if err != nil || days <= 0 {
				fmt.Fprintf(out, "Invalid horizon: %s\n", args[1])
				return nil
			}
			req.HorizonDays = days
		}
		result, err := svc.GetForecast(ctx, req)
		if err != nil {
			return err
		}
		PrintForecast(out, result)

	case "help", "h":
		printHelp(out)

	case "exit", "quit", "e", "q":
		return errExit

	default:
		fmt.Fprintf(out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

// Review walks the current suggestions for brand and asks for a decision on each.
// "q" ends the review early; end of input ends the session.
func Review(ctx context.Context, svc app.ApplicationService, brand string, reader *bufio.Reader, out io.Writer) error {
	result, err := svc.SuggestMatches(ctx, app.SuggestRequest{Brand: brand})
	if err != nil {
		return err
	}
	total := len(result.Suggestions)
	if total == 0 {
		fmt.Fprintf(out, "No suggestions to review for %s.\n", brandOrAll(brand))
		return nil
	}

	linked, skipped := 0, 0
	for n, s := range result.Suggestions {
		PrintSuggestion(out, n+1, total, s)
		fmt.Fprintf(out, "Link order %s to invoice %s? (y/n/q): ", s.OrderID, s.InvoiceID)
		choice, readErr := reader.ReadString('\n')
		choice = strings.ToLower(strings.TrimSpace(choice))

		switch choice {
		case "y", "yes":
			if _, err := svc.LinkMatch(ctx, s.OrderID, s.InvoiceID); err != nil {
				fmt.Fprintf(out, "Link FAILED: %v\n", err)
				continue
			}
			linked++
			fmt.Fprintln(out, "Linked.")
		case "q", "quit":
			fmt.Fprintf(out, "Review stopped. Linked %d, skipped %d.\n", linked, skipped)
			return nil
		default:
			skipped++
		}

		if readErr != nil {
			return errExit
		}
	}
	fmt.Fprintf(out, "Review complete. Linked %d, skipped %d.\n", linked, skipped)
	return nil
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, `
Commands:
  /suggest [brand]                 List match suggestions
  /review [brand]                  Walk suggestions and confirm links
  /link <order> <invoice>          Confirm a link manually
  /unlink <order>                  Remove a confirmed link
  /exclude <order>                 Take an order out of matching
  /include <order>                 Return an excluded order to matching
  /invoice <id> <action>           approve | ignore | reopen an invoice
  /position [brand]                Current cash position
  /forecast [brand] [days]         Burn, runway and scenario projection
  /help                            Show this help
  /quit                            Exit`)
}
