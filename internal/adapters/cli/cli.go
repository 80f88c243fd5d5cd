package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"pnl-engine/internal/adapters/repl"
	"pnl-engine/internal/app"
	"pnl-engine/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

// Run executes a one-shot CLI command.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given\nAvailable: %s", available)
	}
	rest := args[1:]
	brand := ""
	if len(rest) > 0 {
		brand = rest[0]
	}

	switch args[0] {
	case "suggest", "s":
		result, err := svc.SuggestMatches(ctx, app.SuggestRequest{Brand: brand})
		if err != nil {
			return fmt.Errorf("suggestion pass failed: %w", err)
		}
		repl.PrintSuggestions(out, result)

	case "link":
		if len(rest) < 2 {
			return fmt.Errorf("usage: app link <order-id> <invoice-id>")
		}
		result, err := svc.LinkMatch(ctx, rest[0], rest[1])
		if err != nil {
			return fmt.Errorf("link failed: %w", err)
		}
		repl.PrintOrder(out, result.Order)

	case "unlink":
		if len(rest) < 1 {
			return fmt.Errorf("usage: app unlink <order-id>")
		}
		result, err := svc.UnlinkMatch(ctx, rest[0])
		if err != nil {
			return fmt.Errorf("unlink failed: %w", err)
		}
		repl.PrintOrder(out, result.Order)

	case "exclude", "include":
		if len(rest) < 1 {
			return fmt.Errorf("usage: app %s <order-id>", args[0])
		}
		op := svc.ExcludeOrder
		if args[0] == "include" {
			op = svc.IncludeOrder
		}
		result, err := op(ctx, rest[0])
		if err != nil {
			return fmt.Errorf("%s failed: %w", args[0], err)
		}
		repl.PrintOrder(out, result.Order)

	case "invoice":
		if len(rest) < 2 {
			return fmt.Errorf("usage: app invoice <invoice-id> <approve|ignore|reopen>")
		}
		result, err := svc.TransitionInvoice(ctx, rest[0], rest[1])
		if err != nil {
			return fmt.Errorf("invoice %s failed: %w", rest[1], err)
		}
		repl.PrintInvoice(out, result.Invoice)

	case "position", "pos":
		result, err := svc.GetCashPosition(ctx, brand)
		if err != nil {
			return fmt.Errorf("failed to get cash position: %w", err)
		}
		repl.PrintPosition(out, result)

	case "forecast", "f":
		req := app.ForecastRequest{Brand: brand}
		if len(rest) > 1 {
			days, err := strconv.Atoi(rest[1])
			if err != nil || days <= 0 {
				return fmt.Errorf("invalid horizon %q: must be a positive number of days", rest[1])
			}
			req.HorizonDays = days
		}
		result, err := svc.GetForecast(ctx, req)
		if err != nil {
			return fmt.Errorf("forecast failed: %w", err)
		}
		repl.PrintForecast(out, result)

	case "schema":
		if len(rest) < 1 {
			return fmt.Errorf("usage: app schema <%s>", strings.Join(schemaNames(), "|"))
		}
		return writeSchema(out, rest[0])

	default:
		return fmt.Errorf("unknown command: %s\nAvailable: %s", args[0], available)
	}
	return nil
}

const available = "suggest, link, unlink, exclude, include, invoice, position, forecast, schema"

// ── JSON Schema export ──────────────────────────────────────────────────────

var schemaRecords = map[string]any{
	"order":       core.Order{},
	"invoice":     core.Invoice{},
	"account":     core.CashAccount{},
	"event":       core.CashEvent{},
	"snapshot":    core.Snapshot{},
	"suggestions": app.SuggestionResult{},
	"forecast":    app.ForecastResult{},
}

func schemaNames() []string {
	names := make([]string, 0, len(schemaRecords))
	for n := range schemaRecords {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	rawJSONType = reflect.TypeOf(json.RawMessage{})
)

// Schema returns the JSON Schema of a named record type.
func Schema(name string) (*jsonschema.Schema, error) {
	v, ok := schemaRecords[name]
	if !ok {
		return nil, fmt.Errorf("unknown record %q; available: %s", name, strings.Join(schemaNames(), ", "))
	}
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t {
			case decimalType:
				return &jsonschema.Schema{Type: "string", Pattern: `^-?[0-9]+(\.[0-9]+)?$`}
			case rawJSONType:
				return &jsonschema.Schema{}
			}
			return nil
		},
	}
	return reflector.Reflect(v), nil
}

func writeSchema(out io.Writer, name string) error {
	s, err := Schema(name)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
