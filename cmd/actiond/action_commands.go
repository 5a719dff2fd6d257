package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"

	"github.com/solbound/actiond/client"
)

// actionPath maps a short action name to its endpoint path.
func actionPath(name string) (string, error) {
	switch name {
	case "memo":
		return "/api/actions/memo", nil
	case "transfer-sol", "transfer":
		return "/api/actions/transfer-sol", nil
	default:
		return "", fmt.Errorf("unknown action %q: expected 'memo' or 'transfer-sol'", name)
	}
}

// actionQuery builds the query string from the CLI flags.
func actionQuery(c *cli.Context) url.Values {
	query := url.Values{}
	if to := c.String("to"); to != "" {
		query.Set("to", to)
	}
	if amount := c.String("amount"); amount != "" {
		query.Set("amount", amount)
	}
	return query
}

// printFiltered prints v as indented JSON, optionally passed through a jq
// expression first.
func printFiltered(v interface{}, jqExpr string) error {
	if jqExpr != "" {
		query, err := gojq.Parse(jqExpr)
		if err != nil {
			return fmt.Errorf("failed to parse jq filter %q: %w", jqExpr, err)
		}
		code, err := gojq.Compile(query)
		if err != nil {
			return fmt.Errorf("failed to compile jq filter %q: %w", jqExpr, err)
		}

		// Round-trip through JSON so gojq sees plain maps and slices.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic interface{}
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}

		iter := code.Run(generic)
		for {
			out, ok := iter.Next()
			if !ok {
				return nil
			}
			if err, isErr := out.(error); isErr {
				return fmt.Errorf("jq filter error: %w", err)
			}
			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
		}
	}

	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func newCLIClient(c *cli.Context) *client.Client {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	return client.NewClient(c.String("server-url"), nil, logger)
}

func getActionCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch an action's metadata",
		ArgsUsage: "<memo|transfer-sol>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to", Usage: "Destination address query parameter"},
			&cli.StringFlag{Name: "amount", Usage: "Amount query parameter"},
			&cli.StringFlag{Name: "jq", Usage: "jq expression applied to the response"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "Request timeout"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("action name is required")
			}
			path, err := actionPath(c.Args().Get(0))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
			defer cancel()

			metadata, err := newCLIClient(c).GetAction(ctx, path, actionQuery(c))
			if err != nil {
				return err
			}
			return printFiltered(metadata, c.String("jq"))
		},
	}
}

func postActionCommand() *cli.Command {
	return &cli.Command{
		Name:      "post",
		Usage:     "Request an unsigned transaction from an action",
		ArgsUsage: "<memo|transfer-sol>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "account", Usage: "Payer account (base58)", Required: true},
			&cli.StringFlag{Name: "to", Usage: "Destination address query parameter"},
			&cli.StringFlag{Name: "amount", Usage: "Amount query parameter"},
			&cli.StringFlag{Name: "jq", Usage: "jq expression applied to the response"},
			&cli.BoolFlag{Name: "decode", Usage: "Also print the decoded transaction"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "Request timeout"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("action name is required")
			}
			path, err := actionPath(c.Args().Get(0))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
			defer cancel()

			txn, err := newCLIClient(c).PostAction(ctx, path, actionQuery(c), c.String("account"))
			if err != nil {
				return err
			}
			if err := printFiltered(txn, c.String("jq")); err != nil {
				return err
			}

			if c.Bool("decode") {
				return printDecodedTransaction(txn.Transaction)
			}
			return nil
		},
	}
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode a base64 transaction returned by an action",
		ArgsUsage: "<base64-transaction>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("base64 transaction is required")
			}
			return printDecodedTransaction(c.Args().Get(0))
		},
	}
}

// printDecodedTransaction prints the fee payer, blockhash, and instructions
// of a base64-encoded transaction.
func printDecodedTransaction(encoded string) error {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("failed to decode base64: %w", err)
	}

	tx, err := solanago.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return fmt.Errorf("failed to decode transaction: %w", err)
	}

	if len(tx.Message.AccountKeys) > 0 {
		fmt.Printf("fee payer:   %s\n", tx.Message.AccountKeys[0])
	}
	fmt.Printf("blockhash:   %s\n", tx.Message.RecentBlockhash)
	fmt.Printf("signatures:  %d required\n", tx.Message.Header.NumRequiredSignatures)
	for i, ix := range tx.Message.Instructions {
		program := "?"
		if int(ix.ProgramIDIndex) < len(tx.Message.AccountKeys) {
			program = tx.Message.AccountKeys[ix.ProgramIDIndex].String()
		}
		fmt.Printf("instruction %d: program=%s data=%d bytes\n", i, program, len(ix.Data))
	}
	return nil
}
