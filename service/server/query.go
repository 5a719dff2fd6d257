package server

import (
	"math"
	"net/url"
	"strconv"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/solbound/actiond/service/actions"
	"github.com/solbound/actiond/service/config"
)

// transferParams are the validated query parameters of the transfer action.
type transferParams struct {
	To     solanago.PublicKey
	Amount float64
}

// parseTransferQuery validates the transfer action's optional query
// parameters, falling back to the configured defaults when absent. It is a
// pure function of the URL's query string. The error texts name the failing
// parameter; they are returned verbatim to the caller.
func parseTransferQuery(u *url.URL, cfg config.TransferConfig) (transferParams, error) {
	query := u.Query()

	// Defaults are validated at startup, so a parse failure here is a
	// programming error worth panicking over.
	params := transferParams{
		To:     solanago.MustPublicKeyFromBase58(cfg.DefaultTo),
		Amount: cfg.DefaultAmount,
	}

	if to := query.Get("to"); to != "" {
		pubkey, err := solanago.PublicKeyFromBase58(to)
		if err != nil {
			return transferParams{}, actions.Validationf(`Invalid input query parameter: "to"`)
		}
		params.To = pubkey
	}

	if amountStr := query.Get("amount"); amountStr != "" {
		// The upper bound keeps the lamport conversion in uint64 range;
		// anything above it would wrap and no longer match the response
		// message.
		amount, err := strconv.ParseFloat(amountStr, 64)
		if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 || amount > config.MaxTransferSOL {
			return transferParams{}, actions.Validationf(`Invalid input query parameter: "amount"`)
		}
		params.Amount = amount
	}

	return params, nil
}
