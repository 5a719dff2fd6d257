package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/solbound/actiond/service/actions"
	"github.com/solbound/actiond/service/config"
	"github.com/solbound/actiond/service/events"
	"github.com/solbound/actiond/service/metrics"
	"github.com/solbound/actiond/service/solana"
)

// handleTransferGet returns the transfer action's metadata: three preset
// amounts plus a free-form amount input, all targeting the validated (or
// default) destination.
// GET /api/actions/transfer-sol
func handleTransferGet(cfg *config.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := parseTransferQuery(r.URL, cfg.Transfer)
		if err != nil {
			writeActionError(w, logger, err)
			return
		}

		origin := requestOrigin(r)
		base := origin + transferActionPath
		to := params.To.String()

		resp := actions.ActionGetResponse{
			Title:       "Transfer SOL",
			Icon:        origin + "/icon.svg",
			Description: "Send SOL to another Solana wallet",
			Label:       "Send SOL",
			Links: &actions.ActionLinks{
				Actions: []actions.LinkedAction{
					{Label: "Send 1 SOL", Href: fmt.Sprintf("%s?to=%s&amount=1", base, to)},
					{Label: "Send 5 SOL", Href: fmt.Sprintf("%s?to=%s&amount=5", base, to)},
					{Label: "Send 10 SOL", Href: fmt.Sprintf("%s?to=%s&amount=10", base, to)},
					{
						Label: "Send SOL",
						Href:  fmt.Sprintf("%s?to=%s&amount={amount}", base, to),
						Parameters: []actions.ActionParameter{
							{Name: "amount", Label: "Enter the amount of SOL to send", Required: true},
						},
					},
				},
			},
		}

		logger.Debug("served transfer action metadata", "to", to)
		writeJSON(w, resp, http.StatusOK)
	})
}

// handleTransferPost builds an unsigned SOL transfer from the caller to the
// destination, after checking the amount clears the destination's
// rent-exemption floor.
// POST /api/actions/transfer-sol
func handleTransferPost(cfg *config.Config, chain *solana.Client, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := parseTransferQuery(r.URL, cfg.Transfer)
		if err != nil {
			writeActionError(w, logger, err)
			return
		}

		account, err := decodePostRequest(w, r)
		if err != nil {
			writeActionError(w, logger, err)
			return
		}

		// A transfer below the zero-byte rent-exemption floor would leave
		// the destination subject to reclamation.
		minBalance, err := chain.MinimumBalanceForRentExemption(r.Context(), 0)
		if err != nil {
			if m != nil {
				m.RecordTransactionBuilt("transfer", "error")
			}
			writeActionError(w, logger, actions.Upstreamf(err, "failed to fetch rent exemption minimum"))
			return
		}

		lamports := uint64(params.Amount * float64(solanago.LAMPORTS_PER_SOL))
		if lamports < minBalance {
			if m != nil {
				m.RecordTransactionBuilt("transfer", "rejected")
			}
			writeActionError(w, logger, actions.Preconditionf("account may not be rent exempt: %s", params.To))
			return
		}

		blockhash, err := chain.LatestBlockhash(r.Context())
		if err != nil {
			if m != nil {
				m.RecordTransactionBuilt("transfer", "error")
			}
			writeActionError(w, logger, actions.Upstreamf(err, "failed to fetch latest blockhash"))
			return
		}

		transferIx := system.NewTransferInstruction(lamports, account, params.To).Build()

		tx, err := solanago.NewTransaction(
			[]solanago.Instruction{transferIx},
			blockhash,
			solanago.TransactionPayer(account),
		)
		if err != nil {
			if m != nil {
				m.RecordTransactionBuilt("transfer", "error")
			}
			writeActionError(w, logger, actions.Internalf(err, "failed to build transaction"))
			return
		}

		resp, err := actions.CreatePostResponse(actions.PostResponseFields{
			Transaction: tx,
			Message:     fmt.Sprintf("Send %s SOL to %s", formatAmount(params.Amount), params.To),
		})
		if err != nil {
			if m != nil {
				m.RecordTransactionBuilt("transfer", "error")
			}
			writeActionError(w, logger, actions.Internalf(err, "failed to serialize transaction"))
			return
		}

		if m != nil {
			m.RecordTransactionBuilt("transfer", "success")
		}

		if publisher != nil {
			event := &events.ActionEvent{
				Provider: "transfer",
				Account:  account.String(),
				Message:  resp.Message,
				To:       params.To.String(),
				Lamports: lamports,
				BuiltAt:  time.Now(),
			}
			if err := publisher.PublishActionEvent(r.Context(), event); err != nil {
				logger.Error("failed to publish action event", "provider", "transfer", "error", err)
			}
		}

		logger.Info("built transfer transaction",
			"account", account.String(),
			"to", params.To.String(),
			"lamports", lamports,
		)
		writeJSON(w, resp, http.StatusOK)
	})
}

// formatAmount renders a SOL amount the way it was supplied: no trailing
// zeros, so 1 renders as "1" rather than "1.000000".
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
