package server

import (
	"log/slog"
	"net/http"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"

	"github.com/solbound/actiond/service/actions"
	"github.com/solbound/actiond/service/config"
	"github.com/solbound/actiond/service/events"
	"github.com/solbound/actiond/service/metrics"
	"github.com/solbound/actiond/service/solana"
)

// handleMemoGet returns the memo action's metadata.
// GET /api/actions/memo
func handleMemoGet(cfg *config.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := requestOrigin(r)

		resp := actions.ActionGetResponse{
			Title:       "On-chain Memo",
			Icon:        origin + "/icon.svg",
			Description: "Post a short memo on-chain. The payload rotates when the previous one is found in recent history.",
			Label:       "Post Memo",
		}

		logger.Debug("served memo action metadata", "origin", origin)
		writeJSON(w, resp, http.StatusOK)
	})
}

// handleMemoPost builds an unsigned memo transaction for the caller account.
// The memo payload depends on a scan of the configured address's recent
// history: if the configured marker already appears in the scan window, the
// alternate marker is used instead.
// POST /api/actions/memo
func handleMemoPost(cfg *config.Config, chain *solana.Client, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	scanAddress := solanago.MustPublicKeyFromBase58(cfg.Memo.ScanAddress)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, err := decodePostRequest(w, r)
		if err != nil {
			writeActionError(w, logger, err)
			return
		}

		// A failed scan must not fail the request; fall back to the
		// original marker.
		found, err := chain.FindLogMarker(r.Context(), solana.ScanParams{
			Address:  scanAddress,
			Marker:   cfg.Memo.Marker,
			Window:   cfg.Memo.ScanWindow,
			PageSize: cfg.Memo.ScanPageSize,
		})
		if err != nil {
			logger.Warn("history scan failed, using default payload",
				"address", cfg.Memo.ScanAddress,
				"error", err,
			)
			found = false
		}

		payload := cfg.Memo.Marker
		if found {
			payload = cfg.Memo.AltMarker
		}

		blockhash, err := chain.LatestBlockhash(r.Context())
		if err != nil {
			if m != nil {
				m.RecordTransactionBuilt("memo", "error")
			}
			writeActionError(w, logger, actions.Upstreamf(err, "failed to fetch latest blockhash"))
			return
		}

		// The memo instruction alone would not satisfy the serialization
		// constraint; the compute budget instruction also doubles as the
		// priority fee.
		priorityFeeIx := computebudget.NewSetComputeUnitPriceInstruction(cfg.Memo.PriorityFeeMicroLamports).Build()
		memoIx := solanago.NewInstruction(actions.MemoProgramID, solanago.AccountMetaSlice{}, []byte(payload))

		tx, err := solanago.NewTransaction(
			[]solanago.Instruction{priorityFeeIx, memoIx},
			blockhash,
			solanago.TransactionPayer(account),
		)
		if err != nil {
			if m != nil {
				m.RecordTransactionBuilt("memo", "error")
			}
			writeActionError(w, logger, actions.Internalf(err, "failed to build transaction"))
			return
		}

		resp, err := actions.CreatePostResponse(actions.PostResponseFields{
			Transaction: tx,
			Message:     "Post this memo on-chain",
		})
		if err != nil {
			if m != nil {
				m.RecordTransactionBuilt("memo", "error")
			}
			writeActionError(w, logger, actions.Internalf(err, "failed to serialize transaction"))
			return
		}

		if m != nil {
			m.RecordTransactionBuilt("memo", "success")
		}

		if publisher != nil {
			event := &events.ActionEvent{
				Provider:    "memo",
				Account:     account.String(),
				Message:     resp.Message,
				MemoPayload: payload,
				BuiltAt:     time.Now(),
			}
			if err := publisher.PublishActionEvent(r.Context(), event); err != nil {
				logger.Error("failed to publish action event", "provider", "memo", "error", err)
			}
		}

		logger.Info("built memo transaction",
			"account", account.String(),
			"payload", payload,
			"marker_found", found,
		)
		writeJSON(w, resp, http.StatusOK)
	})
}
