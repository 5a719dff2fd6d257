package solana

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/sync/errgroup"

	"github.com/solbound/actiond/service/metrics"
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetSignaturesForAddress(
		ctx context.Context,
		address solana.PublicKey,
		opts *rpc.GetSignaturesForAddressOpts,
	) ([]*rpc.TransactionSignature, error)

	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)

	GetLatestBlockhash(
		ctx context.Context,
		commitment rpc.CommitmentType,
	) (*rpc.GetLatestBlockhashResult, error)

	GetMinimumBalanceForRentExemption(
		ctx context.Context,
		dataSize uint64,
		commitment rpc.CommitmentType,
	) (uint64, error)
}

// Client provides the domain-level Solana operations the action providers
// need: scanning recent history for a log marker, and fetching the network
// state referenced by new transaction drafts.
type Client struct {
	rpc      RPCClient
	logger   *slog.Logger
	metrics  *metrics.Metrics
	endpoint string // RPC endpoint identifier for metrics (e.g., "mainnet", "devnet", rpc host)
	now      func() time.Time
}

// NewClient creates a new Solana client.
// The endpoint parameter is used for metrics labeling (e.g., "mainnet", "devnet", or RPC hostname).
// If metrics is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		rpc:      rpcClient,
		logger:   logger,
		metrics:  m,
		endpoint: endpoint,
		now:      time.Now,
	}
}

// ScanParams contains parameters for a history scan.
type ScanParams struct {
	// Address whose signature history is walked.
	Address solana.PublicKey

	// Marker is matched as a substring against transaction log output.
	Marker string

	// Window bounds how far back the scan looks from now.
	Window time.Duration

	// PageSize is both the signature page size and the batch size for the
	// transaction fetch step.
	PageSize int
}

// FindLogMarker reports whether any transaction touching params.Address within
// the window has params.Marker in its log output.
//
// It pages backward through the address's signature history, newest first,
// each page anchored before the previous page's oldest signature. Paging
// stops on an empty page or once the oldest signature of a page has a block
// time at or before the window start; a page whose oldest signature lacks a
// block time never stops the walk. The accumulated signatures are then
// fetched in PageSize batches (concurrently, since the batches are
// independent reads) and their log messages searched for the marker.
//
// Any RPC failure aborts the scan and is returned to the caller; callers
// that can tolerate a failed scan supply their own fallback.
func (c *Client) FindLogMarker(ctx context.Context, params ScanParams) (bool, error) {
	start := c.now()
	cutoff := start.Add(-params.Window)

	sigs, pages, err := c.collectSignatures(ctx, params, cutoff)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordHistoryScan(params.Address.String(), "error", pages, time.Since(start).Seconds())
		}
		return false, err
	}

	c.logger.DebugContext(ctx, "collected signatures for scan",
		"address", params.Address.String(),
		"count", len(sigs),
		"pages", pages,
	)

	found, err := c.scanBatches(ctx, params, sigs)

	outcome := "not_found"
	if err != nil {
		outcome = "error"
	} else if found {
		outcome = "found"
	}
	if c.metrics != nil {
		c.metrics.RecordHistoryScan(params.Address.String(), outcome, pages, time.Since(start).Seconds())
	}
	if err != nil {
		return false, err
	}

	c.logger.InfoContext(ctx, "history scan complete",
		"address", params.Address.String(),
		"marker_found", found,
		"signatures", len(sigs),
	)

	return found, nil
}

// collectSignatures walks the signature history newest-first until the window
// boundary is crossed or the history is exhausted.
func (c *Client) collectSignatures(
	ctx context.Context,
	params ScanParams,
	cutoff time.Time,
) ([]*rpc.TransactionSignature, int, error) {
	var sigs []*rpc.TransactionSignature
	var before solana.Signature
	havePrev := false
	pages := 0

	for {
		limit := params.PageSize
		opts := &rpc.GetSignaturesForAddressOpts{Limit: &limit}
		if havePrev {
			opts.Before = before
		}

		callStart := time.Now()
		page, err := c.rpc.GetSignaturesForAddress(ctx, params.Address, opts)
		duration := time.Since(callStart).Seconds()

		status := "success"
		if err != nil {
			status = "error"
			c.logger.ErrorContext(ctx, "failed to get signatures",
				"address", params.Address.String(),
				"error", err,
			)
		}
		if c.metrics != nil {
			c.metrics.RecordRPCCall("GetSignaturesForAddress", status, c.endpoint, duration)
			if err == nil {
				c.metrics.RecordRPCSignaturesPerCall(c.endpoint, float64(len(page)))
			}
		}
		if err != nil {
			return nil, pages, fmt.Errorf("failed to get signatures for %s: %w", params.Address, err)
		}

		pages++
		if len(page) == 0 {
			break
		}

		sigs = append(sigs, page...)

		oldest := page[len(page)-1]
		before = oldest.Signature
		havePrev = true

		// A missing block time means the node has not resolved the slot
		// timestamp; keep paging rather than assume we crossed the window.
		if oldest.BlockTime != nil && !oldest.BlockTime.Time().After(cutoff) {
			break
		}
	}

	return sigs, pages, nil
}

// scanBatches fetches full transaction records for the signatures in
// PageSize batches and searches their logs for the marker. Batches are
// independent reads, so they are fetched concurrently.
func (c *Client) scanBatches(ctx context.Context, params ScanParams, sigs []*rpc.TransactionSignature) (bool, error) {
	if len(sigs) == 0 {
		return false, nil
	}

	numBatches := (len(sigs) + params.PageSize - 1) / params.PageSize
	matched := make([]bool, numBatches)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numBatches; i++ {
		lo := i * params.PageSize
		hi := min(lo+params.PageSize, len(sigs))
		batch := sigs[lo:hi]
		idx := i

		g.Go(func() error {
			for _, sig := range batch {
				result, err := c.getTransaction(gctx, sig.Signature)
				if err != nil {
					return err
				}
				if result == nil || result.Meta == nil {
					continue
				}
				for _, line := range result.Meta.LogMessages {
					if strings.Contains(line, params.Marker) {
						matched[idx] = true
						return nil
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return false, err
	}

	for _, m := range matched {
		if m {
			return true, nil
		}
	}
	return false, nil
}

// getTransaction fetches a full transaction record, tolerating any
// transaction version.
func (c *Client) getTransaction(ctx context.Context, sig solana.Signature) (*rpc.GetTransactionResult, error) {
	maxVersion := uint64(0)
	opts := &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: &maxVersion,
	}

	callStart := time.Now()
	result, err := c.rpc.GetTransaction(ctx, sig, opts)
	duration := time.Since(callStart).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("GetTransaction", status, c.endpoint, duration)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", sig, err)
	}

	return result, nil
}

// LatestBlockhash fetches the blockhash new transaction drafts reference.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	callStart := time.Now()
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	duration := time.Since(callStart).Seconds()

	status := "success"
	if err != nil {
		status = "error"
		c.logger.ErrorContext(ctx, "failed to get latest blockhash", "error", err)
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("GetLatestBlockhash", status, c.endpoint, duration)
	}
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	return out.Value.Blockhash, nil
}

// MinimumBalanceForRentExemption returns the lamport floor for an account of
// the given size to be exempt from rent collection.
func (c *Client) MinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	callStart := time.Now()
	lamports, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, dataSize, rpc.CommitmentFinalized)
	duration := time.Since(callStart).Seconds()

	status := "success"
	if err != nil {
		status = "error"
		c.logger.ErrorContext(ctx, "failed to get rent exemption minimum", "data_size", dataSize, "error", err)
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("GetMinimumBalanceForRentExemption", status, c.endpoint, duration)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rent exemption minimum: %w", err)
	}

	return lamports, nil
}
