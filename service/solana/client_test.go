package solana

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRPCClient implements RPCClient for testing.
// Signature pages are scripted: each GetSignaturesForAddress call returns the
// next page, so tests can drive the paging loop deterministically.
type mockRPCClient struct {
	mu sync.Mutex

	pages        [][]*rpc.TransactionSignature
	sigErr       error
	transactions map[string]*rpc.GetTransactionResult
	txErr        error
	blockhash    solana.Hash
	blockhashErr error
	minBalance   uint64
	minBalErr    error

	sigCalls int
	txCalls  int
	befores  []solana.Signature
}

func (m *mockRPCClient) GetSignaturesForAddress(
	ctx context.Context,
	address solana.PublicKey,
	opts *rpc.GetSignaturesForAddressOpts,
) ([]*rpc.TransactionSignature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sigErr != nil {
		return nil, m.sigErr
	}

	m.befores = append(m.befores, opts.Before)

	call := m.sigCalls
	m.sigCalls++
	if call >= len(m.pages) {
		return nil, nil
	}
	return m.pages[call], nil
}

func (m *mockRPCClient) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetTransactionOpts,
) (*rpc.GetTransactionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txCalls++
	if m.txErr != nil {
		return nil, m.txErr
	}
	if m.transactions == nil {
		return nil, nil
	}
	return m.transactions[signature.String()], nil
}

func (m *mockRPCClient) GetLatestBlockhash(
	ctx context.Context,
	commitment rpc.CommitmentType,
) (*rpc.GetLatestBlockhashResult, error) {
	if m.blockhashErr != nil {
		return nil, m.blockhashErr
	}
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: m.blockhash},
	}, nil
}

func (m *mockRPCClient) GetMinimumBalanceForRentExemption(
	ctx context.Context,
	dataSize uint64,
	commitment rpc.CommitmentType,
) (uint64, error) {
	if m.minBalErr != nil {
		return 0, m.minBalErr
	}
	return m.minBalance, nil
}

func newTestClient(mock *mockRPCClient, now time.Time) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient(mock, "test", nil, logger)
	client.now = func() time.Time { return now }
	return client
}

func testSig(i byte) solana.Signature {
	var sig solana.Signature
	sig[0] = i
	return sig
}

func sigEntry(i byte, blockTime *time.Time) *rpc.TransactionSignature {
	entry := &rpc.TransactionSignature{Signature: testSig(i)}
	if blockTime != nil {
		ts := solana.UnixTimeSeconds(blockTime.Unix())
		entry.BlockTime = &ts
	}
	return entry
}

func txWithLogs(logs ...string) *rpc.GetTransactionResult {
	return &rpc.GetTransactionResult{
		Meta: &rpc.TransactionMeta{LogMessages: logs},
	}
}

func TestFindLogMarker_EmptyHistory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	mock := &mockRPCClient{
		pages: [][]*rpc.TransactionSignature{{}},
	}
	client := newTestClient(mock, now)

	found, err := client.FindLogMarker(ctx, ScanParams{
		Address:  solana.MustPublicKeyFromBase58("11111111111111111111111111111111"),
		Marker:   "gm",
		Window:   24 * time.Hour,
		PageSize: 10,
	})

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, mock.sigCalls)
	assert.Equal(t, 0, mock.txCalls, "no transactions should be fetched for an empty history")
}

func TestFindLogMarker_Found(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)

	recent := now.Add(-time.Hour)
	mock := &mockRPCClient{
		pages: [][]*rpc.TransactionSignature{
			{
				sigEntry(1, &recent),
				sigEntry(2, &cutoff),
			},
		},
		transactions: map[string]*rpc.GetTransactionResult{
			testSig(1).String(): txWithLogs("Program log: something else"),
			testSig(2).String(): txWithLogs("Program log: gm fren"),
		},
	}
	client := newTestClient(mock, now)

	found, err := client.FindLogMarker(ctx, ScanParams{
		Address:  solana.MustPublicKeyFromBase58("11111111111111111111111111111111"),
		Marker:   "gm",
		Window:   24 * time.Hour,
		PageSize: 10,
	})

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, mock.sigCalls, "paging should stop once the window boundary is reached")
}

func TestFindLogMarker_NotFound(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)

	mock := &mockRPCClient{
		pages: [][]*rpc.TransactionSignature{
			{sigEntry(1, &cutoff)},
		},
		transactions: map[string]*rpc.GetTransactionResult{
			testSig(1).String(): txWithLogs("Program log: gn"),
		},
	}
	client := newTestClient(mock, now)

	found, err := client.FindLogMarker(ctx, ScanParams{
		Address:  solana.MustPublicKeyFromBase58("11111111111111111111111111111111"),
		Marker:   "gm",
		Window:   24 * time.Hour,
		PageSize: 10,
	})

	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindLogMarker_StopsAtWindowBoundary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)

	older := cutoff.Add(-time.Hour)
	mock := &mockRPCClient{
		pages: [][]*rpc.TransactionSignature{
			// Oldest entry lands exactly on the window start.
			{sigEntry(1, &cutoff)},
			// A second page exists but must never be requested.
			{sigEntry(2, &older)},
		},
		transactions: map[string]*rpc.GetTransactionResult{
			testSig(1).String(): txWithLogs("Program log: nothing"),
			testSig(2).String(): txWithLogs("Program log: gm"),
		},
	}
	client := newTestClient(mock, now)

	found, err := client.FindLogMarker(ctx, ScanParams{
		Address:  solana.MustPublicKeyFromBase58("11111111111111111111111111111111"),
		Marker:   "gm",
		Window:   24 * time.Hour,
		PageSize: 1,
	})

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, mock.sigCalls)
	assert.Equal(t, 1, mock.txCalls)
}

func TestFindLogMarker_MissingBlockTimeKeepsPaging(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	mock := &mockRPCClient{
		pages: [][]*rpc.TransactionSignature{
			// No block time on the oldest entry: the walk must continue.
			{sigEntry(1, nil)},
			{},
		},
		transactions: map[string]*rpc.GetTransactionResult{
			testSig(1).String(): txWithLogs("Program log: gm"),
		},
	}
	client := newTestClient(mock, now)

	found, err := client.FindLogMarker(ctx, ScanParams{
		Address:  solana.MustPublicKeyFromBase58("11111111111111111111111111111111"),
		Marker:   "gm",
		Window:   24 * time.Hour,
		PageSize: 10,
	})

	require.NoError(t, err)
	assert.True(t, found)
	require.Equal(t, 2, mock.sigCalls)

	// The second page must be anchored before the first page's oldest entry.
	assert.Equal(t, solana.Signature{}, mock.befores[0])
	assert.Equal(t, testSig(1), mock.befores[1])
}

func TestFindLogMarker_MultiplePagesBatchedFetch(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)

	recent := now.Add(-time.Hour)
	mock := &mockRPCClient{
		pages: [][]*rpc.TransactionSignature{
			{sigEntry(1, &recent), sigEntry(2, &recent)},
			{sigEntry(3, &recent), sigEntry(4, &cutoff)},
		},
		transactions: map[string]*rpc.GetTransactionResult{
			testSig(1).String(): txWithLogs("Program log: a"),
			testSig(2).String(): txWithLogs("Program log: b"),
			testSig(3).String(): txWithLogs("Program log: c"),
			testSig(4).String(): txWithLogs("Program log: gm"),
		},
	}
	client := newTestClient(mock, now)

	found, err := client.FindLogMarker(ctx, ScanParams{
		Address:  solana.MustPublicKeyFromBase58("11111111111111111111111111111111"),
		Marker:   "gm",
		Window:   24 * time.Hour,
		PageSize: 2,
	})

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, mock.sigCalls)
	assert.Equal(t, 4, mock.txCalls)
}

func TestFindLogMarker_NilTransactionSkipped(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)

	mock := &mockRPCClient{
		pages: [][]*rpc.TransactionSignature{
			{sigEntry(1, &cutoff)},
		},
		// No transaction record for sig 1: the scan tolerates it.
	}
	client := newTestClient(mock, now)

	found, err := client.FindLogMarker(ctx, ScanParams{
		Address:  solana.MustPublicKeyFromBase58("11111111111111111111111111111111"),
		Marker:   "gm",
		Window:   24 * time.Hour,
		PageSize: 10,
	})

	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindLogMarker_SignatureError(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	mock := &mockRPCClient{sigErr: assert.AnError}
	client := newTestClient(mock, now)

	found, err := client.FindLogMarker(ctx, ScanParams{
		Address:  solana.MustPublicKeyFromBase58("11111111111111111111111111111111"),
		Marker:   "gm",
		Window:   24 * time.Hour,
		PageSize: 10,
	})

	require.Error(t, err)
	assert.False(t, found)
}

func TestFindLogMarker_TransactionError(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)

	mock := &mockRPCClient{
		pages: [][]*rpc.TransactionSignature{
			{sigEntry(1, &cutoff)},
		},
		txErr: assert.AnError,
	}
	client := newTestClient(mock, now)

	found, err := client.FindLogMarker(ctx, ScanParams{
		Address:  solana.MustPublicKeyFromBase58("11111111111111111111111111111111"),
		Marker:   "gm",
		Window:   24 * time.Hour,
		PageSize: 10,
	})

	require.Error(t, err)
	assert.False(t, found)
}

func TestLatestBlockhash(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	var hash solana.Hash
	hash[0] = 7

	mock := &mockRPCClient{blockhash: hash}
	client := newTestClient(mock, now)

	got, err := client.LatestBlockhash(ctx)
	require.NoError(t, err)
	assert.Equal(t, hash, got)
}

func TestLatestBlockhash_Error(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	mock := &mockRPCClient{blockhashErr: assert.AnError}
	client := newTestClient(mock, now)

	_, err := client.LatestBlockhash(ctx)
	require.Error(t, err)
}

func TestMinimumBalanceForRentExemption(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	mock := &mockRPCClient{minBalance: 890880}
	client := newTestClient(mock, now)

	got, err := client.MinimumBalanceForRentExemption(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(890880), got)

	mock = &mockRPCClient{minBalErr: assert.AnError}
	client = newTestClient(mock, now)

	_, err = client.MinimumBalanceForRentExemption(ctx, 0)
	require.Error(t, err)
}
