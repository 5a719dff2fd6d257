package actions

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// MemoProgramID is the SPL memo program (v2).
var MemoProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

// PostResponseFields are the inputs to CreatePostResponse.
type PostResponseFields struct {
	// Transaction is the assembled draft: instructions, fee payer, and a
	// recent blockhash, unsigned.
	Transaction *solana.Transaction

	// Message accompanies the transaction in the response.
	Message string
}

// CreatePostResponse serializes a transaction draft into the ActionPostResponse
// envelope. The draft must contain at least one instruction outside the memo
// program; wallets reject drafts whose only content is a memo, so providers
// satisfy the constraint by construction (e.g. prepending a compute budget
// instruction) and this check catches regressions.
func CreatePostResponse(fields PostResponseFields) (*ActionPostResponse, error) {
	tx := fields.Transaction
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}

	if err := requireNonMemoInstruction(tx); err != nil {
		return nil, err
	}

	// Pad the signature slots so the serialized form carries a placeholder
	// for every required signer. The client fills these in.
	if required := int(tx.Message.Header.NumRequiredSignatures); len(tx.Signatures) < required {
		sigs := make([]solana.Signature, required)
		copy(sigs, tx.Signatures)
		tx.Signatures = sigs
	}

	encoded, err := tx.ToBase64()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	return &ActionPostResponse{
		Transaction: encoded,
		Message:     fields.Message,
	}, nil
}

// requireNonMemoInstruction verifies the draft has at least one instruction
// whose program is not the memo program.
func requireNonMemoInstruction(tx *solana.Transaction) error {
	if len(tx.Message.Instructions) == 0 {
		return fmt.Errorf("transaction has no instructions")
	}

	for _, ix := range tx.Message.Instructions {
		idx := int(ix.ProgramIDIndex)
		if idx >= len(tx.Message.AccountKeys) {
			continue
		}
		if !tx.Message.AccountKeys[idx].Equals(MemoProgramID) {
			return nil
		}
	}

	return fmt.Errorf("transaction must contain at least one non-memo instruction")
}
