package events

import (
	"time"
)

// ActionEvent is published after a provider successfully builds an unsigned
// transaction, to the subject "actions.{provider}". Consumers use it for
// auditing and dashboards; nothing in the request path depends on it.
type ActionEvent struct {
	// Provider is the action that built the transaction ("memo" or "transfer").
	Provider string `json:"provider"`

	// Account is the fee-payer supplied by the caller.
	Account string `json:"account"`

	// Message is the confirmation message returned to the caller.
	Message string `json:"message"`

	// MemoPayload is set by the memo provider.
	MemoPayload string `json:"memo_payload,omitempty"`

	// To and Lamports are set by the transfer provider.
	To       string `json:"to,omitempty"`
	Lamports uint64 `json:"lamports,omitempty"`

	// BuiltAt is when the transaction draft was assembled.
	BuiltAt time.Time `json:"built_at"`
}
