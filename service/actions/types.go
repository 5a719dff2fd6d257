package actions

// ActionGetResponse is the metadata returned by an action's GET endpoint.
// Wallets render it as a card with an icon, a description, and either a
// single button (Label) or a set of linked sub-actions.
type ActionGetResponse struct {
	Title       string       `json:"title"`
	Icon        string       `json:"icon"`
	Description string       `json:"description"`
	Label       string       `json:"label"`
	Links       *ActionLinks `json:"links,omitempty"`
}

// ActionLinks groups the selectable sub-actions of an action.
type ActionLinks struct {
	Actions []LinkedAction `json:"actions"`
}

// LinkedAction is a single selectable sub-action. Href may contain named
// placeholders (e.g. "{amount}") that wallets substitute from Parameters.
type LinkedAction struct {
	Label      string            `json:"label"`
	Href       string            `json:"href"`
	Parameters []ActionParameter `json:"parameters,omitempty"`
}

// ActionParameter describes a named input the wallet collects from the user
// before following a parameterized href.
type ActionParameter struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// ActionPostRequest is the body of an action's POST endpoint.
type ActionPostRequest struct {
	// Account is the base58 public key that will pay fees and sign the
	// returned transaction client-side.
	Account string `json:"account"`
}

// ActionPostResponse carries the unsigned transaction back to the wallet.
type ActionPostResponse struct {
	// Transaction is the base64-encoded serialized transaction. It is not
	// signed by this service.
	Transaction string `json:"transaction"`

	// Message is a human-readable description of what signing will do.
	Message string `json:"message"`
}
