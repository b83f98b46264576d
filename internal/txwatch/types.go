package txwatch

// Status mirrors the wallet transaction controller's lifecycle states.
type Status string

const (
	StatusUnapproved Status = "unapproved"
	StatusApproved   Status = "approved"
	StatusSigned     Status = "signed"
	StatusSubmitted  Status = "submitted"
	StatusConfirmed  Status = "confirmed"
	StatusFailed     Status = "failed"
	StatusDropped    Status = "dropped"
	StatusRejected   Status = "rejected"
)

// InFlight reports whether the transaction has been approved but not yet
// finalised.
func (s Status) InFlight() bool {
	return s == StatusApproved || s == StatusSigned || s == StatusSubmitted
}

// FailedLike reports whether the transaction terminated without confirming.
func (s Status) FailedLike() bool {
	return s == StatusFailed || s == StatusDropped
}

// Type tags the transaction intents this engine acts on. Any other tag is
// ignored.
type Type string

const (
	TypeRewardClaim Type = "rewardClaim"
	TypeConversion  Type = "stablecoinConversion"
)

// Params is the structural call payload of a transaction. Data carries
// ABI-encoded call bytes for claim transactions.
type Params struct {
	To    string `json:"to"`
	From  string `json:"from"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// Record is a read-only view of a wallet transaction. Records are owned by
// the external transaction controller; this package never mutates them.
type Record struct {
	ID       string `json:"id"`
	Status   Status `json:"status"`
	Type     Type   `json:"type"`
	TxParams Params `json:"txParams"`
	// SourceTokenSymbol is the payment-token metadata the controller
	// attaches to pending conversions. It may disappear once the
	// transaction leaves the pending pool.
	SourceTokenSymbol string `json:"sourceTokenSymbol,omitempty"`
}
