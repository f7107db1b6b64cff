package ledger

import "errors"

// Sentinel errors returned by the ledger and cascade packages.
// Handlers translate these to HTTP statuses.
var (
	ErrNotFound        = errors.New("record not found")
	ErrAlreadyApproved = errors.New("already approved")
	ErrNotApproved     = errors.New("counterparty not approved")
	ErrInvalidKind     = errors.New("invalid counterparty kind")
)
