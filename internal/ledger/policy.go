package ledger

import "github.com/dipandhali2021/jims-sub002/internal/models"

// BalancePolicy captures everything that differs between the two
// counterparty kinds: document prefixes and the sign a payment
// contributes to the balance. Vyapari payments add, Karigar payments
// subtract; the asymmetry is intentional khata semantics.
type BalancePolicy struct {
	Kind      string
	TxnPrefix string // transaction document prefix, e.g. "KT"
	PayPrefix string // payment document prefix, e.g. "KP"
	paySign   int64
}

var (
	vyapariPolicy = BalancePolicy{Kind: models.KindVyapari, TxnPrefix: "VT", PayPrefix: "VP", paySign: +1}
	karigarPolicy = BalancePolicy{Kind: models.KindKarigar, TxnPrefix: "KT", PayPrefix: "KP", paySign: -1}
)

// PolicyFor returns the balance policy for a counterparty kind.
func PolicyFor(kind string) (BalancePolicy, error) {
	switch kind {
	case models.KindVyapari:
		return vyapariPolicy, nil
	case models.KindKarigar:
		return karigarPolicy, nil
	}
	return BalancePolicy{}, ErrInvalidKind
}

// Balance combines approved transaction and payment totals.
// Positive result = we owe the counterparty.
func (p BalancePolicy) Balance(txnTotal, payTotal int64) int64 {
	return txnTotal + p.paySign*payTotal
}
