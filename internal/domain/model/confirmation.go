package model

// ConfirmationKind classifies a pending mobile confirmation.
type ConfirmationKind string

const (
	ConfirmationGeneric    ConfirmationKind = "generic"
	ConfirmationTrade      ConfirmationKind = "trade"
	ConfirmationMarketSale ConfirmationKind = "market_sale"
	ConfirmationUnknown    ConfirmationKind = "unknown"
)

// ConfirmationKindFromType maps the raw wire discriminant to a
// ConfirmationKind. The mapping is total: every integer classifies,
// unrecognized values classify as ConfirmationUnknown.
func ConfirmationKindFromType(raw int) ConfirmationKind {
	switch raw {
	case 1:
		return ConfirmationGeneric
	case 2:
		return ConfirmationTrade
	case 3:
		return ConfirmationMarketSale
	default:
		return ConfirmationUnknown
	}
}

// Confirmation describes one pending mobile confirmation as listed by the
// remote service.
type Confirmation struct {
	ID        uint64
	Nonce     string // Action key required to accept or deny the confirmation.
	CreatorID uint64 // Identifier of the transaction that created the confirmation.
	Kind      ConfirmationKind
}

// NewConfirmation builds a Confirmation from the raw wire fields, classifying
// the integer type discriminant. Construction never fails.
func NewConfirmation(id uint64, nonce string, creatorID uint64, rawType int) Confirmation {
	return Confirmation{
		ID:        id,
		Nonce:     nonce,
		CreatorID: creatorID,
		Kind:      ConfirmationKindFromType(rawType),
	}
}
