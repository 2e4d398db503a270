// Package fees derives the payable total for an accepted bid. Amounts are
// integer currency minor units throughout.
package fees

import (
	pkgerrors "github.com/swiftdropng/swiftdrop-backend/pkg/errors"
)

// ServiceFeeMinor is the fixed platform charge added to the accepted bid
// amount. It is part of the pricing contract shown to requesters before they
// accept a bid, so changing it only affects requests accepted afterwards.
const ServiceFeeMinor int64 = 1200

// TotalAmount returns bid amount plus the service fee. The result is persisted
// once at acceptance and never recomputed from live bid data.
func TotalAmount(bidAmountMinor int64) (int64, error) {
	if bidAmountMinor <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "bid amount must be positive")
	}
	return bidAmountMinor + ServiceFeeMinor, nil
}
