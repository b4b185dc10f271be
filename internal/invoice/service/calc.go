package service

import (
	invoicedomain "github.com/indigobills/indigobills/internal/invoice/domain"
)

// ComputeLine prices one invoice line. Pure; no I/O.
//
// weightKg = numBags * bagWeight, bagWeight defaulting when the item
// does not carry one. A present per-bag rate selects per-bag pricing
// (even at rate zero); otherwise the per-kg rate applies, defaulting to
// zero. Missing numeric input degrades to a zero-amount line rather
// than failing the invoice.
func ComputeLine(in invoicedomain.ItemInput, defaultBagWeightKg float64) (weightKg, amount float64) {
	bagWeight := in.BagWeightKg
	if bagWeight <= 0 {
		bagWeight = defaultBagWeightKg
	}

	weightKg = in.NumBags * bagWeight

	if in.RatePerBag != nil {
		amount = *in.RatePerBag * in.NumBags
		return weightKg, amount
	}

	var ratePerKg float64
	if in.RatePerKg != nil {
		ratePerKg = *in.RatePerKg
	}
	amount = ratePerKg * weightKg
	return weightKg, amount
}
