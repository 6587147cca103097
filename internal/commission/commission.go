// Package commission computes the master/subordinate commission percentages
// for a split PIX payment, reconciling the configured raw percentages with
// discount and coupon adjustments applied after the split was configured.
package commission

import "math"

// OrderValues are the monetary figures of the order being split.
type OrderValues struct {
	ItemsTotal     float64
	TotalDiscount  float64
	CouponDiscount float64
}

// Percentages are the master/subordinate shares of the customer-paid value.
// They always sum to 100 for valid inputs.
type Percentages struct {
	Master      float64
	Subordinate float64
}

// Calculate returns the commission percentages to apply to the customer-paid
// value. Coupons that only affect shipping never alter the merchandise split,
// so raw percentages are returned unchanged for them and for orders without a
// coupon.
//
// With a coupon, the consultant's gross commission is computed over the items
// total net of brand promotions (but gross of the coupon), then the coupon
// cost is charged against it: half when the coupon is shared between
// consultant and platform, the whole amount when it is the consultant's own.
// Both net shares are re-expressed as percentages of what the customer
// actually paid, so master + subordinate is always 100%.
//
// Discount magnitudes are normalized with absolute value; the sign under
// which they were stored does not affect the result. When the customer paid
// nothing the raw percentages are returned unchanged.
func Calculate(values OrderValues, raw Percentages, sharedCoupon, freeShippingCoupon bool) Percentages {
	couponAmount := math.Abs(values.CouponDiscount)
	if couponAmount == 0 || freeShippingCoupon {
		return raw
	}

	totalDiscount := math.Abs(values.TotalDiscount)
	customerPaid := values.ItemsTotal - totalDiscount
	if customerPaid <= 0 {
		return raw
	}

	brandDiscount := totalDiscount - couponAmount
	consultantBase := values.ItemsTotal - brandDiscount
	consultantGross := raw.Subordinate / 100 * consultantBase

	couponCharge := couponAmount
	if sharedCoupon {
		couponCharge = couponAmount / 2
	}
	consultantNet := consultantGross - couponCharge
	masterNet := customerPaid - consultantNet

	return Percentages{
		Master:      masterNet / customerPaid * 100,
		Subordinate: consultantNet / customerPaid * 100,
	}
}
