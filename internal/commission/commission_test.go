package commission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateNoCouponReturnsRawPercentages(t *testing.T) {
	raw := Percentages{Master: 80, Subordinate: 20}

	result := Calculate(OrderValues{ItemsTotal: 1000, TotalDiscount: 200}, raw, true, false)

	assert.Equal(t, raw, result)
}

func TestCalculateFreeShippingCouponReturnsRawPercentages(t *testing.T) {
	raw := Percentages{Master: 75, Subordinate: 25}
	values := OrderValues{ItemsTotal: 1000, TotalDiscount: 200, CouponDiscount: 100}

	result := Calculate(values, raw, true, true)

	assert.Equal(t, raw, result)
}

func TestCalculateSharedCoupon(t *testing.T) {
	// items 1000, discount 200, coupon 100, subordinate 20%:
	// brandDiscount=100, consultantBase=900, gross=180, net=180-50=130,
	// customerPaid=800 -> subordinate 16.25%, master 83.75%
	values := OrderValues{ItemsTotal: 1000, TotalDiscount: 200, CouponDiscount: 100}
	raw := Percentages{Master: 80, Subordinate: 20}

	result := Calculate(values, raw, true, false)

	assert.InDelta(t, 16.25, result.Subordinate, 1e-9)
	assert.InDelta(t, 83.75, result.Master, 1e-9)
}

func TestCalculateConsultantCoupon(t *testing.T) {
	// Same inputs, whole coupon charged to the consultant:
	// net=180-100=80, customerPaid=800 -> subordinate 10%, master 90%
	values := OrderValues{ItemsTotal: 1000, TotalDiscount: 200, CouponDiscount: 100}
	raw := Percentages{Master: 80, Subordinate: 20}

	result := Calculate(values, raw, false, false)

	assert.InDelta(t, 10.0, result.Subordinate, 1e-9)
	assert.InDelta(t, 90.0, result.Master, 1e-9)
}

func TestCalculatePercentagesSumToOneHundred(t *testing.T) {
	cases := []OrderValues{
		{ItemsTotal: 1000, TotalDiscount: 200, CouponDiscount: 100},
		{ItemsTotal: 550.50, TotalDiscount: 50.25, CouponDiscount: 30},
		{ItemsTotal: 99.99, TotalDiscount: 10, CouponDiscount: 10},
		{ItemsTotal: 12345.67, TotalDiscount: 345.67, CouponDiscount: 145.67},
	}
	raw := Percentages{Master: 82.5, Subordinate: 17.5}

	for _, values := range cases {
		for _, shared := range []bool{true, false} {
			result := Calculate(values, raw, shared, false)
			assert.InDelta(t, 100.0, result.Master+result.Subordinate, 1e-9,
				"items=%v shared=%v", values.ItemsTotal, shared)
		}
	}
}

func TestCalculateIgnoresDiscountSign(t *testing.T) {
	raw := Percentages{Master: 80, Subordinate: 20}
	positive := Calculate(OrderValues{ItemsTotal: 1000, TotalDiscount: 200, CouponDiscount: 100}, raw, true, false)
	negative := Calculate(OrderValues{ItemsTotal: 1000, TotalDiscount: -200, CouponDiscount: -100}, raw, true, false)

	assert.Equal(t, positive, negative)
}

func TestCalculateSharedCouponYieldsHigherConsultantShare(t *testing.T) {
	// Charging only half the coupon always leaves the consultant a strictly
	// larger net share than charging the whole coupon.
	values := OrderValues{ItemsTotal: 1000, TotalDiscount: 200, CouponDiscount: 100}
	raw := Percentages{Master: 80, Subordinate: 20}

	shared := Calculate(values, raw, true, false)
	consultantOwned := Calculate(values, raw, false, false)

	assert.Greater(t, shared.Subordinate, consultantOwned.Subordinate)
}

func TestCalculateZeroCustomerPaidFallsBackToRaw(t *testing.T) {
	raw := Percentages{Master: 80, Subordinate: 20}
	values := OrderValues{ItemsTotal: 100, TotalDiscount: 100, CouponDiscount: 100}

	result := Calculate(values, raw, true, false)

	assert.Equal(t, raw, result)
}
