package validator

import (
	"regexp"
	"strconv"
	"strings"

	checkout "storefront/internal/usecase/checkout_usecase"
)

var (
	expiryPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

// 支払いフォームの検査。保存もログもしない
type paymentValidator struct {
	clock checkout.Clock
}

func NewPaymentValidator(clock checkout.Clock) checkout.PaymentValidator {
	if clock == nil {
		clock = checkout.SystemClock{}
	}
	return &paymentValidator{clock: clock}
}

// 名前はtrim、カード番号とCVVは数字以外を落とす
func NormalizePayment(p checkout.PaymentFields) checkout.PaymentFields {
	return checkout.PaymentFields{
		Name:       strings.TrimSpace(p.Name),
		CardNumber: digitsOnly(p.CardNumber),
		Expiry:     strings.TrimSpace(p.Expiry),
		CVV:        digitsOnly(p.CVV),
	}
}

// 順番固定。最初の失敗だけ返す
func (v *paymentValidator) Validate(in checkout.PaymentFields) error {
	p := NormalizePayment(in)

	if p.Name == "" || p.CardNumber == "" || p.Expiry == "" || p.CVV == "" {
		return checkout.NewError(checkout.KindMissingPaymentField, "", nil)
	}

	year, month, ok := parseExpiry(p.Expiry)
	if !ok {
		return checkout.NewError(checkout.KindInvalidExpiryFormat, "", nil)
	}
	now := v.clock.Now()
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return checkout.NewError(checkout.KindExpiredCard, "", nil)
	}

	if !cvvPattern.MatchString(p.CVV) {
		return checkout.NewError(checkout.KindInvalidCvv, "", nil)
	}

	if !LuhnValid(p.CardNumber) {
		return checkout.NewError(checkout.KindInvalidCardNumber, "", nil)
	}
	return nil
}

// YYYY-MM（月は1..12）
func parseExpiry(s string) (int, int, bool) {
	m := expiryPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(m[2])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
