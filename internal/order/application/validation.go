package application

import (
	"strconv"
	"strings"

	"github.com/artmarket/exchange/internal/order/domain"
)

// AssertChargeable verifies the credit card can be charged: it needs an
// external id, a customer external id, and no deactivation timestamp.
func AssertChargeable(card domain.CreditCard) error {
	if strings.TrimSpace(card.ExternalID) == "" {
		return domain.NewValidationError(domain.KindCreditCardMissingExternal, map[string]string{"credit_card_id": card.ID})
	}
	if strings.TrimSpace(card.CustomerAccount.ExternalID) == "" {
		return domain.NewValidationError(domain.KindCreditCardMissingCustomer, map[string]string{"credit_card_id": card.ID})
	}
	if card.DeactivatedAt != nil {
		return domain.NewValidationError(domain.KindCreditCardDeactivated, map[string]string{"credit_card_id": card.ID})
	}
	return nil
}

// AssertCommissionRate requires a non-blank, parseable effective commission
// rate on the partner and returns it as a fraction.
func AssertCommissionRate(partner domain.Partner) (float64, error) {
	raw := strings.TrimSpace(partner.EffectiveCommissionRate)
	if raw == "" {
		return 0, domain.NewValidationError(domain.KindMissingCommissionRate, map[string]string{"partner_id": partner.ID})
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.NewValidationError(domain.KindMissingCommissionRate, map[string]string{"partner_id": partner.ID})
	}
	return rate, nil
}

// CommissionRate is the lenient variant used where a missing rate is allowed,
// such as setting shipping on a pending order. Blank parses as zero.
func CommissionRate(partner domain.Partner) float64 {
	rate, err := AssertCommissionRate(partner)
	if err != nil {
		return 0
	}
	return rate
}
