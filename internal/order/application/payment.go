package application

import (
	"context"
	"strings"

	"github.com/artmarket/exchange/internal/order/domain"
)

const (
	chargeDescriptionSuffix = " via Exchange"
	chargeDescriptionRunes  = 12

	saleTypeAuction = "auction-bn"
	saleTypeBuyNow  = "bn-mo"
)

// ChargeParams is everything the payment service needs for one charge.
type ChargeParams struct {
	CreditCard        domain.CreditCard
	MerchantAccount   domain.MerchantAccount
	BuyerAmountCents  int64
	SellerAmountCents int64
	CurrencyCode      string
	Description       string
	Metadata          map[string]string
	Capture           bool
}

// PaymentProcessor builds charge parameters and submits the charge. A
// declined charge comes back as a failed Transaction; the orchestrator
// inspects the status and decides whether to compensate and notify.
type PaymentProcessor struct {
	payments PaymentService
}

func NewPaymentProcessor(payments PaymentService) *PaymentProcessor {
	return &PaymentProcessor{payments: payments}
}

func (p *PaymentProcessor) Charge(ctx context.Context, o *domain.Order, card domain.CreditCard, merchant domain.MerchantAccount, partner domain.Partner, capture bool) (domain.Transaction, error) {
	params := ChargeParams{
		CreditCard:        card,
		MerchantAccount:   merchant,
		BuyerAmountCents:  o.BuyerTotalCents,
		SellerAmountCents: o.SellerTotalCents,
		CurrencyCode:      o.CurrencyCode,
		Description:       chargeDescription(partner.Name),
		Metadata:          chargeMetadata(o),
		Capture:           capture,
	}
	txn, err := p.payments.Charge(ctx, params)
	if err != nil {
		return domain.Transaction{}, err
	}
	txn.OrderID = o.ID
	return txn, nil
}

func chargeMetadata(o *domain.Order) map[string]string {
	saleType := saleTypeBuyNow
	if o.AuctionSeller() {
		saleType = saleTypeAuction
	}
	return map[string]string{
		"exchange_order_id": o.ID,
		"buyer_id":          o.BuyerID,
		"buyer_type":        o.BuyerType,
		"seller_id":         o.SellerID,
		"seller_type":       o.SellerType,
		"type":              saleType,
	}
}

// chargeDescription renders the partner name as a short display-safe token:
// parameterized, truncated to 12 runes, upper-cased, with the marketing tag.
func chargeDescription(partnerName string) string {
	token := []rune(parameterize(partnerName))
	if len(token) > chargeDescriptionRunes {
		token = token[:chargeDescriptionRunes]
	}
	return strings.ToUpper(string(token)) + chargeDescriptionSuffix
}

// parameterize lowercases, folds Latin diacritics to ASCII, and collapses
// every remaining non-alphanumeric run into a single dash, trimming dashes
// from both ends.
func parameterize(s string) string {
	var b strings.Builder
	dash := false
	write := func(r rune) {
		if dash && b.Len() > 0 {
			b.WriteByte('-')
		}
		dash = false
		b.WriteRune(r)
	}
	for _, r := range strings.ToLower(s) {
		if folded, ok := asciiFold[r]; ok {
			for _, fr := range folded {
				write(fr)
			}
			continue
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			write(r)
		default:
			dash = true
		}
	}
	return b.String()
}

// asciiFold covers the Latin-1 letters that show up in partner names.
var asciiFold = map[rune]string{
	'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'ä': "a", 'å': "a",
	'æ': "ae", 'ç': "c", 'ð': "d",
	'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i",
	'ñ': "n",
	'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ö': "o", 'ø': "o",
	'œ': "oe", 'ß': "ss",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u",
	'ý': "y", 'ÿ': "y",
}
