package integration

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizerFor(t *testing.T) {
	for _, code := range AllPlatformCodes() {
		n, ok := NormalizerFor(code)
		assert.True(t, ok, code.String())
		assert.Equal(t, code, n.Platform())
	}

	_, ok := NormalizerFor(PlatformCode("ETSY"))
	assert.False(t, ok)
}

func TestParsePrice(t *testing.T) {
	d, ok := ParsePrice("1299.00")
	assert.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("1299")))

	d, ok = ParsePrice(" 45.50 ")
	assert.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("45.5")))

	_, ok = ParsePrice("")
	assert.False(t, ok)

	_, ok = ParsePrice("n/a")
	assert.False(t, ok)
}

func TestReverbNormalizer_Status(t *testing.T) {
	n, _ := NormalizerFor(PlatformCodeReverb)

	assert.Equal(t, StatusLive, n.Status(RemoteListing{RawStatus: "live"}))
	assert.Equal(t, StatusEnded, n.Status(RemoteListing{Fields: map[string]string{"state": "ended"}}))
	assert.Equal(t, StatusUnknown, n.Status(RemoteListing{}))
}

func TestShopifyNormalizer_Price(t *testing.T) {
	n, _ := NormalizerFor(PlatformCodeShopify)

	price := n.Price(RemoteListing{Price: decimal.NullDecimal{Decimal: decimal.NewFromInt(100), Valid: true}})
	assert.True(t, price.Valid)

	price = n.Price(RemoteListing{Fields: map[string]string{"variant_price": "250.00"}})
	assert.True(t, price.Valid)
	assert.True(t, price.Decimal.Equal(decimal.NewFromInt(250)))

	price = n.Price(RemoteListing{Fields: map[string]string{"variant_price": "bad"}})
	assert.False(t, price.Valid)
}

func TestEbayNormalizer_Status(t *testing.T) {
	n, _ := NormalizerFor(PlatformCodeEbay)

	assert.Equal(t, StatusActive, n.Status(RemoteListing{Fields: map[string]string{"selling_state": "Active"}}))
	assert.Equal(t, StatusEnded, n.Status(RemoteListing{Fields: map[string]string{"selling_state": "EndedWithSales"}}))
}

func TestVintageAndRareNormalizer_Status(t *testing.T) {
	n, _ := NormalizerFor(PlatformCodeVintageAndRare)

	assert.Equal(t, StatusSold, n.Status(RemoteListing{Fields: map[string]string{"sold": "yes"}}))
	assert.Equal(t, StatusActive, n.Status(RemoteListing{Fields: map[string]string{"sold": "no", "status": "active"}}))
}
