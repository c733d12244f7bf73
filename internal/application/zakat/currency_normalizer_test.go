package zakat

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

func TestCurrencyNormalizer_Normalize(t *testing.T) {
	rates := new(MockCurrencyRateSource)
	rates.On("Rate", mock.Anything, "SAR", "USD").Return(dec("0.2666"), nil).Once()
	rates.On("Rate", mock.Anything, "MYR", "USD").Return(dec("0.21"), nil).Once()

	n := NewCurrencyNormalizer(rates, "")
	assert.Equal(t, "USD", n.BaseCurrency())

	in := []zakat.Asset{cash("1000", "SAR"), cash("100", "MYR"), cash("50", "SAR"), cash("5", "USD")}
	out := n.Normalize(context.Background(), in)

	rates.AssertExpectations(t)
	assert.True(t, out[0].Value.Equal(dec("266.6")))
	assert.True(t, out[1].Value.Equal(dec("21")))
	assert.True(t, out[2].Value.Equal(dec("13.33")))
	assert.True(t, out[3].Value.Equal(dec("5")))
	for _, a := range out {
		assert.Equal(t, "USD", a.Currency)
	}
	assert.Equal(t, "SAR", out[0].OriginalCurrency)
	assert.True(t, out[0].OriginalValue.Equal(dec("1000")))

	assert.Equal(t, "SAR", in[0].Currency, "input must not be mutated")
	assert.Empty(t, in[0].OriginalCurrency)
}

func TestCurrencyNormalizer_TimeoutFallsBack(t *testing.T) {
	rates := new(MockCurrencyRateSource)
	rates.On("Rate", mock.Anything, "EUR", "USD").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(decimal.Zero, context.DeadlineExceeded)

	n := NewCurrencyNormalizer(rates, "USD", WithRateTimeout(10*time.Millisecond))
	out := n.Normalize(context.Background(), []zakat.Asset{cash("100", "EUR")})
	assert.True(t, out[0].Value.Equal(dec("100")))
}

func TestCurrencyNormalizer_NonPositiveRateFallsBack(t *testing.T) {
	rates := new(MockCurrencyRateSource)
	rates.On("Rate", mock.Anything, "AED", "USD").Return(dec("-1"), nil)
	metrics := new(MockMetrics)
	metrics.On("RecordCurrencyFallback", mock.Anything, "AED").Once()

	n := NewCurrencyNormalizer(rates, "USD", WithNormalizerMetrics(metrics))
	out := n.Normalize(context.Background(), []zakat.Asset{cash("10", "AED")})
	assert.True(t, out[0].Value.Equal(dec("10")))
	metrics.AssertExpectations(t)
}

func TestCurrencyNormalizer_NoForeignCurrencies(t *testing.T) {
	rates := new(MockCurrencyRateSource)
	n := NewCurrencyNormalizer(rates, "usd")
	out := n.Normalize(context.Background(), []zakat.Asset{cash("10", "usd")})
	assert.Equal(t, "USD", out[0].Currency)
	rates.AssertNotCalled(t, "Rate", mock.Anything, mock.Anything, mock.Anything)
}
