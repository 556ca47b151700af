package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmount(t *testing.T) {
	assert.Equal(t, "100,00", Amount("100.00"))
	assert.Equal(t, "1.234,56", Amount("1234.56"))
	assert.Equal(t, "1.234,50", Amount("1234.5"))
	assert.Equal(t, "1.234.567,89", Amount("1234567.89"))
	assert.Equal(t, "0,10", Amount("0.1"))
	assert.Equal(t, "-1.500,00", Amount("-1500"))
}

func TestAmount_Unparsable(t *testing.T) {
	assert.Equal(t, "N/A", Amount(""))
	assert.Equal(t, "N/A", Amount("abc"))
	assert.Equal(t, "N/A", Amount("12,34,56"))
}

func TestWithCurrency(t *testing.T) {
	assert.Equal(t, "€ 1.234,56", WithCurrency("1.234,56", "EUR"))
	assert.Equal(t, "$ 10,00", WithCurrency("10,00", "USD"))
	assert.Equal(t, "zł 10,00", WithCurrency("10,00", "pln"), "code lookup should be case insensitive")
}

func TestWithCurrency_PassThrough(t *testing.T) {
	assert.Equal(t, "N/A", WithCurrency("N/A", "EUR"), "sentinel must never be decorated")
	assert.Equal(t, "10,00", WithCurrency("10,00", "XXX"), "unknown code leaves value unchanged")
	assert.Equal(t, "10,00", WithCurrency("10,00", ""))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "22,00%", Percent("22.00"))
	assert.Equal(t, "4,00%", Percent("4"))
	assert.Equal(t, "N/A", Percent("not a rate"))
}

func TestPaymentMethod(t *testing.T) {
	assert.Equal(t, "Bonifico", PaymentMethod("MP05"))
	assert.Equal(t, "Contanti", PaymentMethod("MP01"))
	assert.Equal(t, "MP99", PaymentMethod("MP99"), "unknown code returned unchanged")
}

func TestDocumentType(t *testing.T) {
	assert.Equal(t, "Fattura", DocumentType("TD01"))
	assert.Equal(t, "Nota di credito", DocumentType("TD04"))
	assert.Equal(t, "TD99", DocumentType("TD99"))
}
