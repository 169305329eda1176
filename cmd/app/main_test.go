package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTaxBreakdownBuy(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTaxBreakdown(&buf, "buy", "1000", "10"))

	out := buf.String()
	assert.Contains(t, out, "Turnover           10000.00")
	assert.Contains(t, out, "STT                   10.00")
	assert.Contains(t, out, "Stamp duty             1.50")
	assert.Contains(t, out, "Total charges         11.91")
	assert.Contains(t, out, "Net amount         10011.91")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 7)
}

func TestPrintTaxBreakdownSellHasNoStampDuty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTaxBreakdown(&buf, "SELL", "1000", "10"))

	out := buf.String()
	assert.Contains(t, out, "Stamp duty             0.00")
	assert.Contains(t, out, "Net amount          9989.59")
}

func TestPrintTaxBreakdownRejectsBadInput(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, printTaxBreakdown(&buf, "HOLD", "1000", "10"))
	assert.Error(t, printTaxBreakdown(&buf, "BUY", "-5", "10"))
	assert.Error(t, printTaxBreakdown(&buf, "BUY", "abc", "10"))
	assert.Error(t, printTaxBreakdown(&buf, "BUY", "1000", "0"))
	assert.Empty(t, buf.String())
}
