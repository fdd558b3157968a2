package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/money"
)

func TestRound2_MitadSeAlejaDeCero(t *testing.T) {
	assert.True(t, money.Round2(decimal.RequireFromString("10.005")).Equal(decimal.RequireFromString("10.01")))
	assert.True(t, money.Round2(decimal.RequireFromString("10.004")).Equal(decimal.RequireFromString("10.00")))
}

func TestRound6(t *testing.T) {
	got := money.Round6(decimal.RequireFromString("0.0849999999"))
	assert.True(t, got.Equal(decimal.RequireFromString("0.085")), "got %s", got)
}

func TestRatio_DivisorCero(t *testing.T) {
	assert.True(t, money.Ratio(decimal.NewFromInt(10), decimal.Zero).IsZero())
	assert.True(t, money.Ratio(decimal.NewFromInt(260), decimal.NewFromInt(1000)).Equal(decimal.RequireFromString("0.26")))
	assert.True(t, money.Ratio(decimal.NewFromInt(1), decimal.NewFromInt(3)).Equal(decimal.RequireFromString("0.333333")))
}

func TestSum_RedondeaDespuesDeSumar(t *testing.T) {
	got := money.Sum(decimal.RequireFromString("0.004"), decimal.RequireFromString("0.004"))
	assert.True(t, got.Equal(decimal.RequireFromString("0.01")), "got %s", got)
}

func TestNonNegative(t *testing.T) {
	assert.True(t, money.NonNegative(decimal.NewFromInt(-5)).IsZero())
	assert.True(t, money.NonNegative(decimal.NewFromInt(5)).Equal(decimal.NewFromInt(5)))
}

func TestIsRate(t *testing.T) {
	assert.True(t, money.IsRate(decimal.Zero))
	assert.True(t, money.IsRate(decimal.NewFromInt(1)))
	assert.False(t, money.IsRate(decimal.RequireFromString("1.01")))
	assert.False(t, money.IsRate(decimal.RequireFromString("-0.01")))
}
