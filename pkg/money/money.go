// Package money centraliza el redondeo de valores monetarios y alícuotas.
// Moneda: 2 decimales. Alícuotas y razones: 6 decimales.
package money

import "github.com/shopspring/decimal"

// Precisiones usadas en todos los límites de cálculo.
const (
	CurrencyPlaces int32 = 2
	RatePlaces     int32 = 6
)

var (
	// Zero es el decimal cero.
	Zero = decimal.Zero
	// One es el decimal uno (multiplicador neutro).
	One = decimal.NewFromInt(1)
	// Hundred para conversiones de porcentaje.
	Hundred = decimal.NewFromInt(100)
)

// Round2 redondea a 2 decimales (moneda).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// Round6 redondea a 6 decimales (alícuotas, factores, razones).
func Round6(d decimal.Decimal) decimal.Decimal {
	return d.Round(RatePlaces)
}

// Mul multiplica y redondea a 2 decimales.
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return Round2(a.Mul(b))
}

// Ratio divide a entre b con 6 decimales. Devuelve cero si b es cero.
func Ratio(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return Zero
	}
	return Round6(a.Div(b))
}

// Percent aplica un porcentaje (0-100) sobre amount, sin redondear.
func Percent(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(Hundred)
}

// Sum suma los valores y redondea el total a 2 decimales.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return Round2(result)
}

// NonNegative devuelve d o cero si d es negativo.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return Zero
	}
	return d
}

// IsRate indica si d está en el intervalo cerrado [0, 1].
func IsRate(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(One)
}

// MustFromString convierte un string a decimal y hace panic si es inválido (solo tests y semillas).
func MustFromString(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
