package sunat

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var (
	wordsUnits = [...]string{"", "UNO", "DOS", "TRES", "CUATRO", "CINCO", "SEIS", "SIETE", "OCHO", "NUEVE",
		"DIEZ", "ONCE", "DOCE", "TRECE", "CATORCE", "QUINCE", "DIECISEIS", "DIECISIETE", "DIECIOCHO", "DIECINUEVE",
		"VEINTE", "VEINTIUNO", "VEINTIDOS", "VEINTITRES", "VEINTICUATRO", "VEINTICINCO", "VEINTISEIS",
		"VEINTISIETE", "VEINTIOCHO", "VEINTINUEVE"}
	wordsTens     = [...]string{"", "", "", "TREINTA", "CUARENTA", "CINCUENTA", "SESENTA", "SETENTA", "OCHENTA", "NOVENTA"}
	wordsHundreds = [...]string{"", "CIENTO", "DOSCIENTOS", "TRESCIENTOS", "CUATROCIENTOS", "QUINIENTOS",
		"SEISCIENTOS", "SETECIENTOS", "OCHOCIENTOS", "NOVECIENTOS"}
)

// currencyNames nombre en plural usado en la leyenda, por código ISO 4217.
var currencyNames = map[string]string{
	"PEN": "SOLES",
	"USD": "DOLARES AMERICANOS",
	"EUR": "EUROS",
}

// AmountInWords genera la leyenda 1000 (monto en letras), por ejemplo
// "CIENTO DIECIOCHO CON 00/100 SOLES". El monto se redondea a 2 decimales.
func AmountInWords(amount decimal.Decimal, currencyCode string) (string, error) {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return "", fmt.Errorf("sunat: moneda inválida %q: %w", currencyCode, err)
	}
	if amount.IsNegative() {
		return "", fmt.Errorf("sunat: monto negativo %s", amount.String())
	}
	name, ok := currencyNames[unit.String()]
	if !ok {
		name = unit.String()
	}
	rounded := amount.Round(2)
	integer := rounded.Truncate(0)
	cents := rounded.Sub(integer).Mul(decimal.NewFromInt(100)).IntPart()

	words := integerWords(integer.IntPart())
	return fmt.Sprintf("%s CON %02d/100 %s", words, cents, name), nil
}

func integerWords(n int64) string {
	if n == 0 {
		return "CERO"
	}
	var parts []string
	if millions := n / 1_000_000; millions > 0 {
		if millions == 1 {
			parts = append(parts, "UN MILLON")
		} else {
			parts = append(parts, apocope(integerWords(millions))+" MILLONES")
		}
		n %= 1_000_000
	}
	if thousands := n / 1000; thousands > 0 {
		if thousands == 1 {
			parts = append(parts, "MIL")
		} else {
			parts = append(parts, apocope(hundredsWords(thousands))+" MIL")
		}
		n %= 1000
	}
	if n > 0 {
		parts = append(parts, hundredsWords(n))
	}
	return strings.Join(parts, " ")
}

// hundredsWords convierte 1..999.
func hundredsWords(n int64) string {
	if n == 100 {
		return "CIEN"
	}
	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, wordsHundreds[h])
	}
	rest := n % 100
	switch {
	case rest == 0:
	case rest < 30:
		parts = append(parts, wordsUnits[rest])
	default:
		t := wordsTens[rest/10]
		if u := rest % 10; u > 0 {
			t += " Y " + wordsUnits[u]
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, " ")
}

// apocope "VEINTIUNO MIL" -> "VEINTIUN MIL", "UNO" -> "UN".
func apocope(s string) string {
	if strings.HasSuffix(s, "UNO") {
		return strings.TrimSuffix(s, "O")
	}
	return s
}
