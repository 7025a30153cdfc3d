package sunat

import (
	"fmt"
	"unicode"
)

// pesos para el dígito verificador del RUC (módulo 11, SUNAT).
// Se aplican a los 10 primeros dígitos, de izquierda a derecha.
var rucWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidateRUC valida que el RUC tenga 11 dígitos, prefijo válido (10, 15, 16, 17, 20)
// y dígito verificador correcto.
func ValidateRUC(ruc string) error {
	for _, r := range ruc {
		if !unicode.IsDigit(r) {
			return fmt.Errorf("sunat: RUC solo admite dígitos, se recibió %q", ruc)
		}
	}
	if len(ruc) != 11 {
		return fmt.Errorf("sunat: RUC debe tener 11 dígitos, se recibieron %d", len(ruc))
	}
	switch ruc[:2] {
	case "10", "15", "16", "17", "20":
	default:
		return fmt.Errorf("sunat: prefijo de RUC inválido %q", ruc[:2])
	}
	expected, err := ComputeRUCCheckDigit(ruc[:10])
	if err != nil {
		return err
	}
	if ruc[10] != expected {
		return fmt.Errorf("sunat: dígito verificador del RUC inválido: esperado %c, recibido %c", expected, ruc[10])
	}
	return nil
}

// ComputeRUCCheckDigit calcula el dígito verificador para los 10 primeros dígitos del RUC.
func ComputeRUCCheckDigit(base string) (byte, error) {
	if len(base) < 10 {
		return 0, fmt.Errorf("sunat: se requieren 10 dígitos para calcular el verificador, se encontraron %d", len(base))
	}
	var sum int
	for i := 0; i < 10; i++ {
		c := base[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("sunat: carácter no numérico en RUC: %q", c)
		}
		sum += int(c-'0') * rucWeights[i]
	}
	d := 11 - sum%11
	switch d {
	case 10:
		d = 0
	case 11:
		d = 1
	}
	return byte('0' + d), nil
}
