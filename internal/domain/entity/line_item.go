package entity

import "github.com/shopspring/decimal"

// LineItem representa una línea de detalle del comprobante.
type LineItem struct {
	ID          string
	DocumentID  string
	Position    int
	Description string
	Quantity    decimal.Decimal
	UnitCode    string          // UN/ECE rec 20, NIU por defecto
	UnitPrice   decimal.Decimal // Valor unitario sin IGV
	Affectation string          // Catálogo 07: 10, 20, 30, 40
}
