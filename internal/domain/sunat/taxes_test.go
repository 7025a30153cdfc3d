package sunat_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-sunat/internal/domain"
	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	"github.com/jhoicas/facturador-sunat/internal/domain/sunat"
)

func line(qty, price, affectation string) *entity.LineItem {
	return &entity.LineItem{
		Description: "Producto",
		Quantity:    decimal.RequireFromString(qty),
		UnitCode:    "NIU",
		UnitPrice:   decimal.RequireFromString(price),
		Affectation: affectation,
	}
}

func TestComputeTotals_Gravado(t *testing.T) {
	totals := sunat.ComputeTotals([]*entity.LineItem{line("2", "50", "10")})
	assert.True(t, totals.Taxed.Equal(decimal.RequireFromString("100")), "gravado debe ser 100")
	assert.True(t, totals.Tax.Equal(decimal.RequireFromString("18")), "IGV debe ser 18")
	assert.True(t, totals.Total.Equal(decimal.RequireFromString("118")), "total debe ser 118")
}

func TestComputeTotals_Mixto(t *testing.T) {
	totals := sunat.ComputeTotals([]*entity.LineItem{
		line("1", "100", "10"),
		line("3", "10.005", "20"), // 30.015 → 30.02
		line("1", "5", "30"),
		line("2", "7.5", "40"),
	})
	assert.Equal(t, "100.00", totals.Taxed.StringFixed(2))
	assert.Equal(t, "30.02", totals.Exempt.StringFixed(2))
	assert.Equal(t, "5.00", totals.Unaffected.StringFixed(2))
	assert.Equal(t, "15.00", totals.Export.StringFixed(2))
	assert.Equal(t, "18.00", totals.Tax.StringFixed(2), "solo el grupo gravado paga IGV")
	assert.Equal(t, "150.02", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "168.02", totals.Total.StringFixed(2))
}

func TestComputeTotals_ListaVacia(t *testing.T) {
	totals := sunat.ComputeTotals(nil)
	for name, v := range map[string]decimal.Decimal{
		"taxed": totals.Taxed, "exempt": totals.Exempt, "unaffected": totals.Unaffected,
		"export": totals.Export, "tax": totals.Tax, "subtotal": totals.Subtotal, "total": totals.Total,
	} {
		assert.True(t, v.IsZero(), "%s debe ser cero", name)
	}
}

func TestComputeTotals_RedondeoHalfUp(t *testing.T) {
	// 0.25 × 18 % = 0.045 → 0.05
	totals := sunat.ComputeTotals([]*entity.LineItem{line("1", "0.25", "10")})
	assert.Equal(t, "0.05", totals.Tax.StringFixed(2))
}

func TestComputeTotals_Propiedades(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	codes := []string{"10", "20", "30", "40"}
	for i := 0; i < 200; i++ {
		n := rng.Intn(8)
		lines := make([]*entity.LineItem, 0, n)
		for j := 0; j < n; j++ {
			l := &entity.LineItem{
				Quantity:    decimal.NewFromInt(int64(rng.Intn(50) + 1)).Div(decimal.NewFromInt(int64(rng.Intn(4) + 1))),
				UnitPrice:   decimal.New(int64(rng.Intn(1_000_000)), -3),
				Affectation: codes[rng.Intn(len(codes))],
			}
			lines = append(lines, l)
		}
		a := sunat.ComputeTotals(lines)
		b := sunat.ComputeTotals(lines)

		require.False(t, a.Taxed.IsNegative() || a.Exempt.IsNegative() || a.Unaffected.IsNegative() ||
			a.Export.IsNegative() || a.Tax.IsNegative(), "ningún importe puede ser negativo")
		require.True(t, a.Subtotal.Add(a.Tax).Equal(a.Total), "subtotal + IGV debe ser igual al total")
		require.True(t, a.Taxed.Add(a.Exempt).Add(a.Unaffected).Add(a.Export).Equal(a.Subtotal))
		require.True(t, a.Total.Equal(b.Total) && a.Tax.Equal(b.Tax) && a.Subtotal.Equal(b.Subtotal),
			"el cálculo debe ser determinista")
	}
}

func TestLineHelpers(t *testing.T) {
	taxed := line("3", "10.50", "10")
	assert.Equal(t, "31.50", sunat.LineAmount(taxed).StringFixed(2))
	assert.Equal(t, "5.67", sunat.LineTax(taxed).StringFixed(2))
	assert.Equal(t, "12.39", sunat.PriceWithTax(taxed).StringFixed(2))

	exempt := line("3", "10.50", "20")
	assert.True(t, sunat.LineTax(exempt).IsZero())
	assert.Equal(t, "10.50", sunat.PriceWithTax(exempt).StringFixed(2))
}

func TestActiveCategories(t *testing.T) {
	cats := sunat.ActiveCategories([]*entity.LineItem{line("1", "1", "30"), line("1", "1", "10"), line("1", "1", "30")})
	assert.Equal(t, []string{"10", "30"}, cats)
}

func validFactura() *entity.Document {
	doc := &entity.Document{
		TypeCode:  "01",
		Series:    "F001",
		IssueDate: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		Currency:  "PEN",
		Customer:  entity.Customer{DocType: "6", DocNumber: "20123456786", Name: "CLIENTE SAC"},
		Lines:     []*entity.LineItem{line("1", "100", "10")},
	}
	sunat.ComputeTotals(doc.Lines).ApplyTo(doc)
	return doc
}

func TestValidateDocument_FacturaValida(t *testing.T) {
	require.NoError(t, sunat.ValidateDocument(validFactura()))
}

func TestValidateDocument_FacturaSinRUC(t *testing.T) {
	doc := validFactura()
	doc.Customer = entity.Customer{DocType: "1", DocNumber: "12345678", Name: "JUAN PEREZ"}
	err := sunat.ValidateDocument(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "cliente.tipo_doc", ve.Field)
}

func TestValidateDocument_NotaSinReferencia(t *testing.T) {
	doc := validFactura()
	doc.TypeCode = "07"
	doc.Series = "FC01"
	doc.NoteReason = "01"
	err := sunat.ValidateDocument(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "referencia")
}

func TestValidateDocument_NotaMotivoInvalido(t *testing.T) {
	doc := validFactura()
	doc.TypeCode = "08"
	doc.Series = "FD01"
	doc.Reference = &entity.DocumentReference{TypeCode: "01", Series: "F001", Number: 4}
	doc.NoteReason = "07"
	err := sunat.ValidateDocument(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "motivo")
}

func TestValidateDocument_BoletaSobreUmbral(t *testing.T) {
	doc := &entity.Document{
		TypeCode:  "03",
		Series:    "B001",
		IssueDate: time.Now(),
		Currency:  "PEN",
		Lines:     []*entity.LineItem{line("1", "700", "10")},
	}
	sunat.ComputeTotals(doc.Lines).ApplyTo(doc)
	err := sunat.ValidateDocument(doc)
	require.Error(t, err, "boleta de 826.00 sin adquiriente debe fallar")

	doc.Lines = []*entity.LineItem{line("1", "100", "10")}
	sunat.ComputeTotals(doc.Lines).ApplyTo(doc)
	require.NoError(t, sunat.ValidateDocument(doc), "boleta menor al umbral puede ser anónima")
}

func TestValidateDocument_CantidadYMoneda(t *testing.T) {
	doc := validFactura()
	doc.Currency = "XXXX"
	doc.Lines[0].Quantity = decimal.Zero
	err := sunat.ValidateDocument(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moneda")
	assert.Contains(t, err.Error(), "cantidad")
}

func TestValidateDocument_CreditoSinCuotas(t *testing.T) {
	doc := validFactura()
	doc.PaymentTerms = entity.PaymentTerms{Form: "Credito"}
	require.Error(t, sunat.ValidateDocument(doc))
}

func TestQRPayload(t *testing.T) {
	doc := validFactura()
	doc.Number = 15
	doc.Hash = "abc="
	got := sunat.QRPayload("20000000001", doc)
	assert.Equal(t, "20000000001|01|F001|15|18.00|118.00|2026-03-10|6|20123456786|abc=|", got)
}
