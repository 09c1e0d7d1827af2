package document

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/arcline/studio-backend/internal/models"
	"github.com/arcline/studio-backend/internal/signature"
)

func fixedGenerator() *Generator {
	g := NewGenerator()
	g.now = func() time.Time {
		return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	}
	return g
}

func sampleChangeOrder(t *testing.T) *models.ChangeOrder {
	t.Helper()
	desc := "Перенос розеток по новой планировке"
	reason := "Изменение планировки по запросу клиента"
	return &models.ChangeOrder{
		ID:                uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		ProjectID:         uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8"),
		CONumber:          7,
		Title:             "Дополнительные электромонтажные работы",
		Description:       desc,
		Reason:            &reason,
		RequestedBy:       "client",
		Amount:            1234.5,
		DepositPercentage: 30,
		Status:            "pending_internal",
		LineItems: []models.ChangeOrderItem{
			{Name: "Демонтаж", Amount: 234.5, Position: 0},
			{Name: "Монтаж", Amount: 1000, Position: 1},
		},
		CreatedAt: time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC),
	}
}

func sampleContext() Context {
	return Context{
		CompanyName:    "Arcline Studio",
		CompanyAddress: "Москва, Никольская 12",
		CompanyEmail:   "hello@arclinestudio.example",
		CompanyPhone:   "+7 495 000-00-00",
		ProjectNumber:  "P-042",
		ProjectName:    "Квартира на Никольской",
		ProjectAddress: "Никольская 12, кв. 8",
		ClientName:     "ООО Ромашка",
	}
}

func TestFilename(t *testing.T) {
	co := &models.ChangeOrder{CONumber: 7}
	assert.Equal(t, "change-order-007.pdf", Filename(co))

	co.CONumber = 123
	assert.Equal(t, "change-order-123.pdf", Filename(co))
}

func TestGenerator_RenderProducesPDF(t *testing.T) {
	g := fixedGenerator()

	artifact, err := g.Render(sampleChangeOrder(t), sampleContext())
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(artifact, []byte("%PDF")))
}

func TestGenerator_RenderDeterministic(t *testing.T) {
	g := fixedGenerator()
	docCtx := sampleContext()

	a, err := g.Render(sampleChangeOrder(t), docCtx)
	assert.NoError(t, err)
	b, err := g.Render(sampleChangeOrder(t), docCtx)
	assert.NoError(t, err)

	assert.Equal(t, a, b, "одинаковый снимок и реквизиты дают байт-в-байт одинаковый документ")
}

func TestGenerator_RenderWithSignatures(t *testing.T) {
	g := fixedGenerator()
	co := sampleChangeOrder(t)

	canvas := signature.NewCanvas()
	canvas.BeginStroke(10, 100)
	canvas.AppendPoint(300, 50)
	canvas.EndStroke()
	raster, err := canvas.Export()
	assert.NoError(t, err)

	signedAt := time.Date(2025, 5, 21, 15, 0, 0, 0, time.UTC)
	signer := "Анна Орлова"
	co.InternalSignedAt = &signedAt
	co.InternalSignedBy = &signer
	co.InternalSignatureData = raster
	co.Status = "pending_client"

	artifact, err := g.Render(co, sampleContext())
	assert.NoError(t, err)
	assert.NotEmpty(t, artifact)
}

func TestGenerator_RenderLegacyItems(t *testing.T) {
	g := fixedGenerator()
	co := sampleChangeOrder(t)
	co.LineItems = nil
	co.LegacyServiceNames = []string{"Дизайн", "Надзор", "Чертежи"}
	co.Amount = -100
	co.RequestedBy = "internal"

	artifact, err := g.Render(co, sampleContext())
	assert.NoError(t, err)
	assert.NotEmpty(t, artifact)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", formatMoney(1234.5))
	assert.Equal(t, "-$1,234.50", formatMoney(-1234.5))
	assert.Equal(t, "$0.00", formatMoney(0))
	assert.Equal(t, "$999.99", formatMoney(999.99))
	assert.Equal(t, "$1,000,000.00", formatMoney(1000000))
}
