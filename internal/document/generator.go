package document

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/arcline/studio-backend/internal/domain/valueobject"
	"github.com/arcline/studio-backend/internal/models"
	"github.com/arcline/studio-backend/internal/pkg/apperror"
)

// Context — внешние реквизиты для шапки документа: фирма, проект, клиент.
// Движок собирает их из справочников, генератор ничего не ищет сам.
type Context struct {
	CompanyName    string
	CompanyAddress string
	CompanyEmail   string
	CompanyPhone   string
	ProjectNumber  string
	ProjectName    string
	ProjectAddress string
	ClientName     string
}

// Generator детерминированно собирает печатный документ из снимка записи.
// Одинаковый снимок и реквизиты дают байт-в-байт одинаковый PDF: дата
// создания в метаданных фиксируется датой записи, часы подменяются в тестах.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Filename возвращает имя файла документа; одно и то же имя используется при
// скачивании, отправке клиенту и выгрузке в хранилище (upsert по пути).
func Filename(co *models.ChangeOrder) string {
	return fmt.Sprintf("change-order-%03d.pdf", co.CONumber)
}

// Render собирает PDF по снимку записи.
func (g *Generator) Render(co *models.ChangeOrder, docCtx Context) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(co.CreatedAt.UTC())
	pdf.SetModificationDate(co.CreatedAt.UTC())
	pdf.SetTitle(fmt.Sprintf("Change Order #%d", co.CONumber), true)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 24)
	pdf.AddPage()

	g.renderHeader(pdf, co, docCtx)
	g.renderProjectBlock(pdf, co, docCtx)
	g.renderNarrative(pdf, co)
	if err := g.renderItemsTable(pdf, co); err != nil {
		return nil, err
	}
	g.renderReason(pdf, co)
	if err := g.renderSignatures(pdf, co, docCtx); err != nil {
		return nil, err
	}
	g.renderFooter(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сгенерировать документ")
	}
	return buf.Bytes(), nil
}

func (g *Generator) renderHeader(pdf *gofpdf.Fpdf, co *models.ChangeOrder, docCtx Context) {
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(110, 7, docCtx.CompanyName, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(0, 7, "CHANGE ORDER", "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	issuer := []string{docCtx.CompanyAddress, docCtx.CompanyPhone, docCtx.CompanyEmail}
	meta := []string{
		fmt.Sprintf("No. %03d", co.CONumber),
		"Date: " + co.CreatedAt.UTC().Format("January 2, 2006"),
		"Requested by: " + valueobject.RequestedBy(co.RequestedBy).DisplayName(),
	}
	for i := 0; i < 3; i++ {
		pdf.CellFormat(110, 5, issuer[i], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, meta[i], "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func (g *Generator) renderProjectBlock(pdf *gofpdf.Fpdf, co *models.ChangeOrder, docCtx Context) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "Project", "T", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)

	project := docCtx.ProjectNumber
	if docCtx.ProjectName != "" {
		project += " - " + docCtx.ProjectName
	}
	pdf.CellFormat(0, 5, project, "", 1, "L", false, 0, "")
	if docCtx.ProjectAddress != "" {
		pdf.CellFormat(0, 5, docCtx.ProjectAddress, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, "Client: "+docCtx.ClientName, "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func (g *Generator) renderNarrative(pdf *gofpdf.Fpdf, co *models.ChangeOrder) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.MultiCell(0, 6, co.Title, "", "L", false)
	if co.Description != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, co.Description, "", "L", false)
	}
	pdf.Ln(3)
}

func (g *Generator) renderItemsTable(pdf *gofpdf.Fpdf, co *models.ChangeOrder) error {
	items := co.Items().Normalize(co.Amount)
	credit := co.Amount < 0

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(134, 7, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range items {
		name := item.Name
		if item.Description != "" {
			name += " - " + item.Description
		}
		amount := item.Amount
		if credit {
			// Знак живёт на уровне итога, но в кредитных документах каждая
			// строка печатается со знаком минус.
			amount = -amount
		}
		pdf.CellFormat(134, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, formatMoney(amount), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(134, 7, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, formatMoney(co.Amount), "1", 1, "R", false, 0, "")

	if co.DepositPercentage > 0 {
		pdf.SetFont("Helvetica", "", 9)
		deposit := fmt.Sprintf("Deposit due (%s%%): %s",
			decimal.NewFromFloat(co.DepositPercentage).String(), formatMoney(co.DepositAmount()))
		pdf.CellFormat(0, 6, deposit, "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
	return nil
}

func (g *Generator) renderReason(pdf *gofpdf.Fpdf, co *models.ChangeOrder) {
	if co.Reason == nil || *co.Reason == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "Reason for change", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, *co.Reason, "", "L", false)
	pdf.Ln(3)
}

func (g *Generator) renderSignatures(pdf *gofpdf.Fpdf, co *models.ChangeOrder, docCtx Context) error {
	pdf.Ln(6)
	y := pdf.GetY()

	internalName := ""
	if co.InternalSignedBy != nil {
		internalName = *co.InternalSignedBy
	}
	clientName := docCtx.ClientName
	if co.ClientSignerName != nil {
		clientName = *co.ClientSignerName
	}

	if err := g.renderSignatureBlock(pdf, 18, y, "Authorized by "+docCtx.CompanyName,
		internalName, co.InternalSignatureData, co.InternalSignedAt); err != nil {
		return err
	}
	if err := g.renderSignatureBlock(pdf, 112, y, "Accepted by Client",
		clientName, co.ClientSignatureData, co.ClientSignedAt); err != nil {
		return err
	}
	pdf.SetY(y + 42)
	return nil
}

func (g *Generator) renderSignatureBlock(pdf *gofpdf.Fpdf, x, y float64, label, name string, raster []byte, signedAt *time.Time) error {
	const width = 80.0

	pdf.SetXY(x, y)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(width, 5, label, "", 0, "L", false, 0, "")

	if len(raster) > 0 {
		imageName := fmt.Sprintf("sig-%s-%x", strings.ToLower(label[:4]), len(raster))
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(raster))
		pdf.ImageOptions(imageName, x, y+7, width*0.75, 0, false, opts, 0, "")
		if pdf.Err() {
			return apperror.Wrap(pdf.Error(), apperror.ErrCodeInternal, "не удалось встроить подпись в документ")
		}
	}
	// Линия подписи рисуется всегда: под растром или пустой для живой подписи.
	pdf.Line(x, y+28, x+width, y+28)

	pdf.SetXY(x, y+29)
	pdf.SetFont("Helvetica", "", 8)
	line := name
	if signedAt != nil {
		if line != "" {
			line += ", "
		}
		line += signedAt.UTC().Format("January 2, 2006")
	}
	pdf.CellFormat(width, 5, line, "", 0, "L", false, 0, "")
	return nil
}

func (g *Generator) renderFooter(pdf *gofpdf.Fpdf) {
	pdf.SetY(-16)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, "Generated "+g.now().UTC().Format(time.RFC3339), "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// formatMoney печатает денежное значение с разделителями тысяч и ведущим
// минусом для кредита: "-$1,234.50".
func formatMoney(v float64) string {
	d := decimal.NewFromFloat(v)
	negative := d.IsNegative()
	fixed := d.Abs().StringFixed(2)

	parts := strings.SplitN(fixed, ".", 2)
	whole := parts[0]
	var grouped []string
	for len(whole) > 3 {
		grouped = append([]string{whole[len(whole)-3:]}, grouped...)
		whole = whole[:len(whole)-3]
	}
	grouped = append([]string{whole}, grouped...)

	out := "$" + strings.Join(grouped, ",") + "." + parts[1]
	if negative {
		out = "-" + out
	}
	return out
}
