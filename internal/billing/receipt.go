package billing

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

const laboratoryName = "MAES Laboratory"

// RenderReceipt writes a one-page A4 PDF receipt for a payment
func RenderReceipt(w io.Writer, p *types.Payment, apt *types.Appointment, loc *time.Location) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(0, 70, 140)
	pdf.CellFormat(0, 10, laboratoryName, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 6, "Official Payment Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	receiptRow(pdf, "Receipt No.", p.ReceiptNumber, true)
	receiptRow(pdf, "Date", p.CreatedAt.In(loc).Format("January 2, 2006 3:04 PM"), false)
	receiptRow(pdf, "Appointment", apt.Reference, false)
	receiptRow(pdf, "Scheduled", apt.ScheduledAt.In(loc).Format("January 2, 2006 3:04 PM"), false)
	receiptRow(pdf, "Patient", apt.PatientID, false)
	receiptRow(pdf, "Payment Method", methodLabel(p.Method), false)
	if p.ReferenceNumber != "" {
		receiptRow(pdf, "Reference No.", p.ReferenceNumber, false)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 10, "Services", "1", 1, "C", false, 0, "")
	for _, line := range apt.Services {
		receiptRow(pdf, line.ServiceName, "PHP "+line.Price.StringFixed(2), false)
	}
	receiptRow(pdf, "Total", "PHP "+apt.TotalAmount.StringFixed(2), false)
	if apt.DiscountAmount.IsPositive() {
		receiptRow(pdf, fmt.Sprintf("Discount (%s)", apt.DiscountPolicy), "- PHP "+apt.DiscountAmount.StringFixed(2), false)
	}
	receiptRow(pdf, "Amount Due", "PHP "+apt.FinalAmount.StringFixed(2), false)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 10, "Amount Paid: PHP "+p.Amount.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	status := "Pending verification"
	if p.IsVerified && p.VerifiedAt != nil {
		status = "Verified on " + p.VerifiedAt.In(loc).Format("January 2, 2006")
	}
	pdf.CellFormat(0, 7, "Status: "+status, "", 1, "R", false, 0, "")

	pdf.SetY(pdf.GetY() + 12)
	pdf.MultiCell(0, 5, "Thank you for choosing "+laboratoryName+".", "", "L", false)
	pdf.CellFormat(0, 10, "This is a computer generated receipt", "", 1, "R", false, 0, "")

	return pdf.Output(w)
}

func receiptRow(pdf *gofpdf.Fpdf, label, value string, header bool) {
	if header {
		pdf.SetFont("Arial", "B", 11)
	} else {
		pdf.SetFont("Arial", "", 10)
	}
	pdf.CellFormat(60, 8, label, "1", 0, "", false, 0, "")
	pdf.CellFormat(0, 8, value, "1", 1, "", false, 0, "")
}

func methodLabel(m types.PaymentMethod) string {
	switch m {
	case types.MethodCash:
		return "Cash"
	case types.MethodEWallet:
		return "E-Wallet"
	case types.MethodBankTransfer:
		return "Bank Transfer"
	case types.MethodCard:
		return "Card"
	case types.MethodInsurance:
		return "Insurance"
	case types.MethodInstallment:
		return "Installment"
	default:
		return string(m)
	}
}
