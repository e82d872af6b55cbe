package provider

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trimrx/trimrx/internal/domain/assessment"
)

// exportHeader is the fixed export column set, in order.
var exportHeader = []string{
	"Patient Name", "Email", "Date of Birth", "Phone",
	"Status", "Medication", "Plan", "Amount", "Assessment Date",
	"Conditions", "Height", "Weight",
	"Address", "City", "State", "Zip",
	"UTM Source", "UTM Medium", "UTM Campaign", "UTM Term", "UTM Content",
}

// ExportFilename returns the download name for a status export,
// e.g. "completed-assessments-2026-08-30.csv".
func ExportFilename(status assessment.Status, now time.Time) string {
	return fmt.Sprintf("%s-assessments-%s.csv", status, now.Format("2006-01-02"))
}

// ExportCSV renders review items as CSV: one header row plus one row per
// item. Fields containing commas, quotes or newlines are double-quote
// escaped. An empty item list yields an empty string, not a lone header.
func ExportCSV(items []ReviewItem) string {
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	writeRow(&b, exportHeader)
	for _, item := range items {
		writeRow(&b, exportRow(item))
	}
	return b.String()
}

func exportRow(item ReviewItem) []string {
	a := item.Assessment
	return []string{
		item.PatientName,
		item.PatientEmail,
		dateField(a.DateOfBirth),
		deref(a.Phone),
		string(a.Status),
		a.Medication,
		a.PlanType,
		strconv.Itoa(a.Amount),
		a.CreatedAt.Format("2006-01-02"),
		strings.Join(a.Conditions, "; "),
		heightField(a.HeightInches),
		intField(a.WeightLbs),
		deref(a.ShippingAddress),
		deref(a.ShippingCity),
		deref(a.ShippingState),
		deref(a.ShippingZip),
		deref(a.UTMSource),
		deref(a.UTMMedium),
		deref(a.UTMCampaign),
		deref(a.UTMTerm),
		deref(a.UTMContent),
	}
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeField(f))
	}
	b.WriteByte('\n')
}

// escapeField quotes a field when it contains a comma, quote or newline,
// doubling any embedded quotes.
func escapeField(f string) string {
	if !strings.ContainsAny(f, ",\"\n\r") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intField(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func dateField(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func heightField(totalInches *int) string {
	if totalInches == nil {
		return ""
	}
	split := assessment.FeetInches(*totalInches)
	return fmt.Sprintf("%d'%d\"", split.Feet, split.Inches)
}
