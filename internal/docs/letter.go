// Package docs renders the sanction letter that closes an approved
// application.
package docs

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"credgen/internal/domain"
)

// Letter is the data the sanction letter template needs.
type Letter struct {
	Applicant    string
	LoanAmount   float64
	InterestRate float64
	TenureMonths int
	EMI          int64
	Date         time.Time
}

const letterTemplate = `*** CREDGEN SANCTION LETTER ***
Date: {{ .Date.Format "January 02, 2006" }}
Applicant: {{ .Applicant }}
Loan Amount Sanctioned: {{ rupees .LoanAmount }}
Final Interest Rate: {{ printf "%.2f" .InterestRate }}%
Tenure: {{ .TenureMonths }} months
Monthly Installment: {{ rupees .EMI }}
Status: APPROVED FOR DISBURSEMENT
--------------------------------------
`

// Renderer produces sanction letter text.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the letter template. The template is static, so a
// parse failure is a programming error.
func NewRenderer() *Renderer {
	funcs := template.FuncMap{
		"rupees": func(v any) string {
			switch n := v.(type) {
			case float64:
				return domain.FormatRupees(n)
			case int64:
				return domain.FormatRupees(float64(n))
			}
			return fmt.Sprint(v)
		},
	}
	return &Renderer{
		tmpl: template.Must(template.New("sanction-letter").Funcs(funcs).Parse(letterTemplate)),
	}
}

// Render fills the sanction letter for one application.
func (r *Renderer) Render(letter Letter) (string, error) {
	var b strings.Builder
	if err := r.tmpl.Execute(&b, letter); err != nil {
		return "", fmt.Errorf("render sanction letter: %w", err)
	}
	return b.String(), nil
}
