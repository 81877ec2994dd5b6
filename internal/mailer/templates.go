package mailer

import (
	"bytes"
	"html/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// LowStockItem is one row of the low-stock email.
type LowStockItem struct {
	Name     string
	Stock    float64
	Unit     string
	Critical bool
}

// LowStockData feeds the low-stock email template.
type LowStockData struct {
	Recipient         string
	Threshold         float64
	CriticalThreshold float64
	Items             []LowStockItem
	GeneratedAt       time.Time
}

const lowStockHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
<h2>Low raw material stock</h2>
<p>Hello {{ .Recipient | default "team" }},</p>
<p>{{ len .Items }} raw material{{ if ne (len .Items) 1 }}s are{{ else }} is{{ end }} below {{ .Threshold | int }} as of {{ dateInZone "2006-01-02 15:04" .GeneratedAt "UTC" }} UTC.</p>
<table cellpadding="6" style="border-collapse: collapse;">
<tr><th align="left">Material</th><th align="right">Stock</th><th align="left">Unit</th><th align="left">Status</th></tr>
{{- range .Items }}
<tr style="background: {{ if .Critical }}#fde2e2{{ else }}#fff4d6{{ end }};">
<td>{{ .Name }}</td><td align="right">{{ printf "%.2f" .Stock }}</td><td>{{ .Unit }}</td><td>{{ if .Critical }}CRITICAL{{ else }}WARNING{{ end }}</td>
</tr>
{{- end }}
</table>
<p>Materials below {{ .CriticalThreshold | int }} are marked critical.</p>
</body>
</html>
`

var lowStockTemplate = template.Must(template.New("low_stock").Funcs(sprig.HtmlFuncMap()).Parse(lowStockHTML))

// LowStockSubject is the subject line of the low-stock email.
const LowStockSubject = "Low raw material stock alert"

// RenderLowStock renders the low-stock email body.
func RenderLowStock(data LowStockData) (string, error) {
	var buf bytes.Buffer
	if err := lowStockTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
