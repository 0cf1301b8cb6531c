package handlers

import "html/template"

var paymentFormTmpl = template.Must(template.New("payment").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Redirecting to payment</title></head>
<body onload="document.forms[0].submit()">
<p>Redirecting to the payment gateway...</p>
<form method="POST" action="{{.Action}}">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
<noscript><button type="submit">Continue to payment</button></noscript>
</form>
</body>
</html>
`))

type receipt struct {
	OrderID     string
	Amount      string
	Saved       string
	LockedUntil string
	Duplicate   bool
}

var receiptTmpl = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Payment received</title></head>
<body>
{{- if .Duplicate}}
<h1>Payment already recorded</h1>
<p>Order {{.OrderID}} was recorded earlier. Nothing was changed.</p>
{{- else}}
<h1>Payment successful</h1>
<p>Order {{.OrderID}}: paid {{.Amount}}, saved {{.Saved}}.</p>
<p>Your saving is locked until {{.LockedUntil}}.</p>
{{- end}}
</body>
</html>
`))
