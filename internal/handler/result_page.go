package handler

import (
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
)

var resultPageTmpl = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Payment Result</title>
    <style>
        body { font-family: Arial, sans-serif; background: #f2f2f2; margin: 0; padding: 20px; display: flex; justify-content: center; align-items: center; min-height: 100vh; }
        .box { background: #fff; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); padding: 40px; text-align: center; max-width: 400px; width: 100%; }
        h1 { color: #333; margin-bottom: 20px; }
        p { color: #666; margin-bottom: 10px; }
    </style>
</head>
<body>
    <div class="box">
        <h1>{{.Title}}</h1>
        {{if .OrderID}}<p>Order: <span>#{{.OrderID}}</span></p>{{end}}
        <p>{{.Message}}</p>
    </div>
</body>
</html>`))

// renderResultPage is the fallback for the return channel when there is
// no order to redirect to.
func (h *CheckoutHandler) renderResultPage(c echo.Context, title, message string, orderID uint) error {
	data := map[string]interface{}{
		"Title":   title,
		"Message": message,
		"OrderID": orderID,
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return resultPageTmpl.Execute(c.Response().Writer, data)
}
