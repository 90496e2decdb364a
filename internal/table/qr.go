package table

import (
	"github.com/skip2/go-qrcode"

	"ms-ordering/internal/models"
)

// TableQR renders the PNG a restaurant prints and sticks on the table.
// The QR encodes only the public scan URL; the code itself is opaque and
// resolved server-side.
func TableQR(table models.Table, baseURL string) ([]byte, error) {
	return qrcode.Encode(ScanURL(table, baseURL), qrcode.Medium, 256)
}

// ScanURL is the public URL a customer's phone opens after scanning.
func ScanURL(table models.Table, baseURL string) string {
	return baseURL + "/scan/" + table.ScanCode
}
