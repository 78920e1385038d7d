package utils

import "github.com/skip2/go-qrcode"

const qrSize = 256

// OrderQRCode renders the code shown at the pickup counter. It encodes the tracking
// link, or the order number when there is none.
func OrderQRCode(data OrderEmailData) ([]byte, error) {
	content := data.TrackingLink
	if content == "" {
		content = data.OrderNumber
	}
	return qrcode.Encode(content, qrcode.High, qrSize)
}
