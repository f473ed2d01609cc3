package ui

import qrcode "github.com/skip2/go-qrcode"

// QR renders text as a QR code drawn with half-block characters, two
// modules per terminal row.
func QR(text string) (string, error) {
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}
