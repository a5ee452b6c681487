// ABOUTME: Terminal QR code rendering for otpauth:// URIs
// ABOUTME: Encodes with boombuler/barcode and draws with Unicode half blocks

package main

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/boombuler/barcode/qr"
	"github.com/fatih/color"

	"github.com/andreax79/freakotp/internal/otp"
)

// printQRCode writes a token's name and its provisioning URI as a
// scannable QR code.
func printQRCode(w io.Writer, token *otp.Token, invert bool) error {
	color.New(color.FgGreen).Fprintln(w, token.String())
	code, err := qr.Encode(token.URI(), qr.M, qr.Auto)
	if err != nil {
		return fmt.Errorf("encoding qr code: %w", err)
	}
	fmt.Fprint(w, asciiQR(code, invert))
	return nil
}

// asciiQR renders a QR image two modules per text row using half
// blocks, with a quiet zone around the code. By default dark modules
// are drawn as blocks; invert swaps foreground and background for
// dark terminals.
func asciiQR(img image.Image, invert bool) string {
	bounds := img.Bounds()
	const quiet = 2

	dark := func(x, y int) bool {
		d := false
		if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			r, _, _, _ := img.At(x, y).RGBA()
			d = r < 0x8000
		}
		if invert {
			d = !d
		}
		return d
	}

	var b strings.Builder
	for y := bounds.Min.Y - quiet; y < bounds.Max.Y+quiet; y += 2 {
		for x := bounds.Min.X - quiet; x < bounds.Max.X+quiet; x++ {
			top, bottom := dark(x, y), dark(x, y+1)
			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteRune(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
