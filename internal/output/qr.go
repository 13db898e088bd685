package output

import (
	"io"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

// QRConfig configures QR code rendering.
type QRConfig struct {
	// Level is the error correction level.
	Level qr.Level
	// QuietZone is the number of empty blocks around the QR code.
	QuietZone int
	// HalfBlocks uses half-height blocks for a more compact display.
	HalfBlocks bool
	// Force renders even when the writer is not a terminal.
	Force bool
}

// DefaultQRConfig returns defaults for terminal QR rendering. Byron
// addresses are long, so medium error correction keeps scans reliable.
func DefaultQRConfig() QRConfig {
	return QRConfig{
		Level:      qr.M,
		QuietZone:  1,
		HalfBlocks: true,
	}
}

// CanRenderQR checks if the output writer is a terminal suitable for QR rendering.
func CanRenderQR(w io.Writer) bool {
	return isTerminal(w)
}

// RenderQR renders data as a QR code. Without Force nothing is written
// unless w is a terminal.
func RenderQR(w io.Writer, data string, cfg QRConfig) error {
	if w == nil || (!cfg.Force && !CanRenderQR(w)) {
		return nil
	}

	if _, err := qr.Encode(data, cfg.Level); err != nil {
		return err
	}

	qrterminal.GenerateWithConfig(data, qrterminal.Config{
		Level:          cfg.Level,
		Writer:         w,
		QuietZone:      cfg.QuietZone,
		HalfBlocks:     cfg.HalfBlocks,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})
	return nil
}
