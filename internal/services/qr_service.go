package services

import (
	"fmt"
	"strings"

	"github.com/halcyonlabel/backend/internal/config"
	qrcode "github.com/skip2/go-qrcode"
)

type QRService struct {
	cfg *config.Config
}

func NewQRService(cfg *config.Config) *QRService { return &QRService{cfg: cfg} }

// VerificationURL is the page a printed agreement's QR code points to.
func (s *QRService) VerificationURL(contractID string) string {
	return fmt.Sprintf("%s/contracts/%s", strings.TrimRight(s.cfg.FrontendURL, "/"), contractID)
}

// VerificationPNG encodes the verification URL for contractID as a PNG.
func (s *QRService) VerificationPNG(contractID string) ([]byte, error) {
	return qrcode.Encode(s.VerificationURL(contractID), qrcode.Medium, 256)
}
