package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"marzban-go/internal/constants"
)

// QRService renders subscription links as PNG QR codes.
type QRService struct {
	logger *logrus.Logger
	size   int
}

// NewQRService creates a QR renderer producing size x size images. A
// non-positive size selects constants.DefaultQRSize.
func NewQRService(logger *logrus.Logger, size int) *QRService {
	if size <= 0 {
		size = constants.DefaultQRSize
	}
	return &QRService{
		logger: logger,
		size:   size,
	}
}

// Encode returns the PNG QR code of link.
func (s *QRService) Encode(link string) ([]byte, error) {
	s.logger.Debugf("Encoding %dpx subscription QR for %s", s.size, link)

	png, err := qrcode.Encode(link, qrcode.Medium, s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR for %s: %w", link, err)
	}
	return png, nil
}

// WriteFile writes the PNG QR code of link to path.
func (s *QRService) WriteFile(link, path string) error {
	s.logger.Debugf("Writing subscription QR to %s", path)

	if err := qrcode.WriteFile(link, qrcode.Medium, s.size, path); err != nil {
		return fmt.Errorf("failed to write QR to %s: %w", path, err)
	}
	return nil
}
