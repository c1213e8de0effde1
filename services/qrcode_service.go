package services

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const qrCodeSize = 256

type QRCodeService struct {
	BaseURL string
}

func NewQRCodeService(baseURL string) *QRCodeService {
	return &QRCodeService{BaseURL: strings.TrimRight(baseURL, "/")}
}

// TableURL is the menu page a table's code points to
func (s *QRCodeService) TableURL(restaurantID, tableID int64) string {
	return fmt.Sprintf("%s/restaurant/%d/table/%d/menu", s.BaseURL, restaurantID, tableID)
}

// TableQRCode -> PNG of TableURL
func (s *QRCodeService) TableQRCode(restaurantID, tableID int64) ([]byte, error) {
	return qrcode.Encode(s.TableURL(restaurantID, tableID), qrcode.Medium, qrCodeSize)
}
