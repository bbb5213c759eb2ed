package artifact

import (
	"encoding/base64"
	"fmt"
	"html"

	qrcode "github.com/skip2/go-qrcode"
)

// Item is one certificate to render: its identifier and the claim URL its
// QR code encodes.
type Item struct {
	CertificateID uint
	ClaimURL      string
}

// Renderer produces printable certificate documents and bundles them.
type Renderer struct {
	qrSize int
}

func NewRenderer() *Renderer {
	return &Renderer{qrSize: 256}
}

// RenderDocument renders one A4 SVG certificate embedding the batch name,
// description, certificate id and the claim QR code as an inline PNG.
func (r *Renderer) RenderDocument(item Item, name, description string) ([]byte, error) {
	png, err := qrcode.Encode(item.ClaimURL, qrcode.Medium, r.qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode claim QR for certificate %d: %w", item.CertificateID, err)
	}
	qrDataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	svg := fmt.Sprintf(`<svg width="210mm" height="297mm" xmlns="http://www.w3.org/2000/svg">
  <rect width="100%%" height="100%%" fill="#fdfdfd" />

  <rect x="15mm" y="15mm" width="180mm" height="267mm" fill="none" stroke="#4a90e2" stroke-width="5"/>
  <rect x="20mm" y="20mm" width="170mm" height="257mm" fill="none" stroke="#dcdcdc" stroke-width="3"/>

  <text x="50%%" y="30mm" font-family="Georgia" font-size="36" fill="#333" text-anchor="middle">
    Authartic Certificate Information
  </text>

  <text x="50%%" y="70mm" font-family="Arial" font-size="24" fill="#4a90e2" text-anchor="middle">
    Name: %s
  </text>

  <text x="50%%" y="90mm" font-family="Arial" font-size="20" fill="#333" text-anchor="middle" font-style="italic">
    Description: %s
  </text>

  <text x="50%%" y="110mm" font-family="Arial" font-size="18" fill="#666" text-anchor="middle">
    ID: %d
  </text>

  <image x="50%%" y="140mm" width="50mm" height="50mm" href="%s" transform="translate(-25mm)" />

  <line x1="20mm" y1="260mm" x2="190mm" y2="260mm" stroke="#dcdcdc" stroke-width="2" />

  <text x="50%%" y="275mm" font-family="Arial" font-size="14" fill="#999" text-anchor="middle">
    This certificate is proudly presented to %s.
  </text>
</svg>
`,
		html.EscapeString(name),
		html.EscapeString(description),
		item.CertificateID,
		qrDataURL,
		html.EscapeString(name),
	)
	return []byte(svg), nil
}

// RenderBatch renders one document per item and packages them into a single
// zip archive.
func (r *Renderer) RenderBatch(items []Item, name, description string) ([]byte, error) {
	docs := make([][]byte, 0, len(items))
	for _, item := range items {
		doc, err := r.RenderDocument(item, name, description)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return buildArchive(docs)
}
