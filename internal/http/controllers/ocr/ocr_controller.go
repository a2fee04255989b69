// Package ocr contiene el controller que contrasta texto de documentos con
// lo declarado en el wizard.
package ocr

import (
	"net/http"
	"strings"

	"github.com/manasv777/investiq-hacknc/internal/http/dto"
	httperrors "github.com/manasv777/investiq-hacknc/internal/http/errors"
	"github.com/manasv777/investiq-hacknc/internal/http/helpers"
	"github.com/manasv777/investiq-hacknc/internal/ocr"
)

type OCRController struct{}

func NewOCRController() *OCRController { return &OCRController{} }

// Scan maneja POST /api/ocr/scan. El reconocimiento de imagen ocurre en el
// cliente; acá solo llega el texto.
func (c *OCRController) Scan(w http.ResponseWriter, r *http.Request) {
	var req dto.OCRScanRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("text"))
		return
	}

	fields := ocr.ExtractFields(req.Text)
	m := ocr.MatchScore(fields, ocr.Claimed{Name: req.Name, DOB: req.DOB, Address: req.Address})
	helpers.WriteJSON(w, http.StatusOK, dto.OCRScanResponse{
		Extracted: fields,
		Match:     m,
		Passed:    ocr.Verdict(m.Score),
	})
}
