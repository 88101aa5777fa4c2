package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"github.com/rohitdesai-dev/gatepass/internal/codec"
)

const qrSize = 256

// SeatQR handles GET /checkin/{code}/qr.png
//
// Renders the redemption code as a scannable PNG. The code is
// validated (and the seat resolved) before rendering so the endpoint
// cannot be used to mint images for codes that do not exist.
func (h *Handler) SeatQR(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if _, _, err := codec.Decode(code); err != nil {
		writeServiceError(w, err)
		return
	}
	if _, err := h.checkin.Lookup(r.Context(), code); err != nil {
		writeServiceError(w, err)
		return
	}

	png, err := qrcode.Encode(code, qrcode.Medium, qrSize)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
