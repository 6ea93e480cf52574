package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"caixa/internal/core"
	"caixa/internal/middleware/trace"
	"caixa/internal/services"
)

const maxBodyBytes = 1 << 20

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error":      msg,
		"request_id": trace.GetRequestID(r.Context()),
	})
}

// respondServiceError maps service and domain errors onto HTTP status
// codes. Unknown errors are logged and returned as opaque 500s.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrPlanNotFound):
		respondError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrStaleNavigation):
		respondError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrNoOpenMonth):
		respondError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrWrongMonth),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyPlatform),
		errors.Is(err, core.ErrEmptyCardID),
		errors.Is(err, core.ErrInvalidRecurrence),
		errors.Is(err, core.ErrInvalidInstallments),
		errors.Is(err, core.ErrInstallmentIndex),
		errors.Is(err, core.ErrInvalidDueDay):
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"path", r.URL.Path,
			"error", err)
		respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a size-limited JSON body into dst, rejecting unknown
// fields so typos surface as 400s instead of silent zero values.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// sanitizeInput trims whitespace and strips control characters from
// user-entered text fields.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s)
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return core.Date{Time: t}, nil
}

// paymentRequest is the wire form of a payment method.
type paymentRequest struct {
	Kind   string `json:"kind"`
	CardID string `json:"cardId,omitempty"`
}

func (p paymentRequest) toDomain() (core.PaymentMethod, error) {
	switch core.PaymentKind(p.Kind) {
	case core.PaymentCash, "":
		return core.Cash(), nil
	case core.PaymentCard:
		method := core.Card(sanitizeInput(p.CardID))
		return method, method.Validate()
	default:
		return core.PaymentMethod{}, fmt.Errorf("unknown payment kind %q", p.Kind)
	}
}

// parseMoney converts a user-entered decimal string to Money with
// strict validation.
func parseMoney(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

func parseOptionalMoney(s string) (core.Money, error) {
	cents, err := core.ParseOptionalCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}
