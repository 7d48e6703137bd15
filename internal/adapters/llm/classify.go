package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/ai-accountant/internal/domain"
)

// Classify maps a raw client error onto the backend error taxonomy.
func Classify(err error) *domain.BackendError {
	if err == nil {
		return nil
	}

	var be *domain.BackendError
	if errors.As(err, &be) {
		return be
	}
	if errors.Is(err, domain.ErrNotConfigured) {
		return &domain.BackendError{Kind: domain.KindNotConfigured, Err: err}
	}

	if code, status, ok := apiErrorCode(err); ok {
		switch {
		case code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED":
			return &domain.BackendError{Kind: domain.KindQuotaExceeded, Status: code, Err: err}
		default:
			return &domain.BackendError{Kind: domain.KindUnclassified, Status: code, Err: err}
		}
	}

	var (
		netErr net.Error
		urlErr *url.Error
	)
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return &domain.BackendError{Kind: domain.KindNetwork, Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "quota"):
		return &domain.BackendError{Kind: domain.KindQuotaExceeded, Status: http.StatusTooManyRequests, Err: err}
	case strings.Contains(msg, "network") || strings.Contains(msg, "fetch"):
		return &domain.BackendError{Kind: domain.KindNetwork, Err: err}
	default:
		return &domain.BackendError{Kind: domain.KindUnclassified, Err: err}
	}
}

func apiErrorCode(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Status, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Status, true
	}
	return 0, "", false
}
