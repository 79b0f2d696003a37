package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrUnauthenticated: no hay access token y el upstream rechazó el request.
	ErrUnauthenticated = errors.New("upstream: not authenticated")

	// ErrSessionExpired: el refresh falló o el retry post-refresh volvió a dar
	// 401. El caller debe limpiar el Session Store y forzar re-login.
	ErrSessionExpired = errors.New("upstream: session expired")

	// ErrInvalidCredentials: login rechazado por el upstream.
	ErrInvalidCredentials = errors.New("upstream: invalid credentials")

	// ErrNotFound: el recurso no existe (tenant inexistente, etc).
	ErrNotFound = errors.New("upstream: not found")
)

// APIError es el envelope de error del upstream:
// {"error": "...", "error_description": "...", "error_code": N}
type APIError struct {
	Status      int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	ErrCode     int    `json:"error_code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("upstream: %s (%s, status %d)", e.Code, e.Description, e.Status)
	}
	return fmt.Sprintf("upstream: %s (status %d)", e.Code, e.Status)
}

// decodeError mapea una respuesta non-2xx a un error tipado.
// Nunca se tragan fallas: todo status no exitoso produce un error que el
// handler traduce a su propia respuesta.
func decodeError(resp *http.Response) error {
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	apiErr := &APIError{Status: resp.StatusCode, Code: "upstream_error"}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(apiErr)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthenticated, apiErr.Code)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Code)
	}
	return apiErr
}
