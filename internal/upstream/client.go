// Package upstream implementa el fetch autenticado contra la API de
// plataforma: bearer del Session Store, refresh transparente ante 401 y
// retry único del request original.
//
// Invariantes que este paquete concentra (antes estaban dispersos por
// call-site en el dashboard original):
//   - un 401 dispara exactamente UN refresh y UN retry; un segundo 401
//     se propaga como ErrSessionExpired, nunca se reintenta en loop.
//   - refreshes concurrentes colapsan en uno solo (singleflight por
//     refresh token); todos los callers terminan con el mismo par nuevo.
//   - un refresh fallido invalida la sesión: el caller debe limpiar las
//     cookies y forzar re-login.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/tenantdesk/internal/observability/logger"
)

// TokenCarrier es la vista que el cliente necesita del Session Store:
// leer el par actual y reemplazarlo atómicamente tras un refresh.
// internal/session.Session la implementa.
type TokenCarrier interface {
	AccessToken() string
	RefreshToken() string
	SetTokens(access, refresh string)
}

// Client habla con la API de plataforma. Es seguro para uso concurrente
// y se comparte entre todos los requests del gateway.
type Client struct {
	base string // siempre con slash final
	http *http.Client
	sf   singleflight.Group
}

// New crea un cliente para la API en baseURL.
// El transporte queda instrumentado con otelhttp; si no hay exporter
// configurado los spans son no-op.
func New(baseURL string, timeout time.Duration) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	registerMetrics()
	return &Client{
		base: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// send arma y dispara un request. payload se conserva como []byte en el
// caller para poder re-emitir el body en el retry post-refresh.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, bearer string) (*http.Response, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: %s %s: %w", method, path, err)
	}
	return resp, nil
}

// do ejecuta un request autenticado con la política refresh-and-retry.
// Si out != nil, decodifica el body 2xx en out.
func (c *Client) do(ctx context.Context, sess TokenCarrier, op, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("upstream: encode %s: %w", op, err)
		}
		payload = b
	}

	resp, err := c.send(ctx, method, path, payload, sess.AccessToken())
	if err != nil {
		requestsTotal.WithLabelValues(op, "network_error").Inc()
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if sess.RefreshToken() == "" {
			requestsTotal.WithLabelValues(op, "401").Inc()
			return ErrUnauthenticated
		}

		access, err := c.refresh(ctx, sess)
		if err != nil {
			requestsTotal.WithLabelValues(op, "401").Inc()
			return err
		}

		logger.From(ctx).Debug("retrying after token refresh", logger.Op(op), logger.Upstream(path))
		resp, err = c.send(ctx, method, path, payload, access)
		if err != nil {
			requestsTotal.WithLabelValues(op, "network_error").Inc()
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			// Retry único: un segundo 401 es sesión muerta, no otro refresh.
			drain(resp)
			requestsTotal.WithLabelValues(op, "401").Inc()
			return ErrSessionExpired
		}
	}

	requestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		drain(resp)
		return nil
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("upstream: decode %s: %w", op, err)
	}
	return nil
}

type tokenPair struct {
	access  string
	refresh string
}

// refresh canjea el refresh token por un par nuevo en auth/access-token y
// actualiza la sesión. Concurrente-seguro: singleflight por refresh token,
// los callers que pierden la carrera reusan el resultado del ganador.
// Sin retry interno: un fallo acá es terminal para la sesión.
func (c *Client) refresh(ctx context.Context, sess TokenCarrier) (string, error) {
	rt := sess.RefreshToken()
	if rt == "" {
		return "", ErrSessionExpired
	}

	v, err, shared := c.sf.Do(rt, func() (any, error) {
		body, _ := json.Marshal(map[string]string{"refresh_token": rt})
		resp, err := c.send(ctx, http.MethodPost, "auth/access-token", body, rt)
		if err != nil {
			refreshTotal.WithLabelValues("network_error").Inc()
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			refreshTotal.WithLabelValues("rejected").Inc()
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("%w: refresh rejected with status %d", ErrSessionExpired, resp.StatusCode)
		}

		var env struct {
			Data struct {
				AccessToken  string `json:"access_token"`
				RefreshToken string `json:"refresh_token"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			refreshTotal.WithLabelValues("bad_response").Inc()
			return nil, fmt.Errorf("%w: decode refresh response: %v", ErrSessionExpired, err)
		}
		if env.Data.AccessToken == "" || env.Data.RefreshToken == "" {
			refreshTotal.WithLabelValues("bad_response").Inc()
			return nil, fmt.Errorf("%w: refresh response missing tokens", ErrSessionExpired)
		}

		refreshTotal.WithLabelValues("ok").Inc()
		return tokenPair{access: env.Data.AccessToken, refresh: env.Data.RefreshToken}, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		logger.From(ctx).Debug("token refresh shared with concurrent caller")
	}

	p := v.(tokenPair)
	// Reemplazo atómico del par: el refresh anterior quedó invalidado
	// por el upstream al rotar.
	sess.SetTokens(p.access, p.refresh)
	return p.access, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
