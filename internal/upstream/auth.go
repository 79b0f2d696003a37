package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Login llama a auth/login con credenciales. No usa sesión ni refresh:
// un 401 acá significa credenciales inválidas, no sesión vencida.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return LoginResult{}, err
	}

	resp, err := c.send(ctx, http.MethodPost, "auth/login", body, "")
	if err != nil {
		requestsTotal.WithLabelValues("Login", "network_error").Inc()
		return LoginResult{}, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		drain(resp)
		requestsTotal.WithLabelValues("Login", "rejected").Inc()
		return LoginResult{}, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		requestsTotal.WithLabelValues("Login", "error").Inc()
		return LoginResult{}, decodeError(resp)
	}
	requestsTotal.WithLabelValues("Login", "200").Inc()

	defer resp.Body.Close()
	var env struct {
		Data LoginResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return LoginResult{}, fmt.Errorf("upstream: decode login response: %w", err)
	}
	if env.Data.AccessToken == "" || env.Data.RefreshToken == "" {
		return LoginResult{}, fmt.Errorf("upstream: login response missing tokens")
	}
	return env.Data, nil
}

// Profile trae el usuario actual desde user/profile.
func (c *Client) Profile(ctx context.Context, sess TokenCarrier) (User, error) {
	var env struct {
		Data User `json:"data"`
	}
	if err := c.do(ctx, sess, "Profile", http.MethodGet, "user/profile", nil, &env); err != nil {
		return User{}, err
	}
	return env.Data, nil
}

// TwoFactorSetup inicia el alta de 2FA para el usuario autenticado.
func (c *Client) TwoFactorSetup(ctx context.Context, sess TokenCarrier) (TwoFactorSetup, error) {
	var env struct {
		Data TwoFactorSetup `json:"data"`
	}
	if err := c.do(ctx, sess, "TwoFactorSetup", http.MethodPost, "auth/2fa/setup", nil, &env); err != nil {
		return TwoFactorSetup{}, err
	}
	return env.Data, nil
}

// TwoFactorVerify valida el código TOTP. En el flujo de login emite el par
// definitivo de tokens.
func (c *Client) TwoFactorVerify(ctx context.Context, sess TokenCarrier, code string) (LoginResult, error) {
	var env struct {
		Data LoginResult `json:"data"`
	}
	body := map[string]string{"code": code}
	if err := c.do(ctx, sess, "TwoFactorVerify", http.MethodPost, "auth/2fa/verify", body, &env); err != nil {
		return LoginResult{}, err
	}
	return env.Data, nil
}
