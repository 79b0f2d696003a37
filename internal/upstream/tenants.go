package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Tenants pide una página del directorio (offset/limit).
// El total reportado es el del conjunto remoto completo.
func (c *Client) Tenants(ctx context.Context, sess TokenCarrier, offset, limit int) (TenantPage, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var env struct {
		Data struct {
			Tenants []Tenant `json:"tenants"`
			Total   int      `json:"total"`
		} `json:"data"`
	}
	path := "master-admin/tenants/all?" + q.Encode()
	if err := c.do(ctx, sess, "Tenants", http.MethodGet, path, nil, &env); err != nil {
		return TenantPage{}, err
	}
	return TenantPage{Tenants: env.Data.Tenants, Total: env.Data.Total}, nil
}

// TenantStats trae los agregados de master-admin/tenants/stats.
func (c *Client) TenantStats(ctx context.Context, sess TokenCarrier) (Stats, error) {
	var env struct {
		Data Stats `json:"data"`
	}
	if err := c.do(ctx, sess, "TenantStats", http.MethodGet, "master-admin/tenants/stats", nil, &env); err != nil {
		return Stats{}, err
	}
	return env.Data, nil
}

// CreateTenant da de alta un tenant. La validación password==confirm es
// responsabilidad del caller ANTES de llegar acá: este método ya habla
// con la red.
func (c *Client) CreateTenant(ctx context.Context, sess TokenCarrier, nt NewTenant) (Tenant, error) {
	var env struct {
		Data Tenant `json:"data"`
	}
	if err := c.do(ctx, sess, "CreateTenant", http.MethodPost, "master-admin/tenants/create", nt, &env); err != nil {
		return Tenant{}, err
	}
	return env.Data, nil
}

// Tenant trae el detalle de un tenant por ID.
func (c *Client) Tenant(ctx context.Context, sess TokenCarrier, id int64) (Tenant, error) {
	var env struct {
		Data Tenant `json:"data"`
	}
	path := fmt.Sprintf("master-admin/tenants/%d", id)
	if err := c.do(ctx, sess, "Tenant", http.MethodGet, path, nil, &env); err != nil {
		return Tenant{}, err
	}
	return env.Data, nil
}

// UpdateTenant aplica un partial-update sobre un tenant.
func (c *Client) UpdateTenant(ctx context.Context, sess TokenCarrier, id int64, patch TenantPatch) (Tenant, error) {
	var env struct {
		Data Tenant `json:"data"`
	}
	path := fmt.Sprintf("master-admin/tenants/%d", id)
	if err := c.do(ctx, sess, "UpdateTenant", http.MethodPatch, path, patch, &env); err != nil {
		return Tenant{}, err
	}
	return env.Data, nil
}

// Healthz hace un GET liviano para readiness del gateway.
// Cualquier respuesta HTTP (aun 401) cuenta como "alcanzable".
func (c *Client) Healthz(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodGet, "healthz", nil, "")
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}
