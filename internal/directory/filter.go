// Package directory implementa el filtrado/paginado del directorio de
// tenants tal como lo hace la vista: sobre UNA página ya traída del
// upstream, no sobre la colección remota completa.
//
// Ese alcance es deliberadamente fiel al dashboard original. Es un bug
// latente conocido (los filtros nunca ven más que la página en memoria);
// no lo "arreglamos" adivinando un contrato server-side que no existe.
package directory

import (
	"strings"

	"github.com/dropDatabas3/tenantdesk/internal/upstream"
)

// Filter aplica texto + status + plan sobre la página dada.
// query matchea (case-insensitive) company_name, contact_person_name y
// contact_email. status/plan vacíos o "all" no filtran.
func Filter(tenants []upstream.Tenant, query, status, plan string) []upstream.Tenant {
	query = strings.ToLower(strings.TrimSpace(query))
	status = normalize(status)
	plan = normalize(plan)

	out := make([]upstream.Tenant, 0, len(tenants))
	for _, t := range tenants {
		if query != "" && !matchesQuery(t, query) {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		if plan != "" && t.SubscriptionPlan != plan {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Page recorta una página 1-based de perPage elementos sobre la lista ya
// filtrada. Retorna la página y el total filtrado.
func Page(tenants []upstream.Tenant, page, perPage int) ([]upstream.Tenant, int) {
	if perPage <= 0 {
		perPage = 5
	}
	if page <= 0 {
		page = 1
	}
	total := len(tenants)
	start := (page - 1) * perPage
	if start >= total {
		return []upstream.Tenant{}, total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return tenants[start:end], total
}

func normalize(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "all" {
		return ""
	}
	return v
}

func matchesQuery(t upstream.Tenant, q string) bool {
	return strings.Contains(strings.ToLower(t.CompanyName), q) ||
		strings.Contains(strings.ToLower(t.ContactPersonName), q) ||
		strings.Contains(strings.ToLower(t.ContactEmail), q)
}
