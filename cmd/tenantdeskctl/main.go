package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// savedSession es el par de cookies persistido en disco entre invocaciones.
type savedSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type client struct {
	BaseURL     string
	OutFormat   string // "json" | "text"
	SessionFile string
	// Nombres de cookie del gateway; deben coincidir con
	// session.access_cookie / session.refresh_cookie del server.
	AccessCookie  string
	RefreshCookie string
	HTTP          *http.Client
}

func (c *client) loadSession() savedSession {
	var s savedSession
	b, err := os.ReadFile(c.SessionFile)
	if err != nil {
		return s
	}
	_ = json.Unmarshal(b, &s)
	return s
}

func (c *client) saveSession(s savedSession) error {
	if err := os.MkdirAll(filepath.Dir(c.SessionFile), 0o700); err != nil {
		return err
	}
	b, _ := json.MarshalIndent(s, "", "  ")
	return os.WriteFile(c.SessionFile, b, 0o600)
}

func (c *client) clearSession() {
	_ = os.Remove(c.SessionFile)
}

// do manda el request con las cookies de sesión guardadas y persiste
// cualquier cookie nueva que el gateway devuelva (rotación de tokens).
func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	sess := c.loadSession()
	if sess.AccessToken != "" {
		req.AddCookie(&http.Cookie{Name: c.AccessCookie, Value: sess.AccessToken})
	}
	if sess.RefreshToken != "" {
		req.AddCookie(&http.Cookie{Name: c.RefreshCookie, Value: sess.RefreshToken})
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	rotated := false
	for _, ck := range resp.Cookies() {
		switch ck.Name {
		case c.AccessCookie:
			sess.AccessToken = ck.Value
			rotated = true
		case c.RefreshCookie:
			sess.RefreshToken = ck.Value
			rotated = true
		}
	}
	if rotated {
		if sess.AccessToken == "" && sess.RefreshToken == "" {
			c.clearSession()
		} else if err := c.saveSession(sess); err != nil {
			fmt.Fprintln(os.Stderr, "warning: no se pudo guardar la sesión:", err)
		}
	}
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	home, _ := os.UserHomeDir()
	var (
		baseURL       = envOr("TENANTDESK_URL", "http://localhost:8080")
		out           = envOr("TENANTDESK_OUT", "text")
		sessionFile   = envOr("TENANTDESK_SESSION", filepath.Join(home, ".tenantdesk", "session.json"))
		accessCookie  = envOr("TENANTDESK_ACCESS_COOKIE", "access_token")
		refreshCookie = envOr("TENANTDESK_REFRESH_COOKIE", "refresh_token")
		timeout       = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "tenantdeskctl",
		Short: "CLI para el gateway TenantDesk",
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del gateway (env TENANTDESK_URL)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")
	root.PersistentFlags().StringVar(&sessionFile, "session-file", sessionFile, "Archivo de sesión (env TENANTDESK_SESSION)")
	root.PersistentFlags().StringVar(&accessCookie, "access-cookie", accessCookie, "Nombre de la cookie de acceso del gateway (env TENANTDESK_ACCESS_COOKIE)")
	root.PersistentFlags().StringVar(&refreshCookie, "refresh-cookie", refreshCookie, "Nombre de la cookie de refresco del gateway (env TENANTDESK_REFRESH_COOKIE)")

	cl := &client{
		BaseURL:       baseURL,
		OutFormat:     out,
		SessionFile:   sessionFile,
		AccessCookie:  accessCookie,
		RefreshCookie: refreshCookie,
		HTTP:          &http.Client{Timeout: timeout},
	}
	cobra.OnInitialize(func() {
		cl.BaseURL = baseURL
		cl.OutFormat = out
		cl.SessionFile = sessionFile
		cl.AccessCookie = accessCookie
		cl.RefreshCookie = refreshCookie
	})

	// login
	var loginEmail, loginPassword string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Iniciar sesión y guardar las cookies localmente",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginEmail == "" || loginPassword == "" {
				return fmt.Errorf("--email y --password son requeridos")
			}
			b, _ := json.Marshal(map[string]string{"email": loginEmail, "password": loginPassword})
			status, body, err := cl.do("POST", "/api/auth/login", b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("login fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email del admin")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password")

	// logout
	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Cerrar sesión y borrar las cookies locales",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/api/auth/logout", nil)
			if err != nil {
				return err
			}
			cl.clearSession()
			if status/100 != 2 {
				return fmt.Errorf("logout fallo: status=%d body=%s", status, string(body))
			}
			fmt.Println("ok")
			return nil
		},
	}

	// session
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Mostrar el perfil de la sesión actual",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/api/session", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("session fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	// tenants
	tenantsCmd := &cobra.Command{Use: "tenants", Short: "Operaciones sobre tenants"}

	var listOffset, listLimit int
	var listQuery, listStatus, listPlan string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Listar tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/tenants?offset=%d&limit=%d", listOffset, listLimit)
			if listQuery != "" {
				path += "&q=" + listQuery
			}
			if listStatus != "" {
				path += "&status=" + listStatus
			}
			if listPlan != "" {
				path += "&plan=" + listPlan
			}
			status, body, err := cl.do("GET", path, nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("list fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Offset de paginación")
	listCmd.Flags().IntVar(&listLimit, "limit", 100, "Límite de resultados")
	listCmd.Flags().StringVar(&listQuery, "q", "", "Búsqueda por nombre/contacto/email")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filtrar por estado")
	listCmd.Flags().StringVar(&listPlan, "plan", "", "Filtrar por plan")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Detalle de un tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/api/tenants/"+args[0], nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("get fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	var createFile string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Crear un tenant desde un JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if createFile == "" {
				return fmt.Errorf("--file es requerido (JSON con los datos del tenant)")
			}
			b, err := os.ReadFile(createFile)
			if err != nil {
				return err
			}
			status, body, err := cl.do("POST", "/api/tenants", b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("create fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	createCmd.Flags().StringVar(&createFile, "file", "", "Archivo JSON con el payload del tenant")

	var updateFile string
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Actualizar un tenant desde un JSON parcial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if updateFile == "" {
				return fmt.Errorf("--file es requerido (JSON parcial)")
			}
			b, err := os.ReadFile(updateFile)
			if err != nil {
				return err
			}
			status, body, err := cl.do("PATCH", "/api/tenants/"+args[0], b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("update fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	updateCmd.Flags().StringVar(&updateFile, "file", "", "Archivo JSON con los campos a cambiar")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Métricas agregadas de tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/api/tenants/stats", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("stats fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	tenantsCmd.AddCommand(listCmd, getCmd, createCmd, updateCmd, statsCmd)
	root.AddCommand(loginCmd, logoutCmd, sessionCmd, tenantsCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
