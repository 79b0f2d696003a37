package upstream

// Tipos que viajan por la API de plataforma. El gateway nunca es dueño de
// estos datos: list/detail son copias de lectura, create/update van directo
// al upstream.

// User es el usuario autenticado, según user/profile.
type User struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	MiddleName    string `json:"middle_name"`
	LastName      string `json:"last_name"`
	PhoneNumber   string `json:"phone_number"`
	TwoFactorAuth bool   `json:"two_factor_auth"`
	Verified      bool   `json:"verified"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// Planes y estados válidos de un tenant.
const (
	PlanFree       = "free"
	PlanStandard   = "standard"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"

	BillingMonthly = "monthly"
	BillingYearly  = "yearly"

	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// Tenant es el registro de una organización cliente.
type Tenant struct {
	TenantID              int64   `json:"tenant_id"`
	CompanyName           string  `json:"company_name"`
	Address               string  `json:"address"`
	ContactPersonName     string  `json:"contact_person_name"`
	ContactPersonEmail    string  `json:"contact_person_email"`
	ContactPersonPhone    string  `json:"contact_person_phone"`
	ContactEmail          string  `json:"contact_email"`
	ContactPhone          string  `json:"contact_phone"`
	SubscriptionPlan      string  `json:"subscription_plan"`
	BillingCycle          string  `json:"billing_cycle"`
	Status                string  `json:"status"`
	CurrentSubscriptionID int64   `json:"current_subscription_id"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
	LastPaymentDate       *string `json:"last_payment_date"`
	NextPaymentDue        *string `json:"next_payment_due"`
}

// TenantPage es una página del directorio más el total remoto.
type TenantPage struct {
	Tenants []Tenant `json:"tenants"`
	Total   int      `json:"total"`
}

// NewTenant es el payload de master-admin/tenants/create.
type NewTenant struct {
	CompanyName             string `json:"company_name"`
	CompanyAddress          string `json:"company_address"`
	CompanyEmail            string `json:"company_email"`
	CompanyPhone            string `json:"company_phone"`
	ContactPersonFirstName  string `json:"contact_person_first_name"`
	ContactPersonMiddleName string `json:"contact_person_middle_name"`
	ContactPersonLastName   string `json:"contact_person_last_name"`
	ContactPersonEmail      string `json:"contact_person_email"`
	ContactPersonPhone      string `json:"contact_person_phone"`
	SubscriptionPlan        string `json:"subscription_plan"`
	BillingCycle            string `json:"billing_cycle"`
	Status                  string `json:"status"`
	Password                string `json:"password"`
	ConfirmPassword         string `json:"confirm_password"`
}

// TenantPatch es un partial-update: solo los campos no-nil viajan.
type TenantPatch struct {
	CompanyName        *string `json:"company_name,omitempty"`
	Address            *string `json:"address,omitempty"`
	ContactPersonName  *string `json:"contact_person_name,omitempty"`
	ContactPersonEmail *string `json:"contact_person_email,omitempty"`
	ContactPersonPhone *string `json:"contact_person_phone,omitempty"`
	ContactEmail       *string `json:"contact_email,omitempty"`
	ContactPhone       *string `json:"contact_phone,omitempty"`
	SubscriptionPlan   *string `json:"subscription_plan,omitempty"`
	BillingCycle       *string `json:"billing_cycle,omitempty"`
	Status             *string `json:"status,omitempty"`
}

// Stats son los agregados de master-admin/tenants/stats.
type Stats struct {
	TotalTenants          int `json:"total_tenants"`
	ActiveTenants         int `json:"active_tenants"`
	SuspendedTenants      int `json:"suspended_tenants"`
	InactiveTenants       int `json:"inactive_tenants"`
	FreePlanTenants       int `json:"free_plan_tenants"`
	StandardPlanTenants   int `json:"standard_plan_tenants"`
	EnterprisePlanTenants int `json:"enterprise_plan_tenants"`
	MonthlyBillingTenants int `json:"monthly_billing_tenants"`
	YearlyBillingTenants  int `json:"yearly_billing_tenants"`
}

// LoginResult es el resultado de auth/login (o de 2fa/verify).
type LoginResult struct {
	AccessToken       string `json:"access_token"`
	RefreshToken      string `json:"refresh_token"`
	RequiresTwoFactor bool   `json:"requires_two_factor"`
}

// TwoFactorSetup es el resultado de auth/2fa/setup.
type TwoFactorSetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

// ValidPlan reporta si plan es uno de los planes conocidos.
func ValidPlan(plan string) bool {
	switch plan {
	case PlanFree, PlanStandard, PlanPremium, PlanEnterprise:
		return true
	}
	return false
}

// ValidStatus reporta si status es un estado conocido.
func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// ValidBillingCycle reporta si cycle es un ciclo conocido.
func ValidBillingCycle(cycle string) bool {
	return cycle == BillingMonthly || cycle == BillingYearly
}
