package model

// CoverageRequest is a single coverage line requested in the broker email.
type CoverageRequest struct {
	CoverageType string `json:"coverage_type"`
	Limits       string `json:"limits,omitempty"`
	Details      string `json:"details,omitempty"`
}

// BrokerContact identifies the submitting broker.
type BrokerContact struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Brokerage string `json:"brokerage,omitempty"`
}

// ClientProfile is the structured output of email parsing. Numeric fields are
// nil when the email does not state them; zero means the email stated zero.
// Downstream estimation and defaulting key off that distinction.
type ClientProfile struct {
	ClientName          string            `json:"client_name"`
	IndustryDescription string            `json:"industry_description"`
	Location            string            `json:"location,omitempty"`
	AnnualRevenue       *float64          `json:"annual_revenue,omitempty"`
	EmployeeCount       *int              `json:"employee_count,omitempty"`
	YearsInBusiness     *int              `json:"years_in_business,omitempty"`
	CoverageRequested   []CoverageRequest `json:"coverage_requested,omitempty"`
	VehicleCount        *int              `json:"vehicle_count,omitempty"`
	PropertyValue       *float64          `json:"property_value,omitempty"`
	LossHistory         string            `json:"loss_history,omitempty"`
	EffectiveDate       string            `json:"effective_date,omitempty"`
	Urgency             string            `json:"urgency,omitempty"`
	Broker              *BrokerContact    `json:"broker,omitempty"`

	// RawEmail is always retained for traceability and is never empty.
	RawEmail string `json:"raw_email"`
}
