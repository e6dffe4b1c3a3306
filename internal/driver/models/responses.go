package models

import "time"

// DriverSummary is the caller-visible slice of a driver record.
type DriverSummary struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	NationalID string    `json:"nationalId"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"createdAt"`
}

// VehicleSummary mirrors the vehicle fields a caller may see.
type VehicleSummary struct {
	Plate string `json:"plate,omitempty"`
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
	Year  int    `json:"year,omitempty"`
}

// RegistrationResult is returned on successful onboarding.
type RegistrationResult struct {
	Driver    DriverSummary   `json:"driver"`
	Vehicle   *VehicleSummary `json:"vehicle"`
	QRImage   string          `json:"qrImage"`
	QRPayload QRPayload       `json:"qrPayload"`
}

// PublicProfile is the public-safe driver view served to the emergency page.
// It deliberately carries no credential material and no raw code payload.
type PublicProfile struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	NationalID string    `json:"nationalId"`
	HomeNumber string    `json:"homeNumber,omitempty"`
	FatherName string    `json:"fatherName,omitempty"`
	MotherName string    `json:"motherName,omitempty"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PublicContact is the single highest-priority emergency contact.
type PublicContact struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Priority int    `json:"priority"`
}

// Resolution is the full public resolver response.
type Resolution struct {
	Driver  PublicProfile   `json:"driver"`
	Contact *PublicContact  `json:"contact"`
	Vehicle *VehicleSummary `json:"vehicle"`
}

// MeProfile is the driver's own profile view; it includes the issued code
// payload but never the credential hash.
type MeProfile struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	NationalID string    `json:"nationalId"`
	HomeNumber string    `json:"homeNumber,omitempty"`
	FatherName string    `json:"fatherName,omitempty"`
	MotherName string    `json:"motherName,omitempty"`
	Email      string    `json:"email"`
	QRPayload  string    `json:"qrPayload,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MyQRResult is the driver-scoped QR re-issue response.
type MyQRResult struct {
	QRImage   string `json:"qrImage"`
	QRPayload string `json:"qrPayload,omitempty"`
	URL       string `json:"url"`
}

// DriverFilter narrows the admin driver listing.
type DriverFilter struct {
	Query    string
	Make     string
	DateFrom string // YYYY-MM-DD inclusive
	DateTo   string // YYYY-MM-DD inclusive
	Page     int
	PageSize int
}

// Clamp bounds pagination to sane values.
func (f *DriverFilter) Clamp() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 10
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}

// AdminDriverRow is one row of the admin listing, joined with the latest
// vehicle.
type AdminDriverRow struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	NationalID string    `json:"nationalId"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"createdAt"`
	Make       string    `json:"make,omitempty"`
	Model      string    `json:"model,omitempty"`
	Year       int       `json:"year,omitempty"`
	Plate      string    `json:"plate,omitempty"`
}

// DriverPage is the paginated admin listing.
type DriverPage struct {
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Drivers  []AdminDriverRow `json:"drivers"`
}

// AdminIncidentRow is one row of the admin incident listing.
type AdminIncidentRow struct {
	ID          string    `json:"id"`
	DriverName  string    `json:"driverName"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}
