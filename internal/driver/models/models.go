// Package models holds the driver-registry domain records and the request
// shapes that cross the trust boundary.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	dErrors "roadguard/pkg/domain-errors"
)

// Driver is the identity record. PasswordHash and QRPayload never leave the
// service layer unredacted.
type Driver struct {
	ID           uuid.UUID
	FullName     string
	NationalID   string
	HomeNumber   string
	FatherName   string
	MotherName   string
	Email        string
	PasswordHash string
	QRPayload    string // serialized QRPayload, empty until issued
	CreatedAt    time.Time
}

// EmergencyContact is ranked by priority; 1 is primary.
type EmergencyContact struct {
	ID       uuid.UUID
	DriverID uuid.UUID
	Name     string
	Phone    string
	Priority int
}

// Vehicle is the 1:1 current vehicle for a driver; the latest row by
// insertion order is authoritative.
type Vehicle struct {
	ID        uuid.UUID
	DriverID  uuid.UUID
	Plate     string
	Make      string
	Model     string
	Year      int // 0 means unknown
	CreatedAt time.Time
}

// Incident is an append-only public report referencing a driver.
type Incident struct {
	ID            uuid.UUID
	DriverID      uuid.UUID
	Type          string
	Description   string
	Location      string
	ReporterName  string
	ReporterPhone string
	Status        string
	CreatedAt     time.Time
}

// ScanEvent records one public resolution access. Appending it is always
// best-effort.
type ScanEvent struct {
	ID        uuid.UUID
	DriverID  uuid.UUID
	UserAgent string
	Browser   string
	OS        string
	IP        string
	CreatedAt time.Time
}

// QRPayload is the structured data embedded in the scannable code.
type QRPayload struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	NationalID string `json:"nationalId"`
	URL        string `json:"url"`
}

// EmergencyContactInput is one contact supplied at registration. A contact
// with both fields empty is omitted.
type EmergencyContactInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (c EmergencyContactInput) Empty() bool {
	return c.Name == "" && c.Phone == ""
}

// RegistrationRequest carries the public onboarding form.
type RegistrationRequest struct {
	FullName   string `json:"fullName"`
	NationalID string `json:"nationalId"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	HomeNumber string `json:"homeNumber"`
	FatherName string `json:"fatherName"`
	MotherName string `json:"motherName"`

	EmergencyContacts []EmergencyContactInput `json:"emergencyContacts"`

	Plate string `json:"plate"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  any    `json:"year"` // number or string; coerced, absent when non-numeric
}

// Normalize trims every field and lowercases the email before validation.
func (r *RegistrationRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.NationalID = strings.TrimSpace(r.NationalID)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.HomeNumber = strings.TrimSpace(r.HomeNumber)
	r.FatherName = strings.TrimSpace(r.FatherName)
	r.MotherName = strings.TrimSpace(r.MotherName)
	for i := range r.EmergencyContacts {
		r.EmergencyContacts[i].Name = strings.TrimSpace(r.EmergencyContacts[i].Name)
		r.EmergencyContacts[i].Phone = strings.TrimSpace(r.EmergencyContacts[i].Phone)
	}
	r.Plate = strings.ToUpper(strings.TrimSpace(r.Plate))
	r.Make = strings.TrimSpace(r.Make)
	r.Model = strings.TrimSpace(r.Model)
}

// Validate enforces required fields after normalization.
func (r *RegistrationRequest) Validate() error {
	switch {
	case r.FullName == "":
		return dErrors.New(dErrors.CodeValidation, "fullName is required")
	case r.NationalID == "":
		return dErrors.New(dErrors.CodeValidation, "nationalId is required")
	case r.Email == "":
		return dErrors.New(dErrors.CodeValidation, "email is required")
	case strings.TrimSpace(r.Password) == "":
		return dErrors.New(dErrors.CodeValidation, "password is required")
	case len(r.EmergencyContacts) > 2:
		return dErrors.New(dErrors.CodeValidation, "at most two emergency contacts are allowed")
	}
	return nil
}

// VehicleYear coerces the year field; zero means absent.
func (r *RegistrationRequest) VehicleYear() int {
	return coerceYear(r.Year)
}

// HasVehicle reports whether any vehicle field was supplied.
func (r *RegistrationRequest) HasVehicle() bool {
	return r.Plate != "" || r.Make != "" || r.Model != "" || r.VehicleYear() != 0
}

// VehicleUpdateRequest is the driver-scoped vehicle upsert payload.
type VehicleUpdateRequest struct {
	Plate string `json:"plate"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  any    `json:"year"`
}

func (r *VehicleUpdateRequest) Normalize() {
	r.Plate = strings.ToUpper(strings.TrimSpace(r.Plate))
	r.Make = strings.TrimSpace(r.Make)
	r.Model = strings.TrimSpace(r.Model)
}

func (r *VehicleUpdateRequest) VehicleYear() int {
	return coerceYear(r.Year)
}

// IncidentRequest is the public incident report payload.
type IncidentRequest struct {
	DriverID      string `json:"driverId"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	Location      string `json:"location"`
	ReporterName  string `json:"reporterName"`
	ReporterPhone string `json:"reporterPhone"`
	Status        string `json:"status"`
}

func (r *IncidentRequest) Normalize() {
	r.DriverID = strings.TrimSpace(r.DriverID)
	r.Type = strings.TrimSpace(r.Type)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	r.ReporterName = strings.TrimSpace(r.ReporterName)
	r.ReporterPhone = strings.TrimSpace(r.ReporterPhone)
	r.Status = strings.TrimSpace(r.Status)
	if r.Status == "" {
		r.Status = "pending"
	}
}

func (r *IncidentRequest) Validate() error {
	if r.DriverID == "" {
		return dErrors.New(dErrors.CodeValidation, "driverId is required")
	}
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	return nil
}

func coerceYear(v any) int {
	if v == nil {
		return 0
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return 0
	}
	return cast.ToInt(v)
}
