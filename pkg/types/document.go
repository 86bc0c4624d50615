// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RiskLevel grades how much legal exposure a template carries.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Template is a named legal-document type with its ordered question catalog.
type Template struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Category    string     `json:"category" yaml:"category"`
	RiskLevel   RiskLevel  `json:"riskLevel" yaml:"risk_level"`
	Questions   []Question `json:"questions,omitempty" yaml:"questions"`
}

// Section is one titled block of generated document text.
type Section struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// GeneratedDocument is the output of content generation. A new generation
// always produces a new value; existing ones are never modified.
type GeneratedDocument struct {
	// TemplateID is the section template actually used.
	TemplateID string `json:"templateId" yaml:"template_id"`

	// Title is the document heading.
	Title string `json:"title" yaml:"title"`

	// Sections are in template definition order.
	Sections []Section `json:"sections" yaml:"sections"`

	// GeneratedAt records when generation ran.
	GeneratedAt time.Time `json:"generatedAt" yaml:"generated_at"`

	// Fallback is set when the requested template had no section template
	// and the default one was used instead.
	Fallback bool `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// DocumentStatus tracks a stored document through review and signing.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusReview    DocumentStatus = "review"
	StatusSigned    DocumentStatus = "signed"
	StatusCompleted DocumentStatus = "completed"
)

// Valid reports whether s is a known status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusReview, StatusSigned, StatusCompleted:
		return true
	}
	return false
}

// Document is a persisted drafting result.
type Document struct {
	ID           string            `json:"id" yaml:"id"`
	TemplateID   string            `json:"templateId" yaml:"template_id"`
	Title        string            `json:"title" yaml:"title"`
	Jurisdiction string            `json:"jurisdiction" yaml:"jurisdiction"`
	RiskLevel    RiskLevel         `json:"riskLevel,omitempty" yaml:"risk_level,omitempty"`
	Status       DocumentStatus    `json:"status" yaml:"status"`
	Content      GeneratedDocument `json:"content" yaml:"content"`
	Answers      Answers           `json:"answers" yaml:"answers"`
	CreatedAt    time.Time         `json:"createdAt" yaml:"created_at"`
	UpdatedAt    time.Time         `json:"updatedAt" yaml:"updated_at"`
}

// DocumentPatch lists the fields an update may change. Nil fields are kept.
type DocumentPatch struct {
	Title        *string            `json:"title,omitempty"`
	Status       *DocumentStatus    `json:"status,omitempty"`
	Jurisdiction *string            `json:"jurisdiction,omitempty"`
	Content      *GeneratedDocument `json:"content,omitempty"`
	Answers      Answers            `json:"answers,omitempty"`
}

// SignatureRequest carries what a signer submits.
type SignatureRequest struct {
	DocumentID    string `json:"documentId"`
	SignerID      string `json:"signerId,omitempty"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role,omitempty"`
	SignatureData string `json:"signatureData"`

	// IPAddress is the originating address as seen by the transport.
	IPAddress string `json:"-"`
}

// Signature is a stored electronic signature on a document.
type Signature struct {
	ID            string    `json:"id" yaml:"id"`
	DocumentID    string    `json:"documentId" yaml:"document_id"`
	SignerID      string    `json:"signerId,omitempty" yaml:"signer_id,omitempty"`
	Name          string    `json:"name" yaml:"name"`
	Email         string    `json:"email" yaml:"email"`
	Role          string    `json:"role,omitempty" yaml:"role,omitempty"`
	SignatureData string    `json:"signatureData" yaml:"signature_data"`
	IPAddress     string    `json:"ipAddress" yaml:"ip_address"`
	SignedAt      time.Time `json:"signedAt" yaml:"signed_at"`
}

// SignatureVerification reports the result of checking a stored signature.
type SignatureVerification struct {
	SignatureID string    `json:"signatureId"`
	IsValid     bool      `json:"isValid"`
	SignedAt    time.Time `json:"signedAt"`
	IPAddress   string    `json:"ipAddress"`
	VerifiedAt  time.Time `json:"verificationTimestamp"`
}
