package models

import (
	"encoding/json"
	"fmt"

	"dcx/pkg/validation"
)

// CredentialManifest describes one credential this issuer can provide and
// the presentation an applicant must submit to get it.
type CredentialManifest struct {
	ID                     string                  `json:"id"`
	SpecVersion            string                  `json:"spec_version,omitempty"`
	Version                string                  `json:"version,omitempty"`
	Name                   string                  `json:"name,omitempty"`
	Description            string                  `json:"description,omitempty"`
	Issuer                 Issuer                  `json:"issuer"`
	OutputDescriptors      []OutputDescriptor      `json:"output_descriptors"`
	Format                 map[string]Format       `json:"format,omitempty"`
	PresentationDefinition *PresentationDefinition `json:"presentation_definition,omitempty"`
}

type Issuer struct {
	ID     string          `json:"id"`
	Name   string          `json:"name,omitempty"`
	Styles json.RawMessage `json:"styles,omitempty"`
}

type OutputDescriptor struct {
	ID          string          `json:"id"`
	Schema      string          `json:"schema"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Display     json.RawMessage `json:"display,omitempty"`
	Styles      json.RawMessage `json:"styles,omitempty"`
}

// Format lists the algorithms accepted for one claim format (jwt_vc, ldp_vc, ...).
type Format struct {
	Alg       []string `json:"alg,omitempty"`
	ProofType []string `json:"proof_type,omitempty"`
}

// PresentationDefinition is a DIF presentation-exchange definition. It is
// treated as a value: consumers copy, never mutate.
type PresentationDefinition struct {
	ID                     string                   `json:"id"`
	Name                   string                   `json:"name,omitempty"`
	Purpose                string                   `json:"purpose,omitempty"`
	Format                 map[string]Format        `json:"format,omitempty"`
	SubmissionRequirements []*SubmissionRequirement `json:"submission_requirements,omitempty"`
	InputDescriptors       []InputDescriptor        `json:"input_descriptors"`
}

// InputDescriptor describes one credential a presentation must contain.
type InputDescriptor struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	Purpose     string            `json:"purpose,omitempty"`
	Group       []string          `json:"group,omitempty"`
	Format      map[string]Format `json:"format,omitempty"`
	Constraints *Constraints      `json:"constraints,omitempty"`
}

type Constraints struct {
	LimitDisclosure string  `json:"limit_disclosure,omitempty"`
	Fields          []Field `json:"fields,omitempty"`
}

// Field selects a value by the first matching JSONPath in Path and, when
// Filter is set, requires it to validate against that JSON Schema.
type Field struct {
	ID       string          `json:"id,omitempty"`
	Path     []string        `json:"path"`
	Purpose  string          `json:"purpose,omitempty"`
	Name     string          `json:"name,omitempty"`
	Optional bool            `json:"optional,omitempty"`
	Filter   json.RawMessage `json:"filter,omitempty"`
}

// Selection rules for submission requirements.
const (
	RuleAll  = "all"
	RulePick = "pick"
)

// SubmissionRequirement constrains which input descriptors must be met.
// Exactly one of From and FromNested is set.
type SubmissionRequirement struct {
	Name       string                   `json:"name,omitempty"`
	Purpose    string                   `json:"purpose,omitempty"`
	Rule       string                   `json:"rule"`
	Count      int                      `json:"count,omitempty"`
	Min        int                      `json:"min,omitempty"`
	Max        int                      `json:"max,omitempty"`
	From       string                   `json:"from,omitempty"`
	FromNested []*SubmissionRequirement `json:"from_nested,omitempty"`
}

// ApplicationPayload is the body of POST /api/{typeId}/application: a
// verifiable presentation with its submission.
type ApplicationPayload struct {
	Context                []string               `json:"@context" validate:"required,dive,notblank"`
	Type                   []string               `json:"type" validate:"required,dive,notblank"`
	PresentationSubmission PresentationSubmission `json:"presentation_submission" validate:"required"`
	VerifiableCredential   []string               `json:"verifiableCredential" validate:"required,dive,notblank"`
}

// PresentationSubmission maps descriptors to credentials in a presentation.
type PresentationSubmission struct {
	ID            string       `json:"id" validate:"required"`
	DefinitionID  string       `json:"definition_id" validate:"required"`
	DescriptorMap []Descriptor `json:"descriptor_map" validate:"required,dive"`
}

type Descriptor struct {
	ID     string `json:"id" validate:"required"`
	Format string `json:"format" validate:"required"`
	Path   string `json:"path" validate:"required"`
}

// Validate checks the payload shape. Semantic checks against a
// presentation definition belong to the presentation package.
func (p *ApplicationPayload) Validate() error {
	return validation.Validate(p)
}

// Clone returns a deep copy through JSON, which is the form manifests are
// authored and served in.
func (m *CredentialManifest) Clone() (*CredentialManifest, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest %s: %w", m.ID, err)
	}
	var out CredentialManifest
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", m.ID, err)
	}
	return &out, nil
}

// ParseManifest decodes a JSON manifest template.
func ParseManifest(raw []byte) (*CredentialManifest, error) {
	var m CredentialManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("manifest has no id")
	}
	return &m, nil
}
