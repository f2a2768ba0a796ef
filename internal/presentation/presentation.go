// Package presentation checks submitted credentials against DIF
// presentation definitions and assembles submissions for issuance handlers.
package presentation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"dcx/internal/credential/models"
)

// ValidationError reports why a set of credentials does not satisfy a
// presentation definition.
type ValidationError struct {
	DefinitionID string
	Unmatched    []string
	Reason       string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("presentation definition %s not satisfied", e.DefinitionID)
	if len(e.Unmatched) > 0 {
		msg += ": no credential for input descriptors " + strings.Join(e.Unmatched, ", ")
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Option configures a Validator.
type Option func(*Validator)

func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// Validator evaluates presentation definitions. It is safe for concurrent use.
type Validator struct {
	lang   gval.Language
	logger *slog.Logger
}

// NewValidator returns a Validator that logs nothing unless WithLogger is given.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{lang: gval.Full(jsonpath.PlaceholderExtension())}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// AssertSatisfies returns a *ValidationError unless the credentials satisfy
// every input descriptor of pd, or its submission requirements when present.
func (v *Validator) AssertSatisfies(ctx context.Context, vcs []string, pd *models.PresentationDefinition) error {
	if pd == nil {
		return nil
	}
	creds := v.decodeAll(ctx, vcs)
	matches, err := v.match(ctx, creds, pd)
	if err != nil {
		return &ValidationError{DefinitionID: pd.ID, Reason: err.Error()}
	}

	if len(pd.SubmissionRequirements) > 0 {
		for _, req := range pd.SubmissionRequirements {
			if err := evalRequirement(req, pd, matches); err != nil {
				return &ValidationError{DefinitionID: pd.ID, Reason: err.Error()}
			}
		}
		return nil
	}

	var unmatched []string
	for _, d := range pd.InputDescriptors {
		if len(matches[d.ID]) == 0 {
			unmatched = append(unmatched, d.ID)
		}
	}
	if len(unmatched) > 0 {
		return &ValidationError{DefinitionID: pd.ID, Unmatched: unmatched}
	}
	return nil
}

// SelectCredentials returns the candidates that satisfy at least one input
// descriptor, in candidate order.
func (v *Validator) SelectCredentials(ctx context.Context, candidates []string, pd *models.PresentationDefinition) ([]string, error) {
	if pd == nil {
		return nil, fmt.Errorf("presentation definition is required")
	}
	creds := v.decodeAll(ctx, candidates)
	matches, err := v.match(ctx, creds, pd)
	if err != nil {
		return nil, err
	}

	picked := make(map[int]bool)
	for _, idx := range matches {
		for _, i := range idx {
			picked[i] = true
		}
	}
	order := make([]int, 0, len(picked))
	for i := range picked {
		order = append(order, i)
	}
	sort.Ints(order)

	selected := make([]string, 0, len(order))
	for _, i := range order {
		selected = append(selected, creds[i].raw)
	}
	return selected, nil
}

// BuildPresentation wraps selected credentials in a verifiable presentation
// whose descriptor map points each input descriptor at its first match.
func (v *Validator) BuildPresentation(ctx context.Context, selected []string, pd *models.PresentationDefinition) (*models.ApplicationPayload, error) {
	if pd == nil {
		return nil, fmt.Errorf("presentation definition is required")
	}
	if err := v.AssertSatisfies(ctx, selected, pd); err != nil {
		return nil, err
	}
	creds := v.decodeAll(ctx, selected)
	matches, err := v.match(ctx, creds, pd)
	if err != nil {
		return nil, err
	}

	descriptors := make([]models.Descriptor, 0, len(pd.InputDescriptors))
	for _, d := range pd.InputDescriptors {
		idx := matches[d.ID]
		if len(idx) == 0 {
			continue
		}
		descriptors = append(descriptors, models.Descriptor{
			ID:     d.ID,
			Format: creds[idx[0]].format,
			Path:   fmt.Sprintf("$.verifiableCredential[%d]", idx[0]),
		})
	}

	return &models.ApplicationPayload{
		Context: []string{"https://www.w3.org/2018/credentials/v1"},
		Type:    []string{"VerifiablePresentation"},
		PresentationSubmission: models.PresentationSubmission{
			ID:            uuid.NewString(),
			DefinitionID:  pd.ID,
			DescriptorMap: descriptors,
		},
		VerifiableCredential: append([]string(nil), selected...),
	}, nil
}

// decodeAll keeps slice positions stable; undecodable credentials become nil
// and never match.
func (v *Validator) decodeAll(ctx context.Context, raws []string) []*credential {
	out := make([]*credential, len(raws))
	for i, raw := range raws {
		c, err := decodeCredential(raw)
		if err != nil {
			if v.logger != nil {
				v.logger.DebugContext(ctx, "skipping undecodable credential", "index", i, "error", err)
			}
			continue
		}
		out[i] = c
	}
	return out
}

// match maps each input descriptor id to the indexes of credentials
// satisfying it. A descriptor's format restriction falls back to the
// definition's.
func (v *Validator) match(ctx context.Context, creds []*credential, pd *models.PresentationDefinition) (map[string][]int, error) {
	matches := make(map[string][]int, len(pd.InputDescriptors))
	for _, d := range pd.InputDescriptors {
		fields, err := v.compile(d)
		if err != nil {
			return nil, err
		}
		formats := d.Format
		if len(formats) == 0 {
			formats = pd.Format
		}
		for i, c := range creds {
			if c == nil || !c.allowedBy(formats) {
				continue
			}
			if v.satisfies(ctx, c, fields) {
				matches[d.ID] = append(matches[d.ID], i)
			}
		}
	}
	return matches, nil
}

type compiledField struct {
	optional bool
	paths    []gval.Evaluable
	filter   *gojsonschema.Schema
}

func (v *Validator) compile(d models.InputDescriptor) ([]compiledField, error) {
	if d.Constraints == nil {
		return nil, nil
	}
	out := make([]compiledField, 0, len(d.Constraints.Fields))
	for _, f := range d.Constraints.Fields {
		cf := compiledField{optional: f.Optional}
		for _, p := range f.Path {
			eval, err := v.lang.NewEvaluable(p)
			if err != nil {
				return nil, fmt.Errorf("input descriptor %s: invalid path %q: %w", d.ID, p, err)
			}
			cf.paths = append(cf.paths, eval)
		}
		if len(f.Filter) > 0 && string(f.Filter) != "null" {
			schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(f.Filter))
			if err != nil {
				return nil, fmt.Errorf("input descriptor %s: invalid filter: %w", d.ID, err)
			}
			cf.filter = schema
		}
		out = append(out, cf)
	}
	return out, nil
}

func (v *Validator) satisfies(ctx context.Context, c *credential, fields []compiledField) bool {
	for _, f := range fields {
		if f.optional {
			continue
		}
		if !v.fieldMatches(ctx, c, f) {
			return false
		}
	}
	return true
}

// fieldMatches applies the filter to the first non-empty selection, trying
// each root in order and each path in order within a root. Later paths are
// not consulted once one selects a value.
func (v *Validator) fieldMatches(ctx context.Context, c *credential, f compiledField) bool {
	for _, root := range c.roots() {
		for _, eval := range f.paths {
			value, err := eval(ctx, root)
			if err != nil || value == nil {
				continue
			}
			candidates := []any{value}
			if list, ok := value.([]any); ok {
				if len(list) == 0 {
					continue
				}
				// Wildcards and array-valued claims: the filter may target
				// the array itself or any element.
				candidates = append(candidates, list...)
			}
			return slices.ContainsFunc(candidates, func(candidate any) bool {
				return accepts(f.filter, candidate)
			})
		}
	}
	return false
}

func accepts(filter *gojsonschema.Schema, value any) bool {
	if filter == nil {
		return true
	}
	// Round-trip so numbers reach the validator in their JSON form.
	raw, err := json.Marshal(value)
	if err != nil {
		return false
	}
	result, err := filter.Validate(gojsonschema.NewBytesLoader(raw))
	return err == nil && result.Valid()
}
