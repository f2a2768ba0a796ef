package presentation

import (
	"errors"
	"fmt"
	"slices"

	"dcx/internal/credential/models"
)

// errInvalidRequirement marks a requirement no submission could satisfy
// because the definition itself is malformed.
var errInvalidRequirement = errors.New("invalid submission requirement")

// evalRequirement applies one submission requirement to the descriptor matches.
func evalRequirement(req *models.SubmissionRequirement, pd *models.PresentationDefinition, matches map[string][]int) error {
	satisfied, total, err := countSatisfied(req, pd, matches)
	if err != nil {
		return err
	}
	name := req.Name
	if name == "" {
		name = req.From
	}

	switch req.Rule {
	case models.RuleAll:
		if satisfied != total {
			return fmt.Errorf("requirement %q needs all %d inputs, got %d", name, total, satisfied)
		}
	case models.RulePick:
		if req.Max > 0 && req.Min > req.Max {
			return fmt.Errorf("%w: %q has min %d above max %d", errInvalidRequirement, name, req.Min, req.Max)
		}
		if req.Count > 0 && satisfied < req.Count {
			return fmt.Errorf("requirement %q needs %d inputs, got %d", name, req.Count, satisfied)
		}
		if req.Min > 0 && satisfied < req.Min {
			return fmt.Errorf("requirement %q needs at least %d inputs, got %d", name, req.Min, satisfied)
		}
		if req.Max > 0 && satisfied > req.Max {
			return fmt.Errorf("requirement %q allows at most %d inputs, got %d", name, req.Max, satisfied)
		}
		if req.Count == 0 && req.Min == 0 && satisfied == 0 {
			return fmt.Errorf("requirement %q needs at least one input", name)
		}
	default:
		return fmt.Errorf("%w: %q has unknown rule %q", errInvalidRequirement, name, req.Rule)
	}
	return nil
}

// countSatisfied counts satisfied members of the requirement: descriptors in
// group From, or nested requirements in FromNested. Malformed nested
// requirements fail the whole requirement rather than counting as unmet.
func countSatisfied(req *models.SubmissionRequirement, pd *models.PresentationDefinition, matches map[string][]int) (int, int, error) {
	if len(req.FromNested) > 0 {
		satisfied := 0
		for _, nested := range req.FromNested {
			err := evalRequirement(nested, pd, matches)
			if errors.Is(err, errInvalidRequirement) {
				return 0, 0, err
			}
			if err == nil {
				satisfied++
			}
		}
		return satisfied, len(req.FromNested), nil
	}
	if req.From == "" {
		return 0, 0, fmt.Errorf("%w: neither from nor from_nested", errInvalidRequirement)
	}

	satisfied, total := 0, 0
	for _, d := range pd.InputDescriptors {
		if !slices.Contains(d.Group, req.From) {
			continue
		}
		total++
		if len(matches[d.ID]) > 0 {
			satisfied++
		}
	}
	if total == 0 {
		return 0, 0, fmt.Errorf("%w: group %q has no input descriptors", errInvalidRequirement, req.From)
	}
	return satisfied, total, nil
}
