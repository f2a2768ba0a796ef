package presentation

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"

	"dcx/internal/credential/models"
)

// Claim formats as named in descriptor maps.
const (
	FormatJWTVC = "jwt_vc"
	FormatLDPVC = "ldp_vc"
)

// credential is a submitted credential decoded for path evaluation. Paths
// are tried against the whole document first, then against the embedded vc
// claim of a JWT-VC.
type credential struct {
	raw    string
	format string
	// alg is the JOSE header algorithm of a JWT-VC.
	alg string
	// proofTypes are the linked-data proof types of a JSON credential.
	proofTypes []string
	doc        map[string]any
	vc         map[string]any
}

// jwtVCClaims are the registered JWT-VC claims. The signature is not checked
// here; the applicant's request signature covers the whole submission.
type jwtVCClaims struct {
	Issuer  string         `mapstructure:"iss"`
	Subject string         `mapstructure:"sub"`
	ID      string         `mapstructure:"jti"`
	VC      map[string]any `mapstructure:"vc"`
}

var parser = jwt.NewParser()

func decodeCredential(raw string) (*credential, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var doc map[string]any
		if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
			return nil, fmt.Errorf("decode json credential: %w", err)
		}
		return &credential{raw: raw, format: FormatLDPVC, proofTypes: proofTypes(doc["proof"]), doc: doc}, nil
	}

	claims := jwt.MapClaims{}
	token, _, err := parser.ParseUnverified(trimmed, claims)
	if err != nil {
		return nil, fmt.Errorf("decode jwt credential: %w", err)
	}
	alg, _ := token.Header["alg"].(string)
	var registered jwtVCClaims
	if err := mapstructure.Decode(map[string]any(claims), &registered); err != nil {
		return nil, fmt.Errorf("decode jwt-vc claims: %w", err)
	}

	vc := registered.VC
	if vc != nil {
		// The JWT registered claims stand in for their VC properties.
		if _, ok := vc["issuer"]; !ok && registered.Issuer != "" {
			vc["issuer"] = registered.Issuer
		}
		if _, ok := vc["id"]; !ok && registered.ID != "" {
			vc["id"] = registered.ID
		}
		if subject, ok := vc["credentialSubject"].(map[string]any); ok {
			if _, ok := subject["id"]; !ok && registered.Subject != "" {
				subject["id"] = registered.Subject
			}
		}
	}
	return &credential{raw: raw, format: FormatJWTVC, alg: alg, doc: map[string]any(claims), vc: vc}, nil
}

// proofTypes collects the type of a single proof object or of a proof set.
func proofTypes(proof any) []string {
	var out []string
	switch p := proof.(type) {
	case map[string]any:
		if t, ok := p["type"].(string); ok {
			out = append(out, t)
		}
	case []any:
		for _, item := range p {
			out = append(out, proofTypes(item)...)
		}
	}
	return out
}

// formatNames are the designations a definition may use for each claim format.
var formatNames = map[string][]string{
	FormatJWTVC: {FormatJWTVC, "jwt_vc_json", "jwt"},
	FormatLDPVC: {FormatLDPVC, "ldp"},
}

// allowedBy reports whether the credential's format, and its algorithm or
// proof type where the entry restricts them, appear in formats. An empty
// formats map allows everything.
func (c *credential) allowedBy(formats map[string]models.Format) bool {
	if len(formats) == 0 {
		return true
	}
	for _, name := range formatNames[c.format] {
		f, ok := formats[name]
		if !ok {
			continue
		}
		switch c.format {
		case FormatJWTVC:
			if len(f.Alg) == 0 || slices.Contains(f.Alg, c.alg) {
				return true
			}
		case FormatLDPVC:
			if len(f.ProofType) == 0 || slices.ContainsFunc(c.proofTypes, func(t string) bool {
				return slices.Contains(f.ProofType, t)
			}) {
				return true
			}
		}
	}
	return false
}

func (c *credential) roots() []map[string]any {
	if c.vc == nil {
		return []map[string]any{c.doc}
	}
	return []map[string]any{c.doc, c.vc}
}
