// Package protocol defines the credential-issuance DWN protocol the issuer
// publishes: applicants create applications, the issuer publishes manifests
// and replies with responses or invoices.
package protocol

import (
	"dcx/internal/dwn"
)

const (
	URI = "https://tblend.io/protocol/credential-issuance"

	ManifestSchema    = "https://identity.foundation/credential-manifest/schemas/credential-manifest"
	ApplicationSchema = "https://identity.foundation/credential-manifest/schemas/credential-application"
	ResponseSchema    = "https://identity.foundation/credential-manifest/schemas/credential-response"
	InvoiceSchema     = URI + "/schemas/invoice"

	DataFormatJSON = "application/json"
)

// Protocol paths.
const (
	PathManifest    = "manifest"
	PathApplication = "application"
	PathResponse    = "application/response"
	PathInvoice     = "application/invoice"
)

// Abilities and actors used in the structure rules.
const (
	whoAnyone    = "anyone"
	whoAuthor    = "author"
	whoRecipient = "recipient"

	canRead   = "read"
	canCreate = "create"
	canUpdate = "update"
)

// Definition returns a fresh copy of the protocol definition.
func Definition() dwn.ProtocolDefinition {
	jsonOnly := []string{DataFormatJSON}
	replyRules := func() *dwn.ProtocolRuleSet {
		return &dwn.ProtocolRuleSet{Actions: []dwn.ProtocolAction{
			{Who: whoRecipient, Of: PathApplication, Can: []string{canCreate, canUpdate}},
			{Who: whoAuthor, Of: PathApplication, Can: []string{canRead}},
		}}
	}

	return dwn.ProtocolDefinition{
		Protocol:  URI,
		Published: false,
		Types: map[string]dwn.ProtocolType{
			"application": {Schema: ApplicationSchema, DataFormats: jsonOnly},
			"invoice":     {Schema: InvoiceSchema, DataFormats: jsonOnly},
			"manifest":    {Schema: ManifestSchema, DataFormats: jsonOnly},
			"response":    {Schema: ResponseSchema, DataFormats: jsonOnly},
		},
		Structure: map[string]*dwn.ProtocolRuleSet{
			"manifest": {Actions: []dwn.ProtocolAction{
				{Who: whoAnyone, Can: []string{canRead}},
			}},
			"application": {
				Actions: []dwn.ProtocolAction{
					{Who: whoAnyone, Can: []string{canCreate, canUpdate}},
				},
				Children: map[string]*dwn.ProtocolRuleSet{
					"response": replyRules(),
					"invoice":  replyRules(),
				},
			},
		},
	}
}

// ManifestFilter selects the issuer's manifest records.
func ManifestFilter() dwn.RecordsFilter {
	return dwn.RecordsFilter{
		Schema:       ManifestSchema,
		DataFormat:   DataFormatJSON,
		Protocol:     URI,
		ProtocolPath: PathManifest,
	}
}

// ManifestRecord describes a published manifest write carrying data.
func ManifestRecord(data any) dwn.CreateRecordRequest {
	return dwn.CreateRecordRequest{
		Data:         data,
		Schema:       ManifestSchema,
		Protocol:     URI,
		ProtocolPath: PathManifest,
		DataFormat:   DataFormatJSON,
		Published:    true,
	}
}
