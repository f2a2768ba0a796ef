// Package main provides a CLI that plays the applicant against a local
// issuer: it keeps a did:key identity, self-issues an ExampleCred, and signs
// a credential application the way wallets do.
//
// Keys are written unencrypted; use only for local development and testing.
package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"dcx/internal/application/handler"
	"dcx/internal/identity"
	"dcx/internal/issuance/example"
	"dcx/internal/issuance/jwtvc"
	"dcx/internal/presentation"
)

type applicationOutput struct {
	Applicant string          `json:"applicant"`
	Signature string          `json:"signature"`
	Body      json.RawMessage `json:"body"`
}

func main() {
	identityCmd := flag.NewFlagSet("identity", flag.ExitOnError)
	identityKeyFile := identityCmd.String("key-file", "./applicant-keys.json", "Applicant key file. Created if missing.")

	applyCmd := flag.NewFlagSet("apply", flag.ExitOnError)
	applyKeyFile := applyCmd.String("key-file", "./applicant-keys.json", "Applicant key file. Created if missing.")
	applyCredType := applyCmd.String("type", example.CredentialType, "Type of the self-issued credential to present")
	applyIssuer := applyCmd.String("issuer", "", "Issuer base URL. When set the application is sent, otherwise printed.")
	applyTimeout := applyCmd.Duration("timeout", 10*time.Second, "HTTP timeout when sending")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "identity":
		identityCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		showIdentity(*identityKeyFile)
	case "apply":
		applyCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		apply(*applyKeyFile, *applyCredType, *applyIssuer, *applyTimeout)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`applicant - Sign credential applications for a local issuer

WARNING: Applicant keys are stored unencrypted. Only use for local development and testing.

Usage:
  applicant <command> [flags]

Commands:
  identity  Show (or create) the applicant DID
  apply     Build a signed EXAMPLE-CREDENTIAL application

Examples:
  # Print a signed application as JSON
  applicant apply

  # Send it to a running issuer
  applicant apply -issuer http://localhost:3000

Use "applicant <command> -h" for more information about a command.`)
}

func showIdentity(keyFile string) {
	id := loadIdentity(keyFile)
	fmt.Printf("DID:    %s\n", id.DID)
	fmt.Printf("Key ID: %s\n", id.KeyID())
}

func apply(keyFile, credType, issuerURL string, timeout time.Duration) {
	ctx := context.Background()
	id := loadIdentity(keyFile)
	signer, err := id.Signer()
	exitOn(err, "load signer")

	vc, err := jwtvc.Sign(signer, id.KeyID(), jwtvc.Credential{
		Type:    credType,
		Issuer:  id.DID,
		Subject: id.DID,
		Data:    map[string]any{"value": 10},
	})
	exitOn(err, "sign credential")

	manifest, err := example.Manifest("")
	exitOn(err, "load manifest")
	payload, err := presentation.NewValidator().BuildPresentation(ctx, []string{vc}, manifest.PresentationDefinition)
	exitOn(err, "build presentation")
	body, err := json.Marshal(payload)
	exitOn(err, "encode presentation")

	digest := sha256.Sum256(body)
	sig, err := signer.Sign(digest[:])
	exitOn(err, "sign application")
	encoded := base64.StdEncoding.EncodeToString(sig)

	if issuerURL == "" {
		out, _ := json.MarshalIndent(applicationOutput{Applicant: id.DID, Signature: encoded, Body: body}, "", "  ")
		fmt.Println(string(out))
		return
	}

	url := strings.TrimRight(issuerURL, "/") + "/api/" + example.TypeID + "/application"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	exitOn(err, "build request")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(handler.HeaderApplicant, id.DID)
	req.Header.Set(handler.HeaderSignature, encoded)

	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	exitOn(err, "send application")
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s\n%s\n", resp.Status, respBody)
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func loadIdentity(keyFile string) *identity.Identity {
	id, err := identity.LoadOrCreate(keyFile, nil)
	exitOn(err, "load applicant identity")
	return id
}

func exitOn(err error, what string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", what, err)
		os.Exit(1)
	}
}
