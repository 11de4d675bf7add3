// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package credential

import "encoding/json"

// Fixed storage keys for the credential pair.
const (
	EndpointKey  = "endpoint_url"
	PublicKeyKey = "public_key"
)

// Pair is the user supplied backend endpoint and public key.  Either may be
// empty until supplied.
type Pair struct {
	Endpoint  string
	PublicKey string
}

// RedactedPublicKey is the redacted string or json for a public key
const RedactedPublicKey = "[REDACTED: public key]"

// Complete reports whether both fields are set.
func (p Pair) Complete() bool {
	return p.Endpoint != "" && p.PublicKey != ""
}

// String will redact the key
func (p Pair) String() string {
	return "{" + p.Endpoint + " " + p.redactedKey() + "}"
}

// MarshalJSON will redact the key
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Endpoint  string `json:"endpoint_url"`
		PublicKey string `json:"public_key"`
	}{p.Endpoint, p.redactedKey()})
}

func (p Pair) redactedKey() string {
	if p.PublicKey == "" {
		return ""
	}
	return RedactedPublicKey
}

// Load reads the pair from the store.  Missing values are left empty.
func Load(s Store) Pair {
	if s == nil {
		return Pair{}
	}
	ep, _ := s.Read(EndpointKey)
	k, _ := s.Read(PublicKeyKey)
	return Pair{Endpoint: ep, PublicKey: k}
}
