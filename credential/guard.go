// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package credential

import "github.com/hashicorp/tokenscope/jwt"

// ServiceRole is the role claim value which marks a key for elevated,
// non-public backend operations.
const ServiceRole = "service_role"

// PrivilegedKeyWarning is the message shown when a privileged key is
// rejected.
const PrivilegedKeyWarning = "this looks like a service role key: it must never be used in a client, use the public key instead"

// IsPrivileged reports whether the candidate is a privileged (service role)
// key.  Candidates that aren't a decodable three-segment token are reported
// as not privileged: the format check is orthogonal to privilege.
func IsPrivileged(candidate string) bool {
	claims, err := jwt.DecodeClaims(candidate)
	if err != nil {
		return false
	}
	return claims.Role() == ServiceRole
}
