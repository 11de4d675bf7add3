// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package credential

import (
	"testing"

	"github.com/hashicorp/tokenscope/jwt"
	"github.com/stretchr/testify/assert"
)

func TestIsPrivileged(t *testing.T) {
	t.Parallel()
	hdr := map[string]string{"alg": "HS256", "typ": "JWT"}
	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"service-role", "eyJhbGciOiJIUzI1NiJ9.eyJyb2xlIjoic2VydmljZV9yb2xlIn0.sig", true},
		{"anon", "eyJhbGciOiJIUzI1NiJ9.eyJyb2xlIjoiYW5vbiJ9.sig", false},
		{"service-role-with-more-claims", jwt.TestUnsignedJWT(t, hdr, map[string]interface{}{"iss": "supabase", "ref": "abc", "role": "service_role", "iat": 1}), true},
		{"authenticated", jwt.TestUnsignedJWT(t, hdr, map[string]interface{}{"role": "authenticated"}), false},
		{"no-role", jwt.TestUnsignedJWT(t, hdr, map[string]interface{}{"sub": "alice"}), false},
		{"role-not-a-string", jwt.TestUnsignedJWT(t, hdr, map[string]interface{}{"role": []string{"service_role"}}), false},
		{"role-case-differs", jwt.TestUnsignedJWT(t, hdr, map[string]interface{}{"role": "SERVICE_ROLE"}), false},
		{"empty", "", false},
		{"opaque-key", "sb_publishable_abc123", false},
		{"two-segments", "eyJhbGciOiJIUzI1NiJ9.eyJyb2xlIjoic2VydmljZV9yb2xlIn0", false},
		{"four-segments", "eyJhbGciOiJIUzI1NiJ9.eyJyb2xlIjoic2VydmljZV9yb2xlIn0.sig.x", false},
		{"garbage-payload", "a.!!!.c", false},
		{"non-object-payload", "a.WzEsMl0.c", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPrivileged(tt.candidate))
		})
	}
}
