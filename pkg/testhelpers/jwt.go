package testhelpers

import (
	"encoding/base64"
	"fmt"
)

// GenerateTestAssertion creates an unsigned identity assertion (alg: none)
// for use when signature verification is disabled. The claim shape mirrors
// what an OIDC provider would issue.
func GenerateTestAssertion(sub, email, name string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	payload := fmt.Sprintf(`{"sub":"%s"`, sub)
	if email != "" {
		payload += fmt.Sprintf(`,"email":"%s"`, email)
	}
	if name != "" {
		payload += fmt.Sprintf(`,"name":"%s"`, name)
	}
	payload += "}"

	encodedPayload := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return fmt.Sprintf("%s.%s.", header, encodedPayload)
}

// GenerateTestAssertionWithBearer returns the assertion with a "Bearer "
// prefix for Authorization headers.
func GenerateTestAssertionWithBearer(sub, email, name string) string {
	return "Bearer " + GenerateTestAssertion(sub, email, name)
}
