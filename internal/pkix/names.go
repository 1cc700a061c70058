// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pkix

var nameAttributeNames = map[string]string{
	"2.5.4.3":              "common_name",
	"2.5.4.5":              "serial_number",
	"2.5.4.6":              "country_name",
	"2.5.4.7":              "locality_name",
	"2.5.4.8":              "state_or_province_name",
	"2.5.4.9":              "street_address",
	"2.5.4.10":             "organization_name",
	"2.5.4.11":             "organizational_unit_name",
	"2.5.4.17":             "postal_code",
	"1.2.840.113549.1.9.1": "email_address",
}

var algorithmNames = map[string]string{
	"1.2.840.113549.1.1.1":  "rsa",
	"1.2.840.113549.1.1.10": "rsassa_pss",
	"1.2.840.113549.1.1.11": "sha256_rsa",
	"1.2.840.113549.1.1.12": "sha384_rsa",
	"1.2.840.113549.1.1.13": "sha512_rsa",
	"1.2.840.10045.2.1":     "ec",
	"1.2.840.10045.4.3.2":   "sha256_ecdsa",
	"1.2.840.10045.4.3.3":   "sha384_ecdsa",
	"1.2.840.10045.4.3.4":   "sha512_ecdsa",
	"1.3.101.112":           "ed25519",
}

var curveNames = map[string]string{
	"1.2.840.10045.3.1.7": "secp256r1",
	"1.3.132.0.34":        "secp384r1",
	"1.3.132.0.35":        "secp521r1",
}

var attributeNames = map[string]string{
	"1.2.840.113549.1.9.7":   "challenge_password",
	"1.2.840.113549.1.9.14":  "extension_request",
	"1.3.6.1.4.1.311.13.2.2": "microsoft_enrollment_csp_provider",
	"1.3.6.1.4.1.311.13.2.3": "microsoft_os_version",
	"1.3.6.1.4.1.311.21.20":  "microsoft_request_client_info",
}

var extensionNames = map[string]string{
	"2.5.29.14": "key_identifier",
	"2.5.29.15": "key_usage",
	"2.5.29.17": "subject_alt_name",
	"2.5.29.19": "basic_constraints",
	"2.5.29.35": "authority_key_identifier",
	"2.5.29.37": "extended_key_usage",

	"1.3.6.1.4.1.311.20.2": "microsoft_enroll_certtype",
}

var keyPurposeNames = map[string]string{
	"1.3.6.1.5.5.7.3.1": "server_auth",
	"1.3.6.1.5.5.7.3.2": "client_auth",
	"1.3.6.1.5.5.7.3.3": "code_signing",
	"1.3.6.1.5.5.7.3.4": "email_protection",
	"1.3.6.1.5.5.7.3.8": "time_stamping",
	"1.3.6.1.5.5.7.3.9": "ocsp_signing",
}
