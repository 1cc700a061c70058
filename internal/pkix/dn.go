// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pkix

import (
	"fmt"
	"slices"
	"strings"

	ldapv3 "github.com/go-ldap/ldap/v3"

	"codello.dev/asn1tree"
	"codello.dev/asn1tree/tree"
)

// shortNames maps the attribute type keywords of RFC 4514 to attribute names.
var shortNames = map[string]string{
	"CN":           "common_name",
	"SERIALNUMBER": "serial_number",
	"C":            "country_name",
	"L":            "locality_name",
	"ST":           "state_or_province_name",
	"STREET":       "street_address",
	"O":            "organization_name",
	"OU":           "organizational_unit_name",
	"POSTALCODE":   "postal_code",
	"E":            "email_address",
	"EMAILADDRESS": "email_address",
}

// ParseDistinguishedName parses the string representation of a distinguished
// name as defined in RFC 4514 into the native representation of a [Name].
// The attributes are returned in encoding order, which is the reverse of the
// string order. Attribute types may be given by keyword or in dotted notation
// but must be known to [NameAttributes].
func ParseDistinguishedName(name string) (tree.Map, error) {
	dn, err := ldapv3.ParseDN(name)
	if err != nil {
		return nil, fmt.Errorf("invalid distinguished name %q: %w", name, err)
	}
	var m tree.Map
	for _, rdn := range slices.Backward(dn.RDNs) {
		for _, atv := range rdn.Attributes {
			typ, ok := attributeName(atv.Type)
			if !ok {
				return nil, fmt.Errorf("%w: attribute type %q in distinguished name %q", tree.ErrUnsupported, atv.Type, name)
			}
			m = append(m, tree.Pair{Key: typ, Value: atv.Value})
		}
	}
	return m, nil
}

// attributeName resolves a keyword or a dotted object identifier.
func attributeName(typ string) (string, bool) {
	if name, ok := shortNames[strings.ToUpper(typ)]; ok {
		return name, true
	}
	oid, err := asn1.ParseObjectIdentifier(typ)
	if err != nil {
		return "", false
	}
	name, ok := nameAttributeNames[oid.String()]
	return name, ok
}
