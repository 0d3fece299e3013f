package enums

import "strings"

// AddressType labels an address book entry.
type AddressType string

const (
	AddressTypeHome  AddressType = "home"
	AddressTypeWork  AddressType = "work"
	AddressTypeOther AddressType = "other"
)

var addressTypes = []AddressType{AddressTypeHome, AddressTypeWork, AddressTypeOther}

func (a AddressType) String() string { return string(a) }

func (a AddressType) IsValid() bool { return known(a, addressTypes) }

// ParseAddressType defaults blank input to home.
func ParseAddressType(value string) (AddressType, error) {
	if strings.TrimSpace(value) == "" {
		return AddressTypeHome, nil
	}
	return parse("address type", value, addressTypes)
}
