package entity

// ProviderType is the enumerated origin of an identity.
type ProviderType string

const (
	// ProviderTypeLocal marks accounts that authenticate with a password stored here.
	ProviderTypeLocal ProviderType = "LOCAL"
	// ProviderTypeGoogle marks accounts federated through Google Sign-In.
	ProviderTypeGoogle ProviderType = "GOOGLE"
)

// String returns the string representation of the ProviderType.
func (p ProviderType) String() string {
	return string(p)
}

// IsValid checks if the ProviderType is a known provider.
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderTypeLocal, ProviderTypeGoogle:
		return true
	default:
		return false
	}
}
