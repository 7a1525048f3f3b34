package domain

// MFAChallengeResponse is returned when a login requires a second factor.
type MFAChallengeResponse struct {
	MFARequired bool     `json:"mfa_required"` // always true
	Methods     []string `json:"methods"`      // e.g. ["totp", "backup_code"]
}

// MFAEnrollResponse carries enrollment material for an authenticator app.
// The QR code is a base64-encoded PNG of the provisioning URI.
type MFAEnrollResponse struct {
	Secret          string `json:"secret"`           // base32 TOTP secret
	ProvisioningURI string `json:"provisioning_uri"` // otpauth:// URL
	QRCodePNG       string `json:"qr_code_png"`      // base64 PNG
	Issuer          string `json:"issuer"`
	Account         string `json:"account"`
}
