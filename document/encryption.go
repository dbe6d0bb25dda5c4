package document

import pdf "github.com/pdfray/pdfray"

// EncryptionStatus reports whether the underlying document is encrypted
// and, if so, whether it has already been unlocked.
func (d *Document) EncryptionStatus() pdf.EncryptionStatus {
	return d.reader.EncryptionStatus()
}

// EncryptionType reports which security handler, if any, protects the
// document.
func (d *Document) EncryptionType() pdf.EncryptionType {
	return d.reader.Type()
}

// TryPassword attempts to unlock a standard-security-handler document.
func (d *Document) TryPassword(pwd string) bool {
	return d.reader.TryPassword(pwd)
}

// SupplySeed unlocks a certificate-encrypted document with a
// host-decrypted RSA seed.
func (d *Document) SupplySeed(seed []byte) error {
	return d.reader.SupplySeed(seed)
}

// CertRecipients returns the parsed PKCS#7 recipient list of a
// certificate-encrypted document.
func (d *Document) CertRecipients() []pdf.RecipientInfo {
	return d.reader.CertRecipients()
}
