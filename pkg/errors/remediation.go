package errors

// Remediation tells the UI layer which recovery flow to offer for a failed
// operation. Wrong key material and tampered data look identical to the user
// ("it will not open") but require opposite remediations, so the distinction
// is made explicit here instead of being inferred from error text.
type Remediation string

const (
	// RemediationRetryPassword prompts the user to re-enter the password
	RemediationRetryPassword Remediation = "RETRY_PASSWORD"

	// RemediationRestoreBackup prompts the user to restore from a backup copy
	RemediationRestoreBackup Remediation = "RESTORE_BACKUP"

	// RemediationFixInput asks the user to correct the submitted record
	RemediationFixInput Remediation = "FIX_INPUT"

	// RemediationNone means no user action can recover the operation
	RemediationNone Remediation = "NONE"
)

// RemediationFor maps an error to the recovery flow the UI should offer.
//
// An HMAC mismatch is ambiguous between tampering and a wrong password
// (the HMAC key is derived from the password), so it suggests a password
// retry first; a persistent mismatch with a known-good password means
// tampered or corrupted data and the caller escalates to RestoreBackup.
// A decryption failure after a passing HMAC can only be corrupted payload
// data, so it goes straight to RestoreBackup.
func RemediationFor(err error) Remediation {
	switch KindOf(err) {
	case KindIntegrity:
		return RemediationRetryPassword
	case KindDecryption:
		return RemediationRestoreBackup
	case KindValidation, KindSanitization, KindInvalidInput:
		return RemediationFixInput
	default:
		return RemediationNone
	}
}
