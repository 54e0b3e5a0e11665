package goPortal

import (
	"strings"

	"github.com/MrEthical07/goPortal/internal"
)

// buildProfileDiff compares trimmed form inputs against the current
// principal record. An empty input means "keep the current value" and is
// never treated as a clear. Returns ErrValidation when a supplied value
// breaks its field's format rules.
func buildProfileDiff(principal *Principal, input ProfileUpdateInput, cfg ProfileUpdateConfig) (ProfileDiff, error) {
	var diff ProfileDiff

	if phone := strings.TrimSpace(input.Phone); phone != "" && phone != principal.Phone {
		if !internal.IsNumericString(phone) || len(phone) != cfg.PhoneDigits {
			return ProfileDiff{}, ErrValidation
		}
		diff.Phone = &phone
	}

	if email := strings.TrimSpace(input.Email); email != "" && !strings.EqualFold(email, principal.Email) {
		if !validEmail(email) {
			return ProfileDiff{}, ErrValidation
		}
		diff.Email = &email
	}

	if bank := strings.TrimSpace(input.BankName); bank != "" && bank != principal.Bank.BankName {
		diff.BankName = &bank
	}

	if branch := strings.TrimSpace(input.Branch); branch != "" && branch != principal.Bank.Branch {
		diff.Branch = &branch
	}

	if ifsc := strings.ToUpper(strings.TrimSpace(input.IFSC)); ifsc != "" && ifsc != principal.Bank.IFSC {
		diff.IFSC = &ifsc
	}

	if acc := strings.TrimSpace(input.AccountNumber); acc != "" && acc != principal.Bank.AccountNumber {
		if len(acc) > cfg.AccountNumberMax || !internal.IsNumericString(acc) {
			return ProfileDiff{}, ErrValidation
		}
		diff.AccountNumber = &acc
	}

	return diff, nil
}

// changesMap flattens a diff into the backend's change-request keys.
func changesMap(diff ProfileDiff) map[string]string {
	out := make(map[string]string, 6)
	if diff.Phone != nil {
		out["phone"] = *diff.Phone
	}
	if diff.Email != nil {
		out["email"] = *diff.Email
	}
	if diff.BankName != nil {
		out["bank"] = *diff.BankName
	}
	if diff.Branch != nil {
		out["branch"] = *diff.Branch
	}
	if diff.IFSC != nil {
		out["ifsc"] = *diff.IFSC
	}
	if diff.AccountNumber != nil {
		out["acc"] = *diff.AccountNumber
	}
	return out
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t\n")
}
