// Package license issues and verifies node-locked activation keys of the form
// AAAA-BBBB-CCCC-DDDD-EEEE: class code, two fingerprint halves, the YYMM of
// the expiry date and a keyed checksum prefix.
package license

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Class is the license tier.
type Class string

const (
	ClassTrial   Class = "TRIAL"
	ClassFull    Class = "FULL"
	ClassPremium Class = "PREMIUM"
)

const (
	minKeyLength  = 20
	keyFields     = 5
	fieldWidth    = 4
	minHWIDLength = 8
	dateLayout    = "2006-01-02"
	compactLayout = "20060102"
)

var (
	ErrInvalidFormat       = errors.New("invalid license key format")
	ErrDeviceMismatch      = errors.New("license not valid for this device")
	ErrExpired             = errors.New("license has expired")
	ErrNoLicense           = errors.New("no license found")
	ErrChecksumMismatch    = errors.New("license checksum mismatch")
	ErrInvalidFingerprint  = errors.New("hwid must be at least 8 characters")
	ErrActivationForbidden = errors.New("license activation is only available on the desktop installation")
)

// Key is a freshly generated license.
type Key struct {
	LicenseKey  string    `json:"licenseKey"`
	Fingerprint string    `json:"hwid"`
	Class       string    `json:"licenseType"`
	ExpiryDate  time.Time `json:"-"`
	ValidDays   int       `json:"validDays"`
}

// classCode is the first field of a key: four characters, X padded.
func classCode(class string) string {
	code := strings.ToUpper(class)
	if len(code) > fieldWidth {
		return code[:fieldWidth]
	}
	return code + strings.Repeat("X", fieldWidth-len(code))
}

// ClassFromCode maps the first key field onto a tier. Unknown codes are FULL.
func ClassFromCode(code string) Class {
	code = strings.ToUpper(code)
	switch {
	case strings.HasPrefix(code, "TRIA"):
		return ClassTrial
	case strings.HasPrefix(code, "PREM"):
		return ClassPremium
	default:
		return ClassFull
	}
}

// Checksum is the first eight upper-case hex digits of
// HMAC-SHA256(secret, "CLASS-FINGERPRINT-YYYYMMDD").
func Checksum(secret, class, fingerprint, expiry8 string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(class + "-" + fingerprint + "-" + expiry8))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil))[:8])
}

// Generate builds the key for fingerprint and class expiring validDays
// calendar days after now (UTC). The day of month is not carried in the key:
// validation anchors the expiry to the first of the month.
func Generate(secret, fingerprint, class string, validDays int, now time.Time) (Key, error) {
	fingerprint = strings.ToUpper(strings.TrimSpace(fingerprint))
	class = strings.ToUpper(strings.TrimSpace(class))
	if len(fingerprint) < minHWIDLength {
		return Key{}, ErrInvalidFingerprint
	}
	if class == "" {
		class = string(ClassFull)
	}

	expiry := truncateDay(now).AddDate(0, 0, validDays)
	expiry8 := expiry.Format(compactLayout)
	sum := Checksum(secret, class, fingerprint, expiry8)

	licenseKey := strings.Join([]string{
		classCode(class),
		fingerprint[0:4],
		fingerprint[4:8],
		expiry8[2:6],
		sum[:fieldWidth],
	}, "-")

	return Key{
		LicenseKey:  licenseKey,
		Fingerprint: fingerprint,
		Class:       class,
		ExpiryDate:  expiry,
		ValidDays:   validDays,
	}, nil
}

// parsedKey is a key split into its fields.
type parsedKey struct {
	canonical string
	code      string
	hwidHalf  string
	expiry    time.Time
	checksum  string
}

func parseKey(licenseKey string) (parsedKey, error) {
	canonical := strings.ToUpper(strings.TrimSpace(licenseKey))
	if len(canonical) < minKeyLength {
		return parsedKey{}, ErrInvalidFormat
	}
	parts := strings.Split(canonical, "-")
	if len(parts) != keyFields {
		return parsedKey{}, ErrInvalidFormat
	}

	expiry, err := expiryFromToken(parts[3])
	if err != nil {
		return parsedKey{}, err
	}
	return parsedKey{
		canonical: canonical,
		code:      parts[0],
		hwidHalf:  parts[1] + parts[2],
		expiry:    expiry,
		checksum:  parts[4],
	}, nil
}

// expiryFromToken turns YYMM into 20YY-MM-01 UTC.
func expiryFromToken(token string) (time.Time, error) {
	if len(token) != fieldWidth {
		return time.Time{}, ErrInvalidFormat
	}
	yy, err := strconv.Atoi(token[:2])
	if err != nil {
		return time.Time{}, ErrInvalidFormat
	}
	mm, err := strconv.Atoi(token[2:])
	if err != nil || mm < 1 || mm > 12 {
		return time.Time{}, ErrInvalidFormat
	}
	return time.Date(2000+yy, time.Month(mm), 1, 0, 0, 0, 0, time.UTC), nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func firstN(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

// Validator checks keys against a device fingerprint.
type Validator struct {
	secret         string
	verifyChecksum bool
}

// NewValidator creates a Validator. With verifyChecksum false the checksum
// field is carried but never checked.
func NewValidator(secret string, verifyChecksum bool) Validator {
	return Validator{secret: secret, verifyChecksum: verifyChecksum}
}

// Validate checks, in order, the key format, the device, the expiry and,
// when enabled, the checksum.
func (v Validator) Validate(licenseKey, fingerprint string, now time.Time) Validation {
	k, err := parseKey(licenseKey)
	if err != nil {
		return invalid(err)
	}

	current := strings.ToUpper(firstN(fingerprint, 8))
	if k.hwidHalf != current {
		return invalid(ErrDeviceMismatch)
	}

	if k.expiry.Before(truncateDay(now)) {
		res := invalid(ErrExpired)
		res.Expired = true
		res.ExpiryDate = k.expiry
		return res
	}

	class := ClassFromCode(k.code)
	if v.verifyChecksum && !v.checksumMatches(k, class, fingerprint) {
		return invalid(ErrChecksumMismatch)
	}

	return Validation{
		Valid:      true,
		Class:      class,
		ExpiryDate: k.expiry,
		LicenseKey: k.canonical,
	}
}

// checksumMatches recomputes the checksum for every day of the expiry month,
// since the key only keeps year and month. The class name is recovered from
// the code: known tiers by name, others from the code without X padding.
// keygen accepts any HWID of at least eight characters, so every such prefix
// of the device fingerprint is tried, longest first.
func (v Validator) checksumMatches(k parsedKey, class Class, fingerprint string) bool {
	fingerprint = strings.ToUpper(strings.TrimSpace(fingerprint))
	candidates := []string{string(class)}
	if !strings.HasPrefix(string(class), k.code) {
		candidates = append(candidates, k.code)
		if trimmed := strings.TrimRight(k.code, "X"); trimmed != "" && trimmed != k.code {
			candidates = append(candidates, trimmed)
		}
	}

	for day := k.expiry; day.Month() == k.expiry.Month(); day = day.AddDate(0, 0, 1) {
		expiry8 := day.Format(compactLayout)
		for _, name := range candidates {
			for n := len(fingerprint); n >= minHWIDLength; n-- {
				sum := Checksum(v.secret, name, fingerprint[:n], expiry8)
				if hmac.Equal([]byte(sum[:fieldWidth]), []byte(k.checksum)) {
					return true
				}
			}
		}
	}
	return false
}

func invalid(err error) Validation {
	return Validation{Err: err}
}

// String renders the key fields the way keygen prints them.
func (k Key) String() string {
	return fmt.Sprintf("%s (%s, expires %s)", k.LicenseKey, k.Class, k.ExpiryDate.Format(dateLayout))
}
