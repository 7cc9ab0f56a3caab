package license

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"pos-backend/internal/repo"
	"pos-backend/internal/store"
)

// Record is one activation persisted in app_license.
type Record struct {
	ID          string    `json:"id"`
	LicenseKey  string    `json:"license_key"`
	Fingerprint string    `json:"hwid"`
	IsActive    bool      `json:"is_active"`
	Class       Class     `json:"license_type"`
	ExpiryDate  string    `json:"expire_date"`
	CreatedAt   time.Time `json:"created_at"`
}

var records = repo.NewCodec("app_license",
	func(r Record) store.Row {
		row := store.Row{
			"license_key":  r.LicenseKey,
			"hwid":         r.Fingerprint,
			"is_active":    r.IsActive,
			"license_type": string(r.Class),
			"expire_date":  r.ExpiryDate,
		}
		if r.ID != "" {
			row["id"] = r.ID
		}
		return row
	},
	func(row store.Row) Record {
		return Record{
			ID:          row.String("id"),
			LicenseKey:  row.String("license_key"),
			Fingerprint: row.String("hwid"),
			IsActive:    row.Bool("is_active"),
			Class:       Class(row.String("license_type")),
			ExpiryDate:  row.String("expire_date"),
			CreatedAt:   row.Time("created_at"),
		}
	},
)

// Option configures an Authority.
type Option func(*Authority)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) { a.now = now }
}

// WithFingerprinter replaces the host fingerprinter.
func WithFingerprinter(f Fingerprinter) Option {
	return func(a *Authority) { a.fingerprinter = f }
}

// WithChecksumVerification turns checksum verification on or off.
func WithChecksumVerification(verify bool) Option {
	return func(a *Authority) { a.validator.verifyChecksum = verify }
}

// Authority validates and persists the license of this machine.
type Authority struct {
	secret        string
	validator     Validator
	licenses      *repo.Repository[Record]
	fingerprinter Fingerprinter
	now           func() time.Time
}

// NewAuthority creates an Authority persisting through s. Checksums are
// verified unless disabled with WithChecksumVerification.
func NewAuthority(s store.Store, secret string, opts ...Option) *Authority {
	a := &Authority{
		secret:    secret,
		validator: NewValidator(secret, true),
		licenses:  repo.New(s, records),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.fingerprinter == nil {
		a.fingerprinter = DefaultFingerprinter()
	}
	return a
}

// Fingerprint returns the hardware fingerprint of this machine.
func (a *Authority) Fingerprint(ctx context.Context) string {
	return a.fingerprinter.Fingerprint(ctx)
}

// Generate issues a key for fingerprint with the Authority's secret and clock.
func (a *Authority) Generate(fingerprint, class string, validDays int) (Key, error) {
	return Generate(a.secret, fingerprint, class, validDays, a.now())
}

// Validate checks licenseKey against this machine.
func (a *Authority) Validate(ctx context.Context, licenseKey string) Validation {
	fp := a.Fingerprint(ctx)
	res := a.validator.Validate(licenseKey, fp, a.now())
	res.Fingerprint = fp
	return res
}

// CheckStored validates the active license record. A record that no longer
// validates is deactivated, never deleted. The returned error is reserved
// for storage failures.
func (a *Authority) CheckStored(ctx context.Context) (Validation, error) {
	fp := a.Fingerprint(ctx)

	rec, err := a.licenses.FindOne(ctx, store.Where{"is_active": true})
	if errors.Is(err, repo.ErrNotFound) {
		return Validation{Err: ErrNoLicense, Fingerprint: fp}, nil
	}
	if err != nil {
		return Validation{Fingerprint: fp}, fmt.Errorf("load active license: %w", err)
	}

	res := a.validator.Validate(rec.LicenseKey, fp, a.now())
	res.Fingerprint = fp
	if !res.Valid {
		log.Warn().Err(res.Err).Str("license_id", rec.ID).Msg("stored license failed validation, deactivating")
		if _, err := a.licenses.Update(ctx, rec.ID, store.Row{"is_active": false}); err != nil {
			return res, fmt.Errorf("deactivate license %s: %w", rec.ID, err)
		}
	}
	return res, nil
}

// Activate validates licenseKey and, when it is valid, makes it the only
// active record. An invalid key is returned as is without any write. The
// deactivate and insert steps are not atomic.
func (a *Authority) Activate(ctx context.Context, licenseKey string) (Validation, error) {
	res := a.Validate(ctx, licenseKey)
	if !res.Valid {
		return res, nil
	}

	if _, err := a.licenses.UpdateWhere(ctx, store.Row{"is_active": false}, store.Where{"is_active": true}); err != nil {
		return res, fmt.Errorf("deactivate previous licenses: %w", err)
	}

	rec, err := a.licenses.Create(ctx, Record{
		LicenseKey:  res.LicenseKey,
		Fingerprint: res.Fingerprint,
		IsActive:    true,
		Class:       res.Class,
		ExpiryDate:  res.ExpiryDate.Format(dateLayout),
	})
	if err != nil {
		return res, fmt.Errorf("store license: %w", err)
	}

	log.Info().Str("license_id", rec.ID).Str("class", string(res.Class)).Msg("license activated")
	res.Activated = true
	return res, nil
}

// History returns every license record, newest first.
func (a *Authority) History(ctx context.Context) ([]Record, error) {
	return a.licenses.List(ctx, store.SelectOptions{OrderBy: "created_at", Descending: true})
}
