// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"

	"github.com/tenmm/squadadmin/internal/app/store/docstore"
	"github.com/tenmm/squadadmin/internal/app/system/normalize"
	"github.com/tenmm/squadadmin/internal/domain/models"
)

// Store handles user records outside the admin console's live mirrors:
// registration on sign-in and direct lookups. It shares the document-store
// write path with the synchronization core so field shapes stay in one
// place.
type Store struct {
	docs docstore.Store
}

func New(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

var ErrMissingSubject = errors.New("identity profile has no subject id")

// Profile is what the identity provider hands back after sign-in.
type Profile struct {
	Subject string // stable provider subject id, used as the users doc id
	Email   string
	Name    string
}

// RegisterSignIn upserts the users/{uid} record for a completed sign-in.
// On first registration any allowlist entry for the email is applied: its
// tier (free stays absent) and squad become the new record's starting
// values. Returning sign-ins only refresh the profile fields and the
// updatedAt stamp, never the tier.
func (s *Store) RegisterSignIn(ctx context.Context, p Profile) (models.User, error) {
	if p.Subject == "" {
		return models.User{}, ErrMissingSubject
	}
	email := normalize.Email(p.Email)
	name := normalize.Name(p.Name)

	existing, err := s.docs.Get(ctx, docstore.UsersCollection, p.Subject)
	switch {
	case err == nil:
		fields := docstore.Fields{
			"emailLower":  email,
			"displayName": name,
			"updatedAt":   docstore.ServerTimestamp,
		}
		if err := s.docs.Set(ctx, docstore.UsersCollection, p.Subject, fields, true); err != nil {
			return models.User{}, err
		}
		return userFromDoc(existing, email, name), nil

	case errors.Is(err, docstore.ErrNotFound):
		fields := docstore.Fields{
			"emailLower":  email,
			"displayName": name,
			"createdAt":   docstore.ServerTimestamp,
			"updatedAt":   docstore.ServerTimestamp,
		}

		u := models.User{ID: p.Subject, Email: email, DisplayName: name, Tier: models.TierFree}
		if entry, err := s.allowlistFor(ctx, email); err == nil {
			if value, present := models.EncodeTier(entry.Tier); present {
				fields["tier"] = value
				u.Tier = entry.Tier
			}
			if entry.SquadID != "" {
				fields["squadID"] = entry.SquadID
				u.SquadID = entry.SquadID
			}
		}

		if err := s.docs.Set(ctx, docstore.UsersCollection, p.Subject, fields, true); err != nil {
			return models.User{}, err
		}
		return u, nil

	default:
		return models.User{}, err
	}
}

// GetByID loads one user record.
func (s *Store) GetByID(ctx context.Context, uid string) (models.User, error) {
	doc, err := s.docs.Get(ctx, docstore.UsersCollection, uid)
	if err != nil {
		return models.User{}, err
	}
	return userFromDoc(doc, "", ""), nil
}

func (s *Store) allowlistFor(ctx context.Context, email string) (models.AllowlistEntry, error) {
	doc, err := s.docs.Get(ctx, docstore.AllowlistCollection, email)
	if err != nil {
		return models.AllowlistEntry{}, err
	}
	entry := models.AllowlistEntry{
		ID:      doc.ID,
		Email:   email,
		Tier:    models.DecodeTier(stringField(doc.Fields, "tier")),
		SquadID: stringField(doc.Fields, "squadID"),
	}
	return entry, nil
}

func userFromDoc(doc docstore.Doc, email, name string) models.User {
	if email == "" {
		email = stringField(doc.Fields, "emailLower")
		if email == "" {
			email = normalize.Email(stringField(doc.Fields, "email"))
		}
	}
	if name == "" {
		name = stringField(doc.Fields, "displayName")
	}

	var override models.Tier
	if t, ok := models.ParseTier(stringField(doc.Fields, "tierOverride")); ok && t != models.TierFree {
		override = t
	}

	return models.User{
		ID:           doc.ID,
		Email:        email,
		DisplayName:  name,
		Tier:         models.DecodeTier(stringField(doc.Fields, "tier")),
		TierOverride: override,
		SquadID:      stringField(doc.Fields, "squadID"),
		Source:       stringField(doc.Fields, "source"),
		TrialStatus:  stringField(doc.Fields, "trialStatus"),
	}
}

func stringField(f docstore.Fields, key string) string {
	s, _ := f[key].(string)
	return s
}
