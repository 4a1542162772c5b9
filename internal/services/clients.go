package services

import (
	"context"
	"strings"

	"github.com/localnerve/shelter-intake/internal/models"
	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/localnerve/shelter-intake/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClientInput creates a client record
type ClientInput struct {
	FirstName   string `json:"firstName" validate:"required,max=255"`
	LastName    string `json:"lastName" validate:"required,max=255"`
	PhoneNumber string `json:"phoneNumber" validate:"max=64"`
	DateOfBirth string `json:"dateOfBirth" validate:"max=32"`
	Email       string `json:"email" validate:"omitempty,email,max=255"`
}

// ClientPatch is a partial client update
type ClientPatch struct {
	FirstName   *string `json:"firstName" validate:"omitempty,min=1,max=255"`
	LastName    *string `json:"lastName" validate:"omitempty,min=1,max=255"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=64"`
	DateOfBirth *string `json:"dateOfBirth" validate:"omitempty,max=32"`
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
}

// ClientPage is one page of clients ordered by name
type ClientPage struct {
	Clients  []models.Client `json:"clients"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// CreateClient adds a client. A birth date in a recognised layout is
// stored as YYYY-MM-DD, anything else as given.
func CreateClient(ctx context.Context, db *gorm.DB, in ClientInput) (*models.Client, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	c := &models.Client{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		DateOfBirth: storedDOB(in.DateOfBirth),
		Email:       strings.TrimSpace(in.Email),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, types.WrapDatabaseError(err, "create client")
	}
	return c, nil
}

// GetClient returns the client with the given id
func GetClient(ctx context.Context, db *gorm.DB, id uint64) (*models.Client, error) {
	var c models.Client
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "get client", "client %d not found", id)
	}
	return &c, nil
}

// phoneDigits strips the usual phone punctuation in SQL
const phoneDigits = "REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(phone_number, '-', ''), ' ', ''), '(', ''), ')', ''), '.', ''), '+', '')"

// ListClients pages through clients, optionally narrowed by a
// case-insensitive search over name, phone and email
func ListClients(ctx context.Context, db *gorm.DB, search string, page Page) (*ClientPage, error) {
	page = page.normalize()
	q := db.WithContext(ctx).Model(&models.Client{})

	if term := strings.ToLower(strings.TrimSpace(search)); term != "" {
		like := "%" + term + "%"
		q = q.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR "+phoneDigits+" LIKE ?",
			like, like, like, "%"+digitsOr(term)+"%")
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, types.WrapDatabaseError(err, "list clients")
	}

	var clients []models.Client
	if err := q.Order("last_name, first_name, id").
		Offset(page.offset()).
		Limit(page.PageSize).
		Find(&clients).Error; err != nil {
		return nil, types.WrapDatabaseError(err, "list clients")
	}

	return &ClientPage{Clients: clients, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

// UpdateClient applies a partial update to a client
func UpdateClient(ctx context.Context, db *gorm.DB, id uint64, patch ClientPatch) (*models.Client, error) {
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}

	c, err := GetClient(ctx, db, id)
	if err != nil {
		return nil, err
	}

	if patch.FirstName != nil {
		c.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		c.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.PhoneNumber != nil {
		c.PhoneNumber = strings.TrimSpace(*patch.PhoneNumber)
	}
	if patch.DateOfBirth != nil {
		c.DateOfBirth = storedDOB(*patch.DateOfBirth)
	}
	if patch.Email != nil {
		c.Email = strings.TrimSpace(*patch.Email)
	}

	if err := db.WithContext(ctx).Save(c).Error; err != nil {
		return nil, types.WrapDatabaseError(err, "update client")
	}
	return c, nil
}

// DeleteClient removes a client no response or intake client links to
func DeleteClient(ctx context.Context, db *gorm.DB, id uint64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Client
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error; err != nil {
			return notFound(err, "delete client", "client %d not found", id)
		}

		for _, ref := range []any{&models.IntakeResponse{}, &models.IntakeClient{}} {
			linked, err := exists(ctx, tx, ref, "client_id = ?", id)
			if err != nil {
				return types.WrapDatabaseError(err, "delete client")
			}
			if linked {
				return types.NewConflictError("client %d is linked to intake responses; unlink them first", id)
			}
		}

		if err := tx.Delete(&c).Error; err != nil {
			return types.WrapDatabaseError(err, "delete client")
		}
		return nil
	})
}

func storedDOB(s string) string {
	s = strings.TrimSpace(s)
	if dob := NormalizeDOB(s); dob != "" {
		return dob
	}
	return s
}

// digitsOr returns the digits of term, or term itself when it has none
func digitsOr(term string) string {
	if d := NormalizePhone(term); d != "" {
		return d
	}
	return term
}
