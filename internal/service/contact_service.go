package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/pkg/logger"
)

type contactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Contact, error)
	GetAll(ctx context.Context, page, pageSize int) ([]domain.Contact, int64, error)
	Update(ctx context.Context, contact *domain.Contact) error
	Delete(ctx context.Context, id string) error
}

type ContactService struct {
	repo contactRepository
}

func NewContactService(repo contactRepository) *ContactService {
	return &ContactService{repo: repo}
}

// NormalizePhone strips every non-digit and prepends the Colombian country
// code when given a bare 10-digit local number.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) == 10 && !strings.HasPrefix(digits, "57") {
		digits = "57" + digits
	}

	return digits
}

// ToAddress converts a normalized phone number into the gateway's chat
// address form.
func ToAddress(phone string) string {
	return NormalizePhone(phone) + "@c.us"
}

func (s *ContactService) CreateContact(ctx context.Context, name, phone, email string) (*domain.Contact, error) {
	normalized := NormalizePhone(phone)
	if len(normalized) < 10 {
		return nil, fmt.Errorf("phone number %q is too short", phone)
	}

	existing, err := s.repo.GetByPhone(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("a contact with phone %s already exists", normalized)
	}

	now := time.Now()
	contact := &domain.Contact{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Phone:     normalized,
		Email:     strings.TrimSpace(email),
		Source:    domain.SourceManual,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, err
	}

	return contact, nil
}

func (s *ContactService) GetContact(ctx context.Context, id string) (*domain.Contact, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ContactService) GetAllContacts(ctx context.Context, page, pageSize int) ([]domain.Contact, int64, error) {
	return s.repo.GetAll(ctx, page, pageSize)
}

func (s *ContactService) UpdateContact(ctx context.Context, id, name, phone, email string) (*domain.Contact, error) {
	contact, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, domain.ErrContactNotFound
	}

	if name != "" {
		contact.Name = strings.TrimSpace(name)
	}
	if phone != "" {
		contact.Phone = NormalizePhone(phone)
	}
	if email != "" {
		contact.Email = strings.TrimSpace(email)
	}

	if err := s.repo.Update(ctx, contact); err != nil {
		return nil, err
	}

	return contact, nil
}

func (s *ContactService) DeleteContact(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ImportResult summarizes one spreadsheet import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

var headerAliases = map[string]string{
	"name":     "name",
	"nombre":   "name",
	"phone":    "phone",
	"telefono": "phone",
	"teléfono": "phone",
	"celular":  "phone",
	"numero":   "phone",
	"número":   "phone",
	"email":    "email",
	"correo":   "email",
	"mail":     "email",
}

// ImportFromExcel reads contacts from the first sheet of an xlsx workbook.
// The header row is matched case-insensitively against Spanish and English
// column names; rows with unusable phones and phones already in the directory
// are skipped, not fatal.
func (s *ContactService) ImportFromExcel(ctx context.Context, file io.Reader) (*ImportResult, error) {
	workbook, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s has no data rows", sheets[0])
	}

	columns := map[string]int{}
	for i, header := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(header))
		if canonical, ok := headerAliases[key]; ok {
			columns[canonical] = i
		}
	}

	nameCol, hasName := columns["name"]
	phoneCol, hasPhone := columns["phone"]
	emailCol, hasEmail := columns["email"]
	if !hasName || !hasPhone {
		return nil, fmt.Errorf("sheet %s is missing name or phone columns", sheets[0])
	}

	result := &ImportResult{}

	for rowNum, row := range rows[1:] {
		cell := func(col int) string {
			if col < len(row) {
				return strings.TrimSpace(row[col])
			}
			return ""
		}

		name := cell(nameCol)
		phone := NormalizePhone(cell(phoneCol))

		if name == "" || len(phone) < 10 {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing name or invalid phone", rowNum+2))
			continue
		}

		existing, err := s.repo.GetByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		now := time.Now()
		contact := &domain.Contact{
			ID:        uuid.NewString(),
			Name:      name,
			Phone:     phone,
			Source:    domain.SourceImport,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if hasEmail {
			contact.Email = cell(emailCol)
		}

		if err := s.repo.Create(ctx, contact); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum+2, err))
			continue
		}

		result.Imported++
	}

	logger.Infof("Imported %d contacts from Excel (%d skipped)", result.Imported, result.Skipped)

	return result, nil
}
