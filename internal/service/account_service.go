package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	config "github.com/endyji01/fb-buffer/configs"
	"github.com/endyji01/fb-buffer/internal/models"
	"github.com/endyji01/fb-buffer/internal/repository"
	"github.com/endyji01/fb-buffer/internal/transfer"
	"github.com/endyji01/fb-buffer/pkg/utils"
)

type AccountService interface {
	Create(ctx context.Context, ac *transfer.AccountCreation) (int64, error)
	ImportCSV(ctx context.Context, r io.Reader) (*transfer.ImportSummary, error)
	List(ctx context.Context) ([]*models.Account, error)
}

type accountService struct {
	cfg config.Config
	ar  repository.AccountRepository
}

func NewAccountService(cfg config.Config, ar repository.AccountRepository) AccountService {
	return &accountService{cfg: cfg, ar: ar}
}

func (s *accountService) Create(ctx context.Context, ac *transfer.AccountCreation) (int64, error) {
	if ac == nil {
		return 0, errors.New("account data is nil")
	}

	name := strings.TrimSpace(ac.Name)
	pageID := strings.TrimSpace(ac.PageID)
	token := strings.TrimSpace(ac.Token)
	if name == "" || pageID == "" || token == "" {
		err := errors.New("name, page_id and token are all required")
		slog.Info(err.Error())
		return 0, err
	}

	// Tokens go to rest encrypted when a secret key is configured.
	if s.cfg.SecretKey != "" {
		encrypted, err := utils.Encrypt([]byte(token), []byte(s.cfg.SecretKey))
		if err != nil {
			return 0, err
		}
		token = encrypted
	}

	return s.ar.Create(ctx, &models.Account{
		Name:   name,
		PageID: pageID,
		Token:  token,
	})
}

// ImportCSV ingests rows of (name, page_id, token). A header row is
// tolerated and malformed rows are counted and skipped rather than failing
// the whole import.
func (s *accountService) ImportCSV(ctx context.Context, r io.Reader) (*transfer.ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	summary := &transfer.ImportSummary{}
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		if first {
			first = false
			if isHeaderRow(record, "name") {
				continue
			}
		}

		if len(record) < 3 {
			summary.Skipped++
			continue
		}

		_, err = s.Create(ctx, &transfer.AccountCreation{
			Name:   record[0],
			PageID: record[1],
			Token:  record[2],
		})
		if err != nil {
			summary.Skipped++
			continue
		}
		summary.Imported++
	}

	return summary, nil
}

func (s *accountService) List(ctx context.Context) ([]*models.Account, error) {
	return s.ar.List(ctx)
}

func isHeaderRow(record []string, firstColumn string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), firstColumn)
}
