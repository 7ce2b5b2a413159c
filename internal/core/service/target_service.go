package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/keys"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/pkg/logger"
)

type TargetService struct {
	store  ports.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewTargetService(store ports.Store, logger zerolog.Logger) *TargetService {
	return &TargetService{store: store, logger: logger, now: systemClock}
}

func (s *TargetService) Create(ctx context.Context, in ports.CreateTargetInput) (*domain.Target, error) {
	if _, err := projectExists(ctx, s.store, in.ProjectID); err != nil {
		return nil, err
	}
	order := 0
	if in.Order != nil {
		order = *in.Order
	} else {
		existing, err := s.List(ctx, in.ProjectID, true)
		if err != nil {
			return nil, err
		}
		order = len(existing)
	}
	return s.put(ctx, in, order)
}

func (s *TargetService) put(ctx context.Context, in ports.CreateTargetInput, order int) (*domain.Target, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validationf("name is required")
	}
	now := s.now()
	target := &domain.Target{
		ID:          domain.NewID(),
		ProjectID:   in.ProjectID,
		Name:        name,
		DisplayName: in.DisplayName,
		Email:       in.Email,
		Phone:       in.Phone,
		Order:       order,
		Metadata:    in.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	item, err := toItem(target, keyAttrs(targetKey(in.ProjectID, target.ID), "", ""))
	if err != nil {
		return nil, err
	}
	if err := s.store.PutItem(ctx, item, ports.PutOptions{IfNotExists: true}); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *TargetService) Get(ctx context.Context, projectID, targetID string) (*domain.Target, error) {
	return getEntity[domain.Target](ctx, s.store, targetKey(projectID, targetID), domain.ErrTargetNotFound)
}

// List returns targets by order, then by creation time. Targets sharing an
// order value are all returned.
func (s *TargetService) List(ctx context.Context, projectID string, includeArchived bool) ([]domain.Target, error) {
	targets, err := queryEntities[domain.Target](ctx, s.store, ports.QueryInput{PK: keys.Project(projectID), SKPrefix: keys.PrefixTarget})
	if err != nil {
		return nil, err
	}
	out := targets[:0]
	for _, t := range targets {
		if t.Archived && !includeArchived {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *TargetService) Update(ctx context.Context, projectID, targetID string, patch ports.TargetPatch) (*domain.Target, error) {
	c := newChanges()
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.Validationf("name cannot be empty")
		}
		c.put("name", name)
	}
	if patch.DisplayName != nil {
		c.put("displayName", *patch.DisplayName)
	}
	if patch.Email != nil {
		c.put("email", *patch.Email)
	}
	if patch.Phone != nil {
		c.put("phone", *patch.Phone)
	}
	if patch.Order != nil {
		c.put("order", *patch.Order)
	}
	if patch.Archived != nil {
		c.put("archived", *patch.Archived)
	}
	if patch.Metadata != nil {
		c.put("metadata", *patch.Metadata)
	}
	return updateEntity[domain.Target](ctx, s.store, targetKey(projectID, targetID), c.input(s.now(), patch.ExpectedVersion), domain.ErrTargetNotFound)
}

// Delete removes the target and its row of matrix cells.
func (s *TargetService) Delete(ctx context.Context, projectID, targetID string) error {
	if _, err := deletePartition(ctx, s.store, keys.Cell(projectID, targetID), ""); err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, targetKey(projectID, targetID)); err != nil {
		return err
	}
	logger.FromContext(ctx, s.logger).Info().Str("project_id", projectID).Str("target_id", targetID).Msg("target deleted")
	return nil
}

// ImportCSV creates one target per data row. The header row names the
// columns: name, displayName, email, phone and order map to fields
// (case-insensitive, "_" and " " ignored); every other non-empty column is
// kept in metadata. Rows without a name are skipped.
func (s *TargetService) ImportCSV(ctx context.Context, projectID string, r io.Reader) (*ports.ImportResult, error) {
	if _, err := projectExists(ctx, s.store, projectID); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.Validationf("csv is empty")
	}
	if err != nil {
		return nil, domain.Validationf("csv header: %v", err)
	}
	// Spreadsheet exports often start with a byte-order mark.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	columns := make([]string, len(header))
	hasName := false
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		columns[i] = normalizeColumn(header[i])
		if columns[i] == "name" {
			hasName = true
		}
	}
	if !hasName {
		return nil, domain.Validationf("csv header must contain a name column")
	}

	existing, err := s.List(ctx, projectID, true)
	if err != nil {
		return nil, err
	}
	nextOrder := len(existing)

	result := &ports.ImportResult{Created: []domain.Target{}}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, domain.Validationf("csv line %d: %v", line, err)
		}

		in, order := targetFromRecord(projectID, header, columns, record)
		if in.Name == "" {
			result.Skipped++
			continue
		}
		if order == nil {
			order = &nextOrder
		}
		t, err := s.put(ctx, in, *order)
		if err != nil {
			return result, fmt.Errorf("csv line %d: %w", line, err)
		}
		nextOrder++
		result.Created = append(result.Created, *t)
	}

	logger.FromContext(ctx, s.logger).Info().Str("project_id", projectID).Int("created", len(result.Created)).Int("skipped", result.Skipped).Msg("targets imported")
	return result, nil
}

func normalizeColumn(h string) string {
	h = strings.ToLower(h)
	return strings.NewReplacer("_", "", " ", "").Replace(h)
}

func targetFromRecord(projectID string, header, columns, record []string) (ports.CreateTargetInput, *int) {
	in := ports.CreateTargetInput{ProjectID: projectID}
	var order *int
	for i, value := range record {
		if i >= len(columns) {
			break
		}
		value = strings.TrimSpace(value)
		switch columns[i] {
		case "name":
			in.Name = value
		case "displayname":
			in.DisplayName = value
		case "email":
			in.Email = value
		case "phone":
			in.Phone = value
		case "order":
			if n, err := strconv.Atoi(value); err == nil {
				order = &n
			}
		default:
			if value == "" {
				continue
			}
			if in.Metadata == nil {
				in.Metadata = map[string]string{}
			}
			in.Metadata[header[i]] = value
		}
	}
	return in, order
}
