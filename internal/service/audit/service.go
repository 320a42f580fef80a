package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository"
)

type Service struct {
	repo repository.AuditRepository
	now  func() time.Time
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type LogOptions struct {
	Metadata  interface{}
	IPAddress string
	UserAgent string
}

// Log creates an audit log entry
func (s *Service) Log(ctx context.Context, userID, action, entityType, entityID string, opts *LogOptions) error {
	if opts == nil {
		opts = &LogOptions{}
	}

	var metadata json.RawMessage
	if opts.Metadata != nil {
		data, err := json.Marshal(opts.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal audit metadata: %w", err)
		}
		metadata = data
	}

	// Get IP and User Agent from gin context if not provided in opts
	ipAddress := opts.IPAddress
	userAgent := opts.UserAgent
	if gc, ok := ctx.(*gin.Context); ok && ipAddress == "" {
		ipAddress = gc.ClientIP()
		userAgent = gc.GetHeader("User-Agent")
	}

	entry := &model.AuditLog{
		ID:         uuid.NewString(),
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, filter model.AuditFilter) (model.Page[*model.AuditLog], error) {
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return model.Page[*model.AuditLog]{}, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return model.Paginate(logs, filter.Pagination), nil
}

func (s *Service) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.Cleanup(ctx, before)
}
