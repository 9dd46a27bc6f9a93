// Package directory administra los datos de referencia: usuarios, bodegas y marcas.
package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/application/unitofwork"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// Authority lo mínimo que se necesita de access.Authority.
type Authority interface {
	AccessibleWarehouseIDsAs(ctx context.Context, userID string, role entity.Role, includeViewOnly bool) (map[string]struct{}, error)
}

// Service casos de uso del directorio.
type Service struct {
	uow       *unitofwork.Runner
	repos     repository.Repos
	authority Authority
	audit     *audit.Recorder
	now       func() time.Time
}

// NewService construye el servicio.
func NewService(uow *unitofwork.Runner, repos repository.Repos, authority Authority, rec *audit.Recorder) *Service {
	return &Service{uow: uow, repos: repos, authority: authority, audit: rec, now: time.Now}
}

// ─── Usuarios ────────────────────────────────────────────────────────────────

// GetUser obtiene un usuario por ID; nil si no existe.
func (s *Service) GetUser(ctx context.Context, id string) (*dto.UserResponse, error) {
	u, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(u), nil
}

// VisibleUsers usuarios que el solicitante puede ver según su rol.
func (s *Service) VisibleUsers(ctx context.Context, requesterID string, role entity.Role) ([]dto.UserResponse, error) {
	users, err := s.repos.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	visible := entity.FilterUsersByRole(role, requesterID, users)
	out := make([]dto.UserResponse, 0, len(visible))
	for _, u := range visible {
		out = append(out, *toUserResponse(u))
	}
	return out, nil
}

// CreateUser crea un usuario si el rol del creador lo permite. El código de personal es único.
func (s *Service) CreateUser(ctx context.Context, requesterID string, requesterRole entity.Role, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	role, ok := entity.ParseRole(in.Role)
	if !ok {
		return nil, fmt.Errorf("rol %q: %w", in.Role, domain.ErrInvalidInput)
	}
	if !entity.CanCreateRole(requesterRole, role) {
		return nil, domain.ErrForbidden
	}
	code := strings.TrimSpace(in.PersonnelCode)
	if code == "" || in.Password == "" || strings.TrimSpace(in.FirstName) == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, err := s.repos.Users.GetByPersonnelCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &entity.User{
		ID:            uuid.New().String(),
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		PersonnelCode: code,
		MobileNumber:  in.MobileNumber,
		Email:         in.Email,
		PasswordHash:  string(hash),
		Role:          role,
		ExpiryDate:    in.ExpiryDate,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = s.uow.Do(ctx, "create_user", nil, func(ctx context.Context, r repository.Repos) error {
		return r.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	s.audit.Log(ctx, audit.Entry{
		TableName:   entity.TableUsers,
		Action:      entity.AuditCreate,
		RecordID:    user.ID,
		Description: fmt.Sprintf("Usuario creado: %s (%s) con rol %s", user.FullName(), user.PersonnelCode, role),
		UserID:      requesterID,
		NewValues:   resp,
	})
	return resp, nil
}

// DeactivateUser baja lógica (DELETE en bitácora).
func (s *Service) DeactivateUser(ctx context.Context, id, actorID string) error {
	return s.setUserActive(ctx, id, actorID, false)
}

// ReactivateUser reactiva un usuario dado de baja (UPDATE en bitácora).
func (s *Service) ReactivateUser(ctx context.Context, id, actorID string) error {
	return s.setUserActive(ctx, id, actorID, true)
}

func (s *Service) setUserActive(ctx context.Context, id, actorID string, active bool) error {
	var user *entity.User
	err := s.uow.Do(ctx, "set_user_active", nil, func(ctx context.Context, r repository.Repos) error {
		var err error
		user, err = r.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("usuario %s: %w", id, domain.ErrNotFound)
		}
		if active {
			user.Reactivate(s.now())
		} else {
			user.Deactivate(s.now())
		}
		return r.Users.Update(ctx, user)
	})
	if err != nil {
		return err
	}
	action, verb := entity.AuditDelete, "desactivado"
	if active {
		action, verb = entity.AuditUpdate, "reactivado"
	}
	s.audit.Log(ctx, audit.Entry{
		TableName:   entity.TableUsers,
		Action:      action,
		RecordID:    id,
		Description: fmt.Sprintf("Usuario %s: %s", verb, user.FullName()),
		UserID:      actorID,
		OldValues:   activeSnapshot{IsActive: !active},
		NewValues:   activeSnapshot{IsActive: active},
	})
	return nil
}

type activeSnapshot struct {
	IsActive bool `json:"is_active"`
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		PersonnelCode: u.PersonnelCode,
		MobileNumber:  u.MobileNumber,
		Email:         u.Email,
		Role:          u.Role.String(),
		ExpiryDate:    u.ExpiryDate,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
	}
}
