package database

import (
	"github.com/redis/rueidis"
	"github.com/robalyx/my2cents/internal/database/service"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	user    *service.UserService
	setting *service.SettingService
}

// NewService creates a new service instance with all services.
func NewService(repository *Repository, cache rueidis.Client, logger *zap.Logger) *Service {
	return &Service{
		user:    service.NewUser(repository.User(), logger),
		setting: service.NewSetting(repository.Setting(), cache, logger),
	}
}

// User returns the user service.
func (s *Service) User() *service.UserService {
	return s.user
}

// Setting returns the setting service.
func (s *Service) Setting() *service.SettingService {
	return s.setting
}
