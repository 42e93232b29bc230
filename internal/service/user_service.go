package service

import (
	"context"
	"course_sync/internal/model"
	"course_sync/internal/repository"
	"course_sync/internal/util"
	"course_sync/pkg/logger"
	"strings"
	"time"

	"go.uber.org/zap"
)

type LoginResult struct {
	User *model.User `json:"user"`
	Sync *SyncReport `json:"sync,omitempty"`
}

// UserService 当前用户的登录、登出；登录后先完成一次全量同步
type UserService struct {
	Backend   CourseBackend
	Users     *repository.UserRepository
	Sync      *SyncService
	Scheduler *SyncScheduler
}

func NewUserService(backend CourseBackend, users *repository.UserRepository, syncService *SyncService, scheduler *SyncScheduler) *UserService {
	return &UserService{
		Backend:   backend,
		Users:     users,
		Sync:      syncService,
		Scheduler: scheduler,
	}
}

// Login 同步失败只记录日志，登录本身仍然成功
func (s *UserService) Login(ctx context.Context, username string) (*LoginResult, error) {
	username = strings.TrimSpace(username)

	user, err := s.Backend.Login(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if err := s.Users.Save(ctx, user); err != nil {
		return nil, err
	}
	logger.Log.Info("User signed in", zap.String("username", user.Username))

	report, err := s.Sync.SyncAll(ctx)
	if err != nil {
		logger.Log.Error("Sync after login failed", zap.String("username", user.Username), zap.Error(err))
	}

	if s.Scheduler != nil {
		if err := s.Scheduler.Restart(); err != nil {
			logger.Log.Error("Failed to restart sync scheduler", zap.Error(err))
		}
	}

	return &LoginResult{User: user, Sync: report}, nil
}

// Logout 不取消正在进行的同步
func (s *UserService) Logout(ctx context.Context) error {
	if err := s.Users.Clear(ctx); err != nil {
		return err
	}
	if s.Scheduler != nil {
		s.Scheduler.Stop()
	}
	logger.Log.Info("User signed out")
	return nil
}

func (s *UserService) Current(ctx context.Context) (*model.User, error) {
	user, err := s.Users.Current(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, util.ErrNoUser
	}
	return user, nil
}
