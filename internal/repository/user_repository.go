package repository

import (
	"context"
	"course_sync/internal/model"
	"course_sync/internal/util"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// UserRepository 当前用户身份、设备 id 和语言偏好
type UserRepository struct {
	Store KVStore
}

func NewUserRepository(store KVStore) *UserRepository {
	return &UserRepository{Store: store}
}

// Current 未登录时返回 nil, nil
func (r *UserRepository) Current(ctx context.Context) (*model.User, error) {
	data, ok, err := r.Store.Get(ctx, util.UserKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var user model.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("%w: decode user: %v", util.ErrStorage, err)
	}
	return &user, nil
}

// Username 作为后端进度接口中的用户标识，未登录时为空
func (r *UserRepository) Username(ctx context.Context) (string, error) {
	user, err := r.Current(ctx)
	if err != nil || user == nil {
		return "", err
	}
	return user.Username, nil
}

func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("%w: encode user: %v", util.ErrStorage, err)
	}
	return r.Store.Set(ctx, util.UserKey, string(data))
}

func (r *UserRepository) Clear(ctx context.Context) error {
	return r.Store.Delete(ctx, util.UserKey)
}

// DeviceID 获取或生成持久化的设备 id
func (r *UserRepository) DeviceID(ctx context.Context) (string, error) {
	id, ok, err := r.Store.Get(ctx, util.DeviceIDKey)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}
	id = "device_" + uuid.New().String()
	if err := r.Store.Set(ctx, util.DeviceIDKey, id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *UserRepository) Language(ctx context.Context) (string, error) {
	lang, ok, err := r.Store.Get(ctx, util.LanguageKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return "en", nil
	}
	return lang, nil
}

func (r *UserRepository) SetLanguage(ctx context.Context, lang string) error {
	return r.Store.Set(ctx, util.LanguageKey, lang)
}
