package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"bugtracker/internal/model"
	pkgErrors "bugtracker/pkg/responses"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id int64) (*model.User, error)
	FindByUsername(username string) (*model.User, error)
	FindByAPIKey(key string) (*model.User, error)
	UpdateLastSeen(id int64, ip string) error
	UpdateAPIKey(id int64, key string) error
	ListAll() ([]*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建用户失败", err)
	}
	return nil
}

func (r *userRepository) FindByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户失败", err)
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户失败", err)
	}
	return &user, nil
}

func (r *userRepository) FindByAPIKey(key string) (*model.User, error) {
	var user model.User
	err := r.db.Where("api_key = ?", key).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户失败", err)
	}
	return &user, nil
}

// UpdateLastSeen 登录成功后刷新最近IP和登录时间
func (r *userRepository) UpdateLastSeen(id int64, ip string) error {
	updates := map[string]interface{}{
		"last_ip":       ip,
		"last_login_at": time.Now(),
	}
	if err := r.db.Model(&model.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新登录信息失败", err)
	}
	return nil
}

// UpdateAPIKey 写入新key, 唯一索引冲突时返回ErrRecordExists由调用方重试
func (r *userRepository) UpdateAPIKey(id int64, key string) error {
	if err := r.db.Model(&model.User{}).Where("id = ?", id).Update("api_key", key).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新API Key失败", err)
	}
	return nil
}

func (r *userRepository) ListAll() ([]*model.User, error) {
	var users []*model.User
	if err := r.db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户列表失败", err)
	}
	return users, nil
}
