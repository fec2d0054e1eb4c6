package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 错误分类，handler 通过 errors.Is 映射为 HTTP 状态码
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("storage unavailable")
)

// 具体业务错误均包装上面的分类
var (
	ErrAccountNotFound    = fmt.Errorf("account %w", ErrNotFound)
	ErrInsightNotFound    = fmt.Errorf("insight %w", ErrNotFound)
	ErrEmailTaken         = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrUsernameExhausted  = fmt.Errorf("could not allocate a unique username: %w", ErrConflict)
	ErrInvalidCredentials = errors.New("Invalid email or password")
)

// errDuplicateAccount 表示写入时撞上 accounts 的唯一索引，只在 SignUp 内部使用
var errDuplicateAccount = errors.New("duplicate account")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// storageErr 把存储层错误归为 Unavailable，保留原始错误链
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// accountLookupErr 区分账户不存在与存储故障
func accountLookupErr(err error) error {
	if isRecordNotFound(err) {
		return ErrAccountNotFound
	}
	return storageErr("load account", err)
}

// txErr 保留已分类的错误，其余（如开启/提交事务失败）归为 Unavailable
func txErr(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrInvalidInput, ErrConflict, ErrUnavailable, ErrInvalidCredentials} {
		if errors.Is(err, known) {
			return err
		}
	}
	return storageErr("transaction", err)
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
