package service

import "errors"

// ErrNotFound 表示引用的实体不存在。
var ErrNotFound = errors.New("record not found")

// ValidationError 表示输入不合法，属于可恢复错误，不产生任何状态变更。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// AuthError 表示凭证错误或权限不足，属于可恢复错误，不产生任何状态变更。
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func denied(message string) error {
	return &AuthError{Message: message}
}

// Actor 表示发起操作的账号。零值表示匿名访问。
// 所有变更操作都要求显式传入 Actor，不读取任何全局状态。
type Actor struct {
	ID      uint
	IsAdmin bool
}

// Anonymous 判断 Actor 是否未登录。
func (a Actor) Anonymous() bool { return a.ID == 0 }

func requireAuthenticated(actor Actor) error {
	if actor.Anonymous() {
		return denied("authentication required")
	}
	return nil
}

func requireAdmin(actor Actor) error {
	if err := requireAuthenticated(actor); err != nil {
		return err
	}
	if !actor.IsAdmin {
		return denied("admin privileges required")
	}
	return nil
}
