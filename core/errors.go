package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - History 错误：INVALID_INPUT（借阅记录不合法）
//   - Config 错误：INVALID_INPUT（阈值越界、词表为空）
//   - Feature 错误：UNAVAILABLE（远程画像服务熔断）
//
// 挖掘核心（apriori 包）本身不返回错误：所有输入校验发生在进入核心之前。
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_INPUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "history"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is 按 Module + Code 判等，使 errors.Is(wrapped, ErrStoreNotFound) 成立。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// IsDomainError 检查错误链中是否有 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 以 base 的 Module/Code 包装底层错误。
func WrapDomainError(base *DomainError, err error) *DomainError {
	return &DomainError{
		Module:  base.Module,
		Code:    base.Code,
		Message: base.Message,
		Err:     err,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore   = "store"
	ModuleHistory = "history"
	ModuleFeature = "feature"
	ModuleConfig  = "config"
	ModuleMining  = "mining"
	ModuleCatalog = "catalog"
)

var (
	// ErrInvalidTransaction 表示借阅记录无法构造合法的 Transaction（如缺少 UserID）
	ErrInvalidTransaction = NewDomainError(ModuleHistory, ErrorCodeInvalidInput, "history: invalid borrow record")

	// ErrInvalidConfig 表示挖掘配置不合法
	ErrInvalidConfig = NewDomainError(ModuleConfig, ErrorCodeInvalidInput, "config: invalid mining config")

	// ErrProfileUnavailable 表示远程用户画像不可用
	ErrProfileUnavailable = NewDomainError(ModuleFeature, ErrorCodeUnavailable, "feature: profile service unavailable")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}
