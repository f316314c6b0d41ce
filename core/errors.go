package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），请求层据此映射状态码
//   - 所有错误都是请求级可恢复错误，不存在进程级致命错误
type DomainError struct {
	Code    string // 错误代码（如 "NO_RATINGS", "CATALOG_EMPTY"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "catalog", "profile"）
	Err     error  // 底层错误（可选，用于保留存储层等原始错误）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
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

// WrapDomainError 创建携带底层错误的领域错误（常用于包装存储层错误）
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound          = "NOT_FOUND"           // 资源/文档不存在
	ErrorCodeInvalidInput      = "INVALID_INPUT"       // 输入无效（不可转换/越界的请求参数）
	ErrorCodeNoRatings         = "NO_RATINGS"          // 主键与默认键下都没有评分数据
	ErrorCodeNoSignal          = "NO_SIGNAL"           // 偏好向量坍缩为零向量，无可用信号
	ErrorCodeNoSimilarItems    = "NO_SIMILAR_ITEMS"    // 近邻检索或结果筛选为空
	ErrorCodeInvalidRatingData = "INVALID_RATING_DATA" // 存储中的评分数据损坏（物品 ID 不可解析）
	ErrorCodeUnavailable       = "UNAVAILABLE"         // 存储查询失败（向上传播，不在本层重试）
	ErrorCodeCatalogEmpty      = "CATALOG_EMPTY"       // 目录加载后为空，训练与查询快速失败
	ErrorCodeInvalidCount      = "INVALID_COUNT"       // 请求数量 <= 0
	ErrorCodeNoCandidates      = "NO_CANDIDATES"       // 结果筛选的候选集为空
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleCatalog = "catalog" // 目录索引模块
	ModuleProfile = "profile" // 用户偏好模块
	ModuleQuiz    = "quiz"    // 问卷增强模块
	ModuleRecall  = "recall"  // 近邻召回模块
	ModuleFilter  = "filter"  // 结果筛选模块
	ModuleService = "service" // 编排服务模块
)

// 预定义错误（无需携带额外上下文时直接复用）
var (
	// ErrStoreNotFound 表示文档/键不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: document not found")

	// ErrNoRatings 表示主键与默认键下都没有评分
	ErrNoRatings = NewDomainError(ModuleProfile, ErrorCodeNoRatings, "profile: no ratings available")

	// ErrNoSignal 表示用户偏好向量为零向量
	ErrNoSignal = NewDomainError(ModuleService, ErrorCodeNoSignal, "service: preference vector has no usable signal")

	// ErrNoSimilarItems 表示近邻检索没有产生任何候选
	ErrNoSimilarItems = NewDomainError(ModuleService, ErrorCodeNoSimilarItems, "service: no similar items found")

	// ErrCatalogEmpty 表示目录快照为空
	ErrCatalogEmpty = NewDomainError(ModuleCatalog, ErrorCodeCatalogEmpty, "catalog: empty snapshot")

	// ErrInvalidCount 表示请求的推荐数量不合法
	ErrInvalidCount = NewDomainError(ModuleFilter, ErrorCodeInvalidCount, "filter: recommendation count must be greater than 0")

	// ErrNoCandidates 表示结果筛选收到空候选集
	ErrNoCandidates = NewDomainError(ModuleFilter, ErrorCodeNoCandidates, "filter: no candidates to select from")
)

func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsStoreNotFound 检查错误是否为文档不存在
func IsStoreNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsNoRatings 检查错误是否为 NO_RATINGS
func IsNoRatings(err error) bool { return hasCode(err, ErrorCodeNoRatings) }

// IsNoSignal 检查错误是否为 NO_SIGNAL
func IsNoSignal(err error) bool { return hasCode(err, ErrorCodeNoSignal) }

// IsNoSimilarItems 检查错误是否为 NO_SIMILAR_ITEMS
func IsNoSimilarItems(err error) bool { return hasCode(err, ErrorCodeNoSimilarItems) }

// IsInvalidRatingData 检查错误是否为 INVALID_RATING_DATA
func IsInvalidRatingData(err error) bool { return hasCode(err, ErrorCodeInvalidRatingData) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsCatalogEmpty 检查错误是否为 CATALOG_EMPTY
func IsCatalogEmpty(err error) bool { return hasCode(err, ErrorCodeCatalogEmpty) }

// IsInvalidCount 检查错误是否为 INVALID_COUNT
func IsInvalidCount(err error) bool { return hasCode(err, ErrorCodeInvalidCount) }

// IsNoCandidates 检查错误是否为 NO_CANDIDATES
func IsNoCandidates(err error) bool { return hasCode(err, ErrorCodeNoCandidates) }
