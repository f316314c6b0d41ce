package core

// Polarity 是评分极性。折叠进偏好向量时映射为带符号权重：
// positive -> +1.0，negative -> -1.0，其他 -> 0.0。
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

// Weight 返回极性对应的带符号权重。
func (p Polarity) Weight() float64 {
	switch p {
	case PolarityPositive:
		return 1.0
	case PolarityNegative:
		return -1.0
	default:
		return 0.0
	}
}

// RatingSource 标记评分来源：用户显式评分或问卷推导。
// 同一物品冲突时问卷来源胜出（视为更新、更权威的信号）。
type RatingSource string

const (
	SourceExplicit RatingSource = "explicit"
	SourceQuiz     RatingSource = "quiz"
)

// Rating 是单条物品评分，贯穿偏好聚合与问卷增强，请求级瞬态数据。
type Rating struct {
	AppID    int64
	Polarity Polarity
	Source   RatingSource
}

// RatingOrigin 标记评分集合的解析来源，区分"用过默认档"与"有真实数据"。
// 这一区分容易被静默丢失，因此显式建模（而非只靠空/非空判断）。
type RatingOrigin string

const (
	// OriginUser 表示命中了请求的 (user, station) 键
	OriginUser RatingOrigin = "user"
	// OriginDefault 表示回落到了默认（访客）档
	OriginDefault RatingOrigin = "default"
	// OriginNone 表示两级回落后仍无数据
	OriginNone RatingOrigin = "none"
)

// RatingSet 是一次评分读取的带标记结果。
type RatingSet struct {
	Origin  RatingOrigin
	Ratings []Rating
}

// QuestionMultiSelect 是本核心唯一解释的问卷题型，其他题型一律忽略。
const QuestionMultiSelect = "multiSelect"

// QuizResponse 是单条问卷回答，请求级瞬态数据。
type QuizResponse struct {
	QuizID       int64
	QuestionType string
	Selection    []string
}
